package agent

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/chris/wulang/internal/db"
	"github.com/chris/wulang/internal/llm"
)

const (
	ClockToolName  = "get_current_time"
	TasksToolName  = "query_tasks"
	RawSQLToolName = "db_query"
	TodoToolName   = "get_todolist"
)

// TaskStore is the slice of the database the task tools need.
type TaskStore interface {
	TasksByPerson(ctx context.Context, personID string, openOnly bool) ([]db.Task, error)
	OverdueTasks(ctx context.Context, now time.Time) ([]db.Task, error)
	TasksDueBetween(ctx context.Context, from, to time.Time) ([]db.Task, error)
	AddTask(ctx context.Context, todo, personID string, due time.Time) (int64, error)
	SetTaskCompleted(ctx context.Context, id int64, done bool) error
	UpdateTaskDueDate(ctx context.Context, id int64, due time.Time) error
	ListPersons(ctx context.Context) ([]db.Person, error)
}

type RawQuerier interface {
	RawQuery(ctx context.Context, query string) (any, error)
	Driver() string
}

// ClockTool reports the current instant in loc so the model can reason about
// deadlines.
func ClockTool(loc *time.Location, now func() time.Time) Tool {
	if now == nil {
		now = time.Now
	}
	return Tool{
		Name:        ClockToolName,
		Description: "Get the current time",
		Parameters:  llm.Obj(nil),
		Execute: func(ctx context.Context, _ map[string]any) (any, error) {
			t := now().In(loc)
			return map[string]any{
				"local":    t.Format(time.RFC3339),
				"utc":      t.UTC().Format(time.RFC3339),
				"date":     t.Format("2006-01-02"),
				"time":     t.Format("15:04"),
				"day":      t.Weekday().String(),
				"timezone": loc.String(),
			}, nil
		},
	}
}

// PersonTodoTool is read-only and fixed to one person's rows.
func PersonTodoTool(store TaskStore, loc *time.Location, personID, name string) Tool {
	return Tool{
		Name:        TodoToolName,
		Description: fmt.Sprintf("Get the %s todolist from the database", name),
		Parameters:  llm.Obj(nil),
		Execute: func(ctx context.Context, _ map[string]any) (any, error) {
			return localTasks(loc)(store.TasksByPerson(ctx, personID, false))
		},
	}
}

// RawQueryTool executes model-authored SQL as-is.
func RawQueryTool(q RawQuerier) Tool {
	return Tool{
		Name:        RawSQLToolName,
		Description: fmt.Sprintf("Execute a query to the database based on user request. The database is %s; never delete rows.", q.Driver()),
		Parameters: llm.ObjReq(map[string]any{
			"query": llm.Prop("string", "The SQL statement to execute verbatim"),
		}, "query"),
		Execute: func(ctx context.Context, params map[string]any) (any, error) {
			query, err := requireString(params, "query")
			if err != nil {
				return nil, err
			}
			return q.RawQuery(ctx, query)
		},
	}
}

type taskTemplate struct {
	description string
	required    []string
	run         func(ctx context.Context, params map[string]any) (any, error)
}

// TaskQueryTool exposes the todolist through a fixed set of named,
// parameterized templates. The model picks a template and fills its
// arguments; it never writes SQL.
func TaskQueryTool(store TaskStore, loc *time.Location, now func() time.Time) Tool {
	if now == nil {
		now = time.Now
	}
	templates := taskTemplates(store, loc, now)

	names := make([]string, 0, len(templates))
	for n := range templates {
		names = append(names, n)
	}
	sort.Strings(names)

	var desc strings.Builder
	desc.WriteString("Read or update the team todolist using a named query template. Templates:\n")
	for _, n := range names {
		t := templates[n]
		fmt.Fprintf(&desc, "- %s: %s", n, t.description)
		if len(t.required) > 0 {
			fmt.Fprintf(&desc, " (requires %s)", strings.Join(t.required, ", "))
		}
		desc.WriteString("\n")
	}
	desc.WriteString("Dates use the team time zone: 'YYYY-MM-DD HH:MM' or 'YYYY-MM-DD' (end of that day).")

	return Tool{
		Name:        TasksToolName,
		Description: desc.String(),
		Parameters: llm.ObjReq(map[string]any{
			"template":  llm.Enum("Query template to run", names...),
			"person_id": llm.Prop("string", "Team member id, e.g. daffa"),
			"id":        llm.Prop("integer", "Task id"),
			"todo":      llm.Prop("string", "Task description"),
			"due_date":  llm.Prop("string", "Deadline"),
			"from":      llm.Prop("string", "Range start"),
			"to":        llm.Prop("string", "Range end (exclusive)"),
		}, "template"),
		Execute: func(ctx context.Context, params map[string]any) (any, error) {
			name, err := requireString(params, "template")
			if err != nil {
				return nil, err
			}
			t, ok := templates[name]
			if !ok {
				return nil, fmt.Errorf("unknown template %q", name)
			}
			for _, key := range t.required {
				if _, ok := params[key]; !ok {
					return nil, fmt.Errorf("template %s: missing %s", name, key)
				}
			}
			return t.run(ctx, params)
		},
	}
}

func taskTemplates(store TaskStore, loc *time.Location, now func() time.Time) map[string]taskTemplate {
	return map[string]taskTemplate{
		"open_tasks_by_person": {
			description: "unfinished tasks of one person",
			required:    []string{"person_id"},
			run: func(ctx context.Context, p map[string]any) (any, error) {
				person, err := requireString(p, "person_id")
				if err != nil {
					return nil, err
				}
				return localTasks(loc)(store.TasksByPerson(ctx, person, true))
			},
		},
		"tasks_by_person": {
			description: "all tasks of one person, finished ones included",
			required:    []string{"person_id"},
			run: func(ctx context.Context, p map[string]any) (any, error) {
				person, err := requireString(p, "person_id")
				if err != nil {
					return nil, err
				}
				return localTasks(loc)(store.TasksByPerson(ctx, person, false))
			},
		},
		"overdue_tasks": {
			description: "unfinished tasks past their deadline, everyone",
			run: func(ctx context.Context, _ map[string]any) (any, error) {
				return localTasks(loc)(store.OverdueTasks(ctx, now()))
			},
		},
		"tasks_due_between": {
			description: "unfinished tasks with a deadline in [from, to)",
			required:    []string{"from", "to"},
			run: func(ctx context.Context, p map[string]any) (any, error) {
				from, err := dateParam(p, "from", loc, false)
				if err != nil {
					return nil, err
				}
				to, err := dateParam(p, "to", loc, false)
				if err != nil {
					return nil, err
				}
				return localTasks(loc)(store.TasksDueBetween(ctx, from, to))
			},
		},
		"list_persons": {
			description: "team members and their contacts",
			run: func(ctx context.Context, _ map[string]any) (any, error) {
				return store.ListPersons(ctx)
			},
		},
		"add_task": {
			description: "create a task; without due_date the deadline is one day from now",
			required:    []string{"todo", "person_id"},
			run: func(ctx context.Context, p map[string]any) (any, error) {
				todo, err := requireString(p, "todo")
				if err != nil {
					return nil, err
				}
				person, err := requireString(p, "person_id")
				if err != nil {
					return nil, err
				}
				due := now().In(loc).Add(24 * time.Hour)
				if _, ok := p["due_date"]; ok {
					if due, err = dateParam(p, "due_date", loc, true); err != nil {
						return nil, err
					}
				}
				id, err := store.AddTask(ctx, todo, person, due)
				if err != nil {
					return nil, err
				}
				return map[string]any{"id": id, "status": "created", "due_date": due.Format("2006-01-02 15:04")}, nil
			},
		},
		"complete_task": {
			description: "mark a task finished",
			required:    []string{"id"},
			run: func(ctx context.Context, p map[string]any) (any, error) {
				id, err := requireInt(p, "id")
				if err != nil {
					return nil, err
				}
				if err := store.SetTaskCompleted(ctx, id, true); err != nil {
					return nil, err
				}
				return map[string]any{"id": id, "status": "completed"}, nil
			},
		},
		"reopen_task": {
			description: "mark a finished task unfinished again",
			required:    []string{"id"},
			run: func(ctx context.Context, p map[string]any) (any, error) {
				id, err := requireInt(p, "id")
				if err != nil {
					return nil, err
				}
				if err := store.SetTaskCompleted(ctx, id, false); err != nil {
					return nil, err
				}
				return map[string]any{"id": id, "status": "reopened"}, nil
			},
		},
		"update_due_date": {
			description: "move a task deadline",
			required:    []string{"id", "due_date"},
			run: func(ctx context.Context, p map[string]any) (any, error) {
				id, err := requireInt(p, "id")
				if err != nil {
					return nil, err
				}
				due, err := dateParam(p, "due_date", loc, true)
				if err != nil {
					return nil, err
				}
				if err := store.UpdateTaskDueDate(ctx, id, due); err != nil {
					return nil, err
				}
				return map[string]any{"id": id, "status": "updated", "due_date": due.Format("2006-01-02 15:04")}, nil
			},
		},
	}
}

// localTasks wraps a task query so its timestamps read in loc, the zone the
// model is told to work in.
func localTasks(loc *time.Location) func([]db.Task, error) (any, error) {
	return func(tasks []db.Task, err error) (any, error) {
		if err != nil {
			return nil, err
		}
		for i := range tasks {
			tasks[i].CreatedAt = localTime(tasks[i].CreatedAt, loc)
			tasks[i].DueDate = localTime(tasks[i].DueDate, loc)
			tasks[i].CompletedAt = localTime(tasks[i].CompletedAt, loc)
		}
		return tasks, nil
	}
}

func localTime(s string, loc *time.Location) string {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return s
	}
	return t.In(loc).Format("2006-01-02 15:04")
}

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02T15:04",
}

// dateParam reads a model-supplied date in loc. A bare date means the start of
// that day, or its last minute when endOfDay is set (deadlines).
func dateParam(params map[string]any, key string, loc *time.Location, endOfDay bool) (time.Time, error) {
	s, err := requireString(params, key)
	if err != nil {
		return time.Time{}, err
	}
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	t, err := time.ParseInLocation("2006-01-02", s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s: unrecognized date %q", key, s)
	}
	if endOfDay {
		t = t.Add(23*time.Hour + 59*time.Minute)
	}
	return t, nil
}
