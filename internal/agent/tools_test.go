package agent

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/chris/wulang/internal/db"
)

func openTestDB(t *testing.T) *db.DB {
	t.Helper()
	d, err := db.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("opening test db: %v", err)
	}
	t.Cleanup(func() { d.Close() })
	return d
}

func jakarta(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Asia/Jakarta")
	if err != nil {
		t.Fatalf("loading zone: %v", err)
	}
	return loc
}

func fixedNow() time.Time {
	return time.Date(2025, 3, 10, 2, 30, 0, 0, time.UTC) // 09:30 in Jakarta
}

func TestClockTool(t *testing.T) {
	reg := NewRegistry(ClockTool(jakarta(t), fixedNow))
	out := reg.Execute(context.Background(), ClockToolName, nil)

	var got map[string]string
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("expected JSON, got %q", out)
	}
	if got["local"] != "2025-03-10T09:30:00+07:00" {
		t.Errorf("unexpected local time %q", got["local"])
	}
	if got["day"] != "Monday" || got["timezone"] != "Asia/Jakarta" {
		t.Errorf("unexpected clock payload %v", got)
	}
}

func TestPersonTodoTool_ScopedToPerson(t *testing.T) {
	d := openTestDB(t)
	ctx := context.Background()
	if _, err := d.AddTask(ctx, "balas email klien", "mba_nur", fixedNow()); err != nil {
		t.Fatal(err)
	}
	if _, err := d.AddTask(ctx, "deploy api", "daffa", fixedNow()); err != nil {
		t.Fatal(err)
	}

	reg := NewRegistry(PersonTodoTool(d, jakarta(t), "mba_nur", "mbak nur"))
	out := reg.Execute(ctx, TodoToolName, nil)
	if !strings.Contains(out, "balas email klien") || strings.Contains(out, "deploy api") {
		t.Errorf("expected only mba_nur's tasks, got %s", out)
	}

	reg = NewRegistry(PersonTodoTool(d, jakarta(t), "bu_malihah", "bu malihah"))
	if out := reg.Execute(ctx, TodoToolName, nil); out != NoResult {
		t.Errorf("expected %q for empty todolist, got %q", NoResult, out)
	}
}

func TestTaskQueryTool_AddListComplete(t *testing.T) {
	d := openTestDB(t)
	ctx := context.Background()
	reg := NewRegistry(TaskQueryTool(d, jakarta(t), fixedNow))

	out := reg.Execute(ctx, TasksToolName, map[string]any{
		"template":  "add_task",
		"todo":      "siapkan laporan",
		"person_id": "daffa",
		"due_date":  "2025-03-12",
	})
	var created map[string]any
	if err := json.Unmarshal([]byte(out), &created); err != nil {
		t.Fatalf("expected JSON, got %q", out)
	}
	if created["due_date"] != "2025-03-12 23:59" {
		t.Errorf("expected end-of-day deadline, got %v", created["due_date"])
	}
	id := created["id"].(float64)

	out = reg.Execute(ctx, TasksToolName, map[string]any{"template": "open_tasks_by_person", "person_id": "daffa"})
	if !strings.Contains(out, "siapkan laporan") {
		t.Errorf("expected new task listed, got %s", out)
	}
	if !strings.Contains(out, `"due_date":"2025-03-12 23:59"`) {
		t.Errorf("expected deadline shown in team time, got %s", out)
	}

	out = reg.Execute(ctx, TasksToolName, map[string]any{"template": "complete_task", "id": id})
	if !strings.Contains(out, "completed") {
		t.Errorf("expected completion status, got %s", out)
	}
	out = reg.Execute(ctx, TasksToolName, map[string]any{"template": "open_tasks_by_person", "person_id": "daffa"})
	if out != NoResult {
		t.Errorf("expected no open tasks, got %s", out)
	}
}

func TestTaskQueryTool_AddDefaultsToTomorrow(t *testing.T) {
	d := openTestDB(t)
	reg := NewRegistry(TaskQueryTool(d, jakarta(t), fixedNow))
	out := reg.Execute(context.Background(), TasksToolName, map[string]any{
		"template": "add_task", "todo": "rapat", "person_id": "mba_nur",
	})
	if !strings.Contains(out, "2025-03-11 09:30") {
		t.Errorf("expected deadline one day out, got %s", out)
	}
}

func TestTaskQueryTool_Errors(t *testing.T) {
	d := openTestDB(t)
	reg := NewRegistry(TaskQueryTool(d, jakarta(t), fixedNow))
	ctx := context.Background()

	tests := []struct {
		name   string
		params map[string]any
	}{
		{"no template", map[string]any{}},
		{"unknown template", map[string]any{"template": "drop_everything"}},
		{"missing arg", map[string]any{"template": "tasks_by_person"}},
		{"bad date", map[string]any{"template": "tasks_due_between", "from": "besok", "to": "lusa"}},
		{"missing task", map[string]any{"template": "complete_task", "id": float64(404)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := reg.Execute(ctx, TasksToolName, tt.params); got != ToolErrorResult {
				t.Errorf("expected sentinel, got %q", got)
			}
		})
	}
}

func TestRawQueryTool(t *testing.T) {
	d := openTestDB(t)
	ctx := context.Background()
	if _, err := d.AddTask(ctx, "cek server", "daffa", time.Time{}); err != nil {
		t.Fatal(err)
	}
	reg := NewRegistry(RawQueryTool(d))

	out := reg.Execute(ctx, RawSQLToolName, map[string]any{"query": "SELECT todo FROM todolist WHERE person_id = 'daffa'"})
	if !strings.Contains(out, "cek server") {
		t.Errorf("expected row in output, got %s", out)
	}
	if got := reg.Execute(ctx, RawSQLToolName, map[string]any{"query": "SELECT * FROM nope"}); got != ToolErrorResult {
		t.Errorf("expected sentinel for bad SQL, got %q", got)
	}
	if got := reg.Execute(ctx, RawSQLToolName, map[string]any{"query": "SELECT * FROM todolist WHERE id = -1"}); got != NoResult {
		t.Errorf("expected %q for empty result, got %q", NoResult, got)
	}
}

func TestDateParam(t *testing.T) {
	loc := jakarta(t)
	tests := []struct {
		in       string
		endOfDay bool
		want     string
	}{
		{"2025-03-12", false, "2025-03-12 00:00"},
		{"2025-03-12", true, "2025-03-12 23:59"},
		{"2025-03-12 14:00", true, "2025-03-12 14:00"},
		{" 2025-03-12T08:15 ", false, "2025-03-12 08:15"},
		{"2025-03-12T10:00:00Z", false, "2025-03-12 17:00"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := dateParam(map[string]any{"d": tt.in}, "d", loc, tt.endOfDay)
			if err != nil {
				t.Fatalf("dateParam: %v", err)
			}
			if s := got.In(loc).Format("2006-01-02 15:04"); s != tt.want {
				t.Errorf("expected %s, got %s", tt.want, s)
			}
		})
	}
}
