package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// Task is a row of the shared todolist table.
type Task struct {
	ID          int64  `json:"id"`
	Todo        string `json:"todo"`
	PersonID    string `json:"person_id"`
	CreatedAt   string `json:"created_at,omitempty"`
	DueDate     string `json:"due_date,omitempty"`
	CompletedAt string `json:"completed_at,omitempty"`
	IsCompleted bool   `json:"is_completed"`
}

type Person struct {
	PersonID     string `json:"person_id"`
	PhoneNumber  string `json:"phone_number,omitempty"`
	EmailAddress string `json:"email_address,omitempty"`
}

const taskColumns = "id, COALESCE(todo,''), COALESCE(person_id,''), created_at, due_date, completed_at, COALESCE(is_completed,0)"

// TasksByPerson lists a person's tasks, optionally only the open ones.
func (d *DB) TasksByPerson(ctx context.Context, personID string, openOnly bool) ([]Task, error) {
	q := "SELECT " + taskColumns + " FROM todolist WHERE person_id = ?"
	if openOnly {
		q += " AND (is_completed IS NULL OR is_completed = 0)"
	}
	q += " ORDER BY due_date ASC, id ASC"
	return d.queryTasks(ctx, q, personID)
}

// OverdueTasks lists open tasks whose due date is before now.
func (d *DB) OverdueTasks(ctx context.Context, now time.Time) ([]Task, error) {
	q := "SELECT " + taskColumns + ` FROM todolist
		WHERE (is_completed IS NULL OR is_completed = 0) AND due_date IS NOT NULL AND due_date < ?
		ORDER BY due_date ASC, id ASC`
	return d.queryTasks(ctx, q, formatTime(now))
}

// TasksDueBetween lists open tasks due in [from, to).
func (d *DB) TasksDueBetween(ctx context.Context, from, to time.Time) ([]Task, error) {
	q := "SELECT " + taskColumns + ` FROM todolist
		WHERE (is_completed IS NULL OR is_completed = 0) AND due_date >= ? AND due_date < ?
		ORDER BY due_date ASC, id ASC`
	return d.queryTasks(ctx, q, formatTime(from), formatTime(to))
}

// AddTask inserts an open task and returns its ID.
func (d *DB) AddTask(ctx context.Context, todo, personID string, due time.Time) (int64, error) {
	var dueArg any
	if !due.IsZero() {
		dueArg = formatTime(due)
	}
	res, err := d.conn.ExecContext(ctx,
		"INSERT INTO todolist (todo, person_id, created_at, due_date, is_completed) VALUES (?, ?, ?, ?, ?)",
		todo, personID, formatTime(time.Now()), dueArg, false,
	)
	if err != nil {
		return 0, fmt.Errorf("adding task: %w", err)
	}
	return res.LastInsertId()
}

// SetTaskCompleted marks a task done (stamping completed_at) or reopens it.
func (d *DB) SetTaskCompleted(ctx context.Context, id int64, done bool) error {
	var completedAt any
	if done {
		completedAt = formatTime(time.Now())
	}
	return d.execOne(ctx, "setting task completion",
		"UPDATE todolist SET is_completed = ?, completed_at = ? WHERE id = ?", done, completedAt, id)
}

// UpdateTaskDueDate moves a task's deadline.
func (d *DB) UpdateTaskDueDate(ctx context.Context, id int64, due time.Time) error {
	return d.execOne(ctx, "updating due date",
		"UPDATE todolist SET due_date = ? WHERE id = ?", formatTime(due), id)
}

// ListPersons returns the team members known to the store.
func (d *DB) ListPersons(ctx context.Context) ([]Person, error) {
	rows, err := d.conn.QueryContext(ctx,
		"SELECT person_id, COALESCE(phone_number,''), COALESCE(email_address,'') FROM persons ORDER BY person_id")
	if err != nil {
		return nil, fmt.Errorf("listing persons: %w", err)
	}
	defer rows.Close()
	var out []Person
	for rows.Next() {
		var p Person
		if err := rows.Scan(&p.PersonID, &p.PhoneNumber, &p.EmailAddress); err != nil {
			return nil, fmt.Errorf("scanning person: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// UpsertPerson seeds or updates a team member.
func (d *DB) UpsertPerson(ctx context.Context, p Person) error {
	q := "INSERT INTO persons (person_id, phone_number, email_address) VALUES (?, ?, ?) ON CONFLICT(person_id) DO UPDATE SET phone_number = excluded.phone_number, email_address = excluded.email_address"
	if d.driver == "mysql" {
		q = "INSERT INTO persons (person_id, phone_number, email_address) VALUES (?, ?, ?) ON DUPLICATE KEY UPDATE phone_number = VALUES(phone_number), email_address = VALUES(email_address)"
	}
	if _, err := d.conn.ExecContext(ctx, q, p.PersonID, nullStr(p.PhoneNumber), nullStr(p.EmailAddress)); err != nil {
		return fmt.Errorf("saving person %s: %w", p.PersonID, err)
	}
	return nil
}

// RawQuery executes model-authored SQL verbatim. Statements that return rows
// come back as column->value maps; anything else reports rows affected.
func (d *DB) RawQuery(ctx context.Context, query string) (any, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("raw query: empty statement")
	}
	if !returnsRows(query) {
		res, err := d.conn.ExecContext(ctx, query)
		if err != nil {
			return nil, fmt.Errorf("raw query: %w", err)
		}
		n, _ := res.RowsAffected()
		return map[string]any{"rows_affected": n}, nil
	}
	rows, err := d.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("raw query: %w", err)
	}
	defer rows.Close()
	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("raw query columns: %w", err)
	}
	var out []map[string]any
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("raw query scan: %w", err)
		}
		row := make(map[string]any, len(cols))
		for i, c := range cols {
			if b, ok := vals[i].([]byte); ok {
				row[c] = string(b)
			} else {
				row[c] = vals[i]
			}
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func returnsRows(query string) bool {
	fields := strings.Fields(stripSQLPrefix(query))
	if len(fields) == 0 {
		return false
	}
	head := strings.ToLower(fields[0])
	if i := strings.IndexAny(head, "(;"); i > 0 {
		head = head[:i]
	}
	switch head {
	case "select", "with", "show", "describe", "desc", "explain", "pragma":
		return true
	}
	return false
}

// stripSQLPrefix drops leading comments and opening parentheses so the first
// keyword can be read.
func stripSQLPrefix(q string) string {
	for {
		q = strings.TrimSpace(q)
		switch {
		case strings.HasPrefix(q, "--"), strings.HasPrefix(q, "#"):
			_, rest, ok := strings.Cut(q, "\n")
			if !ok {
				return ""
			}
			q = rest
		case strings.HasPrefix(q, "/*"):
			_, rest, ok := strings.Cut(q[2:], "*/")
			if !ok {
				return ""
			}
			q = rest
		case strings.HasPrefix(q, "("):
			q = q[1:]
		default:
			return q
		}
	}
}

func (d *DB) queryTasks(ctx context.Context, query string, args ...any) ([]Task, error) {
	rows, err := d.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying tasks: %w", err)
	}
	defer rows.Close()
	var out []Task
	for rows.Next() {
		var t Task
		var createdAt, dueDate, completedAt sql.NullString
		if err := rows.Scan(&t.ID, &t.Todo, &t.PersonID, &createdAt, &dueDate, &completedAt, &t.IsCompleted); err != nil {
			return nil, fmt.Errorf("scanning task: %w", err)
		}
		t.CreatedAt = nullTimeStr(createdAt)
		t.DueDate = nullTimeStr(dueDate)
		t.CompletedAt = nullTimeStr(completedAt)
		out = append(out, t)
	}
	return out, rows.Err()
}

func (d *DB) execOne(ctx context.Context, what, query string, args ...any) error {
	res, err := d.conn.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", what, err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("%s: task not found", what)
	}
	return nil
}
