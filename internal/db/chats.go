package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// ChatRecord is one inbound message and the outcome of answering it.
// Rows are append-only.
type ChatRecord struct {
	ID            int64     `json:"id"`
	TurnID        string    `json:"turn_id,omitempty"`
	SenderID      string    `json:"phone_number"`
	Request       string    `json:"message"`
	Response      string    `json:"response,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	Delivered     bool      `json:"is_sent"`
	FailureReason string    `json:"error_message,omitempty"`
}

// AppendChat writes a chat record.
func (d *DB) AppendChat(ctx context.Context, rec ChatRecord) (int64, error) {
	if rec.SenderID == "" || rec.Request == "" {
		return 0, fmt.Errorf("appending chat: missing sender or message")
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	res, err := d.conn.ExecContext(ctx,
		"INSERT INTO chats (turn_id, phone_number, message, response, created_at, is_sent, error_message) VALUES (?, ?, ?, ?, ?, ?, ?)",
		nullStr(rec.TurnID), rec.SenderID, rec.Request, nullStr(rec.Response),
		formatTime(rec.CreatedAt), rec.Delivered, nullStr(rec.FailureReason),
	)
	if err != nil {
		return 0, fmt.Errorf("appending chat: %w", err)
	}
	return res.LastInsertId()
}

// RecentDeliveredChats returns up to limit of the newest delivered records for
// sender, oldest first.
func (d *DB) RecentDeliveredChats(ctx context.Context, sender string, limit int) ([]ChatRecord, error) {
	if limit <= 0 {
		return nil, nil
	}
	rows, err := d.conn.QueryContext(ctx,
		`SELECT id, COALESCE(turn_id,''), phone_number, message, COALESCE(response,''), created_at, is_sent, COALESCE(error_message,'')
		FROM chats
		WHERE phone_number = ? AND is_sent = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?`,
		sender, true, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("fetching chat history: %w", err)
	}
	defer rows.Close()
	out, err := scanChats(rows)
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

// ListChats returns the newest records for sender, failed turns included,
// newest first. An empty sender lists every conversation.
func (d *DB) ListChats(ctx context.Context, sender string, limit int) ([]ChatRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	q := `SELECT id, COALESCE(turn_id,''), phone_number, message, COALESCE(response,''), created_at, is_sent, COALESCE(error_message,'') FROM chats`
	var args []any
	if sender != "" {
		q += " WHERE phone_number = ?"
		args = append(args, sender)
	}
	q += " ORDER BY created_at DESC, id DESC LIMIT ?"
	args = append(args, limit)
	rows, err := d.conn.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("listing chats: %w", err)
	}
	defer rows.Close()
	return scanChats(rows)
}

func scanChats(rows *sql.Rows) ([]ChatRecord, error) {
	var out []ChatRecord
	for rows.Next() {
		var r ChatRecord
		var createdAt string
		if err := rows.Scan(&r.ID, &r.TurnID, &r.SenderID, &r.Request, &r.Response, &createdAt, &r.Delivered, &r.FailureReason); err != nil {
			return nil, fmt.Errorf("scanning chat: %w", err)
		}
		r.CreatedAt = parseTime(createdAt)
		out = append(out, r)
	}
	return out, rows.Err()
}
