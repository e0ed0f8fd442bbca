package store

import (
	"database/sql"
	"errors"
	"time"
)

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

// QueueWrite adds a point update to the write queue. Re-queueing an existing
// op_id is a no-op so callers can retry QueueWrite safely.
func (db *DB) QueueWrite(w *PendingWrite) error {
	now := time.Now().UnixMilli()
	patch := w.Patch
	if patch == "" {
		patch = "{}"
	}
	_, err := db.Exec(`
		INSERT INTO pending_writes (op_id, resource, item_id, method, patch, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, 'queued', ?, ?)
		ON CONFLICT(op_id) DO NOTHING`,
		w.OpID, w.Resource, w.ItemID, w.Method, patch, now, now)
	return err
}

// MarkWriteSending moves a queued write to 'sending' and counts the attempt.
func (db *DB) MarkWriteSending(opID string) error {
	_, err := db.Exec(`UPDATE pending_writes SET status = 'sending', attempts = attempts + 1, updated_at = ? WHERE op_id = ?`,
		time.Now().UnixMilli(), opID)
	return err
}

// MarkWriteSent marks a write as delivered.
func (db *DB) MarkWriteSent(opID string) error {
	_, err := db.Exec(`UPDATE pending_writes SET status = 'sent', error_message = '', updated_at = ? WHERE op_id = ?`,
		time.Now().UnixMilli(), opID)
	return err
}

// MarkWriteFailed records an error. When retry is true the write goes back to
// 'queued', otherwise it becomes terminally 'failed'.
func (db *DB) MarkWriteFailed(opID, errMsg string, retry bool) error {
	status := WriteFailed
	if retry {
		status = WriteQueued
	}
	_, err := db.Exec(`UPDATE pending_writes SET status = ?, error_message = ?, updated_at = ? WHERE op_id = ?`,
		status, errMsg, time.Now().UnixMilli(), opID)
	return err
}

// PendingWrites returns queued writes, oldest first.
func (db *DB) PendingWrites() ([]PendingWrite, error) {
	return db.queryWrites(`WHERE status = 'queued' ORDER BY created_at ASC, id ASC`)
}

// ListWrites returns the most recent writes in any status.
func (db *DB) ListWrites(limit int) ([]PendingWrite, error) {
	if limit <= 0 {
		limit = 50
	}
	return db.queryWrites(`ORDER BY id DESC LIMIT ?`, limit)
}

// GetWrite returns one write by op id, nil when absent.
func (db *DB) GetWrite(opID string) (*PendingWrite, error) {
	ws, err := db.queryWrites(`WHERE op_id = ?`, opID)
	if err != nil || len(ws) == 0 {
		return nil, err
	}
	return &ws[0], nil
}

func (db *DB) queryWrites(tail string, args ...any) ([]PendingWrite, error) {
	rows, err := db.Query(`
		SELECT id, op_id, resource, item_id, method, patch, status, error_message, attempts, created_at, updated_at
		FROM pending_writes `+tail, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []PendingWrite
	for rows.Next() {
		var w PendingWrite
		if err := rows.Scan(&w.ID, &w.OpID, &w.Resource, &w.ItemID, &w.Method, &w.Patch,
			&w.Status, &w.ErrorMessage, &w.Attempts, &w.CreatedAt, &w.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, rows.Err()
}
