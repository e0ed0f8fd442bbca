package store

import "time"

// SetUnread records the latest unread count for key. Negative counts are clamped to 0.
// Returns true when the stored value changed.
func (db *DB) SetUnread(key string, count int) (bool, error) {
	if count < 0 {
		count = 0
	}
	res, err := db.Exec(`
		INSERT INTO unread_counts (key, count, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			count = excluded.count,
			updated_at = excluded.updated_at
		WHERE unread_counts.count != excluded.count`,
		key, count, time.Now().UnixMilli())
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Unread returns the stored count for key, 0 when unknown.
func (db *DB) Unread(key string) (int, error) {
	var n int
	err := db.QueryRow(`SELECT count FROM unread_counts WHERE key = ?`, key).Scan(&n)
	if err != nil {
		if isNoRows(err) {
			return 0, nil
		}
		return 0, err
	}
	return n, nil
}

// ListUnread returns every non-zero counter, highest first.
func (db *DB) ListUnread() ([]UnreadCount, error) {
	rows, err := db.Query(`
		SELECT key, count, updated_at FROM unread_counts
		WHERE count > 0
		ORDER BY count DESC, key ASC`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []UnreadCount
	for rows.Next() {
		var u UnreadCount
		if err := rows.Scan(&u.Key, &u.Count, &u.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// TotalUnread sums all counters.
func (db *DB) TotalUnread() (int, error) {
	var n int
	err := db.QueryRow(`SELECT COALESCE(SUM(count), 0) FROM unread_counts`).Scan(&n)
	return n, err
}
