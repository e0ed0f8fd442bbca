package sync

import (
	"fmt"
	"sort"
	"time"

	"github.com/matheus3301/fleetdesk/internal/realtime"
	"github.com/matheus3301/fleetdesk/internal/store"
	"go.uber.org/zap"
)

// Reconciler applies full unread snapshots sent after a (re)connect.
type Reconciler struct {
	db     *store.DB
	logger *zap.Logger
}

// NewReconciler creates a new reconciler.
func NewReconciler(db *store.DB, logger *zap.Logger) *Reconciler {
	return &Reconciler{db: db, logger: logger}
}

// Reconcile makes the stored counters equal to snap in one transaction:
// keys in snap take their value and every other non-zero key drops to 0.
// It returns the counters that changed.
func (r *Reconciler) Reconcile(snap []realtime.Unread) ([]UnreadChange, error) {
	want := make(map[string]int, len(snap))
	for _, u := range snap {
		want[u.Key] = max(u.Count, 0)
	}

	tx, err := r.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	rows, err := tx.Query(`SELECT key, count FROM unread_counts`)
	if err != nil {
		return nil, fmt.Errorf("read counters: %w", err)
	}
	current := map[string]int{}
	for rows.Next() {
		var k string
		var n int
		if err := rows.Scan(&k, &n); err != nil {
			_ = rows.Close()
			return nil, err
		}
		current[k] = n
	}
	_ = rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for k, n := range current {
		if _, ok := want[k]; !ok && n != 0 {
			want[k] = 0
		}
	}

	now := time.Now().UnixMilli()
	var changed []UnreadChange
	for _, u := range orderedKeys(snap, want) {
		n := want[u]
		if cur, ok := current[u]; ok && cur == n {
			continue
		}
		if _, err := tx.Exec(`
			INSERT INTO unread_counts (key, count, updated_at) VALUES (?, ?, ?)
			ON CONFLICT(key) DO UPDATE SET count = excluded.count, updated_at = excluded.updated_at`,
			u, n, now); err != nil {
			return nil, fmt.Errorf("upsert counter: %w", err)
		}
		changed = append(changed, UnreadChange{Key: u, Count: n})
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit snapshot: %w", err)
	}
	return changed, nil
}

// orderedKeys lists snapshot keys first, in snapshot order, then the keys
// being zeroed.
func orderedKeys(snap []realtime.Unread, want map[string]int) []string {
	seen := make(map[string]bool, len(want))
	out := make([]string, 0, len(want))
	for _, u := range snap {
		if !seen[u.Key] {
			seen[u.Key] = true
			out = append(out, u.Key)
		}
	}
	var rest []string
	for k := range want {
		if !seen[k] {
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)
	return append(out, rest...)
}
