package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	db, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := db.Migrate(); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestMigrateAppliesOnFreshDB(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fresh.db")
	db, res, err := OpenMigrated(path)
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = db.Close() }()
	if !res.Changed {
		t.Error("first Migrate() should report Changed=true")
	}

	// Running again is idempotent.
	result, err := db.Migrate()
	if err != nil {
		t.Fatal(err)
	}
	if result.Changed {
		t.Error("second Migrate() should report Changed=false")
	}
	if result.Version != 2 {
		t.Errorf("version = %d, want 2 (init + pending_writes)", result.Version)
	}
	if result.Dirty {
		t.Error("schema left dirty")
	}
}

func TestTokenRoundTrip(t *testing.T) {
	db := testDB(t)

	if _, err := db.Token("main"); !errors.Is(err, ErrNoToken) {
		t.Fatalf("Token() on empty store error = %v, want ErrNoToken", err)
	}
	if err := db.SetToken("main", "tok-1"); err != nil {
		t.Fatal(err)
	}
	if err := db.SetToken("main", "tok-2"); err != nil {
		t.Fatal(err)
	}
	got, err := db.Token("main")
	if err != nil || got != "tok-2" {
		t.Errorf("Token() = %q, %v; want tok-2", got, err)
	}

	src := NewTokenSource(db, "main")
	if tok, err := src.Token(context.Background()); err != nil || tok != "tok-2" {
		t.Errorf("TokenSource.Token() = %q, %v", tok, err)
	}

	if err := db.ClearToken("main"); err != nil {
		t.Fatal(err)
	}
	if _, err := src.Token(context.Background()); !errors.Is(err, ErrNoToken) {
		t.Errorf("after ClearToken error = %v, want ErrNoToken", err)
	}
}

func TestTokensAreScopedBySession(t *testing.T) {
	db := testDB(t)
	_ = db.SetToken("day", "a")
	_ = db.SetToken("night", "b")

	if tok, _ := db.Token("day"); tok != "a" {
		t.Errorf("day token = %q", tok)
	}
	if tok, _ := db.Token("night"); tok != "b" {
		t.Errorf("night token = %q", tok)
	}
}

func TestSetUnreadReportsChanges(t *testing.T) {
	db := testDB(t)

	tests := []struct {
		key         string
		count       int
		wantChanged bool
		wantStored  int
	}{
		{"t1", 3, true, 3},
		{"t1", 3, false, 3},
		{"t1", 5, true, 5},
		{"t1", -2, true, 0},
		{"t2", 0, true, 0},
	}
	for _, tt := range tests {
		changed, err := db.SetUnread(tt.key, tt.count)
		if err != nil {
			t.Fatal(err)
		}
		if changed != tt.wantChanged {
			t.Errorf("SetUnread(%s, %d) changed = %v, want %v", tt.key, tt.count, changed, tt.wantChanged)
		}
		got, err := db.Unread(tt.key)
		if err != nil {
			t.Fatal(err)
		}
		if got != tt.wantStored {
			t.Errorf("Unread(%s) = %d, want %d", tt.key, got, tt.wantStored)
		}
	}

	if n, _ := db.Unread("missing"); n != 0 {
		t.Errorf("Unread(missing) = %d, want 0", n)
	}
}

func TestListUnreadSkipsZero(t *testing.T) {
	db := testDB(t)
	_, _ = db.SetUnread("a", 1)
	_, _ = db.SetUnread("b", 4)
	_, _ = db.SetUnread("c", 0)

	list, err := db.ListUnread()
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 2 {
		t.Fatalf("got %d counters, want 2", len(list))
	}
	if list[0].Key != "b" || list[1].Key != "a" {
		t.Errorf("order = %s,%s; want b,a", list[0].Key, list[1].Key)
	}
	total, err := db.TotalUnread()
	if err != nil || total != 5 {
		t.Errorf("TotalUnread() = %d, %v; want 5", total, err)
	}
}

func TestWriteQueueLifecycle(t *testing.T) {
	db := testDB(t)

	w := &PendingWrite{OpID: "op1", Resource: "documents", ItemID: "d1", Method: "PATCH", Patch: `{"isSeen":true}`}
	if err := db.QueueWrite(w); err != nil {
		t.Fatal(err)
	}
	// Duplicate op id is ignored.
	if err := db.QueueWrite(w); err != nil {
		t.Fatal(err)
	}
	if err := db.QueueWrite(&PendingWrite{OpID: "op2", Resource: "users", ItemID: "u1", Method: "DELETE"}); err != nil {
		t.Fatal(err)
	}

	pending, err := db.PendingWrites()
	if err != nil {
		t.Fatal(err)
	}
	if len(pending) != 2 {
		t.Fatalf("got %d pending, want 2", len(pending))
	}
	if pending[0].OpID != "op1" || pending[1].Patch != "{}" {
		t.Errorf("unexpected pending rows: %+v", pending)
	}

	if err := db.MarkWriteSending("op1"); err != nil {
		t.Fatal(err)
	}
	if err := db.MarkWriteFailed("op1", "boom", true); err != nil {
		t.Fatal(err)
	}
	got, err := db.GetWrite("op1")
	if err != nil || got == nil {
		t.Fatalf("GetWrite() = %v, %v", got, err)
	}
	if got.Status != WriteQueued || got.Attempts != 1 || got.ErrorMessage != "boom" {
		t.Errorf("after retryable failure: %+v", got)
	}

	_ = db.MarkWriteSending("op1")
	if err := db.MarkWriteSent("op1"); err != nil {
		t.Fatal(err)
	}
	_ = db.MarkWriteSending("op2")
	_ = db.MarkWriteFailed("op2", "gone", false)

	pending, _ = db.PendingWrites()
	if len(pending) != 0 {
		t.Errorf("got %d pending after delivery, want 0", len(pending))
	}

	all, err := db.ListWrites(10)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 2 || all[0].OpID != "op2" || all[0].Status != WriteFailed {
		t.Errorf("ListWrites() = %+v", all)
	}
	if all[1].Status != WriteSent || all[1].Attempts != 2 {
		t.Errorf("op1 = %+v, want sent after 2 attempts", all[1])
	}

	if missing, err := db.GetWrite("nope"); err != nil || missing != nil {
		t.Errorf("GetWrite(nope) = %v, %v", missing, err)
	}
}

func TestMethodConstraint(t *testing.T) {
	db := testDB(t)
	err := db.QueueWrite(&PendingWrite{OpID: "x", Resource: "documents", ItemID: "d", Method: "POST"})
	if err == nil {
		t.Error("QueueWrite with POST should violate CHECK constraint")
	}
}
