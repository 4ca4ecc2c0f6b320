package sqldb

import (
	"errors"
	"testing"
	"time"

	"github.com/lib/pq"
)

func TestRebind(t *testing.T) {
	pg := &DB{Dialect: Postgres}
	got := pg.Rebind(`SELECT a FROM t WHERE x = ? AND y = ? LIMIT ?`)
	want := `SELECT a FROM t WHERE x = $1 AND y = $2 LIMIT $3`
	if got != want {
		t.Fatalf("got %q want %q", got, want)
	}
	lite := &DB{Dialect: SQLite}
	if q := `SELECT ? `; lite.Rebind(q) != q {
		t.Fatalf("sqlite query must be unchanged")
	}
	if pg.ForUpdate() == "" || lite.ForUpdate() != "" {
		t.Fatalf("unexpected FOR UPDATE suffixes")
	}
}

func TestIsUniqueViolation(t *testing.T) {
	if !IsUniqueViolation(&pq.Error{Code: "23505"}) {
		t.Fatalf("pq 23505 must be a unique violation")
	}
	if IsUniqueViolation(&pq.Error{Code: "23503"}) {
		t.Fatalf("pq 23503 is not a unique violation")
	}
	if !IsUniqueViolation(errors.New("constraint failed: UNIQUE constraint failed: accounts.username (2067)")) {
		t.Fatalf("sqlite message must be a unique violation")
	}
	if IsUniqueViolation(nil) {
		t.Fatalf("nil is not a violation")
	}
}

func TestMsRoundTrip(t *testing.T) {
	now := time.Date(2026, 3, 4, 5, 6, 7, 8_000_000, time.UTC)
	if got := MsToTime(TimeToMs(now)); !got.Equal(now) {
		t.Fatalf("got %v want %v", got, now)
	}
	if !MsToTime(0).IsZero() || TimeToMs(time.Time{}) != 0 {
		t.Fatalf("zero values must map to zero")
	}
}

func TestOpenSQLiteMemory(t *testing.T) {
	db, err := OpenSQLite(":memory:")
	if err != nil {
		t.Fatalf("OpenSQLite err: %v", err)
	}
	defer db.Close()
	if db.Dialect != SQLite {
		t.Fatalf("unexpected dialect %v", db.Dialect)
	}
}
