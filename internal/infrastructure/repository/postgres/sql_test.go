package postgres

import (
	"database/sql"
	"fmt"
	"testing"

	"github.com/lib/pq"
)

func TestIsNotFound(t *testing.T) {
	t.Parallel()

	if !isNotFound(sql.ErrNoRows) {
		t.Fatal("sql.ErrNoRows should be a not-found error")
	}
	if isNotFound(fmt.Errorf("boom")) {
		t.Fatal("arbitrary errors are not not-found")
	}
	if !isNotFound(fmt.Errorf("wrapped: %w", sql.ErrNoRows)) {
		t.Fatal("wrapped sql.ErrNoRows should be a not-found error")
	}
}

func TestIsUniqueViolation(t *testing.T) {
	t.Parallel()

	dup := &pq.Error{Code: "23505"}
	if !isUniqueViolation(dup) {
		t.Fatal("23505 should be a unique violation")
	}
	if !isUniqueViolation(fmt.Errorf("insert poll: %w", dup)) {
		t.Fatal("wrapped 23505 should be a unique violation")
	}
	if isUniqueViolation(&pq.Error{Code: "23503"}) {
		t.Fatal("foreign key violation is not a unique violation")
	}
}

func TestNullHelpersRoundTrip(t *testing.T) {
	t.Parallel()

	if got := nullInt(nil); got.Valid {
		t.Fatal("nil int should map to invalid NullInt64")
	}
	v := 7
	if got := nullInt(&v); !got.Valid || got.Int64 != 7 {
		t.Fatalf("unexpected NullInt64: %+v", got)
	}
	if got := nullIntPtr(sql.NullInt64{}); got != nil {
		t.Fatalf("invalid NullInt64 should map to nil, got %v", got)
	}
	if got := nullInt64Ptr(sql.NullInt64{Int64: 9, Valid: true}); got == nil || *got != 9 {
		t.Fatalf("unexpected pointer: %v", got)
	}
}
