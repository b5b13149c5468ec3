package db_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/BrandonDHaskell/huella/internal/db"
)

func TestMapDBError(t *testing.T) {
	plain := errors.New("connection refused")

	cases := []struct {
		name string
		in   error
		want error
	}{
		{"nil", nil, nil},
		{"pg unique", &pgconn.PgError{Code: "23505"}, db.ErrDuplicate},
		{"pg serialization", &pgconn.PgError{Code: "40001"}, db.ErrConflict},
		{"pg deadlock", fmt.Errorf("wrapped: %w", &pgconn.PgError{Code: "40P01"}), db.ErrConflict},
		{"mysql duplicate", &mysql.MySQLError{Number: 1062}, db.ErrDuplicate},
		{"mysql deadlock", &mysql.MySQLError{Number: 1213}, db.ErrConflict},
		{"mysql lock wait", &mysql.MySQLError{Number: 1205}, db.ErrConflict},
		{"string fallback", errors.New("UNIQUE constraint failed: identities.external_id"), db.ErrDuplicate},
		{"sentinel passthrough", db.ErrConflict, db.ErrConflict},
		{"unrelated", plain, plain},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := db.MapDBError(tc.in); got != tc.want {
				t.Errorf("MapDBError(%v) = %v, want %v", tc.in, got, tc.want)
			}
		})
	}
}

func TestIsRetryable(t *testing.T) {
	if !db.IsRetryable(&pgconn.PgError{Code: "40001"}) {
		t.Error("serialization failure should be retryable")
	}
	if db.IsRetryable(errors.New("syntax error")) {
		t.Error("syntax error should not be retryable")
	}
}
