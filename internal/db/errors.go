package db

import (
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"modernc.org/sqlite"
)

var (
	// ErrDuplicate is returned when an insert hits a unique constraint.
	ErrDuplicate = errors.New("duplicate record")

	// ErrConflict is returned when a write lost a race with a concurrent
	// transaction and may succeed if retried.
	ErrConflict = errors.New("write conflict")
)

// SQLite result codes (extended where the driver reports them).
const (
	sqliteBusy             = 5
	sqliteLocked           = 6
	sqliteConstraint       = 19
	sqliteConstraintPK     = 1555
	sqliteConstraintUnique = 2067
)

// MapDBError maps driver errors to ErrDuplicate or ErrConflict. Unknown
// errors are returned unchanged.
func MapDBError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrDuplicate) || errors.Is(err, ErrConflict) {
		return err
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return ErrDuplicate
		case "40001", "40P01":
			return ErrConflict
		}
		return err
	}

	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		switch myErr.Number {
		case 1062:
			return ErrDuplicate
		case 1205, 1213:
			return ErrConflict
		}
		return err
	}

	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		if mapped := classifySQLite(liteErr.Code(), liteErr.Error()); mapped != nil {
			return mapped
		}
		return err
	}

	// Wrapped or proxied errors lose their type; fall back to the message.
	le := strings.ToLower(err.Error())
	if strings.Contains(le, "duplicate") || strings.Contains(le, "unique constraint") || strings.Contains(le, "23505") {
		return ErrDuplicate
	}
	if strings.Contains(le, "deadlock") || strings.Contains(le, "database is locked") {
		return ErrConflict
	}
	return err
}

// classifySQLite maps an SQLite result code, extended or primary, to
// ErrDuplicate or ErrConflict. It returns nil for anything else.
func classifySQLite(code int, msg string) error {
	switch code {
	case sqliteConstraintUnique, sqliteConstraintPK:
		return ErrDuplicate
	}
	// Extended codes carry the primary code in the low byte
	// (SQLITE_BUSY_SNAPSHOT is 517, SQLITE_LOCKED_SHAREDCACHE is 262).
	switch code & 0xff {
	case sqliteBusy, sqliteLocked:
		return ErrConflict
	case sqliteConstraint:
		if strings.Contains(strings.ToLower(msg), "unique") {
			return ErrDuplicate
		}
	}
	return nil
}

// IsRetryable reports whether err is worth another attempt.
func IsRetryable(err error) bool {
	m := MapDBError(err)
	return errors.Is(m, ErrConflict) || errors.Is(m, ErrDuplicate)
}
