package resilience

import (
	"context"
	"errors"
	"fmt"
	"syscall"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rotisserie/eris"
)

func TestIsTransient(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"plain", errors.New("postgres: parse config: invalid dsn"), false},
		{"refused", fmt.Errorf("dial tcp: %w", syscall.ECONNREFUSED), true},
		{"reset", eris.Wrap(syscall.ECONNRESET, "postgres: ping"), true},
		{"aborted", fmt.Errorf("read: %w", syscall.ECONNABORTED), true},
		{"deadline", fmt.Errorf("ping: %w", context.DeadlineExceeded), true},
		{"cannot connect now", &pgconn.PgError{Code: "57P03", Message: "the database system is starting up"}, true},
		{"too many connections", eris.Wrap(&pgconn.PgError{Code: "53300"}, "postgres: create pool"), true},
		{"connection exception class", &pgconn.PgError{Code: "08006"}, true},
		{"bad password", &pgconn.PgError{Code: "28P01", Message: "password authentication failed"}, false},
		{"undefined table", &pgconn.PgError{Code: "42P01"}, false},
		{"sqlite busy", errors.New("sqlite: migrate: database is locked (5) (SQLITE_BUSY)"), true},
		{"name resolution", errors.New("lookup db: Temporary failure in name resolution"), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := IsTransient(tt.err); got != tt.want {
				t.Errorf("IsTransient(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}
