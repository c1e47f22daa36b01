package db

import (
	"errors"
	"fmt"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

func TestIsDuplicateKeyErr(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "gorm translated", err: fmt.Errorf("insert: %w", gorm.ErrDuplicatedKey), want: true},
		{name: "pg code", err: &pgconn.PgError{Code: "23505"}, want: true},
		{name: "pg other code", err: &pgconn.PgError{Code: "40001"}, want: false},
		{name: "postgres text", err: errors.New(`ERROR: duplicate key value violates unique constraint "ux_daily_usage_user_date"`), want: true},
		{name: "mysql", err: fmt.Errorf("create: %w", &mysql.MySQLError{Number: 1062, Message: "Duplicate entry"}), want: true},
		{name: "mysql deadlock", err: &mysql.MySQLError{Number: 1213}, want: false},
		{name: "sqlite", err: errors.New("UNIQUE constraint failed: daily_usage.user_id, daily_usage.date"), want: true},
		{name: "other", err: errors.New("connection refused"), want: false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsDuplicateKeyErr(tc.err); got != tc.want {
				t.Fatalf("IsDuplicateKeyErr(%v) = %v, want %v", tc.err, got, tc.want)
			}
		})
	}
}
