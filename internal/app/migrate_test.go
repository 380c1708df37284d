package app

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v3"
)

func writeMigrations(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, contents := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(contents), 0o600); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	return dir
}

func TestRunMigrationsAppliesPending(t *testing.T) {
	dir := writeMigrations(t, map[string]string{
		"0001_init.sql":  "CREATE TABLE users (id UUID)",
		"0002_extra.sql": "CREATE TABLE playlists (id UUID)",
		"notes.txt":      "ignored",
	})

	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("create mock pool: %v", err)
	}
	defer mock.Close()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS schema_migrations").WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectQuery("SELECT version FROM schema_migrations").
		WillReturnRows(pgxmock.NewRows([]string{"version"}).AddRow("0001_init.sql"))
	mock.ExpectBeginTx(pgx.TxOptions{IsoLevel: pgx.Serializable})
	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE playlists (id UUID)")).WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectExec("INSERT INTO schema_migrations").WithArgs("0002_extra.sql").WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	var out bytes.Buffer
	if err := runMigrations(context.Background(), mock, &out, dir, "up"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out.String(), "applied migration 0002_extra.sql") {
		t.Fatalf("unexpected output %q", out.String())
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestRunMigrationsRetriesSerializationFailure(t *testing.T) {
	dir := writeMigrations(t, map[string]string{"0001_init.sql": "CREATE TABLE users (id UUID)"})

	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("create mock pool: %v", err)
	}
	defer mock.Close()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS schema_migrations").WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectQuery("SELECT version FROM schema_migrations").WillReturnRows(pgxmock.NewRows([]string{"version"}))
	mock.ExpectBeginTx(pgx.TxOptions{IsoLevel: pgx.Serializable})
	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE users (id UUID)")).WillReturnError(&pgconn.PgError{Code: "40001"})
	mock.ExpectRollback()
	mock.ExpectBeginTx(pgx.TxOptions{IsoLevel: pgx.Serializable})
	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE users (id UUID)")).WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectExec("INSERT INTO schema_migrations").WithArgs("0001_init.sql").WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	var out bytes.Buffer
	if err := runMigrations(context.Background(), mock, &out, dir, "up"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out.String(), "transient error applying migration 0001_init.sql") {
		t.Fatalf("expected retry notice, got %q", out.String())
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestRunMigrationsStatus(t *testing.T) {
	dir := writeMigrations(t, map[string]string{
		"0001_init.sql":  "SELECT 1",
		"0002_extra.sql": "SELECT 2",
	})

	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("create mock pool: %v", err)
	}
	defer mock.Close()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS schema_migrations").WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectQuery("SELECT version FROM schema_migrations").
		WillReturnRows(pgxmock.NewRows([]string{"version"}).AddRow("0001_init.sql"))

	var out bytes.Buffer
	if err := runMigrations(context.Background(), mock, &out, dir, "status"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "[x] 0001_init.sql\n[ ] 0002_extra.sql\n"
	if out.String() != want {
		t.Fatalf("expected %q, got %q", want, out.String())
	}
}

func TestRunMigrationsRejectsDown(t *testing.T) {
	dir := writeMigrations(t, nil)

	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("create mock pool: %v", err)
	}
	defer mock.Close()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS schema_migrations").WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectQuery("SELECT version FROM schema_migrations").WillReturnRows(pgxmock.NewRows([]string{"version"}))

	if err := runMigrations(context.Background(), mock, &bytes.Buffer{}, dir, "down"); err == nil {
		t.Fatal("expected down to be rejected")
	}
}

func TestRunSeedAddsSuffix(t *testing.T) {
	dir := writeMigrations(t, map[string]string{"dev_seed.sql": "INSERT INTO users VALUES (1)"})

	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("create mock pool: %v", err)
	}
	defer mock.Close()

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users VALUES (1)")).WillReturnResult(pgxmock.NewResult("INSERT", 1))

	var out bytes.Buffer
	if err := runSeed(context.Background(), mock, &out, dir, "dev"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.String() != "applied seed dev_seed.sql\n" {
		t.Fatalf("unexpected output %q", out.String())
	}
}

func TestShouldRetryMigration(t *testing.T) {
	cases := map[string]struct {
		err  error
		want bool
	}{
		"nil":           {nil, false},
		"serialization": {&pgconn.PgError{Code: "40001"}, true},
		"deadlock":      {&pgconn.PgError{Code: "40P01"}, true},
		"syntax":        {&pgconn.PgError{Code: "42601"}, false},
		"tx closed":     {pgx.ErrTxClosed, true},
		"deadline":      {context.DeadlineExceeded, true},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			if got := shouldRetryMigration(tc.err); got != tc.want {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
		})
	}
}
