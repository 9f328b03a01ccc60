package main

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/vladislavdragonenkov/checkout/internal/storage/postgres"
)

type fakeStore struct {
	upSteps   int
	downSteps int
	status    postgres.MigrationStatus
	err       error
	closed    bool
}

func (f *fakeStore) MigrateUp(_ context.Context, steps int) (int, error) {
	f.upSteps = steps
	return 2, f.err
}

func (f *fakeStore) MigrateDown(_ context.Context, steps int) (int, error) {
	f.downSteps = steps
	return steps, f.err
}

func (f *fakeStore) Status(context.Context) (postgres.MigrationStatus, error) {
	return f.status, nil
}

func (f *fakeStore) Close() error {
	f.closed = true
	return nil
}

func withFakeStore(t *testing.T, store *fakeStore) *string {
	t.Helper()

	var gotDSN string
	old := openStore
	openStore = func(_ context.Context, dsn string) (migrationStore, error) {
		gotDSN = dsn
		return store, nil
	}
	t.Cleanup(func() { openStore = old })
	return &gotDSN
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	err := newApp(&out).Run(append([]string{"migrate"}, args...))
	return out.String(), err
}

func TestMigrate_Up(t *testing.T) {
	store := &fakeStore{status: postgres.MigrationStatus{Current: 1, Applied: 1}}
	dsn := withFakeStore(t, store)

	out, err := runCLI(t, "--dsn", "postgres://localhost/checkout", "up", "--steps", "3")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if *dsn != "postgres://localhost/checkout" {
		t.Fatalf("unexpected dsn: %s", *dsn)
	}
	if store.upSteps != 3 {
		t.Fatalf("expected steps=3, got %d", store.upSteps)
	}
	if !store.closed {
		t.Fatal("store must be closed")
	}
	if !strings.Contains(out, "migrate up ok: applied=2: version=1 applied=1 pending=0") {
		t.Fatalf("unexpected output: %q", out)
	}
}

func TestMigrate_DownDefaultsToOneStep(t *testing.T) {
	store := &fakeStore{}
	withFakeStore(t, store)

	if _, err := runCLI(t, "--dsn", "postgres://localhost/checkout", "down"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if store.downSteps != 1 {
		t.Fatalf("expected one step, got %d", store.downSteps)
	}
}

func TestMigrate_StatusFromEnvDSN(t *testing.T) {
	store := &fakeStore{status: postgres.MigrationStatus{Pending: []string{"0001_create_orders"}}}
	dsn := withFakeStore(t, store)
	t.Setenv(dsnEnv, "postgres://env/checkout")

	out, err := runCLI(t, "status")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if *dsn != "postgres://env/checkout" {
		t.Fatalf("expected dsn from env, got %s", *dsn)
	}
	if !strings.Contains(out, "pending 0001_create_orders") {
		t.Fatalf("unexpected output: %q", out)
	}
}

func TestMigrate_MissingDSN(t *testing.T) {
	withFakeStore(t, &fakeStore{})
	t.Setenv(dsnEnv, "")

	_, err := runCLI(t, "status")
	if err == nil || !strings.Contains(err.Error(), dsnEnv) {
		t.Fatalf("expected missing dsn error, got %v", err)
	}
}

func TestMigrate_UpError(t *testing.T) {
	store := &fakeStore{err: errors.New("lock timeout")}
	withFakeStore(t, store)

	_, err := runCLI(t, "--dsn", "postgres://localhost/checkout", "up")
	if err == nil || !strings.Contains(err.Error(), "migrate up failed") {
		t.Fatalf("expected migrate up error, got %v", err)
	}
	if !store.closed {
		t.Fatal("store must be closed on error")
	}
}
