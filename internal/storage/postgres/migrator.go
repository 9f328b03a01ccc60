package postgres

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

const (
	migrationsDir   = "sql/migrations"
	migrationLockID = int64(20240917)
	lockTimeout     = 5 * time.Second

	schemaMigrationsDDL = `
CREATE TABLE IF NOT EXISTS schema_migrations (
    version BIGINT PRIMARY KEY,
    name TEXT NOT NULL,
    applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`
)

var (
	//go:embed sql/migrations/*.sql
	embeddedMigrations embed.FS

	// 0001_create_orders.up.sql
	migrationFileRe = regexp.MustCompile(`^(\d+)_([a-zA-Z0-9_]+)\.(up|down)\.sql$`)
)

// migration - пара up/down скриптов одной версии.
type migration struct {
	Version int64
	Name    string
	Up      string
	Down    string
}

func (m migration) String() string {
	return fmt.Sprintf("%04d_%s", m.Version, m.Name)
}

// MigrationStatus - состояние схемы базы.
type MigrationStatus struct {
	// Current - последняя применённая версия, 0 если миграций не было.
	Current int64
	Applied int
	Pending []string
}

// MigrateUp применяет ещё не применённые миграции по возрастанию версии.
// steps <= 0 - применить все. Возвращает количество применённых.
func (s *Store) MigrateUp(ctx context.Context, steps int) (int, error) {
	migrations, err := parseMigrations(embeddedMigrations)
	if err != nil {
		return 0, err
	}

	applied := 0
	err = s.withMigrationLock(ctx, func(conn *sql.Conn) error {
		done, err := appliedVersions(ctx, conn)
		if err != nil {
			return err
		}
		for _, m := range migrations {
			if done[m.Version] {
				continue
			}
			if steps > 0 && applied >= steps {
				break
			}
			if err := runMigration(ctx, conn, m.Up, func(tx *sql.Tx) error {
				_, err := tx.ExecContext(ctx,
					`INSERT INTO schema_migrations (version, name) VALUES ($1, $2)`,
					m.Version, m.Name)
				return err
			}); err != nil {
				return fmt.Errorf("migrate up %s: %w", m, err)
			}
			applied++
		}
		return nil
	})
	return applied, err
}

// MigrateDown откатывает последние миграции. steps <= 0 - ровно одна.
func (s *Store) MigrateDown(ctx context.Context, steps int) (int, error) {
	if steps <= 0 {
		steps = 1
	}
	migrations, err := parseMigrations(embeddedMigrations)
	if err != nil {
		return 0, err
	}
	byVersion := make(map[int64]migration, len(migrations))
	for _, m := range migrations {
		byVersion[m.Version] = m
	}

	reverted := 0
	err = s.withMigrationLock(ctx, func(conn *sql.Conn) error {
		done, err := appliedVersions(ctx, conn)
		if err != nil {
			return err
		}
		versions := make([]int64, 0, len(done))
		for v := range done {
			versions = append(versions, v)
		}
		sort.Slice(versions, func(i, j int) bool { return versions[i] > versions[j] })

		for _, v := range versions {
			if reverted >= steps {
				break
			}
			m, ok := byVersion[v]
			if !ok {
				return fmt.Errorf("cannot roll back unknown migration version %d", v)
			}
			if err := runMigration(ctx, conn, m.Down, func(tx *sql.Tx) error {
				_, err := tx.ExecContext(ctx, `DELETE FROM schema_migrations WHERE version = $1`, m.Version)
				return err
			}); err != nil {
				return fmt.Errorf("migrate down %s: %w", m, err)
			}
			reverted++
		}
		return nil
	})
	return reverted, err
}

// Status сообщает текущую версию схемы и список неприменённых миграций.
func (s *Store) Status(ctx context.Context) (MigrationStatus, error) {
	if s == nil || s.db == nil {
		return MigrationStatus{}, ErrStoreNotInitialized
	}
	migrations, err := parseMigrations(embeddedMigrations)
	if err != nil {
		return MigrationStatus{}, err
	}

	queryCtx, cancel := context.WithTimeout(ctx, defaultConnTimeout)
	defer cancel()

	if _, err := s.db.ExecContext(queryCtx, schemaMigrationsDDL); err != nil {
		return MigrationStatus{}, fmt.Errorf("ensure schema_migrations: %w", err)
	}

	rows, err := s.db.QueryContext(queryCtx, `SELECT version FROM schema_migrations`)
	if err != nil {
		return MigrationStatus{}, fmt.Errorf("query schema_migrations: %w", err)
	}
	done, err := scanVersions(rows)
	if err != nil {
		return MigrationStatus{}, err
	}

	status := MigrationStatus{Applied: len(done), Pending: []string{}}
	for v := range done {
		if v > status.Current {
			status.Current = v
		}
	}
	for _, m := range migrations {
		if !done[m.Version] {
			status.Pending = append(status.Pending, m.String())
		}
	}
	return status, nil
}

// withMigrationLock выполняет fn на выделенном соединении под advisory lock,
// чтобы параллельно стартующие экземпляры не применяли миграции дважды.
func (s *Store) withMigrationLock(ctx context.Context, fn func(conn *sql.Conn) error) error {
	if s == nil || s.db == nil {
		return ErrStoreNotInitialized
	}

	conn, err := s.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("acquire db connection: %w", err)
	}
	defer conn.Close()

	lockCtx, cancel := context.WithTimeout(ctx, lockTimeout)
	defer cancel()
	if _, err := conn.ExecContext(lockCtx, `SELECT pg_advisory_lock($1)`, migrationLockID); err != nil {
		return fmt.Errorf("acquire migration lock: %w", err)
	}
	defer func() {
		_, _ = conn.ExecContext(context.Background(), `SELECT pg_advisory_unlock($1)`, migrationLockID)
	}()

	if _, err := conn.ExecContext(ctx, schemaMigrationsDDL); err != nil {
		return fmt.Errorf("ensure schema_migrations: %w", err)
	}
	return fn(conn)
}

// runMigration выполняет скрипт и запись в schema_migrations в одной транзакции.
func runMigration(ctx context.Context, conn *sql.Conn, script string, record func(tx *sql.Tx) error) error {
	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if _, err := tx.ExecContext(ctx, script); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("execute script: %w", err)
	}
	if err := record(tx); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("record version: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func appliedVersions(ctx context.Context, conn *sql.Conn) (map[int64]bool, error) {
	rows, err := conn.QueryContext(ctx, `SELECT version FROM schema_migrations`)
	if err != nil {
		return nil, fmt.Errorf("query schema_migrations: %w", err)
	}
	return scanVersions(rows)
}

func scanVersions(rows *sql.Rows) (map[int64]bool, error) {
	defer rows.Close()

	result := make(map[int64]bool)
	for rows.Next() {
		var v int64
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("scan migration version: %w", err)
		}
		result[v] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate migration versions: %w", err)
	}
	return result, nil
}

// parseMigrations читает sql/migrations из fsys и собирает пары up/down,
// отсортированные по версии.
func parseMigrations(fsys fs.FS) ([]migration, error) {
	entries, err := fs.ReadDir(fsys, migrationsDir)
	if err != nil {
		return nil, fmt.Errorf("read migrations dir: %w", err)
	}

	byVersion := make(map[int64]*migration)
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}
		parts := migrationFileRe.FindStringSubmatch(entry.Name())
		if parts == nil {
			return nil, fmt.Errorf("invalid migration file name: %s", entry.Name())
		}
		version, err := strconv.ParseInt(parts[1], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parse version of %s: %w", entry.Name(), err)
		}

		raw, err := fs.ReadFile(fsys, path.Join(migrationsDir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", entry.Name(), err)
		}
		script := strings.TrimSpace(string(raw))
		if script == "" {
			return nil, fmt.Errorf("migration file is empty: %s", entry.Name())
		}

		m, ok := byVersion[version]
		if !ok {
			m = &migration{Version: version, Name: parts[2]}
			byVersion[version] = m
		}
		if m.Name != parts[2] {
			return nil, fmt.Errorf("migration %d has conflicting names %q and %q", version, m.Name, parts[2])
		}

		target := &m.Up
		if parts[3] == "down" {
			target = &m.Down
		}
		if *target != "" {
			return nil, fmt.Errorf("duplicate %s migration for version %d", parts[3], version)
		}
		*target = script
	}

	if len(byVersion) == 0 {
		return nil, errors.New("no migration files found")
	}

	result := make([]migration, 0, len(byVersion))
	for _, m := range byVersion {
		if m.Up == "" || m.Down == "" {
			return nil, fmt.Errorf("migration %s must have both up and down files", m)
		}
		result = append(result, *m)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Version < result[j].Version })
	return result, nil
}
