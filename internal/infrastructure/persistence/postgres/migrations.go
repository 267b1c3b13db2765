package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION SUPPORT
// ══════════════════════════════════════════════════════════════════════════════

// Migration represents a database migration.
type Migration struct {
	Version   int
	Name      string
	UpSQL     string
	DownSQL   string
	AppliedAt time.Time
	IsApplied bool
}

// Migrator handles database migrations.
type Migrator struct {
	conn       *Connection
	migrations []Migration
	tableName  string
}

// NewMigrator creates a new migrator with embedded migrations.
func NewMigrator(conn *Connection) *Migrator {
	return &Migrator{
		conn:       conn,
		migrations: GetMigrations(),
		tableName:  "schema_migrations",
	}
}

// EnsureMigrationTable creates the migration tracking table if it doesn't exist.
func (m *Migrator) EnsureMigrationTable(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			version INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			applied_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
		)
	`, m.tableName)

	_, err := m.conn.Pool().Exec(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	return nil
}

// GetAppliedMigrations returns all applied migrations.
func (m *Migrator) GetAppliedMigrations(ctx context.Context) (map[int]time.Time, error) {
	query := fmt.Sprintf("SELECT version, applied_at FROM %s ORDER BY version", m.tableName)

	rows, err := m.conn.Pool().Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query applied migrations: %w", err)
	}
	defer rows.Close()

	applied := make(map[int]time.Time)
	for rows.Next() {
		var version int
		var appliedAt time.Time

		if err := rows.Scan(&version, &appliedAt); err != nil {
			return nil, fmt.Errorf("failed to scan migration row: %w", err)
		}

		applied[version] = appliedAt
	}

	return applied, rows.Err()
}

// Migrate applies all pending migrations.
func (m *Migrator) Migrate(ctx context.Context) error {
	if err := m.EnsureMigrationTable(ctx); err != nil {
		return err
	}

	applied, err := m.GetAppliedMigrations(ctx)
	if err != nil {
		return err
	}

	for _, mig := range m.migrations {
		if _, isApplied := applied[mig.Version]; isApplied {
			continue
		}

		if mig.UpSQL == "" {
			return fmt.Errorf("%w: missing up SQL for migration %d", ErrMigrationFailed, mig.Version)
		}

		// Apply migration in transaction
		err := m.conn.WithTx(ctx, func(tx pgx.Tx) error {
			if _, err := tx.Exec(ctx, mig.UpSQL); err != nil {
				return fmt.Errorf("failed to execute migration %d: %w", mig.Version, err)
			}

			insertQuery := fmt.Sprintf(
				"INSERT INTO %s (version, name) VALUES ($1, $2)",
				m.tableName,
			)
			_, err := tx.Exec(ctx, insertQuery, mig.Version, mig.Name)
			return err
		})
		if err != nil {
			return fmt.Errorf("%w: version %d: %v", ErrMigrationFailed, mig.Version, err)
		}
	}

	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// EMBEDDED MIGRATIONS
// ══════════════════════════════════════════════════════════════════════════════

// GetMigrations returns all embedded migrations.
func GetMigrations() []Migration {
	return []Migration{
		{
			Version: 1,
			Name:    "create_learning_record",
			UpSQL:   migration001Up,
			DownSQL: migration001Down,
		},
		{
			Version: 2,
			Name:    "create_audit_and_snapshot",
			UpSQL:   migration002Up,
			DownSQL: migration002Down,
		},
	}
}

const migration001Up = `
CREATE TABLE IF NOT EXISTS students (
	id UUID PRIMARY KEY,
	track TEXT NOT NULL DEFAULT 'Terminale',
	profile TEXT NOT NULL DEFAULT 'Scolarise',
	specialities TEXT[] NOT NULL DEFAULT '{}',
	options TEXT[] NOT NULL DEFAULT '{}',
	llv TEXT[] NOT NULL DEFAULT '{}',
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS tasks (
	id UUID PRIMARY KEY,
	student_id UUID NOT NULL REFERENCES students(id),
	label VARCHAR(300) NOT NULL,
	due_at TIMESTAMPTZ,
	weight DOUBLE PRECISION NOT NULL DEFAULT 1,
	status TEXT NOT NULL DEFAULT 'Todo',
	source TEXT NOT NULL DEFAULT 'Agent',
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS ix_tasks_student_status_due ON tasks (student_id, status, due_at);
CREATE INDEX IF NOT EXISTS idx_tasks_student_todo_due ON tasks (student_id, due_at) WHERE status = 'Todo';

CREATE TABLE IF NOT EXISTS sessions (
	id UUID PRIMARY KEY,
	student_id UUID REFERENCES students(id),
	kind TEXT NOT NULL DEFAULT 'Visio',
	status TEXT NOT NULL DEFAULT 'Proposé',
	slot_start TIMESTAMPTZ NOT NULL,
	slot_end TIMESTAMPTZ NOT NULL,
	coach_id UUID,
	capacity INTEGER NOT NULL DEFAULT 1,
	price_cents INTEGER NOT NULL DEFAULT 0,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS ix_sessions_student_status_start ON sessions (student_id, status, slot_start);

CREATE TABLE IF NOT EXISTS bookings (
	id UUID PRIMARY KEY,
	session_id UUID NOT NULL REFERENCES sessions(id),
	student_id UUID NOT NULL REFERENCES students(id),
	status TEXT NOT NULL DEFAULT 'active',
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE UNIQUE INDEX IF NOT EXISTS ux_bookings_active
	ON bookings (session_id, student_id) WHERE status = 'active';

CREATE TABLE IF NOT EXISTS evaluations (
	id UUID PRIMARY KEY,
	student_id UUID NOT NULL REFERENCES students(id),
	subject TEXT NOT NULL,
	generator TEXT NOT NULL,
	duration_min INTEGER NOT NULL,
	status TEXT NOT NULL DEFAULT 'Proposé',
	score_20 DOUBLE PRECISION,
	feedback_json JSONB,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS ix_evaluations_student_status_created ON evaluations (student_id, status, created_at);

CREATE TABLE IF NOT EXISTS epreuves_plan (
	id UUID PRIMARY KEY,
	student_id UUID NOT NULL REFERENCES students(id),
	code TEXT NOT NULL,
	label TEXT NOT NULL,
	weight DOUBLE PRECISION NOT NULL,
	scheduled_at TIMESTAMPTZ,
	format TEXT NOT NULL,
	source TEXT NOT NULL DEFAULT 'Agent',
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS ix_epreuves_plan_student_code ON epreuves_plan (student_id, code);

CREATE TABLE IF NOT EXISTS progress (
	id UUID PRIMARY KEY,
	student_id UUID NOT NULL REFERENCES students(id),
	subject TEXT NOT NULL,
	chapter_code TEXT NOT NULL,
	competence_code TEXT,
	score DOUBLE PRECISION NOT NULL DEFAULT 0,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS ix_progress_student_subject_updated ON progress (student_id, subject, updated_at);
CREATE UNIQUE INDEX IF NOT EXISTS ux_progress_entry
	ON progress (student_id, subject, chapter_code, COALESCE(competence_code, ''));

CREATE TABLE IF NOT EXISTS reports (
	id UUID PRIMARY KEY,
	student_id UUID NOT NULL REFERENCES students(id),
	summary_md TEXT,
	kpis_json JSONB,
	generated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`

const migration001Down = `
DROP TABLE IF EXISTS reports;
DROP TABLE IF EXISTS progress;
DROP TABLE IF EXISTS epreuves_plan;
DROP TABLE IF EXISTS evaluations;
DROP TABLE IF EXISTS bookings;
DROP TABLE IF EXISTS sessions;
DROP TABLE IF EXISTS tasks;
DROP TABLE IF EXISTS students;
`

const migration002Up = `
CREATE TABLE IF NOT EXISTS events (
	id UUID PRIMARY KEY,
	student_id UUID NOT NULL,
	kind TEXT NOT NULL,
	payload JSONB NOT NULL DEFAULT '{}'::jsonb,
	occurred_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS ix_events_kind_occurred ON events (kind, occurred_at);
CREATE INDEX IF NOT EXISTS ix_events_student_occurred_at ON events (student_id, occurred_at);

CREATE TABLE IF NOT EXISTS dashboard_summary_snapshots (
	student_id UUID PRIMARY KEY,
	progress_overall DOUBLE PRECISION NOT NULL DEFAULT 0,
	last_eval_score DOUBLE PRECISION,
	next_session_at TIMESTAMPTZ,
	tasks_open_count INTEGER NOT NULL DEFAULT 0,
	refreshed_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`

const migration002Down = `
DROP TABLE IF EXISTS dashboard_summary_snapshots;
DROP TABLE IF EXISTS events;
`
