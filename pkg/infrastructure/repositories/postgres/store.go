// Package postgres provides a PostgreSQL-backed implementation of the
// planning store. A single-row version table carries the optimistic
// concurrency counter; CommitPlan locks it, checks the plan's base version,
// and advances it in the same transaction as the writes.
package postgres

import (
	"context"
	_ "embed"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"

	"github.com/troikatech/planwise/pkg/domain/entities"
	"github.com/troikatech/planwise/pkg/domain/repositories"
)

// Schema is the DDL for the planning store, applied by Migrate
//
//go:embed schema.sql
var Schema string

// Store implements the planning store on a pgx connection pool
type Store struct {
	pool *pgxpool.Pool
}

// Verify interface compliance
var _ repositories.Store = (*Store)(nil)

// Connect opens a connection pool against the given DSN and verifies it
// with a ping
func Connect(ctx context.Context, dsn string) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, errors.Wrap(err, "create connection pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, errors.Wrap(err, "ping database")
	}
	return &Store{pool: pool}, nil
}

// Close releases the connection pool
func (s *Store) Close() {
	s.pool.Close()
}

// CommitPlan persists a proposed plan transactionally. The version row is
// locked for the duration of the transaction, so concurrent commits
// serialize on it and the version check is race free.
func (s *Store) CommitPlan(ctx context.Context, baseVersion int64, plan *entities.ProposedPlan) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return errors.Wrap(err, "begin transaction")
	}
	defer tx.Rollback(ctx)

	var version int64
	err = tx.QueryRow(ctx, `SELECT version FROM store_version WHERE id = 1 FOR UPDATE`).Scan(&version)
	if err != nil {
		return errors.Wrap(err, "read store version")
	}
	if version != baseVersion {
		return errors.Wrapf(repositories.ErrVersionConflict, "store at version %d, plan computed at %d", version, baseVersion)
	}

	for _, proposed := range plan.Schedules {
		var conflict bool
		err = tx.QueryRow(ctx, `
			SELECT EXISTS (
				SELECT 1 FROM production_schedules
				WHERE line_id = $1
				  AND status <> $2
				  AND start_at < $4
				  AND $3 < end_at
			)`,
			string(proposed.LineID), int(entities.ScheduleCompleted), proposed.Start, proposed.End,
		).Scan(&conflict)
		if err != nil {
			return errors.Wrap(err, "check schedule overlap")
		}
		if conflict {
			return errors.Wrapf(repositories.ErrVersionConflict,
				"schedule %s overlaps an existing schedule on line %s", proposed.ID, proposed.LineID)
		}
	}

	for componentID, qty := range plan.Allocations {
		tag, err := tx.Exec(ctx, `
			UPDATE inventory_records
			SET allocated = allocated + $2
			WHERE component_id = $1
			  AND allocated + $2 <= on_hand`,
			string(componentID), int64(qty),
		)
		if err != nil {
			return errors.Wrapf(err, "allocate %d of %s", qty, componentID)
		}
		if tag.RowsAffected() == 0 {
			var exists bool
			if err := tx.QueryRow(ctx,
				`SELECT EXISTS (SELECT 1 FROM inventory_records WHERE component_id = $1)`,
				string(componentID),
			).Scan(&exists); err != nil {
				return errors.Wrap(err, "check inventory record")
			}
			if !exists {
				return errors.Wrapf(repositories.ErrNotFound, "inventory record for %s", componentID)
			}
			return errors.Errorf("cannot allocate %d of %s: insufficient available stock", qty, componentID)
		}
	}

	for _, sched := range plan.Schedules {
		_, err = tx.Exec(ctx, `
			INSERT INTO production_schedules (id, order_id, line_id, start_at, end_at, status)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			string(sched.ID), string(sched.OrderID), string(sched.LineID), sched.Start, sched.End, int(sched.Status),
		)
		if err != nil {
			return errors.Wrapf(err, "insert schedule %s", sched.ID)
		}
	}

	for _, assignment := range plan.Assignments {
		_, err = tx.Exec(ctx, `
			INSERT INTO task_assignments (id, staff_id, schedule_id, task_type, hours, start_at, end_at, cost)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8::numeric)`,
			string(assignment.ID), string(assignment.StaffID), string(assignment.ScheduleID),
			string(assignment.TaskType), assignment.Hours, assignment.Start, assignment.End,
			assignment.Cost.String(),
		)
		if err != nil {
			return errors.Wrapf(err, "insert assignment %s", assignment.ID)
		}
	}

	if _, err = tx.Exec(ctx, `UPDATE store_version SET version = version + 1 WHERE id = 1`); err != nil {
		return errors.Wrap(err, "advance store version")
	}

	return errors.Wrap(tx.Commit(ctx), "commit transaction")
}

// UpsertRisks replaces externally sourced risk records keyed by ID
func (s *Store) UpsertRisks(ctx context.Context, risks []*entities.ExternalRisk) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return errors.Wrap(err, "begin transaction")
	}
	defer tx.Rollback(ctx)

	for _, risk := range risks {
		var windowEnd *time.Time
		if !risk.WindowEnd.IsZero() {
			end := risk.WindowEnd
			windowEnd = &end
		}
		_, err = tx.Exec(ctx, `
			INSERT INTO external_risks
				(id, type, region, description, severity, affected_components, affected_suppliers, window_start, window_end)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			ON CONFLICT (id) DO UPDATE SET
				type = EXCLUDED.type,
				region = EXCLUDED.region,
				description = EXCLUDED.description,
				severity = EXCLUDED.severity,
				affected_components = EXCLUDED.affected_components,
				affected_suppliers = EXCLUDED.affected_suppliers,
				window_start = EXCLUDED.window_start,
				window_end = EXCLUDED.window_end`,
			string(risk.ID), string(risk.Type), risk.Region, risk.Description, int(risk.Severity),
			componentIDStrings(risk.AffectedComponents), supplierIDStrings(risk.AffectedSuppliers),
			risk.WindowStart, windowEnd,
		)
		if err != nil {
			return errors.Wrapf(err, "upsert risk %s", risk.ID)
		}
	}

	if _, err = tx.Exec(ctx, `UPDATE store_version SET version = version + 1 WHERE id = 1`); err != nil {
		return errors.Wrap(err, "advance store version")
	}

	return errors.Wrap(tx.Commit(ctx), "commit transaction")
}

// Migrate applies the schema DDL. Statements are idempotent, so running it
// on every startup is safe.
func (s *Store) Migrate(ctx context.Context, ddl string) error {
	_, err := s.pool.Exec(ctx, ddl)
	return errors.Wrap(err, "apply schema")
}

func componentIDStrings(ids []entities.ComponentID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = string(id)
	}
	return out
}

func supplierIDStrings(ids []entities.SupplierID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = string(id)
	}
	return out
}

// readTx begins a repeatable-read read-only transaction for snapshot loads
func (s *Store) readTx(ctx context.Context) (pgx.Tx, error) {
	return s.pool.BeginTx(ctx, pgx.TxOptions{
		IsoLevel:   pgx.RepeatableRead,
		AccessMode: pgx.ReadOnly,
	})
}
