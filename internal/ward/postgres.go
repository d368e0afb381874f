package ward

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/VietTranDai/SMART-GARDEN-SERVER/internal/db"
)

// migrationLockID serialises concurrent migrate runs against one database.
const migrationLockID = 20250519

// postgresMigration adds the geocoder columns to the existing Prisma-managed
// "Wards" table. The tables themselves belong to the main server.
const postgresMigration = `
ALTER TABLE "Wards" ADD COLUMN IF NOT EXISTS "latitude" DOUBLE PRECISION;
ALTER TABLE "Wards" ADD COLUMN IF NOT EXISTS "longitude" DOUBLE PRECISION;
ALTER TABLE "Wards" ADD COLUMN IF NOT EXISTS "isNoResult" BOOLEAN NOT NULL DEFAULT FALSE;
CREATE INDEX IF NOT EXISTS "Wards_geocode_pending_idx" ON "Wards" ("code")
	WHERE "latitude" IS NULL AND "longitude" IS NULL AND "isNoResult" = FALSE;
`

// PostgresStore implements Store on a pgx pool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// NewPostgres connects to dsn and returns a store holding a single-connection pool.
func NewPostgres(ctx context.Context, dsn string, poolCfg *db.PoolConfig) (*PostgresStore, error) {
	pool, err := db.Connect(ctx, dsn, poolCfg)
	if err != nil {
		return nil, eris.Wrap(err, "ward: connect postgres")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

// NewPostgresWithPool wraps an existing pool. Close does not close it.
func NewPostgresWithPool(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) FetchPending(ctx context.Context, limit int) ([]Ward, error) {
	query, args := withLimit(fetchPendingSQL, limit, "$1")
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "ward: fetch pending")
	}
	defer rows.Close()

	var wards []Ward
	for rows.Next() {
		var w Ward
		if err := rows.Scan(&w.Code, &w.Name, &w.DistrictName, &w.ProvinceName); err != nil {
			return nil, eris.Wrap(err, "ward: scan pending")
		}
		wards = append(wards, w)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "ward: iterate pending")
	}
	return wards, nil
}

func (s *PostgresStore) MarkResolved(ctx context.Context, code string, lat, lon float64) error {
	tag, err := s.pool.Exec(ctx, markResolvedSQL, lat, lon, code)
	if err != nil {
		return eris.Wrapf(err, "ward: mark resolved %s", code)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("ward not found: %s", code)
	}
	return nil
}

func (s *PostgresStore) MarkUnresolvable(ctx context.Context, code string) error {
	tag, err := s.pool.Exec(ctx, markUnresolvableSQL, code)
	if err != nil {
		return eris.Wrapf(err, "ward: mark unresolvable %s", code)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("ward not found: %s", code)
	}
	return nil
}

func (s *PostgresStore) Stats(ctx context.Context) (*Stats, error) {
	var st Stats
	err := s.pool.QueryRow(ctx, statsSQL).Scan(&st.Total, &st.Resolved, &st.Unresolvable, &st.Pending)
	if err != nil {
		return nil, eris.Wrap(err, "ward: stats")
	}
	return &st, nil
}

func (s *PostgresStore) ListResolved(ctx context.Context) ([]Located, error) {
	rows, err := s.pool.Query(ctx, listResolvedSQL)
	if err != nil {
		return nil, eris.Wrap(err, "ward: list resolved")
	}
	return collectLocated(rows)
}

func collectLocated(rows pgx.Rows) ([]Located, error) {
	defer rows.Close()

	var out []Located
	for rows.Next() {
		var l Located
		if err := rows.Scan(&l.Code, &l.Name, &l.DistrictName, &l.ProvinceName, &l.Latitude, &l.Longitude); err != nil {
			return nil, eris.Wrap(err, "ward: scan resolved")
		}
		out = append(out, l)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "ward: iterate resolved")
	}
	return out, nil
}

// Migrate ensures the geocoder columns and the pending index exist. The
// DDL runs in one transaction under a transaction-scoped advisory lock.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return eris.Wrap(err, "ward: begin migration")
	}

	if _, err := tx.Exec(ctx, "SELECT pg_advisory_xact_lock($1)", migrationLockID); err != nil {
		_ = tx.Rollback(ctx)
		return eris.Wrap(err, "ward: acquire migration lock")
	}
	if _, err := tx.Exec(ctx, postgresMigration); err != nil {
		_ = tx.Rollback(ctx)
		return eris.Wrap(err, "ward: migrate postgres")
	}
	if err := tx.Commit(ctx); err != nil {
		return eris.Wrap(err, "ward: commit migration")
	}

	zap.L().Info("geocoder columns ensured", zap.String("component", "ward.migrate"))
	return nil
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}
