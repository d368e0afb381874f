package ward

import (
	"context"
	"database/sql"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store using modernc.org/sqlite. It is meant for
// local development and end-to-end tests against a copy of the ward tables.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	db.SetMaxOpenConns(1)
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close() //nolint:errcheck
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS "Provinces" (
	"code"      TEXT PRIMARY KEY,
	"name"      TEXT NOT NULL,
	"full_name" TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS "Districts" (
	"code"          TEXT PRIMARY KEY,
	"name"          TEXT NOT NULL,
	"full_name"     TEXT NOT NULL,
	"province_code" TEXT NOT NULL REFERENCES "Provinces"("code")
);

CREATE TABLE IF NOT EXISTS "Wards" (
	"code"          TEXT PRIMARY KEY,
	"name"          TEXT NOT NULL,
	"full_name"     TEXT NOT NULL,
	"district_code" TEXT NOT NULL REFERENCES "Districts"("code"),
	"latitude"      REAL,
	"longitude"     REAL,
	"isNoResult"    BOOLEAN NOT NULL DEFAULT FALSE
);

CREATE INDEX IF NOT EXISTS "Districts_province_code_idx" ON "Districts"("province_code");
CREATE INDEX IF NOT EXISTS "Wards_district_code_idx" ON "Wards"("district_code");
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// DB exposes the underlying handle for seeding and inspection.
func (s *SQLiteStore) DB() *sql.DB {
	return s.db
}

func (s *SQLiteStore) FetchPending(ctx context.Context, limit int) ([]Ward, error) {
	query, args := withLimit(fetchPendingSQL, limit, "?")
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: fetch pending")
	}
	defer rows.Close() //nolint:errcheck

	var wards []Ward
	for rows.Next() {
		var w Ward
		if err := rows.Scan(&w.Code, &w.Name, &w.DistrictName, &w.ProvinceName); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan pending")
		}
		wards = append(wards, w)
	}
	return wards, eris.Wrap(rows.Err(), "sqlite: iterate pending")
}

func (s *SQLiteStore) MarkResolved(ctx context.Context, code string, lat, lon float64) error {
	res, err := s.db.ExecContext(ctx, rebind(markResolvedSQL), lat, lon, code)
	if err != nil {
		return eris.Wrapf(err, "sqlite: mark resolved %s", code)
	}
	return checkRowsAffected(res, code)
}

func (s *SQLiteStore) MarkUnresolvable(ctx context.Context, code string) error {
	res, err := s.db.ExecContext(ctx, rebind(markUnresolvableSQL), code)
	if err != nil {
		return eris.Wrapf(err, "sqlite: mark unresolvable %s", code)
	}
	return checkRowsAffected(res, code)
}

func (s *SQLiteStore) Stats(ctx context.Context) (*Stats, error) {
	var st Stats
	err := s.db.QueryRowContext(ctx, statsSQL).Scan(&st.Total, &st.Resolved, &st.Unresolvable, &st.Pending)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: stats")
	}
	return &st, nil
}

func (s *SQLiteStore) ListResolved(ctx context.Context) ([]Located, error) {
	rows, err := s.db.QueryContext(ctx, listResolvedSQL)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list resolved")
	}
	defer rows.Close() //nolint:errcheck

	var out []Located
	for rows.Next() {
		var l Located
		if err := rows.Scan(&l.Code, &l.Name, &l.DistrictName, &l.ProvinceName, &l.Latitude, &l.Longitude); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan resolved")
		}
		out = append(out, l)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: iterate resolved")
}

func checkRowsAffected(res sql.Result, code string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Errorf("ward not found: %s", code)
	}
	return nil
}
