package db

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"
)

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
}

// SplitSchema removes the Prisma-style "schema" query parameter from a
// postgres URL and returns it separately. libpq rejects unknown
// parameters, so it has to go before the URL reaches pgx. Key/value DSNs
// are returned unchanged.
func SplitSchema(dsn string) (string, string, error) {
	if !strings.HasPrefix(dsn, "postgres://") && !strings.HasPrefix(dsn, "postgresql://") {
		return dsn, "", nil
	}
	u, err := url.Parse(dsn)
	if err != nil {
		return "", "", eris.Wrap(err, "db: parse connection url")
	}
	q := u.Query()
	schema := q.Get("schema")
	if schema == "" && !q.Has("schema") {
		return dsn, "", nil
	}
	q.Del("schema")
	u.RawQuery = q.Encode()
	return u.String(), schema, nil
}

// Connect opens a pgx pool for dsn and pings it. A "schema" parameter in
// the URL becomes the session search_path.
func Connect(ctx context.Context, dsn string, poolCfg *PoolConfig) (*pgxpool.Pool, error) {
	clean, schema, err := SplitSchema(dsn)
	if err != nil {
		return nil, err
	}

	pgxCfg, err := pgxpool.ParseConfig(clean)
	if err != nil {
		return nil, eris.Wrap(err, "db: parse config")
	}

	maxConns := int32(1)
	if poolCfg != nil && poolCfg.MaxConns > 0 {
		maxConns = poolCfg.MaxConns
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	if schema != "" {
		pgxCfg.ConnConfig.RuntimeParams["search_path"] = schema
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "db: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "db: ping")
	}
	return pool, nil
}
