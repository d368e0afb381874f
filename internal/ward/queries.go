package ward

import "strings"

// Table and column names follow the Prisma schema of the main server, so
// identifiers are quoted. Queries are written with $n placeholders and
// rebound to ? for SQLite.

const fetchPendingSQL = `SELECT w."code", w."full_name", d."full_name", p."full_name"
FROM "Wards" w
JOIN "Districts" d ON w."district_code" = d."code"
JOIN "Provinces" p ON d."province_code" = p."code"
WHERE w."latitude" IS NULL AND w."longitude" IS NULL AND w."isNoResult" = FALSE
ORDER BY w."code"`

const markResolvedSQL = `UPDATE "Wards" SET "latitude" = $1, "longitude" = $2, "isNoResult" = FALSE WHERE "code" = $3`

const markUnresolvableSQL = `UPDATE "Wards" SET "isNoResult" = TRUE WHERE "code" = $1`

const statsSQL = `SELECT COUNT(*),
	COALESCE(SUM(CASE WHEN "latitude" IS NOT NULL AND "longitude" IS NOT NULL THEN 1 ELSE 0 END), 0),
	COALESCE(SUM(CASE WHEN "isNoResult" THEN 1 ELSE 0 END), 0),
	COALESCE(SUM(CASE WHEN "latitude" IS NULL AND "longitude" IS NULL AND NOT "isNoResult" THEN 1 ELSE 0 END), 0)
FROM "Wards"`

const listResolvedSQL = `SELECT w."code", w."full_name", d."full_name", p."full_name", w."latitude", w."longitude"
FROM "Wards" w
JOIN "Districts" d ON w."district_code" = d."code"
JOIN "Provinces" p ON d."province_code" = p."code"
WHERE w."latitude" IS NOT NULL AND w."longitude" IS NOT NULL
ORDER BY w."code"`

// withLimit appends a LIMIT clause using placeholder ph when limit > 0.
func withLimit(query string, limit int, ph string) (string, []any) {
	if limit <= 0 {
		return query, nil
	}
	return query + "\nLIMIT " + ph, []any{limit}
}

var sqliteRebinder = strings.NewReplacer("$1", "?", "$2", "?", "$3", "?")

// rebind converts $n placeholders to ?. Arguments in every query above are
// used once, in order.
func rebind(query string) string {
	return sqliteRebinder.Replace(query)
}
