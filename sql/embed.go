// Package sql holds the schema and seed assets applied by the seeder and
// the integration tests.
package sql

import _ "embed"

var (
	//go:embed init_db.sql
	InitDB string

	//go:embed teardown_db.sql
	TeardownDB string

	//go:embed seed.sql.tmpl
	SeedTemplate string
)
