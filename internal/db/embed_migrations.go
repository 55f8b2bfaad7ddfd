package db

import "embed"

// MigrationFS embeds SQL migration files from internal/db/migrations.
// Applied by the migrate runner from cmd/migrate and by integration tests.
//
//go:embed migrations/*.sql
var MigrationFS embed.FS
