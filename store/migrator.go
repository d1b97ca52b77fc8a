package store

import (
	"context"
	"embed"
	"log/slog"
	"path"
	"strings"

	"github.com/pkg/errors"
)

// Migration System Overview:
//
// Each driver ships one schema file, migration/{driver}/LATEST.sql.
// Every statement in it is idempotent (CREATE ... IF NOT EXISTS), so Migrate
// runs unconditionally at startup and on fresh databases alike.

//go:embed migration
var migrationFS embed.FS

const (
	// LatestSchemaFileName is the name of the latest schema file.
	LatestSchemaFileName = "LATEST.sql"

	statementSeparator = ";"
)

// Migrate applies the schema of the store's driver.
func (s *Store) Migrate(ctx context.Context) error {
	filePath := path.Join("migration", s.driver.Type(), LatestSchemaFileName)
	buf, err := migrationFS.ReadFile(filePath)
	if err != nil {
		return errors.Wrapf(err, "failed to read schema file %s", filePath)
	}

	statements := splitStatements(string(buf))
	tx, err := s.driver.GetDB().BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "failed to begin migration")
	}
	defer tx.Rollback()

	for _, stmt := range statements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return errors.Wrapf(err, "failed to execute statement %q", stmt)
		}
	}
	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "failed to commit migration")
	}

	slog.Info("database schema applied", slog.String("driver", s.driver.Type()), slog.Int("statements", len(statements)))
	return nil
}

// splitStatements splits a schema file on statement terminators.
// Schema files must not contain semicolons inside literals.
func splitStatements(sql string) []string {
	var statements []string
	for _, stmt := range strings.Split(sql, statementSeparator) {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		statements = append(statements, stmt)
	}
	return statements
}
