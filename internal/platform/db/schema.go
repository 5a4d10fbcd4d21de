package db

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

// SourceTables are the read-only tables the pipeline consumes. A missing table
// is a fatal connectivity/schema error: the whole run aborts before any
// stratum is computed.
var SourceTables = []string{
	"patients",
	"icustays",
	"admissions",
	"elixhauser",
	"sofa",
}

// TableStatus reports whether one source table is visible to the connected role.
type TableStatus struct {
	Name   string `json:"name"`
	Exists bool   `json:"exists"`
}

// VerifySchema checks that every source table exists in the connected
// database. It returns the per-table statuses and an error naming the missing
// tables, if any.
func VerifySchema(ctx context.Context, pool *pgxpool.Pool) ([]TableStatus, error) {
	statuses := make([]TableStatus, 0, len(SourceTables))
	var missing []string

	for _, table := range SourceTables {
		var exists bool
		err := pool.QueryRow(ctx,
			`SELECT EXISTS (
				SELECT 1 FROM information_schema.tables
				WHERE table_schema = current_schema() AND table_name = $1
			)`, table).Scan(&exists)
		if err != nil {
			return nil, fmt.Errorf("check table %s: %w", table, err)
		}
		statuses = append(statuses, TableStatus{Name: table, Exists: exists})
		if !exists {
			missing = append(missing, table)
		}
	}

	if len(missing) > 0 {
		return statuses, fmt.Errorf("missing source tables: %s", strings.Join(missing, ", "))
	}
	return statuses, nil
}
