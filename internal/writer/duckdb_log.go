// Package writer holds every external serializer for a run's output:
// DuckDB-backed Log/Marker implementations a caller can wire into
// internal/engine.Config in place of the in-memory defaults, a Parquet
// exporter for the full Result, and a CSV exporter for quick inspection.
// Nothing in internal/engine ever imports this package; it only
// consumes the core's public types.
package writer

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Masterminds/squirrel"
	_ "github.com/marcboeker/go-duckdb"

	"github.com/sirily11/argo-backtest-core/internal/log"
	coreerrors "github.com/sirily11/argo-backtest-core/pkg/errors"
)

// DuckDBLog implements internal/log.Log against an in-memory DuckDB
// table, so a run's strategy diagnostics can be exported to Parquet
// alongside its trades/fills instead of only living in process memory.
type DuckDBLog struct {
	db *sql.DB
	sq squirrel.StatementBuilderType
}

// NewDuckDBLog opens a fresh in-memory DuckDB database and creates the
// logs table.
func NewDuckDBLog() (*DuckDBLog, error) {
	db, err := sql.Open("duckdb", ":memory:")
	if err != nil {
		return nil, coreerrors.Wrap(coreerrors.ErrCodeWriteFailed, "failed to open duckdb log store", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()

		return nil, coreerrors.Wrap(coreerrors.ErrCodeWriteFailed, "failed to connect to duckdb log store", err)
	}

	l := &DuckDBLog{db: db, sq: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question)}

	if err := l.initialize(); err != nil {
		db.Close()

		return nil, err
	}

	return l, nil
}

func (l *DuckDBLog) initialize() error {
	if _, err := l.db.Exec(`CREATE SEQUENCE IF NOT EXISTS log_id_seq`); err != nil {
		return coreerrors.Wrap(coreerrors.ErrCodeWriteFailed, "failed to create log id sequence", err)
	}

	_, err := l.db.Exec(`
		CREATE TABLE IF NOT EXISTS logs (
			id INTEGER PRIMARY KEY,
			bar_index INTEGER,
			t_as_of TIMESTAMP,
			level TEXT,
			message TEXT,
			fields TEXT
		)
	`)
	if err != nil {
		return coreerrors.Wrap(coreerrors.ErrCodeWriteFailed, "failed to create logs table", err)
	}

	return nil
}

// Log implements internal/log.Log.
func (l *DuckDBLog) Log(entry log.Entry) error {
	var nextID int
	if err := l.db.QueryRow("SELECT nextval('log_id_seq')").Scan(&nextID); err != nil {
		return coreerrors.Wrap(coreerrors.ErrCodeWriteFailed, "failed to allocate log id", err)
	}

	var fieldsJSON string

	if len(entry.Fields) > 0 {
		fieldsBytes, err := json.Marshal(entry.Fields)
		if err != nil {
			return coreerrors.Wrap(coreerrors.ErrCodeWriteFailed, "failed to marshal log fields", err)
		}

		fieldsJSON = string(fieldsBytes)
	}

	_, err := l.sq.
		Insert("logs").
		Columns("id", "bar_index", "t_as_of", "level", "message", "fields").
		Values(nextID, entry.BarIndex, entry.TAsOf, string(entry.Level), entry.Message, fieldsJSON).
		RunWith(l.db).
		Exec()
	if err != nil {
		return coreerrors.Wrap(coreerrors.ErrCodeWriteFailed, "failed to insert log entry", err)
	}

	return nil
}

// Entries implements internal/log.Log.
func (l *DuckDBLog) Entries() ([]log.Entry, error) {
	rows, err := l.sq.
		Select("bar_index", "t_as_of", "level", "message", "fields").
		From("logs").
		OrderBy("id ASC").
		RunWith(l.db).
		Query()
	if err != nil {
		return nil, coreerrors.Wrap(coreerrors.ErrCodeWriteFailed, "failed to query log entries", err)
	}
	defer rows.Close()

	var entries []log.Entry

	for rows.Next() {
		var entry log.Entry

		var level string

		var fieldsJSON sql.NullString

		if err := rows.Scan(&entry.BarIndex, &entry.TAsOf, &level, &entry.Message, &fieldsJSON); err != nil {
			return nil, coreerrors.Wrap(coreerrors.ErrCodeWriteFailed, "failed to scan log entry", err)
		}

		entry.Level = log.Level(level)

		if fieldsJSON.Valid && fieldsJSON.String != "" {
			if err := json.Unmarshal([]byte(fieldsJSON.String), &entry.Fields); err != nil {
				return nil, coreerrors.Wrap(coreerrors.ErrCodeWriteFailed, "failed to unmarshal log fields", err)
			}
		}

		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, coreerrors.Wrap(coreerrors.ErrCodeWriteFailed, "error iterating log entries", err)
	}

	return entries, nil
}

// WriteParquet exports the logs table to <dir>/logs.parquet.
func (l *DuckDBLog) WriteParquet(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return coreerrors.Wrap(coreerrors.ErrCodeWriteFailed, "failed to create log export directory", err)
	}

	path := filepath.Join(dir, "logs.parquet")

	if _, err := l.db.Exec(fmt.Sprintf(`COPY logs TO '%s' (FORMAT PARQUET)`, path)); err != nil {
		return coreerrors.Wrap(coreerrors.ErrCodeWriteFailed, "failed to export logs to parquet", err)
	}

	return nil
}

// Close releases the underlying DuckDB connection.
func (l *DuckDBLog) Close() error {
	return l.db.Close()
}

var _ log.Log = (*DuckDBLog)(nil)
