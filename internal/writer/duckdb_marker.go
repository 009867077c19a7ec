package writer

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Masterminds/squirrel"
	_ "github.com/marcboeker/go-duckdb"

	"github.com/sirily11/argo-backtest-core/internal/marker"
	"github.com/sirily11/argo-backtest-core/internal/types"
	coreerrors "github.com/sirily11/argo-backtest-core/pkg/errors"
)

// DuckDBMarker implements internal/marker.Marker against an in-memory
// DuckDB table, for strategies that annotate bars with a signal and
// reason and want that overlay exportable alongside the rest of a run.
type DuckDBMarker struct {
	db *sql.DB
	sq squirrel.StatementBuilderType
}

// NewDuckDBMarker opens a fresh in-memory DuckDB database and creates
// the marks table.
func NewDuckDBMarker() (*DuckDBMarker, error) {
	db, err := sql.Open("duckdb", ":memory:")
	if err != nil {
		return nil, coreerrors.Wrap(coreerrors.ErrCodeWriteFailed, "failed to open duckdb marker store", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()

		return nil, coreerrors.Wrap(coreerrors.ErrCodeWriteFailed, "failed to connect to duckdb marker store", err)
	}

	m := &DuckDBMarker{db: db, sq: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question)}

	if err := m.initialize(); err != nil {
		db.Close()

		return nil, err
	}

	return m, nil
}

func (m *DuckDBMarker) initialize() error {
	if _, err := m.db.Exec(`CREATE SEQUENCE IF NOT EXISTS mark_id_seq`); err != nil {
		return coreerrors.Wrap(coreerrors.ErrCodeWriteFailed, "failed to create mark id sequence", err)
	}

	_, err := m.db.Exec(`
		CREATE TABLE IF NOT EXISTS marks (
			id INTEGER PRIMARY KEY,
			bar_index INTEGER,
			t_as_of TIMESTAMP,
			venue TEXT,
			base TEXT,
			quote TEXT,
			signal_kind TEXT,
			reason TEXT
		)
	`)
	if err != nil {
		return coreerrors.Wrap(coreerrors.ErrCodeWriteFailed, "failed to create marks table", err)
	}

	return nil
}

// Mark implements internal/marker.Marker.
func (m *DuckDBMarker) Mark(mark marker.Mark) error {
	var nextID int
	if err := m.db.QueryRow("SELECT nextval('mark_id_seq')").Scan(&nextID); err != nil {
		return coreerrors.Wrap(coreerrors.ErrCodeWriteFailed, "failed to allocate mark id", err)
	}

	_, err := m.sq.
		Insert("marks").
		Columns("id", "bar_index", "t_as_of", "venue", "base", "quote", "signal_kind", "reason").
		Values(nextID, mark.BarIndex, mark.TAsOf, mark.Instrument.Venue, mark.Instrument.Base, mark.Instrument.Quote, string(mark.Signal.Kind), mark.Reason).
		RunWith(m.db).
		Exec()
	if err != nil {
		return coreerrors.Wrap(coreerrors.ErrCodeWriteFailed, "failed to insert mark", err)
	}

	return nil
}

// Marks implements internal/marker.Marker.
func (m *DuckDBMarker) Marks() ([]marker.Mark, error) {
	rows, err := m.sq.
		Select("bar_index", "t_as_of", "venue", "base", "quote", "signal_kind", "reason").
		From("marks").
		OrderBy("id ASC").
		RunWith(m.db).
		Query()
	if err != nil {
		return nil, coreerrors.Wrap(coreerrors.ErrCodeWriteFailed, "failed to query marks", err)
	}
	defer rows.Close()

	var marks []marker.Mark

	for rows.Next() {
		var mark marker.Mark

		var signalKind string

		if err := rows.Scan(&mark.BarIndex, &mark.TAsOf, &mark.Instrument.Venue, &mark.Instrument.Base, &mark.Instrument.Quote, &signalKind, &mark.Reason); err != nil {
			return nil, coreerrors.Wrap(coreerrors.ErrCodeWriteFailed, "failed to scan mark", err)
		}

		mark.Signal = types.Signal{Kind: types.SignalKind(signalKind)}
		marks = append(marks, mark)
	}

	if err := rows.Err(); err != nil {
		return nil, coreerrors.Wrap(coreerrors.ErrCodeWriteFailed, "error iterating marks", err)
	}

	return marks, nil
}

// WriteParquet exports the marks table to <dir>/marks.parquet.
func (m *DuckDBMarker) WriteParquet(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return coreerrors.Wrap(coreerrors.ErrCodeWriteFailed, "failed to create mark export directory", err)
	}

	path := filepath.Join(dir, "marks.parquet")

	if _, err := m.db.Exec(fmt.Sprintf(`COPY marks TO '%s' (FORMAT PARQUET)`, path)); err != nil {
		return coreerrors.Wrap(coreerrors.ErrCodeWriteFailed, "failed to export marks to parquet", err)
	}

	return nil
}

// Close releases the underlying DuckDB connection.
func (m *DuckDBMarker) Close() error {
	return m.db.Close()
}

var _ marker.Marker = (*DuckDBMarker)(nil)
