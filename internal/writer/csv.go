package writer

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sirily11/argo-backtest-core/internal/engine"
	coreerrors "github.com/sirily11/argo-backtest-core/pkg/errors"
)

// CSVResultWriter exports an engine.Result to a directory of CSV files:
// one *os.File/*csv.Writer pair per table, headers written up front,
// flushed at the end of each WriteResult call and again on Close.
type CSVResultWriter struct {
	dir string

	equityFile     *os.File
	fillsFile      *os.File
	rejectionsFile *os.File
	tradesFile     *os.File

	equityCSV     *csv.Writer
	fillsCSV      *csv.Writer
	rejectionsCSV *csv.Writer
	tradesCSV     *csv.Writer
}

// NewCSVResultWriter creates dir (if missing) and opens every result CSV
// file with its header row written.
func NewCSVResultWriter(dir string) (*CSVResultWriter, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, coreerrors.Wrap(coreerrors.ErrCodeWriteFailed, "failed to create csv export directory", err)
	}

	w := &CSVResultWriter{dir: dir}

	if err := w.open("equity_curve.csv", &w.equityFile, &w.equityCSV,
		[]string{"bar_index", "t_as_of", "equity", "cash", "drawdown"}); err != nil {
		return nil, err
	}

	if err := w.open("fills.csv", &w.fillsFile, &w.fillsCSV,
		[]string{"order_id", "symbol", "side", "fill_quantity", "fill_price", "fee_amount", "tax_amount", "t_fill", "fill_bar_index", "reason"}); err != nil {
		return nil, err
	}

	if err := w.open("rejections.csv", &w.rejectionsFile, &w.rejectionsCSV,
		[]string{"order_id", "symbol", "bar_index", "reason", "message"}); err != nil {
		return nil, err
	}

	if err := w.open("trades.csv", &w.tradesFile, &w.tradesCSV,
		[]string{"symbol", "entry_price", "exit_price", "quantity", "fee_amount", "tax_amount", "realized_pnl", "opened_at", "closed_at"}); err != nil {
		return nil, err
	}

	return w, nil
}

func (w *CSVResultWriter) open(name string, file **os.File, writer **csv.Writer, header []string) error {
	f, err := os.Create(filepath.Join(w.dir, name))
	if err != nil {
		return coreerrors.Wrapf(coreerrors.ErrCodeWriteFailed, err, "failed to create %s", name)
	}

	*file = f
	*writer = csv.NewWriter(f)

	if err := (*writer).Write(header); err != nil {
		return coreerrors.Wrapf(coreerrors.ErrCodeWriteFailed, err, "failed to write %s header", name)
	}

	return nil
}

// WriteResult writes every row of result to its corresponding CSV file.
func (w *CSVResultWriter) WriteResult(result engine.Result) error {
	for _, point := range result.EquitySeries {
		record := []string{
			fmt.Sprintf("%d", point.BarIndex),
			point.TAsOf.Format(time.RFC3339),
			point.Equity.String(),
			point.Cash.String(),
			point.Drawdown.String(),
		}

		if err := w.equityCSV.Write(record); err != nil {
			return coreerrors.Wrap(coreerrors.ErrCodeWriteFailed, "failed to write equity point", err)
		}
	}

	for _, fill := range result.Fills {
		record := []string{
			fill.OrderID,
			fill.Instrument.Symbol(),
			string(fill.Side),
			fill.FillQuantity.String(),
			fill.FillPrice.String(),
			fill.FeeAmount.String(),
			fill.TaxAmount.String(),
			fill.TFill.Format(time.RFC3339),
			fmt.Sprintf("%d", fill.FillBarIndex),
			fill.Reason,
		}

		if err := w.fillsCSV.Write(record); err != nil {
			return coreerrors.Wrap(coreerrors.ErrCodeWriteFailed, "failed to write fill", err)
		}
	}

	for _, rejection := range result.Rejections {
		record := []string{
			rejection.OrderID,
			rejection.Instrument.Symbol(),
			fmt.Sprintf("%d", rejection.BarIndex),
			rejection.Reason,
			rejection.Message,
		}

		if err := w.rejectionsCSV.Write(record); err != nil {
			return coreerrors.Wrap(coreerrors.ErrCodeWriteFailed, "failed to write rejection", err)
		}
	}

	for _, trade := range result.Trades {
		record := []string{
			trade.Instrument.Symbol(),
			trade.EntryPrice.String(),
			trade.ExitPrice.String(),
			trade.Quantity.String(),
			trade.FeeAmount.String(),
			trade.TaxAmount.String(),
			trade.RealizedPnL.String(),
			trade.OpenedAt.Format(time.RFC3339),
			trade.ClosedAt.Format(time.RFC3339),
		}

		if err := w.tradesCSV.Write(record); err != nil {
			return coreerrors.Wrap(coreerrors.ErrCodeWriteFailed, "failed to write trade", err)
		}
	}

	w.equityCSV.Flush()
	w.fillsCSV.Flush()
	w.rejectionsCSV.Flush()
	w.tradesCSV.Flush()

	return nil
}

// Close flushes and closes every open file.
func (w *CSVResultWriter) Close() error {
	w.equityCSV.Flush()
	w.fillsCSV.Flush()
	w.rejectionsCSV.Flush()
	w.tradesCSV.Flush()

	for _, f := range []*os.File{w.equityFile, w.fillsFile, w.rejectionsFile, w.tradesFile} {
		if f != nil {
			if err := f.Close(); err != nil {
				return coreerrors.Wrap(coreerrors.ErrCodeWriteFailed, "failed to close csv file", err)
			}
		}
	}

	return nil
}
