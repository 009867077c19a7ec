package feed

import (
	"os"
	"sort"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/shopspring/decimal"

	"github.com/sirily11/argo-backtest-core/internal/types"
	coreerrors "github.com/sirily11/argo-backtest-core/pkg/errors"
)

// csvBarRow is the on-disk shape gocsv unmarshals each row into: string
// fields so OHLCV decimals never round-trip through float64.
type csvBarRow struct {
	Time   string `csv:"time"`
	Open   string `csv:"open"`
	High   string `csv:"high"`
	Low    string `csv:"low"`
	Close  string `csv:"close"`
	Volume string `csv:"volume"`
}

// LoadCSVSource reads one instrument's bar history from a CSV file at
// path (time,open,high,low,close,volume columns, time in RFC3339) and
// returns it as a Source sorted ascending by TOpen. It loads and sorts
// the whole file once up front, since a run needs an instrument's full
// history available before it starts rather than a queryable iterator.
func LoadCSVSource(path string, instrument types.InstrumentID, timeframe types.Timeframe) (*InMemorySource, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, coreerrors.Wrapf(coreerrors.ErrCodeLoadFailed, err, "failed to open csv bar file %s", path)
	}
	defer file.Close()

	var rows []csvBarRow
	if err := gocsv.UnmarshalFile(file, &rows); err != nil {
		return nil, coreerrors.Wrapf(coreerrors.ErrCodeLoadFailed, err, "failed to unmarshal csv bar file %s", path)
	}

	bars := make([]types.Bar, 0, len(rows))

	for i, row := range rows {
		bar, err := row.toBar(instrument, timeframe)
		if err != nil {
			return nil, coreerrors.Wrapf(coreerrors.ErrCodeLoadFailed, err, "invalid row %d in %s", i, path)
		}

		bars = append(bars, bar)
	}

	sort.Slice(bars, func(i, j int) bool { return bars[i].TOpen.Before(bars[j].TOpen) })

	return NewInMemorySource(instrument, timeframe, bars), nil
}

func (r csvBarRow) toBar(instrument types.InstrumentID, timeframe types.Timeframe) (types.Bar, error) {
	tOpen, err := time.Parse(time.RFC3339, r.Time)
	if err != nil {
		return types.Bar{}, err
	}

	open, err := decimal.NewFromString(r.Open)
	if err != nil {
		return types.Bar{}, err
	}

	high, err := decimal.NewFromString(r.High)
	if err != nil {
		return types.Bar{}, err
	}

	low, err := decimal.NewFromString(r.Low)
	if err != nil {
		return types.Bar{}, err
	}

	close, err := decimal.NewFromString(r.Close)
	if err != nil {
		return types.Bar{}, err
	}

	volume, err := decimal.NewFromString(r.Volume)
	if err != nil {
		return types.Bar{}, err
	}

	return types.Bar{
		Instrument: instrument,
		Timeframe:  timeframe,
		TOpen:      tOpen,
		Open:       open,
		High:       high,
		Low:        low,
		Close:      close,
		Volume:     volume,
	}, nil
}
