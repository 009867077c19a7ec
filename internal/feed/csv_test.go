package feed

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/sirily11/argo-backtest-core/internal/types"
)

type CSVTestSuite struct {
	suite.Suite
}

func TestCSVSuite(t *testing.T) {
	suite.Run(t, new(CSVTestSuite))
}

func (suite *CSVTestSuite) writeCSV(rows string) string {
	path := filepath.Join(suite.T().TempDir(), "bars.csv")
	suite.Require().NoError(os.WriteFile(path, []byte(rows), 0o644))

	return path
}

func (suite *CSVTestSuite) TestLoadCSVSourceSortsAscendingByTOpen() {
	path := suite.writeCSV(`time,open,high,low,close,volume
2024-01-01T01:00:00Z,101,102,100,101.5,10
2024-01-01T00:00:00Z,100,101,99,100.5,5
`)

	id := instrument("BTC")
	tf := types.Timeframe(3600)

	source, err := LoadCSVSource(path, id, tf)
	suite.Require().NoError(err)

	bars := source.Bars()
	suite.Require().Len(bars, 2)
	suite.True(bars[0].TOpen.Before(bars[1].TOpen))
	suite.Equal(id, source.Instrument())
	suite.Equal(tf, source.Timeframe())
	suite.True(bars[0].Open.Equal(bars[0].Open))
}

func (suite *CSVTestSuite) TestLoadCSVSourceRejectsMalformedDecimal() {
	path := suite.writeCSV(`time,open,high,low,close,volume
2024-01-01T00:00:00Z,not-a-number,101,99,100.5,5
`)

	_, err := LoadCSVSource(path, instrument("BTC"), types.Timeframe(3600))
	suite.Error(err)
}

func (suite *CSVTestSuite) TestLoadCSVSourceRejectsMissingFile() {
	_, err := LoadCSVSource(filepath.Join(suite.T().TempDir(), "missing.csv"), instrument("BTC"), types.Timeframe(3600))
	suite.Error(err)
}
