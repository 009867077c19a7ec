package orchestrator

import (
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type ParamSpaceTestSuite struct {
	suite.Suite
}

func TestParamSpaceSuite(t *testing.T) {
	suite.Run(t, new(ParamSpaceTestSuite))
}

func (suite *ParamSpaceTestSuite) TestGridProducesCartesianProduct() {
	space := ParamSpace{Axes: []ParamAxis{
		{Name: "fast", Values: []any{2, 4}},
		{Name: "slow", Values: []any{10, 20, 30}},
	}}

	combos, err := space.Grid()
	suite.Require().NoError(err)
	suite.Len(combos, 6)

	seen := make(map[string]bool)
	for _, combo := range combos {
		seen[fmt.Sprintf("%v-%v", combo["fast"], combo["slow"])] = true
	}

	suite.Len(seen, 6)
}

func (suite *ParamSpaceTestSuite) TestGridRejectsContinuousAxis() {
	space := ParamSpace{Axes: []ParamAxis{
		{Name: "threshold", Continuous: true, Min: decimal.Zero, Max: decimal.NewFromInt(1)},
	}}

	_, err := space.Grid()
	suite.Error(err)
}

func (suite *ParamSpaceTestSuite) TestRandomIsDeterministicForFixedSeed() {
	space := ParamSpace{Axes: []ParamAxis{
		{Name: "fast", Values: []any{2, 3, 4, 5}},
		{Name: "threshold", Continuous: true, Min: decimal.Zero, Max: decimal.NewFromInt(10)},
	}}

	first, err := space.Random(5, 42)
	suite.Require().NoError(err)

	second, err := space.Random(5, 42)
	suite.Require().NoError(err)

	suite.Equal(first, second)
}

func (suite *ParamSpaceTestSuite) TestRandomDiffersAcrossSeeds() {
	space := ParamSpace{Axes: []ParamAxis{
		{Name: "threshold", Continuous: true, Min: decimal.Zero, Max: decimal.NewFromInt(10)},
	}}

	a, err := space.Random(8, 1)
	suite.Require().NoError(err)

	b, err := space.Random(8, 2)
	suite.Require().NoError(err)

	suite.NotEqual(a, b)
}

func (suite *ParamSpaceTestSuite) TestLatinHypercubeStaysWithinBounds() {
	space := ParamSpace{Axes: []ParamAxis{
		{Name: "threshold", Continuous: true, Min: decimal.NewFromInt(1), Max: decimal.NewFromInt(2)},
	}}

	samples, err := space.LatinHypercube(10, 7)
	suite.Require().NoError(err)
	suite.Len(samples, 10)

	for _, sample := range samples {
		value := sample["threshold"].(decimal.Decimal)
		suite.True(value.GreaterThanOrEqual(decimal.NewFromInt(1)))
		suite.True(value.LessThanOrEqual(decimal.NewFromInt(2)))
	}
}

func (suite *ParamSpaceTestSuite) TestLatinHypercubeIsDeterministicForFixedSeed() {
	space := ParamSpace{Axes: []ParamAxis{
		{Name: "threshold", Continuous: true, Min: decimal.Zero, Max: decimal.NewFromInt(100)},
	}}

	first, err := space.LatinHypercube(6, 99)
	suite.Require().NoError(err)

	second, err := space.LatinHypercube(6, 99)
	suite.Require().NoError(err)

	suite.Equal(first, second)
}
