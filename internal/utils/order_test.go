package utils

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type OrderUtilsTestSuite struct {
	suite.Suite
}

func TestOrderUtilsSuite(t *testing.T) {
	suite.Run(t, new(OrderUtilsTestSuite))
}

func zeroFee(decimal.Decimal) decimal.Decimal {
	return decimal.Zero
}

func (suite *OrderUtilsTestSuite) TestCalculateMaxQuantityZeroFee() {
	got := CalculateMaxQuantity(decimal.NewFromInt(1000), decimal.NewFromInt(100), zeroFee)
	suite.True(got.Equal(decimal.NewFromInt(10)), "got %s", got)
}

func (suite *OrderUtilsTestSuite) TestCalculateMaxQuantityWithFee() {
	fee := func(qty decimal.Decimal) decimal.Decimal {
		return qty.Mul(decimal.NewFromFloat(0.01))
	}

	got := CalculateMaxQuantity(decimal.NewFromInt(1000), decimal.NewFromInt(100), fee)

	totalCost := got.Mul(decimal.NewFromInt(100)).Add(fee(got))
	suite.True(totalCost.LessThanOrEqual(decimal.NewFromInt(1000)), "total cost %s exceeds balance", totalCost)
}

func (suite *OrderUtilsTestSuite) TestCalculateMaxQuantityInvalidInputs() {
	suite.True(CalculateMaxQuantity(decimal.Zero, decimal.NewFromInt(100), zeroFee).IsZero())
	suite.True(CalculateMaxQuantity(decimal.NewFromInt(100), decimal.Zero, zeroFee).IsZero())
}

func (suite *OrderUtilsTestSuite) TestCalculateOrderQuantityByPercentage() {
	got := CalculateOrderQuantityByPercentage(decimal.NewFromInt(1000), decimal.NewFromInt(100), zeroFee, decimal.NewFromFloat(0.5))
	suite.True(got.Equal(decimal.NewFromInt(5)), "got %s", got)
}

func (suite *OrderUtilsTestSuite) TestRoundToLotStep() {
	got := RoundToLotStep(decimal.NewFromInt(250), decimal.NewFromInt(100))
	suite.True(got.Equal(decimal.NewFromInt(200)), "got %s", got)
}

func (suite *OrderUtilsTestSuite) TestRoundToLotStepZeroStep() {
	got := RoundToLotStep(decimal.NewFromInt(250), decimal.Zero)
	suite.True(got.Equal(decimal.NewFromInt(250)))
}

func (suite *OrderUtilsTestSuite) TestRoundToTick() {
	got := RoundToTick(decimal.NewFromFloat(10.037), decimal.NewFromFloat(0.01))
	suite.True(got.Equal(decimal.NewFromFloat(10.04)), "got %s", got)
}
