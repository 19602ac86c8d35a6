// internal/domain/money.go
package domain

import (
	"strings"

	"github.com/shopspring/decimal"

	"campaign-wallet/internal/util"
)

// MoneyScale is the number of fractional digits stored for balances and amounts.
const MoneyScale = 4

// ParseMoney parses an exact decimal quantity. Non-numeric text, and values
// with more fractional digits than the store keeps, are InvalidData.
func ParseMoney(field, raw string) (decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Zero, util.NewError(util.KindInvalidData, "%s is required", field)
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, util.NewError(util.KindInvalidData, "%s %q is not a number", field, raw)
	}
	if -d.Exponent() > MoneyScale && !d.Equal(d.Truncate(MoneyScale)) {
		return decimal.Zero, util.NewError(util.KindInvalidData, "%s %q has more than %d decimal places", field, raw, MoneyScale)
	}
	return d, nil
}
