package converter

import "github.com/shopspring/decimal"

// pricePlaces is the precision of every CZK price in the feed.
const pricePlaces = 2

// ConvertPrice converts a EUR amount to CZK and rounds it to two places,
// half away from zero.
func ConvertPrice(eur, rate decimal.Decimal) decimal.Decimal {
	return eur.Mul(rate).Round(pricePlaces)
}
