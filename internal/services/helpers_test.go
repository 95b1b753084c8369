package services

import "github.com/shopspring/decimal"

func ptr[T any](v T) *T { return &v }

func decPtr(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}
