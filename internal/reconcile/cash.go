// Package reconcile compares the cash a shift should hold with what was counted.
package reconcile

import "github.com/Veraticus/shiftbook/internal/model"

// DefaultTolerance is the variance, in minor units, still treated as balanced.
const DefaultTolerance int64 = 5000

// Input is one shift's cash position. All amounts are minor units.
type Input struct {
	StartingCash       int64
	CashSales          int64
	TotalExpenses      int64
	ClosingCashCounted int64
}

// Result is the outcome of a reconciliation. A negative Variance means cash is short.
type Result struct {
	ExpectedCash int64
	Variance     int64
	IsBalanced   bool
}

// Calculator reconciles cash against a fixed tolerance.
type Calculator struct {
	Tolerance int64
}

// NewCalculator returns a calculator; negative tolerances count as zero.
func NewCalculator(tolerance int64) Calculator {
	if tolerance < 0 {
		tolerance = 0
	}
	return Calculator{Tolerance: tolerance}
}

// Reconcile computes expected cash and the variance of the count against it.
// Nothing is clamped: expected cash may be negative when expenses exceed takings.
func (c Calculator) Reconcile(in Input) Result {
	expected := in.StartingCash + in.CashSales - in.TotalExpenses
	variance := in.ClosingCashCounted - expected
	return Result{
		ExpectedCash: expected,
		Variance:     variance,
		IsBalanced:   abs(variance) <= c.Tolerance,
	}
}

// CashBanked is the cash that can be taken to the bank after leaving the
// opening float for the next shift. It is never negative.
func CashBanked(closingCashCounted, nextFloat int64) int64 {
	if banked := closingCashCounted - nextFloat; banked > 0 {
		return banked
	}
	return 0
}

// ShiftSummary totals the receipts of one shift.
type ShiftSummary struct {
	GrossSales int64
	Discounts  int64
	CashSales  int64
	Receipts   int
	Refunds    int
}

// SummarizeShift totals sales, discounts and cash takings. Refunds count
// against every total.
func SummarizeShift(receipts []model.Receipt) ShiftSummary {
	var s ShiftSummary
	for _, r := range receipts {
		sign := int64(1)
		if r.IsRefund() {
			sign = -1
			s.Refunds++
		}
		s.Receipts++
		s.GrossSales += sign * r.TotalMoney
		s.Discounts += sign * r.TotalDiscount
		if r.PaymentMethod == model.PaymentMethodCash {
			s.CashSales += sign * r.TotalMoney
		}
	}
	return s
}

// SumExpenses totals expense amounts.
func SumExpenses(expenses []model.Expense) int64 {
	var total int64
	for _, e := range expenses {
		total += e.AmountMinor
	}
	return total
}

func abs(n int64) int64 {
	if n < 0 {
		return -n
	}
	return n
}
