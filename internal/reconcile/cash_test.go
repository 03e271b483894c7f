package reconcile

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Veraticus/shiftbook/internal/model"
)

func TestCalculator_Reconcile(t *testing.T) {
	tests := []struct {
		name      string
		input     Input
		tolerance int64
		want      Result
	}{
		{
			name:  "balanced exactly",
			input: Input{StartingCash: 1000, CashSales: 500, TotalExpenses: 300, ClosingCashCounted: 1200},
			want:  Result{ExpectedCash: 1200, Variance: 0, IsBalanced: true},
		},
		{
			name:  "short beyond tolerance",
			input: Input{StartingCash: 1000, CashSales: 500, TotalExpenses: 300, ClosingCashCounted: 1100},
			want:  Result{ExpectedCash: 1200, Variance: -100, IsBalanced: false},
		},
		{
			name:      "short within tolerance",
			input:     Input{StartingCash: 1000, CashSales: 500, TotalExpenses: 300, ClosingCashCounted: 1100},
			tolerance: 100,
			want:      Result{ExpectedCash: 1200, Variance: -100, IsBalanced: true},
		},
		{
			name:      "over within tolerance",
			input:     Input{StartingCash: 0, CashSales: 10000, ClosingCashCounted: 10050},
			tolerance: 50,
			want:      Result{ExpectedCash: 10000, Variance: 50, IsBalanced: true},
		},
		{
			name:  "expected cash may go negative",
			input: Input{StartingCash: 100, CashSales: 0, TotalExpenses: 500, ClosingCashCounted: 0},
			want:  Result{ExpectedCash: -400, Variance: 400, IsBalanced: false},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewCalculator(tt.tolerance).Reconcile(tt.input)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewCalculator_NegativeTolerance(t *testing.T) {
	assert.Equal(t, int64(0), NewCalculator(-10).Tolerance)
}

func TestCashBanked(t *testing.T) {
	assert.Equal(t, int64(700), CashBanked(1200, 500))
	assert.Equal(t, int64(0), CashBanked(300, 500))
}

func TestSummarizeShift(t *testing.T) {
	receipts := []model.Receipt{
		{TotalMoney: 10000, TotalDiscount: 500, PaymentMethod: model.PaymentMethodCash, Type: model.ReceiptTypeSale},
		{TotalMoney: 20000, PaymentMethod: "CARD", Type: model.ReceiptTypeSale},
		{TotalMoney: 3000, PaymentMethod: model.PaymentMethodCash, Type: model.ReceiptTypeRefund},
	}

	got := SummarizeShift(receipts)
	assert.Equal(t, ShiftSummary{
		GrossSales: 27000,
		Discounts:  500,
		CashSales:  7000,
		Receipts:   3,
		Refunds:    1,
	}, got)

	assert.Equal(t, ShiftSummary{}, SummarizeShift(nil))
}

func TestSumExpenses(t *testing.T) {
	assert.Equal(t, int64(450), SumExpenses([]model.Expense{{AmountMinor: 200}, {AmountMinor: 250}}))
}
