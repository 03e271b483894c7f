// Package model defines the core domain models used throughout the application.
package model

import "time"

// ReceiptType distinguishes sales from refunds as reported by the POS.
type ReceiptType string

// Receipt types.
const (
	ReceiptTypeSale   ReceiptType = "SALE"
	ReceiptTypeRefund ReceiptType = "REFUND"
)

// PaymentMethodCash is the payment type the POS reports for cash tenders.
const PaymentMethodCash = "CASH"

// LineItem is one sold item on a receipt.
type LineItem struct {
	Name     string  `json:"name"`
	Quantity float64 `json:"quantity"`
	Amount   int64   `json:"amount"`
}

// Receipt is an immutable point-of-sale transaction record.
// Amounts are in minor currency units.
type Receipt struct {
	CreatedAt     time.Time
	ShiftDate     time.Time
	ExternalID    string
	ReceiptNumber string
	PaymentMethod string
	EmployeeID    string
	CustomerID    string
	Type          ReceiptType
	LineItems     []LineItem
	TotalMoney    int64
	TotalDiscount int64
	ID            int64
}

// IsRefund reports whether the receipt reverses an earlier sale.
func (r *Receipt) IsRefund() bool {
	return r.Type == ReceiptTypeRefund
}
