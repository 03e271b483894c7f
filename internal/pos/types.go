package pos

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Veraticus/shiftbook/internal/model"
)

// minorUnitExponent is the number of decimal places between major and minor units.
const minorUnitExponent = 2

// Page is one response of the receipts endpoint. An empty Cursor marks the last page.
type Page struct {
	Cursor   string       `json:"cursor,omitempty"`
	Receipts []RawReceipt `json:"receipts"`
}

// RawReceipt is a receipt as the API reports it. Money is in major units.
type RawReceipt struct {
	ID            string          `json:"id"`
	ReceiptNumber string          `json:"receipt_number"`
	ReceiptType   string          `json:"receipt_type"`
	CreatedAt     string          `json:"created_at"`
	EmployeeID    string          `json:"employee_id"`
	CustomerID    string          `json:"customer_id"`
	LineItems     []RawLineItem   `json:"line_items"`
	Payments      []RawPayment    `json:"payments"`
	TotalMoney    decimal.Decimal `json:"total_money"`
	TotalDiscount decimal.Decimal `json:"total_discount"`
}

// RawLineItem is one sold item.
type RawLineItem struct {
	ItemName   string          `json:"item_name"`
	Quantity   decimal.Decimal `json:"quantity"`
	TotalMoney decimal.Decimal `json:"total_money"`
}

// RawPayment is one tender applied to a receipt.
type RawPayment struct {
	Type string `json:"type"`
}

// ExternalID is the receipt's stable upstream identifier, falling back to
// the receipt number when the API omits an id. Receipt numbers are only
// unique within one store, so the fallback assumes a single-store feed.
// A record with neither is reported as "" and rejected by ingestion.
func (r RawReceipt) ExternalID() string {
	if id := strings.TrimSpace(r.ID); id != "" {
		return id
	}
	return strings.TrimSpace(r.ReceiptNumber)
}

// Timestamp parses the RFC3339 creation time.
func (r RawReceipt) Timestamp() (time.Time, error) {
	if strings.TrimSpace(r.CreatedAt) == "" {
		return time.Time{}, fmt.Errorf("missing created_at")
	}
	t, err := time.Parse(time.RFC3339, r.CreatedAt)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid created_at %q: %w", r.CreatedAt, err)
	}
	return t, nil
}

// PaymentMethod returns the type of the first payment, if any.
func (r RawReceipt) PaymentMethod() string {
	if len(r.Payments) == 0 {
		return ""
	}
	return strings.ToUpper(strings.TrimSpace(r.Payments[0].Type))
}

// Receipt converts the raw record into the stored form.
func (r RawReceipt) Receipt(createdAt, shiftDate time.Time) model.Receipt {
	receipt := model.Receipt{
		ExternalID:    r.ExternalID(),
		ReceiptNumber: r.ReceiptNumber,
		Type:          model.ReceiptTypeSale,
		CreatedAt:     createdAt,
		ShiftDate:     shiftDate,
		TotalMoney:    ToMinorUnits(r.TotalMoney),
		TotalDiscount: ToMinorUnits(r.TotalDiscount),
		PaymentMethod: r.PaymentMethod(),
		EmployeeID:    r.EmployeeID,
		CustomerID:    r.CustomerID,
	}
	if strings.EqualFold(r.ReceiptType, string(model.ReceiptTypeRefund)) {
		receipt.Type = model.ReceiptTypeRefund
	}

	for _, item := range r.LineItems {
		qty, _ := item.Quantity.Float64()
		receipt.LineItems = append(receipt.LineItems, model.LineItem{
			Name:     item.ItemName,
			Quantity: qty,
			Amount:   ToMinorUnits(item.TotalMoney),
		})
	}
	return receipt
}

// ToMinorUnits converts a major-unit amount to minor units, rounding half away from zero.
func ToMinorUnits(d decimal.Decimal) int64 {
	return d.Shift(minorUnitExponent).Round(0).IntPart()
}
