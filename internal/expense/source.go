package expense

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gocarina/gocsv"

	"github.com/Veraticus/shiftbook/internal/common"
	"github.com/Veraticus/shiftbook/internal/model"
	"github.com/Veraticus/shiftbook/internal/ofx"
)

// ErrMissingColumn is returned when a mapped CSV column is absent from the header.
var ErrMissingColumn = errors.New("mapped column not found")

// Mapping names the CSV columns holding each field. Matching ignores case
// and surrounding spaces. Currency is optional.
type Mapping struct {
	Date        string
	Description string
	Amount      string
	Currency    string
}

// DefaultMapping expects columns named date, description, amount and currency.
func DefaultMapping() Mapping {
	return Mapping{
		Date:        "date",
		Description: "description",
		Amount:      "amount",
		Currency:    "currency",
	}
}

func (m Mapping) withDefaults() Mapping {
	d := DefaultMapping()
	if m.Date == "" {
		m.Date = d.Date
	}
	if m.Description == "" {
		m.Description = d.Description
	}
	if m.Amount == "" {
		m.Amount = d.Amount
	}
	if m.Currency == "" {
		m.Currency = d.Currency
	}
	return m
}

// rawRow is one upload row before interpretation. Canonical rows carry ISO
// dates and dot-decimal amounts whatever the batch locale.
type rawRow struct {
	Date        string
	Description string
	Amount      string
	Currency    string
	Canonical   bool
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// readRows extracts raw rows from decoded batch content.
func readRows(ctx context.Context, batchType model.BatchType, content []byte, mapping Mapping) ([]rawRow, error) {
	switch batchType {
	case model.BatchTypeCSV:
		return readCSV(content, mapping.withDefaults())
	case model.BatchTypeOFX:
		return readOFX(ctx, content)
	default:
		return nil, fmt.Errorf("%w: %s", common.ErrUnsupportedFormat, batchType)
	}
}

func readCSV(content []byte, mapping Mapping) ([]rawRow, error) {
	content = bytes.TrimPrefix(content, utf8BOM)

	records, err := gocsv.CSVToMaps(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrUnreadableContent, err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	columns := make(map[string]string, len(records[0]))
	for header := range records[0] {
		columns[normalizeHeader(header)] = header
	}

	lookup := func(name string, required bool) (string, error) {
		header, ok := columns[normalizeHeader(name)]
		if !ok && required {
			return "", fmt.Errorf("%w: %q", ErrMissingColumn, name)
		}
		return header, nil
	}

	dateCol, err := lookup(mapping.Date, true)
	if err != nil {
		return nil, err
	}
	descCol, err := lookup(mapping.Description, true)
	if err != nil {
		return nil, err
	}
	amountCol, err := lookup(mapping.Amount, true)
	if err != nil {
		return nil, err
	}
	currencyCol, _ := lookup(mapping.Currency, false)

	rows := make([]rawRow, 0, len(records))
	for _, rec := range records {
		row := rawRow{
			Date:        strings.TrimSpace(rec[dateCol]),
			Description: strings.TrimSpace(rec[descCol]),
			Amount:      strings.TrimSpace(rec[amountCol]),
		}
		if currencyCol != "" {
			row.Currency = strings.TrimSpace(rec[currencyCol])
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func normalizeHeader(h string) string {
	return strings.ToLower(strings.TrimSpace(h))
}

func readOFX(ctx context.Context, content []byte) ([]rawRow, error) {
	entries, err := ofx.NewParser().Parse(ctx, bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrUnreadableContent, err)
	}

	rows := make([]rawRow, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, rawRow{
			Date:        e.Posted.Format("2006-01-02"),
			Description: e.Description,
			Amount:      e.Amount,
			Canonical:   true,
		})
	}
	return rows, nil
}
