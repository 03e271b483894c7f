package categorize

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Veraticus/shiftbook/internal/model"
	"github.com/Veraticus/shiftbook/internal/textmatch"
)

// ErrInvalidRule is returned when a rule file entry cannot be used.
var ErrInvalidRule = errors.New("invalid categorization rule")

// Rule maps keywords found in a description to a category.
// Keywords match anywhere in the normalized description.
type Rule struct {
	MinAmount    *int64   `yaml:"min_amount,omitempty"`
	MaxAmount    *int64   `yaml:"max_amount,omitempty"`
	Name         string   `yaml:"name"`
	CategoryCode string   `yaml:"category"`
	Keywords     []string `yaml:"keywords"`
	Confidence   float64  `yaml:"confidence"`
}

// Matches reports whether the rule applies to a normalized description and amount.
func (r Rule) Matches(normalized string, amountMinor int64) bool {
	if r.MinAmount != nil && amountMinor < *r.MinAmount {
		return false
	}
	if r.MaxAmount != nil && amountMinor > *r.MaxAmount {
		return false
	}
	for _, kw := range r.Keywords {
		if textmatch.Contains(normalized, textmatch.Normalize(kw)) {
			return true
		}
	}
	return false
}

func (r Rule) validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return fmt.Errorf("%w: missing name", ErrInvalidRule)
	}
	if len(r.Keywords) == 0 {
		return fmt.Errorf("%w: %s has no keywords", ErrInvalidRule, r.Name)
	}
	if r.CategoryCode == "" {
		return fmt.Errorf("%w: %s has no category", ErrInvalidRule, r.Name)
	}
	if r.Confidence <= 0 || r.Confidence > 1 {
		return fmt.Errorf("%w: %s confidence %.2f outside (0,1]", ErrInvalidRule, r.Name, r.Confidence)
	}
	if r.MinAmount != nil && r.MaxAmount != nil && *r.MinAmount > *r.MaxAmount {
		return fmt.Errorf("%w: %s min amount above max amount", ErrInvalidRule, r.Name)
	}
	return nil
}

// DefaultRules returns the built-in keyword table, checked in order.
func DefaultRules() []Rule {
	return []Rule{
		{
			Name:         "Utilities",
			Keywords:     []string{"electric", "water", "internet", "wifi", "evn hcm", "evnhcm", "điện", "tiền nước", "cấp nước", "nước sạch", "cáp quang"},
			CategoryCode: model.CategoryCodeUtilities,
			Confidence:   0.8,
		},
		{
			Name:         "Rent",
			Keywords:     []string{"rent", "lease", "thuê nhà", "tiền thuê", "mặt bằng"},
			CategoryCode: model.CategoryCodeRent,
			Confidence:   0.75,
		},
		{
			Name:         "Payroll",
			Keywords:     []string{"payroll", "salary", "wages", "lương"},
			CategoryCode: model.CategoryCodePayroll,
			Confidence:   0.75,
		},
		{
			Name:         "Ingredients",
			Keywords:     []string{"market", "chợ", "meat", "seafood", "vegetable", "produce", "rau", "thịt", "hải sản"},
			CategoryCode: model.CategoryCodeIngredients,
			Confidence:   0.7,
		},
		{
			Name:         "Beverages",
			Keywords:     []string{"beer", "bia", "wine", "coffee", "cà phê", "soda", "ice delivery", "ice block", "nước đá", "đá viên"},
			CategoryCode: model.CategoryCodeBeverages,
			Confidence:   0.65,
		},
		{
			Name:         "Cleaning & Supplies",
			Keywords:     []string{"cleaning", "detergent", "napkin", "packaging", "supplies", "gloves", "giấy", "túi"},
			CategoryCode: model.CategoryCodeSupplies,
			Confidence:   0.65,
		},
		{
			Name:         "Maintenance",
			Keywords:     []string{"repair", "maintenance", "plumber", "electrician", "sửa"},
			CategoryCode: model.CategoryCodeMaintenance,
			Confidence:   0.65,
		},
		{
			Name:         "Transport",
			Keywords:     []string{"fuel", "petrol", "gas station", "grab", "delivery fee", "xăng", "shipper", "phí ship"},
			CategoryCode: model.CategoryCodeTransport,
			Confidence:   0.6,
		},
		{
			Name:         "Fees",
			Keywords:     []string{"bank fee", "service charge", "commission", "phí"},
			CategoryCode: model.CategoryCodeFees,
			Confidence:   0.6,
		},
	}
}

// ruleFile is the YAML layout of a rule file.
type ruleFile struct {
	Rules []Rule `yaml:"rules"`
}

// ParseRules decodes and validates a YAML rule table.
func ParseRules(data []byte) ([]Rule, error) {
	var file ruleFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse rules: %w", err)
	}
	if len(file.Rules) == 0 {
		return nil, fmt.Errorf("%w: rule file has no rules", ErrInvalidRule)
	}
	for i := range file.Rules {
		file.Rules[i].CategoryCode = strings.ToUpper(strings.TrimSpace(file.Rules[i].CategoryCode))
		if err := file.Rules[i].validate(); err != nil {
			return nil, fmt.Errorf("rule %d: %w", i+1, err)
		}
	}
	return file.Rules, nil
}

// LoadRules reads a rule table from path. An empty path yields the defaults.
func LoadRules(path string) ([]Rule, error) {
	if path == "" {
		return DefaultRules(), nil
	}
	data, err := os.ReadFile(path) //nolint:gosec // Path comes from user configuration
	if err != nil {
		return nil, fmt.Errorf("failed to read rules file: %w", err)
	}
	return ParseRules(data)
}
