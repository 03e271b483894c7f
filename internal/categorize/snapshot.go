package categorize

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/Veraticus/shiftbook/internal/model"
	"github.com/Veraticus/shiftbook/internal/service"
	"github.com/Veraticus/shiftbook/internal/textmatch"
)

// aliasEntry is a normalized alias ready for matching. Vendor names are
// indexed as aliases of themselves.
type aliasEntry struct {
	text     string
	vendorID int64
	words    int
}

// Snapshot is an immutable view of vendors, aliases and categories.
// Build it once and share it; nothing mutates it after construction.
type Snapshot struct {
	loadedAt   time.Time
	vendors    map[int64]model.Vendor
	categories map[int64]model.Category
	byCode     map[string]model.Category
	aliases    []aliasEntry
}

// NewSnapshot indexes the given catalog.
func NewSnapshot(vendors []model.Vendor, aliases []model.VendorAlias, categories []model.Category) *Snapshot {
	s := &Snapshot{
		loadedAt:   time.Now(),
		vendors:    make(map[int64]model.Vendor, len(vendors)),
		categories: make(map[int64]model.Category, len(categories)),
		byCode:     make(map[string]model.Category, len(categories)),
	}

	for _, c := range categories {
		s.categories[c.ID] = c
		s.byCode[c.Code] = c
	}

	seen := make(map[aliasEntry]bool)
	add := func(vendorID int64, raw string) {
		text := textmatch.Normalize(raw)
		if text == "" {
			return
		}
		entry := aliasEntry{text: text, vendorID: vendorID, words: len(textmatch.Tokens(text))}
		if seen[entry] {
			return
		}
		seen[entry] = true
		s.aliases = append(s.aliases, entry)
	}

	for _, v := range vendors {
		s.vendors[v.ID] = v
		add(v.ID, v.Name)
	}
	for _, a := range aliases {
		if _, ok := s.vendors[a.VendorID]; !ok {
			continue
		}
		add(a.VendorID, a.Alias)
	}

	// Longest alias first so containment picks the most specific one.
	sort.SliceStable(s.aliases, func(i, j int) bool {
		li, lj := len([]rune(s.aliases[i].text)), len([]rune(s.aliases[j].text))
		if li != lj {
			return li > lj
		}
		return s.aliases[i].vendorID < s.aliases[j].vendorID
	})

	return s
}

// LoadSnapshot reads the catalog from the store.
func LoadSnapshot(ctx context.Context, store service.CatalogStore) (*Snapshot, error) {
	vendors, err := store.ListVendors(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load vendors: %w", err)
	}
	aliases, err := store.ListVendorAliases(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load vendor aliases: %w", err)
	}
	categories, err := store.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load categories: %w", err)
	}
	return NewSnapshot(vendors, aliases, categories), nil
}

// LoadedAt is when the snapshot was built.
func (s *Snapshot) LoadedAt() time.Time {
	return s.loadedAt
}

// Vendor looks up a vendor by id.
func (s *Snapshot) Vendor(id int64) (model.Vendor, bool) {
	v, ok := s.vendors[id]
	return v, ok
}

// Category looks up a category by id.
func (s *Snapshot) Category(id int64) (model.Category, bool) {
	c, ok := s.categories[id]
	return c, ok
}

// CategoryByCode looks up a category by its code.
func (s *Snapshot) CategoryByCode(code string) (model.Category, bool) {
	c, ok := s.byCode[code]
	return c, ok
}

// VendorCount is the number of vendors in the snapshot.
func (s *Snapshot) VendorCount() int {
	return len(s.vendors)
}

// AliasCount is the number of indexed aliases, vendor names included.
func (s *Snapshot) AliasCount() int {
	return len(s.aliases)
}

// Aliases returns the normalized aliases of one vendor, its name included.
func (s *Snapshot) Aliases(vendorID int64) []string {
	var out []string
	for _, a := range s.aliases {
		if a.vendorID == vendorID {
			out = append(out, a.text)
		}
	}
	return out
}
