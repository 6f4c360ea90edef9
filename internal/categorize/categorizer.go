// Package categorize assigns taxonomy categories to transactions from
// their description text and direction.
package categorize

import (
	"strings"

	"fintrack/internal/core"
)

// Categorizer scores transaction descriptions against a fixed taxonomy
// snapshot. It holds no mutable state and performs no I/O, so a single
// instance is safe for concurrent use.
type Categorizer struct {
	categories []core.Category
	incomeID   *int64
	otherID    *int64
}

// New builds a Categorizer over the given taxonomy. Category order matters:
// score ties keep the first-seen category.
func New(taxonomy []core.Category) *Categorizer {
	c := &Categorizer{categories: make([]core.Category, len(taxonomy))}
	copy(c.categories, taxonomy)
	for i := range c.categories {
		switch c.categories[i].Name {
		case core.IncomeCategory:
			id := c.categories[i].ID
			c.incomeID = &id
		case core.OtherCategory:
			id := c.categories[i].ID
			c.otherID = &id
		}
	}
	return c
}

// Categorize picks a category for a transaction from its description and
// raw signed amount. Credits (signedCents > 0) go straight to the Income
// category when one exists. Otherwise every non-Income category is scored
// by summing the lengths of its keywords found as substrings of the
// lowercased description, so one long specific match outweighs several
// short generic ones. A zero best score falls back to Other. The return
// value is nil only when neither a match nor the fallback buckets exist;
// that is a valid uncategorized transaction, not an error.
func (c *Categorizer) Categorize(description string, signedCents int64) *int64 {
	if signedCents > 0 && c.incomeID != nil {
		id := *c.incomeID
		return &id
	}

	description = strings.ToLower(description)

	var best *int64
	maxScore := 0
	for i := range c.categories {
		cat := c.categories[i]
		if cat.Name == core.IncomeCategory {
			continue
		}
		score := 0
		for _, kw := range cat.KeywordList() {
			if strings.Contains(description, kw) {
				score += len(kw)
			}
		}
		if score > maxScore {
			maxScore = score
			id := cat.ID
			best = &id
		}
	}

	if best != nil {
		return best
	}
	if c.otherID != nil {
		id := *c.otherID
		return &id
	}
	return nil
}

// Taxonomy returns the categories the categorizer was built with, in their
// original order.
func (c *Categorizer) Taxonomy() []core.Category {
	out := make([]core.Category, len(c.categories))
	copy(out, c.categories)
	return out
}
