package category

import "strings"

// Category is a closed set of expense category labels.
type Category string

const (
	Food           Category = "Food"
	Transportation Category = "Transportation"
	Utilities      Category = "Utilities"
	Entertainment  Category = "Entertainment"
	Shopping       Category = "Shopping"
	Health         Category = "Health"
	Travel         Category = "Travel"
	Education      Category = "Education"
	Miscellaneous  Category = "Miscellaneous"

	// Uncategorized is the summary bucket for expenses stored without a
	// category. It is never assigned by the categorizer.
	Uncategorized Category = "Uncategorized"
)

// Rule maps a category to the keywords that select it.
type Rule struct {
	Category Category
	Keywords []string
}

// DefaultRules is the standard keyword table. Order matters: the first rule
// with a matching keyword wins.
func DefaultRules() []Rule {
	return []Rule{
		{Food, []string{"restaurant", "cafe", "groceries", "food", "dinner", "lunch", "breakfast"}},
		{Transportation, []string{"uber", "lyft", "taxi", "gas", "fuel", "public transport", "metro"}},
		{Utilities, []string{"electricity", "water", "internet", "phone", "utility", "bill"}},
		{Entertainment, []string{"movie", "netflix", "spotify", "concert", "game", "hobby"}},
		{Shopping, []string{"amazon", "clothes", "shoes", "electronics", "store", "mall"}},
		{Health, []string{"gym", "pharmacy", "doctor", "hospital", "fitness", "yoga"}},
		{Travel, []string{"flight", "hotel", "airbnb", "vacation", "trip", "luggage"}},
		{Education, []string{"course", "book", "tuition", "school", "workshop", "seminar"}},
		{Miscellaneous, []string{"other", "uncategorized", "misc"}},
	}
}

// Categorizer maps expense descriptions to category labels using an immutable
// rule table injected at construction.
type Categorizer struct {
	rules []Rule
	known map[Category]bool
}

// NewCategorizer creates a categorizer over the given rule table.
func NewCategorizer(rules []Rule) *Categorizer {
	known := make(map[Category]bool, len(rules)+1)
	for _, r := range rules {
		known[r.Category] = true
	}
	known[Uncategorized] = true
	return &Categorizer{rules: rules, known: known}
}

// NewDefaultCategorizer creates a categorizer with the standard keyword table.
func NewDefaultCategorizer() *Categorizer {
	return NewCategorizer(DefaultRules())
}

// Categorize returns the category whose keywords first match the description,
// case-insensitively, or Miscellaneous when nothing matches.
func (c *Categorizer) Categorize(description string) Category {
	lower := strings.ToLower(description)
	for _, rule := range c.rules {
		for _, keyword := range rule.Keywords {
			if strings.Contains(lower, keyword) {
				return rule.Category
			}
		}
	}
	return Miscellaneous
}

// IsValid reports whether label names a known category.
func (c *Categorizer) IsValid(label string) bool {
	return c.known[Category(label)]
}
