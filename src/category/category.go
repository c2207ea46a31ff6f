// Package category owns the fixed spending taxonomy and the rule for which
// of a transaction's category fields is displayed.
package category

import "finance-app-server/src/models"

const Uncategorized = "Uncategorized"

// Taxonomy is the fixed label set used by the classifier and budgets.
var Taxonomy = []string{
	"Housing",
	"Transportation",
	"Food",
	"Utilities",
	"Insurance",
	"Healthcare",
	"Debt Payments",
	"Entertainment",
	"Shopping",
	"Personal Care",
	"Education",
	"Travel",
	"Gifts & Donations",
	"Income",
	"Other",
}

var taxonomySet = func() map[string]struct{} {
	m := make(map[string]struct{}, len(Taxonomy))
	for _, c := range Taxonomy {
		m[c] = struct{}{}
	}
	return m
}()

// InTaxonomy reports whether name is one of the fixed labels.
func InTaxonomy(name string) bool {
	_, ok := taxonomySet[name]
	return ok
}

// Effective returns the category to display for a transaction: the user's
// override first, then the classifier's assignment, then the upstream feed
// category. Always non-empty.
func Effective(t *models.Transaction) string {
	for _, c := range []*string{t.UserCategory, t.LLMCategory, t.Category} {
		if c != nil && *c != "" {
			return *c
		}
	}
	return Uncategorized
}
