package records

import (
	"strings"

	"finman/internal/core"
	"finman/internal/storage"
)

// DecodePeople reads a ListPeople table. Rows with a NULL id are skipped.
func DecodePeople(t *storage.Table) []core.Person {
	people := make([]core.Person, 0, t.Len())
	for i := 0; i < t.Len(); i++ {
		id, ok := t.Int(i, "person_id")
		if !ok {
			continue
		}
		total, _ := t.Float(i, "total")
		people = append(people, core.Person{
			ID:    id,
			Name:  t.String(i, "person_name"),
			Total: total,
		})
	}
	return people
}

// DecodeCategories reads a ListCategories table.
func DecodeCategories(t *storage.Table) []core.Category {
	categories := make([]core.Category, 0, t.Len())
	for i := 0; i < t.Len(); i++ {
		id, ok := t.Int(i, "category_id")
		if !ok {
			continue
		}
		categories = append(categories, core.Category{
			ID:   id,
			Name: t.String(i, "category_name"),
		})
	}
	return categories
}

// DecodeCategoryTotals reads a CategoryTotals table.
func DecodeCategoryTotals(t *storage.Table) []core.CategoryAmount {
	totals := make([]core.CategoryAmount, 0, t.Len())
	for i := 0; i < t.Len(); i++ {
		amount, _ := t.Float(i, "total")
		totals = append(totals, core.CategoryAmount{
			Name:   t.String(i, "category_name"),
			Amount: amount,
		})
	}
	return totals
}

// FindCategory returns the category with the given name. An exact match
// wins over one that differs only in case.
func FindCategory(categories []core.Category, name string) (core.Category, bool) {
	for _, c := range categories {
		if c.Name == name {
			return c, true
		}
	}
	for _, c := range categories {
		if strings.EqualFold(c.Name, name) {
			return c, true
		}
	}
	return core.Category{}, false
}
