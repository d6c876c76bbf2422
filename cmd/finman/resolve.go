package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"finman/internal/core"
	"finman/internal/records"
)

// resolvePerson accepts a person id or a name, matched case-insensitively
// against the people snapshot.
func resolvePerson(ctx context.Context, svc *records.Service, ref string) (int, error) {
	if id, err := strconv.Atoi(ref); err == nil {
		return id, nil
	}

	if svc.People().Len() == 0 {
		if _, err := svc.ListPeople(ctx); err != nil {
			return 0, err
		}
	}
	for _, p := range records.DecodePeople(svc.People()) {
		if strings.EqualFold(p.Name, ref) {
			return p.ID, nil
		}
	}
	return 0, fmt.Errorf("%w: %s", records.ErrPersonNotFound, ref)
}

// resolveCategory accepts a category id or a name and returns the matching
// entry of the categories snapshot.
func resolveCategory(ctx context.Context, svc *records.Service, ref string) (core.Category, error) {
	if svc.Categories().Len() == 0 {
		if _, err := svc.ListCategories(ctx); err != nil {
			return core.Category{}, err
		}
	}
	return lookupCategory(records.DecodeCategories(svc.Categories()), ref)
}

func lookupCategory(categories []core.Category, ref string) (core.Category, error) {
	if id, err := strconv.Atoi(ref); err == nil {
		for _, c := range categories {
			if c.ID == id {
				return c, nil
			}
		}
	} else if c, ok := records.FindCategory(categories, ref); ok {
		return c, nil
	}
	return core.Category{}, fmt.Errorf("%w: %s", records.ErrCategoryNotFound, ref)
}

// cleanName trims a name argument and checks what is left.
func cleanName(arg string) (string, error) {
	name := strings.TrimSpace(arg)
	if err := core.ValidateName(name); err != nil {
		return "", err
	}
	return name, nil
}

// bookableCategory rejects the category reserved for paired transfers, which
// only `transfers send` may use.
func bookableCategory(c core.Category) error {
	if c.Name == core.CategoryInterPerson {
		return fmt.Errorf("category %q is reserved for transfers between people; use `transfers send`", c.Name)
	}
	return nil
}

// parseDateFlag parses a date flag, defaulting to today when empty.
func parseDateFlag(name, value string) (core.Date, error) {
	if value == "" {
		return core.Today(), nil
	}
	d, err := core.ParseDate(value)
	if err != nil {
		return core.Date{}, fmt.Errorf("--%s: %w (use DD-MM-YYYY)", name, err)
	}
	return d, nil
}
