package records

import (
	"errors"
	"strconv"
	"strings"

	"finman/internal/core"
)

// ErrEmptyFilter is returned when a filtered query names no criterion.
var ErrEmptyFilter = errors.New("transfer filter has no criteria")

// TransferFilter narrows FindTransfers. Nil fields are ignored; the period
// only counts when both bounds are set. Bounds are inclusive.
type TransferFilter struct {
	PersonID   *int
	CategoryID *int
	From       *core.Date
	To         *core.Date
}

// ByPerson returns a copy of f restricted to one person.
func (f TransferFilter) ByPerson(id int) TransferFilter {
	f.PersonID = &id
	return f
}

// ByCategory returns a copy of f restricted to one category.
func (f TransferFilter) ByCategory(id int) TransferFilter {
	f.CategoryID = &id
	return f
}

// ByPeriod returns a copy of f restricted to [from, to].
func (f TransferFilter) ByPeriod(from, to core.Date) TransferFilter {
	f.From = &from
	f.To = &to
	return f
}

func (f TransferFilter) hasPeriod() bool {
	return f.From != nil && f.To != nil
}

// IsEmpty reports whether the filter has no usable criterion.
func (f TransferFilter) IsEmpty() bool {
	return f.PersonID == nil && f.CategoryID == nil && !f.hasPeriod()
}

// String names the criteria in use, without their values.
func (f TransferFilter) String() string {
	var parts []string
	if f.PersonID != nil {
		parts = append(parts, "person")
	}
	if f.CategoryID != nil {
		parts = append(parts, "category")
	}
	if f.hasPeriod() {
		parts = append(parts, "period")
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, "+")
}

const (
	transferColumns = `
		SELECT t.transfer_id, p.person_name, t.description, t.amount,
			TO_CHAR(t.done_at, 'DD-MM-YYYY') AS done_at
		FROM transfer t
		LEFT JOIN person p ON p.person_id = t.person_id`

	transferOrder = `
		ORDER BY t.transfer_id`

	listTransfersQuery = transferColumns + transferOrder
)

// buildTransferQuery conjoins one predicate per present criterion and binds
// only the matching parameters. Dates are bound as YYYY-MM-DD and cast in SQL
// so the comparison never goes through a session time zone.
func buildTransferQuery(f TransferFilter) (string, []any, error) {
	if f.IsEmpty() {
		return "", nil, ErrEmptyFilter
	}

	var (
		conds []string
		args  []any
	)
	bind := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}

	if f.PersonID != nil {
		conds = append(conds, "p.person_id = "+bind(*f.PersonID))
	}
	if f.CategoryID != nil {
		conds = append(conds, "c.category_id = "+bind(*f.CategoryID))
	}
	if f.hasPeriod() {
		conds = append(conds,
			"t.done_at >= "+bind(f.From.ISO())+"::date",
			"t.done_at <= "+bind(f.To.ISO())+"::date")
	}

	var b strings.Builder
	b.WriteString(transferColumns)
	b.WriteString(`
		LEFT JOIN category c ON c.category_id = t.category_id
		WHERE `)
	b.WriteString(strings.Join(conds, " AND "))
	b.WriteString(transferOrder)
	return b.String(), args, nil
}
