package core

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"
)

// DisplayLayout is the DD-MM-YYYY layout used for every date shown to users.
const DisplayLayout = "02-01-2006"

const isoLayout = "2006-01-02"

const (
	MaxNameLength        = 50
	MaxDescriptionLength = 255
)

// Seeded categories. The first one is reserved for inter-person transfers.
const (
	CategoryInterPerson = "Inter-person transfer"
	CategoryOneOff      = "One-off transaction"
)

// IsSeededCategory reports whether name is one of the categories every
// schema starts with.
func IsSeededCategory(name string) bool {
	return name == CategoryInterPerson || name == CategoryOneOff
}

type (
	Date struct {
		time.Time
	}

	Person struct {
		ID    int
		Name  string
		Total float64
	}

	Category struct {
		ID   int
		Name string
	}

	Transfer struct {
		ID          int
		PersonID    int
		CategoryID  int
		Description string
		Amount      float64 // negative = outgoing, positive = incoming
		Date        Date
	}
)

var (
	ErrInvalidDate        = errors.New("invalid date")
	ErrInvalidRange       = errors.New("start date must not be after end date")
	ErrEmptyName          = errors.New("empty name")
	ErrNameTooLong        = errors.New("name too long (max 50 characters)")
	ErrEmptyDescription   = errors.New("empty description")
	ErrDescriptionTooLong = errors.New("description too long (max 255 characters)")
)

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// Today returns the current local date.
func Today() Date {
	return DateOf(time.Now())
}

// DateOf drops the clock part of t.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), int(t.Month()), t.Day())
}

// ParseDate accepts DD-MM-YYYY (the display format) and YYYY-MM-DD.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{DisplayLayout, isoLayout} {
		if t, err := time.Parse(layout, s); err == nil {
			return DateOf(t), nil
		}
	}
	return Date{}, ErrInvalidDate
}

// Format renders the date as DD-MM-YYYY.
func (d Date) Format() string {
	return d.Time.Format(DisplayLayout)
}

// ISO renders the date as YYYY-MM-DD for binding to date columns.
func (d Date) ISO() string {
	return d.Time.Format(isoLayout)
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// ValidateRange checks both bounds and their order; equal bounds are allowed.
func ValidateRange(from, to Date) error {
	if err := from.Validate(); err != nil {
		return err
	}
	if err := to.Validate(); err != nil {
		return err
	}
	if from.After(to.Time) {
		return ErrInvalidRange
	}
	return nil
}

// ValidateName checks a person or category name against the column limits.
func ValidateName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrEmptyName
	}
	if utf8.RuneCountInString(name) > MaxNameLength {
		return ErrNameTooLong
	}
	return nil
}

func ValidateDescription(desc string) error {
	if strings.TrimSpace(desc) == "" {
		return ErrEmptyDescription
	}
	if utf8.RuneCountInString(desc) > MaxDescriptionLength {
		return ErrDescriptionTooLong
	}
	return nil
}

func (t Transfer) Validate() error {
	if err := t.Date.Validate(); err != nil {
		return err
	}
	if err := ValidateDescription(t.Description); err != nil {
		return err
	}
	return ValidateAmount(t.Amount)
}
