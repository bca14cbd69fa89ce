package models

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/google/uuid"
)

// Person is one individual in the family tree. Relationships are held as identifier
// lists; the store resolves them.
type Person struct {
	ID         string `json:"id" yaml:"id"`
	GivenName  string `json:"given_name" yaml:"given_name" validate:"required"`
	MiddleName string `json:"middle_name,omitempty" yaml:"middle_name,omitempty"`
	FamilyName string `json:"family_name,omitempty" yaml:"family_name,omitempty"`
	Gender     Gender `json:"gender" yaml:"gender" validate:"required,oneof=male female other"`

	BirthDate  *Date  `json:"birth_date,omitempty" yaml:"birth_date,omitempty"`
	DeathDate  *Date  `json:"death_date,omitempty" yaml:"death_date,omitempty"`
	BirthPlace string `json:"birth_place,omitempty" yaml:"birth_place,omitempty"`
	DeathPlace string `json:"death_place,omitempty" yaml:"death_place,omitempty"`

	PortraitPath string   `json:"portrait_path,omitempty" yaml:"portrait_path,omitempty"`
	Notes        string   `json:"notes,omitempty" yaml:"notes,omitempty"`
	Stories      []string `json:"stories,omitempty" yaml:"stories,omitempty"`

	Parents  []string `json:"parents" yaml:"parents"`
	Children []string `json:"children" yaml:"children"`
	Partners []string `json:"partners" yaml:"partners"`

	Extra map[string]any `json:"extra,omitempty" yaml:"extra,omitempty"`
}

// NewPerson validates p and returns a copy ready for the store. An empty ID is
// replaced with a random UUID.
func NewPerson(p Person) (*Person, error) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if err := validateStruct(p); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidPerson, err)
	}
	if p.BirthDate != nil && p.DeathDate != nil && !p.DeathDate.After(*p.BirthDate) {
		return nil, fmt.Errorf("%w: death_date %s must be after birth_date %s", ErrInvalidPerson, p.DeathDate, p.BirthDate)
	}
	return p.Clone(), nil
}

// FullName joins the given, middle and family names
func (p *Person) FullName() string {
	parts := []string{p.GivenName}
	if p.MiddleName != "" {
		parts = append(parts, p.MiddleName)
	}
	if p.FamilyName != "" {
		parts = append(parts, p.FamilyName)
	}
	return strings.Join(parts, " ")
}

// Age is the number of 365-day periods between birth and death, or today for the living.
// ok is false when the birth date is unknown.
func (p *Person) Age(today Date) (age int, ok bool) {
	if p.BirthDate == nil {
		return 0, false
	}
	end := today
	if p.DeathDate != nil {
		end = *p.DeathDate
	}
	return yearsBetween(*p.BirthDate, end), true
}

func (p *Person) IsLiving() bool {
	return p.DeathDate == nil
}

// Clone returns a deep copy so callers never share slices with the store
func (p *Person) Clone() *Person {
	c := *p
	if p.BirthDate != nil {
		d := *p.BirthDate
		c.BirthDate = &d
	}
	if p.DeathDate != nil {
		d := *p.DeathDate
		c.DeathDate = &d
	}
	c.Stories = slices.Clone(p.Stories)
	c.Parents = cloneIDs(p.Parents)
	c.Children = cloneIDs(p.Children)
	c.Partners = cloneIDs(p.Partners)
	if p.Extra != nil {
		c.Extra = maps.Clone(p.Extra)
	}
	return &c
}

func cloneIDs(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return slices.Clone(ids)
}

// appendUnique adds id to list unless it is already present
func appendUnique(list []string, id string) []string {
	if slices.Contains(list, id) {
		return list
	}
	return append(list, id)
}
