package models

import (
	"fmt"

	"github.com/google/uuid"
)

const DefaultMarriageType = "standard"

// Marriage links two partners, optionally with a date range
type Marriage struct {
	ID              string `json:"id" yaml:"id"`
	Partner1ID      string `json:"partner1_id" yaml:"partner1_id" validate:"required"`
	Partner2ID      string `json:"partner2_id" yaml:"partner2_id" validate:"required,nefield=Partner1ID"`
	MarriageDate    *Date  `json:"marriage_date,omitempty" yaml:"marriage_date,omitempty"`
	DissolutionDate *Date  `json:"dissolution_date,omitempty" yaml:"dissolution_date,omitempty"`
	Place           string `json:"place,omitempty" yaml:"place,omitempty"`
	Type            string `json:"type" yaml:"type"`
	Notes           string `json:"notes,omitempty" yaml:"notes,omitempty"`
}

// NewMarriage validates m, fills in defaults and returns a copy ready for the store
func NewMarriage(m Marriage) (*Marriage, error) {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.Type == "" {
		m.Type = DefaultMarriageType
	}
	if err := validateStruct(m); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidMarriage, err)
	}
	if m.MarriageDate != nil && m.DissolutionDate != nil && !m.DissolutionDate.After(*m.MarriageDate) {
		return nil, fmt.Errorf("%w: dissolution_date %s must be after marriage_date %s", ErrInvalidMarriage, m.DissolutionDate, m.MarriageDate)
	}
	return m.Clone(), nil
}

func (m *Marriage) IsActive() bool {
	return m.DissolutionDate == nil
}

// Duration is the length of the marriage in years, up to today when it is still active
func (m *Marriage) Duration(today Date) (years int, ok bool) {
	if m.MarriageDate == nil {
		return 0, false
	}
	end := today
	if m.DissolutionDate != nil {
		end = *m.DissolutionDate
	}
	return yearsBetween(*m.MarriageDate, end), true
}

// HasPartner reports whether id is one of the two partners
func (m *Marriage) HasPartner(id string) bool {
	return m.Partner1ID == id || m.Partner2ID == id
}

func (m *Marriage) Clone() *Marriage {
	c := *m
	if m.MarriageDate != nil {
		d := *m.MarriageDate
		c.MarriageDate = &d
	}
	if m.DissolutionDate != nil {
		d := *m.DissolutionDate
		c.DissolutionDate = &d
	}
	return &c
}
