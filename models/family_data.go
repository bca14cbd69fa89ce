package models

import (
	"fmt"
	"time"
)

const DefaultDataVersion = "1.0"

// FamilyData is the record store: the canonical, ordered collections of people and
// marriages. It owns record identity; relationship lists are only changed through
// its Link methods.
type FamilyData struct {
	CreatedAt   time.Time `json:"created_at"`
	ModifiedAt  time.Time `json:"modified_at"`
	Version     string    `json:"version"`
	Description string    `json:"description,omitempty"`

	persons       []*Person
	marriages     []*Marriage
	personIndex   map[string]int
	marriageIndex map[string]int
}

// NewFamilyData returns an empty store stamped with the current time
func NewFamilyData() *FamilyData {
	now := time.Now()
	return &FamilyData{
		CreatedAt:     now,
		ModifiedAt:    now,
		Version:       DefaultDataVersion,
		personIndex:   make(map[string]int),
		marriageIndex: make(map[string]int),
	}
}

// AddPerson appends p unless a person with the same ID exists. It reports whether
// the record was added.
func (fd *FamilyData) AddPerson(p *Person) bool {
	if p == nil {
		return false
	}
	fd.ensureIndexes()
	if _, exists := fd.personIndex[p.ID]; exists {
		return false
	}
	fd.personIndex[p.ID] = len(fd.persons)
	fd.persons = append(fd.persons, p)
	fd.touch()
	return true
}

// AddMarriage appends m unless a marriage with the same ID exists
func (fd *FamilyData) AddMarriage(m *Marriage) bool {
	if m == nil {
		return false
	}
	fd.ensureIndexes()
	if _, exists := fd.marriageIndex[m.ID]; exists {
		return false
	}
	fd.marriageIndex[m.ID] = len(fd.marriages)
	fd.marriages = append(fd.marriages, m)
	fd.touch()
	return true
}

// Person returns the stored record. The pointer is owned by the store and must be
// treated as read-only.
func (fd *FamilyData) Person(id string) (*Person, bool) {
	i, ok := fd.personIndex[id]
	if !ok {
		return nil, false
	}
	return fd.persons[i], true
}

func (fd *FamilyData) Marriage(id string) (*Marriage, bool) {
	i, ok := fd.marriageIndex[id]
	if !ok {
		return nil, false
	}
	return fd.marriages[i], true
}

// Persons returns the people in insertion order. The slice is a copy; the records are not.
func (fd *FamilyData) Persons() []*Person {
	out := make([]*Person, len(fd.persons))
	copy(out, fd.persons)
	return out
}

func (fd *FamilyData) Marriages() []*Marriage {
	out := make([]*Marriage, len(fd.marriages))
	copy(out, fd.marriages)
	return out
}

func (fd *FamilyData) PersonCount() int { return len(fd.persons) }

func (fd *FamilyData) MarriageCount() int { return len(fd.marriages) }

// LinkParentChild records the relation on both people
func (fd *FamilyData) LinkParentChild(parentID, childID string) error {
	parent, ok := fd.Person(parentID)
	if !ok {
		return fmt.Errorf("parent %s: %w", parentID, ErrPersonNotFound)
	}
	child, ok := fd.Person(childID)
	if !ok {
		return fmt.Errorf("child %s: %w", childID, ErrPersonNotFound)
	}
	parent.Children = appendUnique(parent.Children, childID)
	child.Parents = appendUnique(child.Parents, parentID)
	fd.touch()
	return nil
}

// LinkPartners records a partnership on both people
func (fd *FamilyData) LinkPartners(aID, bID string) error {
	a, ok := fd.Person(aID)
	if !ok {
		return fmt.Errorf("partner %s: %w", aID, ErrPersonNotFound)
	}
	b, ok := fd.Person(bID)
	if !ok {
		return fmt.Errorf("partner %s: %w", bID, ErrPersonNotFound)
	}
	a.Partners = appendUnique(a.Partners, bID)
	b.Partners = appendUnique(b.Partners, aID)
	fd.touch()
	return nil
}

func (fd *FamilyData) SetPortrait(personID, path string) error {
	p, ok := fd.Person(personID)
	if !ok {
		return fmt.Errorf("person %s: %w", personID, ErrPersonNotFound)
	}
	p.PortraitPath = path
	fd.touch()
	return nil
}

// SetExtra stores a free-form field on a person
func (fd *FamilyData) SetExtra(personID, key string, value any) error {
	p, ok := fd.Person(personID)
	if !ok {
		return fmt.Errorf("person %s: %w", personID, ErrPersonNotFound)
	}
	if p.Extra == nil {
		p.Extra = make(map[string]any)
	}
	p.Extra[key] = value
	fd.touch()
	return nil
}

// Clone deep-copies the store including every record
func (fd *FamilyData) Clone() *FamilyData {
	c := &FamilyData{
		CreatedAt:     fd.CreatedAt,
		ModifiedAt:    fd.ModifiedAt,
		Version:       fd.Version,
		Description:   fd.Description,
		persons:       make([]*Person, 0, len(fd.persons)),
		marriages:     make([]*Marriage, 0, len(fd.marriages)),
		personIndex:   make(map[string]int, len(fd.persons)),
		marriageIndex: make(map[string]int, len(fd.marriages)),
	}
	for _, p := range fd.persons {
		c.personIndex[p.ID] = len(c.persons)
		c.persons = append(c.persons, p.Clone())
	}
	for _, m := range fd.marriages {
		c.marriageIndex[m.ID] = len(c.marriages)
		c.marriages = append(c.marriages, m.Clone())
	}
	return c
}

// ensureIndexes makes a zero FamilyData usable
func (fd *FamilyData) ensureIndexes() {
	if fd.personIndex == nil {
		fd.personIndex = make(map[string]int)
	}
	if fd.marriageIndex == nil {
		fd.marriageIndex = make(map[string]int)
	}
}

func (fd *FamilyData) touch() {
	fd.ModifiedAt = time.Now()
}
