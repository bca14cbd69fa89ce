package database

import (
	"slices"
	"strings"

	"github.com/facette/natsort"

	"github.com/camden-git/familytree/models"
)

const (
	SortNameAsc   = "name_asc"
	SortNameNat   = "name_nat"
	SortBirthAsc  = "birth_asc"
	SortBirthDesc = "birth_desc"
)

const DefaultSortOrder = SortNameAsc

// IsValidSortOrder checks if a string is a valid sort order constant
func IsValidSortOrder(order string) bool {
	switch order {
	case SortNameAsc, SortNameNat, SortBirthAsc, SortBirthDesc:
		return true
	default:
		return false
	}
}

// SortPersons orders persons in place. The sort is stable, and people without a birth
// date go last for both birth orders.
func SortPersons(persons []*models.Person, order string) {
	switch order {
	case SortNameNat:
		slices.SortStableFunc(persons, func(a, b *models.Person) int {
			an, bn := sortName(a), sortName(b)
			switch {
			case an == bn:
				return 0
			case natsort.Compare(an, bn):
				return -1
			case natsort.Compare(bn, an):
				return 1
			default:
				return 0
			}
		})
	case SortBirthAsc, SortBirthDesc:
		desc := order == SortBirthDesc
		slices.SortStableFunc(persons, func(a, b *models.Person) int {
			switch {
			case a.BirthDate == nil && b.BirthDate == nil:
				return 0
			case a.BirthDate == nil:
				return 1
			case b.BirthDate == nil:
				return -1
			}
			c := a.BirthDate.Time().Compare(b.BirthDate.Time())
			if desc {
				return -c
			}
			return c
		})
	default:
		slices.SortStableFunc(persons, func(a, b *models.Person) int {
			return strings.Compare(sortName(a), sortName(b))
		})
	}
}

// sortName puts the family name first so relatives group together
func sortName(p *models.Person) string {
	return strings.ToLower(p.FamilyName + " " + p.GivenName + " " + p.MiddleName)
}
