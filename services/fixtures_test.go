package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/camden-git/familytree/models"
)

var fixedNow = time.Date(2024, time.January, 1, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

func person(t *testing.T, id, given, family string, gender models.Gender, birth *models.Date) *models.Person {
	t.Helper()
	p, err := models.NewPerson(models.Person{
		ID:         id,
		GivenName:  given,
		FamilyName: family,
		Gender:     gender,
		BirthDate:  birth,
	})
	require.NoError(t, err)
	return p
}

func marriage(t *testing.T, id, a, b string) *models.Marriage {
	t.Helper()
	m, err := models.NewMarriage(models.Marriage{ID: id, Partner1ID: a, Partner2ID: b})
	require.NoError(t, err)
	return m
}

// canonicalFamily is three generations, six living people and two marriages:
//
//	ole + kari
//	  |-- per + lise
//	  |     `-- emma
//	  `-- anne
func canonicalFamily(t *testing.T) *models.FamilyData {
	t.Helper()
	fd := models.NewFamilyData()

	ole := person(t, "ole", "Ole", "Nordmann", models.GenderMale, models.DatePtr(1920, time.January, 1))
	kari := person(t, "kari", "Kari", "Nordmann", models.GenderFemale, models.DatePtr(1922, time.January, 1))
	per := person(t, "per", "Per", "Nordmann", models.GenderMale, models.DatePtr(1950, time.January, 1))
	anne := person(t, "anne", "Anne", "Nordmann", models.GenderFemale, models.DatePtr(1952, time.January, 1))
	lise := person(t, "lise", "Lise", "Hansen", models.GenderFemale, models.DatePtr(1951, time.January, 1))
	emma := person(t, "emma", "Emma", "Nordmann", models.GenderFemale, models.DatePtr(1980, time.January, 1))

	ole.Children = []string{"per", "anne"}
	kari.Children = []string{"per", "anne"}
	per.Parents = []string{"ole", "kari"}
	anne.Parents = []string{"ole", "kari"}
	per.Children = []string{"emma"}
	lise.Children = []string{"emma"}
	emma.Parents = []string{"per", "lise"}
	ole.Partners = []string{"kari"}
	kari.Partners = []string{"ole"}
	per.Partners = []string{"lise"}
	lise.Partners = []string{"per"}

	for _, p := range []*models.Person{ole, kari, per, anne, lise, emma} {
		fd.AddPerson(p)
	}
	fd.AddMarriage(marriage(t, "m-ole-kari", "ole", "kari"))
	fd.AddMarriage(marriage(t, "m-per-lise", "per", "lise"))
	return fd
}

func canonicalTree(t *testing.T, opts ...Option) *FamilyTree {
	t.Helper()
	opts = append([]Option{WithClock(fixedClock)}, opts...)
	return NewFamilyTree(canonicalFamily(t), opts...)
}

func ids(persons []*models.Person) []string {
	out := make([]string, 0, len(persons))
	for _, p := range persons {
		out = append(out, p.ID)
	}
	return out
}
