package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/camden-git/familytree/models"
)

func TestStatisticsEmptyTree(t *testing.T) {
	assert.Nil(t, NewFamilyTree(nil).Statistics())
}

func TestStatisticsCanonical(t *testing.T) {
	stats := canonicalTree(t).Statistics()
	require.NotNil(t, stats)

	assert.Equal(t, 6, stats.TotalPersons)
	assert.Equal(t, 6, stats.LivingPersons)
	assert.Equal(t, 0, stats.DeceasedPersons)
	assert.Equal(t, map[models.Gender]int{models.GenderMale: 2, models.GenderFemale: 4}, stats.GenderDistribution)

	// 104, 102, 74, 72, 73 and 44 years
	require.NotNil(t, stats.AverageAge)
	assert.InDelta(t, 78.2, *stats.AverageAge, 1e-9)

	assert.Equal(t, 1, stats.MaxGeneration)
	assert.Equal(t, map[int]int{0: 3, 1: 3}, stats.GenerationCounts)
	assert.Equal(t, 2, stats.TotalMarriages)
	assert.Equal(t, 2, stats.ActiveMarriages)

	require.NotNil(t, stats.OldestPerson)
	require.NotNil(t, stats.YoungestPerson)
	assert.Equal(t, "ole", stats.OldestPerson.ID)
	assert.Equal(t, "emma", stats.YoungestPerson.ID)
}

func TestStatisticsCountsAddUp(t *testing.T) {
	fd := canonicalFamily(t)
	dead := person(t, "gammel", "Gammel", "", models.GenderOther, models.DatePtr(1890, time.March, 3))
	dead.DeathDate = models.DatePtr(1970, time.March, 2)
	fd.AddPerson(dead)
	stats := NewFamilyTree(fd, WithClock(fixedClock)).Statistics()

	assert.Equal(t, stats.TotalPersons, stats.LivingPersons+stats.DeceasedPersons)
	assert.Equal(t, 1, stats.DeceasedPersons)

	genderTotal := 0
	for _, n := range stats.GenderDistribution {
		genderTotal += n
	}
	assert.Equal(t, stats.TotalPersons, genderTotal)
	assert.LessOrEqual(t, stats.ActiveMarriages, stats.TotalMarriages)
	// age at death (80) counts, not age today
	assert.Equal(t, "ole", stats.OldestPerson.ID)
}

func TestStatisticsWithoutKnownAges(t *testing.T) {
	fd := models.NewFamilyData()
	fd.AddPerson(person(t, "a", "A", "", models.GenderOther, nil))
	stats := NewFamilyTree(fd, WithClock(fixedClock)).Statistics()

	require.NotNil(t, stats)
	assert.Nil(t, stats.AverageAge)
	assert.Nil(t, stats.OldestPerson)
	assert.Nil(t, stats.YoungestPerson)
	assert.Equal(t, 1, stats.LivingPersons)
}

func TestStatisticsOnlyNewborns(t *testing.T) {
	fd := models.NewFamilyData()
	fd.AddPerson(person(t, "baby", "Baby", "", models.GenderFemale, models.DatePtr(2024, time.January, 1)))
	stats := NewFamilyTree(fd, WithClock(fixedClock)).Statistics()

	require.NotNil(t, stats)
	assert.Nil(t, stats.AverageAge)
	require.NotNil(t, stats.OldestPerson)
	assert.Equal(t, "baby", stats.OldestPerson.ID)
	assert.Equal(t, "baby", stats.YoungestPerson.ID)
}

func TestStatisticsDissolvedMarriage(t *testing.T) {
	fd := canonicalFamily(t)
	m, ok := fd.Marriage("m-ole-kari")
	require.True(t, ok)
	m.DissolutionDate = models.DatePtr(1990, time.January, 1)
	stats := NewFamilyTree(fd, WithClock(fixedClock)).Statistics()

	assert.Equal(t, 2, stats.TotalMarriages)
	assert.Equal(t, 1, stats.ActiveMarriages)
}
