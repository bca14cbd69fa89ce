package services

import (
	"math"

	"github.com/camden-git/familytree/models"
)

// Statistics summarises a non-empty tree
type Statistics struct {
	TotalPersons       int                   `json:"total_persons"`
	LivingPersons      int                   `json:"living_persons"`
	DeceasedPersons    int                   `json:"deceased_persons"`
	GenderDistribution map[models.Gender]int `json:"gender_distribution"`
	AverageAge         *float64              `json:"average_age"`
	MaxGeneration      int                   `json:"max_generation"`
	GenerationCounts   map[int]int           `json:"generation_counts"`
	TotalMarriages     int                   `json:"total_marriages"`
	ActiveMarriages    int                   `json:"active_marriages"`
	OldestPerson       *models.Person        `json:"oldest_person,omitempty"`
	YoungestPerson     *models.Person        `json:"youngest_person,omitempty"`
}

// Statistics returns nil for a tree without people. Ages use the whole-days / 365
// formula of models.Person.Age against the tree's clock.
func (t *FamilyTree) Statistics() *Statistics {
	t.mu.RLock()
	defer t.mu.RUnlock()

	persons := t.data.Persons()
	if len(persons) == 0 {
		return nil
	}

	today := t.today()
	depths := t.Graph().generationDepths()
	stats := &Statistics{
		TotalPersons:       len(persons),
		GenderDistribution: make(map[models.Gender]int),
		GenerationCounts:   make(map[int]int),
	}

	var ageSum, ageCount int
	var oldest, youngest *models.Person
	var oldestAge, youngestAge int

	for _, p := range persons {
		if p.IsLiving() {
			stats.LivingPersons++
		}
		stats.GenderDistribution[p.Gender]++

		depth := depths[p.ID]
		stats.GenerationCounts[depth]++
		stats.MaxGeneration = max(stats.MaxGeneration, depth)

		age, ok := p.Age(today)
		if !ok {
			continue
		}
		ageSum += age
		ageCount++
		if oldest == nil || age > oldestAge {
			oldest, oldestAge = p, age
		}
		if youngest == nil || age < youngestAge {
			youngest, youngestAge = p, age
		}
	}
	stats.DeceasedPersons = stats.TotalPersons - stats.LivingPersons

	if ageCount > 0 {
		// a mean of exactly zero (only newborns) is reported as unknown
		if ageSum != 0 {
			avg := math.Round(float64(ageSum)/float64(ageCount)*10) / 10
			stats.AverageAge = &avg
		}
		stats.OldestPerson = oldest.Clone()
		stats.YoungestPerson = youngest.Clone()
	}

	for _, m := range t.data.Marriages() {
		stats.TotalMarriages++
		if m.IsActive() {
			stats.ActiveMarriages++
		}
	}
	return stats
}
