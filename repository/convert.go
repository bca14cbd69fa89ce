package repository

import (
	"encoding/json"
	"fmt"

	"github.com/camden-git/familytree/models"
)

func dateColumn(d *models.Date) *string {
	if d == nil {
		return nil
	}
	s := d.String()
	return &s
}

func parseDateColumn(s *string) (*models.Date, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	d, err := models.ParseDate(*s)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func toPersonRecord(p *models.Person, position int, now int64) (*models.PersonRecord, error) {
	stories, err := json.Marshal(p.Stories)
	if err != nil {
		return nil, fmt.Errorf("failed to encode stories of person %s: %w", p.ID, err)
	}
	extra, err := json.Marshal(p.Extra)
	if err != nil {
		return nil, fmt.Errorf("failed to encode extra fields of person %s: %w", p.ID, err)
	}
	return &models.PersonRecord{
		ID:           p.ID,
		Position:     position,
		GivenName:    p.GivenName,
		MiddleName:   p.MiddleName,
		FamilyName:   p.FamilyName,
		Gender:       string(p.Gender),
		BirthDate:    dateColumn(p.BirthDate),
		DeathDate:    dateColumn(p.DeathDate),
		BirthPlace:   p.BirthPlace,
		DeathPlace:   p.DeathPlace,
		PortraitPath: p.PortraitPath,
		Notes:        p.Notes,
		StoriesJSON:  string(stories),
		ExtraJSON:    string(extra),
		CreatedAt:    now,
		UpdatedAt:    now,
		Relations:    toRelations(p),
	}, nil
}

// toRelations flattens the three id lists, dropping repeats within a list
func toRelations(p *models.Person) []models.PersonRelation {
	var out []models.PersonRelation
	add := func(kind string, ids []string) {
		seen := make(map[string]struct{}, len(ids))
		for i, id := range ids {
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			out = append(out, models.PersonRelation{PersonID: p.ID, Kind: kind, OtherID: id, Position: i})
		}
	}
	add(models.RelationKindParent, p.Parents)
	add(models.RelationKindChild, p.Children)
	add(models.RelationKindPartner, p.Partners)
	return out
}

// fromPersonRecord rebuilds and validates a Person; relations must be ordered by position
func fromPersonRecord(rec *models.PersonRecord) (*models.Person, error) {
	birth, err := parseDateColumn(rec.BirthDate)
	if err != nil {
		return nil, fmt.Errorf("person %s birth_date: %w", rec.ID, err)
	}
	death, err := parseDateColumn(rec.DeathDate)
	if err != nil {
		return nil, fmt.Errorf("person %s death_date: %w", rec.ID, err)
	}

	p := models.Person{
		ID:           rec.ID,
		GivenName:    rec.GivenName,
		MiddleName:   rec.MiddleName,
		FamilyName:   rec.FamilyName,
		Gender:       models.Gender(rec.Gender),
		BirthDate:    birth,
		DeathDate:    death,
		BirthPlace:   rec.BirthPlace,
		DeathPlace:   rec.DeathPlace,
		PortraitPath: rec.PortraitPath,
		Notes:        rec.Notes,
	}
	if rec.StoriesJSON != "" {
		if err := json.Unmarshal([]byte(rec.StoriesJSON), &p.Stories); err != nil {
			return nil, fmt.Errorf("person %s stories: %w", rec.ID, err)
		}
	}
	if rec.ExtraJSON != "" {
		if err := json.Unmarshal([]byte(rec.ExtraJSON), &p.Extra); err != nil {
			return nil, fmt.Errorf("person %s extra: %w", rec.ID, err)
		}
	}
	for _, rel := range rec.Relations {
		switch rel.Kind {
		case models.RelationKindParent:
			p.Parents = append(p.Parents, rel.OtherID)
		case models.RelationKindChild:
			p.Children = append(p.Children, rel.OtherID)
		case models.RelationKindPartner:
			p.Partners = append(p.Partners, rel.OtherID)
		}
	}
	return models.NewPerson(p)
}

func toMarriageRecord(m *models.Marriage, position int, now int64) *models.MarriageRecord {
	return &models.MarriageRecord{
		ID:              m.ID,
		Position:        position,
		Partner1ID:      m.Partner1ID,
		Partner2ID:      m.Partner2ID,
		MarriageDate:    dateColumn(m.MarriageDate),
		DissolutionDate: dateColumn(m.DissolutionDate),
		Place:           m.Place,
		Type:            m.Type,
		Notes:           m.Notes,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

func fromMarriageRecord(rec *models.MarriageRecord) (*models.Marriage, error) {
	married, err := parseDateColumn(rec.MarriageDate)
	if err != nil {
		return nil, fmt.Errorf("marriage %s marriage_date: %w", rec.ID, err)
	}
	dissolved, err := parseDateColumn(rec.DissolutionDate)
	if err != nil {
		return nil, fmt.Errorf("marriage %s dissolution_date: %w", rec.ID, err)
	}
	return models.NewMarriage(models.Marriage{
		ID:              rec.ID,
		Partner1ID:      rec.Partner1ID,
		Partner2ID:      rec.Partner2ID,
		MarriageDate:    married,
		DissolutionDate: dissolved,
		Place:           rec.Place,
		Type:            rec.Type,
		Notes:           rec.Notes,
	})
}
