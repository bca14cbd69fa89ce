package repository

import (
	"github.com/camden-git/familytree/models"
)

// PersonRepositoryInterface defines the methods for person data operations
type PersonRepositoryInterface interface {
	Create(person *models.Person) error
	GetByID(id string) (*models.Person, error)
	ListAll() ([]*models.Person, error)
	ReplaceRelations(person *models.Person) error
	UpdatePortrait(id, portraitPath string) error
	UpdateExtra(id string, extra map[string]any) error
}

// MarriageRepositoryInterface defines the methods for marriage data operations
type MarriageRepositoryInterface interface {
	Create(marriage *models.Marriage) error
	GetByID(id string) (*models.Marriage, error)
	ListAll() ([]*models.Marriage, error)
}

// FamilyRepositoryInterface loads and saves whole stores and groups the multi-record
// writes the HTTP layer performs
type FamilyRepositoryInterface interface {
	Load() (*models.FamilyData, error)
	Save(data *models.FamilyData) error
	AddPerson(person *models.Person) error
	AddChild(parent, child *models.Person, childIsNew bool) error
	RecordMarriage(marriage *models.Marriage, partners ...*models.Person) error
	SetPortrait(id, portraitPath string, extra map[string]any) error
}
