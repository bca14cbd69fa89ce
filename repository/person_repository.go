package repository

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/camden-git/familytree/models"
)

// PersonRepository handles database operations for people and their relation lists
type PersonRepository struct {
	DB *gorm.DB
}

// NewPersonRepository creates a new instance of PersonRepository
func NewPersonRepository(db *gorm.DB) *PersonRepository {
	return &PersonRepository{DB: db}
}

// WithTx returns a repository bound to tx
func (r *PersonRepository) WithTx(tx *gorm.DB) *PersonRepository {
	return &PersonRepository{DB: tx}
}

func orderedRelations(db *gorm.DB) *gorm.DB {
	return db.Order("kind ASC, position ASC")
}

// nextPosition is one past the highest stored position of model's table
func nextPosition(db *gorm.DB, model any) (int, error) {
	var next int
	err := db.Model(model).Select("COALESCE(MAX(position), -1) + 1").Scan(&next).Error
	if err != nil {
		return 0, fmt.Errorf("failed to compute next position: %w", err)
	}
	return next, nil
}

// Create appends a person and its relation rows after every stored person
func (r *PersonRepository) Create(person *models.Person) error {
	position, err := nextPosition(r.DB, &models.PersonRecord{})
	if err != nil {
		return err
	}
	rec, err := toPersonRecord(person, position, time.Now().Unix())
	if err != nil {
		return err
	}

	if err := r.DB.Create(rec).Error; err != nil {
		return fmt.Errorf("failed to create person %s: %w", person.ID, err)
	}
	return nil
}

// GetByID retrieves a person by ID with its relations. A missing person is reported
// as gorm.ErrRecordNotFound.
func (r *PersonRepository) GetByID(id string) (*models.Person, error) {
	var rec models.PersonRecord
	err := r.DB.Preload("Relations", orderedRelations).First(&rec, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get person by ID %s: %w", id, err)
	}
	return fromPersonRecord(&rec)
}

// ListAll retrieves all people in store order
func (r *PersonRepository) ListAll() ([]*models.Person, error) {
	var recs []models.PersonRecord
	err := r.DB.Preload("Relations", orderedRelations).Order("position ASC").Find(&recs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list people: %w", err)
	}

	people := make([]*models.Person, 0, len(recs))
	for i := range recs {
		p, err := fromPersonRecord(&recs[i])
		if err != nil {
			return nil, fmt.Errorf("stored person %s is invalid: %w", recs[i].ID, err)
		}
		people = append(people, p)
	}
	return people, nil
}

// ReplaceRelations rewrites the parents, children and partners rows of person
func (r *PersonRepository) ReplaceRelations(person *models.Person) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.PersonRecord{}).Where("id = ?", person.ID).Update("updated_at", time.Now().Unix())
		if result.Error != nil {
			return fmt.Errorf("failed to touch person %s: %w", person.ID, result.Error)
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}

		if err := tx.Where("person_id = ?", person.ID).Delete(&models.PersonRelation{}).Error; err != nil {
			return fmt.Errorf("failed to clear relations of person %s: %w", person.ID, err)
		}
		relations := toRelations(person)
		if len(relations) == 0 {
			return nil
		}
		if err := tx.Create(&relations).Error; err != nil {
			return fmt.Errorf("failed to store relations of person %s: %w", person.ID, err)
		}
		return nil
	})
}

// UpdatePortrait stores the portrait image path of a person
func (r *PersonRepository) UpdatePortrait(id, portraitPath string) error {
	return r.updateColumns(id, map[string]interface{}{"portrait_path": portraitPath})
}

// UpdateExtra replaces the free-form fields of a person
func (r *PersonRepository) UpdateExtra(id string, extra map[string]any) error {
	encoded, err := json.Marshal(extra)
	if err != nil {
		return fmt.Errorf("failed to encode extra fields of person %s: %w", id, err)
	}
	return r.updateColumns(id, map[string]interface{}{"extra_json": string(encoded)})
}

func (r *PersonRepository) updateColumns(id string, columns map[string]interface{}) error {
	columns["updated_at"] = time.Now().Unix()
	result := r.DB.Model(&models.PersonRecord{}).Where("id = ?", id).Updates(columns)
	if result.Error != nil {
		return fmt.Errorf("failed to update person %s: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
