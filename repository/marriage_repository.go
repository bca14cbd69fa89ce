package repository

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/camden-git/familytree/models"
)

// MarriageRepository handles database operations for marriages
type MarriageRepository struct {
	DB *gorm.DB
}

func NewMarriageRepository(db *gorm.DB) *MarriageRepository {
	return &MarriageRepository{DB: db}
}

// WithTx returns a repository bound to tx
func (r *MarriageRepository) WithTx(tx *gorm.DB) *MarriageRepository {
	return &MarriageRepository{DB: tx}
}

// Create appends a marriage after every stored marriage
func (r *MarriageRepository) Create(marriage *models.Marriage) error {
	position, err := nextPosition(r.DB, &models.MarriageRecord{})
	if err != nil {
		return err
	}
	rec := toMarriageRecord(marriage, position, time.Now().Unix())
	if err := r.DB.Create(rec).Error; err != nil {
		return fmt.Errorf("failed to create marriage %s: %w", marriage.ID, err)
	}
	return nil
}

// GetByID retrieves a marriage; gorm.ErrRecordNotFound when missing
func (r *MarriageRepository) GetByID(id string) (*models.Marriage, error) {
	var rec models.MarriageRecord
	if err := r.DB.First(&rec, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get marriage by ID %s: %w", id, err)
	}
	return fromMarriageRecord(&rec)
}

// ListAll retrieves all marriages in store order
func (r *MarriageRepository) ListAll() ([]*models.Marriage, error) {
	var recs []models.MarriageRecord
	if err := r.DB.Order("position ASC").Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("failed to list marriages: %w", err)
	}

	marriages := make([]*models.Marriage, 0, len(recs))
	for i := range recs {
		m, err := fromMarriageRecord(&recs[i])
		if err != nil {
			return nil, fmt.Errorf("stored marriage %s is invalid: %w", recs[i].ID, err)
		}
		marriages = append(marriages, m)
	}
	return marriages, nil
}
