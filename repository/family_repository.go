package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/camden-git/familytree/database"
	"github.com/camden-git/familytree/models"
)

// FamilyRepository persists whole family stores: records through GORM and the store
// header through the squirrel-built family_meta table
type FamilyRepository struct {
	DB        *gorm.DB
	MetaDB    *sql.DB
	Persons   *PersonRepository
	Marriages *MarriageRepository
	Logger    *zap.Logger
}

func NewFamilyRepository(db *gorm.DB, metaDB *sql.DB, logger *zap.Logger) *FamilyRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FamilyRepository{
		DB:        db,
		MetaDB:    metaDB,
		Persons:   NewPersonRepository(db),
		Marriages: NewMarriageRepository(db),
		Logger:    logger,
	}
}

// Load assembles a validated store in persisted order. An empty database yields an
// empty store.
func (r *FamilyRepository) Load() (*models.FamilyData, error) {
	people, err := r.Persons.ListAll()
	if err != nil {
		return nil, err
	}
	marriages, err := r.Marriages.ListAll()
	if err != nil {
		return nil, err
	}

	data := models.NewFamilyData()
	for _, p := range people {
		data.AddPerson(p)
	}
	for _, m := range marriages {
		data.AddMarriage(m)
	}

	meta, err := database.GetFamilyMeta(r.MetaDB)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return nil, err
	default:
		data.Version = meta.Version
		data.Description = meta.Description
		data.CreatedAt = time.Unix(meta.CreatedAt, 0)
		data.ModifiedAt = time.Unix(meta.ModifiedAt, 0)
	}

	r.Logger.Info("family store loaded",
		zap.Int("persons", data.PersonCount()),
		zap.Int("marriages", data.MarriageCount()),
	)
	return data, nil
}

// Save replaces every stored record with the contents of data in one transaction,
// then writes the header
func (r *FamilyRepository) Save(data *models.FamilyData) error {
	now := time.Now().Unix()
	err := r.DB.Transaction(func(tx *gorm.DB) error {
		for _, model := range []any{&models.PersonRelation{}, &models.PersonRecord{}, &models.MarriageRecord{}} {
			if err := tx.Where("1 = 1").Delete(model).Error; err != nil {
				return fmt.Errorf("failed to clear %T: %w", model, err)
			}
		}
		for i, p := range data.Persons() {
			rec, err := toPersonRecord(p, i, now)
			if err != nil {
				return err
			}
			if err := tx.Create(rec).Error; err != nil {
				return fmt.Errorf("failed to save person %s: %w", p.ID, err)
			}
		}
		for i, m := range data.Marriages() {
			if err := tx.Create(toMarriageRecord(m, i, now)).Error; err != nil {
				return fmt.Errorf("failed to save marriage %s: %w", m.ID, err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save family store: %w", err)
	}

	if err := r.saveMeta(data); err != nil {
		return err
	}
	r.Logger.Info("family store saved",
		zap.Int("persons", data.PersonCount()),
		zap.Int("marriages", data.MarriageCount()),
	)
	return nil
}

func (r *FamilyRepository) saveMeta(data *models.FamilyData) error {
	return database.SetFamilyMeta(r.MetaDB, database.FamilyMeta{
		Version:     data.Version,
		Description: data.Description,
		CreatedAt:   data.CreatedAt.Unix(),
		ModifiedAt:  data.ModifiedAt.Unix(),
	})
}

// touchMeta bumps modified_at, creating the header on first use
func (r *FamilyRepository) touchMeta() {
	now := time.Now().Unix()
	meta, err := database.GetFamilyMeta(r.MetaDB)
	if errors.Is(err, sql.ErrNoRows) {
		meta = database.FamilyMeta{Version: models.DefaultDataVersion, CreatedAt: now}
	} else if err != nil {
		r.Logger.Warn("failed to read family metadata", zap.Error(err))
		return
	}
	meta.ModifiedAt = now
	if err := database.SetFamilyMeta(r.MetaDB, meta); err != nil {
		r.Logger.Warn("failed to update family metadata", zap.Error(err))
	}
}

// AddPerson stores a new person
func (r *FamilyRepository) AddPerson(person *models.Person) error {
	if err := r.Persons.Create(person); err != nil {
		return err
	}
	r.touchMeta()
	return nil
}

// AddChild stores child when new and rewrites both relation lists. The caller passes
// the records as they look after linking.
func (r *FamilyRepository) AddChild(parent, child *models.Person, childIsNew bool) error {
	err := r.DB.Transaction(func(tx *gorm.DB) error {
		persons := r.Persons.WithTx(tx)
		if childIsNew {
			if err := persons.Create(child); err != nil {
				return err
			}
		} else if err := persons.ReplaceRelations(child); err != nil {
			return err
		}
		return persons.ReplaceRelations(parent)
	})
	if err != nil {
		return fmt.Errorf("failed to store child %s of %s: %w", child.ID, parent.ID, err)
	}
	r.touchMeta()
	return nil
}

// RecordMarriage stores a marriage and the updated partner lists of its partners
func (r *FamilyRepository) RecordMarriage(marriage *models.Marriage, partners ...*models.Person) error {
	err := r.DB.Transaction(func(tx *gorm.DB) error {
		if err := r.Marriages.WithTx(tx).Create(marriage); err != nil {
			return err
		}
		persons := r.Persons.WithTx(tx)
		for _, p := range partners {
			if err := persons.ReplaceRelations(p); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to store marriage %s: %w", marriage.ID, err)
	}
	r.touchMeta()
	return nil
}

// SetPortrait stores a portrait path and, when extra is non-nil, the person's extra fields
func (r *FamilyRepository) SetPortrait(id, portraitPath string, extra map[string]any) error {
	err := r.DB.Transaction(func(tx *gorm.DB) error {
		persons := r.Persons.WithTx(tx)
		if err := persons.UpdatePortrait(id, portraitPath); err != nil {
			return err
		}
		if extra != nil {
			return persons.UpdateExtra(id, extra)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to store portrait of %s: %w", id, err)
	}
	r.touchMeta()
	return nil
}
