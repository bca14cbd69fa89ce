package models

// PersonRecord is the persisted form of a Person using GORM.
// It corresponds to the 'people' table.
type PersonRecord struct {
	ID         string  `gorm:"primaryKey;size:64" json:"id"`
	Position   int     `gorm:"not null;index" json:"position"` // insertion order within the store
	GivenName  string  `gorm:"not null" json:"given_name"`
	MiddleName string  `json:"middle_name"`
	FamilyName string  `gorm:"index" json:"family_name"`
	Gender     string  `gorm:"not null;size:16" json:"gender"`
	BirthDate  *string `gorm:"size:10" json:"birth_date"` // YYYY-MM-DD
	DeathDate  *string `gorm:"size:10" json:"death_date"`
	BirthPlace string  `json:"birth_place"`
	DeathPlace string  `json:"death_place"`

	PortraitPath string `json:"portrait_path"`
	Notes        string `gorm:"type:text" json:"notes"`
	StoriesJSON  string `gorm:"type:text" json:"-"` // JSON array
	ExtraJSON    string `gorm:"type:text" json:"-"` // JSON object

	CreatedAt int64 `gorm:"not null" json:"created_at"` // Unix timestamp
	UpdatedAt int64 `gorm:"not null" json:"updated_at"`

	// Relationships
	Relations []PersonRelation `gorm:"foreignKey:PersonID;constraint:OnDelete:CASCADE" json:"relations,omitempty"`
}

// TableName explicitly sets the table name for GORM.
func (PersonRecord) TableName() string {
	return "people"
}
