package models

// MarriageRecord is the persisted form of a Marriage.
// It corresponds to the 'marriages' table.
type MarriageRecord struct {
	ID              string  `gorm:"primaryKey;size:64" json:"id"`
	Position        int     `gorm:"not null;index" json:"position"`
	Partner1ID      string  `gorm:"not null;size:64;index" json:"partner1_id"`
	Partner2ID      string  `gorm:"not null;size:64;index" json:"partner2_id"`
	MarriageDate    *string `gorm:"size:10" json:"marriage_date"`
	DissolutionDate *string `gorm:"size:10" json:"dissolution_date"`
	Place           string  `json:"place"`
	Type            string  `gorm:"not null;default:standard" json:"type"`
	Notes           string  `gorm:"type:text" json:"notes"`
	CreatedAt       int64   `gorm:"not null" json:"created_at"`
	UpdatedAt       int64   `gorm:"not null" json:"updated_at"`
}

// TableName explicitly sets the table name for GORM.
func (MarriageRecord) TableName() string {
	return "marriages"
}
