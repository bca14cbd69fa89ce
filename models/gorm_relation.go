package models

// Relation kinds stored in person_relations
const (
	RelationKindParent  = "parent"
	RelationKindChild   = "child"
	RelationKindPartner = "partner"
)

// PersonRelation is one entry of a person's parents, children or partners list.
// It corresponds to the 'person_relations' table.
type PersonRelation struct {
	ID       uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	PersonID string `gorm:"not null;size:64;uniqueIndex:idx_person_relation" json:"person_id"` // Foreign key to people table
	Kind     string `gorm:"not null;size:16;uniqueIndex:idx_person_relation" json:"kind"`
	OtherID  string `gorm:"not null;size:64;uniqueIndex:idx_person_relation" json:"other_id"` // not a foreign key: dangling references are kept
	Position int    `gorm:"not null" json:"position"`
}

// TableName explicitly sets the table name for GORM.
func (PersonRelation) TableName() string {
	return "person_relations"
}
