package models

import "time"

type Pick struct {
	ID         uint64 `gorm:"primaryKey;autoIncrement"`
	SeasonYear int    `gorm:"not null;index"`
	Round      int    `gorm:"not null"`
	Number     int    `gorm:"not null"`

	// OriginalTeamID is permanent provenance; trades only ever move
	// CurrentTeamID.
	OriginalTeamID uint64 `gorm:"not null;index"`
	CurrentTeamID  uint64 `gorm:"not null;index"`

	// InSwap blocks the pick from new swaps and from being offered as a
	// trade asset until the swap is deleted.
	InSwap bool `gorm:"not null;default:false;index"`

	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime"`
	UpdatedAt time.Time `gorm:"type:timestamptz;autoUpdateTime"`
}

func (Pick) TableName() string {
	return "picks"
}
