package models

import (
	"time"

	"gorm.io/datatypes"
)

const (
	TradeStatusProposed  = "proposed"
	TradeStatusPending   = "pending"
	TradeStatusExecuted  = "executed"
	TradeStatusRejected  = "rejected"
	TradeStatusCancelled = "cancelled"
	TradeStatusReverted  = "reverted"
)

// Trade is one proposed exchange between two or more teams. Participants and
// assets are created together with the trade in a single transaction.
type Trade struct {
	ID       uint64 `gorm:"primaryKey;autoIncrement"`
	SeasonID uint64 `gorm:"not null;index"`

	Status string `gorm:"type:varchar(20);not null;default:'proposed';index"`

	CreatedByTeamID uint64 `gorm:"not null;index"`

	// Payload is the proposal body as received, kept for audit review.
	Payload datatypes.JSON `gorm:"type:jsonb"`

	// Made is administrative bookkeeping only; it never affects the state
	// machine.
	Made bool `gorm:"not null;default:false"`

	ExecutedAt       *time.Time `gorm:"type:timestamptz"`
	RevertedAt       *time.Time `gorm:"type:timestamptz"`
	RevertedByUserID *uint64    `gorm:""`

	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime;index"`
	UpdatedAt time.Time `gorm:"type:timestamptz;autoUpdateTime"`

	Participants []TradeParticipant `gorm:"foreignKey:TradeID"`
	Assets       []TradeAsset       `gorm:"foreignKey:TradeID"`
}

func (Trade) TableName() string {
	return "trades"
}

// Terminal reports whether no further state transition is possible.
func (t *Trade) Terminal() bool {
	switch t.Status {
	case TradeStatusRejected, TradeStatusCancelled, TradeStatusReverted:
		return true
	}
	return false
}
