package models

import "time"

const (
	ResponsePending  = "pending"
	ResponseAccepted = "accepted"
	ResponseRejected = "rejected"
)

// TradeParticipant is one team's membership in a trade. The response status
// is write-once: pending moves to accepted or rejected and never back.
type TradeParticipant struct {
	ID      uint64 `gorm:"primaryKey;autoIncrement"`
	TradeID uint64 `gorm:"not null;index"`
	TeamID  uint64 `gorm:"not null;index"`

	IsInitiator bool `gorm:"not null;default:false"`

	ResponseStatus string     `gorm:"type:varchar(20);not null;default:'pending'"`
	RespondedAt    *time.Time `gorm:"type:timestamptz"`

	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime"`
	UpdatedAt time.Time `gorm:"type:timestamptz;autoUpdateTime"`
}

func (TradeParticipant) TableName() string {
	return "trade_participants"
}
