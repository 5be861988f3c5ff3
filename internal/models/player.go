package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Player struct {
	ID   uint64 `gorm:"primaryKey;autoIncrement"`
	Name string `gorm:"type:varchar(150);not null"`

	// TeamID is the ownership foreign key the trade engine mutates.
	TeamID uint64 `gorm:"not null;index"`

	Salary decimal.Decimal `gorm:"type:numeric(20,2);not null;default:0"`

	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime"`
	UpdatedAt time.Time `gorm:"type:timestamptz;autoUpdateTime"`
}

func (Player) TableName() string {
	return "players"
}
