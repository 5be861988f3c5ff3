package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Team struct {
	ID       uint64 `gorm:"primaryKey;autoIncrement"`
	SeasonID uint64 `gorm:"not null;index"`
	Name     string `gorm:"type:varchar(100);not null"`

	OwnerUserID uint64 `gorm:"not null;index"`

	SalaryCap decimal.Decimal `gorm:"type:numeric(20,2);not null;default:0"`

	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime"`
	UpdatedAt time.Time `gorm:"type:timestamptz;autoUpdateTime"`
}

func (Team) TableName() string {
	return "teams"
}
