package models

import "time"

const (
	SwapKindTakeBetter = "take_better"
	SwapKindTakeWorse  = "take_worse"
)

// PickSwap is a conditional right over two picks, not an asset itself.
// Resolution (deciding which pick is better) happens outside this service
// and ends with the swap being deleted.
type PickSwap struct {
	ID       uint64 `gorm:"primaryKey;autoIncrement"`
	SeasonID uint64 `gorm:"not null;index"`

	PickAID uint64 `gorm:"not null;index"`
	PickBID uint64 `gorm:"not null;index"`

	Kind string `gorm:"type:varchar(20);not null"`

	OwnerTeamID uint64 `gorm:"not null;index"`

	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime"`
	UpdatedAt time.Time `gorm:"type:timestamptz;autoUpdateTime"`
}

func (PickSwap) TableName() string {
	return "pick_swaps"
}
