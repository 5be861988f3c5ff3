package models

import "time"

// TradeAssetMovement is the append-only execution log and the sole source of
// truth for reversal. FromTeamID is the owner observed at execution time,
// which may differ from the proposal's contributing team. Reversal appends
// inverse rows with Reversal set instead of deleting history.
type TradeAssetMovement struct {
	ID      uint64 `gorm:"primaryKey;autoIncrement"`
	TradeID uint64 `gorm:"not null;index"`

	AssetType string  `gorm:"type:varchar(10);not null"`
	PlayerID  *uint64 `gorm:"index"`
	PickID    *uint64 `gorm:"index"`

	FromTeamID uint64 `gorm:"not null"`
	ToTeamID   uint64 `gorm:"not null"`

	Reversal bool `gorm:"not null;default:false"`

	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime;index"`
}

func (TradeAssetMovement) TableName() string {
	return "trade_asset_movements"
}
