package models

import "time"

const (
	AssetTypePlayer = "player"
	AssetTypePick   = "pick"
)

// TradeAsset is one item a participant contributes. Exactly one of PlayerID
// and PickID is set, matching AssetType.
type TradeAsset struct {
	ID            uint64 `gorm:"primaryKey;autoIncrement"`
	TradeID       uint64 `gorm:"not null;index"`
	ParticipantID uint64 `gorm:"not null;index"`

	AssetType string  `gorm:"type:varchar(10);not null"`
	PlayerID  *uint64 `gorm:"index"`
	PickID    *uint64 `gorm:"index"`

	// ToTeamID is the receiving team. In a two-team trade it may be omitted
	// at proposal time and is inferred as the other team.
	ToTeamID uint64 `gorm:"not null;index"`

	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime"`
}

func (TradeAsset) TableName() string {
	return "trade_assets"
}

// AssetKey identifies the underlying player or pick regardless of which
// trade row references it.
func (a *TradeAsset) AssetKey() (assetType string, id uint64) {
	if a.AssetType == AssetTypePlayer && a.PlayerID != nil {
		return AssetTypePlayer, *a.PlayerID
	}
	if a.AssetType == AssetTypePick && a.PickID != nil {
		return AssetTypePick, *a.PickID
	}
	return a.AssetType, 0
}
