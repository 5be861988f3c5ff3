package db

import (
	"github.com/vvmafra/fba-fantasy-app-sub001/internal/models"
)

func AutoMigrate(db *DB) error {
	if db == nil || db.Gorm == nil || db.SQL == nil {
		return nil
	}

	return db.Gorm.AutoMigrate(
		&models.Season{},
		&models.Team{},
		&models.Player{},
		&models.Pick{},
		&models.Trade{},
		&models.TradeParticipant{},
		&models.TradeAsset{},
		&models.TradeAssetMovement{},
		&models.PickSwap{},
	)
}
