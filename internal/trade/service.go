package trade

import (
	"context"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/vvmafra/fba-fantasy-app-sub001/internal/config"
	"github.com/vvmafra/fba-fantasy-app-sub001/internal/ledger"
	"github.com/vvmafra/fba-fantasy-app-sub001/internal/limits"
	"github.com/vvmafra/fba-fantasy-app-sub001/internal/models"
	"github.com/vvmafra/fba-fantasy-app-sub001/internal/repository"
)

// Service is the trade transaction engine: proposal validation, response
// tracking, admin-gated execution, and full reversal. Every mutating call
// runs inside one repository transaction.
type Service struct {
	Repo   repository.Repository
	Ledger ledger.Ledger
	Limits *limits.Checker
	Logger *zap.Logger
	Config config.TradeLimitsConfig
}

func (s *Service) Get(ctx context.Context, id uint64) (*models.Trade, error) {
	return s.Repo.GetTradeByID(ctx, id)
}

func (s *Service) List(ctx context.Context, params repository.ListTradesParams) ([]models.Trade, int64, error) {
	items, err := s.Repo.ListTrades(ctx, params)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.Repo.CountTrades(ctx, params)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (s *Service) CountsByStatus(ctx context.Context, seasonID uint64) ([]repository.StatusCount, error) {
	return s.Repo.CountTradesByStatus(ctx, seasonID)
}

// splitAssetIDs partitions trade assets into player and pick ids.
func splitAssetIDs(assets []models.TradeAsset) (playerIDs, pickIDs []uint64) {
	for i := range assets {
		assetType, id := assets[i].AssetKey()
		if id == 0 {
			continue
		}
		switch assetType {
		case models.AssetTypePlayer:
			playerIDs = append(playerIDs, id)
		case models.AssetTypePick:
			pickIDs = append(pickIDs, id)
		}
	}
	return playerIDs, pickIDs
}

// lockAssetOwners takes FOR UPDATE locks on every referenced player and pick
// and returns the observed current owner per asset. The locks are held until
// the surrounding transaction ends, so the ownership snapshot stays valid
// for the rest of the unit of work.
func (s *Service) lockAssetOwners(ctx context.Context, tx *gorm.DB, assets []models.TradeAsset) (playerOwner map[uint64]uint64, picks map[uint64]models.Pick, err error) {
	playerIDs, pickIDs := splitAssetIDs(assets)

	playerOwner = make(map[uint64]uint64, len(playerIDs))
	players, err := s.Ledger.LockPlayers(ctx, tx, playerIDs)
	if err != nil {
		return nil, nil, err
	}
	for _, p := range players {
		playerOwner[p.ID] = p.TeamID
	}

	picks = make(map[uint64]models.Pick, len(pickIDs))
	lockedPicks, err := s.Ledger.LockPicks(ctx, tx, pickIDs)
	if err != nil {
		return nil, nil, err
	}
	for _, p := range lockedPicks {
		picks[p.ID] = p
	}
	return playerOwner, picks, nil
}
