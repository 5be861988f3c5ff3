package trade

import (
	"context"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/vvmafra/fba-fantasy-app-sub001/internal/apperr"
	"github.com/vvmafra/fba-fantasy-app-sub001/internal/auth"
	"github.com/vvmafra/fba-fantasy-app-sub001/internal/models"
)

// Execute performs the atomic ownership transfer for a unanimously accepted
// trade. Inside one transaction it re-validates every asset's live owner
// against the contributing participant, writes the movement log, reassigns
// ownership, and stamps the trade executed. Any mismatch aborts the whole
// transaction with zero side effects.
func (s *Service) Execute(ctx context.Context, caller auth.Identity, tradeID uint64) (*models.Trade, error) {
	if !caller.IsAdmin() {
		return nil, apperr.Authorization("only administrators can execute trades")
	}

	if s.Config.EnforceOnExecute && s.Limits != nil {
		teamLimits, err := s.Limits.CheckTrade(ctx, tradeID)
		if err != nil {
			return nil, err
		}
		for _, tl := range teamLimits {
			if tl.AtLimit {
				return nil, apperr.Validation("team %d has reached its trade limit (%d in window)", tl.TeamID, tl.Executed)
			}
		}
	}

	var assetCount int
	err := s.Repo.InTx(ctx, func(tx *gorm.DB) error {
		trade, err := s.Repo.GetTradeForUpdateTx(ctx, tx, tradeID)
		if err != nil {
			return apperr.Internal("load trade", err)
		}
		if trade == nil {
			return apperr.NotFound("trade %d not found", tradeID)
		}
		switch trade.Status {
		case models.TradeStatusPending:
		case models.TradeStatusExecuted:
			return apperr.Validation("trade %d is already executed", tradeID)
		case models.TradeStatusProposed:
			return apperr.Validation("trade %d is not ready: not every participant has accepted", tradeID)
		default:
			return apperr.Validation("trade %d is %s and cannot be executed", tradeID, trade.Status)
		}

		season, err := s.Repo.GetSeasonByID(ctx, trade.SeasonID)
		if err != nil {
			return apperr.Internal("load season", err)
		}
		if season == nil {
			return apperr.NotFound("season %d not found", trade.SeasonID)
		}
		now := time.Now().UTC()
		if now.After(season.TradeDeadline) {
			return apperr.Validation("trade deadline expired for season %d", trade.SeasonID)
		}

		participants, err := s.Repo.ListParticipantsByTradeIDTx(ctx, tx, tradeID)
		if err != nil {
			return apperr.Internal("load participants", err)
		}
		trade.Participants = participants
		assets, err := s.Repo.ListAssetsByTradeIDTx(ctx, tx, tradeID)
		if err != nil {
			return apperr.Internal("load assets", err)
		}
		trade.Assets = assets
		assetCount = len(assets)

		playerOwner, picks, err := s.lockAssetOwners(ctx, tx, assets)
		if err != nil {
			return err
		}
		// Staleness defense: waivers or other trades may have moved an
		// asset between proposal and execution.
		if err := s.checkOwnership(trade, playerOwner, picks); err != nil {
			return err
		}

		movements := make([]models.TradeAssetMovement, 0, len(assets))
		for i := range assets {
			a := &assets[i]
			assetType, id := a.AssetKey()
			var from uint64
			switch assetType {
			case models.AssetTypePlayer:
				from = playerOwner[id]
			case models.AssetTypePick:
				from = picks[id].CurrentTeamID
			}
			m := models.TradeAssetMovement{
				TradeID:    tradeID,
				AssetType:  assetType,
				FromTeamID: from,
				ToTeamID:   a.ToTeamID,
				CreatedAt:  now,
			}
			if assetType == models.AssetTypePlayer {
				pid := id
				m.PlayerID = &pid
			} else {
				pid := id
				m.PickID = &pid
			}
			movements = append(movements, m)
		}
		if err := s.Repo.InsertMovementsTx(ctx, tx, movements); err != nil {
			return apperr.Internal("write movement log", err)
		}

		for i := range assets {
			a := &assets[i]
			assetType, id := a.AssetKey()
			switch assetType {
			case models.AssetTypePlayer:
				if err := s.Ledger.AssignPlayer(ctx, tx, id, a.ToTeamID); err != nil {
					return err
				}
			case models.AssetTypePick:
				if err := s.Ledger.AssignPick(ctx, tx, id, a.ToTeamID); err != nil {
					return err
				}
			}
		}

		return s.Repo.MarkTradeExecutedTx(ctx, tx, tradeID, now)
	})
	if err != nil {
		return nil, err
	}

	if s.Logger != nil {
		s.Logger.Info("trade executed",
			zap.Uint64("trade_id", tradeID),
			zap.Uint64("by_user", caller.UserID),
			zap.Int("assets", assetCount),
		)
	}
	return s.Repo.GetTradeByID(ctx, tradeID)
}
