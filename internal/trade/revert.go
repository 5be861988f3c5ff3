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

// Revert undoes an executed trade. The movement log, not the proposal, is
// authoritative: every asset goes back to the recorded from-team even if it
// has moved again since execution (last writer wins; such moves are logged
// loudly). Inverse rows are appended to the log rather than deleting
// history.
func (s *Service) Revert(ctx context.Context, caller auth.Identity, tradeID, byUserID uint64) (*models.Trade, error) {
	if !caller.IsAdmin() {
		return nil, apperr.Authorization("only administrators can revert trades")
	}
	if byUserID == 0 {
		byUserID = caller.UserID
	}

	var forced []uint64
	err := s.Repo.InTx(ctx, func(tx *gorm.DB) error {
		trade, err := s.Repo.GetTradeForUpdateTx(ctx, tx, tradeID)
		if err != nil {
			return apperr.Internal("load trade", err)
		}
		if trade == nil {
			return apperr.NotFound("trade %d not found", tradeID)
		}
		if trade.Status == models.TradeStatusReverted {
			return apperr.Validation("trade %d is already reverted", tradeID)
		}
		if trade.Status != models.TradeStatusExecuted {
			return apperr.Validation("trade %d is %s; only executed trades can be reverted", tradeID, trade.Status)
		}

		movements, err := s.Repo.ListExecutionMovementsTx(ctx, tx, tradeID)
		if err != nil {
			return apperr.Internal("load movement log", err)
		}
		if len(movements) == 0 {
			return apperr.Internal("executed trade has no movement log", nil)
		}

		// Lock everything the log references before touching anything.
		var playerIDs, pickIDs []uint64
		for _, m := range movements {
			if m.PlayerID != nil {
				playerIDs = append(playerIDs, *m.PlayerID)
			}
			if m.PickID != nil {
				pickIDs = append(pickIDs, *m.PickID)
			}
		}
		players, err := s.Ledger.LockPlayers(ctx, tx, playerIDs)
		if err != nil {
			return err
		}
		playerOwner := make(map[uint64]uint64, len(players))
		for _, p := range players {
			playerOwner[p.ID] = p.TeamID
		}
		picks, err := s.Ledger.LockPicks(ctx, tx, pickIDs)
		if err != nil {
			return err
		}
		pickOwner := make(map[uint64]uint64, len(picks))
		for _, p := range picks {
			pickOwner[p.ID] = p.CurrentTeamID
		}

		now := time.Now().UTC()
		inverse := make([]models.TradeAssetMovement, 0, len(movements))
		for _, m := range movements {
			switch m.AssetType {
			case models.AssetTypePlayer:
				if playerOwner[*m.PlayerID] != m.ToTeamID {
					forced = append(forced, *m.PlayerID)
				}
				if err := s.Ledger.AssignPlayer(ctx, tx, *m.PlayerID, m.FromTeamID); err != nil {
					return err
				}
			case models.AssetTypePick:
				if pickOwner[*m.PickID] != m.ToTeamID {
					forced = append(forced, *m.PickID)
				}
				if err := s.Ledger.AssignPick(ctx, tx, *m.PickID, m.FromTeamID); err != nil {
					return err
				}
			}
			inverse = append(inverse, models.TradeAssetMovement{
				TradeID:    tradeID,
				AssetType:  m.AssetType,
				PlayerID:   m.PlayerID,
				PickID:     m.PickID,
				FromTeamID: m.ToTeamID,
				ToTeamID:   m.FromTeamID,
				Reversal:   true,
				CreatedAt:  now,
			})
		}
		if err := s.Repo.InsertMovementsTx(ctx, tx, inverse); err != nil {
			return apperr.Internal("write reversal log", err)
		}

		return s.Repo.MarkTradeRevertedTx(ctx, tx, tradeID, now, byUserID)
	})
	if err != nil {
		return nil, err
	}

	if s.Logger != nil {
		s.Logger.Info("trade reverted",
			zap.Uint64("trade_id", tradeID),
			zap.Uint64("by_user", byUserID),
		)
		if len(forced) > 0 {
			s.Logger.Warn("reversal forced assets that had moved again since execution",
				zap.Uint64("trade_id", tradeID),
				zap.Uint64s("asset_ids", forced),
			)
		}
	}
	return s.Repo.GetTradeByID(ctx, tradeID)
}
