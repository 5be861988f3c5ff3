package trade

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/vvmafra/fba-fantasy-app-sub001/internal/apperr"
	"github.com/vvmafra/fba-fantasy-app-sub001/internal/auth"
	"github.com/vvmafra/fba-fantasy-app-sub001/internal/models"
)

// Cancel ends a not-yet-executed trade. The creating team's owner may cancel
// their own proposal; admins may cancel any open trade.
func (s *Service) Cancel(ctx context.Context, caller auth.Identity, tradeID uint64) (*models.Trade, error) {
	existing, err := s.Repo.GetTradeByID(ctx, tradeID)
	if err != nil {
		return nil, apperr.Internal("load trade", err)
	}
	if existing == nil {
		return nil, apperr.NotFound("trade %d not found", tradeID)
	}
	if !caller.OwnsTeam(existing.CreatedByTeamID) {
		return nil, apperr.Authorization("only the creating team's owner or an admin can cancel this trade")
	}

	err = s.Repo.InTx(ctx, func(tx *gorm.DB) error {
		trade, err := s.Repo.GetTradeForUpdateTx(ctx, tx, tradeID)
		if err != nil {
			return apperr.Internal("load trade", err)
		}
		if trade == nil {
			return apperr.NotFound("trade %d not found", tradeID)
		}
		if trade.Status == models.TradeStatusExecuted {
			return apperr.Validation("trade %d is executed; use revert instead", tradeID)
		}
		if trade.Terminal() {
			return apperr.Validation("trade %d is already %s", tradeID, trade.Status)
		}
		moved, err := s.Repo.UpdateTradeStatusTx(ctx, tx, tradeID,
			[]string{models.TradeStatusProposed, models.TradeStatusPending}, models.TradeStatusCancelled)
		if err != nil {
			return apperr.Internal("cancel trade", err)
		}
		if moved == 0 {
			return apperr.Conflict("trade %d changed state concurrently", tradeID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.Logger != nil {
		s.Logger.Info("trade cancelled", zap.Uint64("trade_id", tradeID), zap.Uint64("by_user", caller.UserID))
	}
	return s.Repo.GetTradeByID(ctx, tradeID)
}

// SetMade flips the informational "settled" flag. Bookkeeping only.
func (s *Service) SetMade(ctx context.Context, caller auth.Identity, tradeID uint64, made bool) (*models.Trade, error) {
	if !caller.IsAdmin() {
		return nil, apperr.Authorization("only administrators can mark trades as made")
	}
	if err := s.Repo.SetTradeMade(ctx, tradeID, made); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("trade %d not found", tradeID)
		}
		return nil, apperr.Internal("set made flag", err)
	}
	return s.Repo.GetTradeByID(ctx, tradeID)
}

// RejectPendingAfterDeadline bulk-rejects open trades whose season deadline
// has passed. Exposed both as an admin endpoint and as the cron sweep.
func (s *Service) RejectPendingAfterDeadline(ctx context.Context, caller auth.Identity) (int, error) {
	if !caller.IsAdmin() {
		return 0, apperr.Authorization("only administrators can run the deadline sweep")
	}

	now := time.Now().UTC()
	stale, err := s.Repo.ListTradesPastDeadline(ctx, now)
	if err != nil {
		return 0, apperr.Internal("list trades past deadline", err)
	}

	rejected := 0
	for _, t := range stale {
		tradeID := t.ID
		err := s.Repo.InTx(ctx, func(tx *gorm.DB) error {
			moved, err := s.Repo.UpdateTradeStatusTx(ctx, tx, tradeID,
				[]string{models.TradeStatusProposed, models.TradeStatusPending}, models.TradeStatusRejected)
			if err != nil {
				return err
			}
			if moved > 0 {
				rejected++
			}
			return nil
		})
		if err != nil {
			return rejected, apperr.Internal("reject stale trade", err)
		}
	}

	if s.Logger != nil && rejected > 0 {
		s.Logger.Info("deadline sweep rejected stale trades", zap.Int("count", rejected))
	}
	return rejected, nil
}
