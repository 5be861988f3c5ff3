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

// Respond records a participant's accept or reject. Responses are
// write-once. One rejection moves the whole trade to its rejected terminal
// state; unanimous acceptance moves it to pending, from where only an
// explicit admin execution mutates ownership.
func (s *Service) Respond(ctx context.Context, caller auth.Identity, participantID uint64, response string) (*models.Trade, error) {
	if response != models.ResponseAccepted && response != models.ResponseRejected {
		return nil, apperr.Validation("response must be %q or %q", models.ResponseAccepted, models.ResponseRejected)
	}

	participant, err := s.Repo.GetParticipantByID(ctx, participantID)
	if err != nil {
		return nil, apperr.Internal("load participant", err)
	}
	if participant == nil {
		return nil, apperr.NotFound("participant %d not found", participantID)
	}
	if !caller.OwnsTeam(participant.TeamID) {
		return nil, apperr.Authorization("only team %d's owner or an admin can respond for this participant", participant.TeamID)
	}

	tradeID := participant.TradeID
	err = s.Repo.InTx(ctx, func(tx *gorm.DB) error {
		trade, err := s.Repo.GetTradeForUpdateTx(ctx, tx, tradeID)
		if err != nil {
			return apperr.Internal("load trade", err)
		}
		if trade == nil {
			return apperr.NotFound("trade %d not found", tradeID)
		}
		if trade.Status != models.TradeStatusProposed {
			return apperr.Validation("trade %d is %s and no longer accepts responses", tradeID, trade.Status)
		}

		now := time.Now().UTC()
		moved, err := s.Repo.UpdateParticipantResponseTx(ctx, tx, participantID, response, now)
		if err != nil {
			return apperr.Internal("record response", err)
		}
		if moved == 0 {
			return apperr.Validation("participant %d has already responded", participantID)
		}

		if response == models.ResponseRejected {
			if _, err := s.Repo.UpdateTradeStatusTx(ctx, tx, tradeID,
				[]string{models.TradeStatusProposed}, models.TradeStatusRejected); err != nil {
				return apperr.Internal("reject trade", err)
			}
			return nil
		}

		participants, err := s.Repo.ListParticipantsByTradeIDTx(ctx, tx, tradeID)
		if err != nil {
			return apperr.Internal("load participants", err)
		}
		for _, p := range participants {
			if p.ResponseStatus != models.ResponseAccepted {
				return nil
			}
		}
		if _, err := s.Repo.UpdateTradeStatusTx(ctx, tx, tradeID,
			[]string{models.TradeStatusProposed}, models.TradeStatusPending); err != nil {
			return apperr.Internal("mark trade pending", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.Logger != nil {
		s.Logger.Info("trade response recorded",
			zap.Uint64("trade_id", tradeID),
			zap.Uint64("participant_id", participantID),
			zap.String("response", response),
		)
	}
	return s.Repo.GetTradeByID(ctx, tradeID)
}
