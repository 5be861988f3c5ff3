package swap

import (
	"context"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/vvmafra/fba-fantasy-app-sub001/internal/apperr"
	"github.com/vvmafra/fba-fantasy-app-sub001/internal/auth"
	"github.com/vvmafra/fba-fantasy-app-sub001/internal/ledger"
	"github.com/vvmafra/fba-fantasy-app-sub001/internal/models"
	"github.com/vvmafra/fba-fantasy-app-sub001/internal/repository"
)

// Service is the pick-swap registry. A swap is a conditional right over two
// picks; while it exists both picks are flagged in-swap and unavailable to
// new swaps or trades. Resolution happens elsewhere and ends with Delete.
type Service struct {
	Repo   repository.Repository
	Ledger ledger.Ledger
	Logger *zap.Logger
}

type CreateParams struct {
	SeasonID    uint64 `json:"season_id"`
	PickAID     uint64 `json:"pick_a_id"`
	PickBID     uint64 `json:"pick_b_id"`
	Kind        string `json:"kind"`
	OwnerTeamID uint64 `json:"owner_team_id"`
}

func (s *Service) Create(ctx context.Context, caller auth.Identity, p CreateParams) (*models.PickSwap, error) {
	if p.Kind != models.SwapKindTakeBetter && p.Kind != models.SwapKindTakeWorse {
		return nil, apperr.Validation("kind must be %q or %q", models.SwapKindTakeBetter, models.SwapKindTakeWorse)
	}
	if p.PickAID == 0 || p.PickBID == 0 || p.PickAID == p.PickBID {
		return nil, apperr.Validation("a swap needs two distinct picks")
	}
	if !caller.OwnsTeam(p.OwnerTeamID) {
		return nil, apperr.Authorization("only team %d's owner or an admin can create this swap", p.OwnerTeamID)
	}

	swap := &models.PickSwap{
		SeasonID:    p.SeasonID,
		PickAID:     p.PickAID,
		PickBID:     p.PickBID,
		Kind:        p.Kind,
		OwnerTeamID: p.OwnerTeamID,
	}
	err := s.Repo.InTx(ctx, func(tx *gorm.DB) error {
		picks, err := s.Ledger.LockPicks(ctx, tx, []uint64{p.PickAID, p.PickBID})
		if err != nil {
			return err
		}
		ownsOne := false
		for _, pick := range picks {
			if pick.InSwap {
				return apperr.Validation("pick %d is already part of a swap", pick.ID)
			}
			if pick.CurrentTeamID == p.OwnerTeamID {
				ownsOne = true
			}
		}
		if !ownsOne {
			return apperr.Validation("team %d holds neither pick of the swap", p.OwnerTeamID)
		}
		if err := s.Repo.CreateSwapTx(ctx, tx, swap); err != nil {
			return apperr.Internal("create swap", err)
		}
		return s.Ledger.SetPicksInSwap(ctx, tx, []uint64{p.PickAID, p.PickBID}, true)
	})
	if err != nil {
		return nil, err
	}

	if s.Logger != nil {
		s.Logger.Info("pick swap created",
			zap.Uint64("swap_id", swap.ID),
			zap.Uint64("pick_a", p.PickAID),
			zap.Uint64("pick_b", p.PickBID),
			zap.String("kind", p.Kind),
		)
	}
	return swap, nil
}

// Delete removes the swap and releases both picks.
func (s *Service) Delete(ctx context.Context, caller auth.Identity, id uint64) error {
	existing, err := s.Repo.GetSwapByID(ctx, id)
	if err != nil {
		return apperr.Internal("load swap", err)
	}
	if existing == nil {
		return apperr.NotFound("swap %d not found", id)
	}
	if !caller.OwnsTeam(existing.OwnerTeamID) {
		return apperr.Authorization("only the swap owner or an admin can delete it")
	}

	return s.Repo.InTx(ctx, func(tx *gorm.DB) error {
		if err := s.Repo.DeleteSwapTx(ctx, tx, id); err != nil {
			return apperr.Internal("delete swap", err)
		}
		return s.Ledger.SetPicksInSwap(ctx, tx, []uint64{existing.PickAID, existing.PickBID}, false)
	})
}

// TransferOwnership moves the right to another team. Pure metadata; the
// underlying picks do not move.
func (s *Service) TransferOwnership(ctx context.Context, caller auth.Identity, id, newOwnerTeamID uint64) (*models.PickSwap, error) {
	if newOwnerTeamID == 0 {
		return nil, apperr.Validation("owner_team_id is required")
	}
	existing, err := s.Repo.GetSwapByID(ctx, id)
	if err != nil {
		return nil, apperr.Internal("load swap", err)
	}
	if existing == nil {
		return nil, apperr.NotFound("swap %d not found", id)
	}
	if !caller.OwnsTeam(existing.OwnerTeamID) {
		return nil, apperr.Authorization("only the swap owner or an admin can transfer it")
	}
	team, err := s.Repo.GetTeamByID(ctx, newOwnerTeamID)
	if err != nil {
		return nil, apperr.Internal("load team", err)
	}
	if team == nil {
		return nil, apperr.NotFound("team %d not found", newOwnerTeamID)
	}

	if err := s.Repo.UpdateSwapOwner(ctx, id, newOwnerTeamID); err != nil {
		return nil, apperr.Internal("transfer swap", err)
	}
	return s.Repo.GetSwapByID(ctx, id)
}

func (s *Service) List(ctx context.Context, params repository.ListSwapsParams) ([]models.PickSwap, error) {
	return s.Repo.ListSwaps(ctx, params)
}
