package trade

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/vvmafra/fba-fantasy-app-sub001/internal/apperr"
	"github.com/vvmafra/fba-fantasy-app-sub001/internal/auth"
	"github.com/vvmafra/fba-fantasy-app-sub001/internal/models"
)

// ProposalAsset is the tagged variant for one offered asset. Exactly one of
// PlayerID/PickID must be set, matching Type; anything else is rejected at
// validation.
type ProposalAsset struct {
	Type     string `json:"type"`
	PlayerID uint64 `json:"player_id,omitempty"`
	PickID   uint64 `json:"pick_id,omitempty"`

	// ToTeamID may be omitted in a two-team trade; it is then inferred as
	// the other team.
	ToTeamID uint64 `json:"to_team_id,omitempty"`
}

type ProposalParticipant struct {
	TeamID uint64          `json:"team_id"`
	Assets []ProposalAsset `json:"assets"`
}

type Proposal struct {
	SeasonID        uint64                `json:"season_id"`
	CreatedByTeamID uint64                `json:"created_by_team_id"`
	Participants    []ProposalParticipant `json:"participants"`
}

// Propose validates a candidate trade and persists it with status proposed.
// No ownership changes happen here; the initiator's response is pre-set to
// accepted, everyone else starts pending.
func (s *Service) Propose(ctx context.Context, caller auth.Identity, p Proposal) (*models.Trade, error) {
	if err := s.validateShape(p); err != nil {
		return nil, err
	}
	if !caller.OwnsTeam(p.CreatedByTeamID) {
		return nil, apperr.Authorization("only the initiating team's owner or an admin can propose this trade")
	}

	season, err := s.Repo.GetSeasonByID(ctx, p.SeasonID)
	if err != nil {
		return nil, apperr.Internal("load season", err)
	}
	if season == nil {
		return nil, apperr.NotFound("season %d not found", p.SeasonID)
	}
	if time.Now().UTC().After(season.TradeDeadline) {
		return nil, apperr.Validation("trade deadline expired for season %d", p.SeasonID)
	}

	teamIDs := make([]uint64, 0, len(p.Participants))
	for _, part := range p.Participants {
		teamIDs = append(teamIDs, part.TeamID)
	}
	teams, err := s.Repo.ListTeamsByIDs(ctx, teamIDs)
	if err != nil {
		return nil, apperr.Internal("load teams", err)
	}
	if len(teams) != len(teamIDs) {
		return nil, apperr.Validation("one or more participant teams do not exist")
	}
	for _, t := range teams {
		if t.SeasonID != p.SeasonID {
			return nil, apperr.Validation("team %d does not belong to season %d", t.ID, p.SeasonID)
		}
	}

	payload, err := json.Marshal(p)
	if err != nil {
		return nil, apperr.Internal("encode proposal payload", err)
	}

	trade := buildTrade(p, payload)

	err = s.Repo.InTx(ctx, func(tx *gorm.DB) error {
		playerOwner, picks, err := s.lockAssetOwners(ctx, tx, trade.Assets)
		if err != nil {
			return err
		}
		if err := s.checkOwnership(trade, playerOwner, picks); err != nil {
			return err
		}
		if err := s.checkOverlap(ctx, tx, trade, 0); err != nil {
			return err
		}
		return s.Repo.CreateTradeTx(ctx, tx, trade)
	})
	if err != nil {
		return nil, err
	}

	if s.Logger != nil {
		s.Logger.Info("trade proposed",
			zap.Uint64("trade_id", trade.ID),
			zap.Uint64("season_id", trade.SeasonID),
			zap.Uint64("created_by_team", trade.CreatedByTeamID),
			zap.Int("participants", len(trade.Participants)),
			zap.Int("assets", len(trade.Assets)),
		)
	}
	return s.Repo.GetTradeByID(ctx, trade.ID)
}

func (s *Service) validateShape(p Proposal) error {
	if p.SeasonID == 0 {
		return apperr.Validation("season_id is required")
	}
	if len(p.Participants) < 2 {
		return apperr.Validation("a trade needs at least two participants")
	}

	seen := make(map[uint64]struct{}, len(p.Participants))
	type assetRef struct {
		assetType string
		id        uint64
	}
	seenAssets := make(map[assetRef]struct{})
	creatorIsParticipant := false
	for _, part := range p.Participants {
		if part.TeamID == 0 {
			return apperr.Validation("participant team_id is required")
		}
		if _, dup := seen[part.TeamID]; dup {
			return apperr.Validation("team %d appears twice in the trade", part.TeamID)
		}
		seen[part.TeamID] = struct{}{}
		if part.TeamID == p.CreatedByTeamID {
			creatorIsParticipant = true
		}
		if len(part.Assets) == 0 {
			return apperr.Validation("team %d contributes no assets", part.TeamID)
		}
		for _, a := range part.Assets {
			if err := validateAssetVariant(a); err != nil {
				return err
			}
			ref := assetRef{assetType: a.Type, id: a.PlayerID}
			if a.Type == models.AssetTypePick {
				ref.id = a.PickID
			}
			if _, dup := seenAssets[ref]; dup {
				return apperr.Validation("%s %d appears more than once in the trade", ref.assetType, ref.id)
			}
			seenAssets[ref] = struct{}{}
			if a.ToTeamID != 0 {
				if _, ok := seen[a.ToTeamID]; !ok && !destinationPending(p, a.ToTeamID) {
					return apperr.Validation("asset destination team %d is not a participant", a.ToTeamID)
				}
				if a.ToTeamID == part.TeamID {
					return apperr.Validation("team %d cannot trade an asset to itself", part.TeamID)
				}
			} else if len(p.Participants) != 2 {
				return apperr.Validation("to_team_id is required when a trade has more than two teams")
			}
		}
	}
	if !creatorIsParticipant {
		return apperr.Validation("the creating team must be a participant")
	}
	return nil
}

func validateAssetVariant(a ProposalAsset) error {
	switch a.Type {
	case models.AssetTypePlayer:
		if a.PlayerID == 0 || a.PickID != 0 {
			return apperr.Validation("player asset must set player_id and nothing else")
		}
	case models.AssetTypePick:
		if a.PickID == 0 || a.PlayerID != 0 {
			return apperr.Validation("pick asset must set pick_id and nothing else")
		}
	default:
		return apperr.Validation("unknown asset type %q", a.Type)
	}
	return nil
}

// destinationPending reports whether the team id shows up later in the
// participant list; shape validation walks participants in order.
func destinationPending(p Proposal, teamID uint64) bool {
	for _, part := range p.Participants {
		if part.TeamID == teamID {
			return true
		}
	}
	return false
}

func buildTrade(p Proposal, payload []byte) *models.Trade {
	trade := &models.Trade{
		SeasonID:        p.SeasonID,
		Status:          models.TradeStatusProposed,
		CreatedByTeamID: p.CreatedByTeamID,
		Payload:         payload,
	}

	for i, part := range p.Participants {
		isInitiator := part.TeamID == p.CreatedByTeamID
		response := models.ResponsePending
		var respondedAt *time.Time
		if isInitiator {
			response = models.ResponseAccepted
			now := time.Now().UTC()
			respondedAt = &now
		}
		trade.Participants = append(trade.Participants, models.TradeParticipant{
			TeamID:         part.TeamID,
			IsInitiator:    isInitiator,
			ResponseStatus: response,
			RespondedAt:    respondedAt,
		})

		for _, a := range part.Assets {
			to := a.ToTeamID
			if to == 0 {
				// Two-team trade: the receiver is the other side.
				to = p.Participants[1-i].TeamID
			}
			asset := models.TradeAsset{
				AssetType: a.Type,
				ToTeamID:  to,
			}
			if a.Type == models.AssetTypePlayer {
				id := a.PlayerID
				asset.PlayerID = &id
			} else {
				id := a.PickID
				asset.PickID = &id
			}
			// Holds the participant index until insert resolves it to a
			// row id (see CreateTradeTx).
			asset.ParticipantID = uint64(i)
			trade.Assets = append(trade.Assets, asset)
		}
	}
	return trade
}

// checkOwnership verifies every asset's live owner matches the contributing
// participant and that no offered pick sits inside an active swap.
func (s *Service) checkOwnership(trade *models.Trade, playerOwner map[uint64]uint64, picks map[uint64]models.Pick) error {
	for i := range trade.Assets {
		a := &trade.Assets[i]
		contributor := contributorTeam(trade, a)
		assetType, id := a.AssetKey()
		switch assetType {
		case models.AssetTypePlayer:
			owner, ok := playerOwner[id]
			if !ok {
				return apperr.NotFound("player %d not found", id)
			}
			if owner != contributor {
				return apperr.Validation("player %d is owned by team %d, not by contributing team %d", id, owner, contributor)
			}
		case models.AssetTypePick:
			pick, ok := picks[id]
			if !ok {
				return apperr.NotFound("pick %d not found", id)
			}
			if pick.InSwap {
				return apperr.Validation("pick %d is locked inside an active pick swap", id)
			}
			if pick.CurrentTeamID != contributor {
				return apperr.Validation("pick %d is owned by team %d, not by contributing team %d", id, pick.CurrentTeamID, contributor)
			}
		}
	}
	return nil
}

// checkOverlap rejects assets that already sit in another open trade.
func (s *Service) checkOverlap(ctx context.Context, tx *gorm.DB, trade *models.Trade, excludeTradeID uint64) error {
	playerIDs, pickIDs := splitAssetIDs(trade.Assets)
	if n, err := s.Repo.CountOpenTradeAssetsForPlayers(ctx, tx, playerIDs, excludeTradeID); err != nil {
		return apperr.Internal("check player overlap", err)
	} else if n > 0 {
		return apperr.Validation("one or more players are already part of a pending trade")
	}
	if n, err := s.Repo.CountOpenTradeAssetsForPicks(ctx, tx, pickIDs, excludeTradeID); err != nil {
		return apperr.Internal("check pick overlap", err)
	} else if n > 0 {
		return apperr.Validation("one or more picks are already part of a pending trade")
	}
	return nil
}

// contributorTeam resolves the team that offered the asset. Before insert
// the asset's ParticipantID holds the participant's index within the trade;
// after insert it holds the real row id.
func contributorTeam(trade *models.Trade, a *models.TradeAsset) uint64 {
	if a.ParticipantID < uint64(len(trade.Participants)) && trade.Participants[a.ParticipantID].ID == 0 {
		return trade.Participants[a.ParticipantID].TeamID
	}
	for _, part := range trade.Participants {
		if part.ID == a.ParticipantID {
			return part.TeamID
		}
	}
	return 0
}
