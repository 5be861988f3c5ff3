package trade

import (
	"context"
	"sort"
	"time"

	"gorm.io/gorm"

	"github.com/vvmafra/fba-fantasy-app-sub001/internal/apperr"
	"github.com/vvmafra/fba-fantasy-app-sub001/internal/models"
	"github.com/vvmafra/fba-fantasy-app-sub001/internal/repository"
)

// stubEnv is a test-only in-memory implementation of both the repository and
// the asset ledger, sharing one state so ownership checks observe ledger
// writes. InTx snapshots the state and restores it on error, mirroring a
// rolled-back transaction.
type stubEnv struct {
	seasons   map[uint64]models.Season
	teams     map[uint64]models.Team
	players   map[uint64]*models.Player
	picks     map[uint64]*models.Pick
	trades    map[uint64]*models.Trade
	movements []models.TradeAssetMovement
	swaps     map[uint64]*models.PickSwap
	nextID    uint64
}

func newStubEnv() *stubEnv {
	return &stubEnv{
		seasons: map[uint64]models.Season{},
		teams:   map[uint64]models.Team{},
		players: map[uint64]*models.Player{},
		picks:   map[uint64]*models.Pick{},
		trades:  map[uint64]*models.Trade{},
		swaps:   map[uint64]*models.PickSwap{},
		nextID:  1,
	}
}

func (s *stubEnv) id() uint64 {
	id := s.nextID
	s.nextID++
	return id
}

func (s *stubEnv) snapshot() *stubEnv {
	cp := newStubEnv()
	cp.nextID = s.nextID
	for k, v := range s.seasons {
		cp.seasons[k] = v
	}
	for k, v := range s.teams {
		cp.teams[k] = v
	}
	for k, v := range s.players {
		p := *v
		cp.players[k] = &p
	}
	for k, v := range s.picks {
		p := *v
		cp.picks[k] = &p
	}
	for k, v := range s.trades {
		cp.trades[k] = copyTrade(v)
	}
	cp.movements = append([]models.TradeAssetMovement(nil), s.movements...)
	for k, v := range s.swaps {
		sw := *v
		cp.swaps[k] = &sw
	}
	return cp
}

func (s *stubEnv) restore(from *stubEnv) {
	s.seasons = from.seasons
	s.teams = from.teams
	s.players = from.players
	s.picks = from.picks
	s.trades = from.trades
	s.movements = from.movements
	s.swaps = from.swaps
	s.nextID = from.nextID
}

func copyTrade(t *models.Trade) *models.Trade {
	cp := *t
	cp.Participants = append([]models.TradeParticipant(nil), t.Participants...)
	cp.Assets = append([]models.TradeAsset(nil), t.Assets...)
	return &cp
}

// --- repository.Repository --------------------------------------------------

func (s *stubEnv) InTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	before := s.snapshot()
	if err := fn(nil); err != nil {
		s.restore(before)
		return err
	}
	return nil
}

func (s *stubEnv) GetSeasonByID(ctx context.Context, id uint64) (*models.Season, error) {
	if season, ok := s.seasons[id]; ok {
		return &season, nil
	}
	return nil, nil
}

func (s *stubEnv) ListSeasons(ctx context.Context) ([]models.Season, error) {
	var out []models.Season
	for _, season := range s.seasons {
		out = append(out, season)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *stubEnv) GetTeamByID(ctx context.Context, id uint64) (*models.Team, error) {
	if team, ok := s.teams[id]; ok {
		return &team, nil
	}
	return nil, nil
}

func (s *stubEnv) ListTeamsByIDs(ctx context.Context, ids []uint64) ([]models.Team, error) {
	out := make([]models.Team, 0, len(ids))
	for _, id := range ids {
		if team, ok := s.teams[id]; ok {
			out = append(out, team)
		}
	}
	return out, nil
}

func (s *stubEnv) ListTeams(ctx context.Context, seasonID *uint64) ([]models.Team, error) {
	var out []models.Team
	for _, team := range s.teams {
		if seasonID != nil && team.SeasonID != *seasonID {
			continue
		}
		out = append(out, team)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *stubEnv) ListPlayers(ctx context.Context, teamID *uint64) ([]models.Player, error) {
	var out []models.Player
	for _, p := range s.players {
		if teamID != nil && p.TeamID != *teamID {
			continue
		}
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *stubEnv) ListPicks(ctx context.Context, teamID *uint64) ([]models.Pick, error) {
	var out []models.Pick
	for _, p := range s.picks {
		if teamID != nil && p.CurrentTeamID != *teamID {
			continue
		}
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *stubEnv) CreateTradeTx(ctx context.Context, tx *gorm.DB, trade *models.Trade) error {
	trade.ID = s.id()
	for i := range trade.Participants {
		trade.Participants[i].ID = s.id()
		trade.Participants[i].TradeID = trade.ID
	}
	for i := range trade.Assets {
		idx := trade.Assets[i].ParticipantID
		trade.Assets[i].ID = s.id()
		trade.Assets[i].TradeID = trade.ID
		trade.Assets[i].ParticipantID = trade.Participants[idx].ID
	}
	s.trades[trade.ID] = copyTrade(trade)
	return nil
}

func (s *stubEnv) GetTradeByID(ctx context.Context, id uint64) (*models.Trade, error) {
	if t, ok := s.trades[id]; ok {
		return copyTrade(t), nil
	}
	return nil, nil
}

func (s *stubEnv) GetTradeForUpdateTx(ctx context.Context, tx *gorm.DB, id uint64) (*models.Trade, error) {
	if t, ok := s.trades[id]; ok {
		cp := *t
		cp.Participants = nil
		cp.Assets = nil
		return &cp, nil
	}
	return nil, nil
}

func (s *stubEnv) ListTrades(ctx context.Context, params repository.ListTradesParams) ([]models.Trade, error) {
	var out []models.Trade
	for _, t := range s.trades {
		if params.SeasonID != nil && t.SeasonID != *params.SeasonID {
			continue
		}
		if params.Status != nil && t.Status != *params.Status {
			continue
		}
		if params.TeamID != nil {
			found := false
			for _, p := range t.Participants {
				if p.TeamID == *params.TeamID {
					found = true
				}
			}
			if !found {
				continue
			}
		}
		out = append(out, *copyTrade(t))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *stubEnv) CountTrades(ctx context.Context, params repository.ListTradesParams) (int64, error) {
	items, _ := s.ListTrades(ctx, params)
	return int64(len(items)), nil
}

func (s *stubEnv) CountTradesByStatus(ctx context.Context, seasonID uint64) ([]repository.StatusCount, error) {
	counts := map[string]int64{}
	for _, t := range s.trades {
		if seasonID > 0 && t.SeasonID != seasonID {
			continue
		}
		counts[t.Status]++
	}
	out := make([]repository.StatusCount, 0, len(counts))
	for status, n := range counts {
		out = append(out, repository.StatusCount{Status: status, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Status < out[j].Status })
	return out, nil
}

func (s *stubEnv) UpdateTradeStatusTx(ctx context.Context, tx *gorm.DB, id uint64, from []string, to string) (int64, error) {
	t, ok := s.trades[id]
	if !ok {
		return 0, nil
	}
	for _, f := range from {
		if t.Status == f {
			t.Status = to
			return 1, nil
		}
	}
	return 0, nil
}

func (s *stubEnv) MarkTradeExecutedTx(ctx context.Context, tx *gorm.DB, id uint64, at time.Time) error {
	if t, ok := s.trades[id]; ok {
		t.Status = models.TradeStatusExecuted
		ts := at
		t.ExecutedAt = &ts
	}
	return nil
}

func (s *stubEnv) MarkTradeRevertedTx(ctx context.Context, tx *gorm.DB, id uint64, at time.Time, byUserID uint64) error {
	if t, ok := s.trades[id]; ok {
		t.Status = models.TradeStatusReverted
		ts := at
		t.RevertedAt = &ts
		user := byUserID
		t.RevertedByUserID = &user
	}
	return nil
}

func (s *stubEnv) SetTradeMade(ctx context.Context, id uint64, made bool) error {
	t, ok := s.trades[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	t.Made = made
	return nil
}

func (s *stubEnv) ListTradesPastDeadline(ctx context.Context, now time.Time) ([]models.Trade, error) {
	var out []models.Trade
	for _, t := range s.trades {
		if t.Status != models.TradeStatusProposed && t.Status != models.TradeStatusPending {
			continue
		}
		season, ok := s.seasons[t.SeasonID]
		if !ok || !season.TradeDeadline.Before(now) {
			continue
		}
		out = append(out, *copyTrade(t))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *stubEnv) GetParticipantByID(ctx context.Context, id uint64) (*models.TradeParticipant, error) {
	for _, t := range s.trades {
		for _, p := range t.Participants {
			if p.ID == id {
				cp := p
				return &cp, nil
			}
		}
	}
	return nil, nil
}

func (s *stubEnv) ListParticipantsByTradeIDTx(ctx context.Context, tx *gorm.DB, tradeID uint64) ([]models.TradeParticipant, error) {
	if t, ok := s.trades[tradeID]; ok {
		return append([]models.TradeParticipant(nil), t.Participants...), nil
	}
	return nil, nil
}

func (s *stubEnv) UpdateParticipantResponseTx(ctx context.Context, tx *gorm.DB, id uint64, status string, at time.Time) (int64, error) {
	for _, t := range s.trades {
		for i := range t.Participants {
			p := &t.Participants[i]
			if p.ID != id {
				continue
			}
			if p.ResponseStatus != models.ResponsePending {
				return 0, nil
			}
			p.ResponseStatus = status
			ts := at
			p.RespondedAt = &ts
			return 1, nil
		}
	}
	return 0, nil
}

func (s *stubEnv) ListAssetsByTradeIDTx(ctx context.Context, tx *gorm.DB, tradeID uint64) ([]models.TradeAsset, error) {
	if t, ok := s.trades[tradeID]; ok {
		return append([]models.TradeAsset(nil), t.Assets...), nil
	}
	return nil, nil
}

func (s *stubEnv) CountOpenTradeAssetsForPlayers(ctx context.Context, tx *gorm.DB, playerIDs []uint64, excludeTradeID uint64) (int64, error) {
	return s.countOpenAssets(playerIDs, excludeTradeID, models.AssetTypePlayer), nil
}

func (s *stubEnv) CountOpenTradeAssetsForPicks(ctx context.Context, tx *gorm.DB, pickIDs []uint64, excludeTradeID uint64) (int64, error) {
	return s.countOpenAssets(pickIDs, excludeTradeID, models.AssetTypePick), nil
}

func (s *stubEnv) countOpenAssets(ids []uint64, excludeTradeID uint64, assetType string) int64 {
	want := map[uint64]struct{}{}
	for _, id := range ids {
		want[id] = struct{}{}
	}
	var total int64
	for _, t := range s.trades {
		if t.ID == excludeTradeID {
			continue
		}
		if t.Status != models.TradeStatusProposed && t.Status != models.TradeStatusPending {
			continue
		}
		for i := range t.Assets {
			at, id := t.Assets[i].AssetKey()
			if at != assetType {
				continue
			}
			if _, ok := want[id]; ok {
				total++
			}
		}
	}
	return total
}

func (s *stubEnv) InsertMovementsTx(ctx context.Context, tx *gorm.DB, items []models.TradeAssetMovement) error {
	for i := range items {
		items[i].ID = s.id()
		s.movements = append(s.movements, items[i])
	}
	return nil
}

func (s *stubEnv) ListMovementsByTradeID(ctx context.Context, tradeID uint64) ([]models.TradeAssetMovement, error) {
	var out []models.TradeAssetMovement
	for _, m := range s.movements {
		if m.TradeID == tradeID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (s *stubEnv) ListExecutionMovementsTx(ctx context.Context, tx *gorm.DB, tradeID uint64) ([]models.TradeAssetMovement, error) {
	var out []models.TradeAssetMovement
	for _, m := range s.movements {
		if m.TradeID == tradeID && !m.Reversal {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (s *stubEnv) CreateSwapTx(ctx context.Context, tx *gorm.DB, sw *models.PickSwap) error {
	sw.ID = s.id()
	cp := *sw
	s.swaps[sw.ID] = &cp
	return nil
}

func (s *stubEnv) GetSwapByID(ctx context.Context, id uint64) (*models.PickSwap, error) {
	if sw, ok := s.swaps[id]; ok {
		cp := *sw
		return &cp, nil
	}
	return nil, nil
}

func (s *stubEnv) ListSwaps(ctx context.Context, params repository.ListSwapsParams) ([]models.PickSwap, error) {
	var out []models.PickSwap
	for _, sw := range s.swaps {
		out = append(out, *sw)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *stubEnv) DeleteSwapTx(ctx context.Context, tx *gorm.DB, id uint64) error {
	if _, ok := s.swaps[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(s.swaps, id)
	return nil
}

func (s *stubEnv) UpdateSwapOwner(ctx context.Context, id uint64, teamID uint64) error {
	sw, ok := s.swaps[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	sw.OwnerTeamID = teamID
	return nil
}

func (s *stubEnv) CountExecutedTradesForTeam(ctx context.Context, teamID uint64, windowStart, windowEnd time.Time) (int64, error) {
	var total int64
	for _, t := range s.trades {
		if t.Status != models.TradeStatusExecuted || t.ExecutedAt == nil {
			continue
		}
		if t.ExecutedAt.Before(windowStart) || t.ExecutedAt.After(windowEnd) {
			continue
		}
		for _, p := range t.Participants {
			if p.TeamID == teamID {
				total++
				break
			}
		}
	}
	return total, nil
}

// --- ledger.Ledger ----------------------------------------------------------

func (s *stubEnv) LockPlayers(ctx context.Context, tx *gorm.DB, ids []uint64) ([]models.Player, error) {
	out := make([]models.Player, 0, len(ids))
	seen := map[uint64]struct{}{}
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		p, ok := s.players[id]
		if !ok {
			return nil, apperr.NotFound("player not found")
		}
		out = append(out, *p)
	}
	return out, nil
}

func (s *stubEnv) LockPicks(ctx context.Context, tx *gorm.DB, ids []uint64) ([]models.Pick, error) {
	out := make([]models.Pick, 0, len(ids))
	seen := map[uint64]struct{}{}
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		p, ok := s.picks[id]
		if !ok {
			return nil, apperr.NotFound("pick not found")
		}
		out = append(out, *p)
	}
	return out, nil
}

func (s *stubEnv) AssignPlayer(ctx context.Context, tx *gorm.DB, playerID, toTeamID uint64) error {
	p, ok := s.players[playerID]
	if !ok {
		return apperr.NotFound("player %d not found", playerID)
	}
	p.TeamID = toTeamID
	return nil
}

func (s *stubEnv) AssignPick(ctx context.Context, tx *gorm.DB, pickID, toTeamID uint64) error {
	p, ok := s.picks[pickID]
	if !ok {
		return apperr.NotFound("pick %d not found", pickID)
	}
	p.CurrentTeamID = toTeamID
	return nil
}

func (s *stubEnv) SetPicksInSwap(ctx context.Context, tx *gorm.DB, pickIDs []uint64, inSwap bool) error {
	for _, id := range pickIDs {
		if p, ok := s.picks[id]; ok {
			p.InSwap = inSwap
		}
	}
	return nil
}
