package gormrepository

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/vvmafra/fba-fantasy-app-sub001/internal/models"
	"github.com/vvmafra/fba-fantasy-app-sub001/internal/repository"
)

type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) InTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.WithContext(ctx).Transaction(fn)
}

// --- seasons & teams --------------------------------------------------------

func (s *Store) GetSeasonByID(ctx context.Context, id uint64) (*models.Season, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var item models.Season
	err := s.db.WithContext(ctx).First(&item, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) ListSeasons(ctx context.Context) ([]models.Season, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var items []models.Season
	if err := s.db.WithContext(ctx).Order("id asc").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) GetTeamByID(ctx context.Context, id uint64) (*models.Team, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var item models.Team
	err := s.db.WithContext(ctx).First(&item, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) ListTeamsByIDs(ctx context.Context, ids []uint64) ([]models.Team, error) {
	if s == nil || s.db == nil || len(ids) == 0 {
		return nil, nil
	}
	var items []models.Team
	if err := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) ListTeams(ctx context.Context, seasonID *uint64) ([]models.Team, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	query := s.db.WithContext(ctx).Model(&models.Team{})
	if seasonID != nil && *seasonID > 0 {
		query = query.Where("season_id = ?", *seasonID)
	}
	var items []models.Team
	if err := query.Order("id asc").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) ListPlayers(ctx context.Context, teamID *uint64) ([]models.Player, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	query := s.db.WithContext(ctx).Model(&models.Player{})
	if teamID != nil && *teamID > 0 {
		query = query.Where("team_id = ?", *teamID)
	}
	var items []models.Player
	if err := query.Order("id asc").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) ListPicks(ctx context.Context, teamID *uint64) ([]models.Pick, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	query := s.db.WithContext(ctx).Model(&models.Pick{})
	if teamID != nil && *teamID > 0 {
		query = query.Where("current_team_id = ?", *teamID)
	}
	var items []models.Pick
	if err := query.Order("id asc").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// --- trades -----------------------------------------------------------------

// CreateTradeTx inserts the trade, its participants, and its assets as one
// unit. Incoming assets carry the contributing participant's index within
// trade.Participants in ParticipantID; it is swapped for the real row id
// once participants are inserted.
func (s *Store) CreateTradeTx(ctx context.Context, tx *gorm.DB, trade *models.Trade) error {
	if tx == nil || trade == nil {
		return nil
	}
	assets := trade.Assets
	trade.Assets = nil

	if err := tx.WithContext(ctx).Create(trade).Error; err != nil {
		return err
	}
	for i := range assets {
		idx := assets[i].ParticipantID
		if idx >= uint64(len(trade.Participants)) {
			return errors.New("asset references unknown participant")
		}
		assets[i].TradeID = trade.ID
		assets[i].ParticipantID = trade.Participants[idx].ID
	}
	if len(assets) > 0 {
		if err := tx.WithContext(ctx).Create(&assets).Error; err != nil {
			return err
		}
	}
	trade.Assets = assets
	return nil
}

func (s *Store) GetTradeByID(ctx context.Context, id uint64) (*models.Trade, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var item models.Trade
	err := s.db.WithContext(ctx).
		Preload("Participants").
		Preload("Assets").
		First(&item, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// GetTradeForUpdateTx locks the trade row for the duration of the
// transaction. This is what serializes execute/revert/cancel against each
// other for the same trade.
func (s *Store) GetTradeForUpdateTx(ctx context.Context, tx *gorm.DB, id uint64) (*models.Trade, error) {
	if tx == nil {
		return nil, nil
	}
	var item models.Trade
	err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&item, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) tradeQuery(ctx context.Context, params repository.ListTradesParams) *gorm.DB {
	query := s.db.WithContext(ctx).Model(&models.Trade{})
	if params.SeasonID != nil && *params.SeasonID > 0 {
		query = query.Where("season_id = ?", *params.SeasonID)
	}
	if params.Status != nil && strings.TrimSpace(*params.Status) != "" {
		query = query.Where("status = ?", strings.TrimSpace(*params.Status))
	}
	if params.TeamID != nil && *params.TeamID > 0 {
		query = query.Where(
			"id IN (?)",
			s.db.Model(&models.TradeParticipant{}).
				Select("trade_id").
				Where("team_id = ?", *params.TeamID),
		)
	}
	return query
}

func (s *Store) ListTrades(ctx context.Context, params repository.ListTradesParams) ([]models.Trade, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	query := s.tradeQuery(ctx, params)
	query = applyOrder(query, params.OrderBy, params.Asc, "created_at")
	limit := normalizeLimit(params.Limit, 50)
	offset := normalizeOffset(params.Offset)
	var items []models.Trade
	if err := query.
		Preload("Participants").
		Preload("Assets").
		Limit(limit).Offset(offset).
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) CountTrades(ctx context.Context, params repository.ListTradesParams) (int64, error) {
	if s == nil || s.db == nil {
		return 0, nil
	}
	var total int64
	if err := s.tradeQuery(ctx, params).Count(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}

func (s *Store) CountTradesByStatus(ctx context.Context, seasonID uint64) ([]repository.StatusCount, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	query := s.db.WithContext(ctx).Model(&models.Trade{}).
		Select("status, COUNT(*) AS count").
		Group("status")
	if seasonID > 0 {
		query = query.Where("season_id = ?", seasonID)
	}
	var rows []repository.StatusCount
	if err := query.Order("status asc").Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// UpdateTradeStatusTx performs a guarded transition and reports how many
// rows moved; zero means the trade was not in any of the expected source
// states.
func (s *Store) UpdateTradeStatusTx(ctx context.Context, tx *gorm.DB, id uint64, from []string, to string) (int64, error) {
	if tx == nil {
		return 0, nil
	}
	res := tx.WithContext(ctx).Model(&models.Trade{}).
		Where("id = ?", id).
		Where("status IN ?", from).
		Updates(map[string]any{
			"status":     to,
			"updated_at": time.Now().UTC(),
		})
	return res.RowsAffected, res.Error
}

func (s *Store) MarkTradeExecutedTx(ctx context.Context, tx *gorm.DB, id uint64, at time.Time) error {
	if tx == nil {
		return nil
	}
	return tx.WithContext(ctx).Model(&models.Trade{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":      models.TradeStatusExecuted,
			"executed_at": at,
			"updated_at":  at,
		}).Error
}

func (s *Store) MarkTradeRevertedTx(ctx context.Context, tx *gorm.DB, id uint64, at time.Time, byUserID uint64) error {
	if tx == nil {
		return nil
	}
	return tx.WithContext(ctx).Model(&models.Trade{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":              models.TradeStatusReverted,
			"reverted_at":         at,
			"reverted_by_user_id": byUserID,
			"updated_at":          at,
		}).Error
}

func (s *Store) SetTradeMade(ctx context.Context, id uint64, made bool) error {
	if s == nil || s.db == nil {
		return nil
	}
	res := s.db.WithContext(ctx).Model(&models.Trade{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"made":       made,
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (s *Store) ListTradesPastDeadline(ctx context.Context, now time.Time) ([]models.Trade, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var items []models.Trade
	err := s.db.WithContext(ctx).Model(&models.Trade{}).
		Joins("JOIN seasons ON seasons.id = trades.season_id").
		Where("trades.status IN ?", []string{models.TradeStatusProposed, models.TradeStatusPending}).
		Where("seasons.trade_deadline < ?", now).
		Order("trades.id asc").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

// --- participants -----------------------------------------------------------

func (s *Store) GetParticipantByID(ctx context.Context, id uint64) (*models.TradeParticipant, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var item models.TradeParticipant
	err := s.db.WithContext(ctx).First(&item, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) ListParticipantsByTradeIDTx(ctx context.Context, tx *gorm.DB, tradeID uint64) ([]models.TradeParticipant, error) {
	if tx == nil {
		return nil, nil
	}
	var items []models.TradeParticipant
	if err := tx.WithContext(ctx).
		Where("trade_id = ?", tradeID).
		Order("id asc").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// UpdateParticipantResponseTx is guarded on the current response still being
// pending, which makes the response write-once at the database level.
func (s *Store) UpdateParticipantResponseTx(ctx context.Context, tx *gorm.DB, id uint64, status string, at time.Time) (int64, error) {
	if tx == nil {
		return 0, nil
	}
	res := tx.WithContext(ctx).Model(&models.TradeParticipant{}).
		Where("id = ?", id).
		Where("response_status = ?", models.ResponsePending).
		Updates(map[string]any{
			"response_status": status,
			"responded_at":    at,
			"updated_at":      at,
		})
	return res.RowsAffected, res.Error
}

// --- assets -----------------------------------------------------------------

func (s *Store) ListAssetsByTradeIDTx(ctx context.Context, tx *gorm.DB, tradeID uint64) ([]models.TradeAsset, error) {
	if tx == nil {
		return nil, nil
	}
	var items []models.TradeAsset
	if err := tx.WithContext(ctx).
		Where("trade_id = ?", tradeID).
		Order("id asc").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) CountOpenTradeAssetsForPlayers(ctx context.Context, tx *gorm.DB, playerIDs []uint64, excludeTradeID uint64) (int64, error) {
	if tx == nil || len(playerIDs) == 0 {
		return 0, nil
	}
	var total int64
	err := tx.WithContext(ctx).Model(&models.TradeAsset{}).
		Joins("JOIN trades ON trades.id = trade_assets.trade_id").
		Where("trade_assets.player_id IN ?", playerIDs).
		Where("trades.status IN ?", []string{models.TradeStatusProposed, models.TradeStatusPending}).
		Where("trades.id <> ?", excludeTradeID).
		Count(&total).Error
	return total, err
}

func (s *Store) CountOpenTradeAssetsForPicks(ctx context.Context, tx *gorm.DB, pickIDs []uint64, excludeTradeID uint64) (int64, error) {
	if tx == nil || len(pickIDs) == 0 {
		return 0, nil
	}
	var total int64
	err := tx.WithContext(ctx).Model(&models.TradeAsset{}).
		Joins("JOIN trades ON trades.id = trade_assets.trade_id").
		Where("trade_assets.pick_id IN ?", pickIDs).
		Where("trades.status IN ?", []string{models.TradeStatusProposed, models.TradeStatusPending}).
		Where("trades.id <> ?", excludeTradeID).
		Count(&total).Error
	return total, err
}

// --- movement log -----------------------------------------------------------

func (s *Store) InsertMovementsTx(ctx context.Context, tx *gorm.DB, items []models.TradeAssetMovement) error {
	if tx == nil || len(items) == 0 {
		return nil
	}
	return tx.WithContext(ctx).Create(&items).Error
}

func (s *Store) ListMovementsByTradeID(ctx context.Context, tradeID uint64) ([]models.TradeAssetMovement, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var items []models.TradeAssetMovement
	if err := s.db.WithContext(ctx).
		Where("trade_id = ?", tradeID).
		Order("id asc").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// ListExecutionMovementsTx returns only the original execution rows, newest
// first, which is the order reversal walks them in.
func (s *Store) ListExecutionMovementsTx(ctx context.Context, tx *gorm.DB, tradeID uint64) ([]models.TradeAssetMovement, error) {
	if tx == nil {
		return nil, nil
	}
	var items []models.TradeAssetMovement
	if err := tx.WithContext(ctx).
		Where("trade_id = ?", tradeID).
		Where("reversal = ?", false).
		Order("id desc").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// --- pick swaps -------------------------------------------------------------

func (s *Store) CreateSwapTx(ctx context.Context, tx *gorm.DB, swap *models.PickSwap) error {
	if tx == nil || swap == nil {
		return nil
	}
	return tx.WithContext(ctx).Create(swap).Error
}

func (s *Store) GetSwapByID(ctx context.Context, id uint64) (*models.PickSwap, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var item models.PickSwap
	err := s.db.WithContext(ctx).First(&item, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) ListSwaps(ctx context.Context, params repository.ListSwapsParams) ([]models.PickSwap, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	query := s.db.WithContext(ctx).Model(&models.PickSwap{})
	if params.SeasonID != nil && *params.SeasonID > 0 {
		query = query.Where("season_id = ?", *params.SeasonID)
	}
	if params.OwnerTeamID != nil && *params.OwnerTeamID > 0 {
		query = query.Where("owner_team_id = ?", *params.OwnerTeamID)
	}
	limit := normalizeLimit(params.Limit, 50)
	offset := normalizeOffset(params.Offset)
	var items []models.PickSwap
	if err := query.Order("id asc").Limit(limit).Offset(offset).Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) DeleteSwapTx(ctx context.Context, tx *gorm.DB, id uint64) error {
	if tx == nil {
		return nil
	}
	res := tx.WithContext(ctx).Delete(&models.PickSwap{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (s *Store) UpdateSwapOwner(ctx context.Context, id uint64, teamID uint64) error {
	if s == nil || s.db == nil {
		return nil
	}
	res := s.db.WithContext(ctx).Model(&models.PickSwap{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"owner_team_id": teamID,
			"updated_at":    time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// --- trade limits -----------------------------------------------------------

func (s *Store) CountExecutedTradesForTeam(ctx context.Context, teamID uint64, windowStart, windowEnd time.Time) (int64, error) {
	if s == nil || s.db == nil {
		return 0, nil
	}
	var total int64
	err := s.db.WithContext(ctx).Model(&models.Trade{}).
		Joins("JOIN trade_participants ON trade_participants.trade_id = trades.id").
		Where("trade_participants.team_id = ?", teamID).
		Where("trades.status = ?", models.TradeStatusExecuted).
		Where("trades.executed_at >= ?", windowStart).
		Where("trades.executed_at <= ?", windowEnd).
		Count(&total).Error
	return total, err
}

// --- helpers ----------------------------------------------------------------

func applyOrder(query *gorm.DB, orderBy string, asc *bool, def string) *gorm.DB {
	col := strings.TrimSpace(strings.ToLower(orderBy))
	switch col {
	case "created_at", "executed_at", "id", "status":
	default:
		col = def
	}
	dir := "desc"
	if asc != nil && *asc {
		dir = "asc"
	}
	return query.Order(col + " " + dir)
}

func normalizeLimit(limit, def int) int {
	if limit <= 0 {
		return def
	}
	if limit > 500 {
		return 500
	}
	return limit
}

func normalizeOffset(offset int) int {
	if offset < 0 {
		return 0
	}
	return offset
}
