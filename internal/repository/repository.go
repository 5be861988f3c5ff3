package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/vvmafra/fba-fantasy-app-sub001/internal/models"
)

type ListTradesParams struct {
	Limit  int
	Offset int

	SeasonID *uint64
	Status   *string
	TeamID   *uint64

	OrderBy string
	Asc     *bool
}

type ListSwapsParams struct {
	Limit  int
	Offset int

	SeasonID    *uint64
	OwnerTeamID *uint64
}

// StatusCount is one row of the counts-by-status aggregate.
type StatusCount struct {
	Status string `json:"status"`
	Count  int64  `json:"count"`
}

// Repository is the persistence surface of the trade engine. Mutations that
// must be atomic run inside InTx; the *Tx variants compose into the supplied
// transaction.
type Repository interface {
	InTx(ctx context.Context, fn func(tx *gorm.DB) error) error

	// Seasons, teams, rosters (read-only collaborators).
	GetSeasonByID(ctx context.Context, id uint64) (*models.Season, error)
	ListSeasons(ctx context.Context) ([]models.Season, error)
	GetTeamByID(ctx context.Context, id uint64) (*models.Team, error)
	ListTeamsByIDs(ctx context.Context, ids []uint64) ([]models.Team, error)
	ListTeams(ctx context.Context, seasonID *uint64) ([]models.Team, error)
	ListPlayers(ctx context.Context, teamID *uint64) ([]models.Player, error)
	ListPicks(ctx context.Context, teamID *uint64) ([]models.Pick, error)

	// Trades.
	CreateTradeTx(ctx context.Context, tx *gorm.DB, trade *models.Trade) error
	GetTradeByID(ctx context.Context, id uint64) (*models.Trade, error)
	GetTradeForUpdateTx(ctx context.Context, tx *gorm.DB, id uint64) (*models.Trade, error)
	ListTrades(ctx context.Context, params ListTradesParams) ([]models.Trade, error)
	CountTrades(ctx context.Context, params ListTradesParams) (int64, error)
	CountTradesByStatus(ctx context.Context, seasonID uint64) ([]StatusCount, error)
	UpdateTradeStatusTx(ctx context.Context, tx *gorm.DB, id uint64, from []string, to string) (int64, error)
	MarkTradeExecutedTx(ctx context.Context, tx *gorm.DB, id uint64, at time.Time) error
	MarkTradeRevertedTx(ctx context.Context, tx *gorm.DB, id uint64, at time.Time, byUserID uint64) error
	SetTradeMade(ctx context.Context, id uint64, made bool) error
	ListTradesPastDeadline(ctx context.Context, now time.Time) ([]models.Trade, error)

	// Participants.
	GetParticipantByID(ctx context.Context, id uint64) (*models.TradeParticipant, error)
	ListParticipantsByTradeIDTx(ctx context.Context, tx *gorm.DB, tradeID uint64) ([]models.TradeParticipant, error)
	UpdateParticipantResponseTx(ctx context.Context, tx *gorm.DB, id uint64, status string, at time.Time) (int64, error)

	// Assets. Open trades are those still proposed or pending.
	ListAssetsByTradeIDTx(ctx context.Context, tx *gorm.DB, tradeID uint64) ([]models.TradeAsset, error)
	CountOpenTradeAssetsForPlayers(ctx context.Context, tx *gorm.DB, playerIDs []uint64, excludeTradeID uint64) (int64, error)
	CountOpenTradeAssetsForPicks(ctx context.Context, tx *gorm.DB, pickIDs []uint64, excludeTradeID uint64) (int64, error)

	// Movement log (append-only).
	InsertMovementsTx(ctx context.Context, tx *gorm.DB, items []models.TradeAssetMovement) error
	ListMovementsByTradeID(ctx context.Context, tradeID uint64) ([]models.TradeAssetMovement, error)
	ListExecutionMovementsTx(ctx context.Context, tx *gorm.DB, tradeID uint64) ([]models.TradeAssetMovement, error)

	// Pick swaps.
	CreateSwapTx(ctx context.Context, tx *gorm.DB, swap *models.PickSwap) error
	GetSwapByID(ctx context.Context, id uint64) (*models.PickSwap, error)
	ListSwaps(ctx context.Context, params ListSwapsParams) ([]models.PickSwap, error)
	DeleteSwapTx(ctx context.Context, tx *gorm.DB, id uint64) error
	UpdateSwapOwner(ctx context.Context, id uint64, teamID uint64) error

	// Trade limits.
	CountExecutedTradesForTeam(ctx context.Context, teamID uint64, windowStart, windowEnd time.Time) (int64, error)
}
