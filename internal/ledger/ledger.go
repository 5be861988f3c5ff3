package ledger

import (
	"context"
	"sort"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/vvmafra/fba-fantasy-app-sub001/internal/apperr"
	"github.com/vvmafra/fba-fantasy-app-sub001/internal/models"
)

// Ledger is the authoritative view of which team owns each player and pick.
// All methods compose into the caller's transaction; locking reads hold row
// locks until that transaction commits or rolls back.
type Ledger interface {
	LockPlayers(ctx context.Context, tx *gorm.DB, ids []uint64) ([]models.Player, error)
	LockPicks(ctx context.Context, tx *gorm.DB, ids []uint64) ([]models.Pick, error)
	AssignPlayer(ctx context.Context, tx *gorm.DB, playerID, toTeamID uint64) error
	AssignPick(ctx context.Context, tx *gorm.DB, pickID, toTeamID uint64) error
	SetPicksInSwap(ctx context.Context, tx *gorm.DB, pickIDs []uint64, inSwap bool) error
}

type GormLedger struct{}

func NewGorm() *GormLedger {
	return &GormLedger{}
}

// LockPlayers loads the given players with FOR UPDATE row locks. IDs are
// sorted first so concurrent trades touching overlapping assets acquire
// locks in the same order.
func (l *GormLedger) LockPlayers(ctx context.Context, tx *gorm.DB, ids []uint64) ([]models.Player, error) {
	if tx == nil || len(ids) == 0 {
		return nil, nil
	}
	sorted := sortedIDs(ids)
	var items []models.Player
	if err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id IN ?", sorted).
		Order("id asc").
		Find(&items).Error; err != nil {
		return nil, err
	}
	if len(items) != len(sorted) {
		return nil, apperr.NotFound("player not found")
	}
	return items, nil
}

func (l *GormLedger) LockPicks(ctx context.Context, tx *gorm.DB, ids []uint64) ([]models.Pick, error) {
	if tx == nil || len(ids) == 0 {
		return nil, nil
	}
	sorted := sortedIDs(ids)
	var items []models.Pick
	if err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id IN ?", sorted).
		Order("id asc").
		Find(&items).Error; err != nil {
		return nil, err
	}
	if len(items) != len(sorted) {
		return nil, apperr.NotFound("pick not found")
	}
	return items, nil
}

func (l *GormLedger) AssignPlayer(ctx context.Context, tx *gorm.DB, playerID, toTeamID uint64) error {
	if tx == nil {
		return nil
	}
	res := tx.WithContext(ctx).Model(&models.Player{}).
		Where("id = ?", playerID).
		Updates(map[string]any{
			"team_id":    toTeamID,
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("player %d not found", playerID)
	}
	return nil
}

// AssignPick moves current ownership only; original_team_id is permanent
// provenance and is never touched.
func (l *GormLedger) AssignPick(ctx context.Context, tx *gorm.DB, pickID, toTeamID uint64) error {
	if tx == nil {
		return nil
	}
	res := tx.WithContext(ctx).Model(&models.Pick{}).
		Where("id = ?", pickID).
		Updates(map[string]any{
			"current_team_id": toTeamID,
			"updated_at":      time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("pick %d not found", pickID)
	}
	return nil
}

func (l *GormLedger) SetPicksInSwap(ctx context.Context, tx *gorm.DB, pickIDs []uint64, inSwap bool) error {
	if tx == nil || len(pickIDs) == 0 {
		return nil
	}
	return tx.WithContext(ctx).Model(&models.Pick{}).
		Where("id IN ?", sortedIDs(pickIDs)).
		Updates(map[string]any{
			"in_swap":    inSwap,
			"updated_at": time.Now().UTC(),
		}).Error
}

func sortedIDs(ids []uint64) []uint64 {
	seen := make(map[uint64]struct{}, len(ids))
	out := make([]uint64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
