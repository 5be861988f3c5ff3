package limits

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/vvmafra/fba-fantasy-app-sub001/internal/apperr"
	"github.com/vvmafra/fba-fantasy-app-sub001/internal/cache"
	"github.com/vvmafra/fba-fantasy-app-sub001/internal/config"
	"github.com/vvmafra/fba-fantasy-app-sub001/internal/repository"
)

// TeamLimit is one participant's standing against the per-window trade
// limit, computed for human review before execution.
type TeamLimit struct {
	TeamID      uint64    `json:"team_id"`
	Executed    int64     `json:"executed"`
	Limit       int       `json:"limit"`
	AtLimit     bool      `json:"at_limit"`
	WindowStart time.Time `json:"window_start"`
	WindowEnd   time.Time `json:"window_end"`
}

// Checker counts executed trades per team over a rolling window. The DB is
// authoritative; Redis only caches the count so repeated limit views do not
// hammer the join.
type Checker struct {
	Repo   repository.Repository
	Cache  cache.Store
	Config config.TradeLimitsConfig
	Logger *zap.Logger
}

func (c *Checker) CountExecutedTrades(ctx context.Context, teamID uint64, windowStart, windowEnd time.Time) (int64, error) {
	if c == nil || c.Repo == nil {
		return 0, nil
	}
	key := fmt.Sprintf("fba:trade_limits:%d:%d:%d", teamID, windowStart.Unix(), windowEnd.Unix())
	if c.Cache != nil {
		if n, ok, err := c.Cache.GetInt64(ctx, key); err == nil && ok {
			return n, nil
		} else if err != nil && c.Logger != nil {
			c.Logger.Debug("trade limit cache read failed", zap.Error(err))
		}
	}
	n, err := c.Repo.CountExecutedTradesForTeam(ctx, teamID, windowStart, windowEnd)
	if err != nil {
		return 0, err
	}
	if c.Cache != nil {
		if err := c.Cache.SetInt64(ctx, key, n, c.Config.CacheTTL); err != nil && c.Logger != nil {
			c.Logger.Debug("trade limit cache write failed", zap.Error(err))
		}
	}
	return n, nil
}

// CheckTrade reports, per participant of the given trade, whether that team
// is at or over its configured limit for the rolling window ending now.
func (c *Checker) CheckTrade(ctx context.Context, tradeID uint64) ([]TeamLimit, error) {
	if c == nil || c.Repo == nil {
		return nil, nil
	}
	trade, err := c.Repo.GetTradeByID(ctx, tradeID)
	if err != nil {
		return nil, apperr.Internal("load trade", err)
	}
	if trade == nil {
		return nil, apperr.NotFound("trade %d not found", tradeID)
	}

	now := time.Now().UTC()
	windowStart := now.Add(-c.Config.Window)
	out := make([]TeamLimit, 0, len(trade.Participants))
	for _, p := range trade.Participants {
		n, err := c.CountExecutedTrades(ctx, p.TeamID, windowStart, now)
		if err != nil {
			return nil, apperr.Internal("count executed trades", err)
		}
		out = append(out, TeamLimit{
			TeamID:      p.TeamID,
			Executed:    n,
			Limit:       c.Config.PerWindow,
			AtLimit:     c.Config.PerWindow > 0 && n >= int64(c.Config.PerWindow),
			WindowStart: windowStart,
			WindowEnd:   now,
		})
	}
	return out, nil
}
