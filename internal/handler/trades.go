package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/vvmafra/fba-fantasy-app-sub001/internal/auth"
	"github.com/vvmafra/fba-fantasy-app-sub001/internal/limits"
	"github.com/vvmafra/fba-fantasy-app-sub001/internal/repository"
	"github.com/vvmafra/fba-fantasy-app-sub001/internal/trade"
)

type TradeHandler struct {
	Service *trade.Service
	Limits  *limits.Checker
	Logger  *zap.Logger
}

func (h *TradeHandler) Register(r *gin.Engine) {
	g := r.Group("/api/trades")
	g.GET("", h.list)
	g.GET("/counts", h.counts)
	g.GET("/my-trades", h.myTrades)
	g.GET("/team/:teamId", h.teamTrades)
	g.POST("", h.propose)
	g.POST("/reject-pending-after-deadline", h.rejectAfterDeadline)
	g.PATCH("/participants/:id", h.respond)
	g.GET("/:id", h.get)
	g.GET("/:id/trade-limits", h.tradeLimits)
	g.POST("/:id/execute", h.execute)
	g.POST("/:id/revert", h.revert)
	g.PATCH("/:id/made", h.setMade)
	g.DELETE("/:id/cancel", h.cancel)
}

// @Summary List trades
// @Tags trades
// @Param season_id query int false "season filter"
// @Param status query string false "status filter"
// @Param team_id query int false "participant team filter"
// @Param limit query int false "page size"
// @Param offset query int false "page offset"
// @Success 200 {object} apiResponse
// @Router /api/trades [get]
func (h *TradeHandler) list(c *gin.Context) {
	params := repository.ListTradesParams{
		Limit:    intQuery(c, "limit", 50),
		Offset:   intQuery(c, "offset", 0),
		SeasonID: uint64QueryPtr(c, "season_id"),
		Status:   strQueryPtr(c, "status"),
		TeamID:   uint64QueryPtr(c, "team_id"),
		OrderBy:  c.Query("order_by"),
		Asc:      boolPtr(false),
	}
	items, total, err := h.Service.List(c.Request.Context(), params)
	if err != nil {
		Fail(c, err)
		return
	}
	Ok(c, items, paginationMeta(params.Limit, params.Offset, total))
}

// @Summary Trade counts grouped by status
// @Tags trades
// @Param season_id query int false "season filter"
// @Success 200 {object} apiResponse
// @Router /api/trades/counts [get]
func (h *TradeHandler) counts(c *gin.Context) {
	var seasonID uint64
	if v := uint64QueryPtr(c, "season_id"); v != nil {
		seasonID = *v
	}
	rows, err := h.Service.CountsByStatus(c.Request.Context(), seasonID)
	if err != nil {
		Fail(c, err)
		return
	}
	Ok(c, rows, nil)
}

func (h *TradeHandler) myTrades(c *gin.Context) {
	id := auth.FromContext(c)
	if id.TeamID == 0 {
		Error(c, http.StatusForbidden, "caller has no team", nil)
		return
	}
	h.listForTeam(c, id.TeamID)
}

func (h *TradeHandler) teamTrades(c *gin.Context) {
	teamID := uint64Param(c, "teamId")
	if teamID == 0 {
		Error(c, http.StatusBadRequest, "invalid team id", nil)
		return
	}
	if !auth.FromContext(c).OwnsTeam(teamID) {
		Error(c, http.StatusForbidden, "not allowed to view this team's trades", nil)
		return
	}
	h.listForTeam(c, teamID)
}

func (h *TradeHandler) listForTeam(c *gin.Context, teamID uint64) {
	params := repository.ListTradesParams{
		Limit:    intQuery(c, "limit", 50),
		Offset:   intQuery(c, "offset", 0),
		SeasonID: uint64QueryPtr(c, "season_id"),
		Status:   strQueryPtr(c, "status"),
		TeamID:   &teamID,
		Asc:      boolPtr(false),
	}
	items, total, err := h.Service.List(c.Request.Context(), params)
	if err != nil {
		Fail(c, err)
		return
	}
	Ok(c, items, paginationMeta(params.Limit, params.Offset, total))
}

// @Summary Trade detail with participants and assets
// @Tags trades
// @Param id path int true "trade id"
// @Success 200 {object} apiResponse
// @Router /api/trades/{id} [get]
func (h *TradeHandler) get(c *gin.Context) {
	id := uint64Param(c, "id")
	if id == 0 {
		Error(c, http.StatusBadRequest, "invalid trade id", nil)
		return
	}
	item, err := h.Service.Get(c.Request.Context(), id)
	if err != nil {
		Fail(c, err)
		return
	}
	if item == nil {
		Error(c, http.StatusNotFound, "trade not found", nil)
		return
	}
	Ok(c, item, nil)
}

// @Summary Per-participant trade-limit standing
// @Tags trades
// @Param id path int true "trade id"
// @Success 200 {object} apiResponse
// @Router /api/trades/{id}/trade-limits [get]
func (h *TradeHandler) tradeLimits(c *gin.Context) {
	id := uint64Param(c, "id")
	if id == 0 {
		Error(c, http.StatusBadRequest, "invalid trade id", nil)
		return
	}
	rows, err := h.Limits.CheckTrade(c.Request.Context(), id)
	if err != nil {
		Fail(c, err)
		return
	}
	Ok(c, rows, nil)
}

// @Summary Propose a trade
// @Tags trades
// @Accept json
// @Param body body trade.Proposal true "proposal"
// @Success 200 {object} apiResponse
// @Router /api/trades [post]
func (h *TradeHandler) propose(c *gin.Context) {
	var p trade.Proposal
	if err := c.ShouldBindJSON(&p); err != nil {
		Error(c, http.StatusBadRequest, "invalid body", nil)
		return
	}
	item, err := h.Service.Propose(c.Request.Context(), auth.FromContext(c), p)
	if err != nil {
		Fail(c, err)
		return
	}
	Ok(c, item, nil)
}

type respondRequest struct {
	ResponseStatus string `json:"response_status"`
}

// @Summary Accept or reject a trade as one participant
// @Tags trades
// @Accept json
// @Param id path int true "participant id"
// @Param body body respondRequest true "response"
// @Success 200 {object} apiResponse
// @Router /api/trades/participants/{id} [patch]
func (h *TradeHandler) respond(c *gin.Context) {
	id := uint64Param(c, "id")
	if id == 0 {
		Error(c, http.StatusBadRequest, "invalid participant id", nil)
		return
	}
	var req respondRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid body", nil)
		return
	}
	item, err := h.Service.Respond(c.Request.Context(), auth.FromContext(c), id, strings.TrimSpace(req.ResponseStatus))
	if err != nil {
		Fail(c, err)
		return
	}
	Ok(c, item, nil)
}

// @Summary Execute an accepted trade (admin)
// @Tags trades
// @Param id path int true "trade id"
// @Success 200 {object} apiResponse
// @Router /api/trades/{id}/execute [post]
func (h *TradeHandler) execute(c *gin.Context) {
	id := uint64Param(c, "id")
	if id == 0 {
		Error(c, http.StatusBadRequest, "invalid trade id", nil)
		return
	}
	item, err := h.Service.Execute(c.Request.Context(), auth.FromContext(c), id)
	if err != nil {
		Fail(c, err)
		return
	}
	Ok(c, item, nil)
}

type revertRequest struct {
	RevertedByUser uint64 `json:"reverted_by_user"`
}

// @Summary Revert an executed trade (admin)
// @Tags trades
// @Accept json
// @Param id path int true "trade id"
// @Param body body revertRequest true "who reverts"
// @Success 200 {object} apiResponse
// @Router /api/trades/{id}/revert [post]
func (h *TradeHandler) revert(c *gin.Context) {
	id := uint64Param(c, "id")
	if id == 0 {
		Error(c, http.StatusBadRequest, "invalid trade id", nil)
		return
	}
	var req revertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid body", nil)
		return
	}
	item, err := h.Service.Revert(c.Request.Context(), auth.FromContext(c), id, req.RevertedByUser)
	if err != nil {
		Fail(c, err)
		return
	}
	Ok(c, item, nil)
}

type madeRequest struct {
	Made bool `json:"made"`
}

func (h *TradeHandler) setMade(c *gin.Context) {
	id := uint64Param(c, "id")
	if id == 0 {
		Error(c, http.StatusBadRequest, "invalid trade id", nil)
		return
	}
	var req madeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid body", nil)
		return
	}
	item, err := h.Service.SetMade(c.Request.Context(), auth.FromContext(c), id, req.Made)
	if err != nil {
		Fail(c, err)
		return
	}
	Ok(c, item, nil)
}

func (h *TradeHandler) cancel(c *gin.Context) {
	id := uint64Param(c, "id")
	if id == 0 {
		Error(c, http.StatusBadRequest, "invalid trade id", nil)
		return
	}
	item, err := h.Service.Cancel(c.Request.Context(), auth.FromContext(c), id)
	if err != nil {
		Fail(c, err)
		return
	}
	Ok(c, item, nil)
}

// @Summary Reject all open trades past their season deadline (admin)
// @Tags trades
// @Success 200 {object} apiResponse
// @Router /api/trades/reject-pending-after-deadline [post]
func (h *TradeHandler) rejectAfterDeadline(c *gin.Context) {
	n, err := h.Service.RejectPendingAfterDeadline(c.Request.Context(), auth.FromContext(c))
	if err != nil {
		Fail(c, err)
		return
	}
	if h.Logger != nil && n > 0 {
		h.Logger.Info("deadline sweep via API", zap.Int("rejected", n))
	}
	Ok(c, gin.H{"rejected": n}, nil)
}
