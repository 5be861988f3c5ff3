package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vvmafra/fba-fantasy-app-sub001/internal/auth"
	"github.com/vvmafra/fba-fantasy-app-sub001/internal/repository"
	"github.com/vvmafra/fba-fantasy-app-sub001/internal/swap"
)

type SwapHandler struct {
	Service *swap.Service
}

func (h *SwapHandler) Register(r *gin.Engine) {
	g := r.Group("/api/swaps")
	g.GET("", h.list)
	g.POST("", h.create)
	g.DELETE("/:id", h.remove)
	g.PATCH("/:id/owner", h.transfer)
}

func (h *SwapHandler) list(c *gin.Context) {
	params := repository.ListSwapsParams{
		Limit:       intQuery(c, "limit", 50),
		Offset:      intQuery(c, "offset", 0),
		SeasonID:    uint64QueryPtr(c, "season_id"),
		OwnerTeamID: uint64QueryPtr(c, "owner_team_id"),
	}
	items, err := h.Service.List(c.Request.Context(), params)
	if err != nil {
		Fail(c, err)
		return
	}
	Ok(c, items, nil)
}

// @Summary Create a pick swap right
// @Tags swaps
// @Accept json
// @Param body body swap.CreateParams true "swap"
// @Success 200 {object} apiResponse
// @Router /api/swaps [post]
func (h *SwapHandler) create(c *gin.Context) {
	var p swap.CreateParams
	if err := c.ShouldBindJSON(&p); err != nil {
		Error(c, http.StatusBadRequest, "invalid body", nil)
		return
	}
	item, err := h.Service.Create(c.Request.Context(), auth.FromContext(c), p)
	if err != nil {
		Fail(c, err)
		return
	}
	Ok(c, item, nil)
}

func (h *SwapHandler) remove(c *gin.Context) {
	id := uint64Param(c, "id")
	if id == 0 {
		Error(c, http.StatusBadRequest, "invalid swap id", nil)
		return
	}
	if err := h.Service.Delete(c.Request.Context(), auth.FromContext(c), id); err != nil {
		Fail(c, err)
		return
	}
	Ok(c, gin.H{"deleted": id}, nil)
}

type transferRequest struct {
	OwnerTeamID uint64 `json:"owner_team_id"`
}

func (h *SwapHandler) transfer(c *gin.Context) {
	id := uint64Param(c, "id")
	if id == 0 {
		Error(c, http.StatusBadRequest, "invalid swap id", nil)
		return
	}
	var req transferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid body", nil)
		return
	}
	item, err := h.Service.TransferOwnership(c.Request.Context(), auth.FromContext(c), id, req.OwnerTeamID)
	if err != nil {
		Fail(c, err)
		return
	}
	Ok(c, item, nil)
}
