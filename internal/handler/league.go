package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vvmafra/fba-fantasy-app-sub001/internal/repository"
)

// LeagueHandler serves the read-only league state clients need to assemble a
// proposal: seasons, teams, and current rosters. Mutating any of these is out
// of scope for the trade engine.
type LeagueHandler struct {
	Repo repository.Repository
}

func (h *LeagueHandler) Register(r *gin.Engine) {
	g := r.Group("/api")
	g.GET("/seasons", h.seasons)
	g.GET("/teams", h.teams)
	g.GET("/teams/:id", h.team)
	g.GET("/players", h.players)
	g.GET("/picks", h.picks)
}

func (h *LeagueHandler) seasons(c *gin.Context) {
	items, err := h.Repo.ListSeasons(c.Request.Context())
	if err != nil {
		Fail(c, err)
		return
	}
	Ok(c, items, nil)
}

func (h *LeagueHandler) teams(c *gin.Context) {
	items, err := h.Repo.ListTeams(c.Request.Context(), uint64QueryPtr(c, "season_id"))
	if err != nil {
		Fail(c, err)
		return
	}
	Ok(c, items, nil)
}

func (h *LeagueHandler) team(c *gin.Context) {
	id := uint64Param(c, "id")
	if id == 0 {
		Error(c, http.StatusBadRequest, "invalid team id", nil)
		return
	}
	item, err := h.Repo.GetTeamByID(c.Request.Context(), id)
	if err != nil {
		Fail(c, err)
		return
	}
	if item == nil {
		Error(c, http.StatusNotFound, "team not found", nil)
		return
	}
	Ok(c, item, nil)
}

func (h *LeagueHandler) players(c *gin.Context) {
	items, err := h.Repo.ListPlayers(c.Request.Context(), uint64QueryPtr(c, "team_id"))
	if err != nil {
		Fail(c, err)
		return
	}
	Ok(c, items, nil)
}

func (h *LeagueHandler) picks(c *gin.Context) {
	items, err := h.Repo.ListPicks(c.Request.Context(), uint64QueryPtr(c, "team_id"))
	if err != nil {
		Fail(c, err)
		return
	}
	Ok(c, items, nil)
}
