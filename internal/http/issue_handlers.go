package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ipanov/UrbanAI-sub002/internal/service"
)

type createIssueReq struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	PhotoURL    *string `json:"photoUrl"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	Address     *string `json:"address"`
}

// CreateIssue reports a new issue for the caller.
func (h *Handler) CreateIssue(c *gin.Context) {
	var in createIssueReq
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	is, err := h.Issues.Create(c.Request.Context(), actor(c), service.CreateIssueInput{
		Title:       in.Title,
		Description: in.Description,
		PhotoURL:    in.PhotoURL,
		Latitude:    in.Latitude,
		Longitude:   in.Longitude,
		Address:     in.Address,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.Header("Location", "/api/issues/"+is.ID)
	c.JSON(http.StatusCreated, is)
}

func (h *Handler) GetIssue(c *gin.Context) {
	is, err := h.Issues.Get(c.Request.Context(), actor(c), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, is)
}

type updateIssueReq struct {
	Title       *string  `json:"title"`
	Description *string  `json:"description"`
	PhotoURL    *string  `json:"photoUrl"`
	Latitude    *float64 `json:"latitude"`
	Longitude   *float64 `json:"longitude"`
	Address     *string  `json:"address"`
	Status      *string  `json:"status"`
	Resolution  *string  `json:"resolution"`
}

// UpdateIssue applies a partial update; absent fields are left unchanged.
func (h *Handler) UpdateIssue(c *gin.Context) {
	var in updateIssueReq
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	is, err := h.Issues.Update(c.Request.Context(), actor(c), c.Param("id"), service.UpdateIssueInput{
		Title:       in.Title,
		Description: in.Description,
		PhotoURL:    in.PhotoURL,
		Latitude:    in.Latitude,
		Longitude:   in.Longitude,
		Address:     in.Address,
		Status:      in.Status,
		Resolution:  in.Resolution,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, is)
}

func (h *Handler) DeleteIssue(c *gin.Context) {
	if err := h.Issues.Delete(c.Request.Context(), actor(c), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ListIssues returns everything for Authority and Investor callers, and the
// caller's own reports otherwise.
func (h *Handler) ListIssues(c *gin.Context) {
	issues, err := h.Issues.List(c.Request.Context(), actor(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, issues)
}
