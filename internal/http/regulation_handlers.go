package http

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ipanov/UrbanAI-sub002/internal/domain"
)

func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", s)
}

type regulationReq struct {
	Title         string   `json:"title"`
	Content       string   `json:"content"`
	EffectiveDate string   `json:"effectiveDate"`
	Location      string   `json:"location"`
	Keywords      []string `json:"keywords"`
	SourceURL     string   `json:"sourceUrl"`
	Jurisdiction  string   `json:"jurisdiction"`
}

func (in regulationReq) toDomain() *domain.Regulation {
	reg := &domain.Regulation{
		Title:        in.Title,
		Content:      in.Content,
		Location:     in.Location,
		Keywords:     in.Keywords,
		SourceURL:    in.SourceURL,
		Jurisdiction: in.Jurisdiction,
	}
	if t, err := parseDate(in.EffectiveDate); err == nil {
		reg.EffectiveDate = t
	}
	return reg
}

// CreateRegulation adds a document to the catalog. Authority only.
func (h *Handler) CreateRegulation(c *gin.Context) {
	var in regulationReq
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	reg := in.toDomain()
	if err := h.Regulations.Create(c.Request.Context(), actor(c), reg); err != nil {
		h.fail(c, err)
		return
	}
	c.Header("Location", "/api/regulations/"+reg.ID)
	c.JSON(http.StatusCreated, reg)
}

func (h *Handler) GetRegulation(c *gin.Context) {
	reg, err := h.Regulations.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, reg)
}

func (h *Handler) UpdateRegulation(c *gin.Context) {
	var in regulationReq
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	reg := in.toDomain()
	reg.ID = c.Param("id")
	if err := h.Regulations.Update(c.Request.Context(), actor(c), reg); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, reg)
}

func (h *Handler) DeleteRegulation(c *gin.Context) {
	if err := h.Regulations.Delete(c.Request.Context(), actor(c), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ListRegulations filters by ?q=, ?location= or ?keywords= (comma separated).
func (h *Handler) ListRegulations(c *gin.Context) {
	var keywords []string
	if kw := c.Query("keywords"); kw != "" {
		for _, k := range strings.Split(kw, ",") {
			if k = strings.TrimSpace(k); k != "" {
				keywords = append(keywords, k)
			}
		}
	}
	regs, err := h.Regulations.Query(c.Request.Context(),
		c.Query("location"), c.Query("q"), keywords)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, regs)
}
