package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ipanov/UrbanAI-sub002/internal/service"
)

type exchangeTokenReq struct {
	Provider    string `json:"provider"`
	AccessToken string `json:"accessToken"`
}

type tokenResp struct {
	Token string `json:"token"`
}

// ExchangeToken trades a provider access token for a session JWT. An
// unregistered identity gets 404 with the profile needed for the consent
// screen; nothing is persisted on that path.
func (h *Handler) ExchangeToken(c *gin.Context) {
	var in exchangeTokenReq
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	res, err := h.Auth.ExchangeToken(c.Request.Context(), in.Provider, in.AccessToken)
	if err != nil {
		h.fail(c, err)
		return
	}
	if res.RequiresRegistration {
		c.JSON(http.StatusNotFound, gin.H{
			"requiresRegistration": true,
			"provider":             res.Provider,
			"externalId":           res.Profile.ExternalID,
			"name":                 res.Profile.Name,
			"email":                res.Profile.Email,
			"pictureUrl":           res.Profile.PictureURL,
		})
		return
	}
	c.JSON(http.StatusOK, tokenResp{Token: res.Token})
}

type registerExternalReq struct {
	Provider     string `json:"provider"`
	ExternalID   string `json:"externalId"`
	AccessToken  string `json:"accessToken"`
	UserType     string `json:"userType"`
	TermsVersion string `json:"termsVersion"`
}

// RegisterExternal creates the anonymous account and returns a session JWT.
// Safe to retry: an already-registered identity gets a token, not an error.
func (h *Handler) RegisterExternal(c *gin.Context) {
	var in registerExternalReq
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	tok, u, err := h.Auth.RegisterExternal(c.Request.Context(), service.RegisterInput{
		Provider:     in.Provider,
		ExternalID:   in.ExternalID,
		AccessToken:  in.AccessToken,
		UserType:     in.UserType,
		TermsVersion: in.TermsVersion,
		IPAddress:    c.ClientIP(),
		UserAgent:    c.GetHeader("User-Agent"),
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"token":    tok,
		"userId":   u.ID,
		"username": u.Username,
	})
}

// Authorize starts the redirect flow for a provider.
func (h *Handler) Authorize(c *gin.Context) {
	url, err := h.Auth.BeginAuthorization(c.Request.Context(), c.Param("provider"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.Redirect(http.StatusFound, url)
}

// Callback redeems the provider redirect. Responds like ExchangeToken.
func (h *Handler) Callback(c *gin.Context) {
	res, err := h.Auth.CompleteAuthorization(c.Request.Context(),
		c.Query("code"), c.Query("state"))
	if err != nil {
		h.fail(c, err)
		return
	}
	if res.RequiresRegistration {
		c.JSON(http.StatusNotFound, gin.H{
			"requiresRegistration": true,
			"provider":             res.Provider,
			"externalId":           res.Profile.ExternalID,
			"name":                 res.Profile.Name,
			"email":                res.Profile.Email,
			"pictureUrl":           res.Profile.PictureURL,
		})
		return
	}
	c.JSON(http.StatusOK, tokenResp{Token: res.Token})
}

// Terms serves the active terms-of-service document.
func (h *Handler) Terms(c *gin.Context) {
	t, err := h.Auth.CurrentTerms(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}
