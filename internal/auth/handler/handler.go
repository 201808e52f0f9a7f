package handler

import (
	"context"
	"errors"
	"net/http"

	"ftf-gateway/internal/auth"
	"ftf-gateway/internal/auth/login"
	"ftf-gateway/internal/auth/provider"
	"ftf-gateway/internal/logger"
	"ftf-gateway/internal/response"

	"github.com/gin-gonic/gin"
)

// Revoker ends credentials on logout.
type Revoker interface {
	Revoke(ctx context.Context, vendorID, bearer string) error
	RevokeAll(ctx context.Context, vendorID string) (int, error)
}

// Authenticator checks the identity header and bearer of a request.
type Authenticator interface {
	Authenticate(r *http.Request) (vendorID, bearer string, err error)
}

type Handler struct {
	providers *provider.Registry
	flow      *login.Flow
	revoker   Revoker
	authn     Authenticator
}

func NewHandler(
	registry *provider.Registry,
	flow *login.Flow,
	revoker Revoker,
	authn Authenticator,
) *Handler {
	return &Handler{
		providers: registry,
		flow:      flow,
		revoker:   revoker,
		authn:     authn,
	}
}

func (h *Handler) RegisterRoutes(r gin.IRoutes) {
	r.POST("/auth/token", h.token)
	r.GET("/auth/authorize/:provider", h.authorize)
	r.GET("/auth/callback/:provider", h.callback)
	r.POST("/auth/logout", h.logout)
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
	VendorID    string `json:"vendor_id"`
}

type tokenRequest struct {
	GrantType    string `form:"grant_type" json:"grant_type"`
	Code         string `form:"code" json:"code"`
	CodeVerifier string `form:"code_verifier" json:"code_verifier"`
	RedirectURI  string `form:"redirect_uri" json:"redirect_uri"`
	Provider     string `form:"provider" json:"provider"`
}

// token implements the authorization_code grant for clients that ran the
// provider redirect themselves and hold the code and PKCE verifier.
func (h *Handler) token(c *gin.Context) {
	var req tokenRequest
	if err := c.ShouldBind(&req); err != nil {
		response.Error(c.Writer, http.StatusBadRequest, response.CodeInvalidRequest, "malformed token request")
		return
	}

	switch req.GrantType {
	case "authorization_code":
	case "":
		response.Error(c.Writer, http.StatusBadRequest, response.CodeInvalidRequest, "grant_type is required")
		return
	default:
		response.Error(c.Writer, http.StatusBadRequest, response.CodeUnsupportedGrantType, "only authorization_code is supported")
		return
	}

	if req.Code == "" || req.CodeVerifier == "" {
		response.Error(c.Writer, http.StatusBadRequest, response.CodeInvalidRequest, "code and code_verifier are required")
		return
	}

	h.runFlow(c, req.Provider, auth.Grant{
		Code:         req.Code,
		CodeVerifier: req.CodeVerifier,
		RedirectURI:  req.RedirectURI,
	})
}

func (h *Handler) authorize(c *gin.Context) {
	p, err := h.providers.Get(c.Param("provider"))
	if err != nil {
		response.Error(c.Writer, http.StatusBadRequest, response.CodeInvalidRequest, "unknown oauth provider")
		return
	}

	state, err := generateState(c.Writer)
	if err != nil {
		response.FromError(c.Writer, err)
		return
	}
	_, challenge, err := generatePKCE(c.Writer)
	if err != nil {
		response.FromError(c.Writer, err)
		return
	}

	c.Redirect(http.StatusFound, p.AuthCodeURL(state, challenge))
}

type callbackQuery struct {
	Code             string `form:"code"`
	Error            string `form:"error"`
	ErrorDescription string `form:"error_description"`
}

func (h *Handler) callback(c *gin.Context) {
	providerName := c.Param("provider")
	if _, err := h.providers.Get(providerName); err != nil {
		response.Error(c.Writer, http.StatusBadRequest, response.CodeInvalidRequest, "unknown oauth provider")
		return
	}

	if !validateState(c.Request) {
		response.Error(c.Writer, http.StatusBadRequest, response.CodeInvalidRequest, "invalid state")
		return
	}
	clearFlowCookie(c.Writer, stateCookieName)

	var q callbackQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error(c.Writer, http.StatusBadRequest, response.CodeInvalidRequest, "malformed callback query")
		return
	}

	// The user declined or the provider refused the request.
	if q.Error != "" {
		logger.Warn("provider callback returned error", map[string]any{
			"provider": providerName,
			"error":    q.Error,
			"desc":     q.ErrorDescription,
		})
		response.Error(c.Writer, http.StatusBadRequest, response.CodeInvalidGrant, q.Error)
		return
	}

	verifier := getPKCEVerifier(c.Request)
	clearFlowCookie(c.Writer, pkceCookieName)

	grant := auth.Grant{Code: q.Code, CodeVerifier: verifier}
	if grant.Code == "" || grant.CodeVerifier == "" {
		response.Error(c.Writer, http.StatusBadRequest, response.CodeInvalidRequest, "missing code or pkce verifier")
		return
	}

	h.runFlow(c, providerName, grant)
}

func (h *Handler) runFlow(c *gin.Context, providerName string, grant auth.Grant) {
	res, err := h.flow.Run(c.Request.Context(), providerName, grant)
	if err != nil {
		fields := map[string]any{
			"provider": providerName,
			"ip":       c.ClientIP(),
			"error":    err,
		}
		var fe *login.FlowError
		if errors.As(err, &fe) {
			fields["stage"] = fe.Stage.String()
		}
		logger.Warn("login failed", fields)

		response.FromError(c.Writer, err)
		return
	}

	c.Header("Cache-Control", "no-store")
	c.JSON(http.StatusOK, tokenResponse{
		AccessToken: res.Bearer,
		TokenType:   res.TokenType,
		ExpiresIn:   res.ExpiresIn,
		VendorID:    res.VendorID,
	})
}

// logout revokes the presented credential, or every credential of the
// vendor with all=true.
func (h *Handler) logout(c *gin.Context) {
	vendorID, bearer, err := h.authn.Authenticate(c.Request)
	if err != nil {
		response.FromError(c.Writer, err)
		return
	}

	if c.Query("all") == "true" {
		n, err := h.revoker.RevokeAll(c.Request.Context(), vendorID)
		if err != nil {
			response.FromError(c.Writer, err)
			return
		}
		logger.Info("vendor logged out everywhere", map[string]any{
			"vendor_id": vendorID,
			"revoked":   n,
		})
		c.Status(http.StatusNoContent)
		return
	}

	if err := h.revoker.Revoke(c.Request.Context(), vendorID, bearer); err != nil {
		response.FromError(c.Writer, err)
		return
	}
	logger.Info("vendor logged out", map[string]any{"vendor_id": vendorID})
	c.Status(http.StatusNoContent)
}
