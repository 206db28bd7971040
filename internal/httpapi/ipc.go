package httpapi

import (
	"errors"
	"net/http"

	"breeze-console/internal/authapi"
	"breeze-console/internal/notify"
	"breeze-console/internal/router"
	"breeze-console/pkg/logger"

	"github.com/gin-gonic/gin"
)

type simpleLoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type sessionView struct {
	LoggedIn    bool             `json:"logged_in"`
	User        authapi.UserInfo `json:"user"`
	TenantID    *int64           `json:"tenant_id"`
	RoleCodes   []string         `json:"role_codes"`
	Permissions []string         `json:"permissions"`
	Locale      string           `json:"locale"`
	Route       string           `json:"route"`
	Title       string           `json:"title"`
}

func (h Handlers) SimpleLogin(c *gin.Context) {
	var req simpleLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if req.Username == "" || req.Password == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "username, password required"})
		return
	}
	user, err := h.Shell.LoginWithPassword(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		abortWithError(c, err)
		return
	}
	landed, err := h.Shell.Router.Push(c.Request.Context(), router.PathHome)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user, "location": landed.String()})
}

// Logout ends the session and tells the host where to go.
func (h Handlers) Logout(c *gin.Context) {
	target, err := h.Shell.Logout(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "location": target})
}

func (h Handlers) Session(c *gin.Context) {
	ctx := c.Request.Context()
	s := h.Shell.Session
	v := sessionView{
		LoggedIn:    s.IsLoggedIn(),
		User:        s.UserInfo(),
		RoleCodes:   s.UserRoleCodes(ctx),
		Permissions: s.UserPermissions(ctx),
		Locale:      h.Shell.Locale.String(),
		Route:       h.Shell.Router.Current().String(),
		Title:       h.Shell.Router.Title(),
	}
	if id, ok := s.TenantID(); ok {
		v.TenantID = &id
	}
	c.JSON(http.StatusOK, v)
}

func (h Handlers) HasPermission(c *gin.Context) {
	code := c.Param("code")
	c.JSON(http.StatusOK, gin.H{"code": code, "granted": h.Shell.Session.HasPermission(c.Request.Context(), code)})
}

func (h Handlers) Menus(c *gin.Context) {
	lang := c.Query("i18n")
	if lang == "" {
		lang = h.Shell.Locale.String()
	}
	env, err := h.Shell.API.ListPermission(c.Request.Context(), lang)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"menus": env.Data})
}

func (h Handlers) SsoClients(c *gin.Context) {
	env, err := h.Shell.API.GetHomeSsoClient(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"clients": env.Data})
}

type navigateRequest struct {
	Path string `json:"path"`
}

func (h Handlers) Navigate(c *gin.Context) {
	var req navigateRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Path == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "path required"})
		return
	}
	landed, err := h.Shell.Router.Push(c.Request.Context(), req.Path)
	if err != nil {
		if errors.Is(err, router.ErrBadLocation) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"location": landed.String(), "title": h.Shell.Router.Title()})
}

func (h Handlers) Notifications(c *gin.Context) {
	if h.Shell.Feed == nil {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "notification feed disabled"})
		return
	}
	c.JSON(http.StatusOK, h.Shell.Feed.Drain())
}

type dialogAnswer struct {
	Confirmed bool `json:"confirmed"`
}

func (h Handlers) AnswerDialog(c *gin.Context) {
	if h.Shell.Feed == nil {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "notification feed disabled"})
		return
	}
	var req dialogAnswer
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if err := h.Shell.Feed.Answer(c.Param("id"), req.Confirmed); err != nil {
		if errors.Is(err, notify.ErrUnknownDialog) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "dialog not pending"})
			return
		}
		abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type localeRequest struct {
	Locale string `json:"locale"`
}

func (h Handlers) SetLocale(c *gin.Context) {
	var req localeRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Locale == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "locale required"})
		return
	}
	tag := h.Shell.Locale.Set(req.Locale)
	c.JSON(http.StatusOK, gin.H{"locale": tag.String()})
}

type tenantRequest struct {
	TenantID *int64 `json:"tenant_id"`
}

// SwitchTenant changes the tenant stamped on backend calls; null clears it.
func (h Handlers) SwitchTenant(c *gin.Context) {
	var req tenantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if err := h.Shell.Session.StoreTenantID(c.Request.Context(), req.TenantID); err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tenant_id": req.TenantID})
}

// Routes lists the registered views. Hidden routes are skipped unless ?all=true.
func (h Handlers) Routes(c *gin.Context) {
	all := c.Query("all") == "true"
	out := []router.Route{}
	for _, rt := range h.Shell.Router.Routes() {
		if rt.Meta.Hidden && !all {
			continue
		}
		out = append(out, rt)
	}
	c.JSON(http.StatusOK, gin.H{"routes": out})
}

// ToMainPage acknowledges the host's hand-off to the main page.
func (h Handlers) ToMainPage(c *gin.Context) {
	var payload map[string]any
	_ = c.ShouldBindJSON(&payload)
	logger.FromGin(c).Info("main page requested", "payload_keys", len(payload))
	c.Status(http.StatusNoContent)
}

// Activity lists recent sign-in and sign-out events.
func (h Handlers) Activity(c *gin.Context) {
	evs, err := h.Shell.Audit.Events(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": evs})
}
