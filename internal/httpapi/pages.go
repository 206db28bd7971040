package httpapi

import (
	"net/http"
	"net/url"

	"breeze-console/internal/router"
	"breeze-console/pkg/logger"

	"github.com/gin-gonic/gin"
)

type pageView struct {
	Path  string      `json:"path"`
	Name  string      `json:"name"`
	View  string      `json:"view"`
	Title string      `json:"title"`
	Meta  router.Meta `json:"meta"`
	Query url.Values  `json:"query,omitempty"`
	Error string      `json:"error,omitempty"`

	DingQRURL string `json:"ding_qr_url,omitempty"`
}

// Page renders the view descriptor for the target the guard allowed.
func (h Handlers) Page(c *gin.Context) {
	h.renderPage(c, "")
}

func (h Handlers) renderPage(c *gin.Context, errMsg string) {
	target, ok := router.TargetFrom(c)
	if !ok || target.Route == nil {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "no such view"})
		return
	}
	v := pageView{
		Path:  target.Path,
		Name:  target.Route.Name,
		View:  target.Route.View,
		Title: h.Shell.Router.Title(),
		Meta:  target.Route.Meta,
		Query: target.Query,
		Error: errMsg,
	}
	if target.Path == router.PathDingScan {
		v.DingQRURL = h.Shell.DingScanURL()
	}
	c.JSON(http.StatusOK, v)
}

// SsoLogin completes an SSO round trip when the server hands back a ticket.
func (h Handlers) SsoLogin(c *gin.Context) {
	ticket := c.Query("ticket")
	if ticket == "" {
		h.Page(c)
		return
	}
	back := h.Shell.Config.App.Origin + router.PathSsoLogin
	if _, err := h.Shell.LoginWithTicket(c.Request.Context(), ticket, back); err != nil {
		logger.FromGin(c).Warn("sso ticket login failed", "err", err)
		h.renderPage(c, err.Error())
		return
	}
	c.Redirect(http.StatusFound, afterLogin(c))
}

// DingAuth completes a DingTalk login from the redirect's auth code.
func (h Handlers) DingAuth(c *gin.Context) {
	code := c.Query("authCode")
	if code == "" {
		h.Page(c)
		return
	}
	if _, err := h.Shell.LoginWithDingTalk(c.Request.Context(), code); err != nil {
		logger.FromGin(c).Warn("dingtalk login failed", "err", err)
		h.renderPage(c, err.Error())
		return
	}
	c.Redirect(http.StatusFound, afterLogin(c))
}

// Sso sends the user to the SSO server's authorization page.
func (h Handlers) Sso(c *gin.Context) {
	back := h.Shell.Config.App.Origin + router.PathSsoLogin
	if r := c.Query("redirect"); r != "" {
		back += "?" + url.Values{"redirect": {r}}.Encode()
	}
	env, err := h.Shell.API.GetSsoAuthURL(c.Request.Context(), back)
	if err != nil {
		logger.FromGin(c).Warn("sso auth url failed", "err", err)
		h.renderPage(c, err.Error())
		return
	}
	if env.Data == "" {
		h.renderPage(c, "sso server returned no address")
		return
	}
	c.Redirect(http.StatusFound, env.Data)
}

// afterLogin is the preserved in-app redirect, or home.
func afterLogin(c *gin.Context) string {
	if r := c.Query("redirect"); r != "" {
		if loc, err := router.ParseLocation(r); err == nil {
			return loc.String()
		}
	}
	return router.PathHome
}
