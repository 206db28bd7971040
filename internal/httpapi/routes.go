package httpapi

import (
	"breeze-console/internal/auth"
	"breeze-console/internal/rbac"
	"breeze-console/internal/router"

	"github.com/gin-gonic/gin"
)

// Register wires the console routes. Page routes run the navigation guard;
// IPC routes require a bridge token.
func Register(r *gin.Engine, h Handlers) {
	r.GET("/healthz", h.Healthz)

	guard := router.Middleware(h.Shell.Router)
	pages := r.Group("/", guard)
	{
		pages.GET(router.PathLogin, h.Page)
		pages.GET(router.PathSimpleLogin, h.Page)
		pages.GET(router.PathSso, h.Sso)
		pages.GET(router.PathSsoLogin, h.SsoLogin)
		pages.GET(router.PathDingScan, h.Page)
		pages.GET(router.PathDingAuth, h.DingAuth)
		pages.GET(router.PathHome, h.Page)
	}
	r.NoRoute(guard, h.Page)

	ipc := r.Group("/ipc", auth.RequireBridgeToken(h.Bridge))
	{
		ipc.POST("/simple-login", h.SimpleLogin)
		ipc.POST("/logout", h.Logout)
		ipc.GET("/session", h.Session)
		ipc.POST("/navigate", h.Navigate)
		ipc.GET("/notifications", h.Notifications)
		ipc.POST("/dialogs/:id", h.AnswerDialog)
		ipc.PUT("/locale", h.SetLocale)
		ipc.POST("/to-main-page", h.ToMainPage)
		ipc.GET("/activity", h.Activity)
		ipc.GET("/routes", h.Routes)

		signedIn := ipc.Group("", rbac.RequireSignedIn(h.Shell.Session))
		signedIn.GET("/menus", h.Menus)
		signedIn.GET("/sso-clients", h.SsoClients)
		signedIn.GET("/permissions/:code", h.HasPermission)
		signedIn.PUT("/tenant", h.SwitchTenant)
	}
}
