package router

// Meta is the static metadata attached to a route.
type Meta struct {
	Title  string `json:"title"`
	Icon   string `json:"icon,omitempty"`
	Hidden bool   `json:"hidden"`
	Type   int    `json:"type"`
	Href   int    `json:"href"`
}

// Route describes one view. View names the component the host renders.
type Route struct {
	Path string `json:"path"`
	Name string `json:"name"`
	View string `json:"view"`
	Meta Meta   `json:"meta"`
}

const (
	PathLogin       = "/login"
	PathSimpleLogin = "/simple-login"
	PathSso         = "/sso"
	PathSsoLogin    = "/sso-login"
	PathDingScan    = "/ding-scan"
	PathDingAuth    = "/ding-auth"
	PathHome        = "/home"
)

// LoginRoutes are the screens shown before a session exists.
var LoginRoutes = []Route{
	{Path: PathLogin, Name: "Login", View: "login/index", Meta: Meta{Title: "登录", Hidden: true}},
	{Path: PathSimpleLogin, Name: "SimpleLogin", View: "login/simple-login/index", Meta: Meta{Title: "登录", Hidden: true}},
	{Path: PathSso, Name: "Sso", View: "login/sso/index", Meta: Meta{Hidden: true, Type: 1}},
	{Path: PathSsoLogin, Name: "SsoLogin", View: "login/sso/sso-login/index", Meta: Meta{Title: "sso登录", Icon: "sso-login", Hidden: true, Type: 1}},
	{Path: PathDingScan, Name: "DingScan", View: "login/ding/scan", Meta: Meta{Title: "钉钉扫码登录", Hidden: true}},
	{Path: PathDingAuth, Name: "DingAuth", View: "login/ding/auth", Meta: Meta{Title: "钉钉登录", Hidden: true}},
}

// ConstantRoutes are always registered once signed in.
var ConstantRoutes = []Route{
	{Path: PathHome, Name: "Layout", View: "home/index"},
}

// DefaultRoutes is the full static route table.
func DefaultRoutes() []Route {
	out := make([]Route, 0, len(LoginRoutes)+len(ConstantRoutes))
	out = append(out, LoginRoutes...)
	return append(out, ConstantRoutes...)
}

// publicPaths may be visited without an access token. Matched verbatim.
var publicPaths = map[string]struct{}{
	PathLogin:       {},
	PathSsoLogin:    {},
	PathDingScan:    {},
	PathSimpleLogin: {},
	PathDingAuth:    {},
	PathSso:         {},
}

// loginFamily are sent to home when a token is already present.
var loginFamily = map[string]struct{}{
	PathLogin:    {},
	PathSsoLogin: {},
	PathSso:      {},
}

func IsPublic(path string) bool {
	_, ok := publicPaths[path]
	return ok
}

func IsLoginFamily(path string) bool {
	_, ok := loginFamily[path]
	return ok
}
