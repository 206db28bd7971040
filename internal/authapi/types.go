package authapi

import (
	"strings"

	"breeze-console/internal/request"
)

// Authority is one granted authority from the user profile.
type Authority struct {
	Authority string `json:"authority"`
}

// rolePrefix marks role authorities; everything else is a permission string.
const rolePrefix = "ROLE_"

// IsPermission reports whether the authority is a permission string
// (e.g. "btn:add") rather than a role marker.
func (a Authority) IsPermission() bool {
	return a.Authority != "" && !strings.HasPrefix(a.Authority, rolePrefix)
}

// UserInfo is the SSO user profile.
type UserInfo struct {
	ID            request.Long   `json:"id,omitempty"`
	Username      string         `json:"username,omitempty"`
	Nickname      string         `json:"nickname,omitempty"`
	Avatar        string         `json:"avatar,omitempty"`
	Email         string         `json:"email,omitempty"`
	Phone         string         `json:"phone,omitempty"`
	TenantID      *request.Int64 `json:"tenantId,omitempty"`
	UserRoleCodes []string       `json:"userRoleCodes,omitempty"`
	Authorities   []Authority    `json:"authorities,omitempty"`
}

// Tenant returns the tenant id as a plain pointer, nil when absent.
func (u UserInfo) Tenant() *int64 { return (*int64)(u.TenantID) }

// IsZero reports whether the profile is the empty sentinel.
func (u UserInfo) IsZero() bool {
	return u.ID == "" && u.Username == "" && u.TenantID == nil &&
		len(u.UserRoleCodes) == 0 && len(u.Authorities) == 0
}

// Permissions returns the permission strings among the authorities, in order.
func (u UserInfo) Permissions() []string {
	out := make([]string, 0, len(u.Authorities))
	for _, a := range u.Authorities {
		if a.IsPermission() {
			out = append(out, a.Authority)
		}
	}
	return out
}

// Menu is one node of the permission menu tree.
type Menu struct {
	ID         request.Long `json:"id"`
	ParentID   request.Long `json:"parentId,omitempty"`
	Name       string       `json:"name,omitempty"`
	Title      string       `json:"title,omitempty"`
	Path       string       `json:"path,omitempty"`
	Component  string       `json:"component,omitempty"`
	Icon       string       `json:"icon,omitempty"`
	Permission string       `json:"permission,omitempty"`
	Type       int          `json:"type,omitempty"`
	Hidden     bool         `json:"hidden,omitempty"`
	Href       int          `json:"href,omitempty"`
	Sort       int          `json:"sort,omitempty"`
	Children   []Menu       `json:"children,omitempty"`
}

// SsoClient is a subsystem listed on the home page.
type SsoClient struct {
	ID         request.Long `json:"id"`
	ClientID   string       `json:"clientId,omitempty"`
	ClientName string       `json:"clientName,omitempty"`
	HomeURL    string       `json:"homeUrl,omitempty"`
	Icon       string       `json:"icon,omitempty"`
}
