// Package routes maps backend endpoints to the policies the request pipeline
// applies to them: whether the tenant header is required, optional, or absent,
// and which logical pages the redirect policy can target.
package routes

import "strings"

// Category groups endpoints by tenant-header policy. Most endpoints require
// the company scope; a handful are callable while it is still being
// established (right after login, while the company list loads).
type Category string

const (
	CategoryAuth            Category = "auth"
	CategoryPublic          Category = "public"
	CategoryPermissionsSelf Category = "permissions_self"
	CategoryTenantList      Category = "tenant_list"
	CategorySubscription    Category = "subscription"
	CategoryNotifications   Category = "notifications"
	CategoryTeams           Category = "teams"
	CategoryThirdParty      Category = "third_party"
	CategoryDashboard       Category = "dashboard"
	CategoryDefault         Category = "default"
)

// TenantPolicy describes how the request gate treats the tenant header for a
// category.
type TenantPolicy int

const (
	// TenantNone attaches no tenant header and never gates.
	TenantNone TenantPolicy = iota
	// TenantOptional attaches the header when the tenant id is present and
	// never blocks when it is absent.
	TenantOptional
	// TenantWait attaches the header, waiting a bounded interval for the
	// tenant id to appear before failing the call.
	TenantWait
	// TenantRequire fails the call immediately when the tenant id is absent.
	TenantRequire
)

// categoryPrefixes is ordered; the first matching prefix wins.
var categoryPrefixes = []struct {
	prefix   string
	category Category
}{
	{"/auth/", CategoryAuth},
	{"/public/", CategoryPublic},
	{"/permissions/me", CategoryPermissionsSelf},
	{"/companies", CategoryTenantList},
	{"/subscription", CategorySubscription},
	{"/notifications", CategoryNotifications},
	{"/teams", CategoryTeams},
	{"/integrations", CategoryThirdParty},
	{"/dashboard", CategoryDashboard},
}

// CategoryFor classifies an endpoint path. Unrecognized paths fall into
// CategoryDefault, which requires the tenant scope.
func CategoryFor(path string) Category {
	path = normalize(path)
	for _, cp := range categoryPrefixes {
		if strings.HasPrefix(path, cp.prefix) || path == strings.TrimSuffix(cp.prefix, "/") {
			return cp.category
		}
	}
	return CategoryDefault
}

// TenantPolicy returns the gate behavior for the category.
func (c Category) TenantPolicy() TenantPolicy {
	switch c {
	case CategoryAuth, CategoryPublic:
		return TenantNone
	case CategoryPermissionsSelf, CategoryTenantList, CategorySubscription,
		CategoryNotifications, CategoryTeams, CategoryThirdParty:
		return TenantOptional
	case CategoryDashboard:
		return TenantWait
	default:
		return TenantRequire
	}
}

// InterceptsUnauthorized reports whether a 401 for this category is routed
// through the refresh-and-retry coordinator. Auth endpoints can return 401
// for expected user-facing reasons (wrong password, bad 2FA code), so their
// rejections pass through untouched.
func (c Category) InterceptsUnauthorized() bool {
	return c != CategoryAuth
}

// IsUserManagement reports whether a path belongs to the user-management
// screens, whose permission errors are always left to the caller.
func IsUserManagement(path string) bool {
	path = normalize(path)
	return strings.HasPrefix(path, "/users") || strings.HasPrefix(path, "/user-management")
}

func normalize(path string) string {
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return path
}
