// Package policy maps roles to reachable application areas and to the
// actions they may perform. It is a static lookup table.
package policy

import (
	"strings"

	"textile-backoffice/internal/models"
)

// Application areas
const (
	RouteLogin     = "/login"
	RouteHome      = "/"
	RouteOrders    = "/orders"
	RouteProducts  = "/products"
	RouteCustomers = "/customers"
	RouteDepot     = "/depot"
	RouteStockList = "/depot/list"
	RouteSettings  = "/settings"
	RoutePersonnel = "/personnel"
	RouteHistory   = "/history"
)

var allowedRoutes = map[models.Role][]string{
	models.RoleGeneralManager: {RouteHome, RouteOrders, RouteProducts, RouteCustomers, RouteDepot, RouteStockList, RouteSettings, RoutePersonnel, RouteHistory},
	models.RoleDepotManager:   {RouteDepot, RouteStockList, RouteSettings, RouteProducts},
	models.RoleSalesRep:       {RouteHome, RouteOrders, RouteProducts, RouteCustomers, RouteSettings},
	models.RoleAccountant:     {RouteHome, RouteOrders, RouteProducts, RouteStockList, RouteSettings, RouteCustomers},
}

var defaultRoutes = map[models.Role]string{
	models.RoleGeneralManager: RouteHome,
	models.RoleDepotManager:   RouteStockList,
	models.RoleSalesRep:       RouteHome,
	models.RoleAccountant:     RouteHome,
}

// AllowedRoutes returns the areas a role may open, or nil for an unknown role
func AllowedRoutes(role models.Role) []string {
	routes, ok := allowedRoutes[role]
	if !ok {
		return nil
	}
	out := make([]string, len(routes))
	copy(out, routes)
	return out
}

// DefaultRoute returns the landing area of a role
func DefaultRoute(role models.Role) (string, bool) {
	route, ok := defaultRoutes[role]
	return route, ok
}

// IsAllowed reports whether path falls inside one of the role's areas.
// "/" only matches itself; other areas also cover their sub-paths.
func IsAllowed(role models.Role, path string) bool {
	for _, route := range allowedRoutes[role] {
		if path == route {
			return true
		}
		if route != RouteHome && strings.HasPrefix(path, route+"/") {
			return true
		}
	}
	return false
}

// Decision is the outcome of resolving a navigation request
type Decision struct {
	Allowed  bool   `json:"allowed"`
	Redirect string `json:"redirect,omitempty"`
	Logout   bool   `json:"logout,omitempty"`
}

// Resolve decides where a navigation to path ends up. An empty role means
// no session.
func Resolve(role models.Role, path string) Decision {
	if role == "" {
		if path == RouteLogin {
			return Decision{Allowed: true}
		}
		return Decision{Redirect: RouteLogin}
	}

	target, ok := defaultRoutes[role]
	if _, known := allowedRoutes[role]; !known || !ok {
		return Decision{Redirect: RouteLogin, Logout: true}
	}

	if path == RouteLogin {
		return Decision{Redirect: target}
	}
	if IsAllowed(role, path) {
		return Decision{Allowed: true}
	}
	return Decision{Redirect: target}
}
