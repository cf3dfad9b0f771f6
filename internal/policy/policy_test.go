package policy

import (
	"testing"

	"textile-backoffice/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEveryRoleReachesItsDefaultRoute(t *testing.T) {
	for _, role := range models.AllRoles {
		routes := AllowedRoutes(role)
		require.NotEmpty(t, routes, role)

		def, ok := DefaultRoute(role)
		require.True(t, ok, role)
		assert.Contains(t, routes, def, role)
		assert.True(t, IsAllowed(role, def), role)
	}
}

func TestIsAllowed(t *testing.T) {
	tests := []struct {
		role    models.Role
		path    string
		allowed bool
	}{
		{models.RoleGeneralManager, "/history", true},
		{models.RoleGeneralManager, "/orders/ord_1", true},
		{models.RoleDepotManager, "/", false},
		{models.RoleDepotManager, "/depot/list", true},
		{models.RoleDepotManager, "/depot/prod_1", true},
		{models.RoleDepotManager, "/orders", false},
		{models.RoleSalesRep, "/personnel", false},
		{models.RoleSalesRep, "/customers/cus_1", true},
		{models.RoleAccountant, "/depot", false},
		{models.RoleAccountant, "/depot/list", true},
		{models.RoleAccountant, "/history", false},
	}

	for _, tt := range tests {
		t.Run(string(tt.role)+tt.path, func(t *testing.T) {
			assert.Equal(t, tt.allowed, IsAllowed(tt.role, tt.path))
		})
	}
}

func TestResolve(t *testing.T) {
	t.Run("no session goes to login", func(t *testing.T) {
		assert.Equal(t, Decision{Redirect: RouteLogin}, Resolve("", "/orders"))
		assert.Equal(t, Decision{Allowed: true}, Resolve("", RouteLogin))
	})

	t.Run("logged in user leaves login page", func(t *testing.T) {
		assert.Equal(t, Decision{Redirect: RouteStockList}, Resolve(models.RoleDepotManager, RouteLogin))
	})

	t.Run("forbidden area redirects to default", func(t *testing.T) {
		assert.Equal(t, Decision{Redirect: RouteStockList}, Resolve(models.RoleDepotManager, "/orders"))
		assert.Equal(t, Decision{Redirect: RouteHome}, Resolve(models.RoleSalesRep, "/history"))
	})

	t.Run("unknown role forces logout", func(t *testing.T) {
		d := Resolve(models.Role("intern"), "/")
		assert.True(t, d.Logout)
		assert.Equal(t, RouteLogin, d.Redirect)
	})
}

func TestCan(t *testing.T) {
	for _, role := range models.AllRoles {
		assert.Equal(t, role == models.RoleGeneralManager, Can(role, ActionDelete), role)
		assert.Equal(t, role == models.RoleGeneralManager, Can(role, ActionRestore), role)
		assert.True(t, Can(role, ActionUpdatePreferences), role)
	}

	assert.False(t, Can(models.RoleAccountant, ActionCreateOrder))
	assert.True(t, Can(models.RoleSalesRep, ActionCreateOrder))
	assert.True(t, Can(models.RoleDepotManager, ActionRestock))
	assert.False(t, Can(models.RoleSalesRep, ActionRestock))
	assert.False(t, Can(models.Role("intern"), ActionShipOrder))

	assert.Contains(t, Capabilities(models.RoleDepotManager), ActionEditCatalog)
	assert.NotContains(t, Capabilities(models.RoleDepotManager), ActionDelete)
}
