package policy

import "textile-backoffice/internal/models"

// Action is a mutation gated by role
type Action string

// Actions
const (
	ActionManageUsers       Action = "users:manage"
	ActionUpdatePreferences Action = "users:preferences"
	ActionEditProducts      Action = "products:edit"
	ActionRestock           Action = "products:restock"
	ActionEditCatalog       Action = "catalog:edit"
	ActionCreateCustomer    Action = "customers:create"
	ActionCreateOrder       Action = "orders:create"
	ActionShipOrder         Action = "orders:ship"
	ActionDelete            Action = "records:delete"
	ActionRestore           Action = "records:restore"
)

var (
	everyone   = []models.Role{models.RoleGeneralManager, models.RoleDepotManager, models.RoleSalesRep, models.RoleAccountant}
	adminOnly  = []models.Role{models.RoleGeneralManager}
	depotStaff = []models.Role{models.RoleGeneralManager, models.RoleDepotManager}
	sellers    = []models.Role{models.RoleGeneralManager, models.RoleSalesRep}
	orderDesk  = []models.Role{models.RoleGeneralManager, models.RoleSalesRep, models.RoleAccountant}
)

var capabilities = map[Action][]models.Role{
	ActionManageUsers:       adminOnly,
	ActionUpdatePreferences: everyone,
	ActionEditProducts:      depotStaff,
	ActionRestock:           depotStaff,
	ActionEditCatalog:       depotStaff,
	ActionCreateCustomer:    orderDesk,
	ActionCreateOrder:       sellers,
	ActionShipOrder:         orderDesk,
	ActionDelete:            adminOnly,
	ActionRestore:           adminOnly,
}

// Can reports whether role may perform action
func Can(role models.Role, action Action) bool {
	for _, r := range capabilities[action] {
		if r == role {
			return true
		}
	}
	return false
}

// Capabilities lists the actions a role may perform
func Capabilities(role models.Role) []Action {
	var actions []Action
	for _, action := range []Action{
		ActionManageUsers, ActionUpdatePreferences, ActionEditProducts, ActionRestock, ActionEditCatalog,
		ActionCreateCustomer, ActionCreateOrder, ActionShipOrder, ActionDelete, ActionRestore,
	} {
		if Can(role, action) {
			actions = append(actions, action)
		}
	}
	return actions
}
