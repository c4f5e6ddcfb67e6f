package domain

type Role string

const (
	RoleOperator      Role = "operator"
	RoleTeamLeader    Role = "team_leader"
	RoleSupervisor    Role = "supervisor"
	RoleMaintenance   Role = "maintenance"
	RoleEngineer      Role = "engineer"
	RoleOverseerMiner Role = "overseer_miner"
	RoleShiftBoss     Role = "shift_boss"
	RoleMineCaptain   Role = "mine_captain"
	RoleMineManager   Role = "mine_manager"
	RoleAdmin         Role = "admin"
)

// Roles lists every role in the order the login form offers them.
var Roles = []Role{
	RoleOperator,
	RoleTeamLeader,
	RoleSupervisor,
	RoleMaintenance,
	RoleEngineer,
	RoleOverseerMiner,
	RoleShiftBoss,
	RoleMineCaptain,
	RoleMineManager,
	RoleAdmin,
}

var roleLabels = map[Role]string{
	RoleOperator:      "Operator",
	RoleTeamLeader:    "Team Leader",
	RoleSupervisor:    "Supervisor",
	RoleMaintenance:   "Maintenance Team",
	RoleEngineer:      "Engineer",
	RoleOverseerMiner: "Overseer Miner",
	RoleShiftBoss:     "Shift Boss",
	RoleMineCaptain:   "Mine Captain",
	RoleMineManager:   "Mine Manager",
	RoleAdmin:         "Admin",
}

func (r Role) Valid() bool {
	_, ok := roleLabels[r]
	return ok
}

func (r Role) Label() string {
	if l, ok := roleLabels[r]; ok {
		return l
	}
	return string(r)
}
