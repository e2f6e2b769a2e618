package domain

// Department is the top-level routing category for a ticket.
type Department string

const (
	DepartmentIT         Department = "IT"
	DepartmentHR         Department = "HR"
	DepartmentFinance    Department = "FINANCE"
	DepartmentFacilities Department = "FACILITIES"
	DepartmentLegal      Department = "LEGAL"
	DepartmentSecurity   Department = "SECURITY"
	DepartmentGeneral    Department = "GENERAL"
)

// Departments lists every known department.
var Departments = []Department{
	DepartmentIT,
	DepartmentHR,
	DepartmentFinance,
	DepartmentFacilities,
	DepartmentLegal,
	DepartmentSecurity,
	DepartmentGeneral,
}

// ParseDepartment returns the matching department, or false when unknown.
func ParseDepartment(value string) (Department, bool) {
	for _, dept := range Departments {
		if string(dept) == value {
			return dept, true
		}
	}
	return "", false
}

// departmentTeams fixes the candidate team list per department. Assigned
// teams must always come from these lists; the first entry is the default.
var departmentTeams = map[Department][]string{
	DepartmentIT:         {"it_support_team", "network_team", "security_team", "infrastructure_team"},
	DepartmentHR:         {"hr_operations", "recruiting_team", "benefits_team", "employee_relations"},
	DepartmentFacilities: {"facilities_management", "maintenance_team", "office_services"},
	DepartmentFinance:    {"finance_team", "accounting_team", "procurement_team"},
	DepartmentLegal:      {"legal_team", "compliance_team", "contracts_team"},
	DepartmentSecurity:   {"physical_security", "infosec_team", "compliance_security"},
	DepartmentGeneral:    {"general_support", "admin_team"},
}

// TeamsFor returns the candidate teams for a department.
func TeamsFor(dept Department) []string {
	return departmentTeams[dept]
}

// DefaultTeamFor returns the first candidate team for a department.
func DefaultTeamFor(dept Department) string {
	teams := departmentTeams[dept]
	if len(teams) == 0 {
		return ""
	}
	return teams[0]
}

// ValidTeamFor reports whether team belongs to the department's candidates.
func ValidTeamFor(dept Department, team string) bool {
	for _, candidate := range departmentTeams[dept] {
		if candidate == team {
			return true
		}
	}
	return false
}
