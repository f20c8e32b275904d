package request

// Position is an organizational role assigned to a user. Confidentiality
// policy matches against this closed set rather than free-form title strings.
type Position string

const (
	PositionEmployee          Position = "employee"
	PositionDepartmentManager Position = "department_manager"
	PositionOperationsManager Position = "operations_manager"
	PositionHRManager         Position = "hr_manager"
	PositionAccountingManager Position = "accounting_manager"
	PositionFinanceDirector   Position = "finance_director"
	PositionGeneralManager    Position = "general_manager"
)

var validPositions = map[Position]bool{
	PositionEmployee:          true,
	PositionDepartmentManager: true,
	PositionOperationsManager: true,
	PositionHRManager:         true,
	PositionAccountingManager: true,
	PositionFinanceDirector:   true,
	PositionGeneralManager:    true,
}

// String returns the string representation of the position
func (p Position) String() string {
	return string(p)
}

// IsValid returns true if the position is one of the defined positions
func (p Position) IsValid() bool {
	return validPositions[p]
}
