package request

// Kind identifies the financial request flow a request belongs to
type Kind string

const (
	KindCashAdvance Kind = "cash_advance"
	KindOvertime    Kind = "overtime"
	KindLiquidation Kind = "liquidation"
)

var validKinds = map[Kind]bool{
	KindCashAdvance: true,
	KindOvertime:    true,
	KindLiquidation: true,
}

// String returns the string representation of the kind
func (k Kind) String() string {
	return string(k)
}

// IsValid returns true if the kind is one of the defined request kinds
func (k Kind) IsValid() bool {
	return validKinds[k]
}

// Kinds returns all defined request kinds
func Kinds() []Kind {
	return []Kind{KindCashAdvance, KindOvertime, KindLiquidation}
}
