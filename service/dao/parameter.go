package dao

// ParameterLimit restricts List to the most recently saved records
const ParameterLimit = "limit"

// Parameter represents a List option
type Parameter struct {
	Name  string
	Value interface{}
}

// NewLimit creates a limit parameter
func NewLimit(limit int) *Parameter {
	return &Parameter{Name: ParameterLimit, Value: limit}
}
