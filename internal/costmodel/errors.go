package costmodel

import "fmt"

// ErrorKind enumerates the Build-time failure taxonomy.
type ErrorKind string

const (
	// ErrInvalidConfig: a weight configuration knob was negative.
	ErrInvalidConfig ErrorKind = "InvalidConfig"
	// ErrUnsupportedType: a named type is not object, interface, enum, union,
	// scalar or input object.
	ErrUnsupportedType ErrorKind = "UnsupportedType"
	// ErrUnboundedList: strict mode rejected a list field with no @listCost
	// directive and no recognized slicing argument.
	ErrUnboundedList ErrorKind = "UnboundedList"
)

// BuildError reports a failure while constructing a TypeWeightTable.
type BuildError struct {
	Kind      ErrorKind
	TypeName  string
	FieldName string
	Message   string
}

func (e *BuildError) Error() string {
	if e.TypeName == "" {
		return fmt.Sprintf("costmodel: %s: %s", e.Kind, e.Message)
	}
	if e.FieldName == "" {
		return fmt.Sprintf("costmodel: %s: type %s: %s", e.Kind, e.TypeName, e.Message)
	}
	return fmt.Sprintf("costmodel: %s: %s.%s: %s", e.Kind, e.TypeName, e.FieldName, e.Message)
}
