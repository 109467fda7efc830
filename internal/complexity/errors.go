package complexity

import "fmt"

// ErrorKind enumerates the analysis-time failure taxonomy.
type ErrorKind string

const (
	// ErrOperationNotFound: the requested operation name does not exist in
	// the document, or no name was given and the document has more than one.
	ErrOperationNotFound ErrorKind = "OperationNotFound"
	// ErrUnknownField: a selected field has no entry on its parent type.
	ErrUnknownField ErrorKind = "UnknownField"
	// ErrUnknownFragment: a fragment spread references an undefined fragment.
	ErrUnknownFragment ErrorKind = "UnknownFragment"
	// ErrUnsupportedSelection: the schema has no root type for the
	// operation, a selection node is of an unrecognized kind, or a field
	// descriptor is of an unrecognized kind.
	ErrUnsupportedSelection ErrorKind = "UnsupportedSelection"
)

// AnalysisError reports a failure while analyzing an operation's cost.
type AnalysisError struct {
	Kind    ErrorKind
	Subject string
	Message string
}

func (e *AnalysisError) Error() string {
	if e.Subject == "" {
		return fmt.Sprintf("complexity: %s: %s", e.Kind, e.Message)
	}
	return fmt.Sprintf("complexity: %s: %s: %s", e.Kind, e.Subject, e.Message)
}
