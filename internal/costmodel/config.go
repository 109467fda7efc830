package costmodel

import "fmt"

// Config holds the five weight knobs a caller can override when building a
// TypeWeightTable. Nil fields are left at their documented default by Build;
// a non-nil field, including a pointer to zero, overrides that default.
type Config struct {
	Query      *int
	Mutation   *int
	Object     *int
	Scalar     *int
	Connection *int
}

// resolved is the fully defaulted, validated configuration used during a build.
type resolved struct {
	Query      int
	Mutation   int
	Object     int
	Scalar     int
	Connection int
}

const (
	defaultQuery      = 1
	defaultMutation   = 10
	defaultObject     = 1
	defaultScalar     = 0
	defaultConnection = 2
)

func (c Config) resolve() (resolved, error) {
	r := resolved{
		Query:      defaultQuery,
		Mutation:   defaultMutation,
		Object:     defaultObject,
		Scalar:     defaultScalar,
		Connection: defaultConnection,
	}
	if c.Query != nil {
		r.Query = *c.Query
	}
	if c.Mutation != nil {
		r.Mutation = *c.Mutation
	}
	if c.Object != nil {
		r.Object = *c.Object
	}
	if c.Scalar != nil {
		r.Scalar = *c.Scalar
	}
	if c.Connection != nil {
		r.Connection = *c.Connection
	}

	for name, v := range map[string]int{
		"query": r.Query, "mutation": r.Mutation, "object": r.Object,
		"scalar": r.Scalar, "connection": r.Connection,
	} {
		if v < 0 {
			return resolved{}, &BuildError{
				Kind:    ErrInvalidConfig,
				Message: fmt.Sprintf("weight config %q must be non-negative, got %d", name, v),
			}
		}
	}
	return r, nil
}
