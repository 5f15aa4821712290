// api/errors/types.go
package errors

import (
	"errors"
	"fmt"
)

// ValidationError marks input that is malformed in shape: empty labels,
// unknown enum values, meta fields the node type's schema does not declare.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("validation failed: %s", e.Reason)
	}
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Reason)
}

func NewValidationError(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// Business rules violated by well-formed input whose resulting state would
// be illegal.
const (
	RuleCycle    = "cycle"
	RuleMaxDepth = "max_depth"
)

// BusinessRuleError marks a request that parses fine but would leave the
// hierarchy in an illegal state, e.g. a move that introduces a cycle.
type BusinessRuleError struct {
	Rule    string
	Message string
}

func (e *BusinessRuleError) Error() string {
	return e.Message
}

func NewCycleError(nodeID string) error {
	return &BusinessRuleError{
		Rule:    RuleCycle,
		Message: fmt.Sprintf("moving node %s would create a loop in the timeline", nodeID),
	}
}

func NewMaxDepthError(maxDepth int) error {
	return &BusinessRuleError{
		Rule:    RuleMaxDepth,
		Message: fmt.Sprintf("move would exceed the maximum hierarchy depth of %d", maxDepth),
	}
}

// AsValidation and AsBusinessRule are convenience wrappers around errors.As
// for the controllers' status-code mapping.
func AsValidation(err error) (*ValidationError, bool) {
	var ve *ValidationError
	ok := errors.As(err, &ve)
	return ve, ok
}

func AsBusinessRule(err error) (*BusinessRuleError, bool) {
	var bre *BusinessRuleError
	ok := errors.As(err, &bre)
	return bre, ok
}
