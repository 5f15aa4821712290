// api/errors/policy_errors.go
package errors

import "errors"

var (
	ErrPolicyNotFound = errors.New("policy not found")
	ErrOrgNotFound    = errors.New("organization not found")
	ErrUserNotFound   = errors.New("user not found")
)
