// Package role routes an authenticated user to the dashboard context for
// their declared role.
//
// Roles form a closed set. Every consumer handles them through a Visitor,
// so adding a role adds a Visitor method and breaks the build until each
// consumer handles it.
package role

import (
	"errors"
	"fmt"
)

// ErrUnknownRole is returned for role values outside the enumeration,
// including the empty string.
var ErrUnknownRole = errors.New("unknown role")

// Role is a declared portal role.
type Role string

const (
	Serving Role = "serving"
	Veteran Role = "veteran"
	Family  Role = "family"
)

// All lists the roles in presentation order.
func All() []Role {
	return []Role{Serving, Veteran, Family}
}

// Parse converts a role string. It never defaults.
func Parse(s string) (Role, error) {
	switch r := Role(s); r {
	case Serving, Veteran, Family:
		return r, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownRole, s)
	}
}

func (r Role) String() string { return string(r) }

// Visitor handles each role.
type Visitor[T any] interface {
	Serving() T
	Veteran() T
	Family() T
}

// Match dispatches r to the matching Visitor method.
func Match[T any](r Role, v Visitor[T]) (T, error) {
	switch r {
	case Serving:
		return v.Serving(), nil
	case Veteran:
		return v.Veteran(), nil
	case Family:
		return v.Family(), nil
	default:
		var zero T
		return zero, fmt.Errorf("%w: %q", ErrUnknownRole, string(r))
	}
}

// Profile is the role-selection card shown before authentication.
type Profile struct {
	Role        Role   `json:"role"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Access      string `json:"access"`
}

type profiles struct{}

func (profiles) Serving() Profile {
	return Profile{
		Role:        Serving,
		Title:       "Serving Defence Personnel",
		Description: "Active duty military personnel across all branches",
		Access:      "Full complaint reporting + threat awareness dashboard",
	}
}

func (profiles) Veteran() Profile {
	return Profile{
		Role:        Veteran,
		Title:       "Veteran/Ex-Serviceman",
		Description: "Retired or former defence personnel",
		Access:      "Reporting + limited access to analytics",
	}
}

func (profiles) Family() Profile {
	return Profile{
		Role:        Family,
		Title:       "Family Member/Relative",
		Description: "Immediate family of defence personnel",
		Access:      "Guided reporting with educational resources",
	}
}

// Describe returns the selection card for r.
func Describe(r Role) (Profile, error) {
	return Match[Profile](r, profiles{})
}
