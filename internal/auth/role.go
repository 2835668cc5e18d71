// README: Closed set of actor roles.
package auth

import (
	"errors"
	"fmt"

	"freta/internal/types"
)

// Role is a closed tagged type over the three platform actors. Adding a role
// means touching ParseRole and every switch over Role, which is the point.
type Role string

const (
	RoleClient  Role = "client"
	RolePartner Role = "partner"
	RoleAdmin   Role = "admin"
)

var ErrUnknownRole = errors.New("unknown role")

func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleClient:
		return RoleClient, nil
	case RolePartner:
		return RolePartner, nil
	case RoleAdmin:
		return RoleAdmin, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownRole, s)
	}
}

// Principal identifies the authenticated actor of a request.
type Principal struct {
	ID   types.ID
	Role Role
}
