// Package policy holds the access rules of the API as pure functions of
// (actor, action, resource). Nothing here touches storage or the request.
package policy

import (
	"errors"
	"net/http"

	"imdb/proj/internal/domain/models"
)

var (
	ErrUnauthenticated = errors.New("authentication credentials were not provided")
	ErrForbidden       = errors.New("you do not have permission to perform this action")
)

type Action int8

const (
	Read Action = iota
	Create
	Update
	Delete
)

func (a Action) String() string {
	switch a {
	case Read:
		return "read"
	case Create:
		return "create"
	case Update:
		return "update"
	case Delete:
		return "delete"
	}
	return "unknown"
}

func (a Action) IsSafe() bool {
	return a == Read
}

// ActionFromMethod maps an HTTP method onto an Action. Unknown methods are
// treated as Update so they never slip through as safe.
func ActionFromMethod(method string) Action {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return Read
	case http.MethodPost:
		return Create
	case http.MethodDelete:
		return Delete
	default:
		return Update
	}
}

func IsNotAuthenticated(actor *models.User) bool {
	return actor.IsAnonymous()
}

func IsAuthenticated(actor *models.User) bool {
	return !actor.IsAnonymous()
}

func AdminOnly(actor *models.User) bool {
	if actor.IsAnonymous() {
		return false
	}
	switch actor.Role {
	case models.RoleAdmin:
		return true
	case models.RoleModerator, models.RoleUser:
		return false
	}
	return false
}

func isStaff(actor *models.User) bool {
	switch actor.Role {
	case models.RoleAdmin, models.RoleModerator:
		return true
	case models.RoleUser:
		return false
	}
	return false
}

func CatalogWritePolicy(actor *models.User, action Action) bool {
	if action.IsSafe() {
		return true
	}
	return AdminOnly(actor)
}

func FeedbackModifyPolicy(actor *models.User, action Action, authorID int64) bool {
	if action.IsSafe() {
		return true
	}
	if actor.IsAnonymous() {
		return false
	}
	return actor.ID == authorID || isStaff(actor)
}

// Authorize turns a policy decision into the error the caller should report.
func Authorize(actor *models.User, allowed bool) error {
	if allowed {
		return nil
	}
	if actor.IsAnonymous() {
		return ErrUnauthenticated
	}
	return ErrForbidden
}
