package session

import "slices"

// UserInformation identifies the user a session acts for.
type UserInformation interface {
	// UserID returns the stable user identifier.
	UserID() string
	// IsUserInRole reports whether the user holds role.
	IsUserInRole(role string) bool
	// UserAttribute returns a named user attribute.
	UserAttribute(name string) (string, bool)
}

type systemKind int

const (
	guestKind systemKind = iota + 1
	systemUserKind
	superUserKind
)

// systemUser is one of the built-in privileged identities.
type systemUser struct {
	id   string
	kind systemKind
}

func (u systemUser) UserID() string { return u.id }

// IsUserInRole is true for every role when u is the superuser.
func (u systemUser) IsUserInRole(string) bool { return u.kind == superUserKind }

func (u systemUser) UserAttribute(string) (string, bool) { return "", false }

var (
	// Guest is the identity of sessions nobody logged into.
	Guest UserInformation = systemUser{id: "guest", kind: guestKind}
	// System is the identity of background work not acting for a user.
	System UserInformation = systemUser{id: "system", kind: systemUserKind}
)

// SuperUser returns the superuser identity with the given id.
func SuperUser(id string) UserInformation {
	return systemUser{id: id, kind: superUserKind}
}

// IsGuest reports whether u is the guest identity.
func IsGuest(u UserInformation) bool {
	su, ok := u.(systemUser)
	return ok && su.kind == guestKind
}

// User is a plain UserInformation for application users.
type User struct {
	ID         string
	Roles      []string
	Attributes map[string]string
}

func (u User) UserID() string { return u.ID }

func (u User) IsUserInRole(role string) bool { return slices.Contains(u.Roles, role) }

func (u User) UserAttribute(name string) (string, bool) {
	v, ok := u.Attributes[name]
	return v, ok
}

// privileged reports whether u may switch to any identity.
func privileged(u UserInformation, superUserID string) bool {
	if _, ok := u.(systemUser); ok {
		return true
	}
	return u.UserID() == superUserID
}

// unprivileged reports whether u is guest or system.
func unprivileged(u UserInformation) bool {
	su, ok := u.(systemUser)
	return ok && su.kind != superUserKind
}

// canTransition applies the escalation guard for replacing from with to.
func canTransition(from, to UserInformation, superUserID string) bool {
	switch {
	case privileged(from, superUserID):
		return true
	case unprivileged(to):
		return true
	default:
		return from.UserID() == to.UserID()
	}
}
