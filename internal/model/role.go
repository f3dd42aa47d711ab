package model

import "strings"

// Role is the actor's role in the card's workspace.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
)

// ParseRole defaults anything unknown to member.
func ParseRole(s string) Role {
	if strings.EqualFold(strings.TrimSpace(s), string(RoleAdmin)) {
		return RoleAdmin
	}
	return RoleMember
}

func (r Role) IsAdmin() bool { return r == RoleAdmin }
