package enums

import "fmt"

// MemberRole is the platform role carried in access tokens.
type MemberRole string

const (
	RoleCustomer MemberRole = "customer"
	RoleOwner    MemberRole = "owner"
	RoleAdmin    MemberRole = "admin"
)

var memberRoleSet = map[MemberRole]struct{}{
	RoleCustomer: {},
	RoleOwner:    {},
	RoleAdmin:    {},
}

func (m MemberRole) IsValid() bool {
	_, ok := memberRoleSet[m]
	return ok
}

func ParseMemberRole(value string) (MemberRole, error) {
	role := MemberRole(value)
	if !role.IsValid() {
		return "", fmt.Errorf("unknown member role %q", value)
	}
	return role, nil
}
