package model

// Principal is the authenticated caller of a request.
type Principal struct {
	ProfileID int64
	Role      ProfileRole
}

func (p Principal) IsClient() bool {
	return p.Role == ProfileRoleClient
}
