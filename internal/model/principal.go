package model

type Role string

const (
	RoleProvider Role = "PROVIDER"
	RoleStaff    Role = "STAFF"
)

// Principal is the authenticated caller. Every provider-side resource is
// owned by ProviderID.
type Principal struct {
	UserID     uint64
	ProviderID uint64
	Role       Role
}

func (p Principal) CanManage(providerID uint64) bool {
	return p.ProviderID != 0 && p.ProviderID == providerID
}
