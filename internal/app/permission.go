package app

import "ragstack/internal/model"

// Accessor identifies who is asking, taken from the verified token claims.
type Accessor struct {
	UserID   string
	Role     string
	TenantID string
}

func (a Accessor) IsAdmin() bool {
	return a.Role == model.RoleAdmin
}

// CanReadCollection applies the access chain: admins see everything,
// owners see their own, public collections are readable by anyone, and
// same-tenant users can read everything in their tenant.
func CanReadCollection(a Accessor, c *model.Collection) bool {
	if c == nil {
		return false
	}
	if a.IsAdmin() {
		return true
	}
	if c.OwnerID == a.UserID {
		return true
	}
	if c.IsPublic {
		return true
	}
	return c.TenantID == a.TenantID
}

// CanWriteCollection allows mutation only for admins and the owner.
func CanWriteCollection(a Accessor, c *model.Collection) bool {
	if c == nil {
		return false
	}
	if a.IsAdmin() {
		return true
	}
	return c.OwnerID == a.UserID
}

// CanManageTenantResource covers connectors and evaluations, which are
// scoped to a tenant rather than a single collection.
func CanManageTenantResource(a Accessor, ownerID, tenantID string) bool {
	if a.IsAdmin() {
		return true
	}
	if ownerID == a.UserID {
		return true
	}
	return false
}

// CanViewTenantResource lets any same-tenant user read shared resources.
func CanViewTenantResource(a Accessor, tenantID string) bool {
	if a.IsAdmin() {
		return true
	}
	return a.TenantID == tenantID
}
