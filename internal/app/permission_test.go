package app

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"ragstack/internal/model"
)

func TestCanReadCollection(t *testing.T) {
	coll := &model.Collection{OwnerID: "owner-1", TenantID: "tenant-a"}
	publicColl := &model.Collection{OwnerID: "owner-1", TenantID: "tenant-a", IsPublic: true}

	tests := []struct {
		name     string
		accessor Accessor
		coll     *model.Collection
		want     bool
	}{
		{"admin reads anything", Accessor{UserID: "x", Role: model.RoleAdmin, TenantID: "tenant-b"}, coll, true},
		{"owner reads own", Accessor{UserID: "owner-1", Role: model.RoleUser, TenantID: "tenant-a"}, coll, true},
		{"same tenant reads public", Accessor{UserID: "other", Role: model.RoleUser, TenantID: "tenant-a"}, publicColl, true},
		{"other tenant reads public", Accessor{UserID: "other", Role: model.RoleUser, TenantID: "tenant-b"}, publicColl, true},
		{"same tenant reads private", Accessor{UserID: "other", Role: model.RoleUser, TenantID: "tenant-a"}, coll, true},
		{"other tenant blocked from private", Accessor{UserID: "other", Role: model.RoleUser, TenantID: "tenant-b"}, coll, false},
		{"viewer same rules as user", Accessor{UserID: "other", Role: model.RoleViewer, TenantID: "tenant-a"}, coll, true},
		{"nil collection", Accessor{UserID: "x", Role: model.RoleAdmin}, nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanReadCollection(tt.accessor, tt.coll))
		})
	}
}

func TestCanWriteCollection(t *testing.T) {
	publicColl := &model.Collection{OwnerID: "owner-1", TenantID: "tenant-a", IsPublic: true}

	assert.True(t, CanWriteCollection(Accessor{UserID: "owner-1", Role: model.RoleUser, TenantID: "tenant-a"}, publicColl))
	assert.True(t, CanWriteCollection(Accessor{UserID: "x", Role: model.RoleAdmin, TenantID: "tenant-b"}, publicColl))
	// public grants read, never write
	assert.False(t, CanWriteCollection(Accessor{UserID: "other", Role: model.RoleUser, TenantID: "tenant-a"}, publicColl))
	assert.False(t, CanWriteCollection(Accessor{Role: model.RoleUser}, nil))
}

func TestCanManageTenantResource(t *testing.T) {
	assert.True(t, CanManageTenantResource(Accessor{UserID: "u1", Role: model.RoleUser, TenantID: "t"}, "u1", "t"))
	assert.True(t, CanManageTenantResource(Accessor{UserID: "x", Role: model.RoleAdmin, TenantID: "other"}, "u1", "t"))
	assert.False(t, CanManageTenantResource(Accessor{UserID: "u2", Role: model.RoleUser, TenantID: "t"}, "u1", "t"))
}

func TestCanViewTenantResource(t *testing.T) {
	assert.True(t, CanViewTenantResource(Accessor{UserID: "u2", Role: model.RoleUser, TenantID: "t"}, "t"))
	assert.False(t, CanViewTenantResource(Accessor{UserID: "u2", Role: model.RoleUser, TenantID: "other"}, "t"))
	assert.True(t, CanViewTenantResource(Accessor{UserID: "x", Role: model.RoleAdmin, TenantID: "other"}, "t"))
}
