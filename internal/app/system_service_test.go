package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"ragstack/internal/model"
	"ragstack/internal/repository"
)

func newTestSystemService(t *testing.T) (*SystemService, *gorm.DB) {
	t.Helper()

	db := newTestDB(t)
	require.NoError(t, db.AutoMigrate(
		&model.ChatSession{},
		&model.AuditLog{},
		&model.ServiceStatus{},
		&model.SystemMetrics{},
	))

	svc := NewSystemService(
		db,
		nil,
		repository.NewUserRepository(db),
		repository.NewCollectionRepository(db),
		repository.NewDocumentRepository(db),
		repository.NewAuditRepository(db),
		repository.NewSystemRepository(db),
	)
	return svc, db
}

func TestSystemStatsAdminOnly(t *testing.T) {
	svc, db := newTestSystemService(t)

	require.NoError(t, db.Create(&model.User{
		Email: "owner@acme.com", Name: "Owner",
		PasswordHash: "x", Role: model.RoleUser, TenantID: "tenant-1", IsActive: true,
	}).Error)

	user := Accessor{UserID: "u1", Role: model.RoleUser, TenantID: "tenant-1"}
	_, err := svc.Stats(user)
	assert.ErrorIs(t, err, ErrForbidden)

	admin := Accessor{UserID: "a1", Role: model.RoleAdmin, TenantID: "tenant-9"}
	stats, err := svc.Stats(admin)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.TotalUsers)
	assert.NotEmpty(t, stats.Services)
}

func TestAuditLogsAdminOnly(t *testing.T) {
	svc, db := newTestSystemService(t)

	require.NoError(t, db.Create(&model.AuditLog{
		UserID: "u1", Action: "connector.sync",
		ResourceType: "connectors", ResourceID: "conn-1", TenantID: "tenant-1",
	}).Error)
	require.NoError(t, db.Create(&model.AuditLog{
		UserID: "u2", Action: "connector.sync",
		ResourceType: "connectors", ResourceID: "conn-2", TenantID: "tenant-2",
	}).Error)

	user := Accessor{UserID: "u1", Role: model.RoleUser, TenantID: "tenant-1"}
	_, _, err := svc.AuditLogs(user, repository.AuditFilter{}, 0, 20)
	assert.ErrorIs(t, err, ErrForbidden)

	admin := Accessor{UserID: "a1", Role: model.RoleAdmin, TenantID: "tenant-9"}
	_, total, err := svc.AuditLogs(admin, repository.AuditFilter{}, 0, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
}

func TestResourceAuditLogsPinnedToTenant(t *testing.T) {
	svc, db := newTestSystemService(t)

	require.NoError(t, db.Create(&model.AuditLog{
		UserID: "u1", Action: "connector.update",
		ResourceType: "connectors", ResourceID: "conn-1", TenantID: "tenant-1",
	}).Error)
	require.NoError(t, db.Create(&model.AuditLog{
		UserID: "u2", Action: "connector.update",
		ResourceType: "connectors", ResourceID: "conn-1", TenantID: "tenant-2",
	}).Error)

	user := Accessor{UserID: "u1", Role: model.RoleUser, TenantID: "tenant-1"}
	logs, total, err := svc.ResourceAuditLogs(user, "connectors", "conn-1", 0, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, logs, 1)
	assert.Equal(t, "tenant-1", logs[0].TenantID)

	admin := Accessor{UserID: "a1", Role: model.RoleAdmin, TenantID: "tenant-9"}
	_, total, err = svc.ResourceAuditLogs(admin, "connectors", "conn-1", 0, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
}
