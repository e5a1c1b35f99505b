package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"ragstack/internal/model"
)

func newConnectorTestRepo(t *testing.T) *ConnectorRepository {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&model.Connector{}))
	return NewConnectorRepository(db)
}

func TestRecordSyncResultClearsLastError(t *testing.T) {
	repo := newConnectorTestRepo(t)

	connector := &model.Connector{
		Name: "bucket-sync", Type: "s3",
		TenantID: "tenant-1", OwnerID: "user-1",
	}
	require.NoError(t, repo.Create(connector))

	require.NoError(t, repo.UpdateStatus(connector.ID, model.ConnectorStatusError, "bucket unreachable"))
	failed, err := repo.GetByID(connector.ID)
	require.NoError(t, err)
	assert.Equal(t, "bucket unreachable", failed.LastError)
	assert.Equal(t, 1, failed.ErrorsCount)

	require.NoError(t, repo.RecordSyncResult(connector.ID, 3, 1024, 2*time.Second, time.Now()))
	synced, err := repo.GetByID(connector.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ConnectorStatusActive, synced.Status)
	assert.Empty(t, synced.LastError)
	assert.Equal(t, 3, synced.TotalFilesSynced)
	assert.Equal(t, int64(1024), synced.TotalSizeBytes)
	require.NotNil(t, synced.LastSync)
}
