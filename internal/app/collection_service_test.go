package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gorm.io/gorm"

	"ragstack/internal/model"
	"ragstack/internal/repository"
)

func newTestCollectionService(t *testing.T) *CollectionService {
	svc, _ := newTestCollectionServiceDB(t)
	return svc
}

func newTestCollectionServiceDB(t *testing.T) (*CollectionService, *gorm.DB) {
	t.Helper()
	db := newTestDB(t)
	svc := NewCollectionService(
		repository.NewCollectionRepository(db),
		repository.NewDocumentRepository(db),
		repository.NewChunkRepository(db),
	)
	return svc, db
}

var (
	ownerA = Accessor{UserID: "user-a", Role: model.RoleUser, TenantID: "tenant-1"}
	userB  = Accessor{UserID: "user-b", Role: model.RoleUser, TenantID: "tenant-1"}
	userC  = Accessor{UserID: "user-c", Role: model.RoleUser, TenantID: "tenant-2"}
	admin  = Accessor{UserID: "admin-1", Role: model.RoleAdmin, TenantID: "tenant-9"}
)

func TestCollectionCreateDefaults(t *testing.T) {
	svc := newTestCollectionService(t)

	coll, err := svc.Create(ownerA, CreateCollectionInput{Name: "  Handbook  "})
	require.NoError(t, err)
	assert.Equal(t, "Handbook", coll.Name)
	assert.Equal(t, "tenant-1", coll.TenantID)
	assert.Equal(t, "user-a", coll.OwnerID)
	assert.NotEmpty(t, coll.ID)

	settings, err := svc.GetSettings(ownerA, coll.ID)
	require.NoError(t, err)
	assert.Equal(t, 1000, settings.ChunkSize)
	assert.Equal(t, 150, settings.ChunkOverlap)
	assert.Equal(t, "hybrid", settings.RetrievalStrategy)
}

func TestCollectionCreateValidation(t *testing.T) {
	svc := newTestCollectionService(t)

	_, err := svc.Create(ownerA, CreateCollectionInput{Name: "   "})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestCollectionTenantIsolation(t *testing.T) {
	svc := newTestCollectionService(t)

	private, err := svc.Create(ownerA, CreateCollectionInput{Name: "Private"})
	require.NoError(t, err)
	public, err := svc.Create(ownerA, CreateCollectionInput{Name: "Public", IsPublic: true})
	require.NoError(t, err)

	// same tenant: reads both, public or not
	got, err := svc.Get(userB, private.ID)
	require.NoError(t, err)
	assert.Equal(t, private.ID, got.ID)
	got, err = svc.Get(userB, public.ID)
	require.NoError(t, err)
	assert.Equal(t, public.ID, got.ID)

	// other tenant: public only
	_, err = svc.Get(userC, private.ID)
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = svc.Get(userC, public.ID)
	assert.NoError(t, err)

	// admin sees everything
	_, err = svc.Get(admin, private.ID)
	assert.NoError(t, err)
}

func TestCollectionListVisibility(t *testing.T) {
	svc := newTestCollectionService(t)

	_, err := svc.Create(ownerA, CreateCollectionInput{Name: "Mine"})
	require.NoError(t, err)
	_, err = svc.Create(ownerA, CreateCollectionInput{Name: "Shared", IsPublic: true})
	require.NoError(t, err)
	_, err = svc.Create(userC, CreateCollectionInput{Name: "Elsewhere"})
	require.NoError(t, err)

	mine, total, err := svc.List(ownerA, 0, 20)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Len(t, mine, 2)

	// same tenant sees everything in the tenant
	visible, total, err := svc.List(userB, 0, 20)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Len(t, visible, 2)

	// other tenant sees its own plus the public one
	other, total, err := svc.List(userC, 0, 20)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	names := []string{other[0].Name, other[1].Name}
	assert.ElementsMatch(t, []string{"Elsewhere", "Shared"}, names)

	// admin sees everything
	_, total, err = svc.List(admin, 0, 20)
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
}

func TestCollectionUpdatePermissions(t *testing.T) {
	svc := newTestCollectionService(t)

	coll, err := svc.Create(ownerA, CreateCollectionInput{Name: "Docs", IsPublic: true})
	require.NoError(t, err)

	newName := "Renamed"
	_, err = svc.Update(userB, coll.ID, UpdateCollectionInput{Name: &newName})
	assert.ErrorIs(t, err, ErrForbidden)

	updated, err := svc.Update(ownerA, coll.ID, UpdateCollectionInput{Name: &newName})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Name)
}

func TestCollectionDelete(t *testing.T) {
	svc := newTestCollectionService(t)

	coll, err := svc.Create(ownerA, CreateCollectionInput{Name: "Temp"})
	require.NoError(t, err)

	assert.ErrorIs(t, svc.Delete(userB, coll.ID), ErrForbidden)
	require.NoError(t, svc.Delete(ownerA, coll.ID))

	_, err = svc.Get(ownerA, coll.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCollectionUpdateSettingsValidation(t *testing.T) {
	svc := newTestCollectionService(t)

	coll, err := svc.Create(ownerA, CreateCollectionInput{Name: "Tuned"})
	require.NoError(t, err)

	_, err = svc.UpdateSettings(ownerA, coll.ID, model.CollectionSettings{ChunkSize: 50, ChunkOverlap: 10})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.UpdateSettings(ownerA, coll.ID, model.CollectionSettings{ChunkSize: 500, ChunkOverlap: 500})
	assert.ErrorIs(t, err, ErrInvalidInput)

	saved, err := svc.UpdateSettings(ownerA, coll.ID, model.CollectionSettings{ChunkSize: 500, ChunkOverlap: 50, RetrievalStrategy: "semantic"})
	require.NoError(t, err)
	assert.Equal(t, 500, saved.ChunkSize)
	assert.Equal(t, "semantic", saved.RetrievalStrategy)

	reloaded, err := svc.GetSettings(ownerA, coll.ID)
	require.NoError(t, err)
	assert.Equal(t, 500, reloaded.ChunkSize)
}

func TestVisibleCollectionsFilter(t *testing.T) {
	svc := newTestCollectionService(t)

	private, err := svc.Create(ownerA, CreateCollectionInput{Name: "P"})
	require.NoError(t, err)
	public, err := svc.Create(ownerA, CreateCollectionInput{Name: "Q", IsPublic: true})
	require.NoError(t, err)

	// same tenant keeps both; unknown IDs are dropped
	visible, err := svc.visibleCollections(userB, []string{private.ID, public.ID, "missing-id"})
	require.NoError(t, err)
	assert.Equal(t, []string{private.ID, public.ID}, visible)

	// other tenant keeps only the public one
	visible, err = svc.visibleCollections(userC, []string{private.ID, public.ID})
	require.NoError(t, err)
	assert.Equal(t, []string{public.ID}, visible)
}

func TestCollectionStats(t *testing.T) {
	svc, db := newTestCollectionServiceDB(t)

	coll, err := svc.Create(ownerA, CreateCollectionInput{Name: "Reports"})
	require.NoError(t, err)

	docs := []model.Document{
		{CollectionID: coll.ID, Filename: "a.pdf", FilePath: "k/a", FileSize: 100,
			MimeType: "application/pdf", Status: model.DocumentStatusCompleted,
			UploadedBy: ownerA.UserID, TenantID: ownerA.TenantID},
		{CollectionID: coll.ID, Filename: "b.pdf", FilePath: "k/b", FileSize: 200,
			MimeType: "application/pdf", Status: model.DocumentStatusCompleted,
			UploadedBy: ownerA.UserID, TenantID: ownerA.TenantID},
		{CollectionID: coll.ID, Filename: "c.pdf", FilePath: "k/c", FileSize: 300,
			MimeType: "application/pdf", Status: model.DocumentStatusFailed,
			UploadedBy: ownerA.UserID, TenantID: ownerA.TenantID},
	}
	for i := range docs {
		require.NoError(t, db.Create(&docs[i]).Error)
	}
	require.NoError(t, db.Create(&model.DocumentChunk{
		DocumentID: docs[0].ID, Content: "alpha", ChunkIndex: 0,
	}).Error)
	require.NoError(t, db.Create(&model.DocumentChunk{
		DocumentID: docs[0].ID, Content: "beta", ChunkIndex: 1,
	}).Error)

	stats, err := svc.Stats(ownerA, coll.ID)
	require.NoError(t, err)
	assert.Equal(t, coll.ID, stats.CollectionID)
	assert.Equal(t, int64(3), stats.TotalDocuments)
	assert.Equal(t, int64(2), stats.TotalChunks)
	assert.Equal(t, int64(2), stats.DocumentsByStatus[model.DocumentStatusCompleted])
	assert.Equal(t, int64(1), stats.DocumentsByStatus[model.DocumentStatusFailed])

	// stats follow the same visibility rules as reads
	_, err = svc.Stats(userC, coll.ID)
	assert.ErrorIs(t, err, ErrForbidden)
}
