package app

import (
	"strings"
	"time"

	"ragstack/internal/model"
	"ragstack/internal/repository"
)

type CollectionService struct {
	collectionRepo *repository.CollectionRepository
	documentRepo   *repository.DocumentRepository
	chunkRepo      *repository.ChunkRepository
}

type CreateCollectionInput struct {
	Name        string
	Description string
	IsPublic    bool
	Settings    *model.CollectionSettings
}

type UpdateCollectionInput struct {
	Name        *string
	Description *string
	IsPublic    *bool
	IsArchived  *bool
}

func NewCollectionService(
	collectionRepo *repository.CollectionRepository,
	documentRepo *repository.DocumentRepository,
	chunkRepo *repository.ChunkRepository,
) *CollectionService {
	return &CollectionService{
		collectionRepo: collectionRepo,
		documentRepo:   documentRepo,
		chunkRepo:      chunkRepo,
	}
}

func (s *CollectionService) Create(accessor Accessor, input CreateCollectionInput) (*model.Collection, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" || len(name) > 255 {
		return nil, ErrInvalidInput
	}

	collection := &model.Collection{
		Name:        name,
		Description: strings.TrimSpace(input.Description),
		TenantID:    accessor.TenantID,
		OwnerID:     accessor.UserID,
		IsPublic:    input.IsPublic,
	}

	settings := input.Settings
	if settings == nil {
		settings = &model.CollectionSettings{}
	}
	applySettingsDefaults(settings)

	if err := s.collectionRepo.Create(collection, settings); err != nil {
		return nil, err
	}
	return collection, nil
}

func (s *CollectionService) Get(accessor Accessor, id string) (*model.Collection, error) {
	collection, err := s.collectionRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if collection == nil {
		return nil, ErrNotFound
	}
	if !CanReadCollection(accessor, collection) {
		return nil, ErrForbidden
	}
	return collection, nil
}

// CollectionStats combines the cached counters maintained by the workers
// with live counts taken at request time.
type CollectionStats struct {
	CollectionID      string           `json:"collection_id"`
	TotalDocuments    int64            `json:"total_documents"`
	TotalChunks       int64            `json:"total_chunks"`
	TotalSizeBytes    int64            `json:"total_size_bytes"`
	DocumentsByStatus map[string]int64 `json:"documents_by_status"`
	LastIngestion     *time.Time       `json:"last_ingestion,omitempty"`
	LastQuery         *time.Time       `json:"last_query,omitempty"`
}

func (s *CollectionService) Stats(accessor Accessor, id string) (*CollectionStats, error) {
	collection, err := s.Get(accessor, id)
	if err != nil {
		return nil, err
	}

	byStatus, err := s.documentRepo.StatusCounts(id)
	if err != nil {
		return nil, err
	}
	var documents int64
	for _, n := range byStatus {
		documents += n
	}
	chunks, err := s.chunkRepo.CountByCollectionID(id)
	if err != nil {
		return nil, err
	}

	return &CollectionStats{
		CollectionID:      collection.ID,
		TotalDocuments:    documents,
		TotalChunks:       chunks,
		TotalSizeBytes:    collection.TotalSizeBytes,
		DocumentsByStatus: byStatus,
		LastIngestion:     collection.LastIngestion,
		LastQuery:         collection.LastQuery,
	}, nil
}

func (s *CollectionService) List(accessor Accessor, offset, limit int) ([]model.Collection, int64, error) {
	tenantID := accessor.TenantID
	if accessor.IsAdmin() {
		tenantID = ""
	}
	return s.collectionRepo.ListVisible(tenantID, offset, normalizeLimit(limit))
}

func (s *CollectionService) Update(accessor Accessor, id string, input UpdateCollectionInput) (*model.Collection, error) {
	collection, err := s.collectionRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if collection == nil {
		return nil, ErrNotFound
	}
	if !CanWriteCollection(accessor, collection) {
		return nil, ErrForbidden
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" || len(name) > 255 {
			return nil, ErrInvalidInput
		}
		collection.Name = name
	}
	if input.Description != nil {
		collection.Description = strings.TrimSpace(*input.Description)
	}
	if input.IsPublic != nil {
		collection.IsPublic = *input.IsPublic
	}
	if input.IsArchived != nil {
		collection.IsArchived = *input.IsArchived
	}

	if err := s.collectionRepo.Update(collection); err != nil {
		return nil, err
	}
	return collection, nil
}

func (s *CollectionService) Delete(accessor Accessor, id string) error {
	collection, err := s.collectionRepo.GetByID(id)
	if err != nil {
		return err
	}
	if collection == nil {
		return ErrNotFound
	}
	if !CanWriteCollection(accessor, collection) {
		return ErrForbidden
	}
	return s.collectionRepo.Delete(id)
}

func (s *CollectionService) GetSettings(accessor Accessor, collectionID string) (*model.CollectionSettings, error) {
	collection, err := s.collectionRepo.GetByID(collectionID)
	if err != nil {
		return nil, err
	}
	if collection == nil {
		return nil, ErrNotFound
	}
	if !CanReadCollection(accessor, collection) {
		return nil, ErrForbidden
	}

	settings, err := s.collectionRepo.GetSettings(collectionID)
	if err != nil {
		return nil, err
	}
	if settings == nil {
		settings = &model.CollectionSettings{CollectionID: collectionID}
		applySettingsDefaults(settings)
	}
	return settings, nil
}

func (s *CollectionService) UpdateSettings(accessor Accessor, collectionID string, input model.CollectionSettings) (*model.CollectionSettings, error) {
	collection, err := s.collectionRepo.GetByID(collectionID)
	if err != nil {
		return nil, err
	}
	if collection == nil {
		return nil, ErrNotFound
	}
	if !CanWriteCollection(accessor, collection) {
		return nil, ErrForbidden
	}
	if input.ChunkSize < 100 || input.ChunkSize > 8000 {
		return nil, ErrInvalidInput
	}
	if input.ChunkOverlap < 0 || input.ChunkOverlap >= input.ChunkSize {
		return nil, ErrInvalidInput
	}

	existing, err := s.collectionRepo.GetSettings(collectionID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		input.ID = existing.ID
	}
	input.CollectionID = collectionID
	applySettingsDefaults(&input)

	if err := s.collectionRepo.SaveSettings(&input); err != nil {
		return nil, err
	}
	return &input, nil
}

// visibleCollections filters the requested collection IDs down to those the
// accessor can read. Chat and evaluations use this before retrieval.
func (s *CollectionService) visibleCollections(accessor Accessor, ids []string) ([]string, error) {
	visible := make([]string, 0, len(ids))
	for _, id := range ids {
		collection, err := s.collectionRepo.GetByID(id)
		if err != nil {
			return nil, err
		}
		if collection == nil {
			continue
		}
		if CanReadCollection(accessor, collection) {
			visible = append(visible, id)
		}
	}
	return visible, nil
}

func applySettingsDefaults(s *model.CollectionSettings) {
	if s.ChunkSize <= 0 {
		s.ChunkSize = 1000
	}
	if s.ChunkOverlap < 0 {
		s.ChunkOverlap = 0
	}
	if s.ChunkOverlap == 0 && s.ChunkSize == 1000 {
		s.ChunkOverlap = 150
	}
	if s.RetrievalStrategy == "" {
		s.RetrievalStrategy = "hybrid"
	}
}

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return 20
	}
	if limit > 100 {
		return 100
	}
	return limit
}
