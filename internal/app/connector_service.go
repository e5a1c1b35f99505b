package app

import (
	"context"
	"strings"

	"ragstack/internal/model"
	"ragstack/internal/platform/rabbitmq"
	"ragstack/internal/repository"
)

type ConnectorService struct {
	connectorRepo  *repository.ConnectorRepository
	collectionRepo *repository.CollectionRepository
	publisher      *rabbitmq.TaskPublisher
	syncQueue      string
}

type CreateConnectorInput struct {
	Name     string
	Type     string
	Config   model.ConnectorConfig
	Settings *model.SyncSettings
	Filters  *model.ConnectorFilters
}

type UpdateConnectorInput struct {
	Name     *string
	Config   *model.ConnectorConfig
	Settings *model.SyncSettings
	Filters  *model.ConnectorFilters
	Status   *string
}

func NewConnectorService(
	connectorRepo *repository.ConnectorRepository,
	collectionRepo *repository.CollectionRepository,
	publisher *rabbitmq.TaskPublisher,
	syncQueue string,
) *ConnectorService {
	return &ConnectorService{
		connectorRepo:  connectorRepo,
		collectionRepo: collectionRepo,
		publisher:      publisher,
		syncQueue:      syncQueue,
	}
}

func (s *ConnectorService) Create(accessor Accessor, input CreateConnectorInput) (*model.Connector, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ErrInvalidInput
	}
	if !validConnectorType(input.Type) {
		return nil, ErrInvalidInput
	}

	if input.Config.CollectionID != "" {
		collection, err := s.collectionRepo.GetByID(input.Config.CollectionID)
		if err != nil {
			return nil, err
		}
		if collection == nil {
			return nil, ErrNotFound
		}
		if !CanWriteCollection(accessor, collection) {
			return nil, ErrForbidden
		}
	}

	connector := &model.Connector{
		Name:     name,
		Type:     input.Type,
		Status:   model.ConnectorStatusInactive,
		TenantID: accessor.TenantID,
		OwnerID:  accessor.UserID,
	}
	connector.SetConfig(input.Config)
	if input.Settings != nil {
		connector.SetSyncSettings(*input.Settings)
	}
	if input.Filters != nil {
		connector.SetFilters(*input.Filters)
	}

	if err := s.connectorRepo.Create(connector); err != nil {
		return nil, err
	}
	return connector, nil
}

func (s *ConnectorService) Get(accessor Accessor, id string) (*model.Connector, error) {
	connector, err := s.connectorRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if connector == nil {
		return nil, ErrNotFound
	}
	if !CanViewTenantResource(accessor, connector.TenantID) {
		return nil, ErrForbidden
	}
	return connector, nil
}

func (s *ConnectorService) List(accessor Accessor, connectorType, status string, offset, limit int) ([]model.Connector, int64, error) {
	return s.connectorRepo.ListByTenant(accessor.TenantID, connectorType, status, offset, normalizeLimit(limit))
}

func (s *ConnectorService) Update(accessor Accessor, id string, input UpdateConnectorInput) (*model.Connector, error) {
	connector, err := s.loadManaged(accessor, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, ErrInvalidInput
		}
		connector.Name = name
	}
	if input.Config != nil {
		connector.SetConfig(*input.Config)
	}
	if input.Settings != nil {
		connector.SetSyncSettings(*input.Settings)
	}
	if input.Filters != nil {
		connector.SetFilters(*input.Filters)
	}
	if input.Status != nil {
		if *input.Status != model.ConnectorStatusActive && *input.Status != model.ConnectorStatusInactive {
			return nil, ErrInvalidInput
		}
		connector.Status = *input.Status
	}

	if err := s.connectorRepo.Update(connector); err != nil {
		return nil, err
	}
	return connector, nil
}

func (s *ConnectorService) Delete(accessor Accessor, id string) error {
	if _, err := s.loadManaged(accessor, id); err != nil {
		return err
	}
	return s.connectorRepo.Delete(id)
}

// TriggerSync marks the connector syncing and enqueues a sync run.
func (s *ConnectorService) TriggerSync(ctx context.Context, accessor Accessor, id string) (*model.Connector, error) {
	connector, err := s.loadManaged(accessor, id)
	if err != nil {
		return nil, err
	}
	if connector.Status == model.ConnectorStatusSyncing {
		return nil, ErrNotReady
	}

	if err := s.connectorRepo.UpdateStatus(id, model.ConnectorStatusSyncing, ""); err != nil {
		return nil, err
	}

	task := rabbitmq.ConnectorTask{ConnectorID: id, TenantID: connector.TenantID}
	if err := s.publisher.Publish(ctx, s.syncQueue, "connector.sync", task); err != nil {
		return nil, err
	}

	connector.Status = model.ConnectorStatusSyncing
	return connector, nil
}

// Types lists the supported connector types for the frontend picker.
func (s *ConnectorService) Types() []string {
	return model.ConnectorTypes
}

func (s *ConnectorService) loadManaged(accessor Accessor, id string) (*model.Connector, error) {
	connector, err := s.connectorRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if connector == nil {
		return nil, ErrNotFound
	}
	if !CanManageTenantResource(accessor, connector.OwnerID, connector.TenantID) {
		return nil, ErrForbidden
	}
	return connector, nil
}

func validConnectorType(t string) bool {
	for _, known := range model.ConnectorTypes {
		if t == known {
			return true
		}
	}
	return false
}
