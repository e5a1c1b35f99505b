package app

import (
	"context"
	"fmt"
	"runtime"
	"time"

	redisv9 "github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"ragstack/internal/model"
	"ragstack/internal/repository"
)

// SystemService backs the admin endpoints: tenant statistics, service
// health, audit queries and user administration.
type SystemService struct {
	db          *gorm.DB
	redisClient *redisv9.Client
	userRepo    *repository.UserRepository
	collRepo    *repository.CollectionRepository
	docRepo     *repository.DocumentRepository
	auditRepo   *repository.AuditRepository
	systemRepo  *repository.SystemRepository
	startedAt   time.Time
}

type SystemStats struct {
	TotalUsers       int64                 `json:"total_users"`
	TotalCollections int64                 `json:"total_collections"`
	TotalDocuments   int64                 `json:"total_documents"`
	ActiveSessions   int64                 `json:"active_sessions"`
	UptimeSeconds    int64                 `json:"uptime_seconds"`
	Status           string                `json:"status"`
	Services         []model.ServiceStatus `json:"services"`
	Metrics          *model.SystemMetrics  `json:"metrics,omitempty"`
}

func NewSystemService(
	db *gorm.DB,
	redisClient *redisv9.Client,
	userRepo *repository.UserRepository,
	collRepo *repository.CollectionRepository,
	docRepo *repository.DocumentRepository,
	auditRepo *repository.AuditRepository,
	systemRepo *repository.SystemRepository,
) *SystemService {
	return &SystemService{
		db:          db,
		redisClient: redisClient,
		userRepo:    userRepo,
		collRepo:    collRepo,
		docRepo:     docRepo,
		auditRepo:   auditRepo,
		systemRepo:  systemRepo,
		startedAt:   time.Now(),
	}
}

// Stats aggregates global counts and service health. Admin only.
func (s *SystemService) Stats(accessor Accessor) (*SystemStats, error) {
	if !accessor.IsAdmin() {
		return nil, ErrForbidden
	}
	tenantID := ""

	users, err := s.userRepo.CountByTenant(tenantID)
	if err != nil {
		return nil, err
	}
	collections, err := s.collRepo.CountByTenant(tenantID)
	if err != nil {
		return nil, err
	}
	documents, err := s.docRepo.CountByTenant(tenantID)
	if err != nil {
		return nil, err
	}

	sessionQuery := s.db.Model(&model.ChatSession{}).
		Where("updated_at >= ? AND is_archived = ?", time.Now().Add(-time.Hour), false)
	if tenantID != "" {
		sessionQuery = sessionQuery.Where("tenant_id = ?", tenantID)
	}
	var activeSessions int64
	if err := sessionQuery.Count(&activeSessions).Error; err != nil {
		return nil, fmt.Errorf("count active sessions failed: %w", err)
	}

	services, err := s.systemRepo.ListServiceStatuses()
	if err != nil {
		return nil, err
	}
	if len(services) == 0 {
		services = defaultServiceStatuses()
	}
	metrics, err := s.systemRepo.LatestMetrics()
	if err != nil {
		return nil, err
	}

	return &SystemStats{
		TotalUsers:       users,
		TotalCollections: collections,
		TotalDocuments:   documents,
		ActiveSessions:   activeSessions,
		UptimeSeconds:    int64(time.Since(s.startedAt).Seconds()),
		Status:           overallStatus(services),
		Services:         services,
		Metrics:          metrics,
	}, nil
}

// defaultServiceStatuses is used before the first health probe has run.
func defaultServiceStatuses() []model.ServiceStatus {
	now := time.Now()
	return []model.ServiceStatus{
		{Name: "database", Status: model.ServiceHealthy, LastCheck: now},
		{Name: "redis", Status: model.ServiceHealthy, LastCheck: now},
	}
}

func overallStatus(services []model.ServiceStatus) string {
	for _, svc := range services {
		if svc.Status != model.ServiceHealthy {
			return model.ServiceDegraded
		}
	}
	return model.ServiceHealthy
}

// CheckServices probes the database and Redis, records the outcome and
// returns the current statuses.
func (s *SystemService) CheckServices(ctx context.Context) ([]model.ServiceStatus, error) {
	now := time.Now()

	dbStatus := model.ServiceStatus{Name: "database", Status: model.ServiceHealthy, LastCheck: now}
	started := time.Now()
	sqlDB, err := s.db.DB()
	if err == nil {
		err = sqlDB.PingContext(ctx)
	}
	if err != nil {
		dbStatus.Status = model.ServiceDown
	}
	dbStatus.ResponseTimeMS = int(time.Since(started).Milliseconds())
	if err := s.systemRepo.UpsertServiceStatus(&dbStatus); err != nil {
		return nil, err
	}

	redisStatus := model.ServiceStatus{Name: "redis", Status: model.ServiceHealthy, LastCheck: now}
	started = time.Now()
	if err := s.redisClient.Ping(ctx).Err(); err != nil {
		redisStatus.Status = model.ServiceDown
	}
	redisStatus.ResponseTimeMS = int(time.Since(started).Milliseconds())
	if err := s.systemRepo.UpsertServiceStatus(&redisStatus); err != nil {
		return nil, err
	}

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)
	snapshot := &model.SystemMetrics{
		Timestamp:           now,
		MemoryUsage:         float64(mem.HeapAlloc) / (1 << 20),
		AverageResponseTime: float64(dbStatus.ResponseTimeMS+redisStatus.ResponseTimeMS) / 2,
		UptimeSeconds:       int64(time.Since(s.startedAt).Seconds()),
	}
	if err := s.systemRepo.SaveMetrics(snapshot); err != nil {
		return nil, err
	}

	return s.systemRepo.ListServiceStatuses()
}

// AuditLogs returns audit entries matching the filter. Admin only.
func (s *SystemService) AuditLogs(accessor Accessor, filter repository.AuditFilter, offset, limit int) ([]model.AuditLog, int64, error) {
	if !accessor.IsAdmin() {
		return nil, 0, ErrForbidden
	}
	return s.auditRepo.List(filter, offset, normalizeLimit(limit))
}

// ResourceAuditLogs returns the audit trail of one resource. Any tenant
// member may read it; non-admins are pinned to their own tenant.
func (s *SystemService) ResourceAuditLogs(accessor Accessor, resourceType, resourceID string, offset, limit int) ([]model.AuditLog, int64, error) {
	filter := repository.AuditFilter{
		ResourceType: resourceType,
		ResourceID:   resourceID,
	}
	if !accessor.IsAdmin() {
		filter.TenantID = accessor.TenantID
	}
	return s.auditRepo.List(filter, offset, normalizeLimit(limit))
}

func (s *SystemService) ListUsers(accessor Accessor, offset, limit int) ([]model.User, int64, error) {
	if !accessor.IsAdmin() {
		return nil, 0, ErrForbidden
	}
	return s.userRepo.List("", offset, normalizeLimit(limit))
}

// SetUserActive lets an admin disable or re-enable an account.
func (s *SystemService) SetUserActive(accessor Accessor, userID string, active bool) (*model.User, error) {
	if !accessor.IsAdmin() {
		return nil, ErrForbidden
	}
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrNotFound
	}

	user.IsActive = active
	if err := s.userRepo.Update(user); err != nil {
		return nil, err
	}
	return user, nil
}

// SetUserRole lets an admin change a user's role.
func (s *SystemService) SetUserRole(accessor Accessor, userID, role string) (*model.User, error) {
	if !accessor.IsAdmin() {
		return nil, ErrForbidden
	}
	if role != model.RoleAdmin && role != model.RoleUser && role != model.RoleViewer {
		return nil, ErrInvalidInput
	}

	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrNotFound
	}

	user.Role = role
	if err := s.userRepo.Update(user); err != nil {
		return nil, err
	}
	return user, nil
}
