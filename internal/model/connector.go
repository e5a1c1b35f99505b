package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	ConnectorStatusActive   = "active"
	ConnectorStatusInactive = "inactive"
	ConnectorStatusSyncing  = "syncing"
	ConnectorStatusError    = "error"
)

// ConnectorTypes are the external sources a connector can pull from.
// Only the s3 type syncs against a live backend; the rest are integration
// records whose sync reports an error until their clients land.
var ConnectorTypes = []string{"s3", "sharepoint", "google_drive", "box", "confluence", "jira", "imap", "slack"}

type ConnectorConfig struct {
	BaseURL      string            `json:"base_url,omitempty"`
	Prefix       string            `json:"prefix,omitempty"`
	CollectionID string            `json:"collection_id,omitempty"`
	Credentials  map[string]string `json:"credentials,omitempty"`
}

type SyncSettings struct {
	Frequency          string `json:"frequency"` // manual, hourly, daily, weekly
	IncrementalSync    bool   `json:"incremental_sync"`
	DeleteRemovedFiles bool   `json:"delete_removed_files"`
	MaxFileSize        int64  `json:"max_file_size"`
}

type ConnectorFilters struct {
	IncludePatterns []string `json:"include_patterns,omitempty"`
	ExcludePatterns []string `json:"exclude_patterns,omitempty"`
	FolderPaths     []string `json:"folder_paths,omitempty"`
}

type Connector struct {
	ID       string `gorm:"primaryKey;size:36" json:"id"`
	Name     string `gorm:"size:255;not null" json:"name"`
	Type     string `gorm:"column:connector_type;size:50;not null" json:"type"`
	Status   string `gorm:"size:20;default:inactive" json:"status"`
	TenantID string `gorm:"size:255;not null;index" json:"tenant_id"`
	OwnerID  string `gorm:"size:36;not null;index" json:"owner_id"`

	ConfigJSON   string `gorm:"column:config;type:text" json:"-"`
	SettingsJSON string `gorm:"column:sync_settings;type:text" json:"-"`
	FiltersJSON  string `gorm:"column:filters;type:text" json:"-"`

	LastSync           *time.Time `json:"last_sync,omitempty"`
	TotalFilesSynced   int        `gorm:"default:0" json:"total_files_synced"`
	TotalSizeBytes     int64      `gorm:"default:0" json:"total_size_bytes"`
	LastSyncDurationMS int64      `gorm:"default:0" json:"last_sync_duration_ms"`
	ErrorsCount        int        `gorm:"default:0" json:"errors_count"`
	LastError          string     `gorm:"type:text" json:"last_error,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (c *Connector) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

func (c *Connector) Config() ConnectorConfig {
	var cfg ConnectorConfig
	if c.ConfigJSON != "" {
		_ = json.Unmarshal([]byte(c.ConfigJSON), &cfg)
	}
	return cfg
}

func (c *Connector) SetConfig(cfg ConnectorConfig) {
	b, _ := json.Marshal(cfg)
	c.ConfigJSON = string(b)
}

func (c *Connector) SyncSettings() SyncSettings {
	s := SyncSettings{Frequency: "manual", IncrementalSync: true, MaxFileSize: 10 << 20}
	if c.SettingsJSON != "" {
		_ = json.Unmarshal([]byte(c.SettingsJSON), &s)
	}
	return s
}

func (c *Connector) SetSyncSettings(s SyncSettings) {
	b, _ := json.Marshal(s)
	c.SettingsJSON = string(b)
}

func (c *Connector) Filters() ConnectorFilters {
	var f ConnectorFilters
	if c.FiltersJSON != "" {
		_ = json.Unmarshal([]byte(c.FiltersJSON), &f)
	}
	return f
}

func (c *Connector) SetFilters(f ConnectorFilters) {
	b, _ := json.Marshal(f)
	c.FiltersJSON = string(b)
}
