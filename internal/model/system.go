package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	ServiceHealthy  = "healthy"
	ServiceDegraded = "degraded"
	ServiceDown     = "down"
)

type ServiceStatus struct {
	ID             string    `gorm:"primaryKey;size:36" json:"id"`
	Name           string    `gorm:"size:100;not null" json:"name"`
	Status         string    `gorm:"size:20;not null" json:"status"`
	ResponseTimeMS int       `gorm:"default:0" json:"response_time_ms"`
	ErrorRate      float64   `gorm:"default:0" json:"error_rate"`
	LastCheck      time.Time `json:"last_check"`
}

func (s *ServiceStatus) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}

type SystemMetrics struct {
	ID                  string    `gorm:"primaryKey;size:36" json:"id"`
	Timestamp           time.Time `gorm:"index" json:"timestamp"`
	CPUUsage            float64   `json:"cpu_usage"`
	MemoryUsage         float64   `json:"memory_usage"`
	DiskUsage           float64   `json:"disk_usage"`
	ActiveUsers         int       `gorm:"default:0" json:"active_users"`
	TotalQueries        int64     `gorm:"default:0" json:"total_queries"`
	AverageResponseTime float64   `gorm:"default:0" json:"average_response_time"`
	ErrorCount          int64     `gorm:"default:0" json:"error_count"`
	UptimeSeconds       int64     `gorm:"default:0" json:"uptime_seconds"`
}

func (m *SystemMetrics) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	return nil
}
