package schema

import (
	"time"

	"gorm.io/datatypes"
)

// ProcessedEvent represents the processed_events table - a journal of lifecycle events already applied
type ProcessedEvent struct {
	// EventID identifies the log as chain:txHash:logIndex
	EventID     string         `gorm:"column:event_id;primaryKey;type:text"`
	EventType   string         `gorm:"column:event_type;not null;type:text"`
	FID         int64          `gorm:"column:fid;not null"`
	BlockNumber uint64         `gorm:"column:block_number;not null"`
	Raw         datatypes.JSON `gorm:"column:raw;type:jsonb"`
	ProcessedAt time.Time      `gorm:"column:processed_at;not null;default:now()"`
}

// TableName specifies the table name for the ProcessedEvent model
func (ProcessedEvent) TableName() string {
	return "processed_events"
}
