package schema

// Writer represents the writers table - one row per Farcaster account that has interacted with the contract
type Writer struct {
	// FID is the writer's Farcaster id
	FID int64 `gorm:"column:fid;primaryKey;autoIncrement:false"`
	// CurrentSessionID points at the writer's active session, nil when none is active
	CurrentSessionID *string `gorm:"column:current_session_id;type:text"`
	// TotalSessions counts distinct sessions observed starting for this writer
	TotalSessions int64 `gorm:"column:total_sessions;not null;default:0"`
}

// TableName specifies the table name for the Writer model
func (Writer) TableName() string {
	return "writers"
}

// HasActiveSession reports whether the writer currently points at a session
func (w *Writer) HasActiveSession() bool {
	return w.CurrentSessionID != nil && *w.CurrentSessionID != ""
}
