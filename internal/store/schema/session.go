package schema

// Session represents the sessions table - one writing attempt by a writer
//
// A session only moves forward: Active, then AbruptlyEnded or Ended, then Minted.
// IsAnky and IsMinted never flip back to false and IsMinted implies IsAnky.
type Session struct {
	// ID is the client-supplied session id
	ID string `gorm:"column:id;primaryKey;type:text"`
	// FID is the owning writer
	FID int64 `gorm:"column:fid;not null;index:idx_sessions_fid"`
	// StartTime is the unix start time, nil when the session was referenced before its start was observed
	StartTime *int64 `gorm:"column:start_time"`
	// EndTime is the unix block timestamp of the ending event
	EndTime *int64 `gorm:"column:end_time"`
	// IpfsHash is the content hash of the written text
	IpfsHash *string `gorm:"column:ipfs_hash;type:text"`
	IsAnky   bool    `gorm:"column:is_anky;not null;default:false"`
	IsMinted bool    `gorm:"column:is_minted;not null;default:false"`
}

// TableName specifies the table name for the Session model
func (Session) TableName() string {
	return "sessions"
}

// Ended reports whether the session has reached a terminal state
func (s *Session) Ended() bool {
	return s.EndTime != nil
}

// DayTime returns the timestamp used to bucket the session into a day,
// the start time when known and the end time otherwise
func (s *Session) DayTime() (int64, bool) {
	if s.StartTime != nil {
		return *s.StartTime, true
	}
	if s.EndTime != nil {
		return *s.EndTime, true
	}
	return 0, false
}
