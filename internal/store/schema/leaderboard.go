package schema

// LeaderboardEntry represents the leaderboard table - a derived snapshot of the top writers by streak
type LeaderboardEntry struct {
	FID             int64 `gorm:"column:fid;primaryKey;autoIncrement:false"`
	CurrentStreak   int   `gorm:"column:current_streak;not null;default:0"`
	MaxStreak       int   `gorm:"column:max_streak;not null;default:0"`
	DaysInAnkyverse int   `gorm:"column:days_in_ankyverse;not null;default:0"`
	// LastUpdated is the unix time of the rebuild that produced the row
	LastUpdated     int64 `gorm:"column:last_updated;not null"`
	TotalSessions   int64 `gorm:"column:total_sessions;not null;default:0"`
	TotalAnky       int64 `gorm:"column:total_anky;not null;default:0"`
	TotalAnkyMinted int64 `gorm:"column:total_anky_minted;not null;default:0"`
}

// TableName specifies the table name for the LeaderboardEntry model
func (LeaderboardEntry) TableName() string {
	return "leaderboard"
}
