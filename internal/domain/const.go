package domain

import "time"

const (
	// Chain constants
	DEGEN_CHAIN_ID                 = 666666666
	ANKY_FRAMESGIVING_CONTRACT     = "0xBc25EA092e9BEd151FD1947eE1Cf957cfdd580ef"
	ANKY_FRAMESGIVING_DEPLOY_BLOCK = 24905511

	// Leaderboard constants
	DEFAULT_LEADERBOARD_SIZE = 8

	SECONDS_PER_DAY = 86400
)

// AnkyverseEpoch is the global start of the Ankyverse (2023-08-10 05:00 EDT).
// Every writer shares the same "days in Ankyverse" value derived from it.
var AnkyverseEpoch = time.Date(2023, time.August, 10, 9, 0, 0, 0, time.UTC)
