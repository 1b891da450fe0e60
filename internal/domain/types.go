package domain

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// Chain represents the blockchain network identifier using CAIP-2 format
type Chain string

const (
	ChainDegenMainnet Chain = "eip155:666666666"
)

// IsValidChain checks if a chain is valid
func IsValidChain(chain Chain) bool {
	return chain == ChainDegenMainnet
}

// EventType represents the type of writing session lifecycle event
type EventType string

const (
	EventTypeSessionStarted       EventType = "session_started"
	EventTypeSessionEndedAbruptly EventType = "session_ended_abruptly"
	EventTypeSessionEnded         EventType = "session_ended"
	EventTypeAnkyWritten          EventType = "anky_written"
	EventTypeAnkyMinted           EventType = "anky_minted"
)

// EventTypes lists every lifecycle event type in declaration order
var EventTypes = []EventType{
	EventTypeSessionStarted,
	EventTypeSessionEndedAbruptly,
	EventTypeSessionEnded,
	EventTypeAnkyWritten,
	EventTypeAnkyMinted,
}

// IsValidEventType checks if an event type is one of the lifecycle events
func IsValidEventType(t EventType) bool {
	for _, et := range EventTypes {
		if et == t {
			return true
		}
	}
	return false
}

// AnkyEvent represents a normalized AnkyFramesgiving contract event
// This is the standard format published to NATS
type AnkyEvent struct {
	Chain          Chain     `json:"chain"`                // e.g., "eip155:666666666"
	EventType      EventType `json:"event_type"`           // session_started, session_ended_abruptly, session_ended, anky_written, anky_minted
	FID            int64     `json:"fid"`                  // farcaster id of the writer
	SessionID      string    `json:"session_id,omitempty"` // session_started, session_ended_abruptly, anky_written
	StartTime      int64     `json:"start_time,omitempty"` // session_started (unix seconds)
	IsAnky         bool      `json:"is_anky,omitempty"`    // session_ended
	IpfsHash       string    `json:"ipfs_hash,omitempty"`  // anky_written (writing hash), anky_minted (metadata hash)
	WrittenAt      int64     `json:"written_at,omitempty"` // anky_written (unix seconds)
	TokenID        string    `json:"token_id,omitempty"`   // anky_minted, decimal uint256
	TxFrom         string    `json:"tx_from"`              // transaction sender
	TxHash         string    `json:"tx_hash"`              // transaction hash
	LogIndex       uint      `json:"log_index"`            // log index in the block
	BlockNumber    uint64    `json:"block_number"`         // block number
	BlockTimestamp int64     `json:"block_timestamp"`      // block timestamp (unix seconds)
}

// ID returns the identifier of the event, unique per log
func (e *AnkyEvent) ID() string {
	return fmt.Sprintf("%s:%s:%d", e.Chain, strings.ToLower(e.TxHash), e.LogIndex)
}

// Timestamp returns the block timestamp as time
func (e *AnkyEvent) Timestamp() time.Time {
	return time.Unix(e.BlockTimestamp, 0).UTC()
}

// Subject returns the NATS subject suffix for the event
func (e *AnkyEvent) Subject() string {
	return fmt.Sprintf("events.anky.%s", e.EventType)
}

func (e *AnkyEvent) Valid() bool {
	if !IsValidChain(e.Chain) {
		return false
	}

	if e.FID < 0 || e.TxHash == "" {
		return false
	}

	// Validate different fields based on event type
	switch e.EventType {
	case EventTypeSessionStarted:
		if e.SessionID == "" || e.StartTime < 0 {
			return false
		}
	case EventTypeSessionEndedAbruptly:
		if e.SessionID == "" {
			return false
		}
	case EventTypeSessionEnded:
		// isAnky and the block are all that is carried
	case EventTypeAnkyWritten:
		if e.SessionID == "" || e.IpfsHash == "" {
			return false
		}
	case EventTypeAnkyMinted:
		if !ValidTokenNumber(e.TokenID) {
			return false
		}
		if e.TxFrom != "" && !common.IsHexAddress(e.TxFrom) {
			return false
		}
	default:
		return false
	}

	return true
}

// NormalizeAddress normalizes an address to its checksummed form
func NormalizeAddress(address string) string {
	if strings.HasPrefix(address, "0x") {
		return common.HexToAddress(address).String()
	}
	return address
}

var tokenNumberRegexp = regexp.MustCompile(`^[0-9]+$`)

// ValidTokenNumber checks if a token number is a non-empty decimal integer
func ValidTokenNumber(tokenNumber string) bool {
	return tokenNumberRegexp.MatchString(tokenNumber)
}
