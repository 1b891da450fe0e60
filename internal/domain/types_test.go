package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIsValidChain(t *testing.T) {
	tests := []struct {
		name     string
		chain    Chain
		expected bool
	}{
		{
			name:     "valid degen mainnet",
			chain:    ChainDegenMainnet,
			expected: true,
		},
		{
			name:     "invalid empty chain",
			chain:    Chain(""),
			expected: false,
		},
		{
			name:     "invalid ethereum mainnet",
			chain:    Chain("eip155:1"),
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsValidChain(tt.chain))
		})
	}
}

func TestAnkyEvent_Valid(t *testing.T) {
	base := func(et EventType) AnkyEvent {
		return AnkyEvent{
			Chain:          ChainDegenMainnet,
			EventType:      et,
			FID:            16098,
			TxFrom:         "0x396343362be2A4dA1cE0C1C210945346fb82Aa49",
			TxHash:         "0xabc",
			LogIndex:       3,
			BlockNumber:    24905600,
			BlockTimestamp: 1732000000,
		}
	}

	tests := []struct {
		name     string
		event    func() AnkyEvent
		expected bool
	}{
		{
			name: "valid session started",
			event: func() AnkyEvent {
				e := base(EventTypeSessionStarted)
				e.SessionID = "s1"
				e.StartTime = 1732000000
				return e
			},
			expected: true,
		},
		{
			name: "session started without session id",
			event: func() AnkyEvent {
				return base(EventTypeSessionStarted)
			},
			expected: false,
		},
		{
			name: "valid session ended abruptly",
			event: func() AnkyEvent {
				e := base(EventTypeSessionEndedAbruptly)
				e.SessionID = "s1"
				return e
			},
			expected: true,
		},
		{
			name: "valid session ended",
			event: func() AnkyEvent {
				e := base(EventTypeSessionEnded)
				e.IsAnky = true
				return e
			},
			expected: true,
		},
		{
			name: "anky written without ipfs hash",
			event: func() AnkyEvent {
				e := base(EventTypeAnkyWritten)
				e.SessionID = "s1"
				return e
			},
			expected: false,
		},
		{
			name: "valid anky written",
			event: func() AnkyEvent {
				e := base(EventTypeAnkyWritten)
				e.SessionID = "s1"
				e.IpfsHash = "QmWriting"
				e.WrittenAt = 1732000500
				return e
			},
			expected: true,
		},
		{
			name: "valid anky minted",
			event: func() AnkyEvent {
				e := base(EventTypeAnkyMinted)
				e.IpfsHash = "QmMetadata"
				e.TokenID = "42"
				return e
			},
			expected: true,
		},
		{
			name: "anky minted with non-decimal token id",
			event: func() AnkyEvent {
				e := base(EventTypeAnkyMinted)
				e.TokenID = "0x2a"
				return e
			},
			expected: false,
		},
		{
			name: "unknown event type",
			event: func() AnkyEvent {
				return base(EventType("transfer"))
			},
			expected: false,
		},
		{
			name: "wrong chain",
			event: func() AnkyEvent {
				e := base(EventTypeSessionEnded)
				e.Chain = Chain("eip155:1")
				return e
			},
			expected: false,
		},
		{
			name: "missing tx hash",
			event: func() AnkyEvent {
				e := base(EventTypeSessionEnded)
				e.TxHash = ""
				return e
			},
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := tt.event()
			assert.Equal(t, tt.expected, e.Valid())
		})
	}
}

func TestAnkyEvent_ID(t *testing.T) {
	e := AnkyEvent{Chain: ChainDegenMainnet, TxHash: "0xABCdef", LogIndex: 7}
	assert.Equal(t, "eip155:666666666:0xabcdef:7", e.ID())
}

func TestAnkyEvent_Subject(t *testing.T) {
	e := AnkyEvent{EventType: EventTypeAnkyMinted}
	assert.Equal(t, "events.anky.anky_minted", e.Subject())
}

func TestAnkyEvent_Timestamp(t *testing.T) {
	e := AnkyEvent{BlockTimestamp: 1691658000}
	assert.Equal(t, AnkyverseEpoch, e.Timestamp())
	assert.Equal(t, time.UTC, e.Timestamp().Location())
}

func TestIsValidEventType(t *testing.T) {
	for _, et := range EventTypes {
		assert.True(t, IsValidEventType(et))
	}
	assert.False(t, IsValidEventType(EventType("mint")))
}

func TestValidTokenNumber(t *testing.T) {
	assert.True(t, ValidTokenNumber("0"))
	assert.True(t, ValidTokenNumber("115792089237316195423570985008687907853269984665640564039457584007913129639935"))
	assert.False(t, ValidTokenNumber(""))
	assert.False(t, ValidTokenNumber("-1"))
	assert.False(t, ValidTokenNumber("1a"))
}

func TestNormalizeAddress(t *testing.T) {
	assert.Equal(t, "0x396343362be2A4dA1cE0C1C210945346fb82Aa49", NormalizeAddress("0x396343362be2a4da1ce0c1c210945346fb82aa49"))
	assert.Equal(t, "tz1abc", NormalizeAddress("tz1abc"))
}
