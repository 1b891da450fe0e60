package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStringNilOrEmpty(t *testing.T) {
	assert.True(t, StringNilOrEmpty(nil))
	assert.True(t, StringNilOrEmpty(StringPtr("")))
	assert.False(t, StringNilOrEmpty(StringPtr("x")))
}

func TestFormatInt64Ptr(t *testing.T) {
	assert.Nil(t, FormatInt64Ptr(nil))
	assert.Equal(t, "1691658000", *FormatInt64Ptr(Int64Ptr(1691658000)))
	assert.Equal(t, "-5", FormatInt64(-5))
}

func TestParseFID(t *testing.T) {
	tests := []struct {
		name  string
		input string
		fid   int64
		ok    bool
	}{
		{"valid", "16098", 16098, true},
		{"zero", "0", 0, true},
		{"negative", "-1", 0, false},
		{"not a number", "abc", 0, false},
		{"empty", "", 0, false},
		{"overflow", "99999999999999999999", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fid, ok := ParseFID(tt.input)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.fid, fid)
		})
	}
}
