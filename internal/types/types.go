package types

import (
	"strconv"
)

// StringPtr converts a string to a pointer to a string
func StringPtr(s string) *string {
	return &s
}

// Int64Ptr converts an int64 to a pointer to an int64
func Int64Ptr(i int64) *int64 {
	return &i
}

// BoolPtr converts a bool to a pointer to a bool
func BoolPtr(b bool) *bool {
	return &b
}

// StringNilOrEmpty checks if a pointer to a string is nil or empty
func StringNilOrEmpty(s *string) bool {
	return s == nil || *s == ""
}

// FormatInt64 formats an int64 as a decimal string
func FormatInt64(i int64) string {
	return strconv.FormatInt(i, 10)
}

// FormatInt64Ptr formats an optional int64 as a decimal string, nil stays nil
func FormatInt64Ptr(i *int64) *string {
	if i == nil {
		return nil
	}
	s := strconv.FormatInt(*i, 10)
	return &s
}

// ParseFID parses a Farcaster id from its decimal representation
func ParseFID(s string) (int64, bool) {
	fid, err := strconv.ParseInt(s, 10, 64)
	if err != nil || fid < 0 {
		return 0, false
	}
	return fid, true
}
