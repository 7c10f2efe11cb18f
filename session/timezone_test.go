package session

import (
	"testing"
	"time"

	"gotest.tools/v3/assert"
)

func TestParseTimezonePositiveOffset(t *testing.T) {
	loc, err := ParseTimezone("GMT+08:00")
	assert.NilError(t, err)
	_, offset := time.Now().In(loc).Zone()
	assert.Equal(t, offset, 8*60*60)
}

func TestParseTimezoneNegativeOffset(t *testing.T) {
	loc, err := ParseTimezone("GMT-05:30")
	assert.NilError(t, err)
	_, offset := time.Now().In(loc).Zone()
	assert.Equal(t, offset, -(5*3600 + 30*60))
}

func TestParseTimezoneInvalid(t *testing.T) {
	_, err := ParseTimezone("Asia/Shanghai")
	assert.ErrorContains(t, err, "invalid timezone")
}
