package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestValidatePhone(t *testing.T) {
	tests := []struct {
		phone string
		want  bool
	}{
		{"+919876543210", true},
		{"9876543210", true},
		{"+1 (415) 555-0100", true},
		{"0123456789", false},
		{"12345", false},
		{"+91-98765-abcde", false},
		{"", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ValidatePhone(tt.phone), tt.phone)
	}
}

func TestValidateEmail(t *testing.T) {
	assert.True(t, ValidateEmail("owner@glowstudio.in"))
	assert.False(t, ValidateEmail("Owner <owner@glowstudio.in>"))
	assert.False(t, ValidateEmail("owner.glowstudio.in"))
}

func TestClock(t *testing.T) {
	m, err := ParseClock("09:30")
	assert.NoError(t, err)
	assert.Equal(t, 570, m)
	assert.Equal(t, "09:30", FormatClock(m))
	assert.Equal(t, "9:30 AM", ClockLabel(m))
	assert.Equal(t, "12:00 PM", ClockLabel(12*60))
	assert.Equal(t, "12:15 AM", ClockLabel(15))

	end, err := ParseClock("24:00")
	assert.NoError(t, err)
	assert.Equal(t, 1440, end)

	for _, bad := range []string{"9:30", "25:00", "09:60", "noon"} {
		_, err := ParseClock(bad)
		assert.ErrorIs(t, err, ErrInvalidClock, bad)
	}
}

func TestDates(t *testing.T) {
	_, err := ParseDate("2030-02-30")
	assert.ErrorIs(t, err, ErrInvalidDate)

	start, err := ParseDate("2030-12-30")
	assert.NoError(t, err)
	end, _ := ParseDate("2031-01-02")
	assert.Equal(t, 3, DaysBetween(start, end.Add(23*time.Hour)))
}

func TestGenerateRandomString(t *testing.T) {
	s := GenerateRandomString(8)
	assert.Len(t, s, 8)
	for _, r := range s {
		assert.Contains(t, randomAlphabet, string(r))
	}
	assert.NotEqual(t, s, GenerateRandomString(8))
}
