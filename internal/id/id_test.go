package id

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeKey(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"  HDFC ", "HDFC"},
		{"site-1", "site-1"},
		{"\tUTR123\n", "UTR123"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeKey(tt.input))
	}
}

func TestValidateKey(t *testing.T) {
	good := []string{"HDFC", "Site A", "UTR-0001", "axis_bank"}
	for _, k := range good {
		assert.NoError(t, ValidateKey(k), "key %q", k)
	}

	bad := []string{"", "a/b", "a.b", "#1", "$x", "[x]"}
	for _, k := range bad {
		assert.Error(t, ValidateKey(k), "expected error for key %q", k)
	}
	assert.ErrorIs(t, ValidateKey(""), ErrEmptyKey)
}

func TestParseDate(t *testing.T) {
	got, err := ParseDate("2025-01-03")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 1, 3, 0, 0, 0, 0, time.UTC), got)
	assert.Equal(t, "2025-01-03", FormatDate(got))
}

func TestParseDate_Errors(t *testing.T) {
	badInputs := []string{
		"",
		"01/03/2025",
		"2025-13-01",
		"not-a-date",
	}
	for _, input := range badInputs {
		_, err := ParseDate(input)
		assert.Error(t, err, "expected error for input: %s", input)
	}
}

func TestNewEventID(t *testing.T) {
	a := NewEventID()
	b := NewEventID()
	assert.NotEqual(t, a, b)

	_, err := uuid.Parse(a)
	assert.NoError(t, err)
}
