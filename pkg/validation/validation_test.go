package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsValidEmail(t *testing.T) {
	assert.True(t, IsValidEmail("reader@example.com"))
	assert.True(t, IsValidEmail("  reader+garden@example.co.uk "))
	assert.False(t, IsValidEmail("reader@"))
	assert.False(t, IsValidEmail(""))
}

func TestIsValidStationCode(t *testing.T) {
	assert.True(t, IsValidStationCode("BOU"))
	assert.True(t, IsValidStationCode("KDEN"))
	assert.False(t, IsValidStationCode("bou"))
	assert.False(t, IsValidStationCode("BO"))
	assert.False(t, IsValidStationCode("BOULDER"))
}

func TestIsValidAuthorKey(t *testing.T) {
	assert.True(t, IsValidAuthorKey("hemingway"))
	assert.True(t, IsValidAuthorKey("oconnor"))
	assert.False(t, IsValidAuthorKey("Hemingway"))
	assert.False(t, IsValidAuthorKey(""))
}

func TestIsValidRunDate(t *testing.T) {
	assert.True(t, IsValidRunDate("2026-10-15"))
	assert.False(t, IsValidRunDate("2026-13-01"))
	assert.False(t, IsValidRunDate("15/10/2026"))
	assert.False(t, IsValidRunDate(""))
}

func TestTrimAndValidate(t *testing.T) {
	v, ok := TrimAndValidate("  Denver ")
	assert.True(t, ok)
	assert.Equal(t, "Denver", v)

	_, ok = TrimAndValidate("   ")
	assert.False(t, ok)
}
