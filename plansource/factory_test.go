package plansource

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hairizuan-noorazman/screen-guide/logger"
)

func TestNewSourceUnknownBackend(t *testing.T) {
	_, err := NewSource(Config{Backend: "carrier-pigeon"}, logger.NewTestLogger())
	assert.ErrorIs(t, err, ErrUnknownBackend)
	assert.Contains(t, err.Error(), "carrier-pigeon")
}
