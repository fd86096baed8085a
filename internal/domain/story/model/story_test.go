package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStoryIsExpired(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	s := &Story{ExpiresAt: now}

	assert.True(t, s.IsExpired(now))
	assert.True(t, s.IsExpired(now.Add(time.Second)))
	assert.False(t, s.IsExpired(now.Add(-time.Second)))
}
