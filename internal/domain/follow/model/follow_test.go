package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusOf(t *testing.T) {
	assert.Equal(t, FollowStatusNone, StatusOf(nil))
	assert.Equal(t, FollowStatusPending, StatusOf(&Follow{Status: StatusPending}))
	assert.Equal(t, FollowStatusFollowing, StatusOf(&Follow{Status: StatusAccepted}))
}
