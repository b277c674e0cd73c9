package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDemoClientAPIKey(t *testing.T) {
	now := time.Date(2024, 5, 10, 0, 30, 0, 0, time.UTC)
	key := DemoClientAPIKey("secret", now)
	assert.Len(t, key, 16)
	assert.Equal(t, key, DemoClientAPIKey("secret", now.Add(20*time.Hour)))
	assert.NotEqual(t, key, DemoClientAPIKey("other", now))

	assert.True(t, CheckDemoClientAPIKey("secret", key, now))
	assert.True(t, CheckDemoClientAPIKey("secret", key, now.AddDate(0, 0, 1)))
	assert.False(t, CheckDemoClientAPIKey("secret", key, now.AddDate(0, 0, 2)))
	assert.False(t, CheckDemoClientAPIKey("secret", "wrong", now))
	assert.False(t, CheckDemoClientAPIKey("", DemoClientAPIKey("", now), now))
}
