package handlers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/oyadama/fukubiki/config"
)

func TestWidgetCacheControlFollowsConfiguredTTL(t *testing.T) {
	h := NewWidgetHandler(nil, config.WidgetConfig{CacheTTL: 5 * time.Minute})
	assert.Equal(t, "public, max-age=300", h.cacheControl)

	// Zero TTL falls back to a short window instead of disabling the header
	h = NewWidgetHandler(nil, config.WidgetConfig{})
	assert.Equal(t, "public, max-age=60", h.cacheControl)
}
