package timeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigDefaults(t *testing.T) {
	config := &Config{}
	require.NoError(t, config.Validate())

	assert.Equal(t, "America/Toronto", config.Timezone)
	assert.Equal(t, 25, config.PageSize)
	assert.Equal(t, 30*time.Second, config.PollInterval)
	assert.Equal(t, 30*time.Second, config.ClockTickInterval)
	assert.Equal(t, 10*time.Second, config.FetchTimeout)
	assert.Equal(t, 5*time.Minute, config.MaxPollBackoff)
}

func TestConfigRejectsNegativePageSize(t *testing.T) {
	config := &Config{PageSize: -1}
	assert.Error(t, config.Validate())
}

func TestConfigKeepsExplicitValues(t *testing.T) {
	config := &Config{
		Timezone:     "Europe/London",
		PageSize:     50,
		PollInterval: time.Minute,
	}
	require.NoError(t, config.Validate())

	assert.Equal(t, "Europe/London", config.Timezone)
	assert.Equal(t, 50, config.PageSize)
	assert.Equal(t, time.Minute, config.PollInterval)
}

func TestNewStoreRejectsBadTimezone(t *testing.T) {
	_, err := NewStore(SessionKey{ChildID: "child-1"}, nil, nil, &Config{Timezone: "Not/AZone"})
	assert.Error(t, err)
}
