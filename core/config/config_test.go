package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetEnvBoolTruthyValues(t *testing.T) {
	for _, v := range []string{"1", "true", "TRUE", "yes", "on"} {
		t.Setenv("SOME_FLAG", v)
		assert.True(t, getEnvBool("SOME_FLAG", false), "value %q", v)
	}

	for _, v := range []string{"0", "false", "off", "nope"} {
		t.Setenv("SOME_FLAG", v)
		assert.False(t, getEnvBool("SOME_FLAG", true), "value %q", v)
	}
}

func TestGetEnvBoolFallsBackWhenUnset(t *testing.T) {
	assert.True(t, getEnvBool("UNSET_FLAG_FOR_TEST", true))
	assert.False(t, getEnvBool("UNSET_FLAG_FOR_TEST", false))
}

func TestLoadConfigDebugFromEnv(t *testing.T) {
	t.Setenv("APP_DEBUG", "")
	t.Setenv("DEBUG", "")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.False(t, cfg.App.Debug)

	t.Setenv("APP_DEBUG", "true")
	cfg, err = LoadConfig()
	require.NoError(t, err)
	assert.True(t, cfg.App.Debug)

	// The legacy DEBUG variable still works as a fallback.
	t.Setenv("APP_DEBUG", "")
	t.Setenv("DEBUG", "1")
	cfg, err = LoadConfig()
	require.NoError(t, err)
	assert.True(t, cfg.App.Debug)
}
