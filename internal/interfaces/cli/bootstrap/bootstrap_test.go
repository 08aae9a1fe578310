package bootstrap

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMapEnvToGinMode(t *testing.T) {
	tests := map[string]string{
		"production":  "release",
		"prod":        "release",
		"test":        "test",
		"development": "debug",
		"":            "debug",
	}
	for env, want := range tests {
		assert.Equal(t, want, MapEnvToGinMode(env), env)
	}
}

func TestEnvPrefersEnvironmentVariable(t *testing.T) {
	t.Setenv("ENV", "production")
	assert.Equal(t, "production", Env("development"))

	t.Setenv("ENV", "")
	assert.Equal(t, "development", Env("development"))
}
