package config

import (
	"testing"
	"time"

	"gotest.tools/v3/assert"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	assert.NilError(t, err)
	assert.Equal(t, cfg.HuabaoAddr, "0.0.0.0:5000")
	assert.Equal(t, cfg.IdleTimeout, 5*time.Minute)
	assert.Equal(t, cfg.AutoRegisterDevices, true)
}

func TestLoadOverridesFromEnv(t *testing.T) {
	t.Setenv("HUABAO_ADDR", "0.0.0.0:9000")
	t.Setenv("HUABAO_ALTERNATIVE", "true")

	cfg, err := Load()
	assert.NilError(t, err)
	assert.Equal(t, cfg.HuabaoAddr, "0.0.0.0:9000")
	assert.Equal(t, cfg.HuabaoAlternative, true)
}
