package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoad_AllowedOrigins(t *testing.T) {
	t.Run("defaults to wildcard", func(t *testing.T) {
		t.Setenv("ALLOWED_ORIGINS", "")
		cfg := Load()
		assert.Equal(t, []string{"*"}, cfg.AllowedOrigins)
	})

	t.Run("splits and trims the list", func(t *testing.T) {
		t.Setenv("ALLOWED_ORIGINS", "https://shop.example, https://admin.example ,")
		cfg := Load()
		assert.Equal(t, []string{"https://shop.example", "https://admin.example"}, cfg.AllowedOrigins)
	})
}
