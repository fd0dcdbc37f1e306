package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("Stage", "")
	t.Setenv("STAGE", "")
	t.Setenv("SNOW_TOKEN_REFRESH_MARGIN", "")
	t.Setenv("COMMENT_SYSTEM_LABEL", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "dev", cfg.App.Stage)
	assert.Equal(t, "ServiceNow", cfg.App.CommentSystemLabel)
	assert.Equal(t, 30*time.Second, cfg.Snow.TokenRefreshMargin())
	assert.Equal(t, "FINEOS-SERVICE-DESK", cfg.Snow.CallingSystem)
	assert.Equal(t, 30*time.Second, cfg.App.ClientTimeout())
}

func TestLoadStageAndMargin(t *testing.T) {
	t.Setenv("Stage", "prod")
	t.Setenv("SNOW_TOKEN_REFRESH_MARGIN", "0")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "prod", cfg.App.Stage)
	assert.Equal(t, time.Duration(0), cfg.Snow.TokenRefreshMargin())
}

func TestLoadTokenTTL(t *testing.T) {
	t.Setenv("AUTH_TOKEN_TTL_MINUTES", "")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 60, cfg.Auth.TokenTTLMinutes)

	t.Setenv("AUTH_TOKEN_TTL_MINUTES", "15")
	cfg, err = Load()
	require.NoError(t, err)
	assert.Equal(t, 15, cfg.Auth.TokenTTLMinutes)
}

func TestLoadRejectsBadRedisDB(t *testing.T) {
	t.Setenv("REDIS_DB", "one")

	_, err := Load()
	require.Error(t, err)
}

func TestParametersAreStageQualified(t *testing.T) {
	p := NewParameters("uat")

	assert.Equal(t, "/uat/JiraHost", p.JiraHost())
	assert.Equal(t, "/uat/SNOW_API_TOKEN_KEY_2", p.SnowToken())
	assert.Equal(t, "/uat/S3PresignUrlTtl", p.PresignTTL())
	assert.Equal(t, []string{"/uat/JiraHost", "/uat/JiraUserId", "/uat/JiraAppPassword"}, p.JiraConnection())
}
