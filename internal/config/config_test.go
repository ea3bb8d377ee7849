package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadAppliesDefaults(t *testing.T) {
	t.Setenv("EVIDENCE_JWT_SECRET", "secret")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "Evidence Builder API", cfg.AppName)
	require.Equal(t, ":8080", cfg.HTTPAddress())
	require.Equal(t, 2*time.Minute, cfg.ResultsCacheTTL)
	require.Equal(t, 2*time.Hour, cfg.PlayViewTTL)
	require.Equal(t, 30, cfg.PlayRateLimit)
	require.Equal(t, "evidence", cfg.EventsChannel)
}

func TestLoadReadsEnvironment(t *testing.T) {
	t.Setenv("EVIDENCE_JWT_SECRET", "secret")
	t.Setenv("EVIDENCE_APP_PORT", ":9090")
	t.Setenv("EVIDENCE_RESULTS_CACHE_TTL", "45s")
	t.Setenv("EVIDENCE_PLAY_RATE_LIMIT", "5")
	t.Setenv("EVIDENCE_NATS_URL", "nats://localhost:4222")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, ":9090", cfg.HTTPAddress())
	require.Equal(t, 45*time.Second, cfg.ResultsCacheTTL)
	require.Equal(t, 5, cfg.PlayRateLimit)
	require.Equal(t, "nats://localhost:4222", cfg.NATSURL)
}

func TestLoadRequiresSecret(t *testing.T) {
	t.Setenv("EVIDENCE_JWT_SECRET", "")

	_, err := Load()
	require.Error(t, err)
}

func TestLoadRejectsBadDuration(t *testing.T) {
	t.Setenv("EVIDENCE_JWT_SECRET", "secret")
	t.Setenv("EVIDENCE_PLAY_VIEW_TTL", "soon")

	_, err := Load()
	require.ErrorContains(t, err, "play.view_ttl")
}
