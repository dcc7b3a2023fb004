package common

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg := LoadConfig()

	assert.Equal(t, "data/signatures.json", cfg.Signatures.StorePath)
	assert.InDelta(t, 0.7, cfg.Extraction.EscalationThreshold, 1e-9)
	assert.InDelta(t, 0.8, cfg.Extraction.LearnThreshold, 1e-9)
	assert.Equal(t, "gpt-4o-mini", cfg.AI.Model)
	assert.Equal(t, 45*time.Second, cfg.AI.Timeout)
	assert.Equal(t, 4000, cfg.AI.MaxChars)
	require.NoError(t, cfg.Validate())
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("SIGNATURE_STORE_PATH", "/tmp/sigs.json")
	t.Setenv("ESCALATION_THRESHOLD", "0.5")
	t.Setenv("AI_MAX_CHARS", "1000")
	t.Setenv("INGEST_DEBOUNCE", "2s")

	cfg := LoadConfig()
	assert.Equal(t, "/tmp/sigs.json", cfg.Signatures.StorePath)
	assert.InDelta(t, 0.5, cfg.Extraction.EscalationThreshold, 1e-9)
	assert.Equal(t, 1000, cfg.AI.MaxChars)
	assert.Equal(t, 2*time.Second, cfg.Ingest.Debounce)
}

func TestLoadConfigIgnoresMalformedEnv(t *testing.T) {
	t.Setenv("ESCALATION_THRESHOLD", "not-a-number")
	t.Setenv("AI_MAX_CHARS", "many")

	cfg := LoadConfig()
	assert.InDelta(t, 0.7, cfg.Extraction.EscalationThreshold, 1e-9)
	assert.Equal(t, 4000, cfg.AI.MaxChars)
}

func TestValidateRejectsBadThresholds(t *testing.T) {
	cfg := LoadConfig()
	cfg.Extraction.EscalationThreshold = 1.5
	err := cfg.Validate()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidInput))

	cfg = LoadConfig()
	cfg.AI.MaxChars = 0
	require.Error(t, cfg.Validate())
}

func TestAppErrorUnwraps(t *testing.T) {
	err := NewAppError("STORE_LOAD", "reading store", ErrCorruptStore)
	assert.True(t, errors.Is(err, ErrCorruptStore))
	assert.Contains(t, err.Error(), "STORE_LOAD")
	assert.Contains(t, err.Error(), "reading store")
}

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	assert.Equal(t, "", RequestIDFromContext(ctx))
	assert.Equal(t, "", SenderFromContext(ctx))

	ctx = WithRequestID(ctx, "req-1")
	ctx = WithSender(ctx, "acme")
	assert.Equal(t, "req-1", RequestIDFromContext(ctx))
	assert.Equal(t, "acme", SenderFromContext(ctx))
}
