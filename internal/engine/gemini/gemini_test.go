package gemini

import (
	"context"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/whatthepatch/wtp/internal/engine"
)

func TestValidateConfig_MissingAPIKey(t *testing.T) {
	e, err := NewEngine(viper.New())
	require.NoError(t, err)

	verr := e.ValidateConfig()
	require.Error(t, verr)
	assert.ErrorIs(t, verr, engine.ErrInvalidConfig)
}

func TestValidateConfig_OK(t *testing.T) {
	v := viper.New()
	v.Set("api_key", "AIza-test")
	e, err := NewEngine(v)
	require.NoError(t, err)
	assert.NoError(t, e.ValidateConfig())
}

func TestGenerateReview_MissingAPIKeyNoNetwork(t *testing.T) {
	e, err := NewEngine(viper.New())
	require.NoError(t, err)

	_, gerr := e.GenerateReview(context.Background(), engine.ReviewRequest{Template: "x"})
	assert.ErrorIs(t, gerr, engine.ErrInvalidConfig)
}

func TestInfoDefaults(t *testing.T) {
	e, err := NewEngine(viper.New())
	require.NoError(t, err)

	info := e.Info()
	assert.Equal(t, "gemini-api", info.Name)
	assert.Equal(t, defaultModel, info.DefaultModel)
	assert.False(t, info.CLI)
}
