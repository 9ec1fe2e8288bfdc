package engine

import (
	"context"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEngine struct {
	name  string
	model string
}

func (f *fakeEngine) Info() Info                           { return Info{Name: f.name} }
func (f *fakeEngine) ValidateConfig() error                { return nil }
func (f *fakeEngine) TestConnection(context.Context) error { return nil }

func (f *fakeEngine) GenerateReview(context.Context, ReviewRequest) (string, error) {
	return "", nil
}

func TestRegistry_RegisterAndGet(t *testing.T) {
	r := NewRegistry()
	r.Register("fake", func(v *viper.Viper) (Engine, error) {
		return &fakeEngine{name: "fake", model: v.GetString("model")}, nil
	})

	v := viper.New()
	v.Set("model", "tiny")

	e, err := r.Get("fake", v)
	require.NoError(t, err)
	assert.Equal(t, "tiny", e.(*fakeEngine).model)
}

func TestRegistry_NilViper(t *testing.T) {
	r := NewRegistry()
	r.Register("fake", func(v *viper.Viper) (Engine, error) {
		require.NotNil(t, v)
		return &fakeEngine{name: "fake"}, nil
	})

	_, err := r.Get("fake", nil)
	assert.NoError(t, err)
}

func TestRegistry_UnknownEngine(t *testing.T) {
	r := NewRegistry()
	_, err := r.Get("nope", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidConfig)
	assert.Contains(t, err.Error(), "unknown engine")
}

func TestRegistry_DuplicatePanics(t *testing.T) {
	r := NewRegistry()
	f := func(v *viper.Viper) (Engine, error) { return nil, nil }
	r.Register("dup", f)
	assert.Panics(t, func() { r.Register("dup", f) })
}

func TestRegistry_NamesSorted(t *testing.T) {
	r := NewRegistry()
	f := func(v *viper.Viper) (Engine, error) { return nil, nil }
	r.Register("zeta", f)
	r.Register("alpha", f)
	assert.Equal(t, []string{"alpha", "zeta"}, r.Names())
}
