package vcs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLocator_GitHub(t *testing.T) {
	tests := []struct {
		name string
		url  string
	}{
		{"plain", "https://github.com/acme/blog/pull/123"},
		{"trailing slash", "https://github.com/acme/blog/pull/123/"},
		{"extra path segments", "https://github.com/acme/blog/pull/123/files"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loc, err := ParseLocator(tt.url)
			require.NoError(t, err)
			assert.Equal(t, PlatformGitHub, loc.Platform)
			assert.Equal(t, "acme", loc.Owner)
			assert.Equal(t, "blog", loc.Repo)
			assert.Equal(t, "123", loc.Number)
		})
	}
}

func TestParseLocator_Bitbucket(t *testing.T) {
	loc, err := ParseLocator("https://bitbucket.org/team/service/pull-requests/77")
	require.NoError(t, err)
	assert.Equal(t, PlatformBitbucket, loc.Platform)
	assert.Equal(t, "team", loc.Owner)
	assert.Equal(t, "service", loc.Repo)
	assert.Equal(t, "77", loc.Number)
}

func TestParseLocator_Rejects(t *testing.T) {
	tests := []struct {
		name string
		url  string
	}{
		{"github issues", "https://github.com/acme/blog/issues/1"},
		{"github repo root", "https://github.com/acme/blog"},
		{"bitbucket branches", "https://bitbucket.org/team/repo/branches"},
		{"unknown host", "https://gitlab.com/acme/blog/-/merge_requests/5"},
		{"not a url", "definitely not a url"},
		{"empty", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loc, err := ParseLocator(tt.url)
			require.Error(t, err)
			assert.Equal(t, Locator{}, loc, "no partial locator on failure")
			assert.Contains(t, err.Error(), "Supported formats")
		})
	}
}

func TestRegistry_UnknownPlatform(t *testing.T) {
	r := NewRegistry()
	_, err := r.Get(Platform("svn"), Credentials{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown platform")
}

func TestRegistry_RegisterAndGet(t *testing.T) {
	r := NewRegistry()
	r.Register(Platform("fake"), func(creds Credentials) (Provider, error) {
		return nil, nil
	})
	assert.Equal(t, []string{"fake"}, r.Names())
	_, err := r.Get(Platform("fake"), Credentials{})
	assert.NoError(t, err)
}

func TestRegistry_DuplicatePanics(t *testing.T) {
	r := NewRegistry()
	f := func(creds Credentials) (Provider, error) { return nil, nil }
	r.Register(Platform("dup"), f)
	assert.Panics(t, func() { r.Register(Platform("dup"), f) })
}
