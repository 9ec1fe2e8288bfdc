package gitinfo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/whatthepatch/wtp/internal/vcs"
)

func TestParseRemoteURL(t *testing.T) {
	tests := []struct {
		name     string
		remote   string
		platform vcs.Platform
		owner    string
		repo     string
	}{
		{"github https", "https://github.com/acme/blog.git", vcs.PlatformGitHub, "acme", "blog"},
		{"github https no suffix", "https://github.com/acme/blog", vcs.PlatformGitHub, "acme", "blog"},
		{"github ssh", "git@github.com:acme/blog.git", vcs.PlatformGitHub, "acme", "blog"},
		{"github ssh scheme", "ssh://git@github.com/acme/blog.git", vcs.PlatformGitHub, "acme", "blog"},
		{"bitbucket https", "https://bitbucket.org/team/service.git", vcs.PlatformBitbucket, "team", "service"},
		{"bitbucket ssh", "git@bitbucket.org:team/service.git", vcs.PlatformBitbucket, "team", "service"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			platform, owner, repo, err := ParseRemoteURL(tt.remote)
			require.NoError(t, err)
			assert.Equal(t, tt.platform, platform)
			assert.Equal(t, tt.owner, owner)
			assert.Equal(t, tt.repo, repo)
		})
	}
}

func TestParseRemoteURL_Rejects(t *testing.T) {
	for _, remote := range []string{
		"https://gitlab.com/acme/blog.git",
		"git@example.com:x/y.git",
		"not-a-remote",
		"https://github.com/justowner",
	} {
		t.Run(remote, func(t *testing.T) {
			_, _, _, err := ParseRemoteURL(remote)
			assert.Error(t, err)
		})
	}
}

func TestDetect_OutsideRepo(t *testing.T) {
	_, err := Detect(t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not inside a git repository")
}

func TestLocator(t *testing.T) {
	info := &Info{Platform: vcs.PlatformGitHub, Owner: "acme", Repo: "blog"}
	loc := info.Locator(42)
	assert.Equal(t, vcs.Locator{
		Platform: vcs.PlatformGitHub,
		Owner:    "acme",
		Repo:     "blog",
		Number:   "42",
	}, loc)
}
