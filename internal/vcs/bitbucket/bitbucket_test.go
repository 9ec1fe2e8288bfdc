package bitbucket

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/whatthepatch/wtp/internal/vcs"
)

var testLoc = vcs.Locator{
	Platform: vcs.PlatformBitbucket,
	Owner:    "team",
	Repo:     "service",
	Number:   "7",
}

func TestFetchPR(t *testing.T) {
	const rawDiff = "diff --git a/api.py b/api.py\n@@ -1 +1 @@\n-old\n+new\n"

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		require.True(t, ok)
		assert.Equal(t, "alice", user)
		assert.Equal(t, "app-pass", pass)

		if strings.HasSuffix(r.URL.Path, "/diff") {
			assert.Equal(t, "/2.0/repositories/team/service/pullrequests/7/diff", r.URL.Path)
			w.Write([]byte(rawDiff))
			return
		}
		assert.Equal(t, "/2.0/repositories/team/service/pullrequests/7", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"title":       "Fix token refresh",
			"description": "Refresh before expiry.",
			"author":      map[string]any{"display_name": "Alice Doe"},
			"source":      map[string]any{"branch": map[string]any{"name": "fix/token"}},
			"destination": map[string]any{"branch": map[string]any{"name": "develop"}},
			"links": map[string]any{
				"html": map[string]any{"href": "https://bitbucket.org/team/service/pull-requests/7"},
			},
		})
	}))
	defer server.Close()

	p, err := NewProvider(vcs.Credentials{Username: "alice", AppPassword: "app-pass"})
	require.NoError(t, err)

	pr, err := p.(*Provider).WithBaseURL(server.URL).FetchPR(testLoc)
	require.NoError(t, err)
	assert.Equal(t, "Fix token refresh", pr.Title)
	assert.Equal(t, "Refresh before expiry.", pr.Description)
	assert.Equal(t, "Alice Doe", pr.Author)
	assert.Equal(t, "fix/token", pr.SourceBranch)
	assert.Equal(t, "develop", pr.TargetBranch)
	assert.Equal(t, rawDiff, pr.Diff)
	assert.Equal(t, "https://bitbucket.org/team/service/pull-requests/7", pr.URL)
}

func TestFetchPR_EmptyDescriptionDefault(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/diff") {
			w.Write([]byte("diff"))
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"title": "Untitled work"})
	}))
	defer server.Close()

	p, err := NewProvider(vcs.Credentials{})
	require.NoError(t, err)

	pr, err := p.(*Provider).WithBaseURL(server.URL).FetchPR(testLoc)
	require.NoError(t, err)
	assert.Equal(t, "(No description provided)", pr.Description)
}

func TestFetchPR_NotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"type":"error"}`, http.StatusNotFound)
	}))
	defer server.Close()

	p, err := NewProvider(vcs.Credentials{})
	require.NoError(t, err)

	_, err = p.(*Provider).WithBaseURL(server.URL).FetchPR(testLoc)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP 404")
}
