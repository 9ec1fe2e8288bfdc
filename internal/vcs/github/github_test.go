package github

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
	Platform: vcs.PlatformGitHub,
	Owner:    "acme",
	Repo:     "blog",
	Number:   "42",
}

func prMetadata() map[string]any {
	return map[string]any{
		"title":    "Add search endpoint",
		"body":     "Implements full-text search.",
		"user":     map[string]any{"login": "octocat"},
		"head":     map[string]any{"ref": "feature/search"},
		"base":     map[string]any{"ref": "main"},
		"html_url": "https://github.com/acme/blog/pull/42",
	}
}

func newTestProvider(t *testing.T, handler http.Handler) (*Provider, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	p, err := NewProvider(vcs.Credentials{Token: "test-token"})
	require.NoError(t, err)
	return p.(*Provider).WithBaseURL(server.URL), server
}

func TestFetchPR_DirectDiff(t *testing.T) {
	const rawDiff = "diff --git a/search.go b/search.go\n--- a/search.go\n+++ b/search.go\n@@ -1 +1,2 @@\n+func Search() {}\n"

	p, _ := newTestProvider(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/repos/acme/blog/pulls/42", r.URL.Path)
		assert.Equal(t, "token test-token", r.Header.Get("Authorization"))

		if strings.Contains(r.Header.Get("Accept"), "diff") {
			w.Write([]byte(rawDiff))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(prMetadata())
	}))

	pr, err := p.FetchPR(testLoc)
	require.NoError(t, err)
	assert.Equal(t, "Add search endpoint", pr.Title)
	assert.Equal(t, "Implements full-text search.", pr.Description)
	assert.Equal(t, "octocat", pr.Author)
	assert.Equal(t, "feature/search", pr.SourceBranch)
	assert.Equal(t, "main", pr.TargetBranch)
	assert.Equal(t, rawDiff, pr.Diff)
	assert.Zero(t, pr.TruncatedFiles)
}

func TestFetchPR_EmptyDescriptionDefault(t *testing.T) {
	p, _ := newTestProvider(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.Header.Get("Accept"), "diff") {
			w.Write([]byte("diff"))
			return
		}
		meta := prMetadata()
		meta["body"] = ""
		json.NewEncoder(w).Encode(meta)
	}))

	pr, err := p.FetchPR(testLoc)
	require.NoError(t, err)
	assert.Equal(t, "(No description provided)", pr.Description)
}

func TestFetchPR_LargePRFallback(t *testing.T) {
	pageOne := []map[string]any{
		{
			"filename": "docs/new.md",
			"status":   "added",
			"patch":    "@@ -0,0 +1 @@\n+# New doc",
		},
		{
			"filename":          "pkg/renamed.go",
			"previous_filename": "pkg/old.go",
			"status":            "renamed",
		},
	}
	pageTwo := []map[string]any{
		{
			"filename":  "assets/big.json",
			"status":    "modified",
			"additions": 9000,
			"deletions": 12,
		},
	}

	p, _ := newTestProvider(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/files"):
			assert.Equal(t, "100", r.URL.Query().Get("per_page"))
			w.Header().Set("Content-Type", "application/json")
			switch r.URL.Query().Get("page") {
			case "1":
				json.NewEncoder(w).Encode(pageOne)
			case "2":
				json.NewEncoder(w).Encode(pageTwo)
			default:
				json.NewEncoder(w).Encode([]map[string]any{})
			}
		case strings.Contains(r.Header.Get("Accept"), "diff"):
			w.WriteHeader(http.StatusNotAcceptable)
		default:
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(prMetadata())
		}
	}))

	pr, err := p.FetchPR(testLoc)
	require.NoError(t, err)

	assert.Equal(t, 3, pr.FileCount)
	assert.Equal(t, 1, pr.TruncatedFiles)
	assert.Equal(t, 3, strings.Count(pr.Diff, "diff --git"))
	assert.Equal(t, 1, strings.Count(pr.Diff, "@@ Patch truncated"))

	assert.Contains(t, pr.Diff, "new file mode 100644")
	assert.Contains(t, pr.Diff, "+++ b/docs/new.md")
	assert.Contains(t, pr.Diff, "rename from pkg/old.go")
	assert.Contains(t, pr.Diff, "rename to pkg/renamed.go")
	assert.Contains(t, pr.Diff, "@@ Patch truncated - file too large (9000+ 12-) @@")
	// The renamed file has no patch and no additions, so no placeholder.
	assert.NotContains(t, pr.Diff, "--- a/pkg/old.go")
}

func TestFetchPR_MetadataError(t *testing.T) {
	p, _ := newTestProvider(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"Not Found"}`, http.StatusNotFound)
	}))

	_, err := p.FetchPR(testLoc)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP 404")
}

func TestReconstructDiff_RemovedFile(t *testing.T) {
	diff, truncated := reconstructDiff([]prFile{
		{Filename: "gone.go", Status: "removed", Patch: "@@ -1 +0,0 @@\n-package gone"},
	})
	assert.Zero(t, truncated)
	assert.Contains(t, diff, "deleted file mode 100644")
	assert.Contains(t, diff, "--- a/gone.go")
	assert.Contains(t, diff, "+++ /dev/null")
}
