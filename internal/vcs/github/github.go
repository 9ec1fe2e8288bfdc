// Package github implements vcs.Provider for the GitHub REST API.
//
// The diff is requested first through content negotiation
// (application/vnd.github.v3.diff). GitHub refuses that representation with
// 406 once a PR exceeds its 300-file diff limit; in that case the diff is
// reconstructed from the paginated per-file listing, which covers up to
// 5000 files. Files whose patch the API itself truncated are marked with a
// placeholder hunk and counted so the caller can warn about partial coverage.
package github

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/whatthepatch/wtp/internal/vcs"
)

const (
	perPage  = 100
	maxPages = 50 // 50 * 100 = 5000 files
)

func init() {
	vcs.Register(vcs.PlatformGitHub, NewProvider)
}

// Provider implements vcs.Provider for GitHub.
type Provider struct {
	client  *resty.Client
	baseURL string
	token   string
}

// NewProvider creates a GitHub provider. The token may be empty for public
// repositories.
func NewProvider(creds vcs.Credentials) (vcs.Provider, error) {
	client := resty.New().
		SetTimeout(30 * time.Second).
		SetHeader("Accept", "application/vnd.github.v3+json")
	if creds.Token != "" {
		client.SetHeader("Authorization", "token "+creds.Token)
	}

	return &Provider{
		client:  client,
		baseURL: "https://api.github.com",
		token:   creds.Token,
	}, nil
}

// WithBaseURL overrides the API host. Used in tests.
func (p *Provider) WithBaseURL(baseURL string) *Provider {
	p.baseURL = strings.TrimRight(baseURL, "/")
	return p
}

func (p *Provider) Name() string { return string(vcs.PlatformGitHub) }

// FetchPR retrieves metadata and the diff for a pull request.
func (p *Provider) FetchPR(loc vcs.Locator) (*vcs.PullRequest, error) {
	var meta struct {
		Title string `json:"title"`
		Body  string `json:"body"`
		User  struct {
			Login string `json:"login"`
		} `json:"user"`
		Head struct {
			Ref string `json:"ref"`
		} `json:"head"`
		Base struct {
			Ref string `json:"ref"`
		} `json:"base"`
		HTMLURL string `json:"html_url"`
	}

	prPath := fmt.Sprintf("%s/repos/%s/%s/pulls/%s", p.baseURL, loc.Owner, loc.Repo, loc.Number)

	resp, err := p.client.R().SetResult(&meta).Get(prPath)
	if err != nil {
		return nil, fmt.Errorf("github: failed to fetch PR #%s: %w", loc.Number, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("github: HTTP %d fetching PR #%s: %s",
			resp.StatusCode(), loc.Number, strings.TrimSpace(string(resp.Body())))
	}

	pr := &vcs.PullRequest{
		Title:        meta.Title,
		Description:  meta.Body,
		SourceBranch: meta.Head.Ref,
		TargetBranch: meta.Base.Ref,
		Author:       meta.User.Login,
		URL:          meta.HTMLURL,
	}
	if pr.Description == "" {
		pr.Description = "(No description provided)"
	}

	// Ask GitHub to return the raw diff.
	diffResp, err := p.client.R().
		SetHeader("Accept", "application/vnd.github.v3.diff").
		Get(prPath)
	if err != nil {
		return nil, fmt.Errorf("github: failed to fetch diff: %w", err)
	}

	switch {
	case diffResp.StatusCode() == 200:
		pr.Diff = string(diffResp.Body())
	case diffResp.StatusCode() == 406:
		// Diff exceeds GitHub's 300-file limit; rebuild it from the
		// paginated files listing.
		diff, fileCount, truncated, err := p.fetchPRFiles(loc)
		if err != nil {
			return nil, err
		}
		pr.Diff = diff
		pr.FileCount = fileCount
		pr.TruncatedFiles = truncated
	default:
		return nil, fmt.Errorf("github: HTTP %d fetching diff for PR #%s",
			diffResp.StatusCode(), loc.Number)
	}

	return pr, nil
}

// prFile is one entry from the /pulls/{n}/files listing.
type prFile struct {
	Filename         string `json:"filename"`
	PreviousFilename string `json:"previous_filename"`
	Status           string `json:"status"`
	Patch            string `json:"patch"`
	Additions        int    `json:"additions"`
	Deletions        int    `json:"deletions"`
}

// fetchPRFiles pages through the changed-files listing and reconstructs a
// unified diff. Returns (diff, fileCount, truncatedCount, error).
func (p *Provider) fetchPRFiles(loc vcs.Locator) (string, int, int, error) {
	var all []prFile

	for page := 1; ; page++ {
		var files []prFile
		resp, err := p.client.R().
			SetQueryParam("per_page", fmt.Sprint(perPage)).
			SetQueryParam("page", fmt.Sprint(page)).
			SetResult(&files).
			Get(fmt.Sprintf("%s/repos/%s/%s/pulls/%s/files", p.baseURL, loc.Owner, loc.Repo, loc.Number))
		if err != nil {
			return "", 0, 0, fmt.Errorf("github: failed to fetch PR files: %w", err)
		}
		if resp.IsError() {
			return "", 0, 0, fmt.Errorf("github: HTTP %d fetching PR files (check token permissions)",
				resp.StatusCode())
		}
		if len(files) == 0 {
			break
		}
		all = append(all, files...)
		if page >= maxPages {
			break
		}
	}

	diff, truncated := reconstructDiff(all)
	return diff, len(all), truncated, nil
}

// reconstructDiff emits per-file diff --git headers followed by each file's
// patch fragment. Added, removed and renamed files get their distinct header
// shapes; a file with changes but no patch (truncated by the API) gets a
// placeholder hunk and is counted.
func reconstructDiff(files []prFile) (string, int) {
	var parts []string
	truncated := 0

	for _, f := range files {
		name := f.Filename
		if name == "" {
			name = "unknown"
		}

		switch f.Status {
		case "added":
			parts = append(parts,
				fmt.Sprintf("diff --git a/%s b/%s", name, name),
				"new file mode 100644",
				"--- /dev/null",
				fmt.Sprintf("+++ b/%s", name))
		case "removed":
			parts = append(parts,
				fmt.Sprintf("diff --git a/%s b/%s", name, name),
				"deleted file mode 100644",
				fmt.Sprintf("--- a/%s", name),
				"+++ /dev/null")
		case "renamed":
			prev := f.PreviousFilename
			if prev == "" {
				prev = name
			}
			parts = append(parts,
				fmt.Sprintf("diff --git a/%s b/%s", prev, name),
				fmt.Sprintf("rename from %s", prev),
				fmt.Sprintf("rename to %s", name))
			if f.Patch != "" {
				parts = append(parts,
					fmt.Sprintf("--- a/%s", prev),
					fmt.Sprintf("+++ b/%s", name))
			}
		default: // modified
			parts = append(parts,
				fmt.Sprintf("diff --git a/%s b/%s", name, name),
				fmt.Sprintf("--- a/%s", name),
				fmt.Sprintf("+++ b/%s", name))
		}

		if f.Patch != "" {
			parts = append(parts, f.Patch)
		} else if f.Additions > 0 || f.Deletions > 0 {
			truncated++
			parts = append(parts, fmt.Sprintf(
				"@@ Patch truncated - file too large (%d+ %d-) @@", f.Additions, f.Deletions))
		}

		parts = append(parts, "")
	}

	return strings.Join(parts, "\n"), truncated
}
