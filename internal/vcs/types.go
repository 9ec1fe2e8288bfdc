// Package vcs defines the pull-request provider abstraction. It parses PR
// URLs into locators and dispatches fetches to the platform implementation
// (GitHub, Bitbucket) through a registry, mirroring how the engine layer
// resolves AI backends.
package vcs

// Platform identifies a supported hosting platform.
type Platform string

const (
	PlatformGitHub    Platform = "github"
	PlatformBitbucket Platform = "bitbucket"
)

// Locator identifies one pull request. All four fields are non-empty when
// produced by ParseLocator.
type Locator struct {
	Platform Platform
	Owner    string
	Repo     string
	Number   string
}

// PullRequest holds platform-agnostic pull request data. It is immutable
// once built; prompt construction and filename templating read from it.
type PullRequest struct {
	Title        string
	Description  string
	SourceBranch string
	TargetBranch string
	Diff         string
	Author       string
	URL          string

	// FileCount and TruncatedFiles are populated only when the diff was
	// reconstructed from the paginated files listing (large GitHub PRs).
	FileCount      int
	TruncatedFiles int
}

// Credentials carries the repository credentials a provider may need.
// GitHub uses Token; Bitbucket uses Username/AppPassword.
type Credentials struct {
	Token       string
	Username    string
	AppPassword string
}

// Provider fetches pull request data for one platform.
type Provider interface {
	// Name returns the canonical platform name.
	Name() string

	// FetchPR retrieves metadata and diff for the located pull request.
	// Any non-2xx response during metadata or diff fetch is a terminal
	// error for the run.
	FetchPR(loc Locator) (*PullRequest, error)
}
