// Package gitinfo derives pull request coordinates from the local git
// repository, so "wtp review --pr 42" works without pasting a URL: the
// origin remote gives the platform, owner and repository name.
package gitinfo

import (
	"fmt"
	"strings"

	git "gopkg.in/src-d/go-git.v4"

	"github.com/whatthepatch/wtp/internal/vcs"
)

// Info holds what could be derived from the local repository.
type Info struct {
	Platform vcs.Platform
	Owner    string
	Repo     string
	Branch   string
}

// Detect opens the repository at or above dir and reads the origin remote
// and the current branch.
func Detect(dir string) (*Info, error) {
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("gitinfo: not inside a git repository: %w", err)
	}

	remote, err := repo.Remote("origin")
	if err != nil {
		return nil, fmt.Errorf("gitinfo: no origin remote: %w", err)
	}
	urls := remote.Config().URLs
	if len(urls) == 0 {
		return nil, fmt.Errorf("gitinfo: origin remote has no URL")
	}

	platform, owner, name, err := ParseRemoteURL(urls[0])
	if err != nil {
		return nil, err
	}

	info := &Info{Platform: platform, Owner: owner, Repo: name}

	// Branch is best-effort: a detached HEAD leaves it empty.
	if head, err := repo.Head(); err == nil && head.Name().IsBranch() {
		info.Branch = head.Name().Short()
	}
	return info, nil
}

// Locator combines the detected repository with a PR number.
func (i *Info) Locator(number int) vcs.Locator {
	return vcs.Locator{
		Platform: i.Platform,
		Owner:    i.Owner,
		Repo:     i.Repo,
		Number:   fmt.Sprint(number),
	}
}

// ParseRemoteURL extracts the platform, owner and repository name from an
// HTTPS or SSH remote URL.
func ParseRemoteURL(remote string) (vcs.Platform, string, string, error) {
	var host, path string

	switch {
	case strings.HasPrefix(remote, "git@"):
		// git@github.com:owner/repo.git
		rest := strings.TrimPrefix(remote, "git@")
		host, path, _ = strings.Cut(rest, ":")
	case strings.HasPrefix(remote, "https://") || strings.HasPrefix(remote, "http://"):
		rest := remote[strings.Index(remote, "://")+3:]
		host, path, _ = strings.Cut(rest, "/")
	case strings.HasPrefix(remote, "ssh://"):
		// ssh://git@github.com/owner/repo.git
		rest := strings.TrimPrefix(remote, "ssh://")
		if at := strings.Index(rest, "@"); at >= 0 {
			rest = rest[at+1:]
		}
		host, path, _ = strings.Cut(rest, "/")
	default:
		return "", "", "", fmt.Errorf("gitinfo: unrecognized remote URL %q", remote)
	}

	var platform vcs.Platform
	switch {
	case strings.Contains(host, "github.com"):
		platform = vcs.PlatformGitHub
	case strings.Contains(host, "bitbucket.org"):
		platform = vcs.PlatformBitbucket
	default:
		return "", "", "", fmt.Errorf("gitinfo: remote host %q is not GitHub or Bitbucket", host)
	}

	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return "", "", "", fmt.Errorf("gitinfo: cannot parse owner/repo from %q", remote)
	}
	return platform, parts[0], strings.TrimSuffix(parts[1], ".git"), nil
}
