package vcs

import (
	"fmt"
	"net/url"
	"strings"
)

// ParseLocator parses a pull request URL into a Locator. Only two shapes are
// recognized, with no partial matches or guessing:
//
//	https://github.com/owner/repo/pull/123
//	https://bitbucket.org/workspace/repo/pull-requests/123
//
// Trailing slashes are ignored. Anything else fails with a user-facing error
// that the caller treats as terminal.
func ParseLocator(rawURL string) (Locator, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return Locator{}, parseError(rawURL)
	}

	parts := strings.Split(strings.Trim(parsed.Path, "/"), "/")

	switch {
	case strings.Contains(parsed.Hostname(), "github.com"):
		if len(parts) >= 4 && parts[2] == "pull" && parts[0] != "" && parts[1] != "" && parts[3] != "" {
			return Locator{
				Platform: PlatformGitHub,
				Owner:    parts[0],
				Repo:     parts[1],
				Number:   parts[3],
			}, nil
		}
	case strings.Contains(parsed.Hostname(), "bitbucket.org"):
		if len(parts) >= 4 && parts[2] == "pull-requests" && parts[0] != "" && parts[1] != "" && parts[3] != "" {
			return Locator{
				Platform: PlatformBitbucket,
				Owner:    parts[0],
				Repo:     parts[1],
				Number:   parts[3],
			}, nil
		}
	}

	return Locator{}, parseError(rawURL)
}

func parseError(rawURL string) error {
	return fmt.Errorf("could not parse PR URL: %s\n"+
		"Supported formats:\n"+
		"  GitHub:    https://github.com/owner/repo/pull/123\n"+
		"  Bitbucket: https://bitbucket.org/workspace/repo/pull-requests/123", rawURL)
}
