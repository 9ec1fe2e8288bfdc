// Package update implements the non-blocking "new version available" check.
// The result of the last probe is cached in a small JSON file so the GitHub
// releases API is hit at most once per check interval. Every failure path is
// silent: an update hint must never break or slow down a review run.
package update

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	homedir "github.com/mitchellh/go-homedir"
)

const (
	// GitHubRepo is the upstream repository probed for releases.
	GitHubRepo = "whatthepatch/wtp"

	// CheckInterval is how long a cached probe result stays authoritative.
	CheckInterval = 24 * time.Hour

	cacheFileName = "update_cache.json"
	probeTimeout  = 5 * time.Second
)

// Version is a parsed semantic version, comparable field by field.
type Version struct {
	Major, Minor, Patch int
}

// ParseVersion parses "v1.2.3" or "1.2.3" into a Version. Anything that does
// not look like a dotted numeric version parses as 0.0.0.
func ParseVersion(s string) Version {
	s = strings.TrimPrefix(strings.TrimSpace(s), "v")
	parts := strings.Split(s, ".")
	var nums [3]int
	for i := 0; i < len(parts) && i < 3; i++ {
		n, err := strconv.Atoi(parts[i])
		if err != nil {
			return Version{}
		}
		nums[i] = n
	}
	return Version{Major: nums[0], Minor: nums[1], Patch: nums[2]}
}

// Less reports whether v is older than other.
func (v Version) Less(other Version) bool {
	if v.Major != other.Major {
		return v.Major < other.Major
	}
	if v.Minor != other.Minor {
		return v.Minor < other.Minor
	}
	return v.Patch < other.Patch
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// cacheState is the persisted bookkeeping for the last update probe.
type cacheState struct {
	LastCheck     int64  `json:"last_check"`
	LatestVersion string `json:"latest_version"`
}

// Checker probes GitHub for the latest release, backed by a file cache.
// Deleting the cache file only forces a fresh probe.
type Checker struct {
	client     *resty.Client
	currentVer string
	cachePath  string
}

// NewChecker creates a Checker for the given current version string.
func NewChecker(currentVersion string) *Checker {
	home, err := homedir.Dir()
	if err != nil {
		home = "."
	}
	return &Checker{
		client:     resty.New().SetTimeout(probeTimeout).SetBaseURL("https://api.github.com"),
		currentVer: currentVersion,
		cachePath:  filepath.Join(home, ".whatthepatch", cacheFileName),
	}
}

// WithBaseURL points the checker at a different API host. Used in tests.
func (c *Checker) WithBaseURL(baseURL string) *Checker {
	c.client.SetBaseURL(strings.TrimRight(baseURL, "/"))
	return c
}

// WithCachePath overrides the cache file location. Used in tests.
func (c *Checker) WithCachePath(path string) *Checker {
	c.cachePath = path
	return c
}

// Check returns (latestVersion, true) when a newer release exists. A recent
// cached probe short-circuits the network call entirely.
func (c *Checker) Check() (string, bool) {
	state := c.loadCache()
	now := time.Now().Unix()

	if now-state.LastCheck < int64(CheckInterval.Seconds()) {
		if state.LatestVersion != "" &&
			ParseVersion(c.currentVer).Less(ParseVersion(state.LatestVersion)) {
			return state.LatestVersion, true
		}
		return "", false
	}

	latest, ok := c.fetchLatest()
	if !ok {
		return "", false
	}

	state.LastCheck = now
	state.LatestVersion = latest
	c.saveCache(state)

	if ParseVersion(c.currentVer).Less(ParseVersion(latest)) {
		return latest, true
	}
	return "", false
}

func (c *Checker) fetchLatest() (string, bool) {
	var release struct {
		TagName string `json:"tag_name"`
	}
	resp, err := c.client.R().
		SetHeader("Accept", "application/vnd.github.v3+json").
		SetResult(&release).
		Get("/repos/" + GitHubRepo + "/releases/latest")
	if err != nil || resp.StatusCode() != 200 || release.TagName == "" {
		return "", false
	}
	return strings.TrimPrefix(release.TagName, "v"), true
}

func (c *Checker) loadCache() cacheState {
	var state cacheState
	raw, err := os.ReadFile(c.cachePath)
	if err != nil {
		return state
	}
	_ = json.Unmarshal(raw, &state)
	return state
}

func (c *Checker) saveCache(state cacheState) {
	raw, err := json.Marshal(state)
	if err != nil {
		return
	}
	if err := os.MkdirAll(filepath.Dir(c.cachePath), 0o755); err != nil {
		return
	}
	_ = os.WriteFile(c.cachePath, raw, 0o644)
}
