// Package urlfetch resolves URLs to text content for prompt context.
//
// Three URL shapes are recognized, tried in order: GitHub blob/raw URLs go
// through the GitHub Contents API (so a configured token grants access to
// private repositories), Bitbucket src URLs go through the Bitbucket source
// API, and everything else is a plain HTTP GET. Fetched HTML is converted to
// Markdown. Successful fetches are cached on disk with a one hour TTL.
package urlfetch

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net"
	"net/url"
	"regexp"
	"strings"
	"time"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/go-resty/resty/v2"
)

const fetchTimeout = 30 * time.Second

var (
	githubBlobPattern = regexp.MustCompile(`^https://github\.com/([^/]+)/([^/]+)/blob/([^/]+)/(.+)$`)
	githubRawPattern  = regexp.MustCompile(`^https://raw\.githubusercontent\.com/([^/]+)/([^/]+)/([^/]+)/(.+)$`)
	bitbucketPattern  = regexp.MustCompile(`^https://bitbucket\.org/([^/]+)/([^/]+)/src/([^/]+)/(.+)$`)
)

// HTMLSuffix is appended to the display name of content that was converted
// from HTML, so downstream language tagging renders it as markdown.
const HTMLSuffix = " (HTML->MD)"

// Error is a structured fetch failure carrying enough detail for the caller
// to decide between fatal and warn-and-skip handling.
type Error struct {
	URL        string
	StatusCode int
	Timeout    bool
	Message    string
	Cause      error
}

func (e *Error) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("fetch %s: HTTP %d: %s", e.URL, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("fetch %s: %s", e.URL, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// Options configures a Fetcher.
type Options struct {
	CacheDir          string
	CacheTTL          time.Duration
	GitHubToken       string
	BitbucketUsername string
	BitbucketPassword string
	Version           string
}

// Fetcher resolves URLs to text content with caching.
type Fetcher struct {
	client       *resty.Client
	cache        *Cache
	opts         Options
	githubAPI    string
	bitbucketAPI string
}

// NewFetcher creates a Fetcher. The version is used in the User-Agent header.
func NewFetcher(opts Options) *Fetcher {
	return &Fetcher{
		client: resty.New().
			SetTimeout(fetchTimeout).
			SetHeader("User-Agent", "WhatThePatch/"+opts.Version),
		cache:        NewCache(opts.CacheDir, opts.CacheTTL),
		opts:         opts,
		githubAPI:    "https://api.github.com",
		bitbucketAPI: "https://api.bitbucket.org",
	}
}

// WithGitHubAPI overrides the GitHub API host. Used in tests.
func (f *Fetcher) WithGitHubAPI(baseURL string) *Fetcher {
	f.githubAPI = strings.TrimRight(baseURL, "/")
	return f
}

// WithBitbucketAPI overrides the Bitbucket API host. Used in tests.
func (f *Fetcher) WithBitbucketAPI(baseURL string) *Fetcher {
	f.bitbucketAPI = strings.TrimRight(baseURL, "/")
	return f
}

// Fetch resolves a URL to (content, displayName, sizeBytes). With useCache
// true, a fresh cache entry short-circuits the network and a successful
// fetch is written back under the original URL.
func (f *Fetcher) Fetch(rawURL string, useCache bool) (string, string, int, error) {
	if useCache {
		if content, name, ok := f.cache.Get(rawURL); ok {
			return content, name, len(content), nil
		}
	}

	var (
		content     string
		contentType string
		displayName string
		err         error
	)

	switch {
	case githubBlobPattern.MatchString(rawURL) || githubRawPattern.MatchString(rawURL):
		content, displayName, err = f.fetchGitHub(rawURL)
		contentType = "text/plain"
	case bitbucketPattern.MatchString(rawURL):
		content, displayName, err = f.fetchBitbucket(rawURL)
		contentType = "text/plain"
	default:
		content, displayName, contentType, err = f.fetchPlain(rawURL)
	}
	if err != nil {
		return "", "", 0, err
	}

	if isHTMLContent(contentType, content) {
		if converted, convErr := htmlToMarkdown(content); convErr == nil {
			content = converted
			displayName += HTMLSuffix
		}
	}

	if useCache {
		_ = f.cache.Put(rawURL, content, displayName, contentType)
	}
	return content, displayName, len(content), nil
}

func (f *Fetcher) fetchGitHub(rawURL string) (string, string, error) {
	m := githubBlobPattern.FindStringSubmatch(rawURL)
	if m == nil {
		m = githubRawPattern.FindStringSubmatch(rawURL)
	}
	owner, repo, ref, path := m[1], m[2], m[3], m[4]
	displayName := path
	if i := strings.LastIndex(path, "/"); i >= 0 {
		displayName = path[i+1:]
	}

	req := f.client.R().
		SetHeader("Accept", "application/vnd.github.v3+json").
		SetQueryParam("ref", ref)
	if f.opts.GitHubToken != "" {
		req.SetHeader("Authorization", "token "+f.opts.GitHubToken)
	}

	var payload struct {
		Type    string `json:"type"`
		Content string `json:"content"`
	}
	resp, err := req.SetResult(&payload).
		Get(fmt.Sprintf("%s/repos/%s/%s/contents/%s", f.githubAPI, owner, repo, path))
	if err != nil {
		return "", "", wrapNetErr(rawURL, err)
	}
	if resp.StatusCode() == 404 && f.opts.GitHubToken == "" {
		return "", "", &Error{
			URL: rawURL, StatusCode: 404,
			Message: "file not found; if this is a private repo, configure a GitHub token",
		}
	}
	if resp.IsError() {
		return "", "", &Error{URL: rawURL, StatusCode: resp.StatusCode(), Message: resp.Status()}
	}
	if payload.Type != "file" {
		return "", "", &Error{URL: rawURL, Message: fmt.Sprintf("URL points to a %s, not a file", payload.Type)}
	}

	decoded, err := base64.StdEncoding.DecodeString(
		strings.ReplaceAll(payload.Content, "\n", ""))
	if err != nil {
		return "", "", &Error{URL: rawURL, Message: "failed to decode file content", Cause: err}
	}
	return string(decoded), displayName, nil
}

func (f *Fetcher) fetchBitbucket(rawURL string) (string, string, error) {
	m := bitbucketPattern.FindStringSubmatch(rawURL)
	workspace, repo, ref, path := m[1], m[2], m[3], m[4]
	displayName := path
	if i := strings.LastIndex(path, "/"); i >= 0 {
		displayName = path[i+1:]
	}

	req := f.client.R()
	if f.opts.BitbucketUsername != "" && f.opts.BitbucketPassword != "" {
		req.SetBasicAuth(f.opts.BitbucketUsername, f.opts.BitbucketPassword)
	}

	resp, err := req.Get(fmt.Sprintf("%s/2.0/repositories/%s/%s/src/%s/%s",
		f.bitbucketAPI, workspace, repo, ref, path))
	if err != nil {
		return "", "", wrapNetErr(rawURL, err)
	}
	if resp.StatusCode() == 404 && f.opts.BitbucketUsername == "" {
		return "", "", &Error{
			URL: rawURL, StatusCode: 404,
			Message: "file not found; if this is a private repo, configure Bitbucket credentials",
		}
	}
	if resp.IsError() {
		return "", "", &Error{URL: rawURL, StatusCode: resp.StatusCode(), Message: resp.Status()}
	}
	return string(resp.Body()), displayName, nil
}

func (f *Fetcher) fetchPlain(rawURL string) (string, string, string, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", "", "", &Error{URL: rawURL, Message: "invalid URL", Cause: err}
	}
	displayName := parsed.Host
	if parts := strings.Split(strings.Trim(parsed.Path, "/"), "/"); len(parts) > 0 && parts[len(parts)-1] != "" {
		displayName = parts[len(parts)-1]
	}

	resp, err := f.client.R().Get(rawURL)
	if err != nil {
		return "", "", "", wrapNetErr(rawURL, err)
	}
	if resp.IsError() {
		return "", "", "", &Error{URL: rawURL, StatusCode: resp.StatusCode(), Message: resp.Status()}
	}
	return string(resp.Body()), displayName, resp.Header().Get("Content-Type"), nil
}

// isHTMLContent reports whether content should be treated as HTML, based on
// the Content-Type header or a doctype/tag sniff of the first 500 characters.
func isHTMLContent(contentType, content string) bool {
	if strings.Contains(strings.ToLower(contentType), "text/html") {
		return true
	}
	head := strings.TrimSpace(content)
	if len(head) > 500 {
		head = head[:500]
	}
	head = strings.ToLower(head)
	return strings.HasPrefix(head, "<!doctype html") || strings.HasPrefix(head, "<html")
}

func htmlToMarkdown(html string) (string, error) {
	conv := md.NewConverter("", true, nil)
	return conv.ConvertString(html)
}

func wrapNetErr(rawURL string, err error) *Error {
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return &Error{URL: rawURL, Timeout: true, Message: "timeout", Cause: err}
	}
	return &Error{URL: rawURL, Message: err.Error(), Cause: err}
}
