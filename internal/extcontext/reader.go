// Package extcontext assembles user-supplied local files, directories and
// URLs into a single text bundle for inclusion in the review prompt.
package extcontext

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	homedir "github.com/mitchellh/go-homedir"

	"github.com/whatthepatch/wtp/internal/urlfetch"
)

// SizeWarningThreshold is the bundle size above which the caller should ask
// for confirmation before proceeding (~100KB).
const SizeWarningThreshold = 100_000

// NoContentSentinel is returned as the bundle text when nothing was readable.
// Callers must treat it as "no context", not as an error.
const NoContentSentinel = "No readable content found in the provided context paths."

// excludedDirs are pruned from directory walks entirely (never descended into).
var excludedDirs = map[string]bool{
	"node_modules": true, ".git": true, "__pycache__": true, ".venv": true,
	"venv": true, "vendor": true, "dist": true, "build": true, ".next": true,
	".nuxt": true, "coverage": true, ".pytest_cache": true, ".mypy_cache": true,
	".tox": true, "egg-info": true, ".idea": true, ".vscode": true, ".DS_Store": true,
}

// binaryExtensions are skipped when reading files.
var binaryExtensions = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true, ".ico": true,
	".svg": true, ".webp": true,
	".woff": true, ".woff2": true, ".ttf": true, ".eot": true, ".otf": true,
	".zip": true, ".tar": true, ".gz": true, ".rar": true, ".7z": true, ".bz2": true,
	".exe": true, ".dll": true, ".so": true, ".dylib": true, ".bin": true,
	".pyc": true, ".pyo": true, ".class": true, ".o": true, ".obj": true,
	".pdf": true, ".doc": true, ".docx": true, ".xls": true, ".xlsx": true,
	".ppt": true, ".pptx": true,
	".mp3": true, ".mp4": true, ".wav": true, ".avi": true, ".mov": true, ".mkv": true,
	".sqlite": true, ".db": true, ".lock": true,
}

// languageByExtension maps file extensions to fenced-code-block language tags.
var languageByExtension = map[string]string{
	".py": "python", ".js": "javascript", ".ts": "typescript",
	".tsx": "tsx", ".jsx": "jsx", ".java": "java", ".go": "go",
	".rs": "rust", ".rb": "ruby", ".php": "php", ".cs": "csharp",
	".cpp": "cpp", ".c": "c", ".h": "c", ".hpp": "cpp",
	".swift": "swift", ".kt": "kotlin", ".scala": "scala",
	".sh": "bash", ".bash": "bash", ".zsh": "zsh",
	".yaml": "yaml", ".yml": "yaml", ".json": "json",
	".xml": "xml", ".html": "html", ".css": "css",
	".sql": "sql", ".md": "markdown", ".graphql": "graphql",
}

// Bundle is the assembled context: formatted prompt text plus accounting.
// SizeBytes sums the raw UTF-8 content lengths, not the formatted text with
// its fence and header overhead.
type Bundle struct {
	Text       string
	SizeBytes  int
	LocalCount int
	URLCount   int
	Warnings   []string
}

// Fetcher is the URL resolution dependency, satisfied by *urlfetch.Fetcher.
type Fetcher interface {
	Fetch(url string, useCache bool) (content, displayName string, size int, err error)
}

// Reader classifies each input as URL or local path and collects readable
// content. Per-item failures are downgraded to warnings; only the bundle as
// a whole succeeds or is empty.
type Reader struct {
	fetcher  Fetcher
	useCache bool
}

// NewReader creates a Reader using the given URL fetcher.
func NewReader(fetcher Fetcher) *Reader {
	return &Reader{fetcher: fetcher, useCache: true}
}

// DisableCache makes URL fetches bypass and skip the cache.
func (r *Reader) DisableCache() *Reader {
	r.useCache = false
	return r
}

// Read processes every entry in paths and returns the assembled bundle.
// Warnings are collected and surfaced together, never interleaved.
func (r *Reader) Read(paths []string) *Bundle {
	b := &Bundle{}
	files := map[string]string{}
	type urlItem struct{ name, content string }
	var urls []urlItem

	for _, p := range paths {
		if isURL(p) {
			content, name, size, err := r.fetcher.Fetch(p, r.useCache)
			if err != nil {
				b.Warnings = append(b.Warnings, fetchWarning(p, err))
				continue
			}
			urls = append(urls, urlItem{name: name, content: content})
			b.SizeBytes += size
			b.URLCount++
			continue
		}

		path, err := homedir.Expand(p)
		if err != nil {
			path = p
		}
		if abs, err := filepath.Abs(path); err == nil {
			path = abs
		}

		info, err := os.Stat(path)
		if err != nil {
			b.Warnings = append(b.Warnings, "Path not found: "+p)
			continue
		}

		if !info.IsDir() {
			if !isTextFile(path) {
				b.Warnings = append(b.Warnings, "Skipped binary file: "+path)
				continue
			}
			content, err := os.ReadFile(path)
			if err != nil {
				b.Warnings = append(b.Warnings, fmt.Sprintf("Could not read %s: %v", path, err))
				continue
			}
			files[path] = string(content)
			b.SizeBytes += len(content)
			b.LocalCount++
			continue
		}

		r.walkDir(path, files, b)
	}

	if len(files) == 0 && len(urls) == 0 {
		b.Text = NoContentSentinel
		b.SizeBytes = 0
		return b
	}

	var sb strings.Builder
	sb.WriteString("The following external files have been provided as additional context:\n\n")

	sorted := make([]string, 0, len(files))
	for p := range files {
		sorted = append(sorted, p)
	}
	sort.Strings(sorted)
	for _, p := range sorted {
		writeFencedBlock(&sb, "### File: "+p, languageFor(p, false), files[p])
	}
	for _, u := range urls {
		converted := strings.Contains(u.name, urlfetch.HTMLSuffix)
		writeFencedBlock(&sb, "### URL: "+u.name, languageFor(u.name, converted), u.content)
	}

	b.Text = sb.String()
	return b
}

// walkDir reads every text file under root, pruning excluded directories.
// Unreadable files are skipped without a warning: a bulk walk over a source
// tree routinely hits sockets, fifos and permission holes, and per-file
// noise would drown the real warnings.
func (r *Reader) walkDir(root string, files map[string]string, b *Bundle) {
	parent := filepath.Dir(root)
	_ = filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if excludedDirs[d.Name()] && path != root {
				return filepath.SkipDir
			}
			return nil
		}
		if !isTextFile(path) {
			return nil
		}
		content, readErr := os.ReadFile(path)
		if readErr != nil {
			return nil
		}
		rel, relErr := filepath.Rel(parent, path)
		if relErr != nil {
			rel = path
		}
		files[rel] = string(content)
		b.SizeBytes += len(content)
		b.LocalCount++
		return nil
	})
}

func isURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

func isTextFile(path string) bool {
	return !binaryExtensions[strings.ToLower(filepath.Ext(path))]
}

// languageFor returns the fence language tag for a path or display name.
// Content converted from HTML is always tagged markdown.
func languageFor(name string, htmlConverted bool) string {
	if htmlConverted {
		return "markdown"
	}
	base := strings.SplitN(name, " ", 2)[0]
	return languageByExtension[strings.ToLower(filepath.Ext(base))]
}

func writeFencedBlock(sb *strings.Builder, header, lang, content string) {
	sb.WriteString(header)
	sb.WriteString("\n```")
	sb.WriteString(lang)
	sb.WriteString("\n")
	sb.WriteString(strings.TrimRight(content, "\n\t "))
	sb.WriteString("\n```\n\n")
}

// fetchWarning maps a URL fetch failure to a user-facing warning line.
func fetchWarning(url string, err error) string {
	var fe *urlfetch.Error
	if errors.As(err, &fe) {
		switch {
		case fe.Timeout:
			return "Timeout fetching URL: " + url
		case fe.StatusCode == 404:
			return "URL not found: " + url
		case fe.StatusCode == 403:
			return "Access denied: " + url + " (may require authentication)"
		case fe.StatusCode > 0:
			return fmt.Sprintf("HTTP %d: %s", fe.StatusCode, url)
		}
	}
	return fmt.Sprintf("Failed to fetch URL: %s (%v)", url, err)
}
