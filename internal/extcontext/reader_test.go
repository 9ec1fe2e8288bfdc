package extcontext

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/whatthepatch/wtp/internal/urlfetch"
)

type fakeFetcher struct {
	content string
	name    string
	err     error
	calls   int
}

func (f *fakeFetcher) Fetch(url string, useCache bool) (string, string, int, error) {
	f.calls++
	if f.err != nil {
		return "", "", 0, f.err
	}
	return f.content, f.name, len(f.content), nil
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestRead_SingleFile(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "main.go", "package main\n")

	b := NewReader(&fakeFetcher{}).Read([]string{path})

	assert.Equal(t, 1, b.LocalCount)
	assert.Equal(t, 0, b.URLCount)
	assert.Equal(t, len("package main\n"), b.SizeBytes)
	assert.Contains(t, b.Text, "### File: "+path)
	assert.Contains(t, b.Text, "```go")
	assert.Empty(t, b.Warnings)
}

func TestRead_Idempotent(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.py", "print('a')\n")
	writeFile(t, dir, "b.py", "print('b')\n")

	r := NewReader(&fakeFetcher{})
	first := r.Read([]string{dir})
	second := r.Read([]string{dir})

	assert.Equal(t, first.Text, second.Text)
	assert.Equal(t, first.SizeBytes, second.SizeBytes)
}

func TestRead_ExcludesNodeModulesAtAnyDepth(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "src/app.js", "console.log(1)\n")
	writeFile(t, dir, "node_modules/lib/index.js", "nope\n")
	writeFile(t, dir, "src/deep/node_modules/other/x.js", "nope\n")

	b := NewReader(&fakeFetcher{}).Read([]string{dir})

	assert.Equal(t, 1, b.LocalCount)
	assert.NotContains(t, b.Text, "node_modules")
	assert.NotContains(t, b.Text, "nope")
}

func TestRead_SkipsBinaryFileWithWarning(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "image.png", "\x89PNG")

	b := NewReader(&fakeFetcher{}).Read([]string{path})

	assert.Equal(t, 0, b.LocalCount)
	require.Len(t, b.Warnings, 1)
	assert.Contains(t, b.Warnings[0], "binary file")
	assert.Equal(t, NoContentSentinel, b.Text)
	assert.Zero(t, b.SizeBytes)
}

func TestRead_MissingPathWarns(t *testing.T) {
	b := NewReader(&fakeFetcher{}).Read([]string{"/does/not/exist"})
	require.Len(t, b.Warnings, 1)
	assert.Contains(t, b.Warnings[0], "Path not found")
	assert.Equal(t, NoContentSentinel, b.Text)
}

func TestRead_URLContent(t *testing.T) {
	fetcher := &fakeFetcher{content: "# Docs\n", name: "README.md"}
	b := NewReader(fetcher).Read([]string{"https://example.com/README.md"})

	assert.Equal(t, 1, b.URLCount)
	assert.Contains(t, b.Text, "### URL: README.md")
	assert.Contains(t, b.Text, "```markdown")
	assert.Equal(t, 1, fetcher.calls)
}

func TestRead_HTMLConvertedURLTaggedMarkdown(t *testing.T) {
	fetcher := &fakeFetcher{content: "converted body", name: "page.html" + urlfetch.HTMLSuffix}
	b := NewReader(fetcher).Read([]string{"https://example.com/page.html"})

	assert.Contains(t, b.Text, "### URL: page.html"+urlfetch.HTMLSuffix)
	assert.Contains(t, b.Text, "```markdown")
}

func TestRead_URLFailuresBecomeWarnings(t *testing.T) {
	tests := []struct {
		name string
		err  *urlfetch.Error
		want string
	}{
		{"not found", &urlfetch.Error{StatusCode: 404}, "URL not found"},
		{"forbidden", &urlfetch.Error{StatusCode: 403}, "may require authentication"},
		{"timeout", &urlfetch.Error{Timeout: true}, "Timeout fetching URL"},
		{"server error", &urlfetch.Error{StatusCode: 500}, "HTTP 500"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewReader(&fakeFetcher{err: tt.err}).Read([]string{"https://example.com/x"})
			require.Len(t, b.Warnings, 1)
			assert.Contains(t, b.Warnings[0], tt.want)
			assert.Equal(t, 0, b.URLCount)
		})
	}
}

func TestRead_MixedSourcesAndSizeAccounting(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.go", "package a\n")
	fetcher := &fakeFetcher{content: "remote", name: "remote.txt"}

	b := NewReader(fetcher).Read([]string{
		filepath.Join(dir, "a.go"),
		"https://example.com/remote.txt",
	})

	assert.Equal(t, 1, b.LocalCount)
	assert.Equal(t, 1, b.URLCount)
	assert.Equal(t, len("package a\n")+len("remote"), b.SizeBytes)
	// Size excludes formatting overhead.
	assert.Greater(t, len(b.Text), b.SizeBytes)
}

func TestLanguageFor(t *testing.T) {
	assert.Equal(t, "go", languageFor("main.go", false))
	assert.Equal(t, "python", languageFor("script.py", false))
	assert.Equal(t, "", languageFor("Makefile", false))
	assert.Equal(t, "markdown", languageFor("anything.html", true))
	assert.Equal(t, "html", languageFor("page.html", false))
}
