// Package ticket extracts ticket identifiers from branch names and provides
// filename sanitization for review output files.
package ticket

import "regexp"

// Extract applies the configured pattern against a branch name and returns
// the first capture group of the first match. Branch names containing several
// ticket-like substrings resolve to the first occurring one. When nothing
// matches, the configured fallback token is returned as-is.
func Extract(branchName, pattern, fallback string) string {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return fallback
	}
	m := re.FindStringSubmatch(branchName)
	if len(m) >= 2 {
		return m[1]
	}
	return fallback
}

var unsafeFilenameChars = regexp.MustCompile(`[^\w\-]`)

// SanitizeFilename replaces every character outside [A-Za-z0-9_-] with "-"
// so branch names like "feature/test" become safe filename fragments.
func SanitizeFilename(name string) string {
	return unsafeFilenameChars.ReplaceAllString(name, "-")
}
