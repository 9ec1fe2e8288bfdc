package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildPrompt_SubstitutesAllPlaceholders(t *testing.T) {
	req := ReviewRequest{
		TicketID:        "PROJ-42",
		Title:           "Add caching",
		URL:             "https://github.com/acme/blog/pull/42",
		Author:          "octocat",
		SourceBranch:    "feature/PROJ-42-caching",
		TargetBranch:    "main",
		Description:     "Adds a TTL cache.",
		Diff:            "diff --git a/cache.go b/cache.go",
		ExternalContext: "### File: notes.md\nsome notes",
		Template: "Ticket: {ticket_id}\nTitle: {pr_title}\nURL: {pr_url}\n" +
			"Author: {pr_author}\n{source_branch} -> {target_branch}\n" +
			"{pr_description}\n{diff}\n{external_context}",
	}

	out := BuildPrompt(req)
	assert.NotContains(t, out, "{")
	assert.Contains(t, out, "Ticket: PROJ-42")
	assert.Contains(t, out, "feature/PROJ-42-caching -> main")
	assert.Contains(t, out, "diff --git a/cache.go b/cache.go")
	assert.Contains(t, out, "### File: notes.md")
}

func TestBuildPrompt_EmptyContextSentinel(t *testing.T) {
	out := BuildPrompt(ReviewRequest{Template: "ctx: {external_context}"})
	assert.Equal(t, "ctx: "+NoExternalContext, out)

	out = BuildPrompt(ReviewRequest{Template: "ctx: {external_context}", ExternalContext: "   \n "})
	assert.Equal(t, "ctx: "+NoExternalContext, out)
}

func TestBuildPrompt_UnknownPlaceholderSurvives(t *testing.T) {
	out := BuildPrompt(ReviewRequest{Template: "{pr_titel} is a typo"})
	assert.Equal(t, "{pr_titel} is a typo", out)
}
