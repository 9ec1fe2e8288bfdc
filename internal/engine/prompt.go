package engine

import "strings"

// NoExternalContext is substituted for {external_context} when the review
// request carries none, so the template never renders an empty section.
const NoExternalContext = "No external context provided."

// BuildPrompt renders the request into the template by substituting the
// fixed placeholder set. Unknown placeholders are left untouched so a typo
// in a custom template is visible in the output instead of vanishing.
func BuildPrompt(req ReviewRequest) string {
	extContext := req.ExternalContext
	if strings.TrimSpace(extContext) == "" {
		extContext = NoExternalContext
	}

	return strings.NewReplacer(
		"{ticket_id}", req.TicketID,
		"{pr_title}", req.Title,
		"{pr_url}", req.URL,
		"{pr_author}", req.Author,
		"{source_branch}", req.SourceBranch,
		"{target_branch}", req.TargetBranch,
		"{pr_description}", req.Description,
		"{diff}", req.Diff,
		"{external_context}", extContext,
	).Replace(req.Template)
}
