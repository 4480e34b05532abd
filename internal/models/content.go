package models

import "strings"

// ContentItem is one prompt/human-response/AI-response triple from the
// pre-generated corpus. Read-only at runtime.
type ContentItem struct {
	ID        string   `json:"id"`
	Theme     string   `json:"theme"`
	Condition string   `json:"condition"`
	Type      string   `json:"type"`
	Prompt    string   `json:"prompt"`
	Human     string   `json:"human"`
	AI        string   `json:"ai"`
	Tags      []string `json:"tags"`
}

// Eligible reports whether the item can be played: prompt and both
// candidate responses must be present.
func (c ContentItem) Eligible() bool {
	return strings.TrimSpace(c.Prompt) != "" &&
		strings.TrimSpace(c.Human) != "" &&
		strings.TrimSpace(c.AI) != ""
}
