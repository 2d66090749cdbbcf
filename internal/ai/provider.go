// Package ai defines the contract between the discovery engine and the
// generative-search collaborator.
package ai

import "context"

// TokenUsage accounts for the tokens a collaborator call consumed.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Add accumulates usage from another call.
func (u *TokenUsage) Add(other TokenUsage) {
	u.PromptTokens += other.PromptTokens
	u.CompletionTokens += other.CompletionTokens
	u.TotalTokens += other.TotalTokens
}

// SearchResult is the raw outcome of one collaborator search: free-form text
// expected (but not guaranteed) to contain a job listing, plus token usage.
type SearchResult struct {
	Text  string
	Usage TokenUsage
}

// SearchProvider turns a query string into raw listing text. Implementations
// may fail; callers must tolerate per-query failures.
type SearchProvider interface {
	Search(ctx context.Context, query string) (*SearchResult, error)
}
