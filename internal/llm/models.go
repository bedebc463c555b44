package llm

import (
	"context"
	"net/http"
	"slices"
	"strings"
)

// AllowedModels is the allow-list of model ids a generation may request.
// Free-tier entries come first; the first one is the default.
var AllowedModels = []string{
	"mistralai/mistral-7b-instruct:free",
	"meta-llama/llama-3.1-8b-instruct:free",
	"meta-llama/llama-3.2-3b-instruct:free",
	"qwen/qwen-2-7b-instruct:free",
	"microsoft/phi-3-mini-128k-instruct:free",
	"google/gemini-flash-1.5:free",
	"openai/gpt-oss-20b:free",
	"openai/gpt-4",
	"openai/gpt-3.5-turbo",
	"anthropic/claude-3-opus",
	"anthropic/claude-3-sonnet",
	"anthropic/claude-3-haiku",
	"google/gemini-pro",
}

// DefaultModel is the first free-tier entry of AllowedModels.
var DefaultModel = AllowedModels[0]

// KnownWorkingModels are suggested when a request fails. Kept separate from
// AllowedModels: being allowed does not mean being reliably up.
var KnownWorkingModels = []string{
	"mistralai/mistral-7b-instruct:free",
}

// IsAllowed reports whether id is on the allow-list.
func IsAllowed(id string) bool {
	return slices.Contains(AllowedModels, id)
}

// ModelInfo is one entry of the provider's model catalogue.
type ModelInfo struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	ContextLength int     `json:"context_length"`
	Pricing       Pricing `json:"pricing"`
}

type Pricing struct {
	Prompt     string `json:"prompt"`
	Completion string `json:"completion"`
}

// ListModels fetches the provider's model catalogue.
func (c *Client) ListModels(ctx context.Context) ([]ModelInfo, error) {
	var resp struct {
		Data []ModelInfo `json:"data"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/models", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// FreeModels returns the catalogue entries whose id ends in ":free".
func (c *Client) FreeModels(ctx context.Context) ([]ModelInfo, error) {
	models, err := c.ListModels(ctx)
	if err != nil {
		return nil, err
	}
	free := make([]ModelInfo, 0, len(models))
	for _, m := range models {
		if strings.HasSuffix(m.ID, ":free") {
			free = append(free, m)
		}
	}
	return free, nil
}

// IsModelAvailable reports whether id is in the catalogue. A failed fetch
// counts as unavailable.
func (c *Client) IsModelAvailable(ctx context.Context, id string) bool {
	return c.CheckModels(ctx, []string{id})[id]
}

// CheckModels reports catalogue presence for every id in ids. If the catalogue
// cannot be fetched the failure is logged and every id maps to false.
func (c *Client) CheckModels(ctx context.Context, ids []string) map[string]bool {
	result := make(map[string]bool, len(ids))
	for _, id := range ids {
		result[id] = false
	}

	models, err := c.ListModels(ctx)
	if err != nil {
		c.logger.Error("fetching model catalogue", "error", err)
		return result
	}

	available := make(map[string]struct{}, len(models))
	for _, m := range models {
		available[m.ID] = struct{}{}
	}
	for _, id := range ids {
		_, result[id] = available[id]
	}
	return result
}
