// Package llmclient wraps the Anthropic Messages API behind the single
// generate(messages, tools, tool_choice, model, effort, service_tier)
// entrypoint spec.md §4.4 names, with content-addressed memoization so a
// replay run is hermetic. Grounded on
// untoldecay-BeadsLog/internal/compact/haiku.go's HaikuClient (retry
// envelope, anthropic.MessageNewParams construction, isRetryable), extended
// with the tool-use surface haiku.go does not exercise.
package llmclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/anthropics/anthropic-sdk-go/packages/param"

	"github.com/anchorsec/anchor/internal/model"
	"github.com/anchorsec/anchor/internal/respcache"
)

const (
	maxRetries     = 3
	initialBackoff = 1 * time.Second
	maxTokens      = 4096
)

// reasoningModels names the model-id substrings whose Temperature parameter
// must be omitted rather than pinned to 0, per spec.md §4.4 step 3.
var reasoningModels = []string{"o1", "o3", "reasoning"}

// Message is one role/text turn of a generate() call.
type Message struct {
	Role string // "user" or "assistant"
	Text string
}

// ToolDef is one tool exposed to the model, with its input schema reflected
// from a Go struct via ToolFor.
type ToolDef struct {
	Name        string
	Description string
	InputSchema json.RawMessage
}

// GenerateRequest is generate()'s full parameter set.
type GenerateRequest struct {
	Messages     []Message
	Tools        []ToolDef
	ToolChoice   string // name of the tool to force; required, per spec.md §4.4 step 2
	Model        string
	Effort       string // reasoning_effort: low|medium|high
	ServiceTier  string
}

// ToolCall is parse_tool_call's result: the tool name and its arguments,
// already JSON-decoded into args per spec.md §4.4 step 5.
type ToolCall struct {
	Name string
	Args map[string]any
}

// Client is the memoizing Anthropic-backed implementation of generate().
type Client struct {
	client anthropic.Client
	cache  *respcache.Cache
}

// New constructs a Client. cache may be a disabled (empty-dir) Cache, in
// which case every call hits the API.
func New(apiKey string, cache *respcache.Cache) *Client {
	return &Client{
		client: anthropic.NewClient(option.WithAPIKey(apiKey)),
		cache:  cache,
	}
}

type fingerprint struct {
	Model      string    `json:"model"`
	Messages   []Message `json:"messages"`
	Tools      []string  `json:"tools"` // names only: schemas are fixed per tool name
	ToolChoice string    `json:"tool_choice"`
}

// cachedResponse is the JSON shape persisted to and replayed from the memo
// cache: just enough of the API response to reconstruct a ToolCall, so a
// hermetic replay run never depends on the live SDK response type.
type cachedResponse struct {
	Name string          `json:"name"`
	Args json.RawMessage `json:"args"`
}

// Generate runs the fixed generate() contract spec.md §4.4 names.
func (c *Client) Generate(ctx context.Context, req GenerateRequest) (*ToolCall, error) {
	toolNames := make([]string, len(req.Tools))
	for i, t := range req.Tools {
		toolNames[i] = t.Name
	}
	key, err := respcache.Key(fingerprint{
		Model:      req.Model,
		Messages:   req.Messages,
		Tools:      toolNames,
		ToolChoice: req.ToolChoice,
	})
	if err != nil {
		return nil, fmt.Errorf("computing llm cache key: %w", err)
	}

	var cached cachedResponse
	if c.cache != nil {
		if hit, err := c.cache.Get(key, &cached); err == nil && hit {
			var args map[string]any
			if len(cached.Args) > 0 {
				_ = json.Unmarshal(cached.Args, &args)
			}
			return &ToolCall{Name: cached.Name, Args: args}, nil
		}
	}

	call, callErr := c.callWithRetry(ctx, req)
	if callErr != nil {
		return nil, &model.LLMError{Model: req.Model, Attempt: maxRetries + 1, Cause: callErr}
	}

	if c.cache != nil {
		argsJSON, _ := json.Marshal(call.Args)
		_ = c.cache.Put(key, cachedResponse{Name: call.Name, Args: argsJSON})
	}
	return call, nil
}

func (c *Client) callWithRetry(ctx context.Context, req GenerateRequest) (*ToolCall, error) {
	params := c.buildParams(req)

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			backoff := initialBackoff * time.Duration(math.Pow(2, float64(attempt-1)))
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		message, err := c.client.Messages.New(ctx, params)
		if err == nil {
			raw, marshalErr := json.Marshal(message)
			if marshalErr != nil {
				return nil, marshalErr
			}
			return parseToolCall(raw)
		}

		lastErr = err
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if !isRetryable(err) {
			return nil, fmt.Errorf("non-retryable error: %w", err)
		}
	}
	return nil, fmt.Errorf("failed after %d attempts: %w", maxRetries+1, lastErr)
}

func (c *Client) buildParams(req GenerateRequest) anthropic.MessageNewParams {
	msgs := make([]anthropic.MessageParam, len(req.Messages))
	for i, m := range req.Messages {
		block := anthropic.NewTextBlock(m.Text)
		if m.Role == "assistant" {
			msgs[i] = anthropic.NewAssistantMessage(block)
		} else {
			msgs[i] = anthropic.NewUserMessage(block)
		}
	}

	tools := make([]anthropic.ToolUnionParam, len(req.Tools))
	for i, t := range req.Tools {
		tools[i] = anthropic.ToolUnionParam{
			OfTool: &anthropic.ToolParam{
				Name:        t.Name,
				Description: param.NewOpt(t.Description),
				InputSchema: anthropic.ToolInputSchemaParam{
					Properties: t.InputSchema,
				},
			},
		}
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(req.Model),
		MaxTokens: maxTokens,
		Messages:  msgs,
		Tools:     tools,
	}
	if req.ToolChoice != "" {
		params.ToolChoice = anthropic.ToolChoiceUnionParam{
			OfTool: &anthropic.ToolChoiceToolParam{Name: req.ToolChoice},
		}
	}
	if !isReasoningModel(req.Model) {
		params.Temperature = param.NewOpt(0.0)
	}
	if req.ServiceTier != "" {
		params.ServiceTier = anthropic.MessageNewParamsServiceTier(req.ServiceTier)
	}
	return params
}

func isReasoningModel(modelID string) bool {
	lower := strings.ToLower(modelID)
	for _, m := range reasoningModels {
		if strings.Contains(lower, m) {
			return true
		}
	}
	return false
}

func isRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 429 || apiErr.StatusCode >= 500
	}
	return false
}
