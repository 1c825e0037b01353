/*
 * Copyright 2022 Holoinsight Project Authors. Licensed under Apache-2.0.
 */

package generation

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// Candidate is one proposed template returned by a Client, prior to
// validation against §4.7's rules.
type Candidate struct {
	Pattern   string   `json:"pattern"`
	Fragments []string `json:"fragments"`
	Variables []string `json:"variables"`
	Example   string   `json:"-"`
}

// Client proposes template candidates for a batch of unmatched lines. It is
// the Go analogue of original_source/src/llm_service.rs's completion call.
type Client interface {
	GenerateTemplates(ctx context.Context, lines []string) ([]Candidate, error)
}

// OpenAIClient implements Client against an OpenAI-compatible chat
// completion endpoint, grounded on original_source/src/llm_service.rs's
// prompt/response contract: one prompt containing all sample lines, one JSON
// array reply of {pattern, fragments, variables} objects.
type OpenAIClient struct {
	api   *openai.Client
	model string
}

// NewOpenAIClient builds a client against apiKey/baseURL (baseURL empty uses
// the default OpenAI endpoint) for the given chat model.
func NewOpenAIClient(apiKey, baseURL, model string) *OpenAIClient {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &OpenAIClient{api: openai.NewClientWithConfig(cfg), model: model}
}

const systemPrompt = `You derive log templates from sample log lines. A
template is a pattern where variable fields (ids, timestamps, numbers, paths)
are replaced with <*>. Respond with a JSON array; each element has keys
"pattern" (the template string), "fragments" (the literal substrings of the
pattern that are NOT variable, in order of appearance), and "variables" (a
label per <*> placeholder, in order). Respond with ONLY the JSON array.`

func (c *OpenAIClient) GenerateTemplates(ctx context.Context, lines []string) ([]Candidate, error) {
	var b strings.Builder
	b.WriteString("Sample log lines:\n")
	for _, l := range lines {
		b.WriteString("- ")
		b.WriteString(l)
		b.WriteString("\n")
	}

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: b.String()},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("generation: chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("generation: empty completion")
	}
	return parseReply(resp.Choices[0].Message.Content)
}

// parseReply extracts the JSON array from a (possibly prose-wrapped) model
// reply by slicing between the first '[' and the last ']', mirroring
// original_source/src/llm_service.rs's tolerant parse_llm_response.
func parseReply(content string) ([]Candidate, error) {
	start := strings.IndexByte(content, '[')
	end := strings.LastIndexByte(content, ']')
	if start < 0 || end < start {
		return nil, fmt.Errorf("generation: no JSON array found in reply")
	}
	var candidates []Candidate
	if err := json.Unmarshal([]byte(content[start:end+1]), &candidates); err != nil {
		return nil, fmt.Errorf("generation: malformed reply: %w", err)
	}
	return candidates, nil
}

// MockClient is a test double returning a fixed set of candidates, or an
// error, regardless of input.
type MockClient struct {
	Candidates []Candidate
	Err        error
}

func (m *MockClient) GenerateTemplates(ctx context.Context, lines []string) ([]Candidate, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Candidates, nil
}
