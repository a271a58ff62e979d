package extraction

import (
	"context"
)

type MockLLMClient struct {
	Response string
	Err      error
}

func (m *MockLLMClient) Generate(ctx context.Context, prompt string, maxTokens int) (string, error) {
	if m.Err != nil {
		return "", m.Err
	}
	return m.Response, nil
}

// ScriptedLLMClient returns its responses in call order and records every
// prompt, for tests covering the two-request extraction protocol.
type ScriptedLLMClient struct {
	Responses []string
	Errs      []error
	Prompts   []string
	calls     int
}

func (s *ScriptedLLMClient) Generate(ctx context.Context, prompt string, maxTokens int) (string, error) {
	s.Prompts = append(s.Prompts, prompt)
	i := s.calls
	s.calls++
	if i < len(s.Errs) && s.Errs[i] != nil {
		return "", s.Errs[i]
	}
	if i < len(s.Responses) {
		return s.Responses[i], nil
	}
	return "", nil
}
