package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/ledgerwise/ledgerwise/internal/model"
)

// MockClient is a test implementation of the llm.Client interface. It records
// every prompt and either replays queued responses or synthesizes a verdict
// per entry from a canned detail→category table.
type MockClient struct {
	err       error
	rules     map[string]string
	Prompts   []string
	responses []string
	mu        sync.Mutex
}

// NewMockClient creates a mock classifier client.
func NewMockClient() *MockClient {
	return &MockClient{rules: make(map[string]string)}
}

// QueueResponse appends a canned raw response, returned in FIFO order before
// any rule-based synthesis kicks in.
func (m *MockClient) QueueResponse(response string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses = append(m.responses, response)
}

// Rule maps a detail substring (case-insensitive) to a category for
// synthesized responses. Entries matching no rule get an empty category.
func (m *MockClient) Rule(detailSubstring, category string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rules[strings.ToLower(detailSubstring)] = category
}

// Fail makes every subsequent call return err.
func (m *MockClient) Fail(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Calls reports how many prompts were issued.
func (m *MockClient) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Prompts)
}

// Complete implements llm.Client.
func (m *MockClient) Complete(_ context.Context, prompt string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Prompts = append(m.Prompts, prompt)

	if m.err != nil {
		return "", m.err
	}

	if len(m.responses) > 0 {
		resp := m.responses[0]
		m.responses = m.responses[1:]
		return resp, nil
	}

	return m.synthesize(prompt)
}

// synthesize builds a verdict array for the entries embedded in the prompt.
func (m *MockClient) synthesize(prompt string) (string, error) {
	start := strings.Index(prompt, "Transactions: ")
	if start < 0 {
		return "", fmt.Errorf("mock: no transactions in prompt")
	}
	rest := prompt[start+len("Transactions: "):]
	end := strings.Index(rest, "\n")
	if end < 0 {
		end = len(rest)
	}

	var entries []promptEntry
	if err := json.Unmarshal([]byte(rest[:end]), &entries); err != nil {
		return "", fmt.Errorf("mock: failed to decode entries: %w", err)
	}

	verdicts := make([]model.Reclassification, len(entries))
	for i, e := range entries {
		verdicts[i] = model.Reclassification{ID: e.ID, Category: m.lookup(e.Detail)}
	}

	out, err := json.Marshal(verdicts)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func (m *MockClient) lookup(detail string) string {
	lower := strings.ToLower(detail)
	for substr, category := range m.rules {
		if strings.Contains(lower, substr) {
			return category
		}
	}
	return ""
}
