package intent

import (
	"context"

	"github.com/jonathan/content-curator/internal/llm"
)

// MockLLMClient implements llm.Client for testing
type MockLLMClient struct {
	CompleteFunc func(ctx context.Context, messages []llm.Message, opts llm.CompletionOptions) (string, error)
	calls        int
}

func (m *MockLLMClient) Complete(ctx context.Context, messages []llm.Message, opts llm.CompletionOptions) (string, error) {
	m.calls++
	if m.CompleteFunc != nil {
		return m.CompleteFunc(ctx, messages, opts)
	}
	return "", nil
}

func (m *MockLLMClient) Embed(context.Context, string) ([]float32, error) {
	return nil, nil
}

func (m *MockLLMClient) EmbedBatch(context.Context, []string) ([][]float32, error) {
	return nil, nil
}

func (m *MockLLMClient) Close() error {
	return nil
}
