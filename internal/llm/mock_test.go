package llm

import "context"

// MockClient is a test double for Client.
type MockClient struct {
	CompleteFunc   func(ctx context.Context, messages []Message, opts CompletionOptions) (string, error)
	EmbedFunc      func(ctx context.Context, text string) ([]float32, error)
	EmbedBatchFunc func(ctx context.Context, texts []string) ([][]float32, error)
	closed         bool
}

func (m *MockClient) Complete(ctx context.Context, messages []Message, opts CompletionOptions) (string, error) {
	if m.CompleteFunc != nil {
		return m.CompleteFunc(ctx, messages, opts)
	}
	return "", nil
}

func (m *MockClient) Embed(ctx context.Context, text string) ([]float32, error) {
	if m.EmbedFunc != nil {
		return m.EmbedFunc(ctx, text)
	}
	return nil, nil
}

func (m *MockClient) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if m.EmbedBatchFunc != nil {
		return m.EmbedBatchFunc(ctx, texts)
	}
	return nil, nil
}

func (m *MockClient) Close() error {
	m.closed = true
	return nil
}
