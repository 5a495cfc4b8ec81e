package ranking

import (
	"context"
	"sync"

	"github.com/jonathan/content-curator/internal/llm"
)

// MockLLMClient implements llm.Client for testing
type MockLLMClient struct {
	CompleteFunc func(ctx context.Context, messages []llm.Message, opts llm.CompletionOptions) (string, error)
	EmbedFunc    func(ctx context.Context, text string) ([]float32, error)

	mu      sync.Mutex
	prompts []string
}

func (m *MockLLMClient) Complete(ctx context.Context, messages []llm.Message, opts llm.CompletionOptions) (string, error) {
	m.mu.Lock()
	m.prompts = append(m.prompts, messages[len(messages)-1].Content)
	m.mu.Unlock()
	if m.CompleteFunc != nil {
		return m.CompleteFunc(ctx, messages, opts)
	}
	return "[]", nil
}

func (m *MockLLMClient) Embed(ctx context.Context, text string) ([]float32, error) {
	if m.EmbedFunc != nil {
		return m.EmbedFunc(ctx, text)
	}
	return nil, nil
}

func (m *MockLLMClient) EmbedBatch(context.Context, []string) ([][]float32, error) {
	return nil, nil
}

func (m *MockLLMClient) Close() error {
	return nil
}

// fakeEmbeddingStore serves a fixed id->vector map.
type fakeEmbeddingStore struct {
	vectors map[int64][]float32
	err     error
	calls   int
}

func (f *fakeEmbeddingStore) GetEmbeddings(_ context.Context, ids []int64) (map[int64][]float32, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	out := map[int64][]float32{}
	for _, id := range ids {
		if v, ok := f.vectors[id]; ok {
			out[id] = v
		}
	}
	return out, nil
}
