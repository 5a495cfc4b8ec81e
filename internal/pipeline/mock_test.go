package pipeline

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/jonathan/content-curator/internal/llm"
	"github.com/jonathan/content-curator/internal/prompts"
	"github.com/jonathan/content-curator/internal/types"
)

// MockLLMClient implements llm.Client for testing, routing each completion
// to the stage that asked for it by its system prompt.
type MockLLMClient struct {
	IntentFunc  func(prompt string) (string, error)
	JudgeFunc   func(prompt string) (string, error)
	GroundFunc  func(prompt string) (string, error)
	QueryVector []float32
	EmbedErr    error

	mu         sync.Mutex
	stageCalls map[string]int
}

func (m *MockLLMClient) Complete(_ context.Context, messages []llm.Message, _ llm.CompletionOptions) (string, error) {
	system := messages[0].Content
	user := messages[len(messages)-1].Content

	var stage string
	var fn func(string) (string, error)
	switch system {
	case prompts.MustGet(prompts.RecommendFile, "intent_system"):
		stage, fn = "intent", m.IntentFunc
	case prompts.MustGet(prompts.RecommendFile, "validation_system"):
		stage, fn = "validation", m.JudgeFunc
	case prompts.MustGet(prompts.RecommendFile, "grounding_system"):
		stage, fn = "grounding", m.GroundFunc
	}

	m.mu.Lock()
	if m.stageCalls == nil {
		m.stageCalls = map[string]int{}
	}
	m.stageCalls[stage]++
	m.mu.Unlock()

	if fn == nil {
		return "", errors.New("no stub for stage " + stage)
	}
	return fn(user)
}

func (m *MockLLMClient) Embed(context.Context, string) ([]float32, error) {
	if m.EmbedErr != nil {
		return nil, m.EmbedErr
	}
	return m.QueryVector, nil
}

func (m *MockLLMClient) EmbedBatch(context.Context, []string) ([][]float32, error) {
	return nil, nil
}

func (m *MockLLMClient) Close() error {
	return nil
}

func (m *MockLLMClient) calls(stage string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stageCalls[stage]
}

// fakeStore is an in-memory catalog, embedding store and package sink.
type fakeStore struct {
	items      []types.CatalogItem
	embeddings map[int64][]float32
	searchErr  error
	panicOn    string
	createErr  error
	saved      []*types.Package
}

func (f *fakeStore) SearchItems(_ context.Context, q types.CatalogQuery) ([]types.CatalogItem, error) {
	if f.panicOn == "search" {
		panic("catalog exploded")
	}
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	var out []types.CatalogItem
	for _, item := range f.items {
		text := strings.ToLower(strings.Join([]string{
			item.Title, item.Intro, item.Objective,
			item.MajorCategory, item.MiddleCategory, item.MinorCategory,
		}, " "))
		for _, kw := range q.AnyOf {
			if strings.Contains(text, strings.ToLower(kw)) {
				out = append(out, item)
				break
			}
		}
		if q.Limit > 0 && len(out) == q.Limit {
			break
		}
	}
	return out, nil
}

func (f *fakeStore) RecentItems(_ context.Context, limit int) ([]types.CatalogItem, error) {
	return f.items[:min(limit, len(f.items))], nil
}

func (f *fakeStore) GetEmbeddings(_ context.Context, ids []int64) (map[int64][]float32, error) {
	out := map[int64][]float32{}
	for _, id := range ids {
		if v, ok := f.embeddings[id]; ok {
			out[id] = v
		}
	}
	return out, nil
}

func (f *fakeStore) CreatePackage(_ context.Context, pkg *types.Package) (int64, error) {
	if f.createErr != nil {
		return 0, f.createErr
	}
	f.saved = append(f.saved, pkg)
	return 7, nil
}

// fakeRecorder captures the run journal.
type fakeRecorder struct {
	err       error
	created   []string
	artifacts map[string]any
	status    string
	packageID int64
}

func (f *fakeRecorder) CreateRun(_ context.Context, _ uuid.UUID, goal string) error {
	f.created = append(f.created, goal)
	return f.err
}

func (f *fakeRecorder) SaveArtifact(_ context.Context, _ uuid.UUID, step string, content any) error {
	if f.artifacts == nil {
		f.artifacts = map[string]any{}
	}
	f.artifacts[step] = content
	return f.err
}

func (f *fakeRecorder) CompleteRun(_ context.Context, _ uuid.UUID, status string, packageID int64) error {
	f.status = status
	f.packageID = packageID
	return f.err
}
