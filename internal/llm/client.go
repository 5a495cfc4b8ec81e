package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/jonathan/content-curator/internal/metrics"
)

// Role is the author of a chat message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one turn of a completion request.
type Message struct {
	Role    Role
	Content string
}

// CompletionOptions tunes a single completion request.
type CompletionOptions struct {
	Tier        ModelTier
	Temperature float32
	// MaxOutputTokens overrides Config.MaxOutputTokens when positive.
	MaxOutputTokens int32
	// JSON asks the provider for an application/json response.
	JSON bool
}

// Client is the completion and embedding capability used by the pipeline.
type Client interface {
	// Complete returns the assistant text for an ordered list of messages.
	Complete(ctx context.Context, messages []Message, opts CompletionOptions) (string, error)
	// Embed returns the embedding vector for text.
	Embed(ctx context.Context, text string) ([]float32, error)
	// EmbedBatch embeds texts in one request, preserving order.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	// Close releases any resources held by the client
	Close() error
}

// NewClient creates a new LLM client based on configuration
func NewClient(ctx context.Context, config *Config, apiKey string) (Client, error) {
	if config == nil {
		config = DefaultConfig()
	}

	switch config.Provider {
	case ProviderGemini:
		return NewGeminiClient(ctx, config, apiKey)
	default:
		return nil, fmt.Errorf("unsupported LLM provider %q", config.Provider)
	}
}

// GeminiClient implements Client for Google Gemini
type GeminiClient struct {
	client *genai.Client
	config *Config
}

// NewGeminiClient creates a new Gemini client
func NewGeminiClient(ctx context.Context, config *Config, apiKey string) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiClient{
		client: client,
		config: config,
	}, nil
}

// Complete sends the conversation to the tier's model. System messages become
// the system instruction; the last non-system message is sent, earlier ones
// are replayed as chat history.
func (c *GeminiClient) Complete(ctx context.Context, messages []Message, opts CompletionOptions) (string, error) {
	tier := opts.Tier
	if tier == "" {
		tier = TierStandard
	}
	modelName := c.config.GetModel(tier)
	if modelName == "" {
		return "", fmt.Errorf("no model configured for tier %s", tier)
	}

	system, turns := splitMessages(messages)
	if len(turns) == 0 {
		return "", fmt.Errorf("completion requires at least one user message")
	}

	model := c.client.GenerativeModel(modelName)
	model.SetTemperature(opts.Temperature)
	maxTokens := c.config.MaxOutputTokens
	if opts.MaxOutputTokens > 0 {
		maxTokens = opts.MaxOutputTokens
	}
	if maxTokens > 0 {
		model.SetMaxOutputTokens(maxTokens)
	}
	if opts.JSON {
		model.ResponseMIMEType = "application/json"
	}
	if system != "" {
		model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(system)}}
	}

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	cs := model.StartChat()
	for _, m := range turns[:len(turns)-1] {
		cs.History = append(cs.History, &genai.Content{
			Role:  geminiRole(m.Role),
			Parts: []genai.Part{genai.Text(m.Content)},
		})
	}

	resp, err := cs.SendMessage(ctx, genai.Text(turns[len(turns)-1].Content))
	metrics.RecordLLMRequest("complete", err)
	if err != nil {
		return "", &APICallError{Operation: "complete", Message: modelName, Cause: err}
	}

	text, err := extractTextFromResponse(resp)
	if err != nil {
		return "", err
	}
	if opts.JSON {
		return CleanJSONBlock(text), nil
	}
	return strings.TrimSpace(text), nil
}

// Embed returns the embedding of text.
func (c *GeminiClient) Embed(ctx context.Context, text string) ([]float32, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	em := c.client.EmbeddingModel(c.config.EmbeddingModel)
	res, err := em.EmbedContent(ctx, genai.Text(text))
	metrics.RecordLLMRequest("embed", err)
	if err != nil {
		return nil, &APICallError{Operation: "embed", Message: c.config.EmbeddingModel, Cause: err}
	}
	if res == nil || res.Embedding == nil || len(res.Embedding.Values) == 0 {
		return nil, &EmptyResponseError{Message: "no embedding values"}
	}
	return res.Embedding.Values, nil
}

// EmbedBatch embeds all texts in a single batch request.
func (c *GeminiClient) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	em := c.client.EmbeddingModel(c.config.EmbeddingModel)
	batch := em.NewBatch()
	for _, t := range texts {
		batch.AddContent(genai.Text(t))
	}

	res, err := em.BatchEmbedContents(ctx, batch)
	metrics.RecordLLMRequest("embed_batch", err)
	if err != nil {
		return nil, &APICallError{Operation: "embed_batch", Message: c.config.EmbeddingModel, Cause: err}
	}
	if res == nil || len(res.Embeddings) != len(texts) {
		return nil, &EmptyResponseError{Message: fmt.Sprintf("expected %d embeddings", len(texts))}
	}

	out := make([][]float32, len(res.Embeddings))
	for i, e := range res.Embeddings {
		if e != nil {
			out[i] = e.Values
		}
	}
	return out, nil
}

// Close releases resources held by the client
func (c *GeminiClient) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

func (c *GeminiClient) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.config.Timeout > 0 {
		return context.WithTimeout(ctx, c.config.Timeout)
	}
	return context.WithCancel(ctx)
}

// splitMessages joins system messages and returns the remaining turns in order.
func splitMessages(messages []Message) (string, []Message) {
	var system []string
	turns := make([]Message, 0, len(messages))
	for _, m := range messages {
		if m.Role == RoleSystem {
			if s := strings.TrimSpace(m.Content); s != "" {
				system = append(system, s)
			}
			continue
		}
		turns = append(turns, m)
	}
	return strings.Join(system, "\n\n"), turns
}

func geminiRole(r Role) string {
	if r == RoleAssistant {
		return "model"
	}
	return "user"
}

// extractTextFromResponse extracts text from Gemini API response
func extractTextFromResponse(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", &EmptyResponseError{Message: "no candidates in response"}
	}

	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", &EmptyResponseError{Message: "no content in response"}
	}

	var parts []string
	for _, part := range candidate.Content.Parts {
		if text, ok := part.(genai.Text); ok {
			parts = append(parts, string(text))
		}
	}

	if len(parts) == 0 {
		return "", &EmptyResponseError{Message: "no text parts in response"}
	}

	return strings.Join(parts, ""), nil
}
