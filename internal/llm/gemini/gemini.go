// Package gemini implements llm.Provider over the Google Generative AI SDK.
package gemini

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/kestrellabs/lexrag/internal/llm"
)

const defaultEmbedModel = "text-embedding-004"

// Client implements llm.Provider for Gemini models.
type Client struct {
	client     *genai.Client
	model      string
	embedModel string
}

// New creates a Gemini provider.
func New(ctx context.Context, apiKey, model, embedModel string) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini: api key is required")
	}
	if embedModel == "" {
		embedModel = defaultEmbedModel
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}
	return &Client{client: client, model: model, embedModel: embedModel}, nil
}

func (c *Client) Name() string { return "gemini" }

func (c *Client) Complete(ctx context.Context, prompt *llm.Prompt, opts *llm.RequestOptions) (*llm.Response, error) {
	model := c.client.GenerativeModel(c.model)
	if prompt.SystemPrompt != "" {
		model.SystemInstruction = &genai.Content{
			Parts: []genai.Part{genai.Text(prompt.SystemPrompt)},
		}
	}
	if opts != nil {
		if opts.MaxTokens != nil {
			model.SetMaxOutputTokens(int32(*opts.MaxTokens))
		}
		if opts.Temperature != nil {
			model.SetTemperature(float32(*opts.Temperature))
		}
		if opts.TopP != nil {
			model.SetTopP(float32(*opts.TopP))
		}
		if len(opts.StopSeqs) > 0 {
			model.StopSequences = opts.StopSeqs
		}
	}

	// The SDK models multi-turn input as a chat history; fold our message
	// list into a single user turn, which is all the pipeline sends.
	var sb strings.Builder
	for _, m := range prompt.Messages {
		sb.WriteString(m.Content)
		sb.WriteString("\n")
	}

	resp, err := model.GenerateContent(ctx, genai.Text(sb.String()))
	if err != nil {
		return nil, fmt.Errorf("gemini generate: %w", err)
	}

	out := &llm.Response{Model: c.model}
	if resp.UsageMetadata != nil {
		out.InputTokens = int(resp.UsageMetadata.PromptTokenCount)
		out.OutputTokens = int(resp.UsageMetadata.CandidatesTokenCount)
	}
	if len(resp.Candidates) > 0 {
		cand := resp.Candidates[0]
		out.StopReason = cand.FinishReason.String()
		if cand.Content != nil {
			var text strings.Builder
			for _, part := range cand.Content.Parts {
				if t, ok := part.(genai.Text); ok {
					text.WriteString(string(t))
				}
			}
			out.Content = text.String()
		}
	}
	return out, nil
}

func (c *Client) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	em := c.client.EmbeddingModel(c.embedModel)
	batch := em.NewBatch()
	for _, t := range texts {
		batch.AddContent(genai.Text(t))
	}

	resp, err := em.BatchEmbedContents(ctx, batch)
	if err != nil {
		return nil, fmt.Errorf("gemini embed: %w", err)
	}
	if len(resp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("gemini embed: got %d vectors for %d inputs", len(resp.Embeddings), len(texts))
	}

	vectors := make([][]float32, len(resp.Embeddings))
	for i, e := range resp.Embeddings {
		vectors[i] = e.Values
	}
	return vectors, nil
}

// Close releases the underlying SDK client.
func (c *Client) Close() error { return c.client.Close() }
