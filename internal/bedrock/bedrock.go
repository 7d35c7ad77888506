// Package bedrock wraps the two Amazon Bedrock model calls the pipelines
// depend on: text embedding (Titan) and grounded answer generation (Claude).
//
// Neither client retries. A failed model call surfaces to the caller, and
// the invocation trigger is expected to retry the whole run.
package bedrock

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"

	"github.com/quarklabs/ragline/internal/log"
)

// Claude invocation parameters. Fixed, not configurable.
const (
	anthropicVersion = "bedrock-2023-05-31"
	maxTokens        = 2000
	temperature      = 0.1
	topP             = 0.9
)

// InvokeAPI is the Bedrock runtime surface the clients consume.
// Satisfied by *bedrockruntime.Client.
type InvokeAPI interface {
	InvokeModel(ctx context.Context, params *bedrockruntime.InvokeModelInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error)
}

// Embedder converts text into a fixed-dimension vector via a Titan
// embedding model. One remote call per Embed; no retry.
type Embedder struct {
	client    InvokeAPI
	modelID   string
	dimension int
	logger    log.Logger
}

// NewEmbedder creates an Embedder for the given model.
// dimension must match the index the vectors are written to.
func NewEmbedder(client InvokeAPI, modelID string, dimension int, logger log.Logger) *Embedder {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Embedder{client: client, modelID: modelID, dimension: dimension, logger: logger}
}

// titanEmbedRequest is the Titan v2 invocation body. Normalization is
// requested so cosine scores stay comparable across documents.
type titanEmbedRequest struct {
	InputText  string `json:"inputText"`
	Dimensions int    `json:"dimensions,omitempty"`
	Normalize  bool   `json:"normalize"`
}

type titanEmbedResponse struct {
	Embedding           []float32 `json:"embedding"`
	InputTextTokenCount int       `json:"inputTextTokenCount"`
}

// Embed returns the embedding vector for text.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	payload, err := json.Marshal(titanEmbedRequest{
		InputText:  text,
		Dimensions: e.dimension,
		Normalize:  true,
	})
	if err != nil {
		return nil, fmt.Errorf("marshaling embed request: %w", err)
	}

	out, err := e.client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(e.modelID),
		ContentType: aws.String("application/json"),
		Accept:      aws.String("application/json"),
		Body:        payload,
	})
	if err != nil {
		return nil, fmt.Errorf("invoking embedding model %q: %w", e.modelID, err)
	}

	var resp titanEmbedResponse
	if err := json.Unmarshal(out.Body, &resp); err != nil {
		return nil, fmt.Errorf("decoding embedding response: %w", err)
	}
	if len(resp.Embedding) == 0 {
		return nil, fmt.Errorf("embedding model %q returned an empty vector", e.modelID)
	}

	e.logger.Debug("embedded text",
		"model", e.modelID,
		"input_tokens", resp.InputTextTokenCount,
		"dimension", len(resp.Embedding))

	return resp.Embedding, nil
}

// Generator produces text from a prompt via a Claude model on Bedrock.
// One remote call per Generate; no retry. Prompt construction is the
// caller's concern.
type Generator struct {
	client  InvokeAPI
	modelID string
	logger  log.Logger
}

// NewGenerator creates a Generator for the given model.
func NewGenerator(client InvokeAPI, modelID string, logger log.Logger) *Generator {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Generator{client: client, modelID: modelID, logger: logger}
}

// Anthropic messages request/response shapes for Bedrock.
type claudeRequest struct {
	AnthropicVersion string          `json:"anthropic_version"`
	MaxTokens        int             `json:"max_tokens"`
	Temperature      float64         `json:"temperature"`
	TopP             float64         `json:"top_p"`
	Messages         []claudeMessage `json:"messages"`
}

type claudeMessage struct {
	Role    string          `json:"role"`
	Content []claudeContent `json:"content"`
}

type claudeContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type claudeResponse struct {
	Content    []claudeContent `json:"content"`
	StopReason string          `json:"stop_reason"`
}

// Generate returns the model's text completion for prompt.
func (g *Generator) Generate(ctx context.Context, prompt string) (string, error) {
	payload, err := json.Marshal(claudeRequest{
		AnthropicVersion: anthropicVersion,
		MaxTokens:        maxTokens,
		Temperature:      temperature,
		TopP:             topP,
		Messages: []claudeMessage{{
			Role:    "user",
			Content: []claudeContent{{Type: "text", Text: prompt}},
		}},
	})
	if err != nil {
		return "", fmt.Errorf("marshaling generation request: %w", err)
	}

	out, err := g.client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(g.modelID),
		ContentType: aws.String("application/json"),
		Accept:      aws.String("application/json"),
		Body:        payload,
	})
	if err != nil {
		return "", fmt.Errorf("invoking generation model %q: %w", g.modelID, err)
	}

	var resp claudeResponse
	if err := json.Unmarshal(out.Body, &resp); err != nil {
		return "", fmt.Errorf("decoding generation response: %w", err)
	}

	for _, c := range resp.Content {
		if c.Type == "text" && c.Text != "" {
			g.logger.Debug("generated answer", "model", g.modelID, "stop_reason", resp.StopReason)
			return c.Text, nil
		}
	}
	return "", fmt.Errorf("generation model %q returned no text content", g.modelID)
}
