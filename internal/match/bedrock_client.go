package match

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	bedrockruntime "github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
)

const (
	DefaultModelID = "anthropic.claude-3-5-sonnet-20240620-v1:0"

	anthropicVersion = "bedrock-2023-05-31"
	maxTokens        = 250
	temperature      = 0.7
)

var errNoText = errors.New("model response contained no text content")

type BedrockClient interface {
	InvokeModel(ctx context.Context, params *bedrockruntime.InvokeModelInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error)
}

// Gateway sends prompts to a Claude model on Bedrock. It holds no per-request
// state and may be shared across invocations.
type Gateway struct {
	client  BedrockClient
	modelID string
	now     func() time.Time
}

func NewGateway(client BedrockClient, modelID string) *Gateway {
	if strings.TrimSpace(modelID) == "" {
		modelID = DefaultModelID
	}
	return &Gateway{client: client, modelID: modelID, now: time.Now}
}

func (g *Gateway) ModelID() string { return g.modelID }

type claudeMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type claudeRequest struct {
	AnthropicVersion string          `json:"anthropic_version"`
	MaxTokens        int             `json:"max_tokens"`
	Temperature      float64         `json:"temperature"`
	Messages         []claudeMessage `json:"messages"`
}

type claudeResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Usage *struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

// Explain issues one InvokeModel call. Every error is returned as a gateway
// Failure; nothing is retried here.
func (g *Gateway) Explain(ctx context.Context, prompt string) (Explanation, error) {
	body, err := json.Marshal(claudeRequest{
		AnthropicVersion: anthropicVersion,
		MaxTokens:        maxTokens,
		Temperature:      temperature,
		Messages:         []claudeMessage{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return Explanation{}, GatewayFailure(fmt.Errorf("encode model request: %w", err))
	}

	start := g.now()
	out, err := g.client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(g.modelID),
		ContentType: aws.String("application/json"),
		Accept:      aws.String("application/json"),
		Body:        body,
	})
	latency := g.now().Sub(start)
	if err != nil {
		return Explanation{Latency: latency}, GatewayFailure(err)
	}

	var raw claudeResponse
	if err := json.Unmarshal(out.Body, &raw); err != nil {
		return Explanation{Latency: latency}, GatewayFailure(fmt.Errorf("decode model response: %w", err))
	}

	exp := Explanation{Latency: latency}
	for _, block := range raw.Content {
		if block.Type == "text" || block.Type == "" {
			exp.Text = block.Text
			break
		}
	}
	if strings.TrimSpace(exp.Text) == "" {
		return exp, GatewayFailure(errNoText)
	}
	if raw.Usage != nil {
		exp.HasUsage = true
		exp.InputTokens = raw.Usage.InputTokens
		exp.OutputTokens = raw.Usage.OutputTokens
	}
	return exp, nil
}
