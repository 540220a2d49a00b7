package plansource

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"

	"github.com/hairizuan-noorazman/screen-guide/logger"
	"github.com/hairizuan-noorazman/screen-guide/plan"
)

// BedrockConfig holds AWS Bedrock plan source configuration.
type BedrockConfig struct {
	Region    string
	ModelID   string
	MaxTokens int
}

// BedrockSource implements Source using AWS Bedrock Claude models.
type BedrockSource struct {
	client    *bedrockruntime.Client
	modelID   string
	maxTokens int
	logger    logger.Logger

	mu   sync.Mutex
	conv *conversation
}

// NewBedrockSource creates a Bedrock-backed plan source using the default
// AWS credential chain.
func NewBedrockSource(cfg BedrockConfig, log logger.Logger) (*BedrockSource, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithRegion(cfg.Region),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 2000
	}

	return &BedrockSource{
		client:    bedrockruntime.NewFromConfig(awsCfg),
		modelID:   cfg.ModelID,
		maxTokens: maxTokens,
		logger:    log,
		conv:      newConversation(0),
	}, nil
}

// claudeRequest is the Bedrock request payload for Claude models.
type claudeRequest struct {
	AnthropicVersion string          `json:"anthropic_version"`
	MaxTokens        int             `json:"max_tokens"`
	System           string          `json:"system,omitempty"`
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
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
}

// GeneratePlan asks the model for a step plan and parses the response.
func (s *BedrockSource) GeneratePlan(ctx context.Context, task string) (*plan.Plan, error) {
	prompt, err := buildPlanPrompt(task)
	if err != nil {
		return nil, err
	}

	// Planning uses a one-shot exchange, not the rolling conversation:
	// plan output must stay machine-parseable.
	raw, err := s.invoke(ctx, planningPrompt, []claudeMessage{userMessage(prompt)})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPlanGeneration, err)
	}

	steps, err := plan.ParseSteps(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPlanGeneration, err)
	}

	p, err := plan.New(task, steps)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.conv.reset()
	s.conv.add("user", "Task: "+SanitizeTask(task))
	s.mu.Unlock()

	s.logger.Info(ctx, "plan generated", map[string]interface{}{
		"plan_id": p.ID().String(),
		"steps":   p.Len(),
		"model":   s.modelID,
	})
	return p, nil
}

// SendMessage forwards a conversational message with recent context.
func (s *BedrockSource) SendMessage(ctx context.Context, msg string) (string, error) {
	s.mu.Lock()
	s.conv.add("user", msg)
	messages := make([]claudeMessage, 0, 8)
	for _, m := range s.conv.recent(6) {
		messages = append(messages, claudeMessage{
			Role:    m.role,
			Content: []claudeContent{{Type: "text", Text: m.content}},
		})
	}
	s.mu.Unlock()

	reply, err := s.invoke(ctx, guidancePrompt, messages)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrPlanGeneration, err)
	}

	s.mu.Lock()
	s.conv.add("assistant", reply)
	s.mu.Unlock()
	return reply, nil
}

func (s *BedrockSource) invoke(ctx context.Context, system string, messages []claudeMessage) (string, error) {
	payload, err := json.Marshal(claudeRequest{
		AnthropicVersion: "bedrock-2023-05-31",
		MaxTokens:        s.maxTokens,
		System:           system,
		Messages:         messages,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	output, err := s.client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(s.modelID),
		ContentType: aws.String("application/json"),
		Accept:      aws.String("application/json"),
		Body:        payload,
	})
	if err != nil {
		return "", fmt.Errorf("failed to invoke model: %w", err)
	}

	var resp claudeResponse
	if err := json.Unmarshal(output.Body, &resp); err != nil {
		return "", fmt.Errorf("failed to unmarshal response: %w", err)
	}
	if len(resp.Content) == 0 {
		return "", fmt.Errorf("no content in response")
	}

	return strings.TrimSpace(resp.Content[0].Text), nil
}

func userMessage(text string) claudeMessage {
	return claudeMessage{Role: "user", Content: []claudeContent{{Type: "text", Text: text}}}
}
