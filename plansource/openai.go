package plansource

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"github.com/tmc/langchaingo/schema"

	"github.com/hairizuan-noorazman/screen-guide/logger"
	"github.com/hairizuan-noorazman/screen-guide/plan"
)

// OpenAIConfig holds configuration for OpenAI-compatible plan sources
// (OpenAI, Groq, OpenRouter, anything speaking the chat completions API).
type OpenAIConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

// OpenAISource implements Source against an OpenAI-compatible API via
// langchaingo.
type OpenAISource struct {
	model  llms.Model
	name   string
	logger logger.Logger

	mu   sync.Mutex
	conv *conversation
}

// NewOpenAISource creates an OpenAI-compatible plan source.
func NewOpenAISource(cfg OpenAIConfig, log logger.Logger) (*OpenAISource, error) {
	opts := []openai.Option{
		openai.WithToken(cfg.APIKey),
		openai.WithModel(cfg.Model),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
	}

	model, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create OpenAI client: %w", err)
	}

	return &OpenAISource{
		model:  model,
		name:   cfg.Model,
		logger: log,
		conv:   newConversation(0),
	}, nil
}

// GeneratePlan asks the model for a step plan and parses the response.
func (s *OpenAISource) GeneratePlan(ctx context.Context, task string) (*plan.Plan, error) {
	prompt, err := buildPlanPrompt(task)
	if err != nil {
		return nil, err
	}

	messages := []llms.MessageContent{
		systemMessage(planningPrompt),
		humanMessage(prompt),
	}

	raw, err := s.generate(ctx, messages, 0.2)
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
	s.conv.add("human", "Task: "+SanitizeTask(task))
	s.mu.Unlock()

	s.logger.Info(ctx, "plan generated", map[string]interface{}{
		"plan_id": p.ID().String(),
		"steps":   p.Len(),
		"model":   s.name,
	})
	return p, nil
}

// SendMessage forwards a conversational message with recent context.
func (s *OpenAISource) SendMessage(ctx context.Context, msg string) (string, error) {
	s.mu.Lock()
	s.conv.add("human", msg)
	messages := []llms.MessageContent{systemMessage(guidancePrompt)}
	for _, m := range s.conv.recent(6) {
		if m.role == "human" {
			messages = append(messages, humanMessage(m.content))
		} else {
			messages = append(messages, llms.MessageContent{
				Role:  schema.ChatMessageTypeAI,
				Parts: []llms.ContentPart{llms.TextPart(m.content)},
			})
		}
	}
	s.mu.Unlock()

	reply, err := s.generate(ctx, messages, 0.5)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrPlanGeneration, err)
	}

	s.mu.Lock()
	s.conv.add("assistant", reply)
	s.mu.Unlock()
	return reply, nil
}

func (s *OpenAISource) generate(ctx context.Context, messages []llms.MessageContent, temperature float64) (string, error) {
	resp, err := s.model.GenerateContent(ctx, messages, llms.WithTemperature(temperature))
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices in response")
	}
	return strings.TrimSpace(resp.Choices[0].Content), nil
}

func systemMessage(text string) llms.MessageContent {
	return llms.MessageContent{
		Role:  schema.ChatMessageTypeSystem,
		Parts: []llms.ContentPart{llms.TextPart(text)},
	}
}

func humanMessage(text string) llms.MessageContent {
	return llms.MessageContent{
		Role:  schema.ChatMessageTypeHuman,
		Parts: []llms.ContentPart{llms.TextPart(text)},
	}
}
