package plansource

import (
	"fmt"

	"github.com/hairizuan-noorazman/screen-guide/logger"
)

// Config selects and configures a plan source backend.
type Config struct {
	Backend string
	Bedrock BedrockConfig
	OpenAI  OpenAIConfig
}

// NewSource creates a plan source for the configured backend.
func NewSource(cfg Config, log logger.Logger) (Source, error) {
	switch cfg.Backend {
	case "bedrock":
		return NewBedrockSource(cfg.Bedrock, log)
	case "openai":
		return NewOpenAISource(cfg.OpenAI, log)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownBackend, cfg.Backend)
	}
}
