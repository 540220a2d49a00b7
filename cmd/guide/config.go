package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server     ServerConfig
	Log        LogConfig
	Detection  DetectionConfig
	Match      MatchConfig
	Recovery   RecoveryConfig
	Guidance   GuidanceConfig
	Plan       PlanConfig
	Snapshot   SnapshotConfig
	Transcript TranscriptConfig
	Overlay    OverlayConfig
}

// ServerConfig holds control API server configuration.
type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level string
}

// DetectionConfig holds detector and orchestrator configuration.
type DetectionConfig struct {
	RemoteURL     string
	Timeout       time.Duration
	Interval      time.Duration
	MinConfidence float64
	MaxDetections int
}

// MatchConfig holds step matching weights and threshold.
type MatchConfig struct {
	LabelWeight      float64
	TextWeight       float64
	ConfidenceWeight float64
	Threshold        float64
}

// RecoveryConfig holds the failure and recovery policy.
type RecoveryConfig struct {
	NoMatchStreak int
	Timeout       time.Duration
	RetryCeiling  int
}

// GuidanceConfig holds session-level behavior.
type GuidanceConfig struct {
	AutoStart   bool
	PlanTimeout time.Duration
}

// PlanConfig holds plan source configuration.
type PlanConfig struct {
	Source        string // "bedrock" or "openai"
	BedrockRegion string
	BedrockModel  string
	MaxTokens     int
	OpenAIAPIKey  string
	OpenAIModel   string
	OpenAIBaseURL string
}

// SnapshotConfig holds step screenshot archive configuration.
type SnapshotConfig struct {
	Backend string // "local" or "s3"
	Dir     string
	Bucket  string
	Region  string
}

// TranscriptConfig holds run transcript configuration.
type TranscriptConfig struct {
	Path string
}

// OverlayConfig holds overlay command output configuration.
type OverlayConfig struct {
	Output string // "" or "-" for stdout, otherwise a pipe/file path
}

// LoadConfig loads configuration from file and environment variables.
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	// Enable environment variable overrides
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Set defaults
	v.SetDefault("server.host", "127.0.0.1")
	v.SetDefault("server.port", 8765)
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "15s")

	v.SetDefault("log.level", "info")

	v.SetDefault("detection.remote_url", "http://localhost:8000")
	v.SetDefault("detection.timeout", "5s")
	v.SetDefault("detection.interval", "2s")
	v.SetDefault("detection.min_confidence", 0.5)
	v.SetDefault("detection.max_detections", 10)

	v.SetDefault("match.label_weight", 0.3)
	v.SetDefault("match.text_weight", 0.5)
	v.SetDefault("match.confidence_weight", 0.2)
	v.SetDefault("match.threshold", 0.35)

	v.SetDefault("recovery.no_match_streak", 5)
	v.SetDefault("recovery.timeout", "10s")
	v.SetDefault("recovery.retry_ceiling", 3)

	v.SetDefault("guidance.auto_start", false)
	v.SetDefault("guidance.plan_timeout", "60s")

	v.SetDefault("plan.source", "bedrock")
	v.SetDefault("plan.bedrock_region", "us-east-1")
	v.SetDefault("plan.bedrock_model", "anthropic.claude-3-5-sonnet-20240620-v1:0")
	v.SetDefault("plan.max_tokens", 2000)
	v.SetDefault("plan.openai_api_key", "")
	v.SetDefault("plan.openai_model", "gpt-4o-mini")
	v.SetDefault("plan.openai_base_url", "")

	v.SetDefault("snapshot.backend", "local")
	v.SetDefault("snapshot.dir", "./snapshots")
	v.SetDefault("snapshot.bucket", "")
	v.SetDefault("snapshot.region", "us-east-1")

	v.SetDefault("transcript.path", "./guide.db")

	v.SetDefault("overlay.output", "-")

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found; using defaults
	}

	var config Config

	config.Server.Host = v.GetString("server.host")
	config.Server.Port = v.GetInt("server.port")
	config.Server.ReadTimeout = v.GetDuration("server.read_timeout")
	config.Server.WriteTimeout = v.GetDuration("server.write_timeout")

	config.Log.Level = v.GetString("log.level")

	config.Detection.RemoteURL = v.GetString("detection.remote_url")
	config.Detection.Timeout = v.GetDuration("detection.timeout")
	config.Detection.Interval = v.GetDuration("detection.interval")
	config.Detection.MinConfidence = v.GetFloat64("detection.min_confidence")
	config.Detection.MaxDetections = v.GetInt("detection.max_detections")

	config.Match.LabelWeight = v.GetFloat64("match.label_weight")
	config.Match.TextWeight = v.GetFloat64("match.text_weight")
	config.Match.ConfidenceWeight = v.GetFloat64("match.confidence_weight")
	config.Match.Threshold = v.GetFloat64("match.threshold")

	config.Recovery.NoMatchStreak = v.GetInt("recovery.no_match_streak")
	config.Recovery.Timeout = v.GetDuration("recovery.timeout")
	config.Recovery.RetryCeiling = v.GetInt("recovery.retry_ceiling")

	config.Guidance.AutoStart = v.GetBool("guidance.auto_start")
	config.Guidance.PlanTimeout = v.GetDuration("guidance.plan_timeout")

	config.Plan.Source = v.GetString("plan.source")
	config.Plan.BedrockRegion = v.GetString("plan.bedrock_region")
	config.Plan.BedrockModel = v.GetString("plan.bedrock_model")
	config.Plan.MaxTokens = v.GetInt("plan.max_tokens")
	config.Plan.OpenAIAPIKey = v.GetString("plan.openai_api_key")
	config.Plan.OpenAIModel = v.GetString("plan.openai_model")
	config.Plan.OpenAIBaseURL = v.GetString("plan.openai_base_url")

	config.Snapshot.Backend = v.GetString("snapshot.backend")
	config.Snapshot.Dir = v.GetString("snapshot.dir")
	config.Snapshot.Bucket = v.GetString("snapshot.bucket")
	config.Snapshot.Region = v.GetString("snapshot.region")

	config.Transcript.Path = v.GetString("transcript.path")

	config.Overlay.Output = v.GetString("overlay.output")

	return &config, nil
}
