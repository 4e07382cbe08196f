package llm

import (
	"context"
	"fmt"
	"time"

	sdk "github.com/inference-gateway/sdk"
	"go.uber.org/zap"

	"github.com/chronos-hq/chronos-agent/config"
)

// InferenceGatewayService implements the LLM Service interface using the Inference Gateway
type InferenceGatewayService struct {
	client   sdk.Client
	config   *config.Config
	logger   *zap.Logger
	provider sdk.Provider
	model    string
	enabled  bool
}

// NewInferenceGatewayService creates a new Inference Gateway LLM service
func NewInferenceGatewayService(cfg *config.Config, logger *zap.Logger) (*InferenceGatewayService, error) {
	if !cfg.LLM.Enabled {
		logger.Info("LLM service is disabled")
		return &InferenceGatewayService{
			config:  cfg,
			logger:  logger,
			enabled: false,
		}, nil
	}

	clientOptions := &sdk.ClientOptions{
		BaseURL: cfg.LLM.GatewayURL,
		Timeout: cfg.LLM.Timeout,
	}

	maxTokens := cfg.LLM.MaxTokens
	client := sdk.NewClient(clientOptions).WithOptions(&sdk.CreateChatCompletionRequest{
		MaxTokens: &maxTokens,
	})

	provider := sdk.Provider(cfg.LLM.Provider)

	logger.Info("initialized LLM service",
		zap.String("provider", cfg.LLM.Provider),
		zap.String("model", cfg.LLM.Model),
		zap.String("classifierModel", cfg.LLM.ClassifierModel),
		zap.String("gatewayURL", cfg.LLM.GatewayURL))

	return &InferenceGatewayService{
		client:   client,
		config:   cfg,
		logger:   logger,
		provider: provider,
		model:    cfg.LLM.Model,
		enabled:  true,
	}, nil
}

// Generate sends one completion request and returns the raw response text
func (s *InferenceGatewayService) Generate(ctx context.Context, req GenerateRequest) (string, error) {
	if !s.enabled {
		return "", fmt.Errorf("LLM service is disabled")
	}

	startTime := time.Now()

	model := req.Model
	if model == "" {
		model = s.model
	}

	systemMessage, err := sdk.NewTextMessage(sdk.System, req.System)
	if err != nil {
		return "", fmt.Errorf("failed to build system message: %w", err)
	}
	userMessage, err := sdk.NewTextMessage(sdk.User, req.User)
	if err != nil {
		return "", fmt.Errorf("failed to build user message: %w", err)
	}
	messages := []sdk.Message{systemMessage, userMessage}

	s.logger.Debug("sending request to LLM",
		zap.String("provider", string(s.provider)),
		zap.String("model", model),
		zap.Float64("temperature", req.Temperature),
		zap.Int("userContentLength", len(req.User)))

	response, err := s.client.GenerateContent(ctx, s.provider, model, messages)
	if err != nil {
		s.logger.Error("failed to generate content", zap.Error(err))
		return "", fmt.Errorf("failed to generate content: %w", err)
	}

	if len(response.Choices) == 0 {
		return "", fmt.Errorf("no response choices returned from LLM")
	}

	content, err := response.Choices[0].Message.Content.AsMessageContent0()
	if err != nil {
		return "", fmt.Errorf("failed to decode response content: %w", err)
	}

	processingTime := time.Since(startTime)

	s.logger.Info("successfully generated content",
		zap.String("model", model),
		zap.Duration("processingTime", processingTime),
		zap.Int("responseLength", len(content)))

	return content, nil
}

// IsEnabled returns whether the LLM service is enabled
func (s *InferenceGatewayService) IsEnabled() bool {
	return s.enabled
}

// GetProvider returns the configured provider
func (s *InferenceGatewayService) GetProvider() string {
	if !s.enabled {
		return ""
	}
	return string(s.provider)
}

// GetModel returns the configured default model
func (s *InferenceGatewayService) GetModel() string {
	if !s.enabled {
		return ""
	}
	return s.model
}
