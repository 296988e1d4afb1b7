package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"fd-advisor/domain"
)

var ErrGeneratorDisabled = errors.New("advisory generator disabled: no API key configured")

const (
	DefaultOpenAIURL   = "https://api.openai.com/v1/chat/completions"
	DefaultOpenAIModel = "gpt-4o-mini"

	referenceRateTool = "get_reference_rate"
)

const advisorySystemPrompt = `You are a financial assistant reviewing fixed-deposit calculations. ` +
	`You reply only with a JSON object of the form {"advisoryMessage": "<text>"}. ` +
	`Use an empty string when nothing looks unusual.`

const advisoryPromptTemplate = `Review this fixed deposit.

DEPOSIT:
- Principal: %.2f
- Annual interest rate: %.2f%%
- Tenure: %.2f years
- Calculated maturity amount: %.2f
- Prevailing reference rate for this tenure: %.2f%%

INSTRUCTIONS:
1. If the interest rate differs from the reference rate by more than 2 percentage points, warn the user.
2. If the maturity amount seems incorrect compared with a simple calculation of principal * (1 + rate/100 * tenure), point that out.
3. You may call %s to check the reference rate for another tenure.
4. Keep the advisory to one concise sentence.

Return {"advisoryMessage": ""} when no caution is needed.`

type AIConfig struct {
	APIKey  string
	APIURL  string
	Model   string
	Timeout time.Duration
}

// AIService generates advisories through an OpenAI-compatible chat completions endpoint.
type AIService struct {
	apiKey     string
	apiURL     string
	model      string
	enabled    bool
	lookup     ReferenceRateFunc
	httpClient *http.Client
	log        zerolog.Logger
}

type OpenAIRequest struct {
	Model          string          `json:"model"`
	Messages       []Message       `json:"messages"`
	MaxTokens      int             `json:"max_tokens,omitempty"`
	ResponseFormat *ResponseFormat `json:"response_format,omitempty"`
	Tools          []Tool          `json:"tools,omitempty"`
}

type Message struct {
	Role       string     `json:"role"`
	Content    string     `json:"content"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
}

type ResponseFormat struct {
	Type string `json:"type"`
}

type Tool struct {
	Type     string       `json:"type"`
	Function ToolFunction `json:"function"`
}

type ToolFunction struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Parameters  json.RawMessage `json:"parameters,omitempty"`
}

type ToolCall struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	Function struct {
		Name      string `json:"name"`
		Arguments string `json:"arguments"`
	} `json:"function"`
}

type OpenAIResponse struct {
	Choices []struct {
		Message Message `json:"message"`
	} `json:"choices"`
}

type advisoryPayload struct {
	AdvisoryMessage *string `json:"advisoryMessage"`
}

var referenceRateToolDef = Tool{
	Type: "function",
	Function: ToolFunction{
		Name:        referenceRateTool,
		Description: "Returns the prevailing fixed-deposit reference rate, in percent, for a tenure in years.",
		Parameters: json.RawMessage(`{"type":"object","properties":{"tenure_years":{"type":"number"}},` +
			`"required":["tenure_years"]}`),
	},
}

// NewAIService creates a generator. Without an API key it is disabled and
// every call returns ErrGeneratorDisabled.
func NewAIService(cfg AIConfig, lookup ReferenceRateFunc, log zerolog.Logger) *AIService {
	if cfg.APIURL == "" {
		cfg.APIURL = DefaultOpenAIURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultOpenAIModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if lookup == nil {
		lookup = ReferenceRate
	}

	return &AIService{
		apiKey:  cfg.APIKey,
		apiURL:  cfg.APIURL,
		model:   cfg.Model,
		enabled: cfg.APIKey != "",
		lookup:  lookup,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		log: log.With().Str("client", "openai").Logger(),
	}
}

func (s *AIService) Enabled() bool {
	return s.enabled
}

// GenerateAdvisory asks the model for a one-sentence caution. It answers
// reference-rate tool calls locally for up to maxToolRounds rounds.
func (s *AIService) GenerateAdvisory(ctx context.Context, req domain.AdvisoryRequest) (string, error) {
	if !s.enabled {
		return "", ErrGeneratorDisabled
	}

	messages := []Message{
		{Role: "system", Content: advisorySystemPrompt},
		{Role: "user", Content: buildAdvisoryPrompt(req)},
	}

	for round := 0; round <= maxToolRounds; round++ {
		reply, err := s.callLLM(ctx, messages)
		if err != nil {
			return "", err
		}

		if len(reply.ToolCalls) == 0 {
			return parseAdvisoryContent(reply.Content)
		}

		messages = append(messages, Message{
			Role:      "assistant",
			Content:   reply.Content,
			ToolCalls: reply.ToolCalls,
		})
		for _, call := range reply.ToolCalls {
			result, err := s.runTool(call)
			if err != nil {
				return "", err
			}
			messages = append(messages, Message{
				Role:       "tool",
				Content:    result,
				ToolCallID: call.ID,
			})
		}
	}

	return "", fmt.Errorf("model kept calling tools after %d rounds", maxToolRounds)
}

func (s *AIService) runTool(call ToolCall) (string, error) {
	if call.Function.Name != referenceRateTool {
		return "", fmt.Errorf("unknown tool %q", call.Function.Name)
	}

	var args struct {
		TenureYears float64 `json:"tenure_years"`
	}
	if err := json.Unmarshal([]byte(call.Function.Arguments), &args); err != nil {
		return "", fmt.Errorf("invalid %s arguments: %w", referenceRateTool, err)
	}

	rate := s.lookup(args.TenureYears)
	s.log.Debug().
		Float64("tenure_years", args.TenureYears).
		Float64("reference_rate", rate).
		Msg("Answered reference rate tool call")

	out, err := json.Marshal(map[string]float64{
		"tenure_years":   args.TenureYears,
		"reference_rate": rate,
	})
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func (s *AIService) callLLM(ctx context.Context, messages []Message) (Message, error) {
	reqBody := OpenAIRequest{
		Model:          s.model,
		Messages:       messages,
		MaxTokens:      advisoryMaxTokens,
		ResponseFormat: &ResponseFormat{Type: "json_object"},
		Tools:          []Tool{referenceRateToolDef},
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return Message{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.apiURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return Message{}, err
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", s.apiKey))

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return Message{}, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return Message{}, fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(body))
	}

	var openAIResp OpenAIResponse
	if err := json.NewDecoder(resp.Body).Decode(&openAIResp); err != nil {
		return Message{}, fmt.Errorf("failed to decode response: %w", err)
	}

	if len(openAIResp.Choices) == 0 {
		return Message{}, fmt.Errorf("no response from AI")
	}

	return openAIResp.Choices[0].Message, nil
}

func buildAdvisoryPrompt(req domain.AdvisoryRequest) string {
	return fmt.Sprintf(advisoryPromptTemplate,
		req.Principal, req.AnnualRatePercent, req.TenureYears,
		req.MaturityAmount, req.ReferenceRate, referenceRateTool)
}

func parseAdvisoryContent(content string) (string, error) {
	var payload advisoryPayload
	if err := json.Unmarshal([]byte(strings.TrimSpace(content)), &payload); err != nil {
		return "", fmt.Errorf("malformed advisory payload: %w", err)
	}
	if payload.AdvisoryMessage == nil {
		return "", errors.New("malformed advisory payload: missing advisoryMessage")
	}
	return strings.TrimSpace(*payload.AdvisoryMessage), nil
}
