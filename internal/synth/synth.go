// Package synth turns a merged research record into the final sales briefing
// by prompting a language model, walking a fixed fallback ladder of models
// until one produces usable output. Synthesis never returns an error: every
// failure becomes an Insight whose text describes the problem.
package synth

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/jonathan/deepdive/internal/config"
	"github.com/jonathan/deepdive/internal/fetch"
	"github.com/jonathan/deepdive/internal/prompts"
	"github.com/jonathan/deepdive/internal/schemas"
	"github.com/jonathan/deepdive/internal/types"
)

// The terminal error texts. These are report content, not Go errors.
const (
	errNoAPIKey = "Error: OpenAI API key not configured"
	errEmpty    = "Error: model returned empty response after multiple attempts"
)

// trigger states when a ladder rung is attempted.
type trigger int

const (
	// first is the opening attempt.
	first trigger = iota
	// onError runs when the previous attempt returned an error.
	onError
	// onEmpty runs when the attempts so far succeeded but produced only
	// empty/whitespace content.
	onEmpty
)

// rung is one model strategy in the fallback ladder.
type rung struct {
	model        string
	temperature  float32
	inlineSystem bool // model rejects a system message; fold it into the user turn
	when         trigger
}

// Synthesizer generates briefings from research records.
type Synthesizer struct {
	client    *openai.Client
	rungs     []rung
	maxTokens int
	log       *zap.Logger
}

// New builds a Synthesizer. Without an OpenAI credential the Synthesizer is
// inert and every Generate call returns the configuration-error insight.
func New(cfg *config.Config, log *zap.Logger) *Synthesizer {
	s := &Synthesizer{
		// The primary model does not accept a temperature parameter and is
		// called with the system framing inlined into the user message.
		rungs: []rung{
			{model: cfg.SynthPrimaryModel, inlineSystem: true, when: first},
			{model: cfg.SynthSecondModel, temperature: 0.7, when: onError},
			{model: cfg.SynthThirdModel, temperature: 0.7, when: onEmpty},
		},
		maxTokens: cfg.SynthMaxTokens,
		log:       log,
	}

	if cfg.OpenAIAPIKey == "" {
		log.Debug("no OpenAI API key configured; synthesis disabled")
		return s
	}

	clientCfg := openai.DefaultConfig(cfg.OpenAIAPIKey)
	if cfg.OpenAIBaseURL != "" {
		clientCfg.BaseURL = cfg.OpenAIBaseURL
	}
	clientCfg.HTTPClient = fetch.NewClient(cfg.SynthTimeout)
	s.client = openai.NewClientWithConfig(clientCfg)
	return s
}

// Generate produces the briefing for a merged record. It always returns a
// value; transport failures, exhausted fallbacks, and unusable model output
// all collapse into descriptive Insight text.
func (s *Synthesizer) Generate(ctx context.Context, record *types.ResearchRecord) types.Insight {
	if s.client == nil {
		return types.Insight{Pretty: errNoAPIKey}
	}

	rawJSON, err := compactJSON(record)
	if err != nil {
		return types.Insight{Pretty: fmt.Sprintf("Error generating insights: %v", err)}
	}

	system := prompts.MustGet("synthesis.json", "system")
	user := prompts.Format(prompts.MustGet("synthesis.json", "tasks"), map[string]string{
		"RawJSON": rawJSON,
	})

	content, err := s.runLadder(ctx, system, user)
	if err != nil {
		s.log.Warn("synthesis failed on every ladder rung", zap.Error(err))
		return types.Insight{Pretty: fmt.Sprintf("Error generating insights: %v", err)}
	}
	if strings.TrimSpace(content) == "" {
		return types.Insight{Pretty: errEmpty}
	}

	return parseInsight(content, s.log)
}

// runLadder walks the rungs in order, honoring each rung's trigger. The
// result is the last attempted rung's content and error.
func (s *Synthesizer) runLadder(ctx context.Context, system, user string) (string, error) {
	var content string
	var err error

	for _, r := range s.rungs {
		switch r.when {
		case first:
		case onError:
			if err == nil {
				continue
			}
			s.log.Warn("model call failed, trying fallback",
				zap.String("fallback", r.model), zap.Error(err))
		case onEmpty:
			if err != nil || strings.TrimSpace(content) != "" {
				continue
			}
			s.log.Warn("model returned empty content, trying fallback",
				zap.String("fallback", r.model))
		}
		content, err = s.complete(ctx, r, system, user)
	}

	return content, err
}

// complete performs one chat-completion call for a rung. Empty content is not
// an error here; the ladder decides what emptiness means.
func (s *Synthesizer) complete(ctx context.Context, r rung, system, user string) (string, error) {
	req := openai.ChatCompletionRequest{
		Model:               r.model,
		MaxCompletionTokens: s.maxTokens,
	}
	if r.inlineSystem {
		req.Messages = []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: fmt.Sprintf("System: %s\n\nUser: %s", system, user)},
		}
	} else {
		req.Temperature = r.temperature
		req.Messages = []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		}
	}

	resp, err := s.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}
	return resp.Choices[0].Message.Content, nil
}

// parseInsight post-processes model output: strip code fences, parse the
// JSON object, and validate its shape. Output that fails to parse or
// validate is kept as plain text rather than discarded; a citations field
// that is absent or not list-shaped is coerced to empty.
func parseInsight(content string, log *zap.Logger) types.Insight {
	cleaned := stripFences(content)

	if err := schemas.ValidateInsight(cleaned); err != nil {
		log.Debug("model output did not match the insight schema; keeping raw text", zap.Error(err))
		return types.Insight{Pretty: cleaned}
	}

	var root map[string]json.RawMessage
	if err := json.Unmarshal([]byte(cleaned), &root); err != nil {
		return types.Insight{Pretty: cleaned}
	}

	var pretty string
	if err := json.Unmarshal(root["pretty"], &pretty); err != nil {
		return types.Insight{Pretty: cleaned}
	}

	var citations []types.Citation
	if raw, ok := root["citations"]; ok {
		// Unmarshal failure means the field was not list-shaped; keep empty.
		_ = json.Unmarshal(raw, &citations)
	}

	return types.Insight{Pretty: pretty, Citations: citations}
}

// stripFences removes a leading markdown code-fence marker (with or without a
// language tag) and a trailing fence, regardless of whether the remaining
// content is valid JSON.
func stripFences(content string) string {
	cleaned := strings.TrimSpace(content)

	if strings.HasPrefix(cleaned, "```json") {
		cleaned = strings.TrimPrefix(cleaned, "```json")
	} else if strings.HasPrefix(cleaned, "```") {
		cleaned = strings.TrimPrefix(cleaned, "```")
		// A short first line with no spaces or braces is a language tag.
		if idx := strings.Index(cleaned, "\n"); idx >= 0 && idx < 20 && !strings.ContainsAny(cleaned[:idx], " {") {
			cleaned = cleaned[idx+1:]
		}
	}

	cleaned = strings.TrimSuffix(strings.TrimSpace(cleaned), "```")
	return strings.TrimSpace(cleaned)
}

// compactJSON serializes the record without insignificant whitespace, keeping
// the prompt small.
func compactJSON(record *types.ResearchRecord) (string, error) {
	data, err := json.Marshal(record)
	if err != nil {
		return "", fmt.Errorf("failed to serialize research record: %w", err)
	}
	return string(data), nil
}
