package classifier

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"golang.org/x/time/rate"

	"github.com/inkstone/zhanghui/internal/book"
	"github.com/inkstone/zhanghui/internal/calllog"
)

const openAIDefaultModel = "gpt-4o-mini"

var (
	introSchema = json.RawMessage(`{
		"type": "object",
		"required": ["classification", "confidence", "reasoning"],
		"properties": {
			"classification": {"type": "string", "enum": ["intro", "chapter", "unknown"]},
			"confidence": {"type": "number", "minimum": 0, "maximum": 1},
			"reasoning": {"type": "string"}
		}
	}`)

	tocMatchSchema = json.RawMessage(`{
		"type": "object",
		"required": ["matches"],
		"properties": {
			"matches": {
				"type": "array",
				"items": {
					"type": "object",
					"required": ["toc_index", "chapter_id", "confidence"],
					"properties": {
						"toc_index": {"type": "integer"},
						"chapter_id": {"type": "string"},
						"confidence": {"type": "number"},
						"notes": {"type": "string"}
					}
				}
			}
		}
	}`)

	sectionSchema = json.RawMessage(`{
		"type": "object",
		"required": ["section_type"],
		"properties": {
			"section_type": {"type": "string", "enum": ["front_matter", "body", "back_matter"]}
		}
	}`)
)

// OpenAIConfig holds configuration for the OpenAI-backed classifier.
type OpenAIConfig struct {
	APIKey     string
	Model      string        // default "gpt-4o-mini"
	RateLimit  float64       // requests per second, default 2.0
	MaxRetries int           // retry attempts per call, default 3
	RetryDelay time.Duration // base backoff delay, default 2s
	Timeout    time.Duration // hard per-call timeout, default 60s
	BaseURL    string        // optional (tests)
	HTTPClient *http.Client  // optional (tests)
	Logger     *slog.Logger
	Recorder   *calllog.Recorder // optional call log
}

// OpenAI implements Classifier against the OpenAI chat completions API.
// Every call is rate limited, retried with exponential backoff, bounded by
// a hard timeout, and validated against a JSON schema; any failure resolves
// to the contract's degrade path.
type OpenAI struct {
	client     openai.Client
	model      string
	limiter    *rate.Limiter
	maxRetries int
	retryDelay time.Duration
	timeout    time.Duration
	logger     *slog.Logger
	recorder   *calllog.Recorder
}

// NewOpenAI creates a new OpenAI-backed classifier.
func NewOpenAI(cfg OpenAIConfig) *OpenAI {
	if cfg.Model == "" {
		cfg.Model = openAIDefaultModel
	}
	if cfg.RateLimit <= 0 {
		cfg.RateLimit = 2.0
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryDelay == 0 {
		cfg.RetryDelay = 2 * time.Second
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithHTTPClient(httpClient),
		option.WithMaxRetries(0), // retries handled here, not in the SDK
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &OpenAI{
		client:     openai.NewClient(opts...),
		model:      cfg.Model,
		limiter:    rate.NewLimiter(rate.Limit(cfg.RateLimit), 1),
		maxRetries: cfg.MaxRetries,
		retryDelay: cfg.RetryDelay,
		timeout:    cfg.Timeout,
		logger:     cfg.Logger.With("component", "classifier"),
		recorder:   cfg.Recorder,
	}
}

// ClassifyIntroVsChapter implements Classifier.
func (c *OpenAI) ClassifyIntroVsChapter(ctx context.Context, title, contentSample string) IntroResult {
	system := "You classify sections of digitized Chinese novels. " +
		"Given a section title and a content sample, decide whether the section is " +
		"front matter (a preface, introduction, or publisher note) or a real chapter " +
		"of the story. Respond with JSON only: " +
		`{"classification": "intro"|"chapter"|"unknown", "confidence": 0.0-1.0, "reasoning": "..."}`

	user := fmt.Sprintf("Title: %s\n\nContent sample:\n%s", title, contentSample)

	parsed, err := c.call(ctx, "intro_classification", system, user, introSchema)
	if err != nil {
		c.logger.Warn("intro classification degraded", "title", title, "error", err)
		return UnknownIntro(err)
	}

	var result IntroResult
	if err := json.Unmarshal(parsed, &result); err != nil {
		return UnknownIntro(err)
	}
	return result
}

// MatchTOCToChapters implements Classifier.
func (c *OpenAI) MatchTOCToChapters(ctx context.Context, entries []book.TOCEntry, candidates []ChapterCandidate) []TOCMatch {
	if len(entries) > MaxTOCBatch {
		entries = entries[:MaxTOCBatch]
	}

	system := "You match table-of-contents entries of a digitized Chinese novel to " +
		"chapter candidates. TOC entries and chapters may disagree on numbering and " +
		"exact wording; match on meaning. Respond with JSON only: " +
		`{"matches": [{"toc_index": i, "chapter_id": "...", "confidence": 0.0-1.0, "notes": "..."}]}`

	var b strings.Builder
	b.WriteString("TOC entries:\n")
	for i, e := range entries {
		fmt.Fprintf(&b, "%d: %s\n", i, e.FullTitle)
	}
	b.WriteString("\nChapter candidates:\n")
	for _, ch := range candidates {
		fmt.Fprintf(&b, "%s: %s\n", ch.ID, ch.Title)
	}

	parsed, err := c.call(ctx, "toc_matching", system, b.String(), tocMatchSchema)
	if err != nil {
		c.logger.Warn("TOC matching degraded to positional fallback", "entries", len(entries), "error", err)
		return PositionalFallback(entries, candidates, err)
	}

	var result struct {
		Matches []TOCMatch `json:"matches"`
	}
	if err := json.Unmarshal(parsed, &result); err != nil {
		return PositionalFallback(entries, candidates, err)
	}
	return result.Matches
}

// ClassifySectionType implements Classifier.
func (c *OpenAI) ClassifySectionType(ctx context.Context, title string, position, total int) SectionType {
	system := "You classify a section of a digitized Chinese novel as front matter, " +
		"body, or back matter, given its title and position. Respond with JSON only: " +
		`{"section_type": "front_matter"|"body"|"back_matter"}`

	user := fmt.Sprintf("Title: %s\nPosition: %d of %d", title, position+1, total)

	parsed, err := c.call(ctx, "section_typing", system, user, sectionSchema)
	if err != nil {
		c.logger.Warn("section typing degraded to position heuristic", "title", title, "error", err)
		return PositionHeuristic(position, total)
	}

	var result struct {
		SectionType SectionType `json:"section_type"`
	}
	if err := json.Unmarshal(parsed, &result); err != nil {
		return PositionHeuristic(position, total)
	}
	return result.SectionType
}

// call runs one chat completion with rate limiting, bounded retry with
// exponential backoff, a hard timeout, and schema validation of the output.
// Every call is recorded, including ones that exhaust their retries.
func (c *OpenAI) call(ctx context.Context, purpose, system, user string, schema json.RawMessage) (json.RawMessage, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	start := time.Now()
	record := calllog.Call{Purpose: purpose, Model: c.model}

	var parsed json.RawMessage
	err := retry.Do(
		func() error {
			callCtx, cancel := context.WithTimeout(ctx, c.timeout)
			defer cancel()

			completion, err := c.client.Chat.Completions.New(callCtx, openai.ChatCompletionNewParams{
				Model: openai.ChatModel(c.model),
				Messages: []openai.ChatCompletionMessageParamUnion{
					openai.SystemMessage(system),
					openai.UserMessage(user),
				},
			})
			if err != nil {
				return fmt.Errorf("chat completion: %w", err)
			}
			if len(completion.Choices) == 0 {
				return fmt.Errorf("empty completion response")
			}

			record.InputTokens = int(completion.Usage.PromptTokens)
			record.OutputTokens = int(completion.Usage.CompletionTokens)

			p, err := parseStructuredJSON(completion.Choices[0].Message.Content)
			if err != nil {
				return err
			}
			if err := validateStructuredJSON(schema, p); err != nil {
				return err
			}
			parsed = p
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(uint(c.maxRetries)),
		retry.Delay(c.retryDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
	)

	record.LatencyMs = int(time.Since(start).Milliseconds())
	if err != nil {
		record.Error = err.Error()
	}
	c.recorder.Record(record)

	if err != nil {
		return nil, err
	}
	return parsed, nil
}
