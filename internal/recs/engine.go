package recs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	openai "github.com/sashabaranov/go-openai"

	"github.com/mspforge/qbrgen/internal/cache"
	"github.com/mspforge/qbrgen/internal/llm"
)

// ErrNoRecommendations indicates the model returned nothing usable after
// fence stripping and validation.
var ErrNoRecommendations = errors.New("no usable recommendations")

// Input bundles everything the prompt needs.
type Input struct {
	ClientName   string
	ReviewPeriod string
	// MetricLines are preformatted "label: value" lines summarizing the
	// computed metrics.
	MetricLines []string
	// TicketSummaries are plain-text one-liners sampled from the period's
	// tickets.
	TicketSummaries []string
	// Count is the desired number of recommendations, clamped to
	// [1, MaxSlots].
	Count int
}

// Engine asks a chat model for strategic recommendations and holds the
// response to a strict JSON contract.
type Engine struct {
	Client llm.Client
	Model  string
	// Cache, when non-nil, stores raw model responses keyed by
	// model+prompt so identical re-runs skip the API.
	Cache *cache.ResponseCache
}

const systemPrompt = `You are a senior IT consultant and customer success strategist specializing in Managed Service Providers (MSPs).
Analyze the client's support data and produce strategic, actionable recommendations that demonstrate the MSP's value.

Rules:
1. Mix data-driven insights grounded in the ticket data with general IT best practices relevant to the client's situation.
2. Plain, executive-friendly language. No jargon.
3. Each recommendation has a SHORT TITLE (5 words or fewer) and a 1-2 sentence RATIONALE.
4. Respond with a valid JSON array ONLY. No preamble, no text outside JSON.

Output format:
[{"title": "Short Action Title", "rationale": "1-2 sentences on why this matters and what to do."}]`

// Generate produces Count recommendations for the input. One bounded
// retry covers transient API failures; anything else is surfaced.
func (e *Engine) Generate(ctx context.Context, in Input) ([]Recommendation, error) {
	if e.Client == nil || strings.TrimSpace(e.Model) == "" {
		return nil, errors.New("recommendation engine not configured")
	}
	count := in.Count
	if count < 1 {
		count = 3
	}
	if count > MaxSlots {
		count = MaxSlots
	}
	user := buildUserMessage(in, count)

	if e.Cache != nil {
		key := cache.KeyFrom(e.Model, systemPrompt+"\n\n"+user)
		if raw, ok, _ := e.Cache.Get(ctx, key); ok {
			if recs, err := parseRecommendations(string(raw)); err == nil && len(recs) > 0 {
				log.Debug().Int("count", len(recs)).Msg("recommendations served from cache")
				return recs, nil
			}
		}
	}

	req := openai.ChatCompletionRequest{
		Model: e.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		Temperature: 0.4,
		N:           1,
	}
	resp, err := e.Client.CreateChatCompletion(ctx, req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("recommendation call: %w", err)
		}
		select {
		case <-time.After(200 * time.Millisecond):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		resp, err = e.Client.CreateChatCompletion(ctx, req)
		if err != nil {
			return nil, fmt.Errorf("recommendation call (after retry): %w", err)
		}
	}
	if len(resp.Choices) == 0 {
		return nil, ErrNoRecommendations
	}
	raw := strings.TrimSpace(resp.Choices[0].Message.Content)
	recs, err := parseRecommendations(raw)
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, ErrNoRecommendations
	}
	if e.Cache != nil {
		key := cache.KeyFrom(e.Model, systemPrompt+"\n\n"+user)
		_ = e.Cache.Save(ctx, key, []byte(raw))
	}
	log.Info().Int("count", len(recs)).Msg("recommendations generated")
	return recs, nil
}

func buildUserMessage(in Input, count int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Generate exactly %d strategic recommendations for the following MSP client QBR.\n\n", count)
	fmt.Fprintf(&b, "CLIENT: %s\nREVIEW PERIOD: %s\n\n", in.ClientName, in.ReviewPeriod)
	b.WriteString("--- AGGREGATED METRICS ---\n")
	for _, line := range in.MetricLines {
		b.WriteString("- ")
		b.WriteString(line)
		b.WriteByte('\n')
	}
	fmt.Fprintf(&b, "\n--- SAMPLE TICKET SUMMARIES (%d tickets sampled) ---\n", len(in.TicketSummaries))
	n := 0
	for _, s := range in.TicketSummaries {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		n++
		fmt.Fprintf(&b, "%d. %s\n", n, s)
	}
	fmt.Fprintf(&b, "\nGenerate exactly %d recommendations as a JSON array.\n", count)
	b.WriteString("Mix data-driven insights from the ticket summaries with general IT best practices.\n")
	return b.String()
}

// parseRecommendations strips Markdown code fences the model may wrap its
// JSON in, then decodes and validates the array.
func parseRecommendations(raw string) ([]Recommendation, error) {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		parts := strings.Split(raw, "```")
		if len(parts) >= 2 {
			raw = parts[1]
		}
		raw = strings.TrimPrefix(strings.TrimSpace(raw), "json")
		raw = strings.TrimSpace(raw)
	}
	var decoded []Recommendation
	if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
		return nil, fmt.Errorf("parse recommendations: %w", err)
	}
	out := make([]Recommendation, 0, len(decoded))
	for _, r := range decoded {
		title := strings.TrimSpace(r.Title)
		rationale := strings.TrimSpace(r.Rationale)
		if title == "" || rationale == "" {
			continue
		}
		out = append(out, Recommendation{Title: title, Rationale: rationale})
	}
	return out, nil
}
