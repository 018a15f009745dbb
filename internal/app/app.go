// Package app wires the report pipeline: load the template deck, fetch
// the period's tickets, compute the business-impact metrics, generate
// recommendations, then run one substitution pass and write the outputs.
package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/mspforge/qbrgen/internal/cache"
	"github.com/mspforge/qbrgen/internal/chart"
	"github.com/mspforge/qbrgen/internal/deck"
	"github.com/mspforge/qbrgen/internal/halo"
	"github.com/mspforge/qbrgen/internal/llm"
	"github.com/mspforge/qbrgen/internal/metrics"
	"github.com/mspforge/qbrgen/internal/recs"
	"github.com/mspforge/qbrgen/internal/render"
)

// ErrAnomalies is returned under -strict when the rendering pass
// completed but recorded anomalies the caller asked to treat as failure.
var ErrAnomalies = errors.New("rendering completed with anomalies")

// App is one configured pipeline instance.
type App struct {
	cfg      Config
	halo     *halo.Client
	ai       llm.Client
	llmCache *cache.ResponseCache
}

// New validates the configuration and builds the collaborators.
func New(cfg Config) (*App, error) {
	if cfg.ListClients {
		if cfg.HaloHost == "" {
			return nil, errors.New("halo host required to list clients")
		}
	} else {
		if cfg.TemplatePath == "" {
			return nil, errors.New("template path required")
		}
		if cfg.OutputPath == "" && !cfg.DryRun {
			return nil, errors.New("output path required")
		}
	}
	a := &App{cfg: cfg}
	if cfg.HaloHost != "" {
		a.halo = halo.New(cfg.HaloHost, cfg.HaloClientID, cfg.HaloSecret)
		if cfg.HaloScope != "" {
			a.halo.Scope = cfg.HaloScope
		}
	}
	if cfg.RecsEnabled && cfg.LLMModel != "" {
		a.ai = llm.New(cfg.LLMAPIKey, cfg.LLMBaseURL)
	}
	if cfg.CacheDir != "" {
		a.llmCache = &cache.ResponseCache{Dir: cfg.CacheDir}
		if cfg.CacheMaxAge > 0 {
			if n, err := a.llmCache.PurgeOlderThan(cfg.CacheMaxAge); err == nil && n > 0 {
				log.Debug().Int("removed", n).Msg("purged stale cache entries")
			}
		}
	}
	return a, nil
}

// ListClients prints the customer organizations visible to the
// configured credentials, one "id  name" line per client, for picking a
// ticket filter ID.
func (a *App) ListClients(ctx context.Context, w io.Writer) error {
	if a.halo == nil {
		return errors.New("halo host not configured")
	}
	clients, err := a.halo.Clients(ctx)
	if err != nil {
		return fmt.Errorf("list clients: %w", err)
	}
	for _, c := range clients {
		fmt.Fprintf(w, "%6d  %s\n", c.ID, c.Name)
	}
	log.Info().Int("clients", len(clients)).Msg("client directory listed")
	return nil
}

// Run executes the pipeline once.
func (a *App) Run(ctx context.Context) error {
	doc, err := deck.Load(a.cfg.TemplatePath)
	if err != nil {
		// A partially loaded template must never be rendered.
		return fmt.Errorf("load template: %w", err)
	}
	log.Info().Str("template", a.cfg.TemplatePath).Int("slides", len(doc.Slides)).Msg("template loaded")

	tickets, err := a.fetchTickets(ctx)
	if err != nil {
		return err
	}
	log.Info().Int("tickets", len(tickets)).Msg("tickets retrieved")

	m := metrics.Compute(tickets, metrics.Config{
		ProactiveTypes: a.cfg.ProactiveTypes,
		ReactiveTypes:  a.cfg.ReactiveTypes,
	})

	recommendations, err := a.recommendations(ctx, m, tickets)
	if err != nil {
		return err
	}

	slotPolicy := recs.BlankEmptySlots
	if a.cfg.OmitEmptySlots {
		slotPolicy = recs.OmitEmptySlots
	}
	slots, truncated := recs.SlotMap(recommendations, slotPolicy)
	if truncated > 0 {
		log.Warn().Int("dropped", truncated).Msg("recommendations truncated to slot capacity")
	}

	replacements := a.buildReplacements(m, slots)

	if a.cfg.DryRun {
		return a.dryRun(replacements)
	}

	var chartImage []byte
	if !a.cfg.DisableChart {
		chartImage, err = chart.SupportDistribution(m.ProactivePct, m.ReactivePct, chart.Options{})
		if err != nil {
			return fmt.Errorf("render chart: %w", err)
		}
	}

	renderer := &render.Renderer{
		Replacements:   replacements,
		ChartToken:     a.cfg.ChartToken,
		ChartImage:     chartImage,
		ChartImageName: "support-distribution.png",
	}
	if a.cfg.BlankUnresolved {
		renderer.Unresolved = render.BlankPlaceholder
	}
	rep, renderErr := renderer.Render(doc)
	if renderErr != nil {
		// Chart placeholder problems leave the deck fully substituted;
		// report and continue so the caller still gets the output.
		log.Warn().Err(renderErr).Msg("chart substitution skipped")
	}
	if truncated > 0 {
		rep.Add(render.Event{
			Kind:   render.EventTruncatedRecommendations,
			Detail: fmt.Sprintf("%d records dropped", truncated),
		})
	}
	log.Info().Int("replaced", rep.Replaced).Int("events", len(rep.Events)).Msg("substitution pass complete")

	if err := deck.Save(doc, a.cfg.OutputPath); err != nil {
		return err
	}
	log.Info().Str("out", a.cfg.OutputPath).Msg("report deck written")

	if a.cfg.EnablePDF {
		pdfPath := a.cfg.OutputPDF
		if pdfPath == "" {
			pdfPath = strings.TrimSuffix(a.cfg.OutputPath, ".yaml") + ".pdf"
		}
		if err := writeSummaryPDF(pdfPath, a.cfg, m, recommendations); err != nil {
			return fmt.Errorf("write pdf summary: %w", err)
		}
		log.Info().Str("out", pdfPath).Msg("pdf summary written")
	}

	if err := a.writeManifest(m, rep, len(tickets)); err != nil {
		log.Warn().Err(err).Msg("manifest not written")
	}

	if a.cfg.Strict && !rep.Clean() {
		return fmt.Errorf("%w: %d events", ErrAnomalies, len(rep.Events))
	}
	return nil
}

func (a *App) fetchTickets(ctx context.Context) ([]halo.Ticket, error) {
	if a.cfg.TicketsFile != "" {
		data, err := os.ReadFile(a.cfg.TicketsFile)
		if err != nil {
			return nil, fmt.Errorf("read tickets file: %w", err)
		}
		var tickets []halo.Ticket
		if err := json.Unmarshal(data, &tickets); err != nil {
			return nil, fmt.Errorf("parse tickets file: %w", err)
		}
		return tickets, nil
	}
	if a.halo == nil {
		log.Warn().Msg("no ticket source configured; metrics will be defaulted")
		return nil, nil
	}
	pageSize := a.cfg.TicketPageSize
	if pageSize <= 0 {
		pageSize = 500
	}
	tickets, err := a.halo.Tickets(ctx, halo.TicketQuery{
		ClientID:  a.cfg.ClientID,
		StartDate: a.cfg.StartDate,
		EndDate:   a.cfg.EndDate,
		PageSize:  pageSize,
	})
	if err != nil {
		return nil, fmt.Errorf("fetch tickets: %w", err)
	}
	return tickets, nil
}

func (a *App) recommendations(ctx context.Context, m metrics.Metrics, tickets []halo.Ticket) ([]recs.Recommendation, error) {
	if a.ai != nil {
		sample := a.cfg.SampleSize
		if sample <= 0 {
			sample = 20
		}
		engine := &recs.Engine{Client: a.ai, Model: a.cfg.LLMModel, Cache: a.llmCache}
		out, err := engine.Generate(ctx, recs.Input{
			ClientName:      a.cfg.ClientName,
			ReviewPeriod:    a.cfg.ReviewPeriod,
			MetricLines:     m.Lines(),
			TicketSummaries: halo.SampleSummaries(tickets, sample),
			Count:           a.cfg.RecCount,
		})
		if err != nil {
			return nil, fmt.Errorf("generate recommendations: %w", err)
		}
		return out, nil
	}
	out := make([]recs.Recommendation, 0, len(a.cfg.ManualRecs))
	for i, r := range a.cfg.ManualRecs {
		r = strings.TrimSpace(r)
		if r == "" {
			continue
		}
		out = append(out, recs.Recommendation{
			Title:     fmt.Sprintf("Recommendation %d", i+1),
			Rationale: r,
		})
	}
	return out, nil
}

func (a *App) buildReplacements(m metrics.Metrics, slots map[string]string) map[string]string {
	out := map[string]string{
		"CLIENT_NAME":      a.cfg.ClientName,
		"REVIEW_PERIOD":    a.cfg.ReviewPeriod,
		"MSP_CONTACT_INFO": a.cfg.MSPContact,
	}
	for k, v := range m.Replacements() {
		out[k] = v
	}
	for k, v := range slots {
		out[k] = v
	}
	// The chart token is handled as a shape substitution, never as text.
	delete(out, render.DefaultChartToken)
	if a.cfg.ChartToken != "" {
		delete(out, a.cfg.ChartToken)
	}
	return out
}

func (a *App) dryRun(replacements map[string]string) error {
	log.Info().Msg("dry run: resolved replacement map")
	for k, v := range replacements {
		log.Info().Str("token", k).Str("value", v).Msg("replacement")
	}
	return nil
}
