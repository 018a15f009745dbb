package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/mspforge/qbrgen/internal/app"
)

func main() {
	// Logging setup
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	// .env is optional; real environment always wins.
	_ = godotenv.Load()

	var (
		configPath   string
		templatePath string
		outputPath   string
		outputPDF    string

		clientName   string
		clientID     int
		reviewPeriod string
		startDate    string
		endDate      string
		mspContact   string

		haloHost     string
		haloClientID string
		haloSecret   string
		haloScope    string
		pageSize     int
		ticketsFile  string

		llmBase  string
		llmModel string
		llmKey   string

		recsEnable bool
		recCount   int
		sampleSize int
		manualRecs string

		blankUnresolved bool
		omitEmptySlots  bool
		chartToken      string
		disableChart    bool

		cacheDir    string
		cacheMaxAge time.Duration

		listClients bool
		dryRun      bool
		verbose     bool
		strict      bool
		enablePDF   bool
	)

	flag.StringVar(&configPath, "config", os.Getenv("QBRGEN_CONFIG"), "Path to YAML config file (optional)")
	flag.StringVar(&templatePath, "template", "", "Path to the template deck")
	flag.StringVar(&outputPath, "output", "", "Path to write the rendered deck")
	flag.StringVar(&outputPDF, "output.pdf", "", "Path for the optional PDF summary")
	flag.StringVar(&clientName, "client.name", "", "Client organization name")
	flag.IntVar(&clientID, "client.id", 0, "Halo client ID to filter tickets")
	flag.StringVar(&reviewPeriod, "period", "", "Review period label, e.g. 'Q1 2026'")
	flag.StringVar(&startDate, "start", "", "Ticket range start (YYYY-MM-DD)")
	flag.StringVar(&endDate, "end", "", "Ticket range end (YYYY-MM-DD)")
	flag.StringVar(&mspContact, "contact", os.Getenv("MSP_CONTACT_INFO"), "MSP contact line for the closing slide")
	flag.StringVar(&haloHost, "halo.host", os.Getenv("HALO_HOST"), "HaloPSA base URL")
	flag.StringVar(&haloClientID, "halo.id", os.Getenv("HALO_CLIENT_ID"), "HaloPSA OAuth2 client ID")
	flag.StringVar(&haloSecret, "halo.secret", os.Getenv("HALO_CLIENT_SECRET"), "HaloPSA OAuth2 client secret")
	flag.StringVar(&haloScope, "halo.scope", os.Getenv("HALO_SCOPE"), "HaloPSA OAuth2 scope (default all)")
	flag.IntVar(&pageSize, "halo.pageSize", 500, "Ticket page size")
	flag.StringVar(&ticketsFile, "tickets.file", os.Getenv("TICKETS_FILE"), "Path to JSON tickets file for offline runs")
	flag.StringVar(&llmBase, "llm.base", os.Getenv("LLM_BASE_URL"), "OpenAI-compatible base URL")
	flag.StringVar(&llmModel, "llm.model", os.Getenv("LLM_MODEL"), "Model name for recommendations")
	flag.StringVar(&llmKey, "llm.key", os.Getenv("LLM_API_KEY"), "API key for OpenAI-compatible server")
	flag.BoolVar(&recsEnable, "recs.ai", false, "Generate recommendations with the model")
	flag.IntVar(&recCount, "recs.count", 3, "How many recommendations to request (1-10)")
	flag.IntVar(&sampleSize, "recs.sample", 20, "How many ticket summaries to sample into the prompt")
	flag.StringVar(&manualRecs, "recs.manual", "", "Semicolon-separated manual recommendations (used when -recs.ai is off)")
	flag.BoolVar(&blankUnresolved, "render.blankUnresolved", false, "Blank unresolved tokens instead of leaving them visible")
	flag.BoolVar(&omitEmptySlots, "render.omitEmptySlots", false, "Leave unused recommendation slot tokens unresolved instead of blanking them")
	flag.StringVar(&chartToken, "render.chartToken", "", "Reserved chart placeholder token name")
	flag.BoolVar(&disableChart, "render.noChart", false, "Skip chart generation and insertion")
	flag.StringVar(&cacheDir, "cache.dir", ".qbrgen-cache", "Model response cache directory ('' disables)")
	flag.DurationVar(&cacheMaxAge, "cache.maxAge", 0, "Max age for cache entries before purge (e.g. 168h); 0 disables")
	flag.BoolVar(&listClients, "list-clients", false, "List the Halo client directory and exit")
	flag.BoolVar(&dryRun, "dry-run", false, "Resolve the replacement map without rendering or writing the deck")
	flag.BoolVar(&verbose, "v", false, "Verbose logging")
	flag.BoolVar(&strict, "strict", false, "Exit non-zero when the pass reports anomalies")
	flag.BoolVar(&enablePDF, "enable.pdf", false, "Also write a one-page PDF metrics summary")
	flag.Parse()

	if verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	cfg := app.Config{
		TemplatePath:    templatePath,
		OutputPath:      outputPath,
		OutputPDF:       outputPDF,
		ClientName:      clientName,
		ClientID:        clientID,
		ReviewPeriod:    reviewPeriod,
		StartDate:       startDate,
		EndDate:         endDate,
		MSPContact:      mspContact,
		HaloHost:        haloHost,
		HaloClientID:    haloClientID,
		HaloSecret:      haloSecret,
		HaloScope:       haloScope,
		TicketPageSize:  pageSize,
		TicketsFile:     ticketsFile,
		LLMBaseURL:      llmBase,
		LLMModel:        llmModel,
		LLMAPIKey:       llmKey,
		RecsEnabled:     recsEnable,
		RecCount:        recCount,
		SampleSize:      sampleSize,
		ManualRecs:      splitList(manualRecs),
		BlankUnresolved: blankUnresolved,
		OmitEmptySlots:  omitEmptySlots,
		ChartToken:      chartToken,
		DisableChart:    disableChart,
		CacheDir:        cacheDir,
		CacheMaxAge:     cacheMaxAge,
		ListClients:     listClients,
		DryRun:          dryRun,
		Verbose:         verbose,
		Strict:          strict,
		EnablePDF:       enablePDF,
	}

	if configPath != "" {
		fc, err := app.LoadFileConfig(configPath)
		if err != nil {
			log.Error().Err(err).Msg("config file")
			os.Exit(1)
		}
		fc.Apply(&cfg)
	}
	if cfg.ClientID == 0 {
		if v := os.Getenv("HALO_CLIENT_FILTER_ID"); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				cfg.ClientID = n
			}
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(cfg)
	if err != nil {
		log.Error().Err(err).Msg("configuration")
		os.Exit(1)
	}
	if cfg.ListClients {
		if err := a.ListClients(ctx, os.Stdout); err != nil {
			log.Error().Err(err).Msg("list clients")
			os.Exit(1)
		}
		return
	}
	if err := a.Run(ctx); err != nil {
		if errors.Is(err, app.ErrAnomalies) {
			log.Warn().Err(err).Msg("completed with anomalies")
			os.Exit(2)
		}
		log.Error().Err(err).Msg("run failed")
		os.Exit(1)
	}
}

func splitList(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ";")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
