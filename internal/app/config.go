package app

import "time"

// Config holds runtime configuration for one report generation run.
type Config struct {
	// Template and outputs
	TemplatePath string
	OutputPath   string
	OutputPDF    string

	// Report context
	ClientName   string
	ClientID     int
	ReviewPeriod string
	StartDate    string // YYYY-MM-DD
	EndDate      string // YYYY-MM-DD
	MSPContact   string

	// HaloPSA
	HaloHost       string
	HaloClientID   string
	HaloSecret     string
	HaloScope      string
	TicketPageSize int
	// TicketsFile, when set, reads tickets from a local JSON file instead
	// of the API. Useful offline and in tests.
	TicketsFile string

	// LLM
	LLMBaseURL string
	LLMModel   string
	LLMAPIKey  string

	// Recommendations
	RecsEnabled bool
	RecCount    int
	SampleSize  int
	// ManualRecs fills the slots when the engine is disabled; each entry
	// becomes the rationale of a numbered recommendation.
	ManualRecs []string

	// Rendering behavior
	BlankUnresolved bool
	OmitEmptySlots  bool
	ChartToken      string
	DisableChart    bool

	// Metric classification overrides
	ProactiveTypes []int
	ReactiveTypes  []int

	// Behavior
	// ListClients runs the client directory listing instead of the
	// report pipeline; only the Halo settings are required then.
	ListClients bool
	DryRun      bool
	Verbose     bool
	Strict      bool
	EnablePDF   bool
	CacheDir    string
	CacheMaxAge time.Duration
}
