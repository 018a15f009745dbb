package app

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/mspforge/qbrgen/internal/metrics"
	"github.com/mspforge/qbrgen/internal/render"
)

// runManifest is a compact reproducibility record written next to the
// output deck: which template produced which output, from how many
// tickets, with which model, and what anomalies the pass reported.
type runManifest struct {
	RunID        string    `json:"run_id"`
	GeneratedAt  time.Time `json:"generated_at"`
	Client       string    `json:"client"`
	Period       string    `json:"period"`
	Template     string    `json:"template"`
	TemplateSHA  string    `json:"template_sha256"`
	Output       string    `json:"output"`
	OutputSHA    string    `json:"output_sha256"`
	TicketCount  int       `json:"ticket_count"`
	Model        string    `json:"model,omitempty"`
	Replaced     int       `json:"replaced"`
	Events       []string  `json:"events,omitempty"`
	EmptyMetrics bool      `json:"empty_metrics,omitempty"`
}

func fileSHA256(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func (a *App) writeManifest(m metrics.Metrics, rep *render.Report, tickets int) error {
	man := runManifest{
		RunID:        uuid.NewString(),
		GeneratedAt:  time.Now().UTC(),
		Client:       a.cfg.ClientName,
		Period:       a.cfg.ReviewPeriod,
		Template:     a.cfg.TemplatePath,
		TemplateSHA:  fileSHA256(a.cfg.TemplatePath),
		Output:       a.cfg.OutputPath,
		OutputSHA:    fileSHA256(a.cfg.OutputPath),
		TicketCount:  tickets,
		Model:        a.cfg.LLMModel,
		Replaced:     rep.Replaced,
		EmptyMetrics: m.Empty,
	}
	for _, e := range rep.Events {
		s := string(e.Kind)
		if e.Name != "" {
			s += ":" + e.Name
		}
		man.Events = append(man.Events, s)
	}
	data, err := json.MarshalIndent(man, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(a.cfg.OutputPath+".manifest.json", data, 0o644)
}
