package app

import (
	"strconv"

	"github.com/jung-kurt/gofpdf"

	"github.com/mspforge/qbrgen/internal/metrics"
	"github.com/mspforge/qbrgen/internal/recs"
)

// writeSummaryPDF renders a one-page leave-behind: the headline metrics
// and the recommendations, without the deck layout. Intentionally plain.
func writeSummaryPDF(outPath string, cfg Config, m metrics.Metrics, recommendations []recs.Recommendation) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, "Quarterly Business Review", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 12)
	pdf.CellFormat(0, 8, cfg.ClientName, "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 8, cfg.ReviewPeriod, "", 1, "L", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "B", 13)
	pdf.CellFormat(0, 8, "Business Impact Metrics", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 11)
	for _, line := range m.Lines() {
		pdf.CellFormat(0, 6, line, "", 1, "L", false, 0, "")
	}
	pdf.Ln(4)

	if len(recommendations) > 0 {
		pdf.SetFont("Helvetica", "B", 13)
		pdf.CellFormat(0, 8, "Strategic Recommendations", "", 1, "L", false, 0, "")
		for i, r := range recommendations {
			pdf.SetFont("Helvetica", "B", 11)
			pdf.CellFormat(0, 6, strconv.Itoa(i+1)+". "+r.Title, "", 1, "L", false, 0, "")
			pdf.SetFont("Helvetica", "", 11)
			pdf.MultiCell(0, 5, r.Rationale, "", "L", false)
			pdf.Ln(1)
		}
	}

	if cfg.MSPContact != "" {
		pdf.Ln(4)
		pdf.SetFont("Helvetica", "I", 10)
		pdf.CellFormat(0, 6, cfg.MSPContact, "", 1, "L", false, 0, "")
	}

	return pdf.OutputFileAndClose(outPath)
}
