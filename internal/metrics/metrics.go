// Package metrics derives the four business-impact figures a quarterly
// review leads with from raw ticket data. The arithmetic is hardened
// against the data-quality problems PSA exports actually have: negative
// ages from sync glitches, zero-date response sentinels, and responses
// recorded before the ticket occurred.
package metrics

import (
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/mspforge/qbrgen/internal/halo"
)

// Ticket type ID sets separating proactive work (monitoring alerts,
// scheduled maintenance) from reactive break/fix. Instance-specific;
// overridable via Config.
var (
	DefaultProactiveTypes = []int{30, 40, 100}
	DefaultReactiveTypes  = []int{1, 10, 20, 50, 60, 61, 62, 63, 64, 65, 66, 67, 68, 69, 70, 71, 72, 9999}
)

// Config tunes classification per Halo instance.
type Config struct {
	ProactiveTypes []int
	ReactiveTypes  []int
}

// Metrics is the computed result set. String fields are already shaped
// for human eyes ("< 1 hour", "32 mins"); percentages stay numeric for
// the chart.
type Metrics struct {
	TicketCount  int
	ProactivePct float64
	ReactivePct  float64
	SameDayRate  float64
	// CriticalResTime and AvgFirstResponse are presentation strings; see
	// Replacements for the exact shapes.
	CriticalResTime  string
	AvgFirstResponse string
	// Empty is set when no tickets were supplied; all replacement values
	// fall back to safe defaults.
	Empty bool
}

const zeroDatePrefix = "0001" // Halo's "never responded" sentinel year

// Compute derives metrics from tickets. An empty slice is not an error:
// it yields the defaulted result so rendering can still proceed.
func Compute(tickets []halo.Ticket, cfg Config) Metrics {
	if len(tickets) == 0 {
		log.Warn().Msg("no ticket data; metrics defaulted")
		return Metrics{Empty: true, CriticalResTime: "N/A", AvgFirstResponse: "N/A"}
	}
	proactiveTypes := cfg.ProactiveTypes
	if proactiveTypes == nil {
		proactiveTypes = DefaultProactiveTypes
	}
	reactiveTypes := cfg.ReactiveTypes
	if reactiveTypes == nil {
		reactiveTypes = DefaultReactiveTypes
	}

	var (
		proactive, reactive  int
		closed, sameDay      int
		critical             int
		criticalAgeSum       float64
		responded            int
		responseMinutesTotal float64
	)
	for _, t := range tickets {
		switch {
		case containsInt(proactiveTypes, t.TicketTypeID):
			proactive++
		case containsInt(reactiveTypes, t.TicketTypeID):
			reactive++
		}

		if t.HasBeenClosed {
			closed++
			if sameCalendarDay(t.DateOccurred, t.DateClosed) {
				sameDay++
			}
		}

		if t.PriorityID == 1 {
			critical++
			// Negative ages come from sync glitches; the ticket still
			// counts but its age stays out of the average.
			if t.TicketAge > 0 {
				criticalAgeSum += t.TicketAge
			}
		}

		if t.DateOccurred != "" && t.ResponseDate != "" && !strings.HasPrefix(t.ResponseDate, zeroDatePrefix) {
			occ, err1 := parseISO(t.DateOccurred)
			res, err2 := parseISO(t.ResponseDate)
			switch {
			case err1 != nil || err2 != nil:
				log.Debug().Int("ticket", t.ID).Msg("skipping ticket with unparsable dates")
			case res.Before(occ):
				log.Debug().Int("ticket", t.ID).Msg("skipping ticket with response before occurrence")
			default:
				responseMinutesTotal += res.Sub(occ).Minutes()
				responded++
			}
		}
	}

	m := Metrics{TicketCount: len(tickets)}

	if typed := proactive + reactive; typed > 0 {
		m.ProactivePct = float64(proactive) / float64(typed) * 100
		m.ReactivePct = float64(reactive) / float64(typed) * 100
	}
	if closed > 0 {
		m.SameDayRate = float64(sameDay) / float64(closed) * 100
	}

	switch {
	case critical > 0 && criticalAgeSum > 0:
		m.CriticalResTime = fmt.Sprintf("%.1f hours", criticalAgeSum/float64(critical))
	default:
		m.CriticalResTime = "< 1 hour"
	}

	if responded > 0 {
		avg := responseMinutesTotal / float64(responded)
		if avg < 60 {
			m.AvgFirstResponse = fmt.Sprintf("%d mins", int(avg))
		} else {
			m.AvgFirstResponse = fmt.Sprintf("%.1f hours", avg/60)
		}
	} else {
		m.AvgFirstResponse = "N/A"
	}
	return m
}

// Replacements emits the token values the template consumes.
func (m Metrics) Replacements() map[string]string {
	if m.Empty {
		return map[string]string{
			"TICKET_COUNT":       "0",
			"PROACTIVE_PERCENT":  "N/A",
			"REACTIVE_PERCENT":   "N/A",
			"SAME_DAY_RATE":      "N/A",
			"CRITICAL_RES_TIME":  "N/A",
			"AVG_FIRST_RESPONSE": "N/A",
		}
	}
	p := message.NewPrinter(language.English)
	return map[string]string{
		"TICKET_COUNT":       p.Sprintf("%d", m.TicketCount),
		"PROACTIVE_PERCENT":  fmt.Sprintf("%d", int(m.ProactivePct)),
		"REACTIVE_PERCENT":   fmt.Sprintf("%d", int(m.ReactivePct)),
		"SAME_DAY_RATE":      fmt.Sprintf("%d", int(m.SameDayRate)),
		"CRITICAL_RES_TIME":  m.CriticalResTime,
		"AVG_FIRST_RESPONSE": m.AvgFirstResponse,
	}
}

// Lines renders the metrics as "label: value" prompt lines.
func (m Metrics) Lines() []string {
	r := m.Replacements()
	return []string{
		"Total Tickets: " + r["TICKET_COUNT"],
		"Same-Day Resolution Rate: " + r["SAME_DAY_RATE"] + "%",
		"Average First Response Time: " + r["AVG_FIRST_RESPONSE"],
		"Critical Issue Resolution Time: " + r["CRITICAL_RES_TIME"],
		"Proactive Work: " + r["PROACTIVE_PERCENT"] + "%",
		"Reactive Work: " + r["REACTIVE_PERCENT"] + "%",
	}
}

func containsInt(list []int, v int) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}

// sameCalendarDay compares the date part of two ISO timestamps without
// parsing, matching how the PSA reports its own same-day statistic.
func sameCalendarDay(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	da, _, _ := strings.Cut(a, "T")
	db, _, _ := strings.Cut(b, "T")
	return da == db
}

var isoLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05.999999999",
}

func parseISO(s string) (time.Time, error) {
	var lastErr error
	for _, layout := range isoLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}
