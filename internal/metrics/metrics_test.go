package metrics

import (
	"testing"

	"github.com/mspforge/qbrgen/internal/halo"
)

func mockTickets() []halo.Ticket {
	return []halo.Ticket{
		{ // reactive, same-day, 15 min response
			ID: 1001, TicketTypeID: 1, PriorityID: 3, HasBeenClosed: true,
			DateOccurred: "2026-02-17T09:00:00", ResponseDate: "2026-02-17T09:15:00",
			DateClosed: "2026-02-17T11:30:00", TicketAge: 2.5,
		},
		{ // proactive alert, same-day, 5 min response
			ID: 1002, TicketTypeID: 30, PriorityID: 3, HasBeenClosed: true,
			DateOccurred: "2026-02-18T02:00:00", ResponseDate: "2026-02-18T02:05:00",
			DateClosed: "2026-02-18T03:00:00", TicketAge: 1.0,
		},
		{ // critical crisis, multi-day
			ID: 1003, TicketTypeID: 1, PriorityID: 1, HasBeenClosed: true,
			DateOccurred: "2026-02-19T10:00:00", ResponseDate: "2026-02-19T10:05:00",
			DateClosed: "2026-02-21T14:00:00", TicketAge: 52.0,
		},
		{ // proactive, same-day, 10 min response
			ID: 1004, TicketTypeID: 40, PriorityID: 3, HasBeenClosed: true,
			DateOccurred: "2026-02-20T08:00:00", ResponseDate: "2026-02-20T08:10:00",
			DateClosed: "2026-02-20T09:00:00", TicketAge: 1.0,
		},
	}
}

func TestCompute_MockQuarter(t *testing.T) {
	m := Compute(mockTickets(), Config{})
	if m.TicketCount != 4 {
		t.Fatalf("count = %d", m.TicketCount)
	}
	if m.ProactivePct != 50 || m.ReactivePct != 50 {
		t.Fatalf("split = %.1f/%.1f, want 50/50", m.ProactivePct, m.ReactivePct)
	}
	// Tickets 1001, 1002, 1004 closed same day; 1003 spans days.
	if m.SameDayRate != 75 {
		t.Fatalf("same-day = %.1f, want 75", m.SameDayRate)
	}
	if m.CriticalResTime != "52.0 hours" {
		t.Fatalf("critical = %q", m.CriticalResTime)
	}
	// (15 + 5 + 5 + 10) / 4 = 8.75 minutes.
	if m.AvgFirstResponse != "8 mins" {
		t.Fatalf("first response = %q", m.AvgFirstResponse)
	}
}

func TestCompute_EmptyInput(t *testing.T) {
	m := Compute(nil, Config{})
	if !m.Empty {
		t.Fatalf("want Empty")
	}
	r := m.Replacements()
	if r["TICKET_COUNT"] != "0" || r["PROACTIVE_PERCENT"] != "N/A" || r["AVG_FIRST_RESPONSE"] != "N/A" {
		t.Fatalf("defaults = %+v", r)
	}
}

func TestCompute_NegativeAgeExcludedFromAverage(t *testing.T) {
	tickets := []halo.Ticket{
		{ID: 1, TicketTypeID: 1, PriorityID: 1, TicketAge: -4},
		{ID: 2, TicketTypeID: 1, PriorityID: 1, TicketAge: 10},
	}
	m := Compute(tickets, Config{})
	// Both criticals count, only the positive age enters the sum: 10/2.
	if m.CriticalResTime != "5.0 hours" {
		t.Fatalf("critical = %q", m.CriticalResTime)
	}
}

func TestCompute_AllCriticalAgesInvalid(t *testing.T) {
	m := Compute([]halo.Ticket{{ID: 1, PriorityID: 1, TicketAge: -1}}, Config{})
	if m.CriticalResTime != "< 1 hour" {
		t.Fatalf("critical = %q", m.CriticalResTime)
	}
}

func TestCompute_ResponseAnomaliesSkipped(t *testing.T) {
	tickets := []halo.Ticket{
		{ID: 1, DateOccurred: "2026-02-17T09:00:00", ResponseDate: "0001-01-01T00:00:00"}, // never responded
		{ID: 2, DateOccurred: "2026-02-17T09:00:00", ResponseDate: "2026-02-17T08:00:00"}, // clock skew
		{ID: 3, DateOccurred: "not-a-date", ResponseDate: "2026-02-17T09:00:00"},          // unparsable
	}
	m := Compute(tickets, Config{})
	if m.AvgFirstResponse != "N/A" {
		t.Fatalf("first response = %q, want N/A", m.AvgFirstResponse)
	}
}

func TestCompute_SlowResponseFormattedInHours(t *testing.T) {
	tickets := []halo.Ticket{
		{ID: 1, DateOccurred: "2026-02-17T09:00:00", ResponseDate: "2026-02-17T12:00:00"},
	}
	m := Compute(tickets, Config{})
	if m.AvgFirstResponse != "3.0 hours" {
		t.Fatalf("first response = %q", m.AvgFirstResponse)
	}
}

func TestCompute_CustomTypeSets(t *testing.T) {
	tickets := []halo.Ticket{
		{ID: 1, TicketTypeID: 7},
		{ID: 2, TicketTypeID: 8},
		{ID: 3, TicketTypeID: 8},
	}
	m := Compute(tickets, Config{ProactiveTypes: []int{7}, ReactiveTypes: []int{8}})
	if int(m.ProactivePct) != 33 || int(m.ReactivePct) != 66 {
		t.Fatalf("split = %.1f/%.1f", m.ProactivePct, m.ReactivePct)
	}
}

func TestReplacements_GroupsLargeCounts(t *testing.T) {
	m := Metrics{TicketCount: 1234, CriticalResTime: "< 1 hour", AvgFirstResponse: "N/A"}
	if got := m.Replacements()["TICKET_COUNT"]; got != "1,234" {
		t.Fatalf("count = %q", got)
	}
}

func TestLines_CoverAllSixMetrics(t *testing.T) {
	lines := Compute(mockTickets(), Config{}).Lines()
	if len(lines) != 6 {
		t.Fatalf("lines = %v", lines)
	}
	if lines[0] != "Total Tickets: 4" {
		t.Fatalf("lines[0] = %q", lines[0])
	}
}
