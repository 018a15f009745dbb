package halo

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"sync/atomic"
	"testing"
	"unicode/utf8"
)

func newTestServer(t *testing.T, tickets []Ticket) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var authCalls atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/token", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}
		if g := r.PostFormValue("grant_type"); g != "client_credentials" {
			t.Errorf("grant_type = %q", g)
		}
		if r.PostFormValue("client_id") == "" || r.PostFormValue("client_secret") == "" {
			t.Errorf("credentials missing from token request")
		}
		authCalls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"access_token": "tok-123"})
	})
	mux.HandleFunc("/api/Tickets", func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer tok-123" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"tickets": tickets})
	})
	return httptest.NewServer(mux), &authCalls
}

func TestClient_AuthenticateAndFetchTickets(t *testing.T) {
	want := []Ticket{
		{ID: 1001, TicketTypeID: 1, PriorityID: 3, HasBeenClosed: true,
			DateOccurred: "2026-02-17T09:00:00", ResponseDate: "2026-02-17T09:15:00",
			DateClosed: "2026-02-17T11:30:00", TicketAge: 2.5, Summary: "Printer offline"},
	}
	srv, authCalls := newTestServer(t, want)
	defer srv.Close()

	c := New(srv.URL+"/", "id", "secret")
	got, err := c.Tickets(context.Background(), TicketQuery{ClientID: 7, StartDate: "2026-01-01", EndDate: "2026-03-31", PageSize: 500})
	if err != nil {
		t.Fatalf("tickets: %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("tickets = %+v, want %+v", got, want)
	}
	if authCalls.Load() != 1 {
		t.Fatalf("auth calls = %d, want 1 (lazy, cached)", authCalls.Load())
	}
}

func TestClient_ReauthenticatesOn401(t *testing.T) {
	var tokens atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/token", func(w http.ResponseWriter, r *http.Request) {
		n := tokens.Add(1)
		tok := "stale"
		if n > 1 {
			tok = "fresh"
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"access_token": tok})
	})
	mux.HandleFunc("/api/Tickets", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer fresh" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"tickets": []Ticket{{ID: 1}}})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := New(srv.URL, "id", "secret")
	got, err := c.Tickets(context.Background(), TicketQuery{})
	if err != nil {
		t.Fatalf("tickets: %v", err)
	}
	if len(got) != 1 || got[0].ID != 1 {
		t.Fatalf("tickets = %+v", got)
	}
	if tokens.Load() != 2 {
		t.Fatalf("token exchanges = %d, want 2", tokens.Load())
	}
}

func TestClient_RetriesServerErrors(t *testing.T) {
	var hits atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/token", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"access_token": "tok"})
	})
	mux.HandleFunc("/api/Tickets", func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_ = json.NewEncoder(w).Encode([]Ticket{{ID: 9}})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := New(srv.URL, "id", "secret")
	got, err := c.Tickets(context.Background(), TicketQuery{})
	if err != nil {
		t.Fatalf("tickets: %v", err)
	}
	if len(got) != 1 || got[0].ID != 9 {
		t.Fatalf("tickets = %+v (bare-array decode)", got)
	}
	if hits.Load() != 3 {
		t.Fatalf("hits = %d, want 3", hits.Load())
	}
}

func TestClient_ListsClients(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/token", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"access_token": "tok"})
	})
	mux.HandleFunc("/api/Client", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"clients": []ClientRecord{
			{ID: 7, Name: "Acme Corporation"},
			{ID: 9, Name: "Globex"},
		}})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := New(srv.URL, "id", "secret")
	got, err := c.Clients(context.Background())
	if err != nil {
		t.Fatalf("clients: %v", err)
	}
	want := []ClientRecord{{ID: 7, Name: "Acme Corporation"}, {ID: 9, Name: "Globex"}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("clients = %+v, want %+v", got, want)
	}
}

func TestClient_AuthFailureSurfaces(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/token", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad credentials", http.StatusForbidden)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := New(srv.URL, "id", "wrong")
	if err := c.Authenticate(context.Background()); err == nil {
		t.Fatalf("expected auth failure")
	}
}

func TestStripHTML(t *testing.T) {
	in := `<html><head><style>p{}</style></head><body><p>Server  <b>down</b></p><script>x()</script> since 9am</body></html>`
	if got, want := StripHTML(in), "Server down since 9am"; got != want {
		t.Fatalf("StripHTML = %q, want %q", got, want)
	}
}

func TestSampleSummaries(t *testing.T) {
	tickets := []Ticket{
		{Summary: "Printer offline"},
		{Summary: "", DetailsHTML: "<p>VPN drops <i>daily</i></p>"},
		{Summary: ""},
		{Summary: "Email bounce"},
	}
	got := SampleSummaries(tickets, 2)
	want := []string{"Printer offline", "VPN drops daily"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("summaries = %v, want %v", got, want)
	}
	if SampleSummaries(tickets, 0) != nil {
		t.Fatalf("max 0 yields nil")
	}
}

func TestSampleSummaries_TruncatesAtRuneBoundary(t *testing.T) {
	// 199 ASCII bytes then a two-byte rune straddling the 200-byte cap.
	long := strings.Repeat("a", 199) + "é" + strings.Repeat("b", 40)
	got := SampleSummaries([]Ticket{{Summary: long}}, 1)
	if len(got) != 1 {
		t.Fatalf("summaries = %v", got)
	}
	if !utf8.ValidString(got[0]) {
		t.Fatalf("truncation split a rune: %q", got[0])
	}
	if len(got[0]) > 200 {
		t.Fatalf("summary length = %d, want <= 200", len(got[0]))
	}
}
