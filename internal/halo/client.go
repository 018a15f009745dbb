// Package halo is a minimal HaloPSA API client: OAuth2 client-credentials
// authentication plus the ticket listing the report pipeline needs. It is
// deliberately not a full SDK.
package halo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// ErrAuthFailed wraps any failure to obtain an access token.
var ErrAuthFailed = errors.New("halo authentication failed")

// Ticket mirrors the HaloPSA JSON fields the metrics and the
// recommendation prompt consume. Dates stay as the API's ISO strings; the
// metrics layer owns their interpretation, including the zero-date
// sentinel the API emits for never-responded tickets.
type Ticket struct {
	ID            int     `json:"id"`
	TicketTypeID  int     `json:"tickettype_id"`
	PriorityID    int     `json:"priority_id"`
	HasBeenClosed bool    `json:"hasbeenclosed"`
	DateOccurred  string  `json:"dateoccurred"`
	ResponseDate  string  `json:"responsedate"`
	DateClosed    string  `json:"dateclosed"`
	TicketAge     float64 `json:"ticketage"`
	Summary       string  `json:"summary"`
	DetailsHTML   string  `json:"details_html"`
}

// ClientRecord is one customer organization in the Halo instance.
type ClientRecord struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// TicketQuery bounds a ticket listing.
type TicketQuery struct {
	ClientID  int
	StartDate string // YYYY-MM-DD
	EndDate   string // YYYY-MM-DD
	PageSize  int
}

// Client talks to one HaloPSA instance. Host carries no trailing slash;
// the bearer token is cached until a request comes back 401.
type Client struct {
	Host         string
	ClientID     string
	ClientSecret string
	Scope        string

	HTTPClient *http.Client
	// MaxAttempts includes the initial attempt. Minimum 1.
	MaxAttempts int

	token string
}

// New normalizes the host and applies defaults.
func New(host, clientID, clientSecret string) *Client {
	return &Client{
		Host:         strings.TrimRight(host, "/"),
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Scope:        "all",
		MaxAttempts:  3,
	}
}

func (c *Client) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return &http.Client{Timeout: 30 * time.Second}
}

// Authenticate exchanges the client credentials for an access token and
// caches it on the client.
func (c *Client) Authenticate(ctx context.Context) error {
	form := url.Values{
		"grant_type":    {"client_credentials"},
		"client_id":     {c.ClientID},
		"client_secret": {c.ClientSecret},
		"scope":         {c.scope()},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Host+"/auth/token", strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrAuthFailed, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrAuthFailed, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("%w: status %d: %s", ErrAuthFailed, resp.StatusCode, strings.TrimSpace(string(body)))
	}
	var payload struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return fmt.Errorf("%w: decode token response: %v", ErrAuthFailed, err)
	}
	if payload.AccessToken == "" {
		return fmt.Errorf("%w: empty access token", ErrAuthFailed)
	}
	c.token = payload.AccessToken
	log.Debug().Str("host", c.Host).Msg("halo token acquired")
	return nil
}

func (c *Client) scope() string {
	if c.Scope == "" {
		return "all"
	}
	return c.Scope
}

// Tickets lists tickets for the query. A 401 mid-run triggers one
// re-authentication; 5xx and timeouts get a bounded backoff retry.
func (c *Client) Tickets(ctx context.Context, q TicketQuery) ([]Ticket, error) {
	params := url.Values{"order": {"id desc"}}
	if q.PageSize > 0 {
		params.Set("page_size", strconv.Itoa(q.PageSize))
	}
	if q.ClientID > 0 {
		params.Set("client_id", strconv.Itoa(q.ClientID))
	}
	if q.StartDate != "" {
		params.Set("startdate", q.StartDate)
	}
	if q.EndDate != "" {
		params.Set("enddate", q.EndDate)
	}
	body, err := c.get(ctx, "Tickets", params)
	if err != nil {
		return nil, err
	}
	// Halo wraps list responses in {"tickets": [...]} but some versions
	// return a bare array.
	var wrapped struct {
		Tickets []Ticket `json:"tickets"`
	}
	if err := json.Unmarshal(body, &wrapped); err == nil && wrapped.Tickets != nil {
		return wrapped.Tickets, nil
	}
	var bare []Ticket
	if err := json.Unmarshal(body, &bare); err != nil {
		return nil, fmt.Errorf("decode tickets: %w", err)
	}
	return bare, nil
}

// Clients lists the customer organizations visible to the credentials.
func (c *Client) Clients(ctx context.Context) ([]ClientRecord, error) {
	body, err := c.get(ctx, "Client", url.Values{})
	if err != nil {
		return nil, err
	}
	var wrapped struct {
		Clients []ClientRecord `json:"clients"`
	}
	if err := json.Unmarshal(body, &wrapped); err == nil && wrapped.Clients != nil {
		return wrapped.Clients, nil
	}
	var bare []ClientRecord
	if err := json.Unmarshal(body, &bare); err != nil {
		return nil, fmt.Errorf("decode clients: %w", err)
	}
	return bare, nil
}

// get issues an authenticated GET with bounded retry on transient errors.
func (c *Client) get(ctx context.Context, endpoint string, params url.Values) ([]byte, error) {
	attempts := c.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}
	reauthed := false
	var lastErr error
	for i := 0; i < attempts; i++ {
		body, status, err := c.tryOnce(ctx, endpoint, params)
		switch {
		case err == nil && status == http.StatusOK:
			return body, nil
		case err == nil && status == http.StatusUnauthorized && !reauthed:
			reauthed = true
			if aerr := c.Authenticate(ctx); aerr != nil {
				return nil, aerr
			}
			i-- // the refreshed request does not burn an attempt
			continue
		case err == nil && status >= 500:
			lastErr = fmt.Errorf("server error: %s returned %d", endpoint, status)
		case err == nil:
			return nil, fmt.Errorf("request %s: status %d: %s", endpoint, status, strings.TrimSpace(string(body)))
		default:
			if !isTransient(err) {
				return nil, err
			}
			lastErr = err
		}
		if i < attempts-1 {
			time.Sleep(time.Duration(i+1) * 200 * time.Millisecond)
		}
	}
	if lastErr == nil {
		lastErr = errors.New("unknown error")
	}
	return nil, fmt.Errorf("request %s: %w", endpoint, lastErr)
}

func (c *Client) tryOnce(ctx context.Context, endpoint string, params url.Values) ([]byte, int, error) {
	if c.token == "" {
		if err := c.Authenticate(ctx); err != nil {
			return nil, 0, err
		}
	}
	u := c.Host + "/api/" + endpoint
	if enc := params.Encode(); enc != "" {
		u += "?" + enc
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, 32<<20))
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("read body: %w", err)
	}
	return body, resp.StatusCode, nil
}

func isTransient(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var nerr interface{ Timeout() bool }
	if errors.As(err, &nerr) && nerr.Timeout() {
		return true
	}
	return strings.Contains(err.Error(), "server error:")
}
