package simbrief

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/skyops/briefhub/pkg/config"
	"github.com/skyops/briefhub/pkg/logger"
)

const (
	// BaseURL is the SimBrief dispatch fetcher endpoint.
	BaseURL = "https://www.simbrief.com/api/xml.fetcher.php"

	// DefaultTimeout bounds every fetch request.
	DefaultTimeout = 10 * time.Second
)

// Client fetches OFPs for one SimBrief user at a time.
//
// The client owns the success sequence counter: every complete fetch gets
// the next Seqno so consumers can tell a fresh record from a stale one.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	log        logger.Logger
	seqno      atomic.Int64
}

// NewClient creates a SimBrief fetcher client.
func NewClient(cfg config.SimbriefConfig, log logger.Logger) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = BaseURL
	}

	rpm := cfg.RequestsPerMinute
	if rpm <= 0 {
		rpm = 6
	}

	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		limiter: rate.NewLimiter(rate.Limit(float64(rpm)/60.0), 1),
		log:     log,
	}
}

// Fetch retrieves and parses the pilot's current OFP.
//
// Fetch always returns a fresh record; on any failure the record carries
// only a status and the stale flag, never a partial field set. The pilot
// id is redacted in failure logs.
func (c *Client) Fetch(ctx context.Context, pilotID string) *OFP {
	ofp := &OFP{Stale: true}

	fetchURL := fmt.Sprintf("%s?userid=%s&json=1", c.baseURL, url.QueryEscape(pilotID))

	doc, err := c.getDocument(ctx, fetchURL)
	if err != nil {
		c.log.Warn("can't retrieve OFP", "pilot_id", logger.Redact(pilotID), "error", err)
		ofp.Status = StatusNetworkError
		return ofp
	}

	fields, err := parseOFP(doc)
	if err != nil {
		var use *upstreamStatusError
		if errors.As(err, &use) {
			ofp.Status = use.status
		} else {
			ofp.Status = StatusInvalidData
		}
		c.log.Warn("can't parse OFP", "pilot_id", logger.Redact(pilotID),
			"status", ofp.Status, "error", err)
		return ofp
	}

	*ofp = *fields
	ofp.Status = StatusSuccess
	ofp.Stale = false
	ofp.Seqno = c.seqno.Add(1)
	c.log.Info("OFP retrieved", "flight", ofp.FlightDesignator(), "seqno", ofp.Seqno)
	return ofp
}

// getDocument performs the bounded-timeout GET and decodes the body into a
// generic JSON document. Numbers are preserved as json.Number so numeric
// fields can be re-rendered without float formatting artifacts.
func (c *Client) getDocument(ctx context.Context, fetchURL string) (map[string]interface{}, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fetchURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	// SimBrief reports fetch problems inside the document with HTTP 200
	// or 4xx alike, so the body is parsed regardless of status when it
	// looks like JSON.
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var doc map[string]interface{}
	if err := dec.Decode(&doc); err != nil {
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("status %d", resp.StatusCode)
		}
		return nil, fmt.Errorf("parse response: %w", err)
	}

	return doc, nil
}
