package cdm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/skyops/briefhub/pkg/config"
	"github.com/skyops/briefhub/pkg/logger"
)

// DefaultTimeout bounds every provider request.
const DefaultTimeout = 10 * time.Second

// errMalformed marks a response that was delivered but could not be
// interpreted. Distinguishes protocol errors from transport failures.
var errMalformed = errors.New("malformed response")

// errNoRecord marks an HTTP 404: the resource exists as a concept but the
// server has no record for it. Only the vACDM pilots endpoint uses this.
var errNoRecord = errors.New("no record")

// Client holds the provider registry and resolves flight lookups.
//
// Client is not safe for concurrent use: it is designed to be driven by a
// single worker, one lookup at a time (see package poller).
type Client struct {
	servers    []*Server
	httpClient *http.Client
	limiter    *rate.Limiter
	log        logger.Logger

	// single-slot cache of the last successful resolution; one aircraft
	// flies one flight, polled repeatedly
	cachedICAO  string
	cachedURL   string
	cachedProto Protocol
}

// New builds a Client from the configured provider list.
//
// Disabled providers are skipped entirely. An unrecognized protocol tag is
// a fatal load error: serving an airport under an unknown protocol is
// unrecoverable, so the whole load fails.
func New(cfg config.CDMConfig, log logger.Logger) (*Client, error) {
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = 2.0
	}

	c := &Client{
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		limiter: rate.NewLimiter(rate.Limit(rps), 1),
		log:     log,
	}

	for _, s := range cfg.Servers {
		if !s.Enabled {
			log.Info("server is disabled, skipping", "server", s.Name)
			continue
		}

		proto, err := ParseProtocol(s.Protocol)
		if err != nil {
			return nil, fmt.Errorf("server %q: %w", s.Name, err)
		}

		log.Info("registered server", "server", s.Name, "protocol", s.Protocol, "url", s.URL)
		c.servers = append(c.servers, &Server{
			name:        s.Name,
			baseURL:     s.URL,
			proto:       proto,
			retriesLeft: maxRetries,
		})
	}

	return c, nil
}

// Servers returns the registered providers in lookup priority order.
func (c *Client) Servers() []*Server {
	return c.servers
}

// DeadServerCount reports how many providers have exhausted their retries.
func (c *Client) DeadServerCount() int {
	n := 0
	for _, s := range c.servers {
		if s.dead() {
			n++
		}
	}
	return n
}

// resolve determines which provider serves the airport and returns its
// endpoint and protocol, or ("", ProtocolInvalid) if none does.
//
// Successful resolutions are memoized in a single slot keyed on the exact
// airport code; any other code forces a fresh pass over the providers.
func (c *Client) resolve(ctx context.Context, icao string) (string, Protocol) {
	if icao == c.cachedICAO {
		return c.cachedURL, c.cachedProto
	}

	for _, s := range c.servers {
		if s.dead() {
			c.log.Info("server is dead, skipping", "server", s.name)
			continue
		}

		if err := s.retrieveAirports(ctx, c); err != nil {
			continue
		}

		a, ok := s.airports[icao]
		if !ok {
			continue
		}

		c.cachedICAO = icao
		c.cachedURL = a.url
		c.cachedProto = a.proto
		return a.url, a.proto
	}

	return "", ProtocolInvalid
}

// Lookup fetches the CDM scheduling data for one callsign at one airport.
//
// The returned Result always reflects exactly one of the outcome statuses;
// a transport failure is never reported as "not found" since the former is
// retryable sooner and the latter means the callsign has no CDM record yet.
func (c *Client) Lookup(ctx context.Context, airport, callsign string) *Result {
	endpoint, proto := c.resolve(ctx, airport)
	if endpoint == "" {
		c.log.Info("no feed for airport", "airport", airport)
		return &Result{
			Status:  StatusNotFound,
			Message: fmt.Sprintf("feed for airport %s not found", airport),
		}
	}

	switch proto {
	case ProtocolVacdmV1:
		return c.lookupVacdm(ctx, endpoint, callsign)
	case ProtocolFeedList:
		return c.lookupFeedList(ctx, endpoint, callsign)
	}

	// resolve never yields another protocol
	return &Result{Status: StatusProtocolError, Message: "unsupported protocol"}
}

// lookupVacdm queries the vACDM pilots endpoint for one callsign.
func (c *Client) lookupVacdm(ctx context.Context, endpoint, callsign string) *Result {
	url := endpoint + "/api/v1/pilots/" + callsign
	res := &Result{URL: url}

	// Pointer fields distinguish "key absent" (flight unknown to the
	// server) from a present-but-empty object.
	var flight struct {
		Vacdm *struct {
			TOBT string `json:"tobt"`
			TSAT string `json:"tsat"`
		} `json:"vacdm"`
		Clearance *struct {
			DepRwy string `json:"dep_rwy"`
			SID    string `json:"sid"`
		} `json:"clearance"`
	}

	if err := c.getJSON(ctx, url, &flight); err != nil {
		if errors.Is(err, errNoRecord) {
			c.log.Info("flight not present", "callsign", callsign, "url", url)
			res.Status = StatusNotFound
			res.Message = "flight not found"
			return res
		}
		c.log.Warn("can't retrieve CDM data", "url", url, "error", err)
		res.Status = StatusNetworkError
		if errors.Is(err, errMalformed) {
			res.Status = StatusProtocolError
		}
		res.Message = "failed to retrieve CDM data"
		return res
	}

	if flight.Vacdm == nil || flight.Clearance == nil {
		c.log.Info("flight not present", "callsign", callsign, "url", url)
		res.Status = StatusNotFound
		res.Message = "flight not found"
		return res
	}

	res.Status = StatusSuccess
	res.TOBT = extractHHMM(flight.Vacdm.TOBT)
	res.TSAT = extractHHMM(flight.Vacdm.TSAT)
	res.Runway = flight.Clearance.DepRwy
	res.SID = flight.Clearance.SID
	return res
}

// lookupFeedList fetches the airport's flight feed and scans it for the
// callsign. Matching is exact and case-sensitive.
func (c *Client) lookupFeedList(ctx context.Context, endpoint, callsign string) *Result {
	res := &Result{URL: endpoint}

	var feed struct {
		Flights []struct {
			Callsign string `json:"callsign"`
			TOBT     string `json:"tobt"`
			TSAT     string `json:"tsat"`
			Runway   string `json:"runway"`
			SID      string `json:"sid"`
		} `json:"flights"`
	}

	if err := c.getJSON(ctx, endpoint, &feed); err != nil {
		c.log.Warn("can't retrieve CDM data", "url", endpoint, "error", err)
		res.Status = StatusNetworkError
		if errors.Is(err, errMalformed) {
			res.Status = StatusProtocolError
		}
		res.Message = "failed to retrieve CDM data"
		return res
	}

	for _, f := range feed.Flights {
		if f.Callsign != callsign {
			continue
		}

		// Feed-list times are already HHMM-like display strings.
		res.Status = StatusSuccess
		res.TOBT = f.TOBT
		res.TSAT = f.TSAT
		res.Runway = f.Runway
		res.SID = f.SID
		c.log.Info("CDM data retrieved", "callsign", callsign, "url", endpoint)
		return res
	}

	c.log.Info("flight not present in feed", "callsign", callsign, "url", endpoint)
	res.Status = StatusNotFound
	res.Message = "flight not found"
	return res
}

// getJSON performs a bounded-timeout GET and decodes the JSON body into v.
// Decode failures wrap errMalformed; everything else is a transport error.
func (c *Client) getJSON(ctx context.Context, url string, v interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("fetch %s: %w", url, errNoRecord)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("fetch %s: status %d", url, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("%w from %s: %v", errMalformed, url, err)
	}

	return nil
}
