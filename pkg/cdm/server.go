package cdm

import (
	"context"
	"fmt"
)

// maxRetries bounds how often a provider's airport list retrieval is
// attempted before the provider is marked dead for the process lifetime.
const maxRetries = 3

// servedAirport associates an airport with the endpoint a provider uses
// to serve it.
type servedAirport struct {
	icao  string
	url   string
	proto Protocol
}

// Server is one configured CDM data provider.
//
// The served-airport set is populated lazily, once, the first time the
// server is probed. It is never invalidated or refreshed within a process
// run.
type Server struct {
	name    string
	baseURL string
	proto   Protocol

	retrieved   bool
	retriesLeft int
	airports    map[string]servedAirport
}

// Name returns the provider's configured display name.
func (s *Server) Name() string { return s.name }

// dead reports whether the provider has exhausted its retries and must
// never be queried again.
func (s *Server) dead() bool {
	return s.retriesLeft <= 0
}

// retrieveAirports loads the server's served-airport set. Idempotent once
// successful. A fetch or parse failure decrements the retry budget and
// leaves the set unpopulated so a later call retries.
func (s *Server) retrieveAirports(ctx context.Context, c *Client) error {
	if s.retrieved {
		return nil
	}

	c.log.Info("loading served airports", "server", s.name, "url", s.baseURL)

	var apiURL string
	switch s.proto {
	case ProtocolFeedList:
		apiURL = s.baseURL + "/CDM_feeds.json"
	case ProtocolVacdmV1:
		apiURL = s.baseURL + "/api/v1/airports"
	default:
		// Load validation rejects unknown protocols, this can't be reached.
		return fmt.Errorf("server %q has invalid protocol", s.name)
	}

	airports, err := s.fetchAirports(ctx, c, apiURL)
	if err != nil {
		s.retriesLeft--
		c.log.Warn("can't retrieve served airports",
			"server", s.name, "url", apiURL, "retries_left", s.retriesLeft, "error", err)
		return err
	}

	s.airports = airports
	s.retrieved = true
	c.log.Info("served airports loaded", "server", s.name, "count", len(airports))
	return nil
}

func (s *Server) fetchAirports(ctx context.Context, c *Client, apiURL string) (map[string]servedAirport, error) {
	airports := make(map[string]servedAirport)

	switch s.proto {
	case ProtocolFeedList:
		// {"airports": {"LEBL": ["https://.../LEBL.json", ...], ...}}
		var index struct {
			Airports map[string][]string `json:"airports"`
		}
		if err := c.getJSON(ctx, apiURL, &index); err != nil {
			return nil, err
		}
		if index.Airports == nil {
			return nil, fmt.Errorf("%w: missing airports index", errMalformed)
		}
		for icao, urls := range index.Airports {
			if len(urls) == 0 || urls[0] == "" {
				return nil, fmt.Errorf("%w: no feed url for %s", errMalformed, icao)
			}
			airports[icao] = servedAirport{icao: icao, url: urls[0], proto: s.proto}
		}

	case ProtocolVacdmV1:
		// [{"icao": "EDDF", ...}, ...]; the base URL serves all of them.
		var entries []struct {
			ICAO string `json:"icao"`
		}
		if err := c.getJSON(ctx, apiURL, &entries); err != nil {
			return nil, err
		}
		for _, e := range entries {
			if e.ICAO == "" {
				return nil, fmt.Errorf("%w: airport entry without icao", errMalformed)
			}
			airports[e.ICAO] = servedAirport{icao: e.ICAO, url: s.baseURL, proto: s.proto}
		}
	}

	return airports, nil
}
