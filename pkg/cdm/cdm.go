// Package cdm locates and queries collaborative-decision-making (CDM)
// departure-sequencing providers.
//
// A configured set of providers is probed in registration order to find the
// one serving a given airport. Each provider publishes its served airports
// lazily; a provider that repeatedly fails to deliver its airport list is
// marked dead and skipped for the rest of the process lifetime.
//
// Two wire protocols are supported:
//   - "feed_list": a central feed index mapping airports to per-airport feed URLs
//     (https://github.com/rpuig2001/CDM)
//   - "vacdm_v1": the vACDM server REST API
//     (https://github.com/vACDM/vacdm-server)
package cdm

import (
	"encoding/json"
	"fmt"
)

// Protocol identifies a provider's wire protocol variant.
type Protocol int

const (
	// ProtocolInvalid marks an unresolved or unserved airport.
	ProtocolInvalid Protocol = iota

	// ProtocolFeedList is the legacy feed-list protocol: a central index
	// maps each airport to its own flight feed URL.
	ProtocolFeedList

	// ProtocolVacdmV1 is the vACDM v1 REST API: one base URL serves all
	// of the provider's airports.
	ProtocolVacdmV1
)

// ParseProtocol converts a configuration protocol tag to a Protocol.
func ParseProtocol(tag string) (Protocol, error) {
	switch tag {
	case "feed_list":
		return ProtocolFeedList, nil
	case "vacdm_v1":
		return ProtocolVacdmV1, nil
	default:
		return ProtocolInvalid, fmt.Errorf("unsupported protocol %q (only \"feed_list\" or \"vacdm_v1\" are supported)", tag)
	}
}

// String returns the configuration tag for the protocol.
func (p Protocol) String() string {
	switch p {
	case ProtocolFeedList:
		return "feed_list"
	case ProtocolVacdmV1:
		return "vacdm_v1"
	default:
		return "invalid"
	}
}

// Status is the outcome of a single flight lookup.
type Status int

const (
	// StatusSuccess means the flight was found and all fields are populated.
	StatusSuccess Status = iota

	// StatusNotFound means no provider serves the airport or the callsign
	// has no CDM record yet. Terminal for this lookup; not retried.
	StatusNotFound

	// StatusNetworkError means a transport failure occurred while talking
	// to an otherwise selected provider. Retryable on a later lookup.
	StatusNetworkError

	// StatusProtocolError means the provider was reachable but returned a
	// payload this package could not interpret.
	StatusProtocolError
)

// String returns a human-readable form of the status.
func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "Success"
	case StatusNotFound:
		return "Not found"
	case StatusNetworkError:
		return "Network error"
	case StatusProtocolError:
		return "Protocol error"
	default:
		return "Unknown"
	}
}

// MarshalJSON renders the status as its human-readable string.
func (s Status) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// Result is the outcome of one CDM flight lookup.
//
// On StatusSuccess the scheduling fields are populated as display strings;
// timestamps sourced from ISO-8601 values are already reduced to HHMM.
// A Result is never mutated after it is returned.
type Result struct {
	// Status is the lookup outcome.
	Status Status `json:"status"`

	// Message carries detail for non-success outcomes.
	Message string `json:"message,omitempty"`

	// URL is the endpoint the data was (or would have been) fetched from.
	URL string `json:"url,omitempty"`

	// TOBT is the target off-block time (HHMM).
	TOBT string `json:"tobt,omitempty"`

	// TSAT is the target start-up approval time (HHMM).
	TSAT string `json:"tsat,omitempty"`

	// Runway is the assigned departure runway.
	Runway string `json:"runway,omitempty"`

	// SID is the assigned standard instrument departure.
	SID string `json:"sid,omitempty"`
}

// unsetTimestamp is the sentinel the vACDM server emits for "no value yet".
const unsetTimestamp = "1969-12-31T23:59:59.999Z"

// extractHHMM reduces a timestamp of the exact form
// "YYYY-MM-DDTHH:MM:SS.sssZ" to its HHMM components.
//
// The upstream data is trusted to always be in this shape when present, so
// fixed offsets are used instead of time parsing. The epoch-underflow
// sentinel and anything too short to carry minutes yield "".
func extractHHMM(ts string) string {
	if ts == unsetTimestamp || len(ts) < 16 {
		return ""
	}
	return ts[11:13] + ts[14:16]
}
