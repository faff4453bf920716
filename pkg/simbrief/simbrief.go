// Package simbrief fetches a pilot's operational flight plan (OFP) from the
// SimBrief dispatch service and extracts the flight-planning fields other
// components consume.
//
// The parse is all-or-nothing: apart from the remarks field, every key is
// mandatory and the first missing one discards the whole result. A failed
// fetch never corrupts a previously obtained OFP; callers receive a fresh
// record per attempt.
package simbrief

// StatusSuccess is the upstream status string of a complete OFP.
const StatusSuccess = "Success"

// Statuses produced locally, as opposed to statuses passed through from the
// upstream fetch section.
const (
	StatusNetworkError = "Network error"
	StatusInvalidData  = "Invalid server response"
)

// OFP is the outcome of one flight-plan fetch.
//
// All flight-planning values are kept as display strings exactly as
// delivered. Seqno increases with every successful fetch of the owning
// client, letting a consumer detect whether a record is the latest good
// one; Stale marks records from failed fetches.
type OFP struct {
	Status string `json:"status"`

	// Seqno is assigned from a monotonically increasing counter on each
	// successful fetch. 0 means the record never held valid data.
	Seqno int64 `json:"seqno"`

	// Stale is set when the fetch failed and the field set is empty.
	Stale bool `json:"stale"`

	Units         string `json:"units,omitempty"`
	ICAOAirline   string `json:"icao_airline,omitempty"`
	FlightNumber  string `json:"flight_number,omitempty"`
	AircraftICAO  string `json:"aircraft_icao,omitempty"`
	MaxPassengers string `json:"max_passengers,omitempty"`

	Origin         string `json:"origin,omitempty"`
	OriginRwy      string `json:"origin_rwy,omitempty"`
	Destination    string `json:"destination,omitempty"`
	DestinationRwy string `json:"destination_rwy,omitempty"`
	Alternate      string `json:"alternate,omitempty"`
	AlternateRwy   string `json:"alternate_rwy,omitempty"`

	CI            string `json:"ci,omitempty"`
	Altitude      string `json:"altitude,omitempty"`
	Tropopause    string `json:"tropopause,omitempty"`
	ISADev        string `json:"isa_dev,omitempty"`
	WindComponent string `json:"wind_component,omitempty"`

	FuelPlanRamp string `json:"fuel_plan_ramp,omitempty"`
	FuelTaxi     string `json:"fuel_taxi,omitempty"`
	OEW          string `json:"oew,omitempty"`
	PaxCount     string `json:"pax_count,omitempty"`
	Freight      string `json:"freight,omitempty"`
	Payload      string `json:"payload,omitempty"`
	MaxZFW       string `json:"max_zfw,omitempty"`
	MaxTOW       string `json:"max_tow,omitempty"`

	Route    string `json:"route,omitempty"`
	AltRoute string `json:"alt_route,omitempty"`
	Remarks  string `json:"remarks,omitempty"`

	TimeGenerated  string `json:"time_generated,omitempty"`
	EstTimeEnroute string `json:"est_time_enroute,omitempty"`
	EstOut         string `json:"est_out,omitempty"`
	EstOff         string `json:"est_off,omitempty"`
	EstOn          string `json:"est_on,omitempty"`
	EstIn          string `json:"est_in,omitempty"`
}

// Valid reports whether the record ever held a complete field set.
func (o *OFP) Valid() bool {
	return o.Seqno > 0
}

// FlightDesignator combines airline and flight number, e.g. "EWG74A" parts.
func (o *OFP) FlightDesignator() string {
	return o.ICAOAirline + o.FlightNumber
}
