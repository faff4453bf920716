package simbrief

import (
	"encoding/json"
	"fmt"
	"strings"
)

// extractor walks the OFP document and records the first failure.
// Every accessor after a failure is a no-op, so a parse is a single pass
// with one error check at the end and no partial results.
type extractor struct {
	err error
}

func (e *extractor) section(doc map[string]interface{}, name string) map[string]interface{} {
	if e.err != nil {
		return nil
	}
	sec, ok := doc[name].(map[string]interface{})
	if !ok {
		e.err = fmt.Errorf("missing section %q", name)
		return nil
	}
	return sec
}

// str extracts a mandatory scalar as a display string. SimBrief emits both
// strings and bare numbers for these fields.
func (e *extractor) str(sec map[string]interface{}, key string) string {
	if e.err != nil {
		return ""
	}
	switch v := sec[key].(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	default:
		e.err = fmt.Errorf("missing key %q", key)
		return ""
	}
}

// remarks extracts the dispatcher remarks field, which legitimately arrives
// as a single string or as an array of strings. Array elements are joined
// with single spaces, non-string entries skipped. Anything else is empty,
// never an error.
func remarks(sec map[string]interface{}, key string) string {
	switch v := sec[key].(type) {
	case string:
		return v
	case []interface{}:
		parts := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, " ")
	default:
		return ""
	}
}

// upstreamStatusError reports a document whose fetch section carries a
// non-success status. The status string is surfaced to the caller as-is.
type upstreamStatusError struct {
	status string
}

func (e *upstreamStatusError) Error() string {
	return fmt.Sprintf("fetch status %q", e.status)
}

// parseOFP extracts the flight-planning fields from a decoded SimBrief
// document.
//
// The upstream fetch status gates everything: a non-success status aborts
// with an upstreamStatusError and nothing is extracted. For a successful
// fetch every remaining key is mandatory; the first missing one aborts the
// parse and no partial field set escapes.
func parseOFP(doc map[string]interface{}) (*OFP, error) {
	e := &extractor{}

	fetch := e.section(doc, "fetch")
	status := e.str(fetch, "status")
	if e.err != nil {
		return nil, e.err
	}
	if status != StatusSuccess {
		return nil, &upstreamStatusError{status: status}
	}

	var f OFP

	params := e.section(doc, "params")
	f.TimeGenerated = e.str(params, "time_generated")
	f.Units = e.str(params, "units")

	aircraft := e.section(doc, "aircraft")
	f.AircraftICAO = e.str(aircraft, "icaocode")
	f.MaxPassengers = e.str(aircraft, "max_passengers")

	fuel := e.section(doc, "fuel")
	f.FuelPlanRamp = e.str(fuel, "plan_ramp")
	f.FuelTaxi = e.str(fuel, "taxi")

	origin := e.section(doc, "origin")
	f.Origin = e.str(origin, "icao_code")
	f.OriginRwy = e.str(origin, "plan_rwy")

	destination := e.section(doc, "destination")
	f.Destination = e.str(destination, "icao_code")
	f.DestinationRwy = e.str(destination, "plan_rwy")

	general := e.section(doc, "general")
	f.ICAOAirline = e.str(general, "icao_airline")
	f.FlightNumber = e.str(general, "flight_number")
	f.CI = e.str(general, "costindex")
	f.Altitude = e.str(general, "initial_altitude")
	f.Tropopause = e.str(general, "avg_tropopause")
	f.ISADev = e.str(general, "avg_temp_dev")
	f.WindComponent = e.str(general, "avg_wind_comp")
	f.Route = e.str(general, "route")

	alternate := e.section(doc, "alternate")
	f.Alternate = e.str(alternate, "icao_code")
	f.AlternateRwy = e.str(alternate, "plan_rwy")
	f.AltRoute = e.str(alternate, "route")

	weights := e.section(doc, "weights")
	f.OEW = e.str(weights, "oew")
	f.PaxCount = e.str(weights, "pax_count")
	f.Freight = e.str(weights, "freight_added")
	f.Payload = e.str(weights, "payload")
	f.MaxZFW = e.str(weights, "max_zfw")
	f.MaxTOW = e.str(weights, "max_tow")

	times := e.section(doc, "times")
	f.EstTimeEnroute = e.str(times, "est_time_enroute")
	f.EstOut = e.str(times, "est_out")
	f.EstOff = e.str(times, "est_off")
	f.EstOn = e.str(times, "est_on")
	f.EstIn = e.str(times, "est_in")

	if e.err != nil {
		return nil, e.err
	}

	// remarks is the one lenient field; extracted last so a parse abort
	// above never sees it either
	f.Remarks = remarks(general, "dx_rmk")

	return &f, nil
}
