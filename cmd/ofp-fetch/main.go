// OFP Fetch CLI
// Retrieves the configured pilot's current SimBrief flight plan and prints it
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/skyops/briefhub/internal/db"
	"github.com/skyops/briefhub/pkg/config"
	"github.com/skyops/briefhub/pkg/logger"
	"github.com/skyops/briefhub/pkg/simbrief"
)

var (
	configPath = flag.String("config", "configs/config.json", "Path to configuration file")
	pilotID    = flag.String("pilot", "", "SimBrief pilot id (overrides config)")
	save       = flag.Bool("save", false, "Record the fetch in the history database")
)

func main() {
	flag.Parse()

	_ = godotenv.Load()

	log := logger.New()
	defer log.Sync()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	id := *pilotID
	if id == "" {
		id = cfg.Simbrief.PilotID
	}
	if id == "" {
		fmt.Fprintln(os.Stderr, "No pilot id: set -pilot, the config file, or BRIEFHUB_PILOT_ID")
		os.Exit(1)
	}

	client := simbrief.NewClient(cfg.Simbrief, log)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	ofp := client.Fetch(ctx, id)

	if *save {
		if !cfg.Database.Enabled {
			fmt.Fprintln(os.Stderr, "Cannot save: database is not enabled in the config")
			os.Exit(1)
		}
		database, err := db.Connect(cfg.Database)
		if err != nil {
			log.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer database.Close()

		if err := database.InitSchema(ctx); err != nil {
			log.Error("failed to initialize schema", "error", err)
			os.Exit(1)
		}
		if _, err := db.NewHistoryRepository(database).RecordOFPFetch(ctx, ofp); err != nil {
			log.Error("failed to record fetch", "error", err)
			os.Exit(1)
		}
	}

	if !ofp.Valid() {
		fmt.Printf("Fetch failed: %s\n", ofp.Status)
		os.Exit(1)
	}

	printOFP(ofp)
}

func printOFP(ofp *simbrief.OFP) {
	fmt.Printf("OFP generated at %s\n", generatedAt(ofp.TimeGenerated))
	fmt.Printf("Flight:      %s (%s)\n", ofp.FlightDesignator(), ofp.AircraftICAO)
	fmt.Printf("Routing:     %s/%s -> %s/%s (alternate %s/%s)\n",
		ofp.Origin, ofp.OriginRwy,
		ofp.Destination, ofp.DestinationRwy,
		ofp.Alternate, ofp.AlternateRwy)
	fmt.Printf("Cruise:      %s, CI %s\n", flightLevel(ofp.Altitude), ofp.CI)
	fmt.Printf("Route:       %s\n", ofp.Route)
	if ofp.AltRoute != "" {
		fmt.Printf("Alt route:   %s\n", ofp.AltRoute)
	}
	fmt.Printf("Fuel (%s):  ramp %s, taxi %s\n", ofp.Units, ofp.FuelPlanRamp, ofp.FuelTaxi)
	fmt.Printf("Payload:     %s pax, %s freight, %s total\n", ofp.PaxCount, ofp.Freight, ofp.Payload)
	fmt.Printf("Enroute:     %s seconds\n", ofp.EstTimeEnroute)
	if ofp.Remarks != "" {
		fmt.Printf("Remarks:     %s\n", ofp.Remarks)
	}
}

// generatedAt renders the plan's unix generation timestamp in UTC, or the
// raw value when it is not a number.
func generatedAt(ts string) string {
	unix, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return ts
	}
	return time.Unix(unix, 0).UTC().Format("2006-01-02 15:04:05 UTC")
}

// flightLevel renders a cruise altitude in feet as a flight level, e.g.
// "25000" -> "FL250".
func flightLevel(altitude string) string {
	feet, err := strconv.Atoi(altitude)
	if err != nil || feet <= 0 {
		return altitude
	}
	return fmt.Sprintf("FL%d", feet/100)
}
