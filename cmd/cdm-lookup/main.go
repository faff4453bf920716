// CDM Lookup CLI
// Queries configured CDM providers for a flight's departure sequencing data
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/skyops/briefhub/pkg/cdm"
	"github.com/skyops/briefhub/pkg/config"
	"github.com/skyops/briefhub/pkg/logger"
)

var (
	configPath = flag.String("config", "configs/config.json", "Path to configuration file")
	airport    = flag.String("airport", "", "Departure airport ICAO code")
	callsign   = flag.String("callsign", "", "Flight callsign")
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

	client, err := cdm.New(cfg.CDM, log)
	if err != nil {
		log.Error("failed to initialize CDM client", "error", err)
		os.Exit(1)
	}

	// One-shot mode when both arguments are given
	if *airport != "" && *callsign != "" {
		lookup(client, *airport, *callsign)
		return
	}

	// Interactive mode: one "ICAO CALLSIGN" pair per line
	fmt.Println("Enter lookups as \"ICAO CALLSIGN\" (e.g. \"EKCH EWG74A\"), or \"quit\" to exit.")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "quit" || line == "exit" {
			break
		}

		fields := strings.Fields(line)
		if len(fields) != 2 {
			fmt.Println("Expected exactly two fields: ICAO CALLSIGN")
			continue
		}

		lookup(client, fields[0], fields[1])
	}
}

func lookup(client *cdm.Client, airport, callsign string) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	res := client.Lookup(ctx, airport, callsign)

	fmt.Printf("%s departing %s: %s\n", callsign, airport, res.Status)
	if res.Status != cdm.StatusSuccess {
		if res.Message != "" {
			fmt.Printf("  %s\n", res.Message)
		}
		return
	}

	fmt.Printf("  TOBT:   %s\n", orDash(res.TOBT))
	fmt.Printf("  TSAT:   %s\n", orDash(res.TSAT))
	fmt.Printf("  Runway: %s\n", orDash(res.Runway))
	fmt.Printf("  SID:    %s\n", orDash(res.SID))
	fmt.Printf("  Source: %s\n", res.URL)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
