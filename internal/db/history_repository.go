package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/skyops/briefhub/pkg/cdm"
	"github.com/skyops/briefhub/pkg/simbrief"
)

// HistoryRepository handles database operations for lookup and fetch history.
type HistoryRepository struct {
	db *DB
}

// NewHistoryRepository creates a new history repository.
func NewHistoryRepository(db *DB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

// CDMLookup represents one recorded departure-data lookup.
type CDMLookup struct {
	ID          int64
	Airport     string
	Callsign    string
	Status      string
	ProviderURL string
	TOBT        string
	TSAT        string
	Runway      string
	SID         string
	LookedUpAt  time.Time
}

// OFPFetch represents one recorded flight-plan fetch.
type OFPFetch struct {
	ID          int64
	Seqno       int64
	Status      string
	Flight      string
	Origin      string
	Destination string
	Alternate   string
	Route       string
	FetchedAt   time.Time
}

// RecordCDMLookup stores the outcome of a departure-data lookup.
//
// All outcomes are recorded, not just successes, so the history shows
// which providers failed and for which traffic.
func (r *HistoryRepository) RecordCDMLookup(ctx context.Context, airport, callsign string, res *cdm.Result) (int64, error) {
	var id int64
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO cdm_lookups (
			airport, callsign, status, provider_url, tobt, tsat, runway, sid
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`,
		airport, callsign, res.Status.String(), res.URL,
		res.TOBT, res.TSAT, res.Runway, res.SID,
	).Scan(&id)

	if err != nil {
		return 0, fmt.Errorf("failed to insert lookup: %w", err)
	}

	return id, nil
}

// RecordOFPFetch stores the outcome of a flight-plan fetch. The full record
// is kept as JSONB so fields that get no column of their own stay queryable.
func (r *HistoryRepository) RecordOFPFetch(ctx context.Context, ofp *simbrief.OFP) (int64, error) {
	document, err := json.Marshal(ofp)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal OFP: %w", err)
	}

	var id int64
	err = r.db.QueryRowContext(ctx,
		`INSERT INTO ofp_fetches (
			seqno, status, flight, origin, destination, alternate, route, document
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`,
		ofp.Seqno, ofp.Status, ofp.FlightDesignator(),
		ofp.Origin, ofp.Destination, ofp.Alternate, ofp.Route, document,
	).Scan(&id)

	if err != nil {
		return 0, fmt.Errorf("failed to insert fetch: %w", err)
	}

	return id, nil
}

// RecentCDMLookups returns the most recent lookups, newest first.
func (r *HistoryRepository) RecentCDMLookups(ctx context.Context, limit int) ([]CDMLookup, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, airport, callsign, status, provider_url, tobt, tsat, runway, sid, looked_up_at
		 FROM cdm_lookups
		 ORDER BY looked_up_at DESC
		 LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query lookups: %w", err)
	}
	defer rows.Close()

	var lookups []CDMLookup
	for rows.Next() {
		var l CDMLookup
		if err := rows.Scan(
			&l.ID, &l.Airport, &l.Callsign, &l.Status, &l.ProviderURL,
			&l.TOBT, &l.TSAT, &l.Runway, &l.SID, &l.LookedUpAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan lookup: %w", err)
		}
		lookups = append(lookups, l)
	}

	return lookups, rows.Err()
}

// RecentOFPFetches returns the most recent fetches, newest first.
func (r *HistoryRepository) RecentOFPFetches(ctx context.Context, limit int) ([]OFPFetch, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, seqno, status, flight, origin, destination, alternate, route, fetched_at
		 FROM ofp_fetches
		 ORDER BY fetched_at DESC
		 LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query fetches: %w", err)
	}
	defer rows.Close()

	var fetches []OFPFetch
	for rows.Next() {
		var f OFPFetch
		if err := rows.Scan(
			&f.ID, &f.Seqno, &f.Status, &f.Flight,
			&f.Origin, &f.Destination, &f.Alternate, &f.Route, &f.FetchedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan fetch: %w", err)
		}
		fetches = append(fetches, f)
	}

	return fetches, rows.Err()
}

// LatestGoodOFP returns the stored document of the newest successful fetch,
// or nil if no fetch ever succeeded.
func (r *HistoryRepository) LatestGoodOFP(ctx context.Context) (*simbrief.OFP, error) {
	var document []byte
	err := r.db.QueryRowContext(ctx,
		`SELECT document
		 FROM ofp_fetches
		 WHERE status = $1
		 ORDER BY seqno DESC
		 LIMIT 1`,
		simbrief.StatusSuccess,
	).Scan(&document)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest OFP: %w", err)
	}

	var ofp simbrief.OFP
	if err := json.Unmarshal(document, &ofp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal OFP: %w", err)
	}

	return &ofp, nil
}
