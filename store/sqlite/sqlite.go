/*
Package sqlite provides a SQLite-backed implementation of plan.Store.

PURPOSE:
  Persists campaigns, their bursts and line-item sources, per-client
  rate cards, and committed manual schedules. The engine never reads
  from this package directly; the plan service loads everything up
  front and recomputes schedules in memory.

KEY TABLES:
  campaigns:          Campaign header (client, dates, budget)
  bursts:             Per-campaign spend commitments, replaced wholesale
  line_item_sources:  Per-campaign detail rows for the materializer
  rate_cards:         Per-client ad-serving rates
  manual_schedules:   Committed manual overrides, one JSON blob each

MONEY COLUMNS:
  All currency and volume columns are TEXT holding decimal strings.
  SQLite REAL would reintroduce the float drift the engine exists to
  avoid; decimal.NewFromString round-trips exactly.

MANUAL SCHEDULE BLOBS:
  A committed manual schedule is only ever written and read back whole,
  never queried by column, so it is stored as one JSON payload per
  campaign.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety. In production with PostgreSQL,
  database-level concurrency control handles this instead.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) for better concurrency:
  - Multiple readers don't block
  - Single writer at a time
  - Better crash recovery

USAGE:
  store, err := sqlite.New("./data/billing.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

MIGRATION:
  Schema is auto-migrated on New(). For production, use a proper
  migration tool (golang-migrate, goose) with versioned migrations.

SEE ALSO:
  - plan/store.go: the interface this package implements
  - plan/store/memory.go: in-memory implementation for tests
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/warp/billing-engine/plan"
	"github.com/warp/billing-engine/schedule"
)

// Store implements plan.Store using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a store at the given database path. Use ":memory:" for an
// in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error { return s.db.Close() }

func (s *Store) migrate() error {
	schemaSQL := `
	CREATE TABLE IF NOT EXISTS campaigns (
		id         TEXT PRIMARY KEY,
		name       TEXT NOT NULL,
		client     TEXT NOT NULL,
		start_date TEXT NOT NULL,
		end_date   TEXT NOT NULL,
		budget     TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS bursts (
		id           TEXT PRIMARY KEY,
		campaign_id  TEXT NOT NULL REFERENCES campaigns(id),
		position     INTEGER NOT NULL,
		media_type   TEXT NOT NULL,
		start_date   TEXT NOT NULL,
		end_date     TEXT NOT NULL,
		media_amount TEXT NOT NULL,
		fee_amount   TEXT NOT NULL,
		deliverables TEXT NOT NULL,
		buy_type     TEXT NOT NULL,
		no_adserving INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_bursts_campaign ON bursts(campaign_id, position);

	CREATE TABLE IF NOT EXISTS line_item_sources (
		id          TEXT PRIMARY KEY,
		campaign_id TEXT NOT NULL REFERENCES campaigns(id),
		position    INTEGER NOT NULL,
		media_type  TEXT NOT NULL,
		publisher   TEXT NOT NULL,
		detail      TEXT NOT NULL,
		start_date  TEXT NOT NULL,
		end_date    TEXT NOT NULL,
		amount      TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_sources_campaign ON line_item_sources(campaign_id, position);

	CREATE TABLE IF NOT EXISTS rate_cards (
		client     TEXT PRIMARY KEY,
		video      TEXT NOT NULL,
		audio      TEXT NOT NULL,
		display    TEXT NOT NULL,
		impression TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS manual_schedules (
		campaign_id TEXT PRIMARY KEY REFERENCES campaigns(id),
		payload     TEXT NOT NULL,
		saved_at    TEXT NOT NULL
	);
	`
	_, err := s.db.Exec(schemaSQL)
	return err
}

// =============================================================================
// CAMPAIGNS
// =============================================================================

func (s *Store) SaveCampaign(ctx context.Context, c plan.Campaign) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO campaigns (id, name, client, start_date, end_date, budget, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			client = excluded.client,
			start_date = excluded.start_date,
			end_date = excluded.end_date,
			budget = excluded.budget`,
		c.ID, c.Name, c.Client,
		dateColumn(c.StartDate), dateColumn(c.EndDate),
		c.Budget.String(), time.Now().UTC().Format(time.RFC3339Nano),
	)
	return err
}

func (s *Store) GetCampaign(ctx context.Context, id string) (*plan.Campaign, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, client, start_date, end_date, budget
		FROM campaigns WHERE id = ?`, id)
	c, err := scanCampaign(row)
	if err == sql.ErrNoRows {
		return nil, plan.ErrCampaignNotFound
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (s *Store) ListCampaigns(ctx context.Context) ([]plan.Campaign, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, client, start_date, end_date, budget
		FROM campaigns ORDER BY created_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []plan.Campaign
	for rows.Next() {
		c, err := scanCampaign(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCampaign(row rowScanner) (*plan.Campaign, error) {
	var c plan.Campaign
	var start, end, budget string
	if err := row.Scan(&c.ID, &c.Name, &c.Client, &start, &end, &budget); err != nil {
		return nil, err
	}

	var err error
	if c.StartDate, err = dateFromColumn(start); err != nil {
		return nil, fmt.Errorf("campaign %s start date: %w", c.ID, err)
	}
	if c.EndDate, err = dateFromColumn(end); err != nil {
		return nil, fmt.Errorf("campaign %s end date: %w", c.ID, err)
	}
	if c.Budget, err = decimal.NewFromString(budget); err != nil {
		return nil, fmt.Errorf("campaign %s budget: %w", c.ID, err)
	}
	return &c, nil
}

// dateColumn serializes a Date; the zero Date (campaign dates not yet
// chosen) stores as the empty string.
func dateColumn(d schedule.Date) string {
	if d.IsZero() {
		return ""
	}
	return d.String()
}

func dateFromColumn(s string) (schedule.Date, error) {
	if s == "" {
		return schedule.Date{}, nil
	}
	return schedule.ParseDate(s)
}

// =============================================================================
// BURSTS
// =============================================================================

// ReplaceBursts swaps the full burst list for a campaign in one
// transaction. Burst dates are stored as the raw strings the planner
// entered; malformed dates are a proration warning, not a storage error.
func (s *Store) ReplaceBursts(ctx context.Context, campaignID string, bursts []schedule.Burst) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM bursts WHERE campaign_id = ?`, campaignID); err != nil {
		return err
	}
	for i, b := range bursts {
		noAdServing := 0
		if b.NoAdServing {
			noAdServing = 1
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO bursts (id, campaign_id, position, media_type, start_date, end_date,
				media_amount, fee_amount, deliverables, buy_type, no_adserving)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			uuid.NewString(), campaignID, i, string(b.MediaType), b.StartDate, b.EndDate,
			b.MediaAmount.String(), b.FeeAmount.String(), b.Deliverables.String(),
			string(b.BuyType), noAdServing,
		)
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *Store) Bursts(ctx context.Context, campaignID string) ([]schedule.Burst, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT media_type, start_date, end_date, media_amount, fee_amount,
			deliverables, buy_type, no_adserving
		FROM bursts WHERE campaign_id = ? ORDER BY position`, campaignID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []schedule.Burst
	for rows.Next() {
		var b schedule.Burst
		var mediaType, buyType, media, fee, deliverables string
		var noAdServing int
		if err := rows.Scan(&mediaType, &b.StartDate, &b.EndDate, &media, &fee,
			&deliverables, &buyType, &noAdServing); err != nil {
			return nil, err
		}
		b.MediaType = schedule.MediaType(mediaType)
		b.BuyType = schedule.BuyType(buyType)
		b.NoAdServing = noAdServing != 0
		if b.MediaAmount, err = decimal.NewFromString(media); err != nil {
			return nil, fmt.Errorf("burst media amount: %w", err)
		}
		if b.FeeAmount, err = decimal.NewFromString(fee); err != nil {
			return nil, fmt.Errorf("burst fee amount: %w", err)
		}
		if b.Deliverables, err = decimal.NewFromString(deliverables); err != nil {
			return nil, fmt.Errorf("burst deliverables: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// =============================================================================
// LINE-ITEM SOURCES
// =============================================================================

func (s *Store) ReplaceLineItemSources(ctx context.Context, campaignID string, sources []schedule.LineItemSource) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM line_item_sources WHERE campaign_id = ?`, campaignID); err != nil {
		return err
	}
	for i, src := range sources {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO line_item_sources (id, campaign_id, position, media_type,
				publisher, detail, start_date, end_date, amount)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			uuid.NewString(), campaignID, i, string(src.MediaType),
			src.Publisher, src.Detail, src.StartDate, src.EndDate, src.Amount.String(),
		)
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *Store) LineItemSources(ctx context.Context, campaignID string) ([]schedule.LineItemSource, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT media_type, publisher, detail, start_date, end_date, amount
		FROM line_item_sources WHERE campaign_id = ? ORDER BY position`, campaignID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []schedule.LineItemSource
	for rows.Next() {
		var src schedule.LineItemSource
		var mediaType, amount string
		if err := rows.Scan(&mediaType, &src.Publisher, &src.Detail,
			&src.StartDate, &src.EndDate, &amount); err != nil {
			return nil, err
		}
		src.MediaType = schedule.MediaType(mediaType)
		if src.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, fmt.Errorf("line item amount: %w", err)
		}
		out = append(out, src)
	}
	return out, rows.Err()
}

// =============================================================================
// RATE CARDS
// =============================================================================

func (s *Store) SaveRateCard(ctx context.Context, client string, rates schedule.RateTable) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO rate_cards (client, video, audio, display, impression)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(client) DO UPDATE SET
			video = excluded.video,
			audio = excluded.audio,
			display = excluded.display,
			impression = excluded.impression`,
		client, rates.Video.String(), rates.Audio.String(),
		rates.Display.String(), rates.Impression.String(),
	)
	return err
}

func (s *Store) RateCard(ctx context.Context, client string) (schedule.RateTable, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var video, audio, display, impression string
	err := s.db.QueryRowContext(ctx, `
		SELECT video, audio, display, impression FROM rate_cards WHERE client = ?`,
		client).Scan(&video, &audio, &display, &impression)
	if err == sql.ErrNoRows {
		return schedule.RateTable{}, plan.ErrRateCardNotFound
	}
	if err != nil {
		return schedule.RateTable{}, err
	}

	var rates schedule.RateTable
	if rates.Video, err = decimal.NewFromString(video); err != nil {
		return schedule.RateTable{}, err
	}
	if rates.Audio, err = decimal.NewFromString(audio); err != nil {
		return schedule.RateTable{}, err
	}
	if rates.Display, err = decimal.NewFromString(display); err != nil {
		return schedule.RateTable{}, err
	}
	if rates.Impression, err = decimal.NewFromString(impression); err != nil {
		return schedule.RateTable{}, err
	}
	return rates, nil
}

// =============================================================================
// MANUAL SCHEDULES
// =============================================================================

func (s *Store) SaveManualSchedule(ctx context.Context, campaignID string, sched *schedule.Schedule) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	payload, err := json.Marshal(sched)
	if err != nil {
		return fmt.Errorf("failed to encode manual schedule: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO manual_schedules (campaign_id, payload, saved_at)
		VALUES (?, ?, ?)
		ON CONFLICT(campaign_id) DO UPDATE SET
			payload = excluded.payload,
			saved_at = excluded.saved_at`,
		campaignID, string(payload), time.Now().UTC().Format(time.RFC3339Nano),
	)
	return err
}

func (s *Store) ManualSchedule(ctx context.Context, campaignID string) (*schedule.Schedule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var payload string
	err := s.db.QueryRowContext(ctx, `
		SELECT payload FROM manual_schedules WHERE campaign_id = ?`, campaignID).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, plan.ErrManualScheduleNotFound
	}
	if err != nil {
		return nil, err
	}

	var sched schedule.Schedule
	if err := json.Unmarshal([]byte(payload), &sched); err != nil {
		return nil, fmt.Errorf("failed to decode manual schedule: %w", err)
	}
	return &sched, nil
}

func (s *Store) DeleteManualSchedule(ctx context.Context, campaignID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `DELETE FROM manual_schedules WHERE campaign_id = ?`, campaignID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return plan.ErrManualScheduleNotFound
	}
	return nil
}
