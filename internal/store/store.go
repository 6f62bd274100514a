// Package store persists completed runs to PostgreSQL.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jaehyun-dev/concord/internal/contracts"
	"github.com/jaehyun-dev/concord/internal/engine"
)

// Repository handles run persistence and retrieval.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a run repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// EnsureSchema creates the tables if they do not exist.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	ddl := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			run_id        TEXT PRIMARY KEY,
			run_date      TIMESTAMPTZ NOT NULL,
			regime        TEXT NOT NULL,
			breadth       DOUBLE PRECISION NOT NULL,
			data_mode     TEXT NOT NULL,
			requested     INT NOT NULL,
			analyzed      INT NOT NULL,
			cache_hits    INT NOT NULL,
			duration_ms   BIGINT NOT NULL,
			created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS consensus_records (
			run_id           TEXT NOT NULL REFERENCES runs(run_id) ON DELETE CASCADE,
			symbol           TEXT NOT NULL,
			sector           TEXT NOT NULL,
			score            DOUBLE PRECISION NOT NULL,
			agree_count      INT NOT NULL,
			strong_buy_count INT NOT NULL,
			strategies_run   INT NOT NULL,
			recommendation   TEXT NOT NULL,
			confidence       DOUBLE PRECISION NOT NULL,
			tier             TEXT NOT NULL,
			risk             TEXT NOT NULL,
			rationale        TEXT NOT NULL,
			price            DOUBLE PRECISION NOT NULL,
			upside           DOUBLE PRECISION NOT NULL,
			replacement_for  TEXT NOT NULL DEFAULT '',
			scores           JSONB NOT NULL,
			rank             INT NOT NULL,
			PRIMARY KEY (run_id, symbol)
		)`,
		`CREATE TABLE IF NOT EXISTS removals (
			run_id  TEXT NOT NULL REFERENCES runs(run_id) ON DELETE CASCADE,
			symbol  TEXT NOT NULL,
			stage   TEXT NOT NULL,
			reasons JSONB NOT NULL,
			PRIMARY KEY (run_id, symbol, stage)
		)`,
		`CREATE TABLE IF NOT EXISTS portfolio_positions (
			run_id TEXT NOT NULL REFERENCES runs(run_id) ON DELETE CASCADE,
			symbol TEXT NOT NULL,
			sector TEXT NOT NULL,
			tier   TEXT NOT NULL,
			weight DOUBLE PRECISION NOT NULL,
			entry  DOUBLE PRECISION NOT NULL,
			stop   DOUBLE PRECISION NOT NULL,
			target DOUBLE PRECISION NOT NULL,
			PRIMARY KEY (run_id, symbol)
		)`,
		`CREATE TABLE IF NOT EXISTS failures (
			run_id TEXT NOT NULL REFERENCES runs(run_id) ON DELETE CASCADE,
			symbol TEXT NOT NULL,
			stage  TEXT NOT NULL,
			reason TEXT NOT NULL,
			PRIMARY KEY (run_id, symbol)
		)`,
	}

	for _, stmt := range ddl {
		if _, err := r.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

// SaveRun persists one complete run in a single transaction.
func (r *Repository) SaveRun(ctx context.Context, result *engine.Result) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO runs (run_id, run_date, regime, breadth, data_mode, requested, analyzed, cache_hits, duration_ms)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, result.Run.RunID, result.Run.Date, string(result.Run.Regime), result.Run.Breadth, result.Run.DataMode,
		result.Report.Requested, result.Report.Analyzed, result.Report.CacheHits, result.Duration.Milliseconds())
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	for rank, rec := range result.Records {
		scores, err := json.Marshal(rec.Scores)
		if err != nil {
			return fmt.Errorf("marshal scores for %s: %w", rec.Symbol, err)
		}
		_, err = tx.Exec(ctx, `
			INSERT INTO consensus_records (
				run_id, symbol, sector, score, agree_count, strong_buy_count, strategies_run,
				recommendation, confidence, tier, risk, rationale, price, upside, replacement_for, scores, rank
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		`, result.Run.RunID, rec.Symbol, rec.Sector, rec.Score, rec.AgreeCount, rec.StrongBuyCount,
			rec.StrategiesRun, rec.Recommendation.String(), rec.Confidence, rec.Tier.String(),
			string(rec.Risk), rec.Rationale, rec.Price, rec.Upside, rec.ReplacementFor, scores, rank)
		if err != nil {
			return fmt.Errorf("insert consensus record %s: %w", rec.Symbol, err)
		}
	}

	removals := make([]contracts.Removal, 0, len(result.RemovedByGuardrail)+len(result.RemovedByRegime))
	removals = append(removals, result.RemovedByGuardrail...)
	removals = append(removals, result.RemovedByRegime...)
	for _, rem := range removals {
		reasons, err := json.Marshal(rem.Reasons)
		if err != nil {
			return fmt.Errorf("marshal reasons for %s: %w", rem.Symbol, err)
		}
		_, err = tx.Exec(ctx, `
			INSERT INTO removals (run_id, symbol, stage, reasons) VALUES ($1, $2, $3, $4)
		`, result.Run.RunID, rem.Symbol, rem.Stage, reasons)
		if err != nil {
			return fmt.Errorf("insert removal %s: %w", rem.Symbol, err)
		}
	}

	if result.Portfolio != nil {
		for _, pos := range result.Portfolio.Entries {
			_, err = tx.Exec(ctx, `
				INSERT INTO portfolio_positions (run_id, symbol, sector, tier, weight, entry, stop, target)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			`, result.Run.RunID, pos.Symbol, pos.Sector, pos.Tier.String(), pos.Weight, pos.Entry, pos.Stop, pos.Target)
			if err != nil {
				return fmt.Errorf("insert position %s: %w", pos.Symbol, err)
			}
		}
	}

	for _, f := range result.Report.Failures {
		_, err = tx.Exec(ctx, `
			INSERT INTO failures (run_id, symbol, stage, reason) VALUES ($1, $2, $3, $4)
		`, result.Run.RunID, f.Symbol, f.Stage, f.Reason)
		if err != nil {
			return fmt.Errorf("insert failure %s: %w", f.Symbol, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// RunSummary is the stored header of one run.
type RunSummary struct {
	RunID     string           `json:"run_id"`
	Date      time.Time        `json:"date"`
	Regime    contracts.Regime `json:"regime"`
	Breadth   float64          `json:"breadth"`
	DataMode  string           `json:"data_mode"`
	Requested int              `json:"requested"`
	Analyzed  int              `json:"analyzed"`
	CacheHits int              `json:"cache_hits"`
	Duration  time.Duration    `json:"duration"`
}

// LatestRun returns the most recent run header, or nil when none exist.
func (r *Repository) LatestRun(ctx context.Context) (*RunSummary, error) {
	var (
		summary    RunSummary
		regime     string
		durationMS int64
	)
	err := r.pool.QueryRow(ctx, `
		SELECT run_id, run_date, regime, breadth, data_mode, requested, analyzed, cache_hits, duration_ms
		FROM runs ORDER BY run_date DESC LIMIT 1
	`).Scan(&summary.RunID, &summary.Date, &regime, &summary.Breadth, &summary.DataMode,
		&summary.Requested, &summary.Analyzed, &summary.CacheHits, &durationMS)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query latest run: %w", err)
	}

	summary.Regime = contracts.Regime(regime)
	summary.Duration = time.Duration(durationMS) * time.Millisecond
	return &summary, nil
}

// ConsensusRecords returns the stored records of one run in rank order.
func (r *Repository) ConsensusRecords(ctx context.Context, runID string) ([]*contracts.ConsensusRecord, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT symbol, sector, score, agree_count, strong_buy_count, strategies_run,
		       recommendation, confidence, tier, risk, rationale, price, upside, replacement_for, scores
		FROM consensus_records WHERE run_id = $1 ORDER BY rank
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query consensus records: %w", err)
	}
	defer rows.Close()

	records := make([]*contracts.ConsensusRecord, 0)
	for rows.Next() {
		var (
			rec        contracts.ConsensusRecord
			recLabel   string
			tierLabel  string
			risk       string
			scoresJSON []byte
		)
		err := rows.Scan(&rec.Symbol, &rec.Sector, &rec.Score, &rec.AgreeCount, &rec.StrongBuyCount,
			&rec.StrategiesRun, &recLabel, &rec.Confidence, &tierLabel, &risk, &rec.Rationale,
			&rec.Price, &rec.Upside, &rec.ReplacementFor, &scoresJSON)
		if err != nil {
			return nil, fmt.Errorf("scan consensus record: %w", err)
		}
		rec.Recommendation = parseRecommendation(recLabel)
		rec.Tier = parseTier(tierLabel)
		rec.Risk = contracts.RiskClass(risk)
		if err := json.Unmarshal(scoresJSON, &rec.Scores); err != nil {
			return nil, fmt.Errorf("unmarshal scores for %s: %w", rec.Symbol, err)
		}
		records = append(records, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate consensus records: %w", err)
	}
	return records, nil
}

// Portfolio returns the stored portfolio of one run ordered by weight.
func (r *Repository) Portfolio(ctx context.Context, runID string) (*contracts.Portfolio, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT symbol, sector, tier, weight, entry, stop, target
		FROM portfolio_positions WHERE run_id = $1 ORDER BY weight DESC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query portfolio: %w", err)
	}
	defer rows.Close()

	pf := &contracts.Portfolio{Entries: make([]contracts.PortfolioEntry, 0)}
	for rows.Next() {
		var (
			entry contracts.PortfolioEntry
			tier  string
		)
		if err := rows.Scan(&entry.Symbol, &entry.Sector, &tier, &entry.Weight, &entry.Entry, &entry.Stop, &entry.Target); err != nil {
			return nil, fmt.Errorf("scan position: %w", err)
		}
		entry.Tier = parseTier(tier)
		pf.Entries = append(pf.Entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate positions: %w", err)
	}
	return pf, nil
}

func parseTier(s string) contracts.Tier {
	switch s {
	case "HIGHEST":
		return contracts.TierHighest
	case "HIGH":
		return contracts.TierHigh
	case "MODERATE":
		return contracts.TierModerate
	default:
		return contracts.TierNone
	}
}

func parseRecommendation(s string) contracts.Recommendation {
	for _, r := range []contracts.Recommendation{
		contracts.StrongBuy, contracts.Buy, contracts.WeakBuy,
		contracts.Hold, contracts.WeakSell, contracts.Sell,
	} {
		if r.String() == s {
			return r
		}
	}
	return contracts.Hold
}
