package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"FlareCast/internal/domain/models"
	"FlareCast/internal/domain/repository"
	pkgch "FlareCast/pkg/clickhouse"
)

const predictionColumns = "id, ts, probability, flare_class, is_anomaly, anomaly_score, confidence, provenance, reason, model_used"

// PredictionSchema returns the DDL for the prediction history table.
func PredictionSchema(table string) []string {
	return []string{fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	id            String,
	ts            DateTime64(3, 'UTC'),
	probability   Float64,
	flare_class   LowCardinality(String),
	is_anomaly    UInt8,
	anomaly_score Nullable(Float64),
	confidence    LowCardinality(String),
	provenance    LowCardinality(String),
	reason        String,
	model_used    LowCardinality(String)
) ENGINE = MergeTree
PARTITION BY toYYYYMM(ts)
ORDER BY (ts, id)
TTL toDateTime(ts) + INTERVAL 180 DAY`, table)}
}

// ClickHouseStore persists predictions into ClickHouse.
type ClickHouseStore struct {
	client *pkgch.Client
	db     *sql.DB
	table  string
}

func NewClickHouseStore(client *pkgch.Client, table string) repository.PredictionStore {
	if table == "" {
		table = "predictions"
	}
	return &ClickHouseStore{client: client, db: client.DB(), table: table}
}

func (s *ClickHouseStore) Init(ctx context.Context) error {
	return s.client.InitSchema(ctx, PredictionSchema(s.table))
}

func (s *ClickHouseStore) Store(ctx context.Context, p *models.PredictionResult) error {
	if p == nil {
		return nil
	}
	q := fmt.Sprintf("INSERT INTO %s (%s) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)", s.table, predictionColumns)
	_, err := s.db.ExecContext(ctx, q, predictionArgs(p)...)
	if err != nil {
		return fmt.Errorf("insert prediction: %w", err)
	}
	return nil
}

func (s *ClickHouseStore) Recent(ctx context.Context, limit int) ([]*models.PredictionResult, error) {
	if limit <= 0 {
		return nil, nil
	}
	q := fmt.Sprintf("SELECT %s FROM %s ORDER BY ts DESC LIMIT ?", predictionColumns, s.table)
	rows, err := s.db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, fmt.Errorf("query predictions: %w", err)
	}
	defer rows.Close()

	out := make([]*models.PredictionResult, 0, limit)
	for rows.Next() {
		p, err := scanPrediction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *ClickHouseStore) Health(ctx context.Context) error {
	return s.client.Health(ctx)
}

// Close is a no-op; the client is released by its owner.
func (s *ClickHouseStore) Close() error { return nil }

func predictionArgs(p *models.PredictionResult) []interface{} {
	var anomaly uint8
	if p.IsAnomaly {
		anomaly = 1
	}
	var score sql.NullFloat64
	if p.AnomalyScore != nil {
		score = sql.NullFloat64{Float64: *p.AnomalyScore, Valid: true}
	}
	return []interface{}{
		p.ID,
		p.Timestamp.UTC(),
		p.Probability,
		string(p.FlareClass),
		anomaly,
		score,
		string(p.Confidence),
		string(p.Provenance),
		p.Reason,
		p.ModelUsed,
	}
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanPrediction(row rowScanner) (*models.PredictionResult, error) {
	var (
		p                             models.PredictionResult
		ts                            time.Time
		class, confidence, provenance string
		anomaly                       uint8
		score                         sql.NullFloat64
	)
	if err := row.Scan(&p.ID, &ts, &p.Probability, &class, &anomaly, &score, &confidence, &provenance, &p.Reason, &p.ModelUsed); err != nil {
		return nil, fmt.Errorf("scan prediction: %w", err)
	}
	p.Timestamp = ts.UTC()
	p.FlareClass = models.FlareClass(class)
	p.IsAnomaly = anomaly == 1
	if score.Valid {
		v := score.Float64
		p.AnomalyScore = &v
	}
	p.Confidence = models.ConfidenceBand(confidence)
	p.Provenance = models.Provenance(provenance)
	return &p, nil
}
