package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/anshin-navi/discovery/internal/core/domain"
)

type CandidateRepository struct {
	db *sql.DB
}

func NewCandidateRepository(db *sql.DB) *CandidateRepository {
	return &CandidateRepository{db: db}
}

func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

func (r *CandidateRepository) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across api/worker startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026083101)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS candidate_restaurants (
	id TEXT PRIMARY KEY,
	place_id TEXT,
	name TEXT NOT NULL,
	address TEXT,
	lat DOUBLE PRECISION NOT NULL DEFAULT 0,
	lng DOUBLE PRECISION NOT NULL DEFAULT 0,
	website TEXT,
	phone TEXT,
	instagram TEXT,
	menus JSONB NOT NULL DEFAULT '[]'::jsonb,
	features JSONB NOT NULL DEFAULT '{}'::jsonb,
	sources JSONB NOT NULL DEFAULT '[]'::jsonb,
	signals JSONB NOT NULL DEFAULT '[]'::jsonb,
	reliability_score INTEGER NOT NULL DEFAULT 0,
	status TEXT NOT NULL,
	job_id TEXT,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_candidates_place_id ON candidate_restaurants(place_id);
CREATE INDEX IF NOT EXISTS idx_candidates_status ON candidate_restaurants(status);
CREATE INDEX IF NOT EXISTS idx_candidates_name_address ON candidate_restaurants(name, address);

CREATE TABLE IF NOT EXISTS collection_jobs (
	id TEXT PRIMARY KEY,
	area TEXT NOT NULL,
	status TEXT NOT NULL,
	collected_count INTEGER NOT NULL DEFAULT 0,
	saved_count INTEGER NOT NULL DEFAULT 0,
	failed_count INTEGER NOT NULL DEFAULT 0,
	error_message TEXT,
	created_at TIMESTAMPTZ NOT NULL,
	completed_at TIMESTAMPTZ
);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

const candidateColumns = `id, place_id, name, address, lat, lng, website, phone, instagram, menus, features, sources, signals, reliability_score, status, job_id, created_at, updated_at`

func (r *CandidateRepository) Create(ctx context.Context, c *domain.Candidate) error {
	menus, features, sources, signals, err := marshalCandidateJSON(c)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, `
INSERT INTO candidate_restaurants (
	`+candidateColumns+`
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18)
`,
		c.ID, c.PlaceID, c.Name, c.Address, c.Lat, c.Lng, c.Website, c.Phone, c.Instagram,
		menus, features, sources, signals, c.ReliabilityScore, string(c.Status), c.JobID,
		c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert candidate: %w", err)
	}
	return nil
}

func (r *CandidateRepository) GetByID(ctx context.Context, id string) (*domain.Candidate, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT `+candidateColumns+`
FROM candidate_restaurants
WHERE id = $1
`, id)
	return scanCandidate(row, "candidate "+id)
}

func (r *CandidateRepository) FindByPlaceID(ctx context.Context, placeID string) (*domain.Candidate, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT `+candidateColumns+`
FROM candidate_restaurants
WHERE place_id = $1
`, placeID)
	return scanCandidate(row, "candidate by place id")
}

func (r *CandidateRepository) FindByNameAddress(ctx context.Context, name, address string) (*domain.Candidate, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT `+candidateColumns+`
FROM candidate_restaurants
WHERE name = $1 AND address = $2
`, name, address)
	return scanCandidate(row, "candidate by name and address")
}

func (r *CandidateRepository) Update(ctx context.Context, c *domain.Candidate) error {
	menus, features, sources, signals, err := marshalCandidateJSON(c)
	if err != nil {
		return err
	}

	result, err := r.db.ExecContext(ctx, `
UPDATE candidate_restaurants
SET place_id = $2, website = $3, phone = $4, instagram = $5,
	menus = $6, features = $7, sources = $8, signals = $9,
	reliability_score = $10, status = $11, updated_at = $12
WHERE id = $1
`,
		c.ID, c.PlaceID, c.Website, c.Phone, c.Instagram,
		menus, features, sources, signals,
		c.ReliabilityScore, string(c.Status), c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update candidate: %w", err)
	}
	return requireRowAffected(result, "update candidate", c.ID)
}

func (r *CandidateRepository) AppendSource(ctx context.Context, id string, src domain.Evidence) error {
	raw, err := json.Marshal(src)
	if err != nil {
		return fmt.Errorf("marshal evidence: %w", err)
	}

	result, err := r.db.ExecContext(ctx, `
UPDATE candidate_restaurants
SET sources = sources || $2::jsonb, updated_at = $3
WHERE id = $1
`, id, raw, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("append source: %w", err)
	}
	return requireRowAffected(result, "append source", id)
}

func (r *CandidateRepository) ListByStatus(ctx context.Context, status domain.CandidateStatus, limit, offset int) ([]domain.Candidate, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT `+candidateColumns+`
FROM candidate_restaurants
WHERE status = $1
ORDER BY reliability_score DESC, created_at DESC
LIMIT $2 OFFSET $3
`, string(status), limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list candidates: %w", err)
	}
	defer rows.Close()

	var out []domain.Candidate
	for rows.Next() {
		c, err := scanCandidateFrom(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate candidates: %w", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCandidate(row *sql.Row, what string) (*domain.Candidate, error) {
	c, err := scanCandidateFrom(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrNotFound, what, err)
		}
		return nil, err
	}
	return c, nil
}

func scanCandidateFrom(row rowScanner) (*domain.Candidate, error) {
	var c domain.Candidate
	var placeID, address, website, phone, instagram, jobID sql.NullString
	var menusRaw, featuresRaw, sourcesRaw, signalsRaw []byte
	var status string

	err := row.Scan(
		&c.ID, &placeID, &c.Name, &address, &c.Lat, &c.Lng, &website, &phone, &instagram,
		&menusRaw, &featuresRaw, &sourcesRaw, &signalsRaw, &c.ReliabilityScore,
		&status, &jobID, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan candidate: %w", err)
	}

	c.PlaceID = placeID.String
	c.Address = address.String
	c.Website = website.String
	c.Phone = phone.String
	c.Instagram = instagram.String
	c.JobID = jobID.String
	c.Status = domain.CandidateStatus(status)

	if err := json.Unmarshal(menusRaw, &c.Menus); err != nil {
		return nil, fmt.Errorf("unmarshal menus: %w", err)
	}
	if err := json.Unmarshal(featuresRaw, &c.Features); err != nil {
		return nil, fmt.Errorf("unmarshal features: %w", err)
	}
	if err := json.Unmarshal(sourcesRaw, &c.Sources); err != nil {
		return nil, fmt.Errorf("unmarshal sources: %w", err)
	}
	if err := json.Unmarshal(signalsRaw, &c.Signals); err != nil {
		return nil, fmt.Errorf("unmarshal signals: %w", err)
	}
	return &c, nil
}

func marshalCandidateJSON(c *domain.Candidate) (menus, features, sources, signals []byte, err error) {
	if menus, err = json.Marshal(orEmptyMenus(c.Menus)); err != nil {
		return nil, nil, nil, nil, fmt.Errorf("marshal menus: %w", err)
	}
	if features, err = json.Marshal(orEmptyFeatures(c.Features)); err != nil {
		return nil, nil, nil, nil, fmt.Errorf("marshal features: %w", err)
	}
	if sources, err = json.Marshal(orEmptyEvidence(c.Sources)); err != nil {
		return nil, nil, nil, nil, fmt.Errorf("marshal sources: %w", err)
	}
	if signals, err = json.Marshal(orEmptySignals(c.Signals)); err != nil {
		return nil, nil, nil, nil, fmt.Errorf("marshal signals: %w", err)
	}
	return menus, features, sources, signals, nil
}

func requireRowAffected(result sql.Result, operation, id string) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s rows affected: %w", operation, err)
	}
	if affected == 0 {
		return domain.WrapError(domain.ErrNotFound, operation, fmt.Errorf("no row for %s", id))
	}
	return nil
}

func orEmptyMenus(v []domain.MenuItem) []domain.MenuItem {
	if v == nil {
		return []domain.MenuItem{}
	}
	return v
}

func orEmptyFeatures(v map[string]domain.FeatureValue) map[string]domain.FeatureValue {
	if v == nil {
		return map[string]domain.FeatureValue{}
	}
	return v
}

func orEmptyEvidence(v []domain.Evidence) []domain.Evidence {
	if v == nil {
		return []domain.Evidence{}
	}
	return v
}

func orEmptySignals(v []domain.Signal) []domain.Signal {
	if v == nil {
		return []domain.Signal{}
	}
	return v
}
