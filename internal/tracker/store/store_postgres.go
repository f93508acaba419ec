package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"driverdesk/internal/onboarding/flow"
	"driverdesk/internal/onboarding/gate"
	"driverdesk/internal/onboarding/staging"
	"driverdesk/internal/tracker/models"
	"driverdesk/pkg/domain"
	"driverdesk/pkg/platform/sentinel"
	"driverdesk/pkg/platform/tx"
)

// PostgresStore persists trackers in PostgreSQL with forms as JSONB. Calls
// made inside tx.Run use the caller's transaction.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed tracker store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const trackerColumns = `id, company_id, current_step, completed, needs_flatbed_training, forms, notes, version, created_at, updated_at`

func (s *PostgresStore) Create(ctx context.Context, t *models.Tracker) error {
	forms, err := json.Marshal(t.Forms)
	if err != nil {
		return fmt.Errorf("encode forms: %w", err)
	}
	query := `
		INSERT INTO trackers (` + trackerColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, 1, $8, $9)
		ON CONFLICT (id) DO NOTHING
	`
	res, err := tx.Conn(ctx, s.db).ExecContext(ctx, query,
		t.ID.String(), t.CompanyID.String(), string(t.Status.CurrentStep), t.Status.Completed,
		t.NeedsFlatbedTraining, forms, t.Notes, t.CreatedAt, t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create tracker: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sentinel.ErrConflict
	}
	t.Version = 1
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id domain.TrackerID) (*models.Tracker, error) {
	row := tx.Conn(ctx, s.db).QueryRowContext(ctx, `SELECT `+trackerColumns+` FROM trackers WHERE id = $1`, id.String())
	t, err := scanTracker(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find tracker: %w", err)
	}
	return t, nil
}

func (s *PostgresStore) ListByCompany(ctx context.Context, companyID domain.CompanyID) ([]*models.Tracker, error) {
	return s.list(ctx, `SELECT `+trackerColumns+` FROM trackers WHERE company_id = $1 ORDER BY created_at`,
		companyID.String())
}

func (s *PostgresStore) ListByIDs(ctx context.Context, ids []domain.TrackerID) ([]*models.Tracker, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	raw := make([]string, len(ids))
	for i, id := range ids {
		raw[i] = id.String()
	}
	return s.list(ctx, `SELECT `+trackerColumns+` FROM trackers WHERE id = ANY($1::uuid[]) ORDER BY created_at`,
		pq.Array(raw))
}

func (s *PostgresStore) list(ctx context.Context, query string, args ...any) ([]*models.Tracker, error) {
	rows, err := tx.Conn(ctx, s.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list trackers: %w", err)
	}
	defer rows.Close()

	var out []*models.Tracker
	for rows.Next() {
		t, err := scanTracker(rows)
		if err != nil {
			return nil, fmt.Errorf("scan tracker: %w", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list trackers: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) Update(ctx context.Context, t *models.Tracker, expectedVersion int64) error {
	forms, err := json.Marshal(t.Forms)
	if err != nil {
		return fmt.Errorf("encode forms: %w", err)
	}
	query := `
		UPDATE trackers SET
			company_id = $2,
			current_step = $3,
			completed = $4,
			needs_flatbed_training = $5,
			forms = $6,
			notes = $7,
			updated_at = $8,
			version = version + 1
		WHERE id = $1 AND version = $9
	`
	err = tx.Run(ctx, s.db, func(ctx context.Context) error {
		conn := tx.Conn(ctx, s.db)
		res, err := conn.ExecContext(ctx, query,
			t.ID.String(), t.CompanyID.String(), string(t.Status.CurrentStep), t.Status.Completed,
			t.NeedsFlatbedTraining, forms, t.Notes, t.UpdatedAt, expectedVersion)
		if err != nil {
			return fmt.Errorf("update tracker: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("update tracker: %w", err)
		}
		if n > 0 {
			return nil
		}
		var exists bool
		if err := conn.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM trackers WHERE id = $1)`, t.ID.String()).Scan(&exists); err != nil {
			return fmt.Errorf("update tracker: %w", err)
		}
		if !exists {
			return sentinel.ErrNotFound
		}
		return sentinel.ErrConflict
	})
	if err != nil {
		return err
	}
	t.Version = expectedVersion + 1
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTracker(row rowScanner) (*models.Tracker, error) {
	var (
		t           models.Tracker
		id, company string
		step        string
		forms       []byte
	)
	if err := row.Scan(&id, &company, &step, &t.Status.Completed, &t.NeedsFlatbedTraining,
		&forms, &t.Notes, &t.Version, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}
	parsedID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("parse tracker id: %w", err)
	}
	parsedCompany, err := uuid.Parse(company)
	if err != nil {
		return nil, fmt.Errorf("parse company id: %w", err)
	}
	t.ID = domain.TrackerID(parsedID)
	t.CompanyID = domain.CompanyID(parsedCompany)
	t.Status.CurrentStep = flow.StepPath(step)
	t.Forms = map[gate.Section]staging.Fields{}
	if len(forms) > 0 {
		if err := json.Unmarshal(forms, &t.Forms); err != nil {
			return nil, fmt.Errorf("decode forms: %w", err)
		}
	}
	return &t, nil
}
