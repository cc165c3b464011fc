package flow

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/ringflowhq/ringflow/internal/db"
)

// ErrNumberInUse is returned when saving a flow against a number that
// already has a different active flow.
var ErrNumberInUse = errors.New("number already has an active flow")

// Store provides CRUD operations for flow documents.
type Store struct {
	db *db.DB
}

// NewStore creates a new flow store.
func NewStore(d *db.DB) *Store {
	return &Store{db: d}
}

// CreateFlow inserts a new flow. At most one active flow may be bound to
// a number at a time; this is enforced here, at save time.
func (s *Store) CreateFlow(ctx context.Context, f *Flow) error {
	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	f.CreatedAt = now
	f.UpdatedAt = now

	if f.IsActive {
		if err := s.checkNumberFree(ctx, f.NumberID, f.ID); err != nil {
			return err
		}
	}

	configJSON, err := EncodeConfig(f.Config)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO flows (id, user_id, flow_name, flow_config, number_id, is_active, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		f.ID, f.UserID, f.FlowName, configJSON, f.NumberID, f.IsActive, f.CreatedAt, f.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("creating flow: %w", err)
	}
	return nil
}

// GetFlow retrieves a flow by ID, upgrading legacy documents.
func (s *Store) GetFlow(ctx context.Context, id string) (*Flow, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, flow_name, flow_config, number_id, is_active, created_at, updated_at
		 FROM flows WHERE id = ?`, id)
	f, err := scanFlow(row)
	if err != nil {
		return nil, fmt.Errorf("getting flow: %w", err)
	}
	return f, nil
}

// GetActiveFlowForNumber returns the active flow bound to a number, or
// sql.ErrNoRows if the number has none.
func (s *Store) GetActiveFlowForNumber(ctx context.Context, numberID string) (*Flow, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, flow_name, flow_config, number_id, is_active, created_at, updated_at
		 FROM flows WHERE number_id = ? AND is_active = 1`, numberID)
	f, err := scanFlow(row)
	if err != nil {
		return nil, fmt.Errorf("getting flow for number: %w", err)
	}
	return f, nil
}

// ListFlows returns all flows for a user, newest first.
func (s *Store) ListFlows(ctx context.Context, userID string) ([]Flow, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, flow_name, flow_config, number_id, is_active, created_at, updated_at
		 FROM flows WHERE user_id = ? ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("listing flows: %w", err)
	}
	defer rows.Close()

	var result []Flow
	for rows.Next() {
		f, err := scanFlow(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning flow: %w", err)
		}
		result = append(result, *f)
	}
	return result, rows.Err()
}

// UpdateFlow updates a flow's name, config, binding and active state.
func (s *Store) UpdateFlow(ctx context.Context, f *Flow) error {
	f.UpdatedAt = time.Now().UTC()

	if f.IsActive {
		if err := s.checkNumberFree(ctx, f.NumberID, f.ID); err != nil {
			return err
		}
	}

	configJSON, err := EncodeConfig(f.Config)
	if err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE flows SET flow_name=?, flow_config=?, number_id=?, is_active=?, updated_at=?
		 WHERE id=?`,
		f.FlowName, configJSON, f.NumberID, f.IsActive, f.UpdatedAt, f.ID,
	)
	if err != nil {
		return fmt.Errorf("updating flow: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// SetActive flips a flow's active state. Activating checks the
// one-active-flow-per-number rule first.
func (s *Store) SetActive(ctx context.Context, id string, active bool) error {
	if active {
		f, err := s.GetFlow(ctx, id)
		if err != nil {
			return err
		}
		if err := s.checkNumberFree(ctx, f.NumberID, id); err != nil {
			return err
		}
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE flows SET is_active=?, updated_at=? WHERE id=?`,
		active, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("setting flow active state: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// DeleteFlow removes a flow by ID.
func (s *Store) DeleteFlow(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM flows WHERE id=?`, id)
	if err != nil {
		return fmt.Errorf("deleting flow: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// checkNumberFree returns ErrNumberInUse if another active flow is
// already bound to the number.
func (s *Store) checkNumberFree(ctx context.Context, numberID, excludeID string) error {
	var existing string
	err := s.db.QueryRowContext(ctx,
		`SELECT id FROM flows WHERE number_id = ? AND is_active = 1 AND id != ?`,
		numberID, excludeID).Scan(&existing)
	switch {
	case err == sql.ErrNoRows:
		return nil
	case err != nil:
		return fmt.Errorf("checking number binding: %w", err)
	default:
		return ErrNumberInUse
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanFlow(row rowScanner) (*Flow, error) {
	f := &Flow{}
	var configJSON string
	if err := row.Scan(&f.ID, &f.UserID, &f.FlowName, &configJSON, &f.NumberID,
		&f.IsActive, &f.CreatedAt, &f.UpdatedAt); err != nil {
		return nil, err
	}
	cfg, err := DecodeConfig([]byte(configJSON))
	if err != nil {
		return nil, err
	}
	f.Config = cfg
	return f, nil
}
