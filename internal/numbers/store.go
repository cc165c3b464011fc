package numbers

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/ringflowhq/ringflow/internal/db"
)

// Store provides CRUD operations for purchased numbers.
type Store struct {
	db *db.DB
}

// NewStore creates a new numbers store.
func NewStore(d *db.DB) *Store {
	return &Store{db: d}
}

// CreateNumber records a purchased number.
func (s *Store) CreateNumber(ctx context.Context, n *PhoneNumber) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	n.CreatedAt = time.Now().UTC()
	if n.Country == "" {
		n.Country = "US"
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO phone_numbers (id, user_id, phone_number, provider_sid, friendly_name, voice_url, country, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		n.ID, n.UserID, n.PhoneNumber, n.ProviderSID, n.FriendlyName, n.VoiceURL, n.Country, n.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("creating number: %w", err)
	}
	return nil
}

// GetNumber retrieves a number by ID.
func (s *Store) GetNumber(ctx context.Context, id string) (*PhoneNumber, error) {
	n := &PhoneNumber{}
	err := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, phone_number, provider_sid, friendly_name, voice_url, country, created_at
		 FROM phone_numbers WHERE id = ?`, id,
	).Scan(&n.ID, &n.UserID, &n.PhoneNumber, &n.ProviderSID, &n.FriendlyName, &n.VoiceURL, &n.Country, &n.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("getting number: %w", err)
	}
	return n, nil
}

// ListNumbers returns all numbers a user owns, oldest first.
func (s *Store) ListNumbers(ctx context.Context, userID string) ([]PhoneNumber, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, phone_number, provider_sid, friendly_name, voice_url, country, created_at
		 FROM phone_numbers WHERE user_id = ? ORDER BY created_at`, userID)
	if err != nil {
		return nil, fmt.Errorf("listing numbers: %w", err)
	}
	defer rows.Close()

	var result []PhoneNumber
	for rows.Next() {
		var n PhoneNumber
		if err := rows.Scan(&n.ID, &n.UserID, &n.PhoneNumber, &n.ProviderSID, &n.FriendlyName,
			&n.VoiceURL, &n.Country, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning number: %w", err)
		}
		result = append(result, n)
	}
	return result, rows.Err()
}

// CountNumbers reports how many numbers a user owns.
func (s *Store) CountNumbers(ctx context.Context, userID string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM phone_numbers WHERE user_id = ?`, userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting numbers: %w", err)
	}
	return count, nil
}

// DeleteNumber removes a number record (flows bound to it cascade).
func (s *Store) DeleteNumber(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM phone_numbers WHERE id=?`, id)
	if err != nil {
		return fmt.Errorf("deleting number: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
