package numbers

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/ringflowhq/ringflow/internal/billing"
	"github.com/ringflowhq/ringflow/internal/telephony"
)

// ErrPlanLimit is returned when a purchase would exceed the user's plan.
var ErrPlanLimit = errors.New("plan number limit reached")

// ErrNotRecorded is returned when the provider-side purchase succeeded
// but the local record could not be written and the compensating release
// also failed. The number exists upstream but is unknown locally.
var ErrNotRecorded = errors.New("number purchased but not recorded, contact support")

// Service coordinates number lifecycle between the telephony provider
// and the local store.
type Service struct {
	store        *Store
	provider     telephony.Provider
	entitlements *billing.Entitlements

	// webhookBase prefixes the voice URLs registered on purchase,
	// e.g. "https://api.example.com".
	webhookBase string
}

// NewService creates a number service.
func NewService(store *Store, provider telephony.Provider, entitlements *billing.Entitlements, webhookBase string) *Service {
	return &Service{
		store:        store,
		provider:     provider,
		entitlements: entitlements,
		webhookBase:  webhookBase,
	}
}

// Search proxies an available-number search to the provider.
func (s *Service) Search(ctx context.Context, country, areaCode string) ([]telephony.AvailableNumber, error) {
	return s.provider.SearchAvailable(ctx, country, areaCode)
}

// Purchase buys a number for a user. The sequence is two-phase:
// provider-side purchase first, then the local record. If the local
// write fails, the purchase is compensated by releasing the number
// upstream; if that release fails too, the caller gets ErrNotRecorded.
func (s *Service) Purchase(ctx context.Context, userID, phoneNumber, friendlyName string) (*PhoneNumber, error) {
	owned, err := s.store.CountNumbers(ctx, userID)
	if err != nil {
		return nil, err
	}
	allowed, err := s.entitlements.CanAddNumber(ctx, userID, owned)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, ErrPlanLimit
	}

	purchased, err := s.provider.Purchase(ctx, phoneNumber, "")
	if err != nil {
		return nil, fmt.Errorf("provider purchase failed: %w", err)
	}

	n := &PhoneNumber{
		UserID:       userID,
		PhoneNumber:  purchased.PhoneNumber,
		ProviderSID:  purchased.SID,
		FriendlyName: friendlyName,
	}
	if err := s.store.CreateNumber(ctx, n); err != nil {
		if relErr := s.provider.Release(ctx, purchased.SID); relErr != nil {
			log.Printf("numbers: compensating release of %s failed: %v", purchased.SID, relErr)
			return nil, fmt.Errorf("%w: %v", ErrNotRecorded, err)
		}
		return nil, fmt.Errorf("recording purchase: %w", err)
	}

	// Point the number's inbound webhook at this service. A failure here
	// is recoverable later; the purchase itself stands.
	voiceURL := fmt.Sprintf("%s/voice/%s", s.webhookBase, n.ID)
	if err := s.provider.UpdateVoiceURL(ctx, purchased.SID, voiceURL); err != nil {
		log.Printf("numbers: registering voice url for %s: %v", n.ID, err)
	} else {
		n.VoiceURL = voiceURL
		_, _ = s.store.db.ExecContext(ctx,
			`UPDATE phone_numbers SET voice_url=? WHERE id=?`, voiceURL, n.ID)
	}

	return n, nil
}

// Release returns a number to the provider and removes the local record.
func (s *Service) Release(ctx context.Context, id string) error {
	n, err := s.store.GetNumber(ctx, id)
	if err != nil {
		return err
	}
	if err := s.provider.Release(ctx, n.ProviderSID); err != nil {
		return fmt.Errorf("provider release failed: %w", err)
	}
	return s.store.DeleteNumber(ctx, id)
}
