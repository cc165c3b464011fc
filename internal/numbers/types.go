package numbers

import "time"

// PhoneNumber is a purchased virtual number owned by a user. Its voice
// URL is the webhook the provider calls for inbound calls.
type PhoneNumber struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	PhoneNumber  string    `json:"phone_number"`
	ProviderSID  string    `json:"provider_sid"`
	FriendlyName string    `json:"friendly_name"`
	VoiceURL     string    `json:"voice_url"`
	Country      string    `json:"country"`
	CreatedAt    time.Time `json:"created_at"`
}
