// Package telephony is the REST boundary to the telephony provider:
// number search, purchase, release and webhook registration. It owns no
// call-routing logic.
package telephony

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// AvailableNumber is one purchasable number from a search.
type AvailableNumber struct {
	PhoneNumber  string `json:"phone_number"`
	FriendlyName string `json:"friendly_name"`
	Locality     string `json:"locality"`
	Region       string `json:"region"`
	Country      string `json:"iso_country"`
}

// PurchasedNumber is the provider's record of a bought number.
type PurchasedNumber struct {
	SID          string `json:"sid"`
	PhoneNumber  string `json:"phone_number"`
	FriendlyName string `json:"friendly_name"`
	VoiceURL     string `json:"voice_url"`
}

// Provider is the operations the rest of the system needs from the
// telephony vendor. *Client implements it against the real API; tests
// substitute fakes.
type Provider interface {
	SearchAvailable(ctx context.Context, country, areaCode string) ([]AvailableNumber, error)
	Purchase(ctx context.Context, phoneNumber, voiceURL string) (*PurchasedNumber, error)
	Release(ctx context.Context, sid string) error
	UpdateVoiceURL(ctx context.Context, sid, voiceURL string) error
}

// APIError is a structured error response from the provider.
type APIError struct {
	Code     int    `json:"code"`
	Message  string `json:"message"`
	MoreInfo string `json:"more_info"`
	Status   int    `json:"status"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("telephony provider error %d: %s", e.Code, e.Message)
}

// Client talks to the provider's account-scoped REST API.
type Client struct {
	baseURL    string
	accountSID string
	authToken  string
	client     *http.Client
}

// NewClient creates a provider client for the given account credentials.
func NewClient(baseURL, accountSID, authToken string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		accountSID: accountSID,
		authToken:  authToken,
		client: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

func (c *Client) accountPath(suffix string) string {
	return fmt.Sprintf("%s/2010-04-01/Accounts/%s%s", c.baseURL, c.accountSID, suffix)
}

// SearchAvailable lists purchasable local numbers for a country,
// optionally narrowed by area code.
func (c *Client) SearchAvailable(ctx context.Context, country, areaCode string) ([]AvailableNumber, error) {
	if country == "" {
		country = "US"
	}
	endpoint := c.accountPath("/AvailablePhoneNumbers/" + country + "/Local.json")
	if areaCode != "" {
		endpoint += "?AreaCode=" + url.QueryEscape(areaCode)
	}

	var payload struct {
		AvailablePhoneNumbers []AvailableNumber `json:"available_phone_numbers"`
	}
	if err := c.do(ctx, http.MethodGet, endpoint, nil, &payload); err != nil {
		return nil, fmt.Errorf("searching numbers: %w", err)
	}
	return payload.AvailablePhoneNumbers, nil
}

// Purchase buys a number and registers its voice webhook in one call.
func (c *Client) Purchase(ctx context.Context, phoneNumber, voiceURL string) (*PurchasedNumber, error) {
	form := url.Values{}
	form.Set("PhoneNumber", phoneNumber)
	if voiceURL != "" {
		form.Set("VoiceUrl", voiceURL)
		form.Set("VoiceMethod", http.MethodPost)
	}

	var num PurchasedNumber
	if err := c.do(ctx, http.MethodPost, c.accountPath("/IncomingPhoneNumbers.json"), form, &num); err != nil {
		return nil, fmt.Errorf("purchasing number: %w", err)
	}
	return &num, nil
}

// Release returns a purchased number to the provider.
func (c *Client) Release(ctx context.Context, sid string) error {
	if err := c.do(ctx, http.MethodDelete, c.accountPath("/IncomingPhoneNumbers/"+sid+".json"), nil, nil); err != nil {
		return fmt.Errorf("releasing number: %w", err)
	}
	return nil
}

// UpdateVoiceURL points a purchased number's inbound-call webhook at the
// given URL.
func (c *Client) UpdateVoiceURL(ctx context.Context, sid, voiceURL string) error {
	form := url.Values{}
	form.Set("VoiceUrl", voiceURL)
	form.Set("VoiceMethod", http.MethodPost)

	if err := c.do(ctx, http.MethodPost, c.accountPath("/IncomingPhoneNumbers/"+sid+".json"), form, nil); err != nil {
		return fmt.Errorf("updating voice url: %w", err)
	}
	return nil
}

// do issues one authenticated request and decodes the JSON response.
// Non-2xx responses are decoded into an APIError when the provider sent
// one.
func (c *Client) do(ctx context.Context, method, endpoint string, form url.Values, out any) error {
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return err
	}
	req.SetBasicAuth(c.accountSID, c.authToken)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var apiErr APIError
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Message != "" {
			return &apiErr
		}
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	if out == nil || len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, out)
}
