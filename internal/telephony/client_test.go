package telephony

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestClient(handler http.HandlerFunc) (*Client, *httptest.Server) {
	srv := httptest.NewServer(handler)
	return NewClient(srv.URL, "AC123", "secret"), srv
}

func TestSearchAvailable(t *testing.T) {
	var gotPath, gotQuery string
	client, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		if user, pass, ok := r.BasicAuth(); !ok || user != "AC123" || pass != "secret" {
			t.Errorf("bad auth: %s %s", user, pass)
		}
		w.Write([]byte(`{"available_phone_numbers":[{"phone_number":"+14155550001","locality":"San Francisco"}]}`))
	})
	defer srv.Close()

	nums, err := client.SearchAvailable(context.Background(), "US", "415")
	if err != nil {
		t.Fatalf("SearchAvailable: %v", err)
	}
	if gotPath != "/2010-04-01/Accounts/AC123/AvailablePhoneNumbers/US/Local.json" {
		t.Errorf("path = %s", gotPath)
	}
	if gotQuery != "AreaCode=415" {
		t.Errorf("query = %s", gotQuery)
	}
	if len(nums) != 1 || nums[0].PhoneNumber != "+14155550001" {
		t.Errorf("results = %+v", nums)
	}
}

func TestPurchase(t *testing.T) {
	client, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Fatalf("parsing form: %v", err)
		}
		if got := r.PostFormValue("PhoneNumber"); got != "+14155550001" {
			t.Errorf("PhoneNumber = %s", got)
		}
		if got := r.PostFormValue("VoiceUrl"); got != "https://api.example.com/voice/n-1" {
			t.Errorf("VoiceUrl = %s", got)
		}
		w.Write([]byte(`{"sid":"PN1","phone_number":"+14155550001"}`))
	})
	defer srv.Close()

	num, err := client.Purchase(context.Background(), "+14155550001", "https://api.example.com/voice/n-1")
	if err != nil {
		t.Fatalf("Purchase: %v", err)
	}
	if num.SID != "PN1" {
		t.Errorf("SID = %s", num.SID)
	}
}

func TestAPIErrorDecoding(t *testing.T) {
	client, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"code":21422,"message":"number not available","status":400}`))
	})
	defer srv.Close()

	_, err := client.Purchase(context.Background(), "+14155550001", "")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error = %v, want APIError", err)
	}
	if apiErr.Code != 21422 {
		t.Errorf("Code = %d", apiErr.Code)
	}
}

func TestReleaseUnexpectedStatus(t *testing.T) {
	client, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete {
			t.Errorf("method = %s, want DELETE", r.Method)
		}
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("upstream down"))
	})
	defer srv.Close()

	if err := client.Release(context.Background(), "PN1"); err == nil {
		t.Fatal("expected error on 502")
	}
}

func TestReleaseNoContent(t *testing.T) {
	client, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	defer srv.Close()

	if err := client.Release(context.Background(), "PN1"); err != nil {
		t.Fatalf("Release: %v", err)
	}
}
