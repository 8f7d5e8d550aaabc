package registry

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/user/cryptodash/backend/internal/models"
)

// recordedRequest captures what the fake backend received.
type recordedRequest struct {
	Method string
	Path   string
	Body   string
}

type recorder struct {
	mu   sync.Mutex
	reqs []recordedRequest
}

func (r *recorder) add(req recordedRequest) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reqs = append(r.reqs, req)
}

func (r *recorder) first() recordedRequest {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.reqs) == 0 {
		return recordedRequest{}
	}
	return r.reqs[0]
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.reqs)
}

func newBackend(t *testing.T, status int, response string) (*Client, *recorder) {
	t.Helper()
	seen := &recorder{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		seen.add(recordedRequest{Method: r.Method, Path: r.URL.Path, Body: string(body)})
		if response != "" {
			w.Header().Set("Content-Type", "application/json")
		}
		w.WriteHeader(status)
		io.WriteString(w, response)
	}))
	t.Cleanup(srv.Close)
	return NewClient(srv.URL+"/", 2*time.Second, nil), seen
}

func TestList(t *testing.T) {
	c, seen := newBackend(t, http.StatusOK, `[{"id":1,"symbol":"BTC","name":"Bitcoin"},{"id":2,"symbol":"ETH","name":"Ethereum"}]`)

	assets, err := c.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(assets) != 2 || assets[0] != (models.Asset{ID: 1, Symbol: "BTC", Name: "Bitcoin"}) {
		t.Errorf("assets = %+v", assets)
	}
	if r := seen.first(); r.Method != http.MethodGet || r.Path != "/cryptos" {
		t.Errorf("request = %+v", r)
	}
}

func TestCreateSendsJSON(t *testing.T) {
	c, seen := newBackend(t, http.StatusCreated, `{"id":3,"symbol":"ADA","name":"Cardano"}`)

	asset, err := c.Create(context.Background(), models.AssetInput{Symbol: "ADA", Name: "Cardano"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if asset.ID != 3 {
		t.Errorf("asset = %+v", asset)
	}

	r := seen.first()
	if r.Method != http.MethodPost || r.Path != "/cryptos" {
		t.Errorf("request = %+v", r)
	}
	var sent models.AssetInput
	if err := json.Unmarshal([]byte(r.Body), &sent); err != nil {
		t.Fatalf("body %q: %v", r.Body, err)
	}
	if sent != (models.AssetInput{Symbol: "ADA", Name: "Cardano"}) {
		t.Errorf("sent = %+v", sent)
	}
}

func TestUpdateAndDeletePaths(t *testing.T) {
	c, seen := newBackend(t, http.StatusOK, `{"id":7,"symbol":"SOL","name":"Solana"}`)

	if _, err := c.Update(context.Background(), 7, models.AssetInput{Symbol: "SOL", Name: "Solana"}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if r := seen.first(); r.Method != http.MethodPut || r.Path != "/cryptos/7" {
		t.Errorf("update request = %+v", r)
	}

	c, seen = newBackend(t, http.StatusNoContent, "")
	if err := c.Delete(context.Background(), 7); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if r := seen.first(); r.Method != http.MethodDelete || r.Path != "/cryptos/7" {
		t.Errorf("delete request = %+v", r)
	}
}

func TestSyncCoercesLooseNumbers(t *testing.T) {
	cases := map[string]string{
		"numbers": `{"price":64850.22,"volume":1234.5,"percent_change_24h":-0.8}`,
		"strings": `{"price":"64850.22","volume":"1234.5","percent_change_24h":"-0.8"}`,
		"mixed":   `{"price":"64850.22","volume":1234.5,"percent_change_24h":"-0.8","symbol":"BTC"}`,
	}
	for name, body := range cases {
		c, seen := newBackend(t, http.StatusOK, body)

		res, err := c.Sync(context.Background(), "BTC")
		if err != nil {
			t.Fatalf("%s: Sync: %v", name, err)
		}
		want := SyncResult{Price: 64850.22, Volume: 1234.5, PercentChange24h: -0.8}
		if res != want {
			t.Errorf("%s: result = %+v, want %+v", name, res, want)
		}
		if r := seen.first(); r.Method != http.MethodPost || r.Path != "/cryptos/BTC/sync" {
			t.Errorf("%s: request = %+v", name, r)
		}
	}
}

func TestSyncMissingFieldsAreZero(t *testing.T) {
	c, _ := newBackend(t, http.StatusOK, `{"price":"1.5","volume":null}`)

	res, err := c.Sync(context.Background(), "ADA")
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if res != (SyncResult{Price: 1.5}) {
		t.Errorf("result = %+v", res)
	}
}

func TestSyncRejectsNonNumeric(t *testing.T) {
	bodies := []string{
		`{"price":"n/a","volume":1,"percent_change_24h":1}`,
		`{"price":"1e400","volume":-5,"percent_change_24h":1}`,
		`{"price":1,"volume":"-1e400","percent_change_24h":1}`,
		`{"price":1,"volume":1,"percent_change_24h":1e999}`,
	}
	for _, body := range bodies {
		c, _ := newBackend(t, http.StatusOK, body)

		res, err := c.Sync(context.Background(), "BTC")
		if !errors.Is(err, ErrNetwork) {
			t.Fatalf("%s: err = %v, want ErrNetwork", body, err)
		}
		if res != (SyncResult{}) {
			t.Errorf("%s: res = %+v, want zero value", body, res)
		}
	}
}

func TestHistory(t *testing.T) {
	c, seen := newBackend(t, http.StatusOK, `[{"id":1,"crypto_id":4,"price":10,"volume":2,"percent_change_24h":0.5,"timestamp":"2024-05-01T12:00:00Z"}]`)

	entries, err := c.History(context.Background(), 4)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(entries) != 1 || entries[0].CryptoID != 4 || entries[0].Price != 10 {
		t.Errorf("entries = %+v", entries)
	}
	if !entries[0].Timestamp.Equal(time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)) {
		t.Errorf("timestamp = %v", entries[0].Timestamp)
	}
	if r := seen.first(); r.Path != "/price-history/4" {
		t.Errorf("request = %+v", r)
	}
}

func TestBadStatusIsNetworkError(t *testing.T) {
	c, _ := newBackend(t, http.StatusNotFound, `{"error":"crypto not found"}`)

	_, err := c.Update(context.Background(), 99, models.AssetInput{Symbol: "X", Name: "X"})
	if !errors.Is(err, ErrNetwork) {
		t.Fatalf("err = %v, want ErrNetwork", err)
	}
	var netErr *NetworkError
	if !errors.As(err, &netErr) {
		t.Fatalf("err = %T, want *NetworkError", err)
	}
	if netErr.Status != http.StatusNotFound || netErr.Method != http.MethodPut || netErr.Path != "/cryptos/99" {
		t.Errorf("netErr = %+v", netErr)
	}
	if netErr.Err.Error() != "crypto not found" {
		t.Errorf("message = %q", netErr.Err.Error())
	}
}

func TestUnreachableBackend(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := NewClient(url, time.Second, nil)
	_, err := c.List(context.Background())
	if !errors.Is(err, ErrNetwork) {
		t.Fatalf("err = %v, want ErrNetwork", err)
	}
	var netErr *NetworkError
	if errors.As(err, &netErr) && netErr.Status != 0 {
		t.Errorf("status = %d, want 0", netErr.Status)
	}
}

func TestCancelledContext(t *testing.T) {
	c, seen := newBackend(t, http.StatusOK, `[]`)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.List(ctx)
	if !errors.Is(err, context.Canceled) || !errors.Is(err, ErrNetwork) {
		t.Fatalf("err = %v, want context.Canceled and ErrNetwork", err)
	}
	if seen.count() != 0 {
		t.Errorf("backend received %d requests, want 0", seen.count())
	}
}
