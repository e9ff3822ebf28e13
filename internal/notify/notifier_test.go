package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/fieldserve/jobrunner/internal/jobs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPDispatcher_Dispatch(t *testing.T) {
	var got struct {
		method string
		auth   string
		body   map[string]any
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got.method = r.Method
		got.auth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got.body))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	d := NewHTTPDispatcher(srv.URL, "svc-secret", 5*time.Second)

	err := d.Dispatch(context.Background(), jobs.JobPayload{
		OrgID: "org1",
		Type:  "sendInvoiceReminder",
		Data:  map[string]any{"invoiceId": "inv1"},
	})
	require.NoError(t, err)

	assert.Equal(t, http.MethodPost, got.method)
	assert.Equal(t, "Bearer svc-secret", got.auth)
	assert.Equal(t, "org1", got.body["orgId"])
	assert.Equal(t, "sendInvoiceReminder", got.body["type"])
	assert.Equal(t, map[string]any{"invoiceId": "inv1"}, got.body["data"])
}

func TestHTTPDispatcher_NonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	d := NewHTTPDispatcher(srv.URL, "svc-secret", 5*time.Second)

	err := d.Dispatch(context.Background(), jobs.JobPayload{OrgID: "org1", Type: "t"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

func TestHTTPDispatcher_ConnectionRefused(t *testing.T) {
	d := NewHTTPDispatcher("http://127.0.0.1:1", "svc-secret", time.Second)

	err := d.Dispatch(context.Background(), jobs.JobPayload{OrgID: "org1", Type: "t"})
	require.Error(t, err)
}
