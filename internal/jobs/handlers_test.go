package jobs

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendInvoiceReminderHandler(t *testing.T) {
	tests := []struct {
		name        string
		data        map[string]any
		wantSuccess bool
		wantErr     bool
	}{
		{
			name:        "valid payload",
			data:        map[string]any{"invoiceId": "inv1", "email": "billing@example.com", "daysLate": 3},
			wantSuccess: true,
		},
		{
			name:    "missing invoice id",
			data:    map[string]any{"email": "billing@example.com"},
			wantErr: true,
		},
		{
			name:    "bad email",
			data:    map[string]any{"invoiceId": "inv1", "email": "not-an-email"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := SendInvoiceReminderHandler(context.Background(), JobPayload{
				OrgID: "org1",
				Type:  "sendInvoiceReminder",
				Data:  tt.data,
			})

			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantSuccess, res.Success)
		})
	}
}

func TestRunMaintenanceCheckHandler_FlagsHighOdometer(t *testing.T) {
	res, err := RunMaintenanceCheckHandler(context.Background(), JobPayload{
		OrgID: "org1",
		Type:  "runMaintenanceCheck",
		Data:  map[string]any{"vehicleId": "v-1", "odometerKm": 250000},
	})

	// Ran to completion but reports failure; the executor still records
	// the run and lets the queue decide about retries.
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "v-1")
}

func TestPrecomputeRoutesHandler(t *testing.T) {
	res, err := PrecomputeRoutesHandler(context.Background(), JobPayload{
		OrgID: "org1",
		Type:  "precomputeRoutes",
		Data: map[string]any{
			"technicianId": "tech-9",
			"date":         "2026-09-01",
			"jobSiteIds":   []any{"site-1", "site-2"},
		},
	})
	require.NoError(t, err)
	assert.True(t, res.Success)

	_, err = PrecomputeRoutesHandler(context.Background(), JobPayload{
		OrgID: "org1",
		Type:  "precomputeRoutes",
		Data:  map[string]any{"technicianId": "tech-9", "date": "not-a-date", "jobSiteIds": []any{"s"}},
	})
	require.Error(t, err)
}
