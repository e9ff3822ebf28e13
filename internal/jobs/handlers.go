package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/fieldserve/jobrunner/internal/dto"
	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// decodePayload converts the generic Data map into a typed, validated
// payload struct.
func decodePayload[T any](data map[string]any) (T, error) {
	var out T

	raw, err := json.Marshal(data)
	if err != nil {
		return out, fmt.Errorf("marshal job data: %w", err)
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, fmt.Errorf("unmarshal job data: %w", err)
	}
	if err := validate.Struct(out); err != nil {
		return out, fmt.Errorf("validate job data: %w", err)
	}

	return out, nil
}

// RegisterBuiltins registers the field-service handlers this process
// knows how to run. Called once from the executor bootstrap.
func RegisterBuiltins(r *Registry) {
	r.Register("sendInvoiceReminder", SendInvoiceReminderHandler)
	r.Register("runMaintenanceCheck", RunMaintenanceCheckHandler)
	r.Register("precomputeRoutes", PrecomputeRoutesHandler)
}

// SendInvoiceReminderHandler simulates sending an overdue-invoice email.
func SendInvoiceReminderHandler(ctx context.Context, payload JobPayload) (JobResult, error) {
	reminder, err := decodePayload[dto.InvoiceReminderPayload](payload.Data)
	if err != nil {
		return JobResult{}, err
	}

	// Simulate the mail provider round trip
	select {
	case <-time.After(100 * time.Millisecond):
	case <-ctx.Done():
		return JobResult{}, ctx.Err()
	}

	log.Printf("📧 Sent invoice reminder for %s (org %s)", reminder.InvoiceID, payload.OrgID)

	return JobResult{Success: true}, nil
}

// RunMaintenanceCheckHandler simulates a periodic fleet maintenance check.
func RunMaintenanceCheckHandler(ctx context.Context, payload JobPayload) (JobResult, error) {
	check, err := decodePayload[dto.MaintenanceCheckPayload](payload.Data)
	if err != nil {
		return JobResult{}, err
	}

	select {
	case <-time.After(50 * time.Millisecond):
	case <-ctx.Done():
		return JobResult{}, ctx.Err()
	}

	if check.OdometerKm > 200000 {
		return JobResult{
			Success: false,
			Error:   fmt.Sprintf("vehicle %s flagged for inspection at %d km", check.VehicleID, check.OdometerKm),
		}, nil
	}

	log.Printf("🔧 Maintenance check passed for vehicle %s (org %s)", check.VehicleID, payload.OrgID)

	return JobResult{Success: true}, nil
}

// PrecomputeRoutesHandler simulates pre-computing a technician's route
// for the day.
func PrecomputeRoutesHandler(ctx context.Context, payload JobPayload) (JobResult, error) {
	route, err := decodePayload[dto.RoutePrecomputePayload](payload.Data)
	if err != nil {
		return JobResult{}, err
	}

	// Simulate the routing engine
	select {
	case <-time.After(200 * time.Millisecond):
	case <-ctx.Done():
		return JobResult{}, ctx.Err()
	}

	log.Printf("🗺️ Precomputed route for technician %s on %s: %d stops",
		route.TechnicianID, route.Date, len(route.JobSiteIDs))

	return JobResult{Success: true}, nil
}
