package dto

type MaintenanceCheckPayload struct {
	VehicleID  string `json:"vehicleId" validate:"required"`
	OdometerKm int    `json:"odometerKm" validate:"gte=0"`
}
