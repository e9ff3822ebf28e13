package dto

type InvoiceReminderPayload struct {
	InvoiceID string `json:"invoiceId" validate:"required"`
	Email     string `json:"email" validate:"omitempty,email"`
	DaysLate  int    `json:"daysLate" validate:"gte=0"`
}
