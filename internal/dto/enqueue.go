package dto

// EnqueueJobDTO is the request body for submitting a job over HTTP.
type EnqueueJobDTO struct {
	OrgID string         `json:"orgId" validate:"required"`
	Type  string         `json:"type" validate:"required"`
	Data  map[string]any `json:"data"`
}
