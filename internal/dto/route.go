package dto

type RoutePrecomputePayload struct {
	TechnicianID string   `json:"technicianId" validate:"required"`
	Date         string   `json:"date" validate:"required,datetime=2006-01-02"`
	JobSiteIDs   []string `json:"jobSiteIds" validate:"min=1,dive,required"`
}
