package models

import (
	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// ScrapeRequest is the body of POST /api/scrape.
type ScrapeRequest struct {
	WebpageURL string `json:"webpage_url" validate:"required,url"`
	Priority   string `json:"priority" validate:"required,oneof=high medium low"`
	TypePage   string `json:"type_page" validate:"required,oneof=listing product"`
}

// Validate checks the request against its field constraints.
func (r *ScrapeRequest) Validate() error {
	return validate.Struct(r)
}

// ScrapeResponse is the body returned by POST /api/scrape.
type ScrapeResponse struct {
	JobID string `json:"job_id"`
}
