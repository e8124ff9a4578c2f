package leads

import (
	"strings"
	"time"
)

// Status tracks downstream triage of a submission. This service only ever
// writes StatusNew.
type Status string

const (
	StatusNew       Status = "new"
	StatusContacted Status = "contacted"
	StatusQuoted    Status = "quoted"
	StatusWon       Status = "won"
	StatusLost      Status = "lost"
)

// Submission is a quote request stored from the website contact form.
type Submission struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	CompanyName string    `json:"companyName,omitempty"`
	Email       string    `json:"email"`
	Phone       string    `json:"phone"`
	ServiceType string    `json:"serviceType"`
	Location    string    `json:"location"`
	Message     string    `json:"message,omitempty"`
	Status      Status    `json:"status"`
	SubmittedAt time.Time `json:"submittedAt"`
}

// CreateSubmissionRequest is the body accepted by POST /leads.
type CreateSubmissionRequest struct {
	Name        string `json:"name" validate:"required,max=200"`
	CompanyName string `json:"companyName" validate:"max=200"`
	Email       string `json:"email" validate:"required,max=254,leademail"`
	Phone       string `json:"phone" validate:"required,max=32,leadphone"`
	ServiceType string `json:"serviceType" validate:"required,max=100"`
	Location    string `json:"location" validate:"required,max=200"`
	Message     string `json:"message" validate:"max=5000"`

	// Website is the honeypot field. The form hides it from people, so any
	// value means the submitter is a bot.
	Website string `json:"website" validate:"-"`
}

// Normalize trims surrounding whitespace from every field.
func (r *CreateSubmissionRequest) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.CompanyName = strings.TrimSpace(r.CompanyName)
	r.Email = strings.TrimSpace(r.Email)
	r.Phone = strings.TrimSpace(r.Phone)
	r.ServiceType = strings.TrimSpace(r.ServiceType)
	r.Location = strings.TrimSpace(r.Location)
	r.Message = strings.TrimSpace(r.Message)
	r.Website = strings.TrimSpace(r.Website)
}

// IsSpam reports whether the honeypot field was filled in.
func (r *CreateSubmissionRequest) IsSpam() bool {
	return strings.TrimSpace(r.Website) != ""
}

// Validate returns a *ValidationError when any field breaks the submission
// rules, or nil.
func (r *CreateSubmissionRequest) Validate() error {
	if errs := ValidateSubmission(r); len(errs) > 0 {
		return &ValidationError{Fields: errs}
	}
	return nil
}
