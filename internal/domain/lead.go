package domain

import "time"

// Lead statuses follow the dashboard pipeline order.
const (
	LeadStatusNew       = "new"
	LeadStatusContacted = "contacted"
	LeadStatusQualified = "qualified"
	LeadStatusConverted = "converted"
	LeadStatusLost      = "lost"
)

var leadStatuses = map[string]bool{
	LeadStatusNew:       true,
	LeadStatusContacted: true,
	LeadStatusQualified: true,
	LeadStatusConverted: true,
	LeadStatusLost:      true,
}

var leadPriorities = map[string]bool{
	"low":    true,
	"medium": true,
	"high":   true,
}

var leadSources = map[string]bool{
	"contact-form":  true,
	"phone":         true,
	"email":         true,
	"referral":      true,
	"social-media":  true,
	"advertisement": true,
	"manual":        true,
}

// Lead is an inbound inquiry. Leads are hard-deleted: once removed they are
// not expected to be restored (unlike listings).
type Lead struct {
	LeadID           string    `json:"id"`
	Name             string    `json:"name"`
	Email            string    `json:"email"`
	Phone            string    `json:"phone,omitempty"`
	Company          string    `json:"company,omitempty"`
	Source           string    `json:"source,omitempty"`
	Status           string    `json:"status"`
	Priority         string    `json:"priority,omitempty"`
	Subject          string    `json:"subject,omitempty"`
	Message          string    `json:"message,omitempty"`
	PropertyInterest string    `json:"propertyInterest,omitempty"`
	Tags             []string  `json:"tags,omitempty"`
	AssignedTo       string    `json:"assignedTo,omitempty"`
	LastContactDate  *FlexTime `json:"lastContactDate,omitempty"`
	NextFollowUpDate *FlexTime `json:"nextFollowUpDate,omitempty"`
	UserID           string    `json:"userId,omitempty"`
	IPAddress        string    `json:"ipAddress,omitempty"`
	UserAgent        string    `json:"userAgent,omitempty"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

func (l *Lead) RecordID() string      { return l.LeadID }
func (l *Lead) SetRecordID(id string) { l.LeadID = id }
func (l *Lead) RecordSlug() string    { return "" }
func (l *Lead) RecordActive() bool    { return true }

func (l *Lead) PrepareCreate() {
	if l.Status == "" {
		l.Status = LeadStatusNew
	}
	if l.Priority == "" {
		l.Priority = "medium"
	}
	if l.Source == "" {
		l.Source = "manual"
	}
}

func (l *Lead) StampCreate(now time.Time) {
	l.CreatedAt = now
	l.UpdatedAt = now
}

func (l *Lead) StampUpdate(now time.Time) {
	l.UpdatedAt = now
}

func (l *Lead) Validate() []FieldError {
	var errs []FieldError
	if l.Name == "" {
		errs = append(errs, FieldError{Field: "name", Message: "is required"})
	}
	if l.Email == "" {
		errs = append(errs, FieldError{Field: "email", Message: "is required"})
	}
	if !leadStatuses[l.Status] {
		errs = append(errs, FieldError{Field: "status", Message: "must be one of new, contacted, qualified, converted, lost"})
	}
	if l.Priority != "" && !leadPriorities[l.Priority] {
		errs = append(errs, FieldError{Field: "priority", Message: "must be one of low, medium, high"})
	}
	if l.Source != "" && !leadSources[l.Source] {
		errs = append(errs, FieldError{Field: "source", Message: "is not a recognized lead source"})
	}
	return errs
}
