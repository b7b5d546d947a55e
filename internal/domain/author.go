package domain

import (
	"encoding/json"
	"time"
)

// Author is a site author/agent shown on generated listing pages.
type Author struct {
	AuthorID  string    `json:"id"`
	Name      string    `json:"name"`
	Role      string    `json:"role,omitempty"`
	Bio       string    `json:"bio,omitempty"`
	Email     string    `json:"email,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	Image     string    `json:"image,omitempty"`
	IsActive  bool      `json:"isActive"`
	UserID    string    `json:"userId,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (a *Author) UnmarshalJSON(b []byte) error {
	type alias Author
	aa := alias{IsActive: true}
	if err := json.Unmarshal(b, &aa); err != nil {
		return err
	}
	*a = Author(aa)
	return nil
}

func (a *Author) RecordID() string      { return a.AuthorID }
func (a *Author) SetRecordID(id string) { a.AuthorID = id }
func (a *Author) RecordSlug() string    { return "" }
func (a *Author) RecordActive() bool    { return a.IsActive }

func (a *Author) PrepareCreate() {}

func (a *Author) StampCreate(now time.Time) {
	a.CreatedAt = now
	a.UpdatedAt = now
}

func (a *Author) StampUpdate(now time.Time) {
	a.UpdatedAt = now
}

func (a *Author) Validate() []FieldError {
	var errs []FieldError
	if a.Name == "" {
		errs = append(errs, FieldError{Field: "name", Message: "is required"})
	}
	return errs
}
