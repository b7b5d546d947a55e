package domain

import (
	"encoding/json"
	"time"

	"juzbuild-api/internal/slug"
)

// PropertyType is a lookup entity. Records in the shared partition are
// platform defaults visible to every tenant; tenant partitions hold their
// own additions.
type PropertyType struct {
	TypeID      string    `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description string    `json:"description,omitempty"`
	Image       string    `json:"image,omitempty"`
	Icon        string    `json:"icon,omitempty"`
	IsActive    bool      `json:"isActive"`
	UserID      string    `json:"userId,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func (t *PropertyType) UnmarshalJSON(b []byte) error {
	type alias PropertyType
	a := alias{IsActive: true}
	if err := json.Unmarshal(b, &a); err != nil {
		return err
	}
	*t = PropertyType(a)
	return nil
}

func (t *PropertyType) RecordID() string      { return t.TypeID }
func (t *PropertyType) SetRecordID(id string) { t.TypeID = id }
func (t *PropertyType) RecordSlug() string    { return t.Slug }
func (t *PropertyType) RecordActive() bool    { return t.IsActive }

func (t *PropertyType) PrepareCreate() {
	if t.Slug == "" {
		t.Slug = slug.Normalize(t.Name)
	}
}

func (t *PropertyType) StampCreate(now time.Time) {
	t.CreatedAt = now
	t.UpdatedAt = now
}

func (t *PropertyType) StampUpdate(now time.Time) {
	t.UpdatedAt = now
}

func (t *PropertyType) Validate() []FieldError {
	var errs []FieldError
	if t.Name == "" {
		errs = append(errs, FieldError{Field: "name", Message: "is required"})
	}
	if t.Slug == "" {
		errs = append(errs, FieldError{Field: "slug", Message: "is required"})
	}
	return errs
}
