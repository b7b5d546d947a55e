package domain

import (
	"encoding/json"
	"fmt"
	"time"

	"juzbuild-api/internal/slug"
)

const (
	PropertyStatusForSale = "for-sale"
	PropertyStatusForRent = "for-rent"
	PropertyStatusSold    = "sold"
	PropertyStatusRented  = "rented"
)

var propertyStatuses = map[string]bool{
	PropertyStatusForSale: true,
	PropertyStatusForRent: true,
	PropertyStatusSold:    true,
	PropertyStatusRented:  true,
}

// PropertyImage is one gallery entry. IsMain marks the cover image; the
// platform does not enforce a single main image (consumers pick the first).
type PropertyImage struct {
	Src    string `json:"src"`
	Alt    string `json:"alt,omitempty"`
	IsMain bool   `json:"isMain,omitempty"`
}

type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Property is a real-estate listing. Listings are soft-deleted
// (IsActive=false) because they commonly get relisted.
type Property struct {
	PropertyID   string          `json:"id"`
	Name         string          `json:"name"`
	Slug         string          `json:"slug"`
	Description  string          `json:"description,omitempty"`
	Location     string          `json:"location,omitempty"`
	Price        float64         `json:"price"`
	Currency     string          `json:"currency,omitempty"`
	PropertyType string          `json:"propertyType"`
	Status       string          `json:"status"`
	Beds         int             `json:"beds"`
	Baths        int             `json:"baths"`
	Area         float64         `json:"area"`
	Amenities    []string        `json:"amenities,omitempty"`
	Features     []string        `json:"features,omitempty"`
	Images       []PropertyImage `json:"images,omitempty"`
	Coordinates  *Coordinates    `json:"coordinates,omitempty"`
	IsActive     bool            `json:"isActive"`
	IsFeatured   bool            `json:"isFeatured"`
	UserID       string          `json:"userId,omitempty"`
	CreatedAt    time.Time       `json:"createdAt"`
	UpdatedAt    time.Time       `json:"updatedAt"`
}

// UnmarshalJSON defaults IsActive to true so that payloads omitting the flag
// create visible listings; soft delete is the only path to false unless the
// caller sets it explicitly.
func (p *Property) UnmarshalJSON(b []byte) error {
	type alias Property
	a := alias{IsActive: true}
	if err := json.Unmarshal(b, &a); err != nil {
		return err
	}
	*p = Property(a)
	return nil
}

func (p *Property) RecordID() string      { return p.PropertyID }
func (p *Property) SetRecordID(id string) { p.PropertyID = id }
func (p *Property) RecordSlug() string    { return p.Slug }
func (p *Property) RecordActive() bool    { return p.IsActive }

func (p *Property) PrepareCreate() {
	if p.Slug == "" {
		p.Slug = slug.Normalize(p.Name)
	}
	if p.Status == "" {
		p.Status = PropertyStatusForSale
	}
	if p.Currency == "" {
		p.Currency = "USD"
	}
}

func (p *Property) StampCreate(now time.Time) {
	p.CreatedAt = now
	p.UpdatedAt = now
}

func (p *Property) StampUpdate(now time.Time) {
	p.UpdatedAt = now
}

func (p *Property) Validate() []FieldError {
	var errs []FieldError
	if p.Name == "" {
		errs = append(errs, FieldError{Field: "name", Message: "is required"})
	}
	if p.Slug == "" {
		errs = append(errs, FieldError{Field: "slug", Message: "is required"})
	}
	if p.PropertyType == "" {
		errs = append(errs, FieldError{Field: "propertyType", Message: "is required"})
	}
	if !propertyStatuses[p.Status] {
		errs = append(errs, FieldError{Field: "status", Message: "must be one of for-sale, for-rent, sold, rented"})
	}
	if p.Price < 0 {
		errs = append(errs, FieldError{Field: "price", Message: "must not be negative"})
	}
	if p.Beds < 0 {
		errs = append(errs, FieldError{Field: "beds", Message: "must not be negative"})
	}
	if p.Baths < 0 {
		errs = append(errs, FieldError{Field: "baths", Message: "must not be negative"})
	}
	if p.Area < 0 {
		errs = append(errs, FieldError{Field: "area", Message: "must not be negative"})
	}
	for i, img := range p.Images {
		if img.Src == "" {
			errs = append(errs, FieldError{Field: fmt.Sprintf("images[%d].src", i), Message: "is required"})
		}
	}
	if p.Coordinates != nil {
		if p.Coordinates.Lat < -90 || p.Coordinates.Lat > 90 {
			errs = append(errs, FieldError{Field: "coordinates.lat", Message: "must be between -90 and 90"})
		}
		if p.Coordinates.Lng < -180 || p.Coordinates.Lng > 180 {
			errs = append(errs, FieldError{Field: "coordinates.lng", Message: "must be between -180 and 180"})
		}
	}
	return errs
}
