package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// Record is implemented by every persisted entity (pointer receivers).
// The generic entity service drives create/update through it.
type Record interface {
	RecordID() string
	SetRecordID(id string)
	// RecordSlug returns "" for entities without slugs.
	RecordSlug() string
	// RecordActive reports the soft-delete flag; entities without one are
	// always active.
	RecordActive() bool
	// PrepareCreate fills defaults and derives the slug when absent.
	PrepareCreate()
	StampCreate(now time.Time)
	StampUpdate(now time.Time)
	Validate() []FieldError
}

// FlexTime accepts RFC3339, date-only and "2006-01-02 15:04:05" strings on
// input (lead follow-up dates arrive as bare dates from the dashboard) and
// always renders RFC3339 UTC.
type FlexTime struct {
	time.Time
}

var flexTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02",
	"2006-01-02 15:04:05",
}

func (t *FlexTime) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if s == "" {
		t.Time = time.Time{}
		return nil
	}
	for _, layout := range flexTimeLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed
			return nil
		}
	}
	return fmt.Errorf("unrecognized time value %q", s)
}

func (t FlexTime) MarshalJSON() ([]byte, error) {
	if t.Time.IsZero() {
		return []byte(`""`), nil
	}
	return json.Marshal(t.Time.UTC().Format(time.RFC3339))
}
