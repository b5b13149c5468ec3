package types

import (
	"bytes"
	"encoding/json"
)

// EnrollRequest is the body of an enrollment call.
type EnrollRequest struct {
	UserID      string    `json:"user_id"`
	Name        string    `json:"name"`
	Template    string    `json:"template"`
	FingerIndex SlotValue `json:"finger_index"`
}

// SlotValue keeps finger_index as the client sent it, a number or a string,
// so a malformed slot is reported by validation rather than by the decoder.
type SlotValue string

func (v *SlotValue) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*v = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*v = SlotValue(s)
		return nil
	}
	*v = SlotValue(b)
	return nil
}

func (v SlotValue) String() string { return string(v) }

type EnrollResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	UserID  string `json:"user_id,omitempty"`
	Name    string `json:"name,omitempty"`
}

// EnrollmentRow is one fingerprint in the enrollment listing. ID is the
// fingerprint row id used by delete.
type EnrollmentRow struct {
	ID          int64  `json:"id" db:"id"`
	UserID      string `json:"user_id" db:"external_id"`
	Name        string `json:"name" db:"display_name"`
	FingerIndex int    `json:"finger_index" db:"slot"`
	CreatedAt   string `json:"created_at" db:"-"`
	Status      string `json:"status" db:"status"`

	CreatedAtMs int64 `json:"-" db:"created_at_ms"`
}

type EnrollmentsResponse struct {
	Success bool            `json:"success"`
	Users   []EnrollmentRow `json:"users"`
}
