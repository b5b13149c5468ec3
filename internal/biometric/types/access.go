package types

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

const (
	DefaultAccessStatus = "failed"
	DefaultAccessMethod = "fingerprint"
)

// IdentityRef points at an identity either by internal key (the bridge sends
// the matched user's numeric id) or by external id. The zero value is "no
// identity".
type IdentityRef struct {
	InternalID int64
	ExternalID string
}

func (r IdentityRef) IsZero() bool {
	return r.InternalID == 0 && r.ExternalID == ""
}

func (r IdentityRef) String() string {
	switch {
	case r.InternalID != 0:
		return strconv.FormatInt(r.InternalID, 10)
	case r.ExternalID != "":
		return r.ExternalID
	default:
		return "null"
	}
}

func (r *IdentityRef) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*r = IdentityRef{}
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*r = IdentityRef{ExternalID: strings.TrimSpace(s)}
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("identity ref: %w", err)
	}
	id, err := n.Int64()
	if err != nil {
		return fmt.Errorf("identity ref: %w", err)
	}
	*r = IdentityRef{InternalID: id}
	return nil
}

func (r IdentityRef) MarshalJSON() ([]byte, error) {
	switch {
	case r.InternalID != 0:
		return []byte(strconv.FormatInt(r.InternalID, 10)), nil
	case r.ExternalID != "":
		return json.Marshal(r.ExternalID)
	default:
		return []byte("null"), nil
	}
}

type AccessLogRequest struct {
	UserID IdentityRef `json:"user_id"`
	Status string      `json:"status,omitempty"`
	Method string      `json:"method,omitempty"`
}

type AccessLogResponse struct {
	Success  bool `json:"success"`
	Recorded bool `json:"recorded"`
}

// AccessLogRow is one entry of the access log listing. Name and UserID are
// nil when the attempt was not tied to a known identity.
type AccessLogRow struct {
	ID         int64   `json:"id" db:"id"`
	AccessTime string  `json:"access_time" db:"-"`
	Status     string  `json:"status" db:"status"`
	Method     string  `json:"method" db:"method"`
	Name       *string `json:"name" db:"display_name"`
	UserID     *string `json:"user_id" db:"external_id"`

	AccessTimeMs int64 `json:"-" db:"access_time_ms"`
}

type AccessLogsResponse struct {
	Success bool           `json:"success"`
	Logs    []AccessLogRow `json:"logs"`
}
