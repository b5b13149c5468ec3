package types

// ExportVersion tags the verification row shape consumed by the bridge.
// Bump it on any change to VerificationRow semantics.
const ExportVersion = "v1"

// VerificationRow is one (identity, slot, template) tuple of an active
// identity. Field names are the bridge's wire contract.
type VerificationRow struct {
	UserInternalID int64  `json:"user_internal_id" cbor:"user_internal_id" db:"user_internal_id"`
	UserIDStr      string `json:"user_id_str" cbor:"user_id_str" db:"user_id_str"`
	Name           string `json:"name" cbor:"name" db:"name"`
	Template       string `json:"template" cbor:"template" db:"template"`
	FingerIndex    int    `json:"finger_index" cbor:"finger_index" db:"finger_index"`
}

type ExportResponse struct {
	Success bool              `json:"success" cbor:"success"`
	Version string            `json:"version" cbor:"version"`
	Data    []VerificationRow `json:"data" cbor:"data"`
}
