package types

// Envelope is the minimal response shape every operation shares.
type Envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}
