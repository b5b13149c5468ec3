package service_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/BrandonDHaskell/huella/internal/biometric/service"
	"github.com/BrandonDHaskell/huella/internal/biometric/types"
)

func validTemplate(n int) string {
	return strings.Repeat("QUJD", n/4+1)[:n]
}

func TestValidate(t *testing.T) {
	good := validTemplate(200)

	cases := []struct {
		name   string
		req    types.EnrollRequest
		reason string
	}{
		{"missing user_id", types.EnrollRequest{Name: "Ana", FingerIndex: "3", Template: good}, "missing field: user_id"},
		{"blank user_id", types.EnrollRequest{UserID: "   ", Name: "Ana", FingerIndex: "3", Template: good}, "missing field: user_id"},
		{"missing name", types.EnrollRequest{UserID: "EMP001", FingerIndex: "3", Template: good}, "missing field: name"},
		{"missing finger_index", types.EnrollRequest{UserID: "EMP001", Name: "Ana", Template: good}, "missing field: finger_index"},
		{"missing template", types.EnrollRequest{UserID: "EMP001", Name: "Ana", FingerIndex: "3"}, "missing field: template"},
		{"missing beats invalid slot", types.EnrollRequest{UserID: "EMP001", FingerIndex: "99"}, "missing field: name"},
		{"slot zero", types.EnrollRequest{UserID: "EMP001", Name: "Ana", FingerIndex: "0", Template: good}, "invalid slot"},
		{"slot eleven", types.EnrollRequest{UserID: "EMP001", Name: "Ana", FingerIndex: "11", Template: good}, "invalid slot"},
		{"slot word", types.EnrollRequest{UserID: "EMP001", Name: "Ana", FingerIndex: "abc", Template: good}, "invalid slot"},
		{"slot fraction", types.EnrollRequest{UserID: "EMP001", Name: "Ana", FingerIndex: "2.5", Template: good}, "invalid slot"},
		{"slot beats length", types.EnrollRequest{UserID: "EMP001", Name: "Ana", FingerIndex: "11", Template: "abc"}, "invalid slot"},
		{"template too short", types.EnrollRequest{UserID: "EMP001", Name: "Ana", FingerIndex: "3", Template: validTemplate(50)}, "invalid template length"},
		{"template too long", types.EnrollRequest{UserID: "EMP001", Name: "Ana", FingerIndex: "3", Template: validTemplate(10001)}, "invalid template length"},
		{"length beats alphabet", types.EnrollRequest{UserID: "EMP001", Name: "Ana", FingerIndex: "3", Template: "!!!"}, "invalid template length"},
		{"not base64", types.EnrollRequest{UserID: "EMP001", Name: "Ana", FingerIndex: "3", Template: validTemplate(150) + "$"}, "not base64"},
		{"padding in the middle", types.EnrollRequest{UserID: "EMP001", Name: "Ana", FingerIndex: "3", Template: "==" + validTemplate(150)}, "not base64"},
		{"three padding chars", types.EnrollRequest{UserID: "EMP001", Name: "Ana", FingerIndex: "3", Template: validTemplate(150) + "==="}, "not base64"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := service.Validate(tc.req)
			if err == nil {
				t.Fatalf("expected rejection %q", tc.reason)
			}
			if !errors.Is(err, service.ErrValidation) {
				t.Errorf("expected ErrValidation, got %T", err)
			}
			if err.Error() != tc.reason {
				t.Errorf("reason = %q, want %q", err.Error(), tc.reason)
			}
		})
	}
}

func TestValidate_Accepts(t *testing.T) {
	cases := []struct {
		name     string
		template string
		slot     types.SlotValue
	}{
		{"min length", validTemplate(100), "1"},
		{"max length", validTemplate(10000), "10"},
		{"padding", validTemplate(150) + "==", "5"},
		{"line breaks", validTemplate(76) + "\r\n" + validTemplate(76), "2"},
		{"padded slot", validTemplate(120), " 4 "},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e, err := service.Validate(types.EnrollRequest{
				UserID:      "  EMP001 ",
				Name:        " Ana ",
				FingerIndex: tc.slot,
				Template:    tc.template,
			})
			if err != nil {
				t.Fatalf("Validate: %v", err)
			}
			if e.ExternalID != "EMP001" || e.DisplayName != "Ana" {
				t.Errorf("not trimmed: %+v", e)
			}
			if e.Template != tc.template {
				t.Error("template must be kept verbatim")
			}
		})
	}
}
