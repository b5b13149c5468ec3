package service

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/BrandonDHaskell/huella/internal/biometric/types"
)

const (
	MinSlot = 1
	MaxSlot = 10

	MinTemplateLen = 100
	MaxTemplateLen = 10000
)

// ErrValidation matches every *ValidationError via errors.Is.
var ErrValidation = errors.New("validation failed")

// ValidationError carries the caller-facing rejection reason.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

func reject(reason string) error { return &ValidationError{Reason: reason} }

// Standard base64 alphabet, optional line breaks, at most two '=' at the end.
var base64Template = regexp.MustCompile(`^[A-Za-z0-9+/\r\n]*={0,2}$`)

// Enrollment is a validated enrollment request.
type Enrollment struct {
	ExternalID  string
	DisplayName string
	Slot        int
	Template    string
}

// Validate checks req and returns its normalized form. Every field is checked
// against its own rule; the first failing rule wins:
//
//  1. user_id, name, finger_index, template present and non-empty
//  2. finger_index an integer in [1,10]
//  3. template length in [100,10000] characters
//  4. template in the base64 alphabet
func Validate(req types.EnrollRequest) (Enrollment, error) {
	e := Enrollment{
		ExternalID:  strings.TrimSpace(req.UserID),
		DisplayName: strings.TrimSpace(req.Name),
		Template:    req.Template,
	}
	slotText := strings.TrimSpace(req.FingerIndex.String())

	switch {
	case e.ExternalID == "":
		return Enrollment{}, reject("missing field: user_id")
	case e.DisplayName == "":
		return Enrollment{}, reject("missing field: name")
	case slotText == "":
		return Enrollment{}, reject("missing field: finger_index")
	case e.Template == "":
		return Enrollment{}, reject("missing field: template")
	}

	slot, err := strconv.Atoi(slotText)
	if err != nil || slot < MinSlot || slot > MaxSlot {
		return Enrollment{}, reject("invalid slot")
	}
	e.Slot = slot

	if n := utf8.RuneCountInString(e.Template); n < MinTemplateLen || n > MaxTemplateLen {
		return Enrollment{}, reject("invalid template length")
	}

	if !base64Template.MatchString(e.Template) {
		return Enrollment{}, reject("not base64")
	}

	return e, nil
}
