package httpapi

import (
	"strconv"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/BrandonDHaskell/huella/internal/biometric/types"
)

// Protobuf clients send and receive google.protobuf.Struct messages whose
// keys mirror the JSON wire names.

// ── Enrollment ───────────────────────────────────────────────────────────────

func enrollRequestFromStruct(p *structpb.Struct) types.EnrollRequest {
	f := p.GetFields()
	return types.EnrollRequest{
		UserID:      f["user_id"].GetStringValue(),
		Name:        f["name"].GetStringValue(),
		Template:    f["template"].GetStringValue(),
		FingerIndex: numberField(f["finger_index"]),
	}
}

// numberField accepts a number or a numeric string, like the JSON decoder.
func numberField(v *structpb.Value) types.SlotValue {
	switch k := v.GetKind().(type) {
	case *structpb.Value_NumberValue:
		return types.SlotValue(strconv.FormatFloat(k.NumberValue, 'f', -1, 64))
	case *structpb.Value_StringValue:
		return types.SlotValue(k.StringValue)
	default:
		return ""
	}
}

func enrollResponseToStruct(r types.EnrollResponse) (*structpb.Struct, error) {
	m := map[string]any{"success": r.Success}
	if r.Message != "" {
		m["message"] = r.Message
	}
	if r.UserID != "" {
		m["user_id"] = r.UserID
	}
	if r.Name != "" {
		m["name"] = r.Name
	}
	return structpb.NewStruct(m)
}

// ── Export ───────────────────────────────────────────────────────────────────

func exportResponseToStruct(r types.ExportResponse) (*structpb.Struct, error) {
	rows := make([]any, 0, len(r.Data))
	for _, row := range r.Data {
		rows = append(rows, map[string]any{
			"user_internal_id": row.UserInternalID,
			"user_id_str":      row.UserIDStr,
			"name":             row.Name,
			"template":         row.Template,
			"finger_index":     row.FingerIndex,
		})
	}
	return structpb.NewStruct(map[string]any{
		"success": r.Success,
		"version": r.Version,
		"data":    rows,
	})
}

// ── Errors ───────────────────────────────────────────────────────────────────

func errorStruct(message string) *structpb.Struct {
	st, _ := structpb.NewStruct(map[string]any{"success": false, "message": message})
	return st
}
