package usecase

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/xavierca1/ligue-leads/internal/entity"
)

type fieldShape int

const (
	shapeEmpty fieldShape = iota
	shapeScalar
	shapeScalarList
	shapeObjectList
	shapeObject
)

// FieldValue is the decoded form of a lead-forms "values" entry, which
// arrives as a bare value, a list of values, or a list of {value|name}
// objects depending on the field type.
type FieldValue struct {
	shape fieldShape
	items []string
}

// DecodeFieldValue never fails: anything it cannot read decodes to an
// empty value.
func DecodeFieldValue(raw json.RawMessage) FieldValue {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return FieldValue{shape: shapeEmpty}
	}

	switch trimmed[0] {
	case '[':
		var elems []json.RawMessage
		if err := json.Unmarshal(trimmed, &elems); err != nil {
			return FieldValue{shape: shapeEmpty}
		}
		shape := shapeScalarList
		if len(elems) > 0 && allObjects(elems) {
			shape = shapeObjectList
		}
		items := make([]string, 0, len(elems))
		for _, e := range elems {
			e = bytes.TrimSpace(e)
			if len(e) > 0 && e[0] == '{' {
				items = append(items, objectText(e))
			} else {
				items = append(items, scalarText(e))
			}
		}
		return FieldValue{shape: shape, items: items}
	case '{':
		return FieldValue{shape: shapeObject, items: []string{objectText(trimmed)}}
	default:
		return FieldValue{shape: shapeScalar, items: []string{scalarText(trimmed)}}
	}
}

// Primary returns the first non-blank value.
func (v FieldValue) Primary() string {
	switch v.shape {
	case shapeEmpty:
		return ""
	case shapeScalar, shapeObject, shapeScalarList, shapeObjectList:
		for _, it := range v.items {
			if s := strings.TrimSpace(it); s != "" {
				return s
			}
		}
	}
	return ""
}

func allObjects(elems []json.RawMessage) bool {
	for _, e := range elems {
		e = bytes.TrimSpace(e)
		if len(e) == 0 || e[0] != '{' {
			return false
		}
	}
	return true
}

func scalarText(raw json.RawMessage) string {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	case json.Number:
		return t.String()
	case bool:
		if t {
			return "true"
		}
		return "false"
	}
	return ""
}

func objectText(raw json.RawMessage) string {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return ""
	}
	for _, key := range []string{"value", "name"} {
		if v, ok := obj[key]; ok {
			if s := scalarText(v); s != "" {
				return s
			}
		}
	}
	return ""
}

type canonicalField int

const (
	fieldNone canonicalField = iota
	fieldEmail
	fieldPhone
	fieldName
	fieldCity
)

// uploadAliases covers spreadsheet headers the substring rules miss.
var uploadAliases = map[string]canonicalField{
	"mail":    fieldEmail,
	"mail-id": fieldEmail,
	"mail_id": fieldEmail,
	"mailid":  fieldEmail,
	"number":  fieldPhone,
}

func classify(key string, useAliases bool) canonicalField {
	k := strings.ToLower(strings.TrimSpace(key))
	if useAliases {
		if f, ok := uploadAliases[k]; ok {
			return f
		}
	}
	switch {
	case strings.Contains(k, "email"):
		return fieldEmail
	case strings.Contains(k, "phone"), strings.Contains(k, "mobile"):
		return fieldPhone
	case strings.Contains(k, "name"):
		return fieldName
	case strings.Contains(k, "city"), strings.Contains(k, "town"):
		return fieldCity
	}
	return fieldNone
}

// assign keeps the first non-empty value seen for each canonical field.
func assign(d *entity.LeadDraft, f canonicalField, value string) {
	value = strings.TrimSpace(value)
	if value == "" {
		return
	}
	var dst *string
	switch f {
	case fieldEmail:
		dst = &d.Email
	case fieldPhone:
		dst = &d.Phone
	case fieldName:
		dst = &d.Name
	case fieldCity:
		dst = &d.City
	default:
		return
	}
	if *dst == "" {
		*dst = value
	}
}

// Normalize maps a raw record from any source into a LeadDraft. Fields
// that do not classify are only kept in RawPayload.
func Normalize(rec entity.RawRecord) entity.LeadDraft {
	d := entity.LeadDraft{
		Source:     rec.Source,
		ExternalID: strings.TrimSpace(rec.ExternalID),
		FormID:     strings.TrimSpace(rec.FormID),
		RawPayload: rec.Payload,
	}

	switch rec.Source {
	case entity.SourceBulkUpload:
		for _, c := range rec.Columns {
			assign(&d, classify(c.Name, true), c.Value)
		}
		if d.RawPayload == nil {
			d.RawPayload = columnsPayload(rec.Columns)
		}
	default:
		for _, f := range rec.Fields {
			assign(&d, classify(f.Name, false), DecodeFieldValue(f.Values).Primary())
		}
		if d.RawPayload == nil {
			d.RawPayload = fieldsPayload(rec)
		}
	}
	return d
}

func columnsPayload(cols []entity.Column) map[string]any {
	out := make(map[string]any, len(cols))
	for _, c := range cols {
		out[c.Name] = c.Value
	}
	return out
}

func fieldsPayload(rec entity.RawRecord) map[string]any {
	fields := make([]any, 0, len(rec.Fields))
	for _, f := range rec.Fields {
		var values any
		if len(f.Values) > 0 {
			dec := json.NewDecoder(bytes.NewReader(f.Values))
			dec.UseNumber()
			_ = dec.Decode(&values)
		}
		fields = append(fields, map[string]any{"name": f.Name, "values": values})
	}
	out := map[string]any{"field_data": fields}
	if rec.ExternalID != "" {
		out["id"] = rec.ExternalID
	}
	if rec.CreatedTime != "" {
		out["created_time"] = rec.CreatedTime
	}
	if rec.FormID != "" {
		out["form_id"] = rec.FormID
	}
	return out
}
