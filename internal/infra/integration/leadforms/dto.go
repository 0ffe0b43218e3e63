package leadforms

import (
	"bytes"
	"encoding/json"
)

type Paging struct {
	Cursors struct {
		Before string `json:"before"`
		After  string `json:"after"`
	} `json:"cursors"`
	Next string `json:"next"`
}

type formsResponse struct {
	Data   []Form  `json:"data"`
	Paging *Paging `json:"paging,omitempty"`
}

type leadsResponse struct {
	Data   []Submission `json:"data"`
	Paging *Paging      `json:"paging,omitempty"`
}

type Form struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Status string `json:"status"`
}

// Submission is one filled-in form. Raw keeps the object exactly as received.
type Submission struct {
	ID          string         `json:"id"`
	CreatedTime string         `json:"created_time"`
	FormID      string         `json:"form_id"`
	FieldData   []FieldDatum   `json:"field_data"`
	Raw         map[string]any `json:"-"`
}

func (s *Submission) UnmarshalJSON(data []byte) error {
	type plain Submission
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	// Numbers stay json.Number so large ids survive the audit copy.
	var raw map[string]any
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	*s = Submission(p)
	s.Raw = raw
	return nil
}

// FieldDatum is a single answered question. Older API versions send
// "field"/"value" instead of "name"/"values".
type FieldDatum struct {
	Name   string
	Values json.RawMessage
}

func (f *FieldDatum) UnmarshalJSON(data []byte) error {
	var wire struct {
		Name   *string         `json:"name"`
		Field  *string         `json:"field"`
		Values json.RawMessage `json:"values"`
		Value  json.RawMessage `json:"value"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}

	switch {
	case wire.Name != nil:
		f.Name = *wire.Name
	case wire.Field != nil:
		f.Name = *wire.Field
	}

	f.Values = wire.Values
	if len(f.Values) == 0 {
		f.Values = wire.Value
	}
	return nil
}
