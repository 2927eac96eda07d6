package observable

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/c360/objkit/anyvalue"
	"github.com/c360/objkit/param"
	"github.com/c360/objkit/pkg/timestamp"
)

// ObservedValue is a point-in-time copy of a parameter value. It never aliases
// the source: later changes to the object do not reach emitted values.
type ObservedValue struct {
	Step        int64
	Name        string
	Description string
	Value       anyvalue.Value
	Properties  param.Properties
	Timestamp   int64 // unix milliseconds
	Source      string
	SourceID    uuid.UUID
}

// Snapshot deep-copies value into a new ObservedValue stamped with the
// current time.
func Snapshot(step int64, name string, value anyvalue.Value, props param.Properties) (ObservedValue, error) {
	c, err := value.Clone()
	if err != nil {
		return ObservedValue{}, fmt.Errorf("snapshot %s: %w", name, err)
	}
	return ObservedValue{
		Step:       step,
		Name:       name,
		Value:      c,
		Properties: props,
		Timestamp:  timestamp.Now(),
	}, nil
}

// Retain takes references on the objects the snapshot copied. Observers
// that keep v after OnNext returns retain it and release it when they drop
// it.
func (v ObservedValue) Retain() { v.Value.Retain() }

// Release drops the references taken by Retain.
func (v ObservedValue) Release() { v.Value.Release() }

// Time returns the timestamp formatted as RFC3339.
func (v ObservedValue) Time() string {
	return timestamp.Format(v.Timestamp)
}

type observedJSON struct {
	Step        int64           `json:"step"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Type        string          `json:"type"`
	Value       json.RawMessage `json:"value"`
	Properties  string          `json:"properties"`
	Timestamp   int64           `json:"timestamp"`
	Source      string          `json:"source,omitempty"`
	SourceID    string          `json:"source_id,omitempty"`
}

// MarshalJSON encodes the value natively when it can, otherwise as its
// string form.
func (v ObservedValue) MarshalJSON() ([]byte, error) {
	raw, err := json.Marshal(v.Value.Interface())
	if err != nil {
		raw, _ = json.Marshal(v.Value.String())
	}
	out := observedJSON{
		Step:        v.Step,
		Name:        v.Name,
		Description: v.Description,
		Type:        v.Value.TypeName(),
		Value:       raw,
		Properties:  v.Properties.String(),
		Timestamp:   v.Timestamp,
		Source:      v.Source,
	}
	if v.SourceID != uuid.Nil {
		out.SourceID = v.SourceID.String()
	}
	return json.Marshal(out)
}
