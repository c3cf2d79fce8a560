// Copyright SAP SE
// SPDX-License-Identifier: Apache-2.0

package conf

import (
	"bytes"
	"encoding/json"
)

// Raw options that are not directly unmarshalled when loading from json.
// Usage: call Unmarshal to unmarshal the options into a struct.
type RawOpts struct {
	raw json.RawMessage
}

// Create a new RawOpts instance with the given json string.
func NewRawOpts(rawJSON string) RawOpts {
	return RawOpts{raw: json.RawMessage(rawJSON)}
}

// Create a new RawOpts instance with the given json bytes.
func NewRawOptsBytes(rawJSON []byte) RawOpts {
	return RawOpts{raw: json.RawMessage(rawJSON)}
}

// Unmarshal the options into a struct. Unknown fields are rejected
// so that typos in the config don't go unnoticed.
func (msg RawOpts) Unmarshal(v any) error {
	if len(bytes.TrimSpace(msg.raw)) == 0 {
		// No options given, keep the zero value.
		return nil
	}
	decoder := json.NewDecoder(bytes.NewReader(msg.raw))
	decoder.DisallowUnknownFields()
	return decoder.Decode(v)
}

// Postpone the unmarshal of the options until Unmarshal is called.
func (msg *RawOpts) UnmarshalJSON(data []byte) error {
	msg.raw = append(msg.raw[:0], data...)
	return nil
}

// Marshal the raw options back as they were given.
func (msg RawOpts) MarshalJSON() ([]byte, error) {
	if len(msg.raw) == 0 {
		return []byte("null"), nil
	}
	return msg.raw, nil
}

// Mixin that adds the ability to load options from a json map.
// Usage: type StructUsingOpts struct { conf.JsonOpts[MyOpts] }
type JsonOpts[Options any] struct {
	// Options loaded from a json config using the Load method.
	Options Options
}

// Set the options contained in the opts json map.
func (s *JsonOpts[Options]) Load(opts RawOpts) error {
	var o Options
	if err := opts.Unmarshal(&o); err != nil {
		return err
	}
	s.Options = o
	return nil
}
