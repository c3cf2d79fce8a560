// Copyright SAP SE
// SPDX-License-Identifier: Apache-2.0

package conf

import (
	"encoding/json"
	"testing"
)

type MockOptions struct {
	Option1 string `json:"option1"`
	Option2 int    `json:"option2"`
}

func TestJsonOpts(t *testing.T) {
	opts := NewRawOpts(`{"option1": "value1", "option2": 2}`)

	jsonOpts := JsonOpts[MockOptions]{}
	if err := jsonOpts.Load(opts); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if jsonOpts.Options.Option1 != "value1" {
		t.Errorf("expected option1 to be 'value1', got %v", jsonOpts.Options.Option1)
	}
	if jsonOpts.Options.Option2 != 2 {
		t.Errorf("expected option2 to be 2, got %v", jsonOpts.Options.Option2)
	}
}

func TestJsonOpts_Empty(t *testing.T) {
	jsonOpts := JsonOpts[MockOptions]{}
	if err := jsonOpts.Load(RawOpts{}); err != nil {
		t.Fatalf("expected no error for empty options, got %v", err)
	}
	if jsonOpts.Options != (MockOptions{}) {
		t.Errorf("expected zero options, got %+v", jsonOpts.Options)
	}
}

func TestJsonOpts_UnknownField(t *testing.T) {
	jsonOpts := JsonOpts[MockOptions]{}
	if err := jsonOpts.Load(NewRawOpts(`{"option3": true}`)); err == nil {
		t.Fatal("expected error for unknown field, got nil")
	}
}

func TestRawOpts_PostponedUnmarshal(t *testing.T) {
	var wrapper struct {
		Options RawOpts `json:"options"`
	}
	if err := json.Unmarshal([]byte(`{"options": {"option1": "x"}}`), &wrapper); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	var o MockOptions
	if err := wrapper.Options.Unmarshal(&o); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if o.Option1 != "x" {
		t.Errorf("expected option1 to be 'x', got %v", o.Option1)
	}
	out, err := json.Marshal(wrapper)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if string(out) != `{"options":{"option1":"x"}}` {
		t.Errorf("expected raw options to be kept, got %s", out)
	}
}
