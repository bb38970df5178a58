package types

import (
	"encoding/json"
	"testing"
)

func TestFlexIntAcceptsNumberOrString(t *testing.T) {
	var body struct {
		Order FlexInt  `json:"order"`
		Limit *FlexInt `json:"limit"`
	}
	if err := json.Unmarshal([]byte(`{"order":"3","limit":5}`), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if body.Order.Int() != 3 {
		t.Errorf("expected order 3, got %d", body.Order)
	}
	if p := IntPtr(body.Limit); p == nil || *p != 5 {
		t.Errorf("expected limit 5, got %v", p)
	}

	var missing struct {
		Limit *FlexInt `json:"limit"`
	}
	if err := json.Unmarshal([]byte(`{}`), &missing); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if IntPtr(missing.Limit) != nil {
		t.Error("expected absent limit to stay nil")
	}

	if err := json.Unmarshal([]byte(`{"order":"two"}`), &body); err == nil {
		t.Error("expected error for non-numeric string")
	}
	if err := json.Unmarshal([]byte(`{"order":true}`), &body); err == nil {
		t.Error("expected error for bool")
	}
}

func TestFlexStrings(t *testing.T) {
	var body struct {
		Labels       *FlexStrings `json:"labels"`
		Instructions *FlexStrings `json:"instructions"`
		Missing      *FlexStrings `json:"missing"`
	}
	raw := `{"labels":["dessert"," baking","dessert",""],"instructions":"Preheat oven"}`
	if err := json.Unmarshal([]byte(raw), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got := body.Labels.Set(); len(got) != 2 || got[0] != "dessert" || got[1] != "baking" {
		t.Errorf("unexpected label set %v", got)
	}
	if got := body.Instructions.Trimmed(); len(got) != 1 || got[0] != "Preheat oven" {
		t.Errorf("unexpected instructions %v", got)
	}
	if body.Missing != nil {
		t.Error("expected absent list to stay nil")
	}
}

func TestCustomErrorHelpers(t *testing.T) {
	err := error(NewNotFound("Card"))
	if !IsNotFound(err) || IsValidation(err) {
		t.Errorf("unexpected classification for %v", err)
	}
	if NewNotFound("Card").Code != 404 || NewValidation("x %d", 1).Code != 400 {
		t.Error("unexpected status codes")
	}
	internal := NewInternal("Failed to update card order", json.Unmarshal([]byte("{"), &struct{}{}))
	if internal.Code != 500 || internal.Details == nil {
		t.Errorf("unexpected internal error %+v", internal)
	}
}
