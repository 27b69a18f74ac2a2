package model

import (
	"encoding/json"
	"testing"
)

func TestStatusUnmarshalAcceptsLabelAndNumber(t *testing.T) {
	tests := []struct {
		in   string
		want Status
	}{
		{`"Pending"`, StatusPending},
		{`"approved"`, StatusApproved},
		{`2`, StatusDelivered},
		{`"3"`, StatusCanceled},
	}
	for _, tt := range tests {
		var s Status
		if err := json.Unmarshal([]byte(tt.in), &s); err != nil {
			t.Errorf("unmarshal %s: %v", tt.in, err)
			continue
		}
		if s != tt.want {
			t.Errorf("unmarshal %s = %s, want %s", tt.in, s, tt.want)
		}
	}
}

func TestStatusUnmarshalRejectsUnknown(t *testing.T) {
	for _, in := range []string{`"Shipped"`, `4`, `-1`, `true`} {
		var s Status
		if err := json.Unmarshal([]byte(in), &s); err == nil {
			t.Errorf("unmarshal %s: expected error, got %s", in, s)
		}
	}
}

func TestStatusMarshalsLabel(t *testing.T) {
	r := RedemptionRequest{ID: 4, Status: StatusApproved}
	data, err := json.Marshal(r)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if raw["status"] != "Approved" {
		t.Errorf("status = %v, want Approved", raw["status"])
	}
	if _, ok := raw["createdAt"]; ok {
		t.Error("zero createdAt should be omitted")
	}
}

func TestStatusLabelsStable(t *testing.T) {
	want := []string{"Pending", "Approved", "Delivered", "Canceled"}
	for i, s := range Statuses() {
		if s.String() != want[i] {
			t.Errorf("Status(%d) = %q, want %q", i, s, want[i])
		}
	}
}
