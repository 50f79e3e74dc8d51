package events_test

import (
	"context"
	"encoding/json"
	"testing"

	"recrutement/backoffice-service/internal/events"
)

func TestMake(t *testing.T) {
	e, err := events.Make("req-1", events.RecordChanged, events.Change{Table: "clients", ID: "cl1", Op: events.OpCreate})
	if err != nil {
		t.Fatal(err)
	}
	if e.Type != events.RecordChanged || e.Version != 1 || e.RequestID != "req-1" || e.At.IsZero() {
		t.Errorf("envelope = %+v", e)
	}
	var c events.Change
	if err := json.Unmarshal(e.Data, &c); err != nil {
		t.Fatal(err)
	}
	if c.Table != "clients" || c.ID != "cl1" || c.Op != "create" {
		t.Errorf("payload = %+v", c)
	}
}

func TestMake_NilData(t *testing.T) {
	e, err := events.Make("", events.ApplicationMoved, nil)
	if err != nil {
		t.Fatal(err)
	}
	if e.Data != nil {
		t.Errorf("Data = %s, want nil", e.Data)
	}
	b, _ := json.Marshal(e)
	var m map[string]any
	_ = json.Unmarshal(b, &m)
	if _, ok := m["data"]; ok {
		t.Error("nil data should be omitted from the JSON envelope")
	}
}

func TestNop(t *testing.T) {
	if err := (events.Nop{}).Publish(context.Background(), events.Event{}); err != nil {
		t.Errorf("Nop.Publish = %v", err)
	}
}
