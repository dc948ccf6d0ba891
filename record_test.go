package syncbox

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestValidateEntry(t *testing.T) {
	valid := Entry{
		EntityType: "stock_movement",
		Action:     ActionUpsert,
		EntityID:   "m-1",
		Payload:    json.RawMessage(`{"id":"m-1"}`),
	}

	cases := []struct {
		name    string
		mutate  func(e Entry) Entry
		wantErr error
	}{
		{"valid upsert", func(e Entry) Entry { return e }, nil},
		{"missing entity type", func(e Entry) Entry { e.EntityType = ""; return e }, ErrEntityTypeRequired},
		{"missing entity id", func(e Entry) Entry { e.EntityID = ""; return e }, ErrEntityIDRequired},
		{"missing payload", func(e Entry) Entry { e.Payload = nil; return e }, ErrPayloadRequired},
		{"invalid payload", func(e Entry) Entry { e.Payload = json.RawMessage(`{`); return e }, ErrInvalidPayload},
		{"unknown action", func(e Entry) Entry { e.Action = "MERGE"; return e }, ErrInvalidAction},
		{"delete without payload", func(e Entry) Entry { e.Action = ActionDelete; e.Payload = nil; return e }, nil},
		{"delete with invalid payload", func(e Entry) Entry { e.Action = ActionDelete; e.Payload = json.RawMessage(`{`); return e }, ErrInvalidPayload},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.mutate(valid).Validate()
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("got %v, want %v", err, tc.wantErr)
			}
		})
	}
}

func TestValidateEntrySkipsJSONWhenDisabled(t *testing.T) {
	entry := Entry{
		EntityType: "stock_movement",
		Action:     ActionUpsert,
		EntityID:   "m-1",
		Payload:    json.RawMessage(`{`),
	}
	if err := ValidateEntry(entry, false); err != nil {
		t.Fatalf("expected malformed payload to pass with validation off: %v", err)
	}
}
