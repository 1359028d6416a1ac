package registry

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/angelmondragon/retailstock-backend/pkg/enums"
	"github.com/angelmondragon/retailstock-backend/pkg/outbox/payloads"
)

func TestDecoderRegistryDecodesRegisteredVersion(t *testing.T) {
	reg := NewDecoderRegistry()
	reg.Register(enums.EventReturnResolved, 1, func() interface{} { return &payloads.ReturnResolvedEvent{} })

	out, err := reg.Decode(enums.EventReturnResolved, 1, json.RawMessage(`{"status":"ACCEPTED"}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	decoded, ok := out.(*payloads.ReturnResolvedEvent)
	if !ok {
		t.Fatalf("unexpected payload type %T", out)
	}
	if decoded.Status != enums.ReturnStatusAccepted {
		t.Fatalf("unexpected status %q", decoded.Status)
	}
}

func TestDecoderRegistryRejectsUnknownVersion(t *testing.T) {
	reg := NewDecoderRegistry()
	reg.Register(enums.EventReturnResolved, 1, func() interface{} { return &payloads.ReturnResolvedEvent{} })

	if _, err := reg.Decode(enums.EventReturnResolved, 2, json.RawMessage(`{}`)); !errors.Is(err, ErrNoDecoder) {
		t.Fatalf("expected ErrNoDecoder, got %v", err)
	}
	if _, err := reg.Decode(enums.EventReturnResolved, 1, json.RawMessage(`[`)); err == nil || errors.Is(err, ErrNoDecoder) {
		t.Fatalf("expected decode error, got %v", err)
	}
}
