package protocol

import "testing"

func TestIsKnownCode(t *testing.T) {
	cases := []string{
		"",
		ErrProtoBadRequest,
		ErrBadRequest,
		ErrPreconditionFailed,
		ErrNoOpenCache,
		ErrDeserialization,
		ErrInternal,
	}
	for _, c := range cases {
		if !IsKnownCode(c) {
			t.Fatalf("expected known code: %q", c)
		}
	}
	if IsKnownCode("E_NOT_DEFINED") {
		t.Fatalf("expected unknown code rejected")
	}
}

func TestDecodeBase(t *testing.T) {
	b, err := DecodeBase([]byte(`{"type":"MOVE","protocol_version":"1.0","direction":"N"}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if b.Type != TypeMove || b.ProtocolVersion != Version {
		t.Fatalf("unexpected base: %+v", b)
	}
	if !IsCommand(b.Type) {
		t.Fatalf("expected MOVE to be a command")
	}
	if IsCommand(TypeWelcome) {
		t.Fatalf("WELCOME is not a command")
	}
	if _, err := DecodeBase([]byte(`nope`)); err == nil {
		t.Fatalf("expected decode error")
	}
}
