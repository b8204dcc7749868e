package signature

import (
	"testing"
)

func TestRequestMessage(t *testing.T) {
	body := []byte(`{"query":"#bitcoin","count":25}`)
	msg := RequestMessage("5Eq1FDc9oz1tTm4MqGLdH4ajgz9eMgQ5To812axojN121DiQ", "1700000000", BodyHash(body))
	want := "5Eq1FDc9oz1tTm4MqGLdH4ajgz9eMgQ5To812axojN121DiQ.1700000000.2446c7d15f5533d77342a5a447b56c1f7a6fe4618ad8749dde981064f9512323"
	if msg != want {
		t.Errorf("unexpected message: %s", msg)
	}
}

func TestBodyHash(t *testing.T) {
	if got := BodyHash(nil); got != "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855" {
		t.Errorf("unexpected empty-body hash: %s", got)
	}
	if BodyHash([]byte("a")) == BodyHash([]byte("b")) {
		t.Error("distinct bodies must not collide")
	}
}

func TestVerifyFail(t *testing.T) {
	t.Run("missing 0x prefix", func(t *testing.T) {
		sig := "8ee4ce50165f23b739ec55c2beeafcd273685819c32470df26b0641d15593d3b08b8aef7c391f01e7c2e34c2ee12b80df0c4b615cc0d0966be0dc81192bbc286"
		ok, err := Verify("test message", sig, "5Eq1FDc9oz1tTm4MqGLdH4ajgz9eMgQ5To812axojN121DiQ")
		if err == nil {
			t.Error("expected error for signature without 0x prefix")
		}
		if ok {
			t.Error("expected verification to fail")
		}
	})

	t.Run("invalid signature length", func(t *testing.T) {
		sig := "0x8ee4ce50165f23b739ec55c2beeafcd273685819c32470df26b0641d15593d3b"
		ok, err := Verify("test message", sig, "5Eq1FDc9oz1tTm4MqGLdH4ajgz9eMgQ5To812axojN121DiQ")
		if err == nil {
			t.Error("expected error for short signature")
		}
		if ok {
			t.Error("expected verification to fail")
		}
	})

	t.Run("invalid SS58 address", func(t *testing.T) {
		sig := "0x8ee4ce50165f23b739ec55c2beeafcd273685819c32470df26b0641d15593d3b08b8aef7c391f01e7c2e34c2ee12b80df0c4b615cc0d0966be0dc81192bbc286"
		ok, err := Verify("test message", sig, "invalid-address")
		if err == nil {
			t.Error("expected error for invalid SS58 address")
		}
		if ok {
			t.Error("expected verification to fail")
		}
	})

	t.Run("wrong signer", func(t *testing.T) {
		// structurally valid signature that does not match the message
		sig := "0x8ee4ce50165f23b739ec55c2beeafcd273685819c32470df26b0641d15593d3b08b8aef7c391f01e7c2e34c2ee12b80df0c4b615cc0d0966be0dc81192bbc286"
		ok, _ := Verify("some other message entirely", sig, "5Eq1FDc9oz1tTm4MqGLdH4ajgz9eMgQ5To812axojN121DiQ")
		if ok {
			t.Error("expected verification to fail for mismatched message")
		}
	})
}
