package amqp

import "testing"

func TestTransactionSyncMessageRoundTrip(t *testing.T) {
	msg := NewTransactionSyncMessage(42, 1)

	data, err := msg.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON: %v", err)
	}

	decoded, err := TransactionSyncMessageFromJSON(data)
	if err != nil {
		t.Fatalf("FromJSON: %v", err)
	}
	if decoded.ID != 42 || decoded.Version != 1 {
		t.Fatalf("unexpected message: %+v", decoded)
	}
	if decoded.Timestamp.IsZero() {
		t.Fatal("expected timestamp to survive the round trip")
	}
}

func TestTransactionSyncMessageFromJSONMalformed(t *testing.T) {
	if _, err := TransactionSyncMessageFromJSON([]byte("not json")); err == nil {
		t.Fatal("expected an error for a malformed payload")
	}
}
