package queue

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleWritesAuditLine(t *testing.T) {
	var buf bytes.Buffer
	c := newConsumer("amqp://unused", &buf)

	body, err := json.Marshal(TicketPurchasedEvent{
		UserID:    "u1",
		SessionID: "s1",
		MovieName: "Dune",
		Amount:    550,
	})
	require.NoError(t, err)
	require.NoError(t, c.handle(body))

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "ticket purchased", line["msg"])
	assert.Equal(t, "s1", line["session_id"])
	assert.Equal(t, "Dune", line["movie"])
	assert.Equal(t, "5.5", line["amount"])
}

func TestHandleRejectsBadPayload(t *testing.T) {
	var buf bytes.Buffer
	c := newConsumer("amqp://unused", &buf)

	assert.Error(t, c.handle([]byte("not json")))
	assert.Error(t, c.handle([]byte(`{"user_id":"u1"}`)))
	assert.Zero(t, buf.Len())
}

func TestEventAmountIsDecimal(t *testing.T) {
	b, err := json.Marshal(TicketPurchasedEvent{UserID: "u", SessionID: "s", Amount: 99450})
	require.NoError(t, err)
	assert.Contains(t, string(b), `"amount":994.5`)
}
