package email

import (
	"context"
	"testing"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestLogProviderSend(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	p := NewLogProvider(zap.New(core))

	id, err := p.Send(context.Background(), Message{
		To:      []string{" billing@acme.test "},
		Subject: "Invoice INV-1000",
		Body:    "hello",
	})
	require.NoError(t, err)

	_, err = ulid.Parse(id)
	require.NoError(t, err)

	entries := logs.FilterMessage("email queued").All()
	require.Len(t, entries, 1)
	assert.Equal(t, id, entries[0].ContextMap()["message_id"])
	assert.EqualValues(t, 1, entries[0].ContextMap()["recipients"])
}

func TestLogProviderRequiresRecipient(t *testing.T) {
	p := NewLogProvider(zap.NewNop())
	_, err := p.Send(context.Background(), Message{To: []string{"  "}})
	require.ErrorIs(t, err, ErrNoRecipient)
}
