package redisstream_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"

	"github.com/iota-uz/accounts/pkg/outbox"
	"github.com/iota-uz/accounts/pkg/outbox/dispatchers/redisstream"
)

func newRedis(t *testing.T) *redis.Client {
	t.Helper()
	if testing.Short() {
		t.Skip("integration test skipped in short mode")
	}
	ctx := context.Background()
	container, err := tcredis.Run(ctx, "redis:7-alpine")
	if err != nil {
		t.Skipf("redis container unavailable: %v", err)
	}
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	url, err := container.ConnectionString(ctx)
	require.NoError(t, err)
	client, err := redisstream.Connect(ctx, url)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestNew_Validates(t *testing.T) {
	_, err := redisstream.New(nil, redisstream.Options{Stream: "s"})
	require.Error(t, err)
	_, err = redisstream.New(redis.NewClient(&redis.Options{}), redisstream.Options{})
	require.Error(t, err)
}

func TestDispatcher_AppendsToStream(t *testing.T) {
	client := newRedis(t)
	ctx := context.Background()

	d, err := redisstream.New(client, redisstream.Options{Stream: "accounts:audit", MaxLen: 1000})
	require.NoError(t, err)

	eventID := uuid.New()
	require.NoError(t, d.Dispatch(ctx, outbox.DispatchedMessage{
		Meta: outbox.Meta{
			Key:      "Person:42",
			Topic:    "accounts.audit.v1",
			EventID:  eventID,
			Sequence: 9,
		},
		Payload: []byte(`{"entity_type":"Person"}`),
	}))

	entries, err := client.XRange(ctx, "accounts:audit", "-", "+").Result()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	values := entries[0].Values
	require.Equal(t, eventID.String(), values[redisstream.FieldEventID])
	require.Equal(t, "Person:42", values[redisstream.FieldKey])
	require.Equal(t, "accounts.audit.v1", values[redisstream.FieldTopic])
	require.Equal(t, "9", values[redisstream.FieldSequence])
	require.Equal(t, `{"entity_type":"Person"}`, values[redisstream.FieldPayload])
}
