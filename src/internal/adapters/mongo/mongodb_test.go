package mongo

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/event"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func TestConnectDisconnectsWhenPingFails(t *testing.T) {
	var closed atomic.Bool
	monitor := &event.PoolMonitor{Event: func(e *event.PoolEvent) {
		if e.Type == event.PoolClosedEvent {
			closed.Store(true)
		}
	}}
	opts := options.Client().
		ApplyURI("mongodb://127.0.0.1:1/?directConnection=true").
		SetServerSelectionTimeout(200 * time.Millisecond).
		SetConnectTimeout(200 * time.Millisecond).
		SetPoolMonitor(monitor)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	db, err := connect(ctx, opts, "cinescope")
	require.Error(t, err)
	assert.Nil(t, db)
	assert.True(t, closed.Load(), "the client's pool is closed after a failed ping")
}
