package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hoteldash/internal/core"
	"hoteldash/internal/source/memory"
)

type published struct {
	ids       []int64
	dimension string
}

type fakePublisher struct {
	mu       sync.Mutex
	messages []published
	err      error
	closed   bool
}

func (f *fakePublisher) PublishMetricsSync(_ context.Context, ids []int64, dimension string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.messages = append(f.messages, published{ids: ids, dimension: dimension})
	return nil
}

func (f *fakePublisher) Close() error {
	f.closed = true
	return nil
}

func ingestRows() []core.DailyMetric {
	d := core.NewDate(2025, 2, 1)
	return []core.DailyMetric{
		{Date: d, Dimension: core.RoomType, Category: "Suite", Revenue: 900, RoomsSold: 3},
		{Date: d, Dimension: core.BookingChannel, Category: "Direct", Revenue: 400, RoomsSold: 4},
		{Date: d, Dimension: core.RoomType, Category: "Double", Revenue: 300, RoomsSold: 3},
	}
}

func TestIngestPublishesPerDimension(t *testing.T) {
	t.Parallel()

	store := memory.New(nil)
	pub := &fakePublisher{}
	svc := NewIngestService(store, pub, testLogger())

	invalidated := 0
	svc.OnIngest(func() { invalidated++ })

	res, err := svc.Ingest(context.Background(), ingestRows())
	require.NoError(t, err)

	assert.Equal(t, []int64{1, 2, 3}, res.IDs)
	assert.Equal(t, 3, res.Rows)
	assert.Equal(t, 2, res.Published)
	assert.Equal(t, 1, invalidated)

	require.Len(t, pub.messages, 2)
	assert.Equal(t, published{ids: []int64{1, 3}, dimension: "room_type"}, pub.messages[0])
	assert.Equal(t, published{ids: []int64{2}, dimension: "booking_channel"}, pub.messages[1])

	stored, err := store.ListMetrics(context.Background(), core.Query{Dimension: core.RoomType})
	require.NoError(t, err)
	assert.Len(t, stored, 2)
}

func TestIngestKeepsRowsWhenPublishFails(t *testing.T) {
	t.Parallel()

	store := memory.New(nil)
	svc := NewIngestService(store, &fakePublisher{err: errors.New("broker down")}, testLogger())

	res, err := svc.Ingest(context.Background(), ingestRows())
	require.NoError(t, err)
	assert.Equal(t, 3, res.Rows)
	assert.Zero(t, res.Published)
}

func TestIngestWithoutPublisher(t *testing.T) {
	t.Parallel()

	svc := NewIngestService(memory.New(nil), nil, testLogger())

	res, err := svc.Ingest(context.Background(), ingestRows())
	require.NoError(t, err)
	assert.Zero(t, res.Published)
	assert.NoError(t, svc.Close())
}

func TestIngestRejectsBadInput(t *testing.T) {
	t.Parallel()

	pub := &fakePublisher{}
	svc := NewIngestService(memory.New(nil), pub, testLogger())

	_, err := svc.Ingest(context.Background(), nil)
	assert.ErrorIs(t, err, ErrNoRows)

	rows := ingestRows()
	rows[1].Revenue = -5
	_, err = svc.Ingest(context.Background(), rows)
	assert.ErrorIs(t, err, core.ErrNegativeValue)
	assert.Empty(t, pub.messages)
}

func TestIngestCloseClosesPublisher(t *testing.T) {
	t.Parallel()

	pub := &fakePublisher{}
	svc := NewIngestService(memory.New(nil), pub, testLogger())

	require.NoError(t, svc.Close())
	assert.True(t, pub.closed)
}
