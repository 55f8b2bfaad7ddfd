package notification

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type captureSink struct {
	mu   sync.Mutex
	got  []Notification
	err  error
	ctxs []context.Context
}

func (c *captureSink) Send(ctx context.Context, n Notification) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.got = append(c.got, n)
	c.ctxs = append(c.ctxs, ctx)
	return c.err
}

func TestAsync_SendsInBackground(t *testing.T) {
	sink := &captureSink{}
	a := NewAsync(sink)

	ctx, cancel := context.WithCancel(context.Background())
	a.Notify(ctx, Notification{UserID: "u1", Kind: KindRoleChanged, Title: "Role changed"})
	cancel()

	require.NoError(t, a.Close(context.Background()))
	require.Len(t, sink.got, 1)
	require.NotEmpty(t, sink.got[0].ID)
	require.False(t, sink.got[0].CreatedAt.IsZero())
	require.NoError(t, sink.ctxs[0].Err(), "send must not inherit caller cancellation")
}

func TestAsync_SinkErrorDoesNotPropagate(t *testing.T) {
	sink := &captureSink{err: errors.New("broker down")}
	a := NewAsync(sink)

	a.Notify(context.Background(), Notification{UserID: "u1", Kind: KindMemberRemoved})

	require.NoError(t, a.Close(context.Background()))
	require.Len(t, sink.got, 1)
}

func TestAsync_SkipsRequestsWithoutRecipient(t *testing.T) {
	sink := &captureSink{}
	a := NewAsync(sink)

	a.Notify(context.Background(), Notification{Kind: KindMemberRemoved})

	require.NoError(t, a.Close(context.Background()))
	require.Empty(t, sink.got)
}

func TestAsync_CloseHonoursDeadline(t *testing.T) {
	block := make(chan struct{})
	a := NewAsync(sinkFunc(func(ctx context.Context, _ Notification) error {
		<-block
		return nil
	}))
	a.Notify(context.Background(), Notification{UserID: "u1"})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	require.ErrorIs(t, a.Close(ctx), context.DeadlineExceeded)
	close(block)
	require.NoError(t, a.Close(context.Background()))
}

func TestAsync_DropsAfterClose(t *testing.T) {
	sink := &captureSink{}
	a := NewAsync(sink)
	require.NoError(t, a.Close(context.Background()))

	a.Notify(context.Background(), Notification{UserID: "u1", Kind: KindMemberRemoved})

	require.NoError(t, a.Close(context.Background()))
	require.Empty(t, sink.got)
}

func TestAsync_NotifyRacingClose(t *testing.T) {
	sink := &captureSink{}
	a := NewAsync(sink)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			a.Notify(context.Background(), Notification{UserID: "u1", Kind: KindRoleChanged})
		}()
	}
	require.NoError(t, a.Close(context.Background()))
	wg.Wait()
	// Anything accepted before Close has been delivered by now.
	sink.mu.Lock()
	delivered := len(sink.got)
	sink.mu.Unlock()

	a.Notify(context.Background(), Notification{UserID: "u1", Kind: KindRoleChanged})
	require.NoError(t, a.Close(context.Background()))
	sink.mu.Lock()
	defer sink.mu.Unlock()
	require.Len(t, sink.got, delivered)
}

func TestMulti_JoinsErrorsAndSkipsNil(t *testing.T) {
	ok := &captureSink{}
	bad := &captureSink{err: errors.New("boom")}
	var nilKafka *KafkaSink

	m := NewMulti(ok, nilKafka, bad, nil)
	require.Len(t, m, 2)

	err := m.Send(context.Background(), Notification{UserID: "u1"})
	require.EqualError(t, err, "boom")
	require.Len(t, ok.got, 1)
}

func TestNewKafkaSink_DisabledWithoutBrokers(t *testing.T) {
	require.Nil(t, NewKafkaSink(nil, "topic"))
	require.Nil(t, NewKafkaSink([]string{"localhost:9092"}, ""))
	var s *KafkaSink
	require.NoError(t, s.Send(context.Background(), Notification{}))
	require.NoError(t, s.Close())
}

type sinkFunc func(context.Context, Notification) error

func (f sinkFunc) Send(ctx context.Context, n Notification) error { return f(ctx, n) }
