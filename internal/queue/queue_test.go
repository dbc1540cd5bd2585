package queue

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/project-tktt/community-hub/internal/domain"
)

func newClient(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func testSnapshot() *domain.Snapshot {
	return domain.NewSnapshot(&domain.HomePageData{
		InterviewQuestions: []domain.InterviewQuestion{
			{Company: "acme", Year: "2024", Question: "What is a pod?", Contributor: domain.NamedContributor("alice", "Alice", "")},
		},
		Jobs: []domain.Job{{ID: "1", Title: "SRE", Company: "Acme"}},
	}, time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC))
}

func TestPublishConsume_RoundTrip(t *testing.T) {
	_, client := newClient(t)
	pub := NewPublisher(client, "")
	cons := NewConsumer(client, "", 100*time.Millisecond, nil)
	ctx := context.Background()

	snap := testSnapshot()
	require.NoError(t, pub.Publish(ctx, snap))

	n, err := pub.QueueLength(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	got, err := cons.Consume(ctx)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, snap.ID, got.ID)
	assert.True(t, snap.TakenAt.Equal(got.TakenAt))
	assert.Equal(t, "alice", got.Questions[0].Contributor.Key())
	assert.Equal(t, snap.Jobs, got.Jobs)
}

func TestConsume_TimeoutReturnsNil(t *testing.T) {
	_, client := newClient(t)
	cons := NewConsumer(client, "empty", 50*time.Millisecond, nil)

	got, err := cons.Consume(context.Background())
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestConsume_Malformed(t *testing.T) {
	mr, client := newClient(t)
	_, err := mr.Lpush(DefaultQueue, "{not json")
	require.NoError(t, err)

	_, err = NewConsumer(client, "", 50*time.Millisecond, nil).Consume(context.Background())
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestRun_HandlesSnapshotsUntilCancelled(t *testing.T) {
	mr, client := newClient(t)
	_, err := mr.Lpush(DefaultQueue, "garbage")
	require.NoError(t, err)
	require.NoError(t, NewPublisher(client, "").Publish(context.Background(), testSnapshot()))

	ctx, cancel := context.WithCancel(context.Background())
	var mu sync.Mutex
	var handled []string

	done := make(chan error, 1)
	go func() {
		done <- NewConsumer(client, "", 50*time.Millisecond, nil).Run(ctx, func(_ context.Context, s *domain.Snapshot) error {
			mu.Lock()
			handled = append(handled, s.ID)
			mu.Unlock()
			cancel()
			return nil
		})
	}()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("consumer did not stop")
	}
	mu.Lock()
	defer mu.Unlock()
	assert.Len(t, handled, 1)
}
