// auditlog/auditlog_test.go
package auditlog

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielhkuo/formsink/models"
)

// stubStore records bulk inserts and can be told to fail.
type stubStore struct {
	mu       sync.Mutex
	ensured  []string
	inserted [][][]any
	failNext bool
}

func (s *stubStore) CreateTableIfAbsent(_ context.Context, table string, _ models.Row) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensured = append(s.ensured, table)
	return nil
}

func (s *stubStore) AppendRows(_ context.Context, _ string, _ []string, rows [][]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failNext {
		s.failNext = false
		return errors.New("connection refused")
	}
	s.inserted = append(s.inserted, rows)
	return nil
}

func (s *stubStore) batches() [][][]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inserted
}

// newTestLogger uses a long flush interval so only explicit Flush calls
// touch the store.
func newTestLogger(t *testing.T) (*Logger, *stubStore) {
	t.Helper()
	store := &stubStore{}
	l, err := New(context.Background(), store, Options{
		Table:         "survey_log",
		FlushInterval: time.Hour,
		SessionID:     "s1",
		Subject:       "my_survey",
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = l.Drain(ctx)
	})
	require.Equal(t, []string{"survey_log"}, store.ensured)
	return l, store
}

func TestFlush_InsertsAllInOrderAndEmptiesQueue(t *testing.T) {
	l, store := newTestLogger(t)
	l.SetLoaded()

	for _, msg := range []string{"first", "second", "third"} {
		l.LogMessage(msg, SeverityInfo, "SURVEY")
	}
	require.Equal(t, 3, l.Pending())

	require.NoError(t, l.Flush(context.Background()))

	batches := store.batches()
	require.Len(t, batches, 1)
	require.Len(t, batches[0], 3)
	// message is column index 5; order must match insertion order
	assert.Equal(t, "first", batches[0][0][5])
	assert.Equal(t, "second", batches[0][1][5])
	assert.Equal(t, "third", batches[0][2][5])
	assert.Equal(t, 0, l.Pending())
}

func TestFlush_FailureRetainsQueue(t *testing.T) {
	l, store := newTestLogger(t)
	l.SetLoaded()

	l.LogMessage("keep me", SeverityError, "DATABASE")
	l.LogMessage("me too", SeverityWarn, "DATABASE")
	store.failNext = true

	err := l.Flush(context.Background())
	require.Error(t, err)
	assert.Equal(t, 2, l.Pending())

	// next tick succeeds and delivers both, still in order
	require.NoError(t, l.Flush(context.Background()))
	batches := store.batches()
	require.Len(t, batches, 1)
	require.Len(t, batches[0], 2)
	assert.Equal(t, "keep me", batches[0][0][5])
	assert.Equal(t, 0, l.Pending())
}

func TestFlush_EmptyQueueDoesNotTouchStore(t *testing.T) {
	l, store := newTestLogger(t)
	require.NoError(t, l.Flush(context.Background()))
	assert.Empty(t, store.batches())
}

func TestLog_SuppressedBeforeLoaded(t *testing.T) {
	l, _ := newTestLogger(t)

	l.LogMessage("pre-load error spam", SeverityError, "SURVEY")
	assert.Equal(t, 0, l.Pending())

	// entries without a message are not suppressed
	l.Log(Entry{Zone: "SURVEY", LoadDuration: Float(0.8)})
	assert.Equal(t, 1, l.Pending())

	// Force is the escape hatch
	l.Log(Entry{Message: "must be kept", Severity: SeverityError, Zone: "SURVEY", Force: true})
	assert.Equal(t, 2, l.Pending())

	l.SetLoaded()
	l.LogMessage("post-load", SeverityInfo, "SURVEY")
	assert.Equal(t, 3, l.Pending())
}

func TestLog_DefaultsStamped(t *testing.T) {
	l, store := newTestLogger(t)
	l.SetLoaded()

	l.LogMessage("hello", SeverityInfo, "SURVEY")
	require.NoError(t, l.Flush(context.Background()))

	row := store.batches()[0][0]
	assert.Equal(t, "s1", row[0])        // session_id
	assert.Equal(t, "my_survey", row[1]) // subject
	_, ok := row[2].(time.Time)
	assert.True(t, ok, "timestamp should be stamped")
	assert.Equal(t, "INFO", row[4])
	assert.Nil(t, row[7]) // absent load_duration stored as NULL
}

func TestConcurrentProducers(t *testing.T) {
	l, store := newTestLogger(t)
	l.SetLoaded()

	var wg sync.WaitGroup
	const producers, each = 8, 50
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < each; i++ {
				l.LogMessage("m", SeverityInfo, "SURVEY")
			}
		}()
	}
	wg.Wait()

	require.Equal(t, producers*each, l.Pending())
	require.NoError(t, l.Flush(context.Background()))
	assert.Equal(t, 0, l.Pending())
	require.Len(t, store.batches(), 1)
	assert.Len(t, store.batches()[0], producers*each)
}

func TestDrain_FlushesEverything(t *testing.T) {
	store := &stubStore{}
	l, err := New(context.Background(), store, Options{FlushInterval: time.Hour})
	require.NoError(t, err)
	l.SetLoaded()
	l.LogMessage("last words", SeverityInfo, "SURVEY")

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, l.Drain(ctx))
	assert.Equal(t, 0, l.Pending())
	require.Len(t, store.batches(), 1)
}

func TestPeriodicFlushTick(t *testing.T) {
	store := &stubStore{}
	l, err := New(context.Background(), store, Options{FlushInterval: 20 * time.Millisecond})
	require.NoError(t, err)
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = l.Drain(ctx)
	}()
	l.SetLoaded()

	l.LogMessage("ticked", SeverityInfo, "SURVEY")

	deadline := time.After(2 * time.Second)
	for l.Pending() > 0 {
		select {
		case <-deadline:
			t.Fatal("queue was never flushed by the timer")
		case <-time.After(10 * time.Millisecond):
		}
	}
	require.Len(t, store.batches(), 1)
}
