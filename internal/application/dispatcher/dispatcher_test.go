package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/garyjia/expense-approval/internal/domain/event"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockLogger implements Logger for testing
type mockLogger struct {
	mu      sync.Mutex
	infos   []string
	errors  []string
	entries []map[string]interface{}
}

func (m *mockLogger) record(level, msg string, keysAndValues []interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if level == "error" {
		m.errors = append(m.errors, msg)
	} else {
		m.infos = append(m.infos, msg)
	}

	entry := map[string]interface{}{"msg": msg, "level": level}
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		entry[fmt.Sprint(keysAndValues[i])] = keysAndValues[i+1]
	}
	m.entries = append(m.entries, entry)
}

func (m *mockLogger) Info(msg string, keysAndValues ...interface{}) {
	m.record("info", msg, keysAndValues)
}

func (m *mockLogger) Error(msg string, keysAndValues ...interface{}) {
	m.record("error", msg, keysAndValues)
}

func (m *mockLogger) ErrorCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.errors)
}

func (m *mockLogger) Entry(msg string) map[string]interface{} {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.entries {
		if e["msg"] == msg {
			return e
		}
	}
	return nil
}

func decided(expenseID int64) *event.Event {
	return event.NewEvent(event.TypeApprovalDecided, expenseID, map[string]interface{}{
		event.KeyDecision: "APPROVED",
	})
}

func TestDispatch(t *testing.T) {
	t.Run("handlers run in registration order", func(t *testing.T) {
		d := NewDispatcher()
		var order []string

		d.Subscribe(event.TypeApprovalDecided, func(ctx context.Context, evt *event.Event) error {
			order = append(order, "first")
			return nil
		})
		d.Subscribe(event.TypeApprovalDecided, func(ctx context.Context, evt *event.Event) error {
			order = append(order, "second")
			return nil
		})

		require.NoError(t, d.Dispatch(context.Background(), decided(1)))
		assert.Equal(t, []string{"first", "second"}, order)
	})

	t.Run("only handlers of the event type are invoked", func(t *testing.T) {
		d := NewDispatcher()
		var calls int32

		d.Subscribe(event.TypeWorkflowInitiated, func(ctx context.Context, evt *event.Event) error {
			atomic.AddInt32(&calls, 1)
			return nil
		})

		require.NoError(t, d.Dispatch(context.Background(), decided(1)))
		assert.Equal(t, int32(0), atomic.LoadInt32(&calls))
	})

	t.Run("failing handler does not stop later handlers", func(t *testing.T) {
		logger := &mockLogger{}
		d := NewDispatcher(WithLogger(logger))
		boom := errors.New("boom")
		var reached bool

		d.SubscribeNamed(event.TypeApprovalDecided, "broken", func(ctx context.Context, evt *event.Event) error {
			return boom
		})
		d.SubscribeNamed(event.TypeApprovalDecided, "healthy", func(ctx context.Context, evt *event.Event) error {
			reached = true
			return nil
		})

		err := d.Dispatch(context.Background(), decided(7))
		require.Error(t, err)
		assert.ErrorIs(t, err, boom)
		assert.Contains(t, err.Error(), "broken")
		assert.True(t, reached)
		assert.Equal(t, 1, logger.ErrorCount())

		entry := logger.Entry("Handler error")
		require.NotNil(t, entry)
		assert.Equal(t, int64(7), entry["expense_id"])
	})

	t.Run("handler panic is recovered", func(t *testing.T) {
		d := NewDispatcher()
		d.Subscribe(event.TypeApprovalDecided, func(ctx context.Context, evt *event.Event) error {
			panic("subscriber exploded")
		})

		err := d.Dispatch(context.Background(), decided(1))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "subscriber exploded")
	})

	t.Run("unknown event type is rejected", func(t *testing.T) {
		d := NewDispatcher()
		err := d.Dispatch(context.Background(), event.NewEvent(event.Type("expense.deleted"), 1, nil))
		assert.Error(t, err)
	})

	t.Run("closed dispatcher refuses events", func(t *testing.T) {
		d := NewDispatcher()
		require.NoError(t, d.Close())
		assert.ErrorIs(t, d.Dispatch(context.Background(), decided(1)), ErrClosed)
	})
}

func TestSubscribeAll(t *testing.T) {
	d := NewDispatcher()
	seen := make(map[event.Type]int)

	d.SubscribeAll("audit", func(ctx context.Context, evt *event.Event) error {
		seen[evt.Type]++
		return nil
	})

	for _, typ := range event.AllTypes() {
		require.NoError(t, d.Dispatch(context.Background(), event.NewEvent(typ, 1, nil)))
		handlers := d.ListHandlers(typ)
		require.Len(t, handlers, 1)
		assert.Equal(t, "audit", handlers[0].Name)
		assert.Nil(t, handlers[0].Handler)
	}
	assert.Len(t, seen, len(event.AllTypes()))
}

func TestClose_Twice(t *testing.T) {
	d := NewDispatcher()
	require.NoError(t, d.Close())
	assert.Error(t, d.Close())
}

func TestConcurrentSubscribeAndDispatch(t *testing.T) {
	d := NewDispatcher()
	var calls int64
	var wg sync.WaitGroup

	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			d.SubscribeNamed(event.TypeApprovalDecided, fmt.Sprintf("h-%d", id), func(ctx context.Context, evt *event.Event) error {
				atomic.AddInt64(&calls, 1)
				return nil
			})
		}(i)
	}
	wg.Wait()
	require.Len(t, d.ListHandlers(event.TypeApprovalDecided), 20)

	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = d.Dispatch(context.Background(), decided(1))
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(200), atomic.LoadInt64(&calls))
}

func TestLoggingHandler(t *testing.T) {
	logger := &mockLogger{}
	h := NewLoggingHandler(logger)

	evt := event.NewEvent(event.TypeExpenseStatusChanged, 42, map[string]interface{}{
		event.KeyOldStatus: "PENDING",
		event.KeyNewStatus: "APPROVED",
	})
	require.NoError(t, h(context.Background(), evt))

	entry := logger.Entry("Workflow event")
	require.NotNil(t, entry)
	assert.Equal(t, "expense.status_changed", entry["event_type"])
	assert.Equal(t, int64(42), entry["expense_id"])
	assert.Equal(t, "APPROVED", entry[event.KeyNewStatus])
}
