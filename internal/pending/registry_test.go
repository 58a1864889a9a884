package pending_test

import (
	"sync/atomic"
	"testing"
	"time"

	"hlswalk/internal/pending"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIncrDecr(t *testing.T) {
	r := pending.New(nil)
	assert.True(t, r.Idle())
	r.Incr()
	assert.Equal(t, 1, r.Inflight())
	assert.False(t, r.Idle())
	r.Decr()
	assert.Equal(t, 0, r.Inflight())
	assert.True(t, r.Idle())
}

func TestScheduleFiresAndNotifies(t *testing.T) {
	var notified int32
	r := pending.New(func() { atomic.AddInt32(&notified, 1) })

	fired := make(chan struct{}, 1)
	tok, ok := r.Schedule(10*time.Millisecond, func() { fired <- struct{}{} })
	require.True(t, ok)
	assert.NotZero(t, tok)
	assert.Equal(t, 1, r.PendingTimers())

	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("timer never fired")
	}

	require.Eventually(t, func() bool { return r.PendingTimers() == 0 }, time.Second, time.Millisecond)
	require.Eventually(t, func() bool { return atomic.LoadInt32(&notified) > 0 }, time.Second, time.Millisecond)
}

func TestScheduleNoopWhenEnded(t *testing.T) {
	r := pending.New(nil)
	r.SetEnded()
	_, ok := r.Schedule(time.Millisecond, func() { t.Fatal("should not run") })
	assert.False(t, ok)
}

func TestCancel(t *testing.T) {
	r := pending.New(nil)
	ran := false
	tok, ok := r.Schedule(20*time.Millisecond, func() { ran = true })
	require.True(t, ok)
	r.Cancel(tok)
	time.Sleep(40 * time.Millisecond)
	assert.False(t, ran)
	assert.Equal(t, 0, r.PendingTimers())
}

func TestCancelAll(t *testing.T) {
	r := pending.New(nil)
	r.Schedule(time.Second, func() {})
	r.Schedule(time.Second, func() {})
	assert.Equal(t, 2, r.PendingTimers())
	r.CancelAll()
	assert.Equal(t, 0, r.PendingTimers())
	assert.True(t, r.Idle())
}
