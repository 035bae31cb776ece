package pipeline

import (
	"testing"
	"time"
)

type fakeTimer struct {
	stopped bool
}

func (t *fakeTimer) Stop() bool {
	t.stopped = true
	return true
}

type scheduledCall struct {
	delay time.Duration
	fn    func()
	timer *fakeTimer
}

type fakeClock struct {
	calls []scheduledCall
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) Timer {
	timer := &fakeTimer{}
	c.calls = append(c.calls, scheduledCall{delay: d, fn: f, timer: timer})
	return timer
}

func TestRetryPolicyLimitsOutstanding(t *testing.T) {
	clock := &fakeClock{}
	policy := NewRetryPolicy(5*time.Minute, 1).WithAfterFunc(clock.AfterFunc)

	fired := 0
	if !policy.Arm(func() { fired++ }) {
		t.Fatal("первый повтор должен планироваться")
	}
	if policy.Arm(func() { fired++ }) {
		t.Fatal("второй повтор при ожидающем первом не планируется")
	}
	if len(clock.calls) != 1 || clock.calls[0].delay != 5*time.Minute {
		t.Fatalf("ожидали один таймер на 5m, получили %+v", clock.calls)
	}

	clock.calls[0].fn()
	if fired != 1 || policy.Pending() != 0 {
		t.Fatalf("после срабатывания повтор должен завершиться: fired=%d pending=%d", fired, policy.Pending())
	}
	if !policy.Arm(func() {}) {
		t.Fatal("после срабатывания можно планировать снова")
	}
}

func TestRetryPolicyStopCancelsPending(t *testing.T) {
	clock := &fakeClock{}
	policy := NewRetryPolicy(time.Minute, 2).WithAfterFunc(clock.AfterFunc)

	fired := 0
	policy.Arm(func() { fired++ })
	policy.Arm(func() { fired++ })
	policy.Stop()

	for _, call := range clock.calls {
		if !call.timer.stopped {
			t.Fatal("таймер должен быть остановлен")
		}
		call.fn()
	}
	if fired != 0 {
		t.Fatalf("отменённые повторы не должны выполняться, выполнено %d", fired)
	}
	if policy.Pending() != 0 {
		t.Fatalf("ожидали 0 ожидающих, получили %d", policy.Pending())
	}
}
