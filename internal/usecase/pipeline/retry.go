package pipeline

import (
	"sync"
	"time"
)

// Timer — отложенный вызов, который можно отменить.
type Timer interface {
	Stop() bool
}

// AfterFunc планирует f через d.
type AfterFunc func(d time.Duration, f func()) Timer

func stdAfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// RetryPolicy ограничивает число одновременно ожидающих повторов.
type RetryPolicy struct {
	delay          time.Duration
	maxOutstanding int
	afterFunc      AfterFunc

	mu      sync.Mutex
	seq     int
	pending map[int]Timer
}

// NewRetryPolicy создаёт политику с задержкой delay и не более чем maxOutstanding повторами.
func NewRetryPolicy(delay time.Duration, maxOutstanding int) *RetryPolicy {
	if maxOutstanding <= 0 {
		maxOutstanding = 1
	}
	return &RetryPolicy{
		delay:          delay,
		maxOutstanding: maxOutstanding,
		afterFunc:      stdAfterFunc,
		pending:        make(map[int]Timer),
	}
}

// WithAfterFunc подменяет планировщик таймеров.
func (p *RetryPolicy) WithAfterFunc(fn AfterFunc) *RetryPolicy {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.afterFunc = fn
	return p
}

// Delay возвращает задержку повтора.
func (p *RetryPolicy) Delay() time.Duration { return p.delay }

// Arm планирует fn, если лимит ожидающих повторов не исчерпан.
func (p *RetryPolicy) Arm(fn func()) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.pending) >= p.maxOutstanding {
		return false
	}
	p.seq++
	id := p.seq
	p.pending[id] = p.afterFunc(p.delay, func() {
		p.mu.Lock()
		_, ok := p.pending[id]
		delete(p.pending, id)
		p.mu.Unlock()
		if ok {
			fn()
		}
	})
	return true
}

// Pending возвращает число ожидающих повторов.
func (p *RetryPolicy) Pending() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.pending)
}

// Stop отменяет все ожидающие повторы.
func (p *RetryPolicy) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for id, timer := range p.pending {
		timer.Stop()
		delete(p.pending, id)
	}
}
