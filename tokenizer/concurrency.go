package tokenizer

import "sync/atomic"

// taskGuard gates mutating configuration methods on a Pipeline
// (SetTruncation, SetPadding) while encode calls are outstanding. Every encode path calls enter/leave; every mutator calls
// tryLock, which fails with ErrBusyTokenizer if count > 0.
type taskGuard struct {
	running int64
}

func (g *taskGuard) enter() { atomic.AddInt64(&g.running, 1) }
func (g *taskGuard) leave() { atomic.AddInt64(&g.running, -1) }

// tryLock returns ErrBusyTokenizer if any encode call is currently running.
func (g *taskGuard) tryLock() error {
	if atomic.LoadInt64(&g.running) > 0 {
		return ErrBusyTokenizer
	}
	return nil
}
