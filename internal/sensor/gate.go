package sensor

import "context"

// radioGate is a capacity-1 semaphore over a buffered channel. Waiters
// block in Acquire until the holder calls Release; which waiter wins is
// up to the runtime.
type radioGate struct {
	slot chan struct{}
}

// NewGate returns the process-wide radio gate. One instance is shared
// by all poll tasks; tests may construct their own.
func NewGate() Gate {
	return &radioGate{slot: make(chan struct{}, 1)}
}

func (g *radioGate) Acquire(ctx context.Context) error {
	select {
	case g.slot <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (g *radioGate) Release() {
	select {
	case <-g.slot:
	default:
		// Release without a matching Acquire is ignored
	}
}
