package usecase

import (
	"context"
	"sync"

	"vidwatch/domain/apperror"
	"vidwatch/domain/model"
)

// Broadcaster publishes viewer events, typically to the SSE hub. It must not block.
type Broadcaster func(evt model.ViewerEvent)

func (b Broadcaster) emit(evt model.ViewerEvent) {
	if b != nil {
		b(evt)
	}
}

func errorText(err error) *string {
	if err == nil {
		return nil
	}
	msg := apperror.Message(err)
	return &msg
}

// keyedSlots is a per-video single-slot queue: at most one holder per key,
// later callers wait their turn or give up when their context ends. A key's
// entry lives only while someone holds or waits for it.
type keyedSlots struct {
	mu    sync.Mutex
	slots map[int64]*slot
}

type slot struct {
	ch   chan struct{}
	refs int
}

func newKeyedSlots() *keyedSlots {
	return &keyedSlots{slots: make(map[int64]*slot)}
}

func (k *keyedSlots) acquire(ctx context.Context, key int64) (func(), error) {
	k.mu.Lock()
	s, ok := k.slots[key]
	if !ok {
		s = &slot{ch: make(chan struct{}, 1)}
		k.slots[key] = s
	}
	s.refs++
	k.mu.Unlock()

	select {
	case s.ch <- struct{}{}:
		return func() {
			<-s.ch
			k.leave(key, s)
		}, nil
	case <-ctx.Done():
		k.leave(key, s)
		return nil, ctx.Err()
	}
}

func (k *keyedSlots) leave(key int64, s *slot) {
	k.mu.Lock()
	defer k.mu.Unlock()
	s.refs--
	if s.refs == 0 {
		delete(k.slots, key)
	}
}

