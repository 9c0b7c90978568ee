package llm

import (
	"context"
	"iter"
	"sync"
)

// ChanStream bridges push-style (callback) backends onto the pull model. A producer
// goroutine publishes DELTA and ERROR events; the consumer drains them through Deltas.
type ChanStream struct {
	events   chan StreamEvent
	cancel   context.CancelFunc
	once     sync.Once
	sendOnce sync.Once
	done     chan struct{}
	stop     chan struct{}
}

func NewChanStream(cancel context.CancelFunc) *ChanStream {
	return &ChanStream{
		events: make(chan StreamEvent, 128),
		cancel: cancel,
		done:   make(chan struct{}),
		stop:   make(chan struct{}),
	}
}

// Close cancels the producer and waits for it to call CloseSend.
func (s *ChanStream) Close() error {
	s.once.Do(func() {
		close(s.stop)
		if s.cancel != nil {
			s.cancel()
		}
		<-s.done
	})
	return nil
}

// CloseSend closes the event channel and marks the stream as finished. Producers
// must call this exactly once when the underlying stream finishes.
func (s *ChanStream) CloseSend() {
	s.sendOnce.Do(func() {
		close(s.done)
		close(s.events)
	})
}

// Send publishes a stream event, dropping it if the stream is already closed.
// It reports whether the event was delivered.
func (s *ChanStream) Send(ev StreamEvent) bool {
	select {
	case <-s.done:
		return false
	case <-s.stop:
		return false
	default:
	}
	select {
	case s.events <- ev:
		return true
	case <-s.done:
		return false
	case <-s.stop:
		return false
	}
}

// SendDelta publishes d as a DELTA event.
func (s *ChanStream) SendDelta(d Delta) bool {
	return s.Send(StreamEvent{Type: StreamEventDelta, Raw: &d})
}

// SendError publishes err as an ERROR event.
func (s *ChanStream) SendError(err error) bool {
	return s.Send(StreamEvent{Type: StreamEventError, Err: err})
}

// Deltas exposes the stream as a pull sequence. The stream is closed when the consumer
// stops ranging or the producer finishes; an ERROR event ends the sequence.
func (s *ChanStream) Deltas() iter.Seq2[Delta, error] {
	return func(yield func(Delta, error) bool) {
		defer s.Close()
		for ev := range s.events {
			switch ev.Type {
			case StreamEventError:
				yield(Delta{}, ev.Err)
				return
			case StreamEventDelta:
				if ev.Raw == nil {
					continue
				}
				if !yield(*ev.Raw, nil) {
					return
				}
			}
		}
	}
}
