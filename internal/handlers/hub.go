package handlers

import (
	"sync"

	sc "signal_chart"
)

// hub fans chart updates out to websocket subscribers. Each subscriber holds
// at most one pending state; a newer state replaces an unread one.
type hub struct {
	mu   sync.Mutex
	subs map[chan sc.ChartState]struct{}
}

func newHub() *hub {
	return &hub{subs: make(map[chan sc.ChartState]struct{})}
}

// ChartUpdated implements chart.Listener.
func (b *hub) ChartUpdated(state sc.ChartState) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.subs {
		select {
		case ch <- state:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- state
		}
	}
}

func (b *hub) subscribe() chan sc.ChartState {
	ch := make(chan sc.ChartState, 1)
	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

func (b *hub) unsubscribe(ch chan sc.ChartState) {
	b.mu.Lock()
	delete(b.subs, ch)
	b.mu.Unlock()
}

func (b *hub) size() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}
