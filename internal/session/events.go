package session

import (
	"sync"

	"internify/internal/authprovider"
)

// EventKind identifies an auth-state transition.
type EventKind int

const (
	SignedIn EventKind = iota + 1
	SignedOut
	TokenRefreshed
)

func (k EventKind) String() string {
	switch k {
	case SignedIn:
		return "SIGNED_IN"
	case SignedOut:
		return "SIGNED_OUT"
	case TokenRefreshed:
		return "TOKEN_REFRESHED"
	default:
		return "UNKNOWN"
	}
}

// Event is delivered to subscribers. Session is nil after sign-out.
type Event struct {
	Kind    EventKind
	Session *authprovider.Session
}

type subscriber struct {
	fn    func(Event)
	kinds map[EventKind]struct{}
}

type broadcaster struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]subscriber
}

func (b *broadcaster) subscribe(fn func(Event), kinds []EventKind) func() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.subs == nil {
		b.subs = make(map[int]subscriber)
	}
	id := b.nextID
	b.nextID++
	sub := subscriber{fn: fn}
	if len(kinds) > 0 {
		sub.kinds = make(map[EventKind]struct{}, len(kinds))
		for _, k := range kinds {
			sub.kinds[k] = struct{}{}
		}
	}
	b.subs[id] = sub

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
		})
	}
}

func (b *broadcaster) publish(ev Event) {
	b.mu.Lock()
	targets := make([]func(Event), 0, len(b.subs))
	for _, sub := range b.subs {
		if sub.kinds != nil {
			if _, ok := sub.kinds[ev.Kind]; !ok {
				continue
			}
		}
		targets = append(targets, sub.fn)
	}
	b.mu.Unlock()

	for _, fn := range targets {
		fn(ev)
	}
}
