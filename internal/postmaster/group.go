// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package postmaster

// group holds the subscriptions of one message type in registration order
// together with its delivery counters.
type group struct {
	msgType           MessageType
	subs              []*Subscription
	sendCount         uint64
	listenerCallCount uint64
}

// active returns the callbacks of active subscriptions in order.
// Callers must hold the bus lock.
func (g *group) active() []Callback {
	out := make([]Callback, 0, len(g.subs))
	for _, s := range g.subs {
		if s.State() == StateActive && s.callback != nil {
			out = append(out, s.callback)
		}
	}
	return out
}

// compact drops every subscription in drop, preserving the order of the
// rest. It returns the subscriptions that were removed.
func (g *group) compact(drop map[*Subscription]struct{}) []*Subscription {
	var removed []*Subscription
	kept := g.subs[:0]
	for _, s := range g.subs {
		if _, ok := drop[s]; ok {
			removed = append(removed, s)
			continue
		}
		kept = append(kept, s)
	}
	clear(g.subs[len(kept):])
	g.subs = kept
	return removed
}

func (g *group) stats() Stats {
	st := Stats{
		Type:              g.msgType,
		Name:              g.msgType.String(),
		SendCount:         g.sendCount,
		ListenerCallCount: g.listenerCallCount,
	}
	for _, s := range g.subs {
		switch s.State() {
		case StateActive:
			st.Subscribers++
		case StatePendingRemoval:
			st.Pending++
		}
	}
	return st
}
