// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package postmaster

import (
	"fmt"
	"reflect"

	xglog "github.com/ManuGH/postmaster/internal/log"
	"github.com/ManuGH/postmaster/internal/message"
	"github.com/ManuGH/postmaster/internal/metrics"
)

// Send delivers msg to every subscription of type T, in registration order.
func Send[T message.Message](b *Bus, msg T) {
	b.dispatch(TypeOf[T](), msg)
}

// SendAs delivers msg to the subscriptions of mt. It is the untyped form used
// by inspection surfaces; msg must be non-nil and assignable to mt. A value
// of a named type sent as its underlying type is converted to mt first.
func (b *Bus) SendAs(mt MessageType, msg message.Message) error {
	if !mt.accepts(msg) {
		return fmt.Errorf("send %s as %s: %w", describe(msg), mt, ErrInvalidArgument)
	}
	b.dispatch(mt, mt.coerce(msg))
	return nil
}

func describe(msg message.Message) string {
	if msg == nil {
		return "<nil>"
	}
	return reflect.TypeOf(msg).String()
}

func (b *Bus) dispatch(mt MessageType, msg message.Message) {
	b.mu.Lock()
	g, ok := b.groups[mt]
	if !ok {
		b.mu.Unlock()
		return
	}
	calls := g.active()
	g.sendCount++
	g.listenerCallCount += uint64(len(calls))
	showLogging := b.cfg.ShowLogging
	b.mu.Unlock()

	metrics.RecordSend(mt.String(), len(calls))
	if showLogging {
		b.logger.Info().
			Str(xglog.FieldEvent, "bus.send").
			Str(xglog.FieldMessageType, mt.String()).
			Int(xglog.FieldSubscribers, len(calls)).
			Msg("dispatching message")
	}

	for _, cb := range calls {
		cb(msg)
	}
}
