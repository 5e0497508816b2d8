// Implements the topic-based event bus. Dispatch is synchronous and
// single-threaded: every matching handler runs to completion before the
// kernel pops the next event, so entity state is only ever mutated inside
// the one active handler invocation.

package sim

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// Handler reacts to a dispatched event. A non-nil error is recorded as a
// SubscriberFault against this subscriber; it does not stop dispatch to
// the remaining subscribers or the run itself.
type Handler interface {
	Handle(s *Simulation, ev Event) error
}

// HandlerFunc adapts a plain function to the Handler interface.
type HandlerFunc func(s *Simulation, ev Event) error

func (f HandlerFunc) Handle(s *Simulation, ev Event) error {
	return f(s, ev)
}

type subscription struct {
	pattern Topic
	handler Handler
}

// EventBus is the topic-keyed subscriber registry of one simulation.
// Handlers are invoked in subscription-registration order.
type EventBus struct {
	subs []subscription
}

// Subscribe registers a handler for a topic pattern: an exact topic, a
// family wildcard such as "deployment.*", or "*" for everything.
func (b *EventBus) Subscribe(pattern Topic, h Handler) {
	if h == nil {
		panic("Subscribe: handler must not be nil")
	}
	b.subs = append(b.subs, subscription{pattern: pattern, handler: h})
}

// publish delivers ev synchronously to every matching subscriber.
// A panicking or erroring handler is isolated: the fault is recorded and
// surfaced through sim.log, and the remaining subscribers still run.
func (b *EventBus) publish(s *Simulation, ev Event) {
	for i := range b.subs {
		sub := &b.subs[i]
		if !ev.Topic.Matches(sub.pattern) {
			continue
		}
		if err := dispatch(s, sub.handler, ev); err != nil {
			s.subscriberFault(ev, err)
		}
	}
}

// dispatch invokes a single handler, converting a panic into an error so
// one bad subscriber cannot corrupt the run.
func dispatch(s *Simulation, h Handler, ev Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	return h.Handle(s, ev)
}

// subscriberFault records a handler failure and surfaces it as a
// diagnostic event. Failures while dispatching sim.log itself are only
// logged, to keep a persistently failing log subscriber from feeding back
// into the schedule.
func (s *Simulation) subscriberFault(ev Event, err error) {
	detail := fmt.Sprintf("subscriber failed on %s: %v", ev.Topic, err)
	s.recordFault(FaultSubscriber, detail)
	logrus.Errorf("[tick %07d] %s", s.Now(), detail)
	if ev.Topic != TopicSimLog {
		s.emit(TopicSimLog, LogPayload{Message: detail})
	}
}
