package event

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// Policy is the immutable dispatch table derived from one configuration version.
//
// Two memo caches answer enablement queries; entries are computed at most
// once per queried type and stay valid for the lifetime of the policy, so
// in-flight dispatches may keep using a superseded policy safely.
type Policy struct {
	entries []policyEntry
	senders int

	// supertype[q]: some registered type refines q.
	supertype sync.Map
	// exact[q]: q refines some registered type, i.e. q is dispatchable.
	exact sync.Map
}

type policyEntry struct {
	typ     *Type
	senders []*Sender
}

func newPolicy(s *snapshot) *Policy {
	p := &Policy{}
	senders := make(map[pairKey]*Sender)
	index := make(map[*Type]int)

	for _, pair := range s.pairs {
		for _, b := range s.bindings {
			if !capabilityAlive(b.capability, s.disabledCapabilities) {
				continue
			}
			if !implements(pair.Listener, b.capability) {
				continue
			}

			for _, t := range b.types {
				if !typeAlive(t, s.disabledTypes) {
					continue
				}

				sender, ok := senders[pair.key()]
				if !ok {
					sender = newSender(pair)
					senders[pair.key()] = sender
				}

				i, ok := index[t]
				if !ok {
					i = len(p.entries)
					index[t] = i
					p.entries = append(p.entries, policyEntry{typ: t})
				}
				if !containsSender(p.entries[i].senders, sender) {
					p.entries[i].senders = append(p.entries[i].senders, sender)
				}

				p.supertype.Store(t, true)
			}
		}
	}

	p.senders = len(senders)
	return p
}

// capabilityAlive is false when c is a disabled capability or refines one.
func capabilityAlive(c *Capability, disabled []*Capability) bool {
	for _, d := range disabled {
		if c.IsRefinementOf(d) {
			return false
		}
	}
	return true
}

// typeAlive is false when t is a disabled type or refines one.
func typeAlive(t *Type, disabled []*Type) bool {
	for _, d := range disabled {
		if t.IsRefinementOf(d) {
			return false
		}
	}
	return true
}

func containsSender(list []*Sender, s *Sender) bool {
	for _, existing := range list {
		if existing == s {
			return true
		}
	}
	return false
}

// Types returns the registered types that survived disabling, in registration order.
func (p *Policy) Types() []*Type {
	out := make([]*Type, len(p.entries))
	for i, e := range p.entries {
		out[i] = e.typ
	}
	return out
}

// SenderCount returns the number of distinct listener-subscription pairs that
// can receive at least one type.
func (p *Policy) SenderCount() int {
	return p.senders
}

// IsEnabled reports whether a notification of type t, or of any refinement of
// t, could be delivered. False positives are possible, false negatives are not.
func (p *Policy) IsEnabled(t *Type) bool {
	if !t.recognized() {
		return false
	}
	return p.isSupertype(t) || p.isDispatchable(t)
}

func (p *Policy) isSupertype(t *Type) bool {
	if v, ok := p.supertype.Load(t); ok {
		return v.(bool)
	}

	found := false
	for _, e := range p.entries {
		if e.typ.IsRefinementOf(t) {
			found = true
			break
		}
	}

	v, _ := p.supertype.LoadOrStore(t, found)
	return v.(bool)
}

func (p *Policy) isDispatchable(t *Type) bool {
	if v, ok := p.exact.Load(t); ok {
		return v.(bool)
	}

	found := false
	for _, e := range p.entries {
		if t.IsRefinementOf(e.typ) {
			found = true
			break
		}
	}

	v, _ := p.exact.LoadOrStore(t, found)
	return v.(bool)
}

// Dispatch delivers n to every matching sender, in registration order.
// The first listener error aborts delivery to the remaining senders and is
// returned. Listener panics are not recovered.
func (p *Policy) Dispatch(ctx context.Context, n Notification) error {
	_, err := p.dispatch(ctx, n, false)
	return err
}

// DispatchIsolated delivers n to every matching sender regardless of failures
// and returns the joined listener errors.
func (p *Policy) DispatchIsolated(ctx context.Context, n Notification) error {
	_, err := p.dispatch(ctx, n, true)
	return err
}

// dispatch returns the number of listener invocations.
// A sender indexed under several matching types is invoked once per type.
func (p *Policy) dispatch(ctx context.Context, n Notification, isolate bool) (int, error) {
	if !n.Type.recognized() || !p.isDispatchable(n.Type) {
		return 0, nil
	}

	var (
		delivered int
		errs      []error
	)
	for _, e := range p.entries {
		if !n.Type.IsRefinementOf(e.typ) {
			continue
		}
		for _, s := range e.senders {
			invoked, err := s.Dispatch(ctx, n)
			if invoked {
				delivered++
			}
			if err == nil {
				continue
			}
			err = fmt.Errorf("listener %s failed: %w", listenerName(s.pair.Listener), err)
			if !isolate {
				return delivered, err
			}
			errs = append(errs, err)
		}
	}

	return delivered, errors.Join(errs...)
}
