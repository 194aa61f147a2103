package event

import (
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/dmitrymomot/notification/core/logger"
)

// Configuration is the registry of capability bindings, listener pairs and
// disabled capabilities/types.
//
// Writers are serialized by a mutex and publish a new immutable snapshot with
// a single atomic store. Readers load the current snapshot without locking;
// each snapshot builds its Policy lazily, exactly once.
type Configuration struct {
	mu      sync.Mutex
	current atomic.Pointer[snapshot]
	logger  *slog.Logger

	// onRebuild is invoked after a snapshot built its policy.
	onRebuild func(*Policy)
}

// ConfigurationOption configures a Configuration.
type ConfigurationOption func(*Configuration)

// WithConfigurationLogger configures structured logging for registration operations.
func WithConfigurationLogger(l *slog.Logger) ConfigurationOption {
	return func(c *Configuration) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewConfiguration creates an empty configuration.
func NewConfiguration(opts ...ConfigurationOption) *Configuration {
	c := &Configuration{
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	for _, opt := range opts {
		opt(c)
	}

	c.current.Store(&snapshot{})
	return c
}

type binding struct {
	capability *Capability
	types      []*Type
}

// snapshot is one immutable version of the configuration.
// Only the lazily built policy is written after publication, guarded by once.
type snapshot struct {
	version              uint64
	bindings             []binding
	pairs                []Pair
	disabledCapabilities []*Capability
	disabledTypes        []*Type

	once   sync.Once
	policy *Policy
}

func (s *snapshot) clone() *snapshot {
	next := &snapshot{
		version:              s.version,
		bindings:             make([]binding, len(s.bindings)),
		pairs:                append([]Pair(nil), s.pairs...),
		disabledCapabilities: append([]*Capability(nil), s.disabledCapabilities...),
		disabledTypes:        append([]*Type(nil), s.disabledTypes...),
	}
	for i, b := range s.bindings {
		next.bindings[i] = binding{
			capability: b.capability,
			types:      append([]*Type(nil), b.types...),
		}
	}
	return next
}

// update applies fn to a copy of the current snapshot and publishes it when fn
// reports a change.
func (c *Configuration) update(fn func(next *snapshot) bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	next := c.current.Load().clone()
	if !fn(next) {
		return
	}
	next.version++
	c.current.Store(next)
}

// AddBinding declares that listeners implementing capability may receive
// notifications of type t (and its refinements).
func (c *Configuration) AddBinding(capability *Capability, t *Type) error {
	if !capability.recognized() {
		return fmt.Errorf("%w: capability %q is not recognized", ErrInvalidArgument, capability.Name())
	}
	if !t.recognized() {
		return fmt.Errorf("%w: notification type %q is not recognized", ErrInvalidArgument, t.Name())
	}

	c.update(func(next *snapshot) bool {
		for i, b := range next.bindings {
			if b.capability != capability {
				continue
			}
			for _, existing := range b.types {
				if existing == t {
					return false
				}
			}
			next.bindings[i].types = append(next.bindings[i].types, t)
			return true
		}
		next.bindings = append(next.bindings, binding{capability: capability, types: []*Type{t}})
		return true
	})

	return nil
}

// AddListener registers a listener-subscription pair.
// A pair identical to a registered one is logged and ignored.
func (c *Configuration) AddListener(p Pair) error {
	if err := validateListener(p.Listener); err != nil {
		return err
	}

	duplicate := false
	c.update(func(next *snapshot) bool {
		for _, existing := range next.pairs {
			if existing.Equal(p) {
				duplicate = true
				return false
			}
		}
		next.pairs = append(next.pairs, p)
		return true
	})

	if duplicate {
		c.logger.Warn("listener already registered with this subscription",
			logger.Component("notification_configuration"),
			slog.String("listener", listenerName(p.Listener)),
			slog.String("subscription", p.Subscription.String()))
	}

	return nil
}

// RemoveListener removes every pair that references l, whatever its subscription.
// It returns the number of pairs removed.
func (c *Configuration) RemoveListener(l Listener) int {
	if validateListener(l) != nil {
		return 0
	}

	removed := 0
	c.update(func(next *snapshot) bool {
		kept := next.pairs[:0]
		for _, p := range next.pairs {
			if p.Listener == l {
				removed++
				continue
			}
			kept = append(kept, p)
		}
		next.pairs = kept
		return removed > 0
	})

	return removed
}

// RemoveListeners removes every pair referencing any of ls.
func (c *Configuration) RemoveListeners(ls ...Listener) int {
	removed := 0
	for _, l := range ls {
		removed += c.RemoveListener(l)
	}
	return removed
}

// DisableCapability stops delivery to capability and all of its refinements.
// Disabling is cumulative; there is no way to re-enable.
func (c *Configuration) DisableCapability(capability *Capability) error {
	if !capability.recognized() {
		return fmt.Errorf("%w: capability %q is not recognized", ErrInvalidArgument, capability.Name())
	}

	c.update(func(next *snapshot) bool {
		for _, d := range next.disabledCapabilities {
			if d == capability {
				return false
			}
		}
		next.disabledCapabilities = append(next.disabledCapabilities, capability)
		return true
	})

	return nil
}

// DisableType stops delivery of t and all of its refinements.
// Disabling is cumulative; there is no way to re-enable.
func (c *Configuration) DisableType(t *Type) error {
	if !t.recognized() {
		return fmt.Errorf("%w: notification type %q is not recognized", ErrInvalidArgument, t.Name())
	}

	c.update(func(next *snapshot) bool {
		for _, d := range next.disabledTypes {
			if d == t {
				return false
			}
		}
		next.disabledTypes = append(next.disabledTypes, t)
		return true
	})

	return nil
}

// Policy returns the dispatch policy for the current configuration version,
// building it on first use.
func (c *Configuration) Policy() *Policy {
	s := c.current.Load()
	s.once.Do(func() {
		s.policy = newPolicy(s)
		if c.onRebuild != nil {
			c.onRebuild(s.policy)
		}
	})
	return s.policy
}

// Version increases by one with every effective mutation.
func (c *Configuration) Version() uint64 {
	return c.current.Load().version
}

// Listeners returns the registered pairs in registration order.
func (c *Configuration) Listeners() []Pair {
	return append([]Pair(nil), c.current.Load().pairs...)
}

// IsRegistered reports whether any pair references l.
func (c *Configuration) IsRegistered(l Listener) bool {
	if validateListener(l) != nil {
		return false
	}
	for _, p := range c.current.Load().pairs {
		if p.Listener == l {
			return true
		}
	}
	return false
}

// Bindings returns a copy of the capability to types mapping.
func (c *Configuration) Bindings() map[*Capability][]*Type {
	s := c.current.Load()
	out := make(map[*Capability][]*Type, len(s.bindings))
	for _, b := range s.bindings {
		out[b.capability] = append([]*Type(nil), b.types...)
	}
	return out
}
