package checker

import (
	"fmt"
	"sort"
	"strings"

	"warden/internal/watch"
)

// Options carries per-instance configuration a factory uses to build a
// checker. Extensions and Kinds override the checker's defaults when set.
type Options struct {
	Extensions []string
	Kinds      []watch.Kind
	AutoFix    bool
	Settings   map[string]string
}

// Factory builds a checker instance from its configuration.
type Factory func(opts Options) (Checker, error)

// InstanceConfig is the resolved configuration for one registered checker.
type InstanceConfig struct {
	ID      string
	Enabled bool
	Options Options
}

// Selected pairs a checker with its effective fix permission for dispatch.
type Selected struct {
	Checker    Checker
	FixCapable bool
}

// Registry is the static table mapping checker identifiers to instances.
// It is populated once at startup; unknown identifiers in configuration
// are a fatal configuration error.
type Registry struct {
	order     []string
	instances map[string]*instance
}

type instance struct {
	checker    Checker
	enabled    bool
	fixCapable bool
}

// NewRegistry instantiates every configured checker through the factory
// table. Configuration order is preserved: it determines the order
// fix-capable checkers execute in.
func NewRegistry(factories map[string]Factory, configs []InstanceConfig) (*Registry, error) {
	reg := &Registry{instances: make(map[string]*instance, len(configs))}
	for _, cfg := range configs {
		id := strings.TrimSpace(cfg.ID)
		factory, ok := factories[id]
		if !ok {
			return nil, fmt.Errorf("unknown checker id %q (known: %s)", cfg.ID, strings.Join(knownIDs(factories), ", "))
		}
		if _, dup := reg.instances[id]; dup {
			return nil, fmt.Errorf("checker %q configured twice", id)
		}
		chk, err := factory(cfg.Options)
		if err != nil {
			return nil, fmt.Errorf("configure checker %q: %w", id, err)
		}
		desc := chk.Describe()
		if desc.ID != id {
			return nil, fmt.Errorf("checker %q reported descriptor id %q", id, desc.ID)
		}
		reg.order = append(reg.order, id)
		reg.instances[id] = &instance{
			checker:    chk,
			enabled:    cfg.Enabled,
			fixCapable: desc.AutoFixAllowed && cfg.Options.AutoFix,
		}
	}
	return reg, nil
}

// Resolve returns the enabled checkers applicable to the given path and
// change kind, in configuration order.
func (r *Registry) Resolve(path string, kind watch.Kind) []Selected {
	var selected []Selected
	for _, id := range r.order {
		inst := r.instances[id]
		if !inst.enabled {
			continue
		}
		if !inst.checker.Describe().Accepts(path, kind) {
			continue
		}
		selected = append(selected, Selected{Checker: inst.checker, FixCapable: inst.fixCapable})
	}
	return selected
}

// IDs lists registered checker identifiers in configuration order.
func (r *Registry) IDs() []string {
	ids := make([]string, len(r.order))
	copy(ids, r.order)
	return ids
}

func knownIDs(factories map[string]Factory) []string {
	ids := make([]string, 0, len(factories))
	for id := range factories {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
