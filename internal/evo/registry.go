package evo

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

var (
	ErrVariantExists   = errors.New("strategy variant already registered")
	ErrVariantNotFound = errors.New("strategy variant not found")
)

// Constructor builds a strategy from its criteria. It must validate the
// criteria and must not keep a reference to the map.
type Constructor[T any] func(Criteria) (T, error)

type VariantSpec[T any] struct {
	Name        string
	DisplayName string
	Aliases     []string
	New         Constructor[T]
}

// VariantInfo describes a registered variant for listings.
type VariantInfo struct {
	Name        string
	DisplayName string
	Default     bool
}

type registeredVariant[T any] struct {
	name        string
	displayName string
	build       Constructor[T]
}

// Registry holds the variants of one strategy family.
type Registry[T any] struct {
	family   string
	fallback string

	mu      sync.RWMutex
	m       map[string]registeredVariant[T]
	aliases map[string]string
}

// NewRegistry returns an empty registry. fallback names the variant used when
// a lookup asks for the empty name.
func NewRegistry[T any](family, fallback string) *Registry[T] {
	return &Registry[T]{
		family:   family,
		fallback: normalizeVariant(fallback),
		m:        make(map[string]registeredVariant[T]),
		aliases:  make(map[string]string),
	}
}

func (r *Registry[T]) Family() string {
	return r.family
}

func (r *Registry[T]) Register(spec VariantSpec[T]) error {
	name := normalizeVariant(spec.Name)
	if name == "" {
		return errors.New("variant name is required")
	}
	if spec.New == nil {
		return errors.New("variant constructor is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.m[name]; exists {
		return fmt.Errorf("%w: %s/%s", ErrVariantExists, r.family, spec.Name)
	}
	if _, exists := r.aliases[name]; exists {
		return fmt.Errorf("%w: %s/%s", ErrVariantExists, r.family, spec.Name)
	}
	display := spec.DisplayName
	if display == "" {
		display = spec.Name
	}
	r.m[name] = registeredVariant[T]{name: name, displayName: display, build: spec.New}
	r.aliases[normalizeVariant(display)] = name
	for _, alias := range spec.Aliases {
		r.aliases[normalizeVariant(alias)] = name
	}
	return nil
}

func (r *Registry[T]) mustRegister(spec VariantSpec[T]) {
	if err := r.Register(spec); err != nil {
		panic(err)
	}
}

// Canonical resolves a variant name, display name or alias.
func (r *Registry[T]) Canonical(name string) (string, error) {
	entry, err := r.lookup(name)
	if err != nil {
		return "", err
	}
	return entry.name, nil
}

// Build instantiates a variant. The empty name selects the family default.
func (r *Registry[T]) Build(name string, criteria Criteria) (T, error) {
	entry, err := r.lookup(name)
	if err != nil {
		var zero T
		return zero, err
	}
	return entry.build(criteria.Clone())
}

func (r *Registry[T]) Variants() []VariantInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]VariantInfo, 0, len(r.m))
	for name, entry := range r.m {
		out = append(out, VariantInfo{Name: name, DisplayName: entry.displayName, Default: name == r.fallback})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (r *Registry[T]) lookup(name string) (registeredVariant[T], error) {
	key := normalizeVariant(name)
	if key == "" {
		key = r.fallback
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	if entry, ok := r.m[key]; ok {
		return entry, nil
	}
	if target, ok := r.aliases[key]; ok {
		return r.m[target], nil
	}
	return registeredVariant[T]{}, fmt.Errorf("%w: %s/%s", ErrVariantNotFound, r.family, name)
}

// normalizeVariant folds case and treats spaces and dashes as underscores, so
// "k-Point", "K Point" and "k_point" are the same variant.
func normalizeVariant(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '-':
			return '_'
		default:
			return r
		}
	}, name)
}
