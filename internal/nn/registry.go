package nn

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
)

var (
	ErrActivationExists   = errors.New("activation already registered")
	ErrActivationNotFound = errors.New("activation not found")
)

// Activation computes a neuron's output from its bias and the weighted sum of
// its inputs.
type Activation func(bias, weightedSum float64) float64

const (
	Identity = "identity"
	Linear   = "linear"
	Step     = "step"
	Sigmoid  = "sigmoid"
)

type ActivationSpec struct {
	Name        string
	DisplayName string
	Func        Activation
	Aliases     []string
}

type registeredActivation struct {
	name        string
	displayName string
	fn          Activation
}

// Registry maps activation names to functions. Lookups are case-insensitive
// and also resolve aliases.
type Registry struct {
	mu      sync.RWMutex
	m       map[string]registeredActivation
	aliases map[string]string
}

var (
	defaultOnce     sync.Once
	defaultRegistry *Registry
)

// Default returns a process-wide registry holding only the built-ins.
func Default() *Registry {
	defaultOnce.Do(func() {
		defaultRegistry = NewRegistry()
	})
	return defaultRegistry
}

// NewRegistry returns a registry pre-populated with the built-in activations.
func NewRegistry() *Registry {
	r := &Registry{
		m:       make(map[string]registeredActivation),
		aliases: make(map[string]string),
	}
	for _, spec := range builtInActivations() {
		if err := r.RegisterSpec(spec); err != nil {
			panic(err)
		}
	}
	return r
}

func builtInActivations() []ActivationSpec {
	return []ActivationSpec{
		{
			Name:        Identity,
			DisplayName: "Identity",
			Func:        func(bias, _ float64) float64 { return bias },
			Aliases:     []string{"activator"},
		},
		{
			Name:        Linear,
			DisplayName: "Linear",
			Func: func(bias, sum float64) float64 {
				return 1.0 / (1.0 + sum + bias)
			},
			Aliases: []string{"linearactivator"},
		},
		{
			Name:        Step,
			DisplayName: "Step",
			Func: func(bias, sum float64) float64 {
				if sum >= bias {
					return 1.0
				}
				return 0.0
			},
			Aliases: []string{"stepactivator"},
		},
		{
			Name:        Sigmoid,
			DisplayName: "Sigmoid",
			Func: func(_, sum float64) float64 {
				return 1.0 / (1.0 + math.Exp(-sum))
			},
			Aliases: []string{"sigmoidactivator"},
		},
	}
}

func (r *Registry) Register(name string, fn Activation) error {
	return r.RegisterSpec(ActivationSpec{Name: name, Func: fn})
}

func (r *Registry) RegisterSpec(spec ActivationSpec) error {
	name := normalize(spec.Name)
	if name == "" {
		return errors.New("activation name is required")
	}
	if spec.Func == nil {
		return errors.New("activation function is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.m[name]; exists {
		return fmt.Errorf("%w: %s", ErrActivationExists, spec.Name)
	}
	if _, exists := r.aliases[name]; exists {
		return fmt.Errorf("%w: %s", ErrActivationExists, spec.Name)
	}
	display := spec.DisplayName
	if display == "" {
		display = spec.Name
	}
	r.m[name] = registeredActivation{name: name, displayName: display, fn: spec.Func}
	for _, alias := range spec.Aliases {
		r.aliases[normalize(alias)] = name
	}
	return nil
}

// Get resolves name (or one of its aliases) to an activation.
func (r *Registry) Get(name string) (Activation, error) {
	entry, err := r.lookup(name)
	if err != nil {
		return nil, err
	}
	return entry.fn, nil
}

// Canonical returns the registered name that name resolves to.
func (r *Registry) Canonical(name string) (string, error) {
	entry, err := r.lookup(name)
	if err != nil {
		return "", err
	}
	return entry.name, nil
}

func (r *Registry) DisplayName(name string) string {
	entry, err := r.lookup(name)
	if err != nil {
		return name
	}
	return entry.displayName
}

func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.m))
	for name := range r.m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *Registry) lookup(name string) (registeredActivation, error) {
	key := normalize(name)

	r.mu.RLock()
	defer r.mu.RUnlock()

	if entry, ok := r.m[key]; ok {
		return entry, nil
	}
	if target, ok := r.aliases[key]; ok {
		return r.m[target], nil
	}
	return registeredActivation{}, fmt.Errorf("%w: %s", ErrActivationNotFound, name)
}

func normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
