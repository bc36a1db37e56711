package agent

import (
	"errors"
	"fmt"
	"math/rand"

	"annlab/internal/genotype"
	"annlab/internal/nn"
)

// PrototypeID is the id given to prototype agents by NewPrototype.
const PrototypeID = "P"

var ErrNoLayers = errors.New("agent has no layers")

// Agent is a layered feed-forward network. Layer 0 is the input layer and the
// last layer is the output layer.
type Agent struct {
	ID         string
	Generation int
	LastScore  float64
	IsElite    bool
	IsSelected bool

	layers    []*Layer
	registry  *nn.Registry
	prototype bool
}

func New(id string, registry *nn.Registry) *Agent {
	if registry == nil {
		registry = nn.Default()
	}
	return &Agent{ID: id, registry: registry}
}

// NewPrototype returns an empty prototype. Replicas of a prototype are freshly
// randomized rather than cloned.
func NewPrototype(registry *nn.Registry) *Agent {
	a := New(PrototypeID, registry)
	a.prototype = true
	return a
}

// Build creates an agent from a list of layer declarations.
func Build(id string, registry *nn.Registry, rng *rand.Rand, specs []LayerSpec, prototype bool) (*Agent, error) {
	a := New(id, registry)
	a.prototype = prototype
	for i, spec := range specs {
		if err := a.AddLayer(rng, spec.Count, spec.Activator, spec.Biases, spec.Uplink); err != nil {
			return nil, fmt.Errorf("layer %d: %w", i, err)
		}
	}
	return a, nil
}

func (a *Agent) IsPrototype() bool {
	return a.prototype
}

// AddLayer appends count fresh neurons and wires them to the preceding layer
// according to that layer's uplink mode. Biases default to uniform draws in
// [0,1) for every position biases does not cover; weights are always drawn.
func (a *Agent) AddLayer(rng *rand.Rand, count int, activator string, biases []float64, uplink UplinkMode) error {
	if rng == nil {
		return fmt.Errorf("random source is required")
	}
	if count <= 0 {
		return fmt.Errorf("neuron count must be > 0, got %d", count)
	}
	if len(biases) > count {
		return fmt.Errorf("got %d biases for %d neurons", len(biases), count)
	}
	if uplink != UplinkCrisscross && uplink != UplinkFilter {
		return fmt.Errorf("unsupported uplink mode: %d", uplink)
	}

	index := len(a.layers)
	isInput := index == 0
	if activator == "" {
		if isInput {
			activator = nn.Identity
		} else {
			activator = nn.Linear
		}
	}
	name, err := a.registry.Canonical(activator)
	if err != nil {
		return err
	}
	fn, err := a.registry.Get(name)
	if err != nil {
		return err
	}

	layer := &Layer{
		Neurons:   make([]*Neuron, count),
		Uplink:    uplink,
		Activator: name,
	}
	for i := 0; i < count; i++ {
		bias := 0.0
		if i < len(biases) {
			bias = biases[i]
		} else {
			bias = rng.Float64()
		}
		layer.Neurons[i] = &Neuron{
			ID:        fmt.Sprintf("%s:%d:%d", a.ID, index, i),
			Bias:      bias,
			IsInput:   isInput,
			activator: name,
			activate:  fn,
		}
	}

	if !isInput {
		link(a.layers[index-1], layer, rng)
	}
	a.layers = append(a.layers, layer)
	return nil
}

func link(prev, next *Layer, rng *rand.Rand) {
	if prev.Uplink == UplinkFilter {
		if prev.Len() >= next.Len() {
			for i := range prev.Neurons {
				target := next.Neurons[i%next.Len()]
				target.Inputs = append(target.Inputs, Edge{Source: i, Weight: rng.Float64()})
			}
			return
		}
		for i, target := range next.Neurons {
			target.Inputs = append(target.Inputs, Edge{Source: i % prev.Len(), Weight: rng.Float64()})
		}
		return
	}

	for i := range prev.Neurons {
		for _, target := range next.Neurons {
			target.Inputs = append(target.Inputs, Edge{Source: i, Weight: rng.Float64()})
		}
	}
}

func (a *Agent) LayerCount() int {
	return len(a.layers)
}

func (a *Agent) LayerSize(i int) int {
	return a.layers[i].Len()
}

// Layer exposes layer i. Callers must not add or remove neurons.
func (a *Agent) Layer(i int) *Layer {
	return a.layers[i]
}

// SetBiases overwrites the first len(biases) biases of a layer.
func (a *Agent) SetBiases(layer int, biases ...float64) error {
	if layer < 0 || layer >= len(a.layers) {
		return fmt.Errorf("layer %d out of range [0,%d)", layer, len(a.layers))
	}
	neurons := a.layers[layer].Neurons
	if len(biases) > len(neurons) {
		return fmt.Errorf("got %d biases for %d neurons", len(biases), len(neurons))
	}
	for i, bias := range biases {
		neurons[i].Bias = bias
	}
	return nil
}

func (a *Agent) InputBiases() []float64 {
	if len(a.layers) == 0 {
		return nil
	}
	return a.layers[0].Biases()
}

func (a *Agent) OutputBiases() []float64 {
	if len(a.layers) == 0 {
		return nil
	}
	return a.layers[len(a.layers)-1].Biases()
}

// PrepareRun invalidates every cached output and installs inputs as the biases
// of the input layer.
func (a *Agent) PrepareRun(inputs []float64) {
	for li, layer := range a.layers {
		for i, n := range layer.Neurons {
			n.invalidate()
			if li == 0 && i < len(inputs) {
				n.Bias = inputs[i]
			}
		}
	}
}

// Output returns the memoized output of neuron index in layer.
func (a *Agent) Output(layer, index int) float64 {
	n := a.layers[layer].Neurons[index]
	if n.cached {
		return n.lastOutput
	}
	if n.IsInput {
		n.lastOutput = n.Bias
	} else {
		sum := 0.0
		for _, edge := range n.Inputs {
			sum += a.Output(layer-1, edge.Source) * edge.Weight
		}
		n.lastOutput = n.activate(n.Bias, sum)
	}
	n.cached = true
	return n.lastOutput
}

// Outputs evaluates the output layer.
func (a *Agent) Outputs() []float64 {
	if len(a.layers) == 0 {
		return nil
	}
	last := len(a.layers) - 1
	out := make([]float64, a.layers[last].Len())
	for i := range out {
		out[i] = a.Output(last, i)
	}
	return out
}

// GenomeLen is the number of digit groups in the agent's genome.
func (a *Agent) GenomeLen() int {
	total := 0
	for _, layer := range a.layers {
		for _, n := range layer.Neurons {
			if !n.IsInput {
				total += 1 + len(n.Inputs)
			}
		}
	}
	return total
}

// Genome serializes the bias and weights of every non-input neuron.
func (a *Agent) Genome() (genotype.Genome, error) {
	genome := make(genotype.Genome, 0, a.GenomeLen())
	for _, layer := range a.layers {
		for _, n := range layer.Neurons {
			if n.IsInput {
				continue
			}
			group, err := genotype.Encode(n.Bias, genotype.Precision)
			if err != nil {
				return nil, fmt.Errorf("neuron %s bias: %w", n.ID, err)
			}
			genome = append(genome, group)
			for j, edge := range n.Inputs {
				group, err := genotype.Encode(edge.Weight, genotype.Precision)
				if err != nil {
					return nil, fmt.Errorf("neuron %s weight %d: %w", n.ID, j, err)
				}
				genome = append(genome, group)
			}
		}
	}
	return genome, nil
}

// SetGenome replaces every non-input bias and weight and bumps Generation.
// Nothing is written unless the whole genome decodes.
func (a *Agent) SetGenome(genome genotype.Genome) error {
	if len(genome) != a.GenomeLen() {
		return fmt.Errorf("%w: got=%d want=%d", genotype.ErrGenomeLength, len(genome), a.GenomeLen())
	}
	values, err := genome.Values()
	if err != nil {
		return err
	}

	k := 0
	for _, layer := range a.layers {
		for _, n := range layer.Neurons {
			if n.IsInput {
				continue
			}
			n.Bias = values[k]
			k++
			for j := range n.Inputs {
				n.Inputs[j].Weight = values[k]
				k++
			}
			n.invalidate()
		}
	}
	a.Generation++
	return nil
}

// Replicate returns an independent agent with the same topology. Prototypes
// are rebuilt with fresh random biases and weights; any other agent is cloned.
func (a *Agent) Replicate(id string, rng *rand.Rand) (*Agent, error) {
	if len(a.layers) == 0 {
		return nil, ErrNoLayers
	}
	if !a.prototype {
		return a.clone(id), nil
	}

	replica := New(id, a.registry)
	for i, layer := range a.layers {
		if err := replica.AddLayer(rng, layer.Len(), layer.Activator, nil, layer.Uplink); err != nil {
			return nil, fmt.Errorf("replicate layer %d: %w", i, err)
		}
	}
	return replica, nil
}

func (a *Agent) clone(id string) *Agent {
	out := &Agent{
		ID:         id,
		Generation: a.Generation,
		LastScore:  a.LastScore,
		layers:     make([]*Layer, len(a.layers)),
		registry:   a.registry,
	}
	for i, layer := range a.layers {
		copied := &Layer{
			Neurons:   make([]*Neuron, len(layer.Neurons)),
			Uplink:    layer.Uplink,
			Activator: layer.Activator,
		}
		for j, n := range layer.Neurons {
			copied.Neurons[j] = n.clone()
		}
		out.layers[i] = copied
	}
	return out
}

// ResetFlags clears the per-generation elite and selection marks.
func (a *Agent) ResetFlags() {
	a.IsElite = false
	a.IsSelected = false
}

func (a *Agent) String() string {
	return fmt.Sprintf("%s(gen=%d score=%g)", a.ID, a.Generation, a.LastScore)
}
