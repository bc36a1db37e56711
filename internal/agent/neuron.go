package agent

import (
	"fmt"

	"annlab/internal/nn"
)

// UplinkMode selects how a layer feeds the layer that follows it.
type UplinkMode int

const (
	// UplinkCrisscross wires every neuron to every neuron of the next layer.
	UplinkCrisscross UplinkMode = 0
	// UplinkFilter wires element i of the larger layer to element
	// i mod len(smaller) of the smaller one.
	UplinkFilter UplinkMode = 1
)

func (m UplinkMode) String() string {
	switch m {
	case UplinkCrisscross:
		return "crisscross"
	case UplinkFilter:
		return "filter"
	default:
		return fmt.Sprintf("uplink(%d)", int(m))
	}
}

// ParseUplinkMode accepts the mode names as well as their numeric form.
func ParseUplinkMode(s string) (UplinkMode, error) {
	switch s {
	case "", "0", "crisscross":
		return UplinkCrisscross, nil
	case "1", "filter":
		return UplinkFilter, nil
	default:
		return 0, fmt.Errorf("unknown uplink mode: %q", s)
	}
}

// Edge is one weighted input. Source indexes the neuron in the preceding layer.
type Edge struct {
	Source int
	Weight float64
}

type Neuron struct {
	ID      string
	Bias    float64
	IsInput bool
	Inputs  []Edge

	activator string
	activate  nn.Activation

	cached     bool
	lastOutput float64
}

func (n *Neuron) Activator() string {
	return n.activator
}

// LastOutput returns the memoized output and whether it is valid for the
// current evaluation cycle.
func (n *Neuron) LastOutput() (float64, bool) {
	return n.lastOutput, n.cached
}

func (n *Neuron) invalidate() {
	n.cached = false
	n.lastOutput = 0
}

func (n *Neuron) clone() *Neuron {
	out := *n
	out.Inputs = append([]Edge(nil), n.Inputs...)
	out.invalidate()
	return &out
}

type Layer struct {
	Neurons   []*Neuron
	Uplink    UplinkMode
	Activator string
}

func (l *Layer) Len() int {
	return len(l.Neurons)
}

func (l *Layer) Biases() []float64 {
	out := make([]float64, len(l.Neurons))
	for i, n := range l.Neurons {
		out[i] = n.Bias
	}
	return out
}

// LayerSpec declares one layer of a topology.
type LayerSpec struct {
	Count     int
	Activator string
	Biases    []float64
	Uplink    UplinkMode
}
