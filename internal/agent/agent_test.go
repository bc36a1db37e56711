package agent

import (
	"errors"
	"math/rand"
	"testing"

	"annlab/internal/genotype"
	"annlab/internal/nn"
)

func singleNeuron(t *testing.T, activator string, bias, weight float64) *Agent {
	t.Helper()
	rng := rand.New(rand.NewSource(1))
	a := New("a", nil)
	if err := a.AddLayer(rng, 1, nn.Identity, []float64{1}, UplinkCrisscross); err != nil {
		t.Fatalf("add input layer: %v", err)
	}
	if err := a.AddLayer(rng, 1, activator, []float64{bias}, UplinkCrisscross); err != nil {
		t.Fatalf("add output layer: %v", err)
	}
	a.Layer(1).Neurons[0].Inputs[0].Weight = weight
	return a
}

func TestActivationScenarios(t *testing.T) {
	cases := []struct {
		activator string
		bias      float64
		weight    float64
		want      float64
	}{
		{activator: nn.Linear, bias: 0, weight: 1, want: 0.5},
		{activator: nn.Step, bias: 1, weight: 1, want: 1},
		{activator: nn.Sigmoid, bias: 0.3, weight: 0, want: 0.5},
	}
	for _, tc := range cases {
		a := singleNeuron(t, tc.activator, tc.bias, tc.weight)
		a.PrepareRun([]float64{1})
		out := a.Outputs()
		if len(out) != 1 || out[0] != tc.want {
			t.Fatalf("%s: got=%v want=%v", tc.activator, out, tc.want)
		}
	}
}

func TestOutputIsMemoizedUntilPrepareRun(t *testing.T) {
	a := singleNeuron(t, nn.Linear, 0, 1)
	a.PrepareRun([]float64{1})
	if got := a.Output(1, 0); got != 0.5 {
		t.Fatalf("unexpected output: %v", got)
	}

	a.Layer(1).Neurons[0].Inputs[0].Weight = 3
	if got := a.Output(1, 0); got != 0.5 {
		t.Fatalf("expected cached output, got=%v", got)
	}
	if _, ok := a.Layer(1).Neurons[0].LastOutput(); !ok {
		t.Fatal("expected cached flag")
	}

	a.PrepareRun(nil)
	if got := a.Output(1, 0); got != 0.25 {
		t.Fatalf("expected recomputed output 0.25, got=%v", got)
	}
}

func TestWiringCounts(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	a, err := Build("w", nil, rng, []LayerSpec{
		{Count: 2, Activator: "Activator", Biases: []float64{0.2, 0.5}},
		{Count: 4, Activator: "SigmoidActivator", Uplink: UplinkFilter},
		{Count: 3, Activator: "LinearActivator"},
		{Count: 1, Activator: nn.Sigmoid, Biases: []float64{0.7}},
	}, false)
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	// Layer 0 is crisscross: every hidden neuron sees both inputs.
	for i, n := range a.Layer(1).Neurons {
		if len(n.Inputs) != 2 {
			t.Fatalf("layer 1 neuron %d: expected 2 inputs, got=%d", i, len(n.Inputs))
		}
	}
	// Layer 1 is filter, 4 -> 3: neuron 0 receives sources 0 and 3.
	got := []int{len(a.Layer(2).Neurons[0].Inputs), len(a.Layer(2).Neurons[1].Inputs), len(a.Layer(2).Neurons[2].Inputs)}
	if got[0] != 2 || got[1] != 1 || got[2] != 1 {
		t.Fatalf("unexpected filter fan-in: %v", got)
	}
	if src := a.Layer(2).Neurons[0].Inputs[1].Source; src != 3 {
		t.Fatalf("expected wrap-around source 3, got=%d", src)
	}
	if len(a.Layer(3).Neurons[0].Inputs) != 3 {
		t.Fatalf("expected crisscross into output")
	}

	// 4*(1+2) + (1+2) + 2*(1+1) + (1+3)
	if a.GenomeLen() != 23 {
		t.Fatalf("unexpected genome length: %d", a.GenomeLen())
	}
	if b := a.InputBiases(); b[0] != 0.2 || b[1] != 0.5 {
		t.Fatalf("unexpected input biases: %v", b)
	}
	if b := a.OutputBiases(); b[0] != 0.7 {
		t.Fatalf("unexpected output biases: %v", b)
	}
	if a.Layer(1).Activator != nn.Sigmoid {
		t.Fatalf("expected canonical activator name, got=%s", a.Layer(1).Activator)
	}
}

func TestFilterUplinkFanOut(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	a, err := Build("f", nil, rng, []LayerSpec{
		{Count: 2, Uplink: UplinkFilter},
		{Count: 5},
	}, false)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	for i, n := range a.Layer(1).Neurons {
		if len(n.Inputs) != 1 || n.Inputs[0].Source != i%2 {
			t.Fatalf("neuron %d: unexpected inputs %+v", i, n.Inputs)
		}
	}
}

func TestAddLayerValidation(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	a := New("v", nil)
	if err := a.AddLayer(rng, 0, "", nil, UplinkCrisscross); err == nil {
		t.Fatal("expected count error")
	}
	if err := a.AddLayer(rng, 1, "", []float64{1, 2}, UplinkCrisscross); err == nil {
		t.Fatal("expected bias length error")
	}
	if err := a.AddLayer(rng, 1, "", nil, UplinkMode(4)); err == nil {
		t.Fatal("expected uplink error")
	}
	if err := a.AddLayer(rng, 1, "tanh", nil, UplinkCrisscross); !errors.Is(err, nn.ErrActivationNotFound) {
		t.Fatalf("expected ErrActivationNotFound, got: %v", err)
	}
	if err := a.AddLayer(nil, 1, "", nil, UplinkCrisscross); err == nil {
		t.Fatal("expected missing rng error")
	}
}

func TestGenomeRoundTripBumpsGeneration(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	a, err := Build("g", nil, rng, []LayerSpec{{Count: 2}, {Count: 3}, {Count: 1}}, false)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	genome, err := a.Genome()
	if err != nil {
		t.Fatalf("genome: %v", err)
	}
	if len(genome) != a.GenomeLen() {
		t.Fatalf("genome len=%d want=%d", len(genome), a.GenomeLen())
	}

	replacement := genome.Clone()
	replacement[0] = genotype.MustEncode(0.125, genotype.Precision)
	if err := a.SetGenome(replacement); err != nil {
		t.Fatalf("set genome: %v", err)
	}
	if a.Generation != 1 {
		t.Fatalf("expected generation bump, got=%d", a.Generation)
	}
	if bias := a.Layer(1).Neurons[0].Bias; bias != 0.125 {
		t.Fatalf("expected replaced bias, got=%v", bias)
	}

	if err := a.SetGenome(replacement[:3]); !errors.Is(err, genotype.ErrGenomeLength) {
		t.Fatalf("expected ErrGenomeLength, got: %v", err)
	}
	bad := replacement.Clone()
	bad[1] = genotype.DigitGroup{}
	if err := a.SetGenome(bad); !errors.Is(err, genotype.ErrMalformedGroup) {
		t.Fatalf("expected ErrMalformedGroup, got: %v", err)
	}
	if a.Generation != 1 {
		t.Fatalf("failed writes must not bump generation, got=%d", a.Generation)
	}
}

func TestReplicateCloneIsIndependent(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	a, err := Build("7", nil, rng, []LayerSpec{{Count: 2}, {Count: 2}, {Count: 1}}, false)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	a.Generation = 4
	a.IsElite = true

	clone, err := a.Replicate(a.ID, rng)
	if err != nil {
		t.Fatalf("replicate: %v", err)
	}
	if clone.ID != "7" || clone.Generation != 4 || clone.IsElite {
		t.Fatalf("unexpected clone metadata: %+v", clone)
	}
	want, _ := a.Genome()
	got, _ := clone.Genome()
	if !want.Equal(got) {
		t.Fatal("expected clone genome to match")
	}

	clone.Layer(1).Neurons[0].Inputs[0].Weight = 0.999
	clone.Layer(1).Neurons[0].Bias = 0.111
	if a.Layer(1).Neurons[0].Inputs[0].Weight == 0.999 || a.Layer(1).Neurons[0].Bias == 0.111 {
		t.Fatal("clone shares state with its source")
	}
}

func TestReplicatePrototypeRandomizes(t *testing.T) {
	rng := rand.New(rand.NewSource(9))
	proto := NewPrototype(nil)
	if err := proto.AddLayer(rng, 2, nn.Identity, []float64{0.2, 0.5}, UplinkCrisscross); err != nil {
		t.Fatalf("add layer: %v", err)
	}
	if err := proto.AddLayer(rng, 3, nn.Sigmoid, nil, UplinkFilter); err != nil {
		t.Fatalf("add layer: %v", err)
	}
	if err := proto.AddLayer(rng, 1, nn.Linear, []float64{0.7}, UplinkCrisscross); err != nil {
		t.Fatalf("add layer: %v", err)
	}

	replica, err := proto.Replicate("0", rng)
	if err != nil {
		t.Fatalf("replicate: %v", err)
	}
	if replica.IsPrototype() {
		t.Fatal("replica must not be a prototype")
	}
	if replica.LayerCount() != 3 || replica.LayerSize(1) != 3 || replica.Layer(1).Activator != nn.Sigmoid {
		t.Fatalf("unexpected replica topology")
	}
	if replica.GenomeLen() != proto.GenomeLen() {
		t.Fatalf("genome len mismatch: %d vs %d", replica.GenomeLen(), proto.GenomeLen())
	}
	pg, _ := proto.Genome()
	rg, _ := replica.Genome()
	if pg.Equal(rg) {
		t.Fatal("expected fresh random weights")
	}

	if _, err := New("empty", nil).Replicate("x", rng); !errors.Is(err, ErrNoLayers) {
		t.Fatalf("expected ErrNoLayers, got: %v", err)
	}
}

func TestParseUplinkMode(t *testing.T) {
	for in, want := range map[string]UplinkMode{"": UplinkCrisscross, "1": UplinkFilter, "filter": UplinkFilter} {
		got, err := ParseUplinkMode(in)
		if err != nil || got != want {
			t.Fatalf("parse %q: got=%v err=%v", in, got, err)
		}
	}
	if _, err := ParseUplinkMode("mesh"); err == nil {
		t.Fatal("expected parse error")
	}
}
