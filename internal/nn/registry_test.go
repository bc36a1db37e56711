package nn

import (
	"errors"
	"testing"
)

func TestBuiltInActivations(t *testing.T) {
	reg := NewRegistry()

	cases := []struct {
		name string
		bias float64
		sum  float64
		want float64
	}{
		{name: Identity, bias: 0.7, sum: 3, want: 0.7},
		{name: Linear, bias: 0, sum: 1, want: 0.5},
		{name: Step, bias: 1, sum: 1, want: 1},
		{name: Step, bias: 1, sum: 0.999, want: 0},
		{name: Sigmoid, bias: 4, sum: 0, want: 0.5},
	}
	for _, tc := range cases {
		fn, err := reg.Get(tc.name)
		if err != nil {
			t.Fatalf("get %s: %v", tc.name, err)
		}
		if got := fn(tc.bias, tc.sum); got != tc.want {
			t.Fatalf("%s(bias=%v,sum=%v)=%v want=%v", tc.name, tc.bias, tc.sum, got, tc.want)
		}
	}
}

func TestRegistryResolvesAliasesCaseInsensitively(t *testing.T) {
	reg := NewRegistry()

	for alias, want := range map[string]string{
		"SigmoidActivator": Sigmoid,
		"Activator":        Identity,
		" LINEAR ":         Linear,
		"StepActivator":    Step,
	} {
		got, err := reg.Canonical(alias)
		if err != nil {
			t.Fatalf("canonical %q: %v", alias, err)
		}
		if got != want {
			t.Fatalf("canonical %q=%s want=%s", alias, got, want)
		}
	}
	if got := reg.DisplayName("sigmoid"); got != "Sigmoid" {
		t.Fatalf("unexpected display name: %s", got)
	}
}

func TestRegisterActivationValidation(t *testing.T) {
	reg := NewRegistry()

	if err := reg.Register("", func(b, s float64) float64 { return s }); err == nil {
		t.Fatal("expected empty name error")
	}
	if err := reg.Register("nil", nil); err == nil {
		t.Fatal("expected nil function error")
	}
	if err := reg.Register("sigmoid", func(b, s float64) float64 { return s }); !errors.Is(err, ErrActivationExists) {
		t.Fatalf("expected ErrActivationExists, got: %v", err)
	}
	if err := reg.Register("SigmoidActivator", func(b, s float64) float64 { return s }); !errors.Is(err, ErrActivationExists) {
		t.Fatalf("expected ErrActivationExists for alias, got: %v", err)
	}
}

func TestRegisterCustomActivation(t *testing.T) {
	reg := NewRegistry()
	if err := reg.Register("relu", func(_, s float64) float64 {
		if s < 0 {
			return 0
		}
		return s
	}); err != nil {
		t.Fatalf("register relu: %v", err)
	}
	fn, err := reg.Get("ReLU")
	if err != nil {
		t.Fatalf("get relu: %v", err)
	}
	if got := fn(0, -2); got != 0 {
		t.Fatalf("unexpected relu output: %v", got)
	}
	names := reg.List()
	if len(names) != 5 || names[0] != Identity {
		t.Fatalf("unexpected sorted list: %v", names)
	}
	if len(Default().List()) != 4 {
		t.Fatalf("expected default registry to stay built-in only, got %v", Default().List())
	}
}

func TestGetActivationNotFound(t *testing.T) {
	_, err := NewRegistry().Get("missing")
	if !errors.Is(err, ErrActivationNotFound) {
		t.Fatalf("expected ErrActivationNotFound, got: %v", err)
	}
}
