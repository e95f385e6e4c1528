package main

import (
	"testing"

	"github.com/canopyviz/canopy/pkg/config"
	"github.com/canopyviz/canopy/pkg/layout"
)

func TestSplitIDs(t *testing.T) {
	cases := []struct {
		in   string
		want []string
	}{
		{"", nil},
		{"  ", nil},
		{"a", []string{"a"}},
		{"a,b", []string{"a", "b"}},
		{" a , ,b ", []string{"a", "b"}},
	}
	for _, c := range cases {
		got := splitIDs(c.in)
		if len(got) != len(c.want) {
			t.Errorf("splitIDs(%q) = %v, want %v", c.in, got, c.want)
			continue
		}
		for i := range got {
			if got[i] != c.want[i] {
				t.Errorf("splitIDs(%q) = %v, want %v", c.in, got, c.want)
			}
		}
	}
}

func TestLayoutOptionsMerge(t *testing.T) {
	cfg := config.Config{
		Layout: config.LayoutConfig{
			RepulsionStrength: 900,
			LinkDistance:      200,
			MaxIterations:     100,
		},
		Canvas: config.CanvasConfig{CenterX: 50, CenterY: -50},
	}

	opts := layoutOptions(cfg, 0, 0)
	def := layout.DefaultOptions()

	if opts.NodeRepulsionStrength != 900 || opts.LinkDistance != 200 {
		t.Errorf("config values not applied: %+v", opts)
	}
	if opts.MaxIterations != 100 {
		t.Errorf("max iterations = %d, want 100", opts.MaxIterations)
	}
	if opts.LinkStrength != def.LinkStrength {
		t.Errorf("unset config field should keep default, got %v", opts.LinkStrength)
	}
	if opts.CenterX != 50 || opts.CenterY != -50 {
		t.Errorf("canvas center not applied: %+v", opts)
	}

	// Flag overrides beat the config file.
	opts = layoutOptions(cfg, 7, 42)
	if opts.Seed != 7 || opts.MaxIterations != 42 {
		t.Errorf("flag overrides not applied: %+v", opts)
	}
}
