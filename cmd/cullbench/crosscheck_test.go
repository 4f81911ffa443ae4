package main

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-vis/engine/culler"
	"github.com/Carmen-Shannon/oxy-vis/engine/pyramid"
)

func TestDrawDiff(t *testing.T) {
	d := func(inst, first uint32) culler.DrawCommand {
		return culler.DrawCommand{FirstInstance: inst, FirstIndex: first, IndexCount: 3, InstanceCount: 1}
	}
	altered := d(3, 0)
	altered.AlbedoMap = 9

	tests := []struct {
		name string
		a, b []culler.DrawCommand
		want int
	}{
		{"equal sets in any order", []culler.DrawCommand{d(1, 0), d(2, 0)}, []culler.DrawCommand{d(2, 0), d(1, 0)}, 0},
		{"extra on one side", []culler.DrawCommand{d(1, 0), d(2, 0)}, []culler.DrawCommand{d(1, 0)}, 1},
		{"different LOD", []culler.DrawCommand{d(1, 0)}, []culler.DrawCommand{d(1, 36)}, 2},
		{"same key different payload", []culler.DrawCommand{d(3, 0)}, []culler.DrawCommand{altered}, 2},
		{"empty", nil, nil, 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := drawDiff(tc.a, tc.b); got != tc.want {
				t.Errorf("expected %d, got %d", tc.want, got)
			}
		})
	}
}

func TestTexelDiff(t *testing.T) {
	b := pyramid.NewBuilder()
	l0 := pyramid.NewLevel(4, 4)
	l0.Fill(5)
	a, err := b.Build(l0)
	if err != nil {
		t.Fatal(err)
	}

	l1 := pyramid.NewLevel(4, 4)
	l1.Fill(5)
	l1.Set(3, 3, 6)
	c, err := pyramid.NewBuilder().Build(l1)
	if err != nil {
		t.Fatal(err)
	}

	if got := texelDiff(a, a); got != 0 {
		t.Errorf("identical pyramids differ in %d texels", got)
	}
	// The raised texel propagates to one texel per level: 4x4, 2x2, 1x1.
	if got := texelDiff(a, c); got != 3 {
		t.Errorf("expected 3 differing texels, got %d", got)
	}
}
