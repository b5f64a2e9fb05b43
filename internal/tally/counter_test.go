package tally

import (
	"encoding/json"
	"testing"
)

func TestCounterKeepsFirstSeenOrder(t *testing.T) {
	var c Counter
	c.Inc("rude staff")
	c.Inc("cold soup")
	c.Inc("rude staff")
	c.Add("long wait", 0)

	items := c.Items()
	want := []Item{{"rude staff", 2}, {"cold soup", 1}, {"long wait", 0}}
	if len(items) != len(want) {
		t.Fatalf("unexpected items %+v", items)
	}
	for i := range want {
		if items[i] != want[i] {
			t.Fatalf("item %d: got %+v want %+v", i, items[i], want[i])
		}
	}
	if c.Total() != 3 || c.Get("missing") != 0 {
		t.Fatalf("unexpected totals")
	}
}

func TestCounterMergeIsAssociativeAndCommutative(t *testing.T) {
	build := func(keys ...string) *Counter {
		c := New()
		for _, k := range keys {
			c.Inc(k)
		}
		return c
	}
	a := build("food", "food", "service")
	b := build("service", "pricing")
	c := build("food", "ambience")

	left := New()
	left.Merge(a)
	left.Merge(b)
	left.Merge(c)

	right := New()
	right.Merge(c)
	bc := New()
	bc.Merge(b)
	bc.Merge(a)
	right.Merge(bc)

	if !left.Equal(right) {
		t.Fatalf("merge order changed counts: %+v vs %+v", left.Items(), right.Items())
	}
	if left.Get("food") != 3 || left.Get("service") != 2 {
		t.Fatalf("unexpected merged counts %+v", left.Items())
	}
	left.Merge(nil)
}

func TestCounterEqualHandlesNil(t *testing.T) {
	var missing *Counter
	empty := New()
	full := New()
	full.Inc("cold soup")

	tests := []struct {
		name string
		a, b *Counter
		want bool
	}{
		{name: "nil other, empty receiver", a: empty, b: nil, want: true},
		{name: "nil receiver, empty other", a: missing, b: empty, want: true},
		{name: "both nil", a: missing, b: nil, want: true},
		{name: "nil other, counted receiver", a: full, b: nil, want: false},
		{name: "nil receiver, counted other", a: missing, b: full, want: false},
	}
	for _, tt := range tests {
		if got := tt.a.Equal(tt.b); got != tt.want {
			t.Fatalf("%s: got %v want %v", tt.name, got, tt.want)
		}
	}
}

func TestCounterMostCommon(t *testing.T) {
	c := New()
	for _, k := range []string{"a", "b", "b", "c", "c", "d"} {
		c.Inc(k)
	}
	top := c.MostCommon(3)
	if top[0].Key != "b" || top[1].Key != "c" || top[2].Key != "a" {
		t.Fatalf("unexpected ranking %+v", top)
	}
}

func TestCounterMarshalJSON(t *testing.T) {
	c := New()
	c.Inc("x")
	data, err := json.Marshal(c)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != `[{"key":"x","count":1}]` {
		t.Fatalf("unexpected json %s", data)
	}
}
