package selection

import (
	"errors"
	"math/rand/v2"
	"reflect"
	"slices"
	"testing"

	"github.com/ymhc/dailyemail/internal/content"
)

func seeded(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

func collections() *content.Collections {
	return &content.Collections{
		Messages:   []string{"You matter.", "You are enough.", "Rest is productive."},
		Activities: []string{"Drink water", "Stretch", "Call a friend", "Go outside", "Journal", "Nap", "Read"},
		Resources: []content.Resource{
			{Title: "Kids Help Phone", Link: "https://kidshelpphone.ca"},
			{Title: "Wellness Together", Link: "https://example.org"},
		},
		Backgrounds: []string{"lake.png", "sky.jpg"},
	}
}

func TestPickDrawsFromCollections(t *testing.T) {
	c := collections()

	for seed := uint64(0); seed < 200; seed++ {
		got, err := New(seeded(seed), DefaultActivityCount).Pick(c)
		if err != nil {
			t.Fatalf("seed %d: Pick returned error: %v", seed, err)
		}

		if !slices.Contains(c.Messages, got.Message) {
			t.Fatalf("seed %d: message %q not in source", seed, got.Message)
		}
		if !slices.Contains(c.Resources, got.Resource) {
			t.Fatalf("seed %d: resource %+v not in source", seed, got.Resource)
		}
		if !slices.Contains(c.Backgrounds, got.Background) {
			t.Fatalf("seed %d: background %q not in source", seed, got.Background)
		}

		if len(got.Activities) != 4 {
			t.Fatalf("seed %d: got %d activities, want 4", seed, len(got.Activities))
		}
		seen := make(map[string]bool)
		for _, a := range got.Activities {
			if !slices.Contains(c.Activities, a) {
				t.Fatalf("seed %d: activity %q not in source", seed, a)
			}
			if seen[a] {
				t.Fatalf("seed %d: activity %q repeated", seed, a)
			}
			seen[a] = true
		}
	}
}

func TestPickDoesNotMutateSource(t *testing.T) {
	c := collections()
	before := slices.Clone(c.Activities)

	if _, err := New(seeded(7), DefaultActivityCount).Pick(c); err != nil {
		t.Fatalf("Pick returned error: %v", err)
	}
	if !reflect.DeepEqual(c.Activities, before) {
		t.Fatalf("activities were reordered: %q", c.Activities)
	}
}

func TestPickIsDeterministicForSeed(t *testing.T) {
	c := collections()

	a, err := New(seeded(42), DefaultActivityCount).Pick(c)
	if err != nil {
		t.Fatalf("Pick returned error: %v", err)
	}
	b, err := New(seeded(42), DefaultActivityCount).Pick(c)
	if err != nil {
		t.Fatalf("Pick returned error: %v", err)
	}
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("same seed produced %+v and %+v", a, b)
	}
}

func TestPickWithoutBackgrounds(t *testing.T) {
	c := collections()
	c.Backgrounds = nil

	got, err := New(seeded(1), DefaultActivityCount).Pick(c)
	if err != nil {
		t.Fatalf("Pick returned error: %v", err)
	}
	if got.HasBackground() {
		t.Fatalf("background = %q, want none", got.Background)
	}
}

func TestPickErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*content.Collections)
		want   error
	}{
		{"three activities", func(c *content.Collections) { c.Activities = c.Activities[:3] }, ErrNotEnoughActivities},
		{"no activities", func(c *content.Collections) { c.Activities = nil }, ErrNotEnoughActivities},
		{"no messages", func(c *content.Collections) { c.Messages = nil }, ErrNoMessages},
		{"no resources", func(c *content.Collections) { c.Resources = nil }, ErrNoResources},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := collections()
			tt.mutate(c)

			_, err := New(seeded(3), DefaultActivityCount).Pick(c)
			if !errors.Is(err, tt.want) {
				t.Fatalf("Pick error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestSampleExactlyAll(t *testing.T) {
	items := []string{"a", "b", "c", "d"}

	got, err := New(seeded(9), 4).Sample(items, 4)
	if err != nil {
		t.Fatalf("Sample returned error: %v", err)
	}
	sorted := slices.Clone(got)
	slices.Sort(sorted)
	if !reflect.DeepEqual(sorted, items) {
		t.Fatalf("sample = %q, want a permutation of %q", got, items)
	}
}

func TestNewDefaultsActivityCount(t *testing.T) {
	if s := New(seeded(1), 0); s.activityCount != DefaultActivityCount {
		t.Fatalf("activityCount = %d, want %d", s.activityCount, DefaultActivityCount)
	}
}
