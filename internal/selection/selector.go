package selection

import (
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/ymhc/dailyemail/internal/content"
)

// Selection errors
var (
	ErrNoMessages          = errors.New("no messages to choose from")
	ErrNoResources         = errors.New("no resources to choose from")
	ErrNotEnoughActivities = errors.New("not enough activities to sample")
)

// DefaultActivityCount is how many activities go into one email.
const DefaultActivityCount = 4

// Source is the random number source the selector draws from.
// *rand.Rand satisfies it.
type Source interface {
	IntN(n int) int
}

// Selector picks the content of one daily email.
type Selector struct {
	rng           Source
	activityCount int
}

// New creates a Selector drawing from rng. A non-positive activityCount
// falls back to DefaultActivityCount.
func New(rng Source, activityCount int) *Selector {
	if activityCount <= 0 {
		activityCount = DefaultActivityCount
	}
	return &Selector{rng: rng, activityCount: activityCount}
}

// NewFromEntropy creates a Selector with a generator seeded from the runtime's
// entropy source. The generator is not suitable for anything secret.
func NewFromEntropy(activityCount int) *Selector {
	return New(rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())), activityCount)
}

// Pick chooses one message, activityCount distinct activities, one resource
// and an optional background. The collections are not modified.
func (s *Selector) Pick(c *content.Collections) (*content.DailyContent, error) {
	if len(c.Messages) == 0 {
		return nil, ErrNoMessages
	}
	if len(c.Resources) == 0 {
		return nil, ErrNoResources
	}

	activities, err := s.Sample(c.Activities, s.activityCount)
	if err != nil {
		return nil, err
	}

	daily := &content.DailyContent{
		Message:    c.Messages[s.rng.IntN(len(c.Messages))],
		Activities: activities,
		Resource:   c.Resources[s.rng.IntN(len(c.Resources))],
	}
	if len(c.Backgrounds) > 0 {
		daily.Background = c.Backgrounds[s.rng.IntN(len(c.Backgrounds))]
	}

	return daily, nil
}

// Sample returns k elements of items chosen without replacement, in the
// order they were drawn.
func (s *Selector) Sample(items []string, k int) ([]string, error) {
	if k > len(items) {
		return nil, fmt.Errorf("%w: need %d, have %d", ErrNotEnoughActivities, k, len(items))
	}

	pool := make([]string, len(items))
	copy(pool, items)

	// Partial Fisher-Yates over the copy
	for i := 0; i < k; i++ {
		j := i + s.rng.IntN(len(pool)-i)
		pool[i], pool[j] = pool[j], pool[i]
	}

	return pool[:k:k], nil
}
