package assessment

import (
	"math/rand"
	"strings"

	"github.com/openlearnai/learning-service/internal/models"
)

// ShuffleCache holds one randomized ordering of right-hand options per matching
// question. Orders are drawn once per question set and stay fixed until Reset
// or until a different question set is primed.
type ShuffleCache struct {
	rand   *rand.Rand
	key    string
	orders map[string][]string
}

func NewShuffleCache(r *rand.Rand) *ShuffleCache {
	return &ShuffleCache{rand: r, orders: make(map[string][]string)}
}

// Prime draws orders for every matching question in the set. Priming the same
// set again is a no-op.
func (c *ShuffleCache) Prime(questions []models.Question) {
	key := questionSetKey(questions)
	if key == c.key && len(c.orders) > 0 {
		return
	}

	c.key = key
	c.orders = make(map[string][]string)
	for _, q := range questions {
		if q.Type != models.Matching {
			continue
		}
		order := q.RightValues()
		c.rand.Shuffle(len(order), func(i, j int) {
			order[i], order[j] = order[j], order[i]
		})
		c.orders[q.ID] = order
	}
}

// Options returns the cached order for a matching question, or nil.
func (c *ShuffleCache) Options(questionID string) []string {
	order, ok := c.orders[questionID]
	if !ok {
		return nil
	}
	out := make([]string, len(order))
	copy(out, order)
	return out
}

func (c *ShuffleCache) Reset() {
	c.key = ""
	c.orders = make(map[string][]string)
}

func questionSetKey(questions []models.Question) string {
	ids := make([]string, len(questions))
	for i, q := range questions {
		ids[i] = q.ID
	}
	return strings.Join(ids, "\x1f")
}
