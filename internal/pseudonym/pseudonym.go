// Package pseudonym synthesizes the display names shown next to anonymous
// reviews, e.g. "Curious Reader" or "Bold Explorer".
//
// Names are not unique. Consistency per visitor comes from the review
// service reusing the first name an identity was given.
package pseudonym

import (
	"math/rand/v2"
	"sync"
)

var adjectives = []string{
	"Curious", "Thoughtful", "Wise", "Creative", "Bold", "Calm", "Bright", "Swift",
	"Gentle", "Brave", "Kind", "Clever", "Eager", "Fierce", "Humble", "Joyful",
	"Lively", "Mighty", "Noble", "Proud", "Quiet", "Radiant", "Serene", "Vivid",
	"Witty", "Zealous", "Ancient", "Modern", "Timeless", "Vibrant", "Mystic", "Elegant",
}

var nouns = []string{
	"Reader", "Thinker", "Explorer", "Dreamer", "Scholar", "Wanderer", "Seeker", "Observer",
	"Philosopher", "Writer", "Learner", "Traveler", "Visionary", "Sage", "Mentor", "Guide",
	"Student", "Teacher", "Artist", "Poet", "Scientist", "Engineer", "Builder", "Creator",
	"Innovator", "Pioneer", "Trailblazer", "Adventurer", "Discoverer", "Researcher", "Analyst", "Critic",
}

// Generator picks an adjective and a noun uniformly at random.
//
// *rand.Rand is not safe for concurrent use, and the generator is shared by
// every request handler, so draws are serialized with a mutex.
type Generator struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// New returns a Generator drawing from the given source. Tests pass a
// seeded source (rand.NewPCG) to get a fixed sequence.
func New(src rand.Source) *Generator {
	return &Generator{rng: rand.New(src)}
}

// NewRandom returns a Generator seeded from the runtime's random state.
func NewRandom() *Generator {
	return New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
}

// Generate returns a name of the form "<Adjective> <Noun>".
func (g *Generator) Generate() string {
	g.mu.Lock()
	a := adjectives[g.rng.IntN(len(adjectives))]
	n := nouns[g.rng.IntN(len(nouns))]
	g.mu.Unlock()
	return a + " " + n
}
