package mastery

import "math"

// DefaultMaxDepth bounds the FIRe traversal; credit below this depth is
// never computed.
const DefaultMaxDepth = 4

// PrereqFunc resolves the direct prerequisites of a topic. It must be
// idempotent and side-effect-free: the propagator may call it in any order
// and gives no guarantee about sibling ordering.
type PrereqFunc func(topicID string) []string

// Credit is one implicit mastery gain produced by propagation.
type Credit struct {
	TopicID  string
	Depth    int
	Weight   float64
	NewLevel float64
}

// Propagator spreads fractional implicit credit backward through the
// prerequisite graph when a dependent topic is practiced successfully.
type Propagator struct {
	prereqs  PrereqFunc
	maxDepth int
}

// NewPropagator creates a propagator over the given prerequisite resolver.
// maxDepth <= 0 selects DefaultMaxDepth.
func NewPropagator(prereqs PrereqFunc, maxDepth int) *Propagator {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	return &Propagator{prereqs: prereqs, maxDepth: maxDepth}
}

// Propagate walks the prerequisite ancestors of topicID breadth-first and
// applies weighted implicit credit to each one that already has a mastery
// record. The practiced topic itself is never credited; a topic reachable
// via several paths is credited once at its shallowest depth; depth-d credit
// is score * 0.5^d. Topics without a record are skipped: implicit credit
// cannot bootstrap a topic the learner has never touched.
//
// records is mutated in place (credited entries are replaced with their
// updated copies). The visited set and depth bound keep the walk finite
// even if the graph accidentally contains a cycle.
//
// Failed attempts propagate nothing; callers only invoke this for correct
// attempts with score 1, but any score in [0,1] is honored.
func (p *Propagator) Propagate(topicID string, score float64, records map[string]*Record) []Credit {
	if score <= 0 {
		return nil
	}

	visited := map[string]bool{topicID: true}
	var credits []Credit

	frontier := p.prereqs(topicID)
	for depth := 1; depth <= p.maxDepth && len(frontier) > 0; depth++ {
		weight := math.Pow(0.5, float64(depth))
		var next []string
		for _, pid := range frontier {
			if visited[pid] {
				continue
			}
			visited[pid] = true
			next = append(next, p.prereqs(pid)...)

			rec, ok := records[pid]
			if !ok || rec == nil {
				continue
			}
			updated := ApplyImplicitCredit(rec, score*weight)
			records[pid] = updated
			credits = append(credits, Credit{
				TopicID:  pid,
				Depth:    depth,
				Weight:   weight,
				NewLevel: updated.Level,
			})
		}
		frontier = next
	}
	return credits
}
