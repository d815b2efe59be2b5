package curriculum

// Graph is an adjacency view over a set of topics, keyed by topic ID.
// Prerequisite edges come from the topics themselves; unlock edges are the
// reverse index, derived at construction time.
type Graph struct {
	topics  map[string]Topic
	unlocks map[string][]string // topic ID -> topics that list it as a prerequisite
}

// Ancestor is a prerequisite reached during a bounded traversal, together
// with its shortest-path depth from the starting topic (direct prerequisite
// is depth 1).
type Ancestor struct {
	TopicID string
	Depth   int
}

// NewGraph builds a graph from topics. Prerequisite references to unknown
// topics are kept as-is; traversal simply cannot expand them.
func NewGraph(topics []Topic) *Graph {
	g := &Graph{
		topics:  make(map[string]Topic, len(topics)),
		unlocks: make(map[string][]string),
	}
	for _, t := range topics {
		g.topics[t.ID] = t
	}
	for _, t := range topics {
		for _, prereq := range t.Prerequisites {
			g.unlocks[prereq] = append(g.unlocks[prereq], t.ID)
		}
	}
	return g
}

// Topic returns a topic by ID.
func (g *Graph) Topic(id string) (Topic, bool) {
	t, ok := g.topics[id]
	return t, ok
}

// All returns every topic in the graph, in no particular order.
func (g *Graph) All() []Topic {
	topics := make([]Topic, 0, len(g.topics))
	for _, t := range g.topics {
		topics = append(topics, t)
	}
	return topics
}

// Len returns the number of topics.
func (g *Graph) Len() int {
	return len(g.topics)
}

// Prerequisites returns the direct prerequisite IDs of a topic.
func (g *Graph) Prerequisites(id string) []string {
	t, ok := g.topics[id]
	if !ok {
		return nil
	}
	return t.Prerequisites
}

// Unlocks returns the topics that list id as a prerequisite.
func (g *Graph) Unlocks(id string) []string {
	return g.unlocks[id]
}

// Ancestors walks the prerequisite edges breadth-first from id, up to
// maxDepth levels. The starting topic is never included, and each reachable
// topic appears exactly once, at its shortest-path depth. The visited set
// makes the walk terminate even on an accidentally cyclic graph.
func (g *Graph) Ancestors(id string, maxDepth int) []Ancestor {
	return AncestorsFunc(id, maxDepth, g.Prerequisites)
}

// AncestorsFunc is the traversal behind Ancestors with the prerequisite
// lookup injected. The callback must be idempotent and side-effect-free;
// sibling order within a depth is not guaranteed to be meaningful.
func AncestorsFunc(id string, maxDepth int, prereqs func(string) []string) []Ancestor {
	if maxDepth < 1 {
		return nil
	}

	visited := map[string]bool{id: true}
	var out []Ancestor

	frontier := prereqs(id)
	for depth := 1; depth <= maxDepth && len(frontier) > 0; depth++ {
		var next []string
		for _, pid := range frontier {
			if visited[pid] {
				continue
			}
			visited[pid] = true
			out = append(out, Ancestor{TopicID: pid, Depth: depth})
			next = append(next, prereqs(pid)...)
		}
		frontier = next
	}
	return out
}
