// Package planner turns a learner's topic graph, mastery records, and review
// queue into an ordered list of study tasks: consolidated reviews first, then
// plain due reviews, then new topics from the knowledge frontier, interleaved
// across sections.
package planner

import (
	"fmt"
	"log/slog"
	"math"
	"sort"
	"time"

	"github.com/adolago/studypath/internal/curriculum"
	"github.com/adolago/studypath/internal/mastery"
)

// TaskKind classifies a recommendation.
type TaskKind string

const (
	TaskReview        TaskKind = "review"
	TaskNewTopic      TaskKind = "new_topic"
	TaskConsolidation TaskKind = "consolidation"
)

const (
	// unlockThreshold is the mastery level every prerequisite needs before a
	// topic opens up.
	unlockThreshold = 0.5
	// frontierThreshold is the mastery level below which an unlocked topic
	// still counts as new learning.
	frontierThreshold = 0.3
	// consolidationBonus favors one consolidation over an equivalent plain
	// review, since it amortizes several reviews into one practice event.
	consolidationBonus = 0.2
	// backlogGate blocks new topics while this many due reviews are
	// outstanding.
	backlogGate = 5
	// reviewQuotaRatio is the soft floor of slots reserved for reviews.
	reviewQuotaRatio = 0.6
)

// QueueItem is one review-queue entry with its urgency freshly recomputed by
// the caller. Stored urgency values are never trusted.
type QueueItem struct {
	TopicID     string
	ScheduledAt time.Time
	Urgency     float64
}

// Task is one recommendation. QuestionID is left empty; resolving it is the
// question picker's job.
type Task struct {
	Kind       TaskKind           `json:"kind"`
	TopicID    string             `json:"topic_id"`
	TopicName  string             `json:"topic_name"`
	Section    curriculum.Section `json:"section"`
	Difficulty Difficulty         `json:"difficulty"`
	Support    SupportLevel       `json:"support"`
	QuestionID string             `json:"question_id,omitempty"`
	Reason     string             `json:"reason"`
	Priority   float64            `json:"priority"`
	Covers     []string           `json:"covers,omitempty"` // consolidation only
}

// Summary reports the counts behind a plan.
type Summary struct {
	DueCount           int     `json:"due_count"`
	FrontierCount      int     `json:"frontier_count"`
	ConsolidationCount int     `json:"consolidation_count"`
	ReviewPercent      float64 `json:"review_percent"`
}

// Plan is the ordered task list plus its summary.
type Plan struct {
	Tasks   []Task  `json:"tasks"`
	Summary Summary `json:"summary"`
}

// Input is a fully-materialized snapshot for one learner. The caller owns
// snapshot freshness and must derive every queue urgency from the same Now.
type Input struct {
	Graph   *curriculum.Graph
	Records map[string]*mastery.Record
	Queue   []QueueItem
	Now     time.Time
	Limit   int
	// TopicFilter scopes the plan to a single topic when non-empty.
	TopicFilter string
	// RecentAttempts counts each topic's attempts in the recent accuracy
	// window; it gates the support-level bump.
	RecentAttempts map[string]int
	// MaxDepth bounds the consolidation ancestor search; <= 0 selects
	// mastery.DefaultMaxDepth.
	MaxDepth int
}

// BuildPlan runs the five-stage selection over a snapshot. Queue entries
// whose topic is missing from the graph are skipped, never fatal.
func BuildPlan(in Input) Plan {
	if in.Limit <= 0 {
		return Plan{}
	}
	maxDepth := in.MaxDepth
	if maxDepth <= 0 {
		maxDepth = mastery.DefaultMaxDepth
	}

	due := dueItems(in)
	frontier := frontierTopics(in)

	summary := Summary{
		DueCount:      len(due),
		FrontierCount: len(frontier),
	}

	var tasks []Task
	slots := func() int { return in.Limit - len(tasks) }

	// Stage 1: consolidation. One well-chosen practice topic can implicitly
	// review several due prerequisites at once.
	covered := map[string]bool{}
	if len(due) >= 3 {
		for _, c := range consolidationCandidates(in, due, maxDepth) {
			if slots() <= 0 {
				break
			}
			tasks = append(tasks, c)
			for _, id := range c.Covers {
				covered[id] = true
			}
		}
	}
	summary.ConsolidationCount = len(tasks)

	// Stage 2: remaining due reviews by urgency. The review quota is a soft
	// floor, never a reason to drop a genuinely due topic.
	remaining := make([]QueueItem, 0, len(due))
	for _, item := range due {
		if !covered[item.TopicID] {
			remaining = append(remaining, item)
		}
	}
	sort.Slice(remaining, func(i, j int) bool {
		if remaining[i].Urgency != remaining[j].Urgency {
			return remaining[i].Urgency > remaining[j].Urgency
		}
		return remaining[i].TopicID < remaining[j].TopicID
	})
	reviewQuota := len(remaining)
	if floor := int(math.Ceil(float64(slots()) * reviewQuotaRatio)); floor > reviewQuota {
		reviewQuota = floor
	}
	reviews := 0
	for _, item := range remaining {
		if slots() <= 0 || reviews >= reviewQuota {
			break
		}
		tasks = append(tasks, reviewTask(in, item))
		reviews++
	}

	// Stage 3: backlog gate. A learner drowning in due reviews gets no new
	// material this round.
	outstanding := len(due) - len(covered)
	if outstanding < backlogGate && slots() > 0 {
		// Stage 4: new topics from the frontier. A topic already planned as
		// a review or consolidation is not new, even at frontier mastery.
		planned := make(map[string]bool, len(tasks)+len(due))
		for _, task := range tasks {
			planned[task.TopicID] = true
		}
		for _, item := range due {
			planned[item.TopicID] = true
		}
		for _, task := range newTopicTasks(in, frontier) {
			if slots() <= 0 {
				break
			}
			if planned[task.TopicID] {
				continue
			}
			tasks = append(tasks, task)
		}
	}

	// Stage 5: interleave across sections.
	tasks = interleave(tasks)

	reviewTasks := 0
	for _, task := range tasks {
		if task.Kind != TaskNewTopic {
			reviewTasks++
		}
	}
	if len(tasks) > 0 {
		summary.ReviewPercent = float64(reviewTasks) / float64(len(tasks))
	}

	return Plan{Tasks: tasks, Summary: summary}
}

// dueItems filters the queue down to entries due at Now, dropping entries
// whose topic no longer exists in the graph.
func dueItems(in Input) []QueueItem {
	var due []QueueItem
	for _, item := range in.Queue {
		if in.TopicFilter != "" && item.TopicID != in.TopicFilter {
			continue
		}
		if _, ok := in.Graph.Topic(item.TopicID); !ok {
			slog.Warn("review queue references unknown topic, skipping",
				"topic_id", item.TopicID,
			)
			continue
		}
		if item.ScheduledAt.After(in.Now) {
			continue
		}
		due = append(due, item)
	}
	return due
}

// frontierTopics returns unlocked topics still below the frontier threshold.
func frontierTopics(in Input) []curriculum.Topic {
	var frontier []curriculum.Topic
	for _, topic := range in.Graph.All() {
		if in.TopicFilter != "" && topic.ID != in.TopicFilter {
			continue
		}
		if masteryLevel(in.Records, topic.ID) >= frontierThreshold {
			continue
		}
		if !unlocked(in, topic) {
			continue
		}
		frontier = append(frontier, topic)
	}
	return frontier
}

// unlocked reports whether every prerequisite is at proficient mastery.
// Topics with no prerequisites are always unlocked.
func unlocked(in Input, topic curriculum.Topic) bool {
	for _, prereq := range topic.Prerequisites {
		if masteryLevel(in.Records, prereq) < unlockThreshold {
			return false
		}
	}
	return true
}

func masteryLevel(records map[string]*mastery.Record, topicID string) float64 {
	if rec, ok := records[topicID]; ok && rec != nil {
		return rec.Level
	}
	return 0
}

// consolidationCandidates finds non-due topics at developing+ mastery whose
// bounded prerequisite-ancestor set covers at least two due topics, sorted
// by priority descending.
func consolidationCandidates(in Input, due []QueueItem, maxDepth int) []Task {
	dueByID := make(map[string]QueueItem, len(due))
	for _, item := range due {
		dueByID[item.TopicID] = item
	}

	var candidates []Task
	for _, topic := range in.Graph.All() {
		if in.TopicFilter != "" && topic.ID != in.TopicFilter {
			continue
		}
		if _, isDue := dueByID[topic.ID]; isDue {
			continue
		}
		if masteryLevel(in.Records, topic.ID) < frontierThreshold {
			continue
		}

		var covers []string
		var urgencySum float64
		for _, a := range in.Graph.Ancestors(topic.ID, maxDepth) {
			if item, ok := dueByID[a.TopicID]; ok {
				covers = append(covers, a.TopicID)
				urgencySum += item.Urgency
			}
		}
		if len(covers) < 2 {
			continue
		}
		sort.Strings(covers)

		priority := urgencySum/float64(len(covers)) + consolidationBonus
		task := taskFor(in, topic, TaskConsolidation, priority)
		task.Covers = covers
		task.Reason = fmt.Sprintf("practicing %s implicitly reviews %d due prerequisites", topic.Name, len(covers))
		candidates = append(candidates, task)
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Priority != candidates[j].Priority {
			return candidates[i].Priority > candidates[j].Priority
		}
		return candidates[i].TopicID < candidates[j].TopicID
	})
	return candidates
}

func reviewTask(in Input, item QueueItem) Task {
	topic, _ := in.Graph.Topic(item.TopicID)
	task := taskFor(in, topic, TaskReview, item.Urgency)
	overdue := in.Now.Sub(item.ScheduledAt)
	if overdue > 0 {
		task.Reason = fmt.Sprintf("%s is %.1f days overdue for review", topic.Name, overdue.Hours()/24)
	} else {
		task.Reason = fmt.Sprintf("%s is due for review", topic.Name)
	}
	return task
}

// newTopicTasks ranks frontier topics by how many downstream topics they
// unlock, then by section balance: sections with the fewest practiced topics
// come first so progress stays even.
func newTopicTasks(in Input, frontier []curriculum.Topic) []Task {
	practicedPerSection := map[curriculum.Section]int{}
	for topicID, rec := range in.Records {
		if rec == nil || rec.PracticeCount == 0 {
			continue
		}
		if topic, ok := in.Graph.Topic(topicID); ok {
			practicedPerSection[topic.Section]++
		}
	}

	ranked := append([]curriculum.Topic{}, frontier...)
	sort.Slice(ranked, func(i, j int) bool {
		ui, uj := len(in.Graph.Unlocks(ranked[i].ID)), len(in.Graph.Unlocks(ranked[j].ID))
		if ui != uj {
			return ui > uj
		}
		pi, pj := practicedPerSection[ranked[i].Section], practicedPerSection[ranked[j].Section]
		if pi != pj {
			return pi < pj
		}
		return ranked[i].ID < ranked[j].ID
	})

	tasks := make([]Task, 0, len(ranked))
	for _, topic := range ranked {
		unlocks := len(in.Graph.Unlocks(topic.ID))
		task := Task{
			Kind:       TaskNewTopic,
			TopicID:    topic.ID,
			TopicName:  topic.Name,
			Section:    topic.Section,
			Difficulty: DifficultyEasy, // new topics always start easy
			Support:    SupportFor(masteryLevel(in.Records, topic.ID), 0, 0),
			Priority:   float64(unlocks),
			Reason:     fmt.Sprintf("%s is ready to learn and unlocks %d further topics", topic.Name, unlocks),
		}
		tasks = append(tasks, task)
	}
	return tasks
}

// taskFor derives the per-topic difficulty and support for a review-style
// task: difficulty seeded medium once there is enough practice, then run
// through the calibrator; support from mastery and recent accuracy.
func taskFor(in Input, topic curriculum.Topic, kind TaskKind, priority float64) Task {
	rec := in.Records[topic.ID]

	level := 0.0
	accuracy := 0.0
	count := 0
	if rec != nil {
		level = rec.Level
		accuracy = rec.Accuracy7d
		count = rec.PracticeCount
	}

	seed := DifficultyEasy
	if count >= minCalibrationSignal {
		seed = DifficultyMedium
	}
	calibrated := Calibrate(seed, accuracy, count)

	return Task{
		Kind:       kind,
		TopicID:    topic.ID,
		TopicName:  topic.Name,
		Section:    topic.Section,
		Difficulty: calibrated.Level,
		Support:    SupportFor(level, accuracy, in.RecentAttempts[topic.ID]),
		Priority:   priority,
	}
}

// interleave reorders tasks so no two neighbors share a section, when the
// remaining candidates allow it. The first task keeps its place; each next
// slot takes the earliest remaining task from a different section, falling
// back to the earliest same-section task when that is all that is left.
func interleave(tasks []Task) []Task {
	if len(tasks) < 2 {
		return tasks
	}

	remaining := append([]Task{}, tasks...)
	out := make([]Task, 0, len(tasks))

	out = append(out, remaining[0])
	remaining = remaining[1:]

	for len(remaining) > 0 {
		prev := out[len(out)-1].Section
		picked := -1
		for i, task := range remaining {
			if task.Section != prev {
				picked = i
				break
			}
		}
		if picked == -1 {
			picked = 0 // single-section tail, no alternative
		}
		out = append(out, remaining[picked])
		remaining = append(remaining[:picked], remaining[picked+1:]...)
	}
	return out
}
