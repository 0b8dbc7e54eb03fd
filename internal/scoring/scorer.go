// Package scoring ranks GitHub issues for beginner-friendliness using a
// pure, deterministic rule set. Nothing here touches the network; the same
// issue always produces the same result.
//
// Score breakdown (0-100 total):
//   - Labels: 0-25 (good first issue, help wanted, ...)
//   - Clarity: 0-20 (description length, formatting, reproducibility)
//   - Activity: 0-15 (recency, comment count)
//   - Size estimate: 0-20 (effort signals in the description)
//   - Risk penalty: -20-0 (complexity signals, breaking changes)
package scoring

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"scout/internal/model"
)

// ScoreResult is the outcome of scoring a single issue. Reason strings are
// produced alongside the score but never affect ranking.
type ScoreResult struct {
	Total     int
	Breakdown model.ScoreBreakdown
	Reasons   []string
}

// Ranked pairs an issue with its score.
type Ranked struct {
	Issue model.Issue
	Score ScoreResult
}

// positiveLabels maps beginner-friendly labels to points. Scoring takes the
// maximum matching value, not the sum.
var positiveLabels = map[string]int{
	"good first issue":  25,
	"good-first-issue":  25,
	"first-timers-only": 25,
	"beginner":          20,
	"easy":              20,
	"starter":           20,
	"help wanted":       15,
	"help-wanted":       15,
	"documentation":     15,
	"docs":              15,
	"bug":               10,
	"hacktoberfest":     10,
	"enhancement":       8,
	"feature":           8,
}

// riskLabels maps risk labels to penalties. Penalties sum, then clamp.
var riskLabels = map[string]int{
	"breaking change": -15,
	"breaking-change": -15,
	"complex":         -10,
	"difficult":       -10,
	"hard":            -10,
	"security":        -10,
	"performance":     -8,
	"critical":        -8,
	"urgent":          -5,
	"needs-design":    -5,
}

// clarityPhrases indicate a well-structured issue description.
var clarityPhrases = []string{
	"steps to reproduce",
	"expected behavior",
	"actual behavior",
	"environment",
	"version",
	"screenshot",
	"error message",
	"stack trace",
	"example",
	"how to",
}

// riskKeywords indicate complexity or blast radius.
var riskKeywords = []string{
	"refactor",
	"rewrite",
	"breaking",
	"migration",
	"deprecate",
	"security",
	"performance",
	"concurrent",
	"async",
	"thread",
	"database schema",
	"api change",
}

var smallTaskIndicators = []string{
	"typo", "spelling", "grammar", "rename", "update readme",
	"add comment", "documentation", "fix link", "broken link",
	"update dependency", "bump version", "one line", "simple",
	"quick fix", "minor",
}

var largeTaskIndicators = []string{
	"refactor", "rewrite", "implement", "new feature",
	"redesign", "architecture", "migration", "database",
	"multiple files", "breaking change", "api",
}

// Scorer scores issues. The zero value is ready to use; Now is overridable
// for deterministic activity scoring in tests.
type Scorer struct {
	Now func() time.Time
}

func (s *Scorer) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

// Score computes the total, breakdown, and reasons for one issue.
func (s *Scorer) Score(issue model.Issue) ScoreResult {
	labels, labelReasons := scoreLabels(issue.Labels)
	clarity, clarityReasons := scoreClarity(issue.Title, issue.Body)
	activity, activityReasons := s.scoreActivity(issue.UpdatedAt, issue.Comments)
	size, sizeReasons := scoreSize(issue.Body)
	risk, riskReasons := scoreRisk(issue.Title, issue.Body, issue.Labels)

	var reasons []string
	reasons = append(reasons, labelReasons...)
	reasons = append(reasons, clarityReasons...)
	reasons = append(reasons, activityReasons...)
	reasons = append(reasons, sizeReasons...)
	reasons = append(reasons, riskReasons...)

	total := clamp(labels+clarity+activity+size+risk, 0, 100)

	return ScoreResult{
		Total: total,
		Breakdown: model.ScoreBreakdown{
			Labels:       labels,
			Clarity:      clarity,
			Activity:     activity,
			SizeEstimate: size,
			RiskPenalty:  risk,
		},
		Reasons: reasons,
	}
}

// Rank scores all issues and returns the top n in descending score order.
// Equal scores keep their original relative order.
func (s *Scorer) Rank(issues []model.Issue, topN int) []Ranked {
	ranked := make([]Ranked, 0, len(issues))
	for _, issue := range issues {
		ranked = append(ranked, Ranked{Issue: issue, Score: s.Score(issue)})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score.Total > ranked[j].Score.Total
	})

	if topN >= 0 && len(ranked) > topN {
		ranked = ranked[:topN]
	}
	return ranked
}

func scoreLabels(labels []string) (int, []string) {
	score := 0
	var reasons []string

	for _, l := range labels {
		points, ok := positiveLabels[strings.ToLower(l)]
		if !ok {
			continue
		}
		if points > score {
			score = points
		}
		if points >= 15 {
			reasons = append(reasons, fmt.Sprintf("Has '%s' label (+%d pts)", strings.ToLower(l), points))
		}
	}

	if score > 25 {
		score = 25
	}
	if len(reasons) == 0 {
		reasons = append(reasons, "No beginner-friendly labels found")
	}
	return score, reasons
}

func scoreClarity(title, body string) (int, []string) {
	score := 0
	var reasons []string
	fullText := strings.ToLower(title + " " + body)

	// Title length tiers (0-5).
	if len(title) >= 20 {
		score += 3
	}
	if len(title) >= 40 {
		score += 2
	}

	// Body length tiers (0-5).
	if len(body) >= 100 {
		score += 2
		if len(body) >= 300 {
			score += 2
		}
		if len(body) >= 500 {
			score++
		}
	}

	// Clarity phrases (0-5).
	found := 0
	for _, phrase := range clarityPhrases {
		if strings.Contains(fullText, phrase) {
			found++
		}
	}
	if found >= 1 {
		score += 2
		reasons = append(reasons, fmt.Sprintf("Good structure with %d clarity indicators", found))
	}
	if found >= 3 {
		score += 3
	}

	// Fenced code block (0-3).
	if strings.Contains(body, "```") {
		score += 3
		reasons = append(reasons, "Includes code examples")
	}

	// Link markers (0-2).
	if strings.Contains(body, "http") || strings.Contains(body, "[") {
		score += 2
	}

	if score > 20 {
		score = 20
	}

	if len(reasons) == 0 {
		if score > 10 {
			reasons = append(reasons, fmt.Sprintf("Well-documented issue (%d chars)", len(body)))
		} else {
			reasons = append(reasons, "Could use more documentation")
		}
	}
	return score, reasons
}

func (s *Scorer) scoreActivity(updatedAt string, comments int) (int, []string) {
	var reasons []string

	updated, err := time.Parse(time.RFC3339, updatedAt)
	if err != nil {
		// Unparseable timestamps yield a fixed middle score, never a failure.
		return 7, reasons
	}

	score := 0
	days := int(s.now().Sub(updated).Hours() / 24)

	switch {
	case days <= 7:
		score += 10
		reasons = append(reasons, "Recently active (updated within 1 week)")
	case days <= 30:
		score += 7
		reasons = append(reasons, "Active within last month")
	case days <= 90:
		score += 4
	case days <= 180:
		score += 2
	default:
		reasons = append(reasons, "Issue has been inactive for a while")
	}

	// Comment bonus: no comments reads as uncontroversial. Heuristic quirk,
	// kept deliberately.
	switch {
	case comments == 0:
		score += 3
		reasons = append(reasons, "No existing discussion (clean slate)")
	case comments <= 3:
		score += 2
	case comments <= 10:
		score++
	}

	if score > 15 {
		score = 15
	}
	return score, reasons
}

func scoreSize(body string) (int, []string) {
	score := 10
	var reasons []string
	lower := strings.ToLower(body)

	small, large := 0, 0
	for _, ind := range smallTaskIndicators {
		if strings.Contains(lower, ind) {
			small++
		}
	}
	for _, ind := range largeTaskIndicators {
		if strings.Contains(lower, ind) {
			large++
		}
	}

	switch {
	case small >= 2:
		score += 8
		reasons = append(reasons, "Appears to be a small, focused task")
	case small == 1:
		score += 5
	}

	switch {
	case large >= 2:
		score -= 8
		reasons = append(reasons, "May require significant effort")
	case large == 1:
		score -= 4
	}

	if len(body) > 2000 {
		score -= 3
	}

	score = clamp(score, 0, 20)
	if len(reasons) == 0 {
		reasons = append(reasons, "Moderate effort estimated")
	}
	return score, reasons
}

func scoreRisk(title, body string, labels []string) (int, []string) {
	penalty := 0
	var reasons []string
	fullText := strings.ToLower(title + " " + body)

	for _, l := range labels {
		if points, ok := riskLabels[strings.ToLower(l)]; ok {
			penalty += points
			reasons = append(reasons, fmt.Sprintf("Risk: '%s' label (%d pts)", strings.ToLower(l), points))
		}
	}

	hits := 0
	for _, kw := range riskKeywords {
		if strings.Contains(fullText, kw) {
			hits++
		}
	}
	switch {
	case hits >= 3:
		penalty -= 10
		reasons = append(reasons, fmt.Sprintf("Multiple complexity indicators found (%d)", hits))
	case hits >= 1:
		penalty -= 3
	}

	penalty = clamp(penalty, -20, 0)
	if penalty == 0 {
		reasons = append(reasons, "No significant risk factors detected")
	}
	return penalty, reasons
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
