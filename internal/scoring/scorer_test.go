package scoring

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scout/internal/model"
)

// fixedScorer pins the clock so activity scoring is deterministic.
func fixedScorer() *Scorer {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	return &Scorer{Now: func() time.Time { return now }}
}

func recentTimestamp() string {
	return time.Date(2025, 6, 14, 12, 0, 0, 0, time.UTC).Format(time.RFC3339)
}

func TestScoreBoundsHostileInput(t *testing.T) {
	s := fixedScorer()
	issues := []model.Issue{
		{},
		{Title: strings.Repeat("x", 10000), Body: strings.Repeat("refactor rewrite breaking migration ", 1000)},
		{Labels: []string{"breaking change", "security", "complex", "difficult", "critical"}},
		{
			Title:     "good first issue typo simple quick fix",
			Body:      "typo spelling grammar ``` http steps to reproduce expected behavior example",
			Labels:    []string{"good first issue", "easy", "documentation"},
			UpdatedAt: recentTimestamp(),
		},
	}

	for i, issue := range issues {
		result := s.Score(issue)
		assert.GreaterOrEqual(t, result.Total, 0, "issue %d total", i)
		assert.LessOrEqual(t, result.Total, 100, "issue %d total", i)

		b := result.Breakdown
		assert.GreaterOrEqual(t, b.Labels, 0)
		assert.LessOrEqual(t, b.Labels, 25)
		assert.GreaterOrEqual(t, b.Clarity, 0)
		assert.LessOrEqual(t, b.Clarity, 20)
		assert.GreaterOrEqual(t, b.Activity, 0)
		assert.LessOrEqual(t, b.Activity, 15)
		assert.GreaterOrEqual(t, b.SizeEstimate, 0)
		assert.LessOrEqual(t, b.SizeEstimate, 20)
		assert.GreaterOrEqual(t, b.RiskPenalty, -20)
		assert.LessOrEqual(t, b.RiskPenalty, 0)
		assert.NotEmpty(t, result.Reasons, "issue %d reasons", i)
	}
}

func TestScoreGoodFirstIssue(t *testing.T) {
	s := fixedScorer()
	issue := model.Issue{
		Number:    1,
		Title:     "Fix typo in the installation guide section",
		Body:      "There is a spelling mistake in the README. Steps to reproduce: open the readme and look at the install section.\n\n```\nexampel\n```",
		Labels:    []string{"good first issue", "documentation"},
		UpdatedAt: recentTimestamp(),
		Comments:  0,
	}

	result := s.Score(issue)
	assert.Equal(t, 25, result.Breakdown.Labels)
	assert.GreaterOrEqual(t, result.Total, 40)
	assert.Equal(t, 0, result.Breakdown.RiskPenalty)
}

func TestScoreLabelsTakesMaximumNotSum(t *testing.T) {
	labels, _ := scoreLabels([]string{"good first issue", "help wanted", "bug", "documentation"})
	assert.Equal(t, 25, labels)
}

func TestScoreRiskyIssueFloorsAtZero(t *testing.T) {
	s := fixedScorer()
	issue := model.Issue{
		Body:   "refactor rewrite security performance migration",
		Labels: []string{"breaking change", "security", "complex"},
	}

	result := s.Score(issue)
	assert.Equal(t, -20, result.Breakdown.RiskPenalty)
	assert.Equal(t, 0, result.Breakdown.Labels)
	assert.Equal(t, 0, result.Total)
}

func TestScoreActivityUnparseableTimestamp(t *testing.T) {
	s := fixedScorer()
	score, reasons := s.scoreActivity("not-a-timestamp", 0)
	assert.Equal(t, 7, score)
	assert.Empty(t, reasons)
}

func TestScoreActivityTiers(t *testing.T) {
	s := fixedScorer()
	cases := []struct {
		daysAgo  int
		comments int
		want     int
	}{
		{1, 0, 13},
		{20, 2, 9},
		{60, 5, 5},
		{120, 0, 5},
		{400, 20, 0},
	}
	for _, tc := range cases {
		updated := s.now().AddDate(0, 0, -tc.daysAgo).Format(time.RFC3339)
		score, _ := s.scoreActivity(updated, tc.comments)
		assert.Equal(t, tc.want, score, "daysAgo=%d comments=%d", tc.daysAgo, tc.comments)
	}
}

func TestScoreSizeIndicators(t *testing.T) {
	small, _ := scoreSize("fix typo in docs, just a spelling mistake")
	assert.Equal(t, 18, small)

	large, _ := scoreSize("refactor the architecture and rewrite the api layer")
	assert.LessOrEqual(t, large, 10)

	neutral, reasons := scoreSize("something is wrong here")
	assert.Equal(t, 10, neutral)
	assert.Contains(t, reasons, "Moderate effort estimated")
}

func TestScoreIdempotent(t *testing.T) {
	s := fixedScorer()
	issue := model.Issue{
		Title:     "Broken link in contributing guide",
		Body:      "The link to the style guide returns a 404. See https://example.com/styles",
		Labels:    []string{"bug", "good first issue"},
		UpdatedAt: recentTimestamp(),
		Comments:  2,
	}

	first := s.Score(issue)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, s.Score(issue))
	}
}

func TestRankOrderAndStability(t *testing.T) {
	s := fixedScorer()

	var issues []model.Issue
	// Two identical issues plus a clearly better one; the identical pair
	// must keep listing order.
	issues = append(issues,
		model.Issue{Number: 10, Title: "Something vague"},
		model.Issue{Number: 11, Title: "Something vague"},
		model.Issue{
			Number:    12,
			Title:     "Fix typo in docs with clear steps included",
			Body:      "Simple spelling fix. Steps to reproduce: read the page.",
			Labels:    []string{"good first issue"},
			UpdatedAt: recentTimestamp(),
		},
	)

	ranked := s.Rank(issues, 10)
	require.Len(t, ranked, 3)
	assert.Equal(t, 12, ranked[0].Issue.Number)
	assert.Equal(t, 10, ranked[1].Issue.Number)
	assert.Equal(t, 11, ranked[2].Issue.Number)

	for i := 1; i < len(ranked); i++ {
		assert.GreaterOrEqual(t, ranked[i-1].Score.Total, ranked[i].Score.Total)
	}
}

func TestRankTruncatesToTopN(t *testing.T) {
	s := fixedScorer()
	var issues []model.Issue
	for i := 0; i < 20; i++ {
		issues = append(issues, model.Issue{Number: i, Title: fmt.Sprintf("Issue %d", i)})
	}

	assert.Len(t, s.Rank(issues, 5), 5)
	assert.Len(t, s.Rank(issues, 0), 0)
	assert.Len(t, s.Rank(nil, 5), 0)
}
