package service

import (
	"testing"
	"time"

	"github.com/godaralokesh29/CodeProgress-CF-Analytics-Tool/internal/domain/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContestSummary(t *testing.T) {
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	rec := &model.ActivityRecord{ContestHistory: []model.ContestEntry{
		{ContestID: 1, Rank: 50, RatingChange: intPtr(30), RatingUpdatedAt: now.AddDate(0, 0, -100), ProblemsSolved: 2, ProblemsAttempted: 3},
		{ContestID: 2, Rank: 20, RatingChange: intPtr(-11), RatingUpdatedAt: now.AddDate(0, 0, -10), ProblemsSolved: 3, ProblemsAttempted: 4},
		{ContestID: 3, Rank: 35, RatingChange: intPtr(40), RatingUpdatedAt: now.AddDate(0, 0, -5), ProblemsSolved: 1, ProblemsAttempted: 1},
	}}

	w := ContestSummary(rec, 30, now)
	assert.Equal(t, 2, w.TotalContests)
	assert.Equal(t, 15, w.AvgRatingChange) // (-11 + 40) / 2 = 14.5
	assert.Equal(t, 20, w.BestRank)
	assert.Equal(t, 4, w.ProblemsSolved)
	assert.Equal(t, 5, w.TotalProblems)

	all := ContestSummary(rec, 365, now)
	assert.Equal(t, 3, all.TotalContests)

	empty := ContestSummary(nil, 30, now)
	assert.Equal(t, 0, empty.AvgRatingChange)
	assert.NotNil(t, empty.Contests)
}

func TestProblemSummary(t *testing.T) {
	now := time.Date(2024, 6, 10, 15, 0, 0, 0, time.UTC)
	rec := &model.ActivityRecord{ProblemSolvingData: model.ProblemSolvingData{
		SolvedProblems: []model.SolvedProblem{
			{Key: "1-A", Index: "A", Rating: intPtr(800), SolvedAt: now.AddDate(0, 0, -40)},
			{Key: "2-A", Index: "A", Rating: intPtr(950), SolvedAt: now.AddDate(0, 0, -3)},
			{Key: "2-B", Index: "B", Rating: intPtr(2400), SolvedAt: now.AddDate(0, 0, -2)},
			{Key: "2-C", Index: "C", SolvedAt: now.AddDate(0, 0, -1)},
		},
		DailyActivity: []model.DailyActivity{
			{Date: "2024-05-01", Submissions: 9, ProblemsSolved: 1},
			{Date: "2024-06-08", Submissions: 4, ProblemsSolved: 1},
			{Date: "2024-06-10", Submissions: 1, ProblemsSolved: 0},
		},
	}}

	w := ProblemSummary(rec, 7, now, time.UTC)
	assert.Equal(t, 3, w.TotalSolved)
	assert.Equal(t, 1675, w.AvgRating)
	require.NotNil(t, w.MostDifficult)
	assert.Equal(t, 2400, w.MostDifficult.Rating)
	assert.InDelta(t, 0.43, w.AvgPerDay, 1e-9)

	counts := map[string]int{}
	for _, b := range w.RatingBuckets {
		counts[b.Range] = b.Count
	}
	assert.Equal(t, 1, counts["800-999"])
	assert.Equal(t, 1, counts["2300+"])
	assert.Len(t, w.RatingBuckets, 8)

	require.Len(t, w.DailyActivity, 7)
	assert.Equal(t, "2024-06-04", w.DailyActivity[0].Date)
	assert.Equal(t, "2024-06-10", w.DailyActivity[6].Date)
	assert.Equal(t, 4, w.DailyActivity[4].Submissions)
	assert.Equal(t, 0, w.DailyActivity[5].Submissions)
}
