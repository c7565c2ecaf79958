package service

import (
	"math"
	"time"

	"github.com/godaralokesh29/CodeProgress-CF-Analytics-Tool/internal/domain/model"
)

const (
	DefaultContestWindowDays = 365
	DefaultProblemWindowDays = 30
	MaxWindowDays            = 3650
)

type ContestWindow struct {
	Days            int                  `json:"days"`
	Contests        []model.ContestEntry `json:"contests"`
	TotalContests   int                  `json:"total_contests"`
	AvgRatingChange int                  `json:"avg_rating_change"`
	BestRank        int                  `json:"best_rank"`
	ProblemsSolved  int                  `json:"problems_solved"`
	TotalProblems   int                  `json:"total_problems"`
}

type RatingBucket struct {
	Range string `json:"range"`
	Min   int    `json:"min"`
	Max   int    `json:"max"`
	Count int    `json:"count"`
}

type ProblemWindow struct {
	Days           int                   `json:"days"`
	SolvedProblems []model.SolvedProblem `json:"solved_problems"`
	DailyActivity  []model.DailyActivity `json:"daily_activity"`
	RatingBuckets  []RatingBucket        `json:"rating_buckets"`
	TotalSolved    int                   `json:"total_solved"`
	AvgRating      int                   `json:"avg_rating"`
	MostDifficult  *model.ProblemRef     `json:"most_difficult"`
	AvgPerDay      float64               `json:"avg_per_day"`
}

func newRatingBuckets() []RatingBucket {
	return []RatingBucket{
		{Range: "800-999", Min: 800, Max: 999},
		{Range: "1000-1199", Min: 1000, Max: 1199},
		{Range: "1200-1399", Min: 1200, Max: 1399},
		{Range: "1400-1599", Min: 1400, Max: 1599},
		{Range: "1600-1899", Min: 1600, Max: 1899},
		{Range: "1900-2099", Min: 1900, Max: 2099},
		{Range: "2100-2299", Min: 2100, Max: 2299},
		{Range: "2300+", Min: 2300, Max: math.MaxInt32},
	}
}

// ContestSummary restricts contest history to the last days days.
func ContestSummary(rec *model.ActivityRecord, days int, now time.Time) ContestWindow {
	cutoff := now.Add(-time.Duration(days) * 24 * time.Hour)
	out := ContestWindow{Days: days, Contests: []model.ContestEntry{}}
	if rec == nil {
		return out
	}

	changeSum, changeCount := 0, 0
	for _, c := range rec.ContestHistory {
		if c.RatingUpdatedAt.Before(cutoff) {
			continue
		}
		out.Contests = append(out.Contests, c)
		if c.RatingChange != nil {
			changeSum += *c.RatingChange
			changeCount++
		}
		if c.Rank > 0 && (out.BestRank == 0 || c.Rank < out.BestRank) {
			out.BestRank = c.Rank
		}
		out.ProblemsSolved += c.ProblemsSolved
		out.TotalProblems += c.ProblemsAttempted
	}
	out.TotalContests = len(out.Contests)
	out.AvgRatingChange = int(math.Round(mean(changeSum, changeCount)))
	return out
}

// ProblemSummary restricts solved problems and daily activity to the last days
// days. DailyActivity is zero-filled so it has exactly days entries ending today.
func ProblemSummary(rec *model.ActivityRecord, days int, now time.Time, loc *time.Location) ProblemWindow {
	if loc == nil {
		loc = time.UTC
	}
	cutoff := now.Add(-time.Duration(days) * 24 * time.Hour)
	out := ProblemWindow{
		Days:           days,
		SolvedProblems: []model.SolvedProblem{},
		DailyActivity:  make([]model.DailyActivity, 0, days),
		RatingBuckets:  newRatingBuckets(),
	}

	byDate := map[string]model.DailyActivity{}
	if rec != nil {
		for _, d := range rec.ProblemSolvingData.DailyActivity {
			byDate[d.Date] = d
		}
		ratingSum, ratedCount := 0, 0
		for _, p := range rec.ProblemSolvingData.SolvedProblems {
			if p.SolvedAt.Before(cutoff) {
				continue
			}
			out.SolvedProblems = append(out.SolvedProblems, p)
			if p.Rating == nil {
				continue
			}
			r := *p.Rating
			ratingSum += r
			ratedCount++
			for i := range out.RatingBuckets {
				if r >= out.RatingBuckets[i].Min && r <= out.RatingBuckets[i].Max {
					out.RatingBuckets[i].Count++
					break
				}
			}
			if out.MostDifficult == nil || r > out.MostDifficult.Rating {
				out.MostDifficult = &model.ProblemRef{ContestID: p.ContestID, Index: p.Index, Name: p.Name, Rating: r}
			}
		}
		out.AvgRating = int(math.Round(mean(ratingSum, ratedCount)))
	}
	out.TotalSolved = len(out.SolvedProblems)

	today := now.In(loc)
	for i := days - 1; i >= 0; i-- {
		date := today.AddDate(0, 0, -i).Format(model.DayLayout)
		d, ok := byDate[date]
		if !ok {
			d = model.DailyActivity{Date: date}
		}
		out.DailyActivity = append(out.DailyActivity, d)
	}

	if days > 0 {
		out.AvgPerDay = math.Round(float64(out.TotalSolved)/float64(days)*100) / 100
	}
	return out
}
