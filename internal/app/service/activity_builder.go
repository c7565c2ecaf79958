package service

import (
	"math"
	"sort"
	"time"

	"github.com/godaralokesh29/CodeProgress-CF-Analytics-Tool/internal/domain/model"
	"github.com/godaralokesh29/CodeProgress-CF-Analytics-Tool/internal/platform/codeforces"

	"github.com/gosimple/slug"
	"github.com/volatiletech/null/v8"
)

const unratedRank = "unrated"

// BuildActivityRecord folds the three Codeforces resources into one activity
// record. It is pure: loc decides the calendar day of each submission and now
// becomes LastUpdated. The second return value is the newest submission time.
func BuildActivityRecord(
	studentID string,
	user *codeforces.User,
	ratings []codeforces.RatingChange,
	submissions []codeforces.Submission,
	loc *time.Location,
	now time.Time,
) (*model.ActivityRecord, null.Time) {
	if loc == nil {
		loc = time.UTC
	}

	subs := make([]codeforces.Submission, len(submissions))
	copy(subs, submissions)
	sort.SliceStable(subs, func(i, j int) bool {
		if subs[i].CreationTimeSeconds != subs[j].CreationTimeSeconds {
			return subs[i].CreationTimeSeconds < subs[j].CreationTimeSeconds
		}
		return subs[i].ID < subs[j].ID
	})

	var (
		days          = map[string]*model.DailyActivity{}
		accepted      = map[string]bool{}
		solved        = []model.SolvedProblem{}
		contestSolved = map[int]map[string]bool{}
		contestTried  = map[int]map[string]bool{}
		mostDifficult *model.ProblemRef
		lastSubmitted int64
	)

	for _, sub := range subs {
		created := sub.CreatedAt()
		if sub.CreationTimeSeconds > lastSubmitted {
			lastSubmitted = sub.CreationTimeSeconds
		}

		dayKey := created.In(loc).Format(model.DayLayout)
		day, ok := days[dayKey]
		if !ok {
			day = &model.DailyActivity{Date: dayKey}
			days[dayKey] = day
		}
		day.Submissions++

		isOK := sub.Verdict == codeforces.VerdictOK
		key := sub.Problem.Key()
		if isOK && !accepted[key] {
			accepted[key] = true
			day.ProblemsSolved++
			solved = append(solved, model.SolvedProblem{
				Key:       key,
				ContestID: sub.Problem.ContestID,
				Index:     sub.Problem.Index,
				Name:      sub.Problem.Name,
				Rating:    sub.Problem.Rating,
				Tags:      sub.Problem.Tags,
				SolvedAt:  created,
			})
			// strict comparison keeps the earliest problem on ties
			if r := sub.Problem.Rating; r != nil && (mostDifficult == nil || *r > mostDifficult.Rating) {
				mostDifficult = &model.ProblemRef{
					ContestID: sub.Problem.ContestID,
					Index:     sub.Problem.Index,
					Name:      sub.Problem.Name,
					Rating:    *r,
				}
			}
		}

		if sub.Author.ParticipantType == codeforces.ParticipantContestant {
			contestID := sub.ContestID
			if contestID == 0 {
				contestID = sub.Problem.ContestID
			}
			addToSet(contestTried, contestID, sub.Problem.Index)
			if isOK {
				addToSet(contestSolved, contestID, sub.Problem.Index)
			}
		}
	}

	history := make([]model.ContestEntry, 0, len(ratings))
	maxRating, hasRated := 0, false
	changeSum, changeCount := 0, 0
	contestSolvedSum := 0
	for _, rc := range ratings {
		entry := model.ContestEntry{
			ContestID:         rc.ContestID,
			ContestName:       rc.ContestName,
			Rank:              rc.Rank,
			OldRating:         rc.OldRating,
			NewRating:         rc.NewRating,
			RatingUpdatedAt:   time.Unix(rc.RatingUpdateTimeSeconds, 0).UTC(),
			ProblemsSolved:    len(contestSolved[rc.ContestID]),
			ProblemsAttempted: len(contestTried[rc.ContestID]),
		}
		if rc.NewRating != nil {
			if !hasRated || *rc.NewRating > maxRating {
				maxRating = *rc.NewRating
			}
			hasRated = true
		}
		if rc.OldRating != nil && rc.NewRating != nil {
			change := *rc.NewRating - *rc.OldRating
			entry.RatingChange = &change
			changeSum += change
			changeCount++
		}
		contestSolvedSum += entry.ProblemsSolved
		history = append(history, entry)
	}

	rec := &model.ActivityRecord{
		StudentID:      studentID,
		ContestHistory: history,
		LastUpdated:    now,
	}
	if user != nil {
		rec.Handle = user.Handle
		rec.CurrentRating = user.Rating
		rec.Rank = user.Rank
		rec.MaxRank = user.MaxRank
		if !hasRated {
			maxRating = user.MaxRating
		}
	}
	rec.MaxRating = maxRating
	rec.RankSlug = rankSlug(rec.Rank)
	rec.AvgRatingChange = mean(changeSum, changeCount)

	rec.ProblemsSolved = contestSolvedSum
	if rec.ProblemsSolved == 0 {
		rec.ProblemsSolved = len(solved)
	}

	ratingSum, ratedCount := 0, 0
	for _, p := range solved {
		if p.Rating != nil {
			ratingSum += *p.Rating
			ratedCount++
		}
	}
	rec.ProblemStats = model.ProblemStats{
		TotalSolved:   len(solved),
		AvgRating:     int(math.Round(mean(ratingSum, ratedCount))),
		MostDifficult: mostDifficult,
	}

	daily := make([]model.DailyActivity, 0, len(days))
	for _, d := range days {
		daily = append(daily, *d)
	}
	sort.Slice(daily, func(i, j int) bool { return daily[i].Date < daily[j].Date })

	rec.ProblemSolvingData = model.ProblemSolvingData{
		SolvedProblems:   solved,
		DailyActivity:    daily,
		TotalSubmissions: len(subs),
	}

	var last null.Time
	if len(subs) > 0 {
		last = null.TimeFrom(time.Unix(lastSubmitted, 0).UTC())
	}
	return rec, last
}

func addToSet(sets map[int]map[string]bool, id int, member string) {
	set, ok := sets[id]
	if !ok {
		set = map[string]bool{}
		sets[id] = set
	}
	set[member] = true
}

// mean returns 0 for an empty population.
func mean(sum, n int) float64 {
	if n == 0 {
		return 0
	}
	return float64(sum) / float64(n)
}

func rankSlug(rank string) string {
	if rank == "" {
		return unratedRank
	}
	return slug.Make(rank)
}
