package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

const DayLayout = "2006-01-02"

type ActivityRecord struct {
	StudentID          string             `json:"student_id"`
	Handle             string             `json:"handle"`
	CurrentRating      int                `json:"current_rating"`
	MaxRating          int                `json:"max_rating"`
	Rank               string             `json:"rank"`
	MaxRank            string             `json:"max_rank"`
	RankSlug           string             `json:"rank_slug"`
	ContestHistory     []ContestEntry     `json:"contest_history"`
	ProblemStats       ProblemStats       `json:"problem_stats"`
	ProblemSolvingData ProblemSolvingData `json:"problem_solving_data"`
	AvgRatingChange    float64            `json:"avg_rating_change"`
	ProblemsSolved     int                `json:"problems_solved"`
	LastUpdated        time.Time          `json:"last_updated"`
}

type ContestEntry struct {
	ContestID         int       `json:"contest_id"`
	ContestName       string    `json:"contest_name"`
	Rank              int       `json:"rank"`
	OldRating         *int      `json:"old_rating"`
	NewRating         *int      `json:"new_rating"`
	RatingChange      *int      `json:"rating_change"`
	RatingUpdatedAt   time.Time `json:"rating_updated_at"`
	ProblemsSolved    int       `json:"problems_solved"`
	ProblemsAttempted int       `json:"problems_attempted"`
}

type ProblemStats struct {
	TotalSolved   int         `json:"total_solved"`
	AvgRating     int         `json:"avg_rating"`
	MostDifficult *ProblemRef `json:"most_difficult"`
}

type ProblemRef struct {
	ContestID int    `json:"contest_id"`
	Index     string `json:"index"`
	Name      string `json:"name"`
	Rating    int    `json:"rating"`
}

type SolvedProblem struct {
	Key       string    `json:"key"` // "<contestId>-<index>"
	ContestID int       `json:"contest_id"`
	Index     string    `json:"index"`
	Name      string    `json:"name"`
	Rating    *int      `json:"rating"`
	Tags      []string  `json:"tags"`
	SolvedAt  time.Time `json:"solved_at"`
}

type DailyActivity struct {
	Date           string `json:"date"` // YYYY-MM-DD in the configured time zone
	Submissions    int    `json:"submissions"`
	ProblemsSolved int    `json:"problems_solved"`
}

type ProblemSolvingData struct {
	SolvedProblems   []SolvedProblem `json:"solved_problems"`
	DailyActivity    []DailyActivity `json:"daily_activity"`
	TotalSubmissions int             `json:"total_submissions"`
}

// Value stores the record as a JSONB document.
func (a ActivityRecord) Value() (driver.Value, error) {
	return json.Marshal(a)
}

func (a *ActivityRecord) Scan(src interface{}) error {
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, a)
	case string:
		return json.Unmarshal([]byte(v), a)
	default:
		return fmt.Errorf("ActivityRecord.Scan: unsupported type %T", src)
	}
}
