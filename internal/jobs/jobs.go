// Package jobs defines the job-domain types shared by the gateway, the
// tool-card router, and the recommendation engine.
package jobs

// Summary is the minimal job record the assistant core consumes from the
// surrounding product. Everything else about a posting (description,
// application status, source URL) belongs to the collaborators.
type Summary struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Company     string `json:"company"`
	Location    string `json:"location"`
	SalaryRange string `json:"salary_range,omitempty"`
	Remote      bool   `json:"remote,omitempty"`
}

// Tier is the coarse recommendation bucket derived from a match score.
type Tier string

const (
	TierStrong Tier = "strong"
	TierGood   Tier = "good"
	TierFair   Tier = "fair"
	TierWeak   Tier = "weak"
)

// TierFor buckets a 0-100 match score.
func TierFor(score int) Tier {
	switch {
	case score >= 80:
		return TierStrong
	case score >= 60:
		return TierGood
	case score >= 40:
		return TierFair
	default:
		return TierWeak
	}
}

// Match is the result of scoring one job against the user profile.
// A Match is immutable once produced; re-scoring replaces it wholesale.
type Match struct {
	JobID     string   `json:"job_id"`
	Score     int      `json:"score"` // 0-100
	Strengths []string `json:"strengths,omitempty"`
	Gaps      []string `json:"gaps,omitempty"`
	Tier      Tier     `json:"tier,omitempty"`
}
