package model

import "time"

type RecommendationReason string

const (
	ReasonCurriculumMatch RecommendationReason = "curriculum-match"
	ReasonHighlyRated     RecommendationReason = "highly-rated"
	ReasonUnseen          RecommendationReason = "unseen"
)

// RecommendationCandidate 推荐结果，不落库
type RecommendationCandidate struct {
	Resource ResourceSummary      `json:"resource"`
	Reason   RecommendationReason `json:"reason"`
}

type ActivityView struct {
	ID            string         `json:"id"`
	Action        ActivityAction `json:"action"`
	ResourceID    *uint          `json:"resourceId,omitempty"`
	ResourceTitle string         `json:"resourceTitle,omitempty"`
	CreatedAt     time.Time      `json:"createdAt"`
}

func (e *ActivityEvent) View() ActivityView {
	v := ActivityView{
		ID:         e.ID,
		Action:     e.Action,
		ResourceID: e.ResourceID,
		CreatedAt:  e.CreatedAt,
	}
	if e.Resource != nil {
		v.ResourceTitle = e.Resource.Title
	}
	return v
}

type ReadingProgressView struct {
	ResourceID      uint      `json:"resourceId"`
	ResourceTitle   string    `json:"resourceTitle"`
	CurrentPage     int       `json:"currentPage"`
	TotalPages      *int      `json:"totalPages,omitempty"`
	PercentComplete float64   `json:"percentComplete"`
	LastReadAt      time.Time `json:"lastReadAt"`
}

func (p *ReadingProgress) View() ReadingProgressView {
	v := ReadingProgressView{
		ResourceID:      p.ResourceID,
		CurrentPage:     p.CurrentPage,
		TotalPages:      p.TotalPages,
		PercentComplete: p.PercentComplete,
		LastReadAt:      p.LastReadAt,
	}
	if p.Resource != nil {
		v.ResourceTitle = p.Resource.Title
	}
	return v
}

type DashboardCounters struct {
	Bookmarks int64 `json:"bookmarks"`
	Completed int64 `json:"completed"`
}

// DashboardSnapshot 每次请求重新组装，只属于一个调用者
// swagger:model DashboardSnapshot
type DashboardSnapshot struct {
	RecentActivity  []ActivityView            `json:"recentActivity"`
	ContinueReading []ReadingProgressView     `json:"continueReading"`
	Recommendations []RecommendationCandidate `json:"recommendations"`
	Counters        DashboardCounters         `json:"counters"`
	Warnings        []string                  `json:"warnings,omitempty"`
	GeneratedAt     time.Time                 `json:"generatedAt"`
}
