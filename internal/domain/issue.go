package domain

import "time"

// IssueStatus is the closed set of lifecycle states. Transitions are not
// forced into a forward-only order: any status from the set is accepted
// from an authorized user.
type IssueStatus string

const (
	StatusOpen       IssueStatus = "Open"
	StatusInProgress IssueStatus = "InProgress"
	StatusResolved   IssueStatus = "Resolved"
	StatusClosed     IssueStatus = "Closed"
)

func ParseIssueStatus(s string) (IssueStatus, bool) {
	switch IssueStatus(s) {
	case StatusOpen, StatusInProgress, StatusResolved, StatusClosed:
		return IssueStatus(s), true
	}
	return "", false
}

// Issue is a reported urban problem. It references its reporter by id only.
type Issue struct {
	ID             string      `json:"id"`
	Title          string      `json:"title"`
	Description    string      `json:"description"`
	PhotoURL       *string     `json:"photo_url,omitempty"`
	Latitude       float64     `json:"latitude"`
	Longitude      float64     `json:"longitude"`
	Address        *string     `json:"address,omitempty"`
	Status         IssueStatus `json:"status"`
	Classification string      `json:"classification,omitempty"`
	Resolution     *string     `json:"resolution,omitempty"`
	ReporterID     string      `json:"reporter_id"`
	ReportedAt     time.Time   `json:"reported_at"`
	UpdatedAt      time.Time   `json:"updated_at"`
}

// MaxIssueTitleLen bounds the title column.
const MaxIssueTitleLen = 200
