package domain

import "time"

// TermsOfService is a versioned legal agreement.
type TermsOfService struct {
	ID            string    `json:"id"`
	Version       string    `json:"version"`
	Title         string    `json:"title"`
	Content       string    `json:"content"`
	EffectiveDate time.Time `json:"effective_date"`
	IsActive      bool      `json:"is_active"`
	URL           *string   `json:"url,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// UserTermsOfService records one acceptance. Rows are append-only; a newer
// version acceptance supersedes, never replaces, older rows.
type UserTermsOfService struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	Version    string    `json:"version"`
	AcceptedAt time.Time `json:"accepted_at"`
	IPAddress  *string   `json:"ip_address,omitempty"`
	UserAgent  *string   `json:"user_agent,omitempty"`
}
