package project

import "time"

// Project is the slice of the project registry the messaging core needs:
// its identity, display title and the parties assigned to it.
type Project struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	ClientID     string    `json:"client_id"`
	FreelancerID string    `json:"freelancer_id,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// HasFreelancer reports whether a freelancer has been assigned.
func (p Project) HasFreelancer() bool {
	return p.FreelancerID != ""
}

// Involves reports whether the user is the project's client or freelancer.
func (p Project) Involves(userID string) bool {
	return userID != "" && (p.ClientID == userID || p.FreelancerID == userID)
}
