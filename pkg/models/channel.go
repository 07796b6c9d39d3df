package models

// Channel is one column of the schedule grid
type Channel struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Group        string `json:"group,omitempty"`
	Ordering     int    `json:"ordering"`
	HasSubStream bool   `json:"hasSubStream"`
}
