package models

// StatusChange is the backend reply to a status toggle: the updated record
// plus fresh counts.
type StatusChange struct {
	Employee Employee `json:"employee"`
	Counts   Counts   `json:"counts"`
}
