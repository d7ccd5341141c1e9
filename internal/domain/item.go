package domain

// Item is an inventory entry owned by a user. Availability doubles as
// the listing guard: an item attached to an open auction is unavailable.
type Item struct {
	ID          string `json:"id"`
	OwnerID     string `json:"owner_id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Type        string `json:"type"`
	IsAvailable bool   `json:"is_available"`
	Image       string `json:"image,omitempty"`
}
