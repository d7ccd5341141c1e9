package domain

// User carries the virtual-credit balance settled by the engine.
// Credits are an internal ledger value, not real currency.
type User struct {
	ID       string  `json:"id"`
	Username string  `json:"username"`
	Email    string  `json:"email"`
	Credits  float64 `json:"credits"`
	IsActive bool    `json:"is_active"`
}
