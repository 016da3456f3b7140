package model

import "time"

const (
	PurchaseStatusCompleted = "completed"
	PaymentMethodFastLipa   = "FastLipa"
)

// Purchase is the durable proof that a user owns a movie. At most one record
// exists per (UserID, MovieID); records are never mutated or deleted here.
type Purchase struct {
	ID            string    `json:"id"`
	UserID        int64     `json:"user_id"`
	MovieID       string    `json:"movie_id"`
	Price         float64   `json:"price"`
	Status        string    `json:"status"`
	PaymentMethod string    `json:"payment_method"`
	TransactionID string    `json:"transaction_id,omitempty"`
	PurchasedAt   time.Time `json:"purchased_at"`
}

// UserPurchases is the per-user index of owned movie ids. Movie ids are unique
// within the index; entries are only ever added.
type UserPurchases struct {
	UserID    int64     `json:"user_id"`
	MovieIDs  []string  `json:"movie_ids"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
