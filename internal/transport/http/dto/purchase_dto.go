package dto

import "time"

type PurchaseCreateRequest struct {
	MovieID      string `json:"movie_id"`
	PhoneNumber  string `json:"phone_number"`
	CustomerName string `json:"customer_name,omitempty"`
}

type PurchaseCreateResponse struct {
	OK            bool   `json:"ok"`
	TransactionID string `json:"transaction_id,omitempty"`
	Status        string `json:"status"`
	AlreadyOwned  bool   `json:"already_owned,omitempty"`
	PriceLabel    string `json:"price_label,omitempty"`
	Message       string `json:"message,omitempty"`
}

type PurchaseRecheckRequest struct {
	TransactionID string `json:"transaction_id"`
	MovieID       string `json:"movie_id"`
}

type PurchaseRecheckResponse struct {
	OK           bool   `json:"ok"`
	Status       string `json:"status"`
	Committed    bool   `json:"committed"`
	AlreadyOwned bool   `json:"already_owned,omitempty"`
}

type OwnedMoviesResponse struct {
	MovieIDs []string `json:"movie_ids"`
}

type PurchaseHistoryItem struct {
	MovieID       string         `json:"movie_id"`
	Movie         *MovieResponse `json:"movie,omitempty"`
	Price         float64        `json:"price"`
	PriceLabel    string         `json:"price_label"`
	Status        string         `json:"status"`
	PaymentMethod string         `json:"payment_method"`
	TransactionID string         `json:"transaction_id,omitempty"`
	PurchasedAt   time.Time      `json:"purchased_at"`
}

type PurchaseHistoryResponse struct {
	Purchases []PurchaseHistoryItem `json:"purchases"`
}

type AdminTransactionItem struct {
	ID            string    `json:"id"`
	UserID        int64     `json:"user_id"`
	MovieID       string    `json:"movie_id"`
	Price         float64   `json:"price"`
	Status        string    `json:"status"`
	PaymentMethod string    `json:"payment_method"`
	TransactionID string    `json:"transaction_id,omitempty"`
	PurchasedAt   time.Time `json:"purchased_at"`
}

type AdminTransactionsResponse struct {
	Transactions []AdminTransactionItem `json:"transactions"`
}

type AdminStatsResponse struct {
	TotalTransactions int                    `json:"total_transactions"`
	TotalRevenue      float64                `json:"total_revenue"`
	TotalRevenueLabel string                 `json:"total_revenue_label"`
	UniqueBuyers      int                    `json:"unique_buyers"`
	Recent            []AdminTransactionItem `json:"recent"`
}
