package model

import "time"

type Movie struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	Genres      []string  `json:"genres"`
	PosterURL   string    `json:"poster_url"`
	TrailerURL  string    `json:"trailer_url"`
	IsPremium   bool      `json:"is_premium"`
	Price       float64   `json:"price"`
	CreatedAt   time.Time `json:"created_at"`
}
