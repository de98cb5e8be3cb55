package model

import "time"

const (
	PetStatMin = 0
	PetStatMax = 100
)

type Pet struct {
	ID                  int64     `json:"id"`
	UserID              int64     `json:"user_id"`
	Name                string    `json:"name"`
	Kind                string    `json:"pet_type"`
	Happiness           int       `json:"happiness"`
	Hunger              int       `json:"hunger"`
	FoodQuantity        int       `json:"food_quantity"`
	SpecialFoodQuantity int       `json:"special_food_quantity"`
	// UpdatedAt is when decay was last applied. Feeding, play and pantry
	// edits leave it alone so they cannot shorten the next decay window.
	UpdatedAt time.Time `json:"updated_at"`
	CreatedAt           time.Time `json:"created_at"`
}
