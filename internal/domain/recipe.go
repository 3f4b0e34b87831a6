package domain

import "time"

// Ingredient is a single entry of a recipe's ordered ingredient list.
// Quantity is optional on input; serialized forms always carry it, with ""
// standing in for "not specified".
type Ingredient struct {
	Name     string `json:"name"`
	Quantity string `json:"quantity"`
}

// Recipe is a user-owned recipe. CreatedBy is set once at creation and is
// never settable by a client.
type Recipe struct {
	ID           int64
	Title        string
	Description  string
	Ingredients  []Ingredient
	Instructions string
	ImageURL     string
	CreatedBy    int64
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
