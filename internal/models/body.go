package models

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrMalformedBody is returned when a stored body cannot be decoded.
var ErrMalformedBody = errors.New("malformed recipe body")

// RecipeBody is the part of a recipe kept in the blob store.
// Times are in seconds.
type RecipeBody struct {
	PreparationTime uint64       `json:"preparationTime"`
	CookingTime     uint64       `json:"cookingTime"`
	Ingredients     []Ingredient `json:"ingredients" validate:"dive"`
	Steps           []string     `json:"steps" validate:"dive,required"`
}

// Ingredient is a named amount.
type Ingredient struct {
	Name     string   `json:"name" validate:"required,max=200"`
	Quantity Quantity `json:"quantity"`
}

// Quantity is exactly one of liters, grams or a piece count.
type Quantity struct {
	Liters *float64 `json:"l,omitempty" validate:"omitempty,gt=0"`
	Grams  *uint32  `json:"g,omitempty"`
	Count  *uint32  `json:"n,omitempty"`
}

func (q Quantity) kinds() int {
	n := 0
	if q.Liters != nil {
		n++
	}
	if q.Grams != nil {
		n++
	}
	if q.Count != nil {
		n++
	}
	return n
}

// Grams returns a gram quantity.
func Grams(v uint32) Quantity { return Quantity{Grams: &v} }

// Liters returns a liter quantity.
func Liters(v float64) Quantity { return Quantity{Liters: &v} }

// Count returns a piece-count quantity.
func Count(v uint32) Quantity { return Quantity{Count: &v} }

// EncodeBody serializes a body for the blob store.
func EncodeBody(body RecipeBody) ([]byte, error) {
	return json.Marshal(body)
}

// DecodeBody parses and validates a stored body.
func DecodeBody(data []byte) (RecipeBody, error) {
	var body RecipeBody
	if err := json.Unmarshal(data, &body); err != nil {
		return RecipeBody{}, fmt.Errorf("%w: %w", ErrMalformedBody, err)
	}
	if err := Validate(body); err != nil {
		return RecipeBody{}, fmt.Errorf("%w: %w", ErrMalformedBody, err)
	}
	return body, nil
}
