package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Product struct {
	ID          primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Name        string             `json:"name" bson:"name"`
	Description string             `json:"description" bson:"description"`
	Price       float64            `json:"price" bson:"price"`
	Category    string             `json:"category" bson:"category"`
	ImageURL    string             `json:"imageUrl" bson:"imageUrl"`
	Stock       int                `json:"stock" bson:"stock"`
	Rating      *float64           `json:"rating,omitempty" bson:"rating,omitempty"`
	Reviews     []Review           `json:"reviews" bson:"reviews"`
	CreatedAt   time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt   time.Time          `json:"updatedAt" bson:"updatedAt"`
}

// Clone copie le produit, avis et note compris. Reviews n'est jamais nil.
func (p Product) Clone() Product {
	out := p
	out.Reviews = make([]Review, len(p.Reviews))
	copy(out.Reviews, p.Reviews)
	if p.Rating != nil {
		r := *p.Rating
		out.Rating = &r
	}
	return out
}
