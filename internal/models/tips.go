package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Tips struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title     string             `bson:"title" json:"title"`
	Desc      string             `bson:"desc" json:"desc"`
	Author    primitive.ObjectID `bson:"author" json:"author"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
}

// TipsWithAuthor is a tip with its author reference resolved to the
// password-free doctor view.
type TipsWithAuthor struct {
	ID        primitive.ObjectID `json:"id"`
	Title     string             `json:"title"`
	Desc      string             `json:"desc"`
	Author    Author             `json:"author"`
	CreatedAt time.Time          `json:"createdAt"`
}

// WithAuthor attaches the resolved author to the tip.
func (t Tips) WithAuthor(a Author) TipsWithAuthor {
	return TipsWithAuthor{
		ID:        t.ID,
		Title:     t.Title,
		Desc:      t.Desc,
		Author:    a,
		CreatedAt: t.CreatedAt,
	}
}
