package domain

import "time"

// Regulation is a jurisdiction-scoped regulatory document stored denormalized
// in the document store. Ids are UUID strings, same format as the relational
// entities.
type Regulation struct {
	ID            string    `bson:"_id" json:"id"`
	Title         string    `bson:"title" json:"title"`
	Content       string    `bson:"content" json:"content"`
	EffectiveDate time.Time `bson:"effective_date" json:"effective_date"`
	Location      string    `bson:"location" json:"location"`
	Keywords      []string  `bson:"keywords" json:"keywords"`
	SourceURL     string    `bson:"source_url,omitempty" json:"source_url,omitempty"`
	Jurisdiction  string    `bson:"jurisdiction,omitempty" json:"jurisdiction,omitempty"`
	CreatedAt     time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt     time.Time `bson:"updated_at" json:"updated_at"`
}
