// Package model defines the data structures used throughout the application.
// In Go, we use structs to represent our data — similar to classes in other languages,
// but without inheritance. Go favours composition over inheritance.
package model

import "time"

// Review is one free-text reaction left on an essay by an anonymous visitor.
//
// Reviews are append-only: the store assigns ID and CreatedAt on insert and
// nothing ever updates or deletes a row afterwards.
//
// The JSON tags use snake_case because the browser widget reads the rows
// exactly as they are named in the reviews table.
//
// WHY AnonID *string WITH json:"-"?
// The anonymous identity is a correlation key, not display data. It is
// nullable in the schema (older rows may lack it) and is never sent back to
// clients. Anyone who read it could post under that visitor's
// pseudonym.
type Review struct {
	ID            int64     `json:"id"`
	EssayID       string    `json:"essay_id"`
	Review        string    `json:"review"`
	GeneratedName string    `json:"generated_name"`
	AnonID        *string   `json:"-"`
	CreatedAt     time.Time `json:"created_at"`
}

// LikeSummary is the response shape of both like endpoints.
type LikeSummary struct {
	EssayID string `json:"essayId"`
	Count   int64  `json:"count"`
}
