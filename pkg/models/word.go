package models

import "time"

// Word is a single entry in the target word list
type Word struct {
	ID        string    `json:"id" db:"id"`
	Word      string    `json:"word" db:"word"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
