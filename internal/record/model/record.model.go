package model

import (
	"encoding/json"
	"strings"
	"time"
)

// StoredRecord is a row as read from a collection table. ID is never
// exposed to clients.
type StoredRecord struct {
	ID         string          `json:"-"`
	OwnerEmail string          `json:"-"`
	Slug       string          `json:"slug"`
	IsPublic   bool            `json:"isPublic"`
	CreatedAt  time.Time       `json:"createdAt"`
	Document   json.RawMessage `json:"-"`
}

// Collection describes one content type that follows the record contract.
type Collection struct {
	Name  string // route segment and feed key
	Table string
	Noun  string // human name used in error messages, e.g. "Field note"
}

func (c Collection) NotFoundMessage() string {
	return c.Noun + " not found"
}

func (c Collection) ReadFailedMessage() string {
	return "Failed to read " + strings.ToLower(c.Noun)
}

var (
	FieldNotes = Collection{Name: "fieldnotes", Table: "field_notes", Noun: "Field note"}
	Recipes    = Collection{Name: "recipes", Table: "recipes", Noun: "Recipe"}
	BrewLogs   = Collection{Name: "brews", Table: "brew_logs", Noun: "Brew log"}
	Jobs       = Collection{Name: "jobs", Table: "job_applications", Noun: "Job"}
)

// Collections lists every database-backed collection served by the API.
func Collections() []Collection {
	return []Collection{FieldNotes, Recipes, BrewLogs, Jobs}
}

type ListOptions struct {
	Slugs        []string
	FavoriteOnly bool
	Limit        int
}

const (
	DefaultListLimit = 50
	MaxListLimit     = 200
)
