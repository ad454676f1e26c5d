package service

import (
	"errors"
	"strings"

	"homestead/internal/record/model"
	"homestead/internal/record/normalize"
	"homestead/internal/story/filestore"
	"homestead/pkg/apperr"
)

var Stories = model.Collection{Name: "stories", Noun: "Story"}

// StoryService serves records from the file store. Files have no visibility
// column, so the document's own isPublic flag decides who else may read
// them.
type StoryService struct {
	Store *filestore.Store
}

func NewStoryService(store *filestore.Store) *StoryService {
	return &StoryService{Store: store}
}

func (s *StoryService) Get(owner, slug, viewer string) (normalize.Record, error) {
	owner, err := resolveOwner(owner, viewer)
	if err != nil {
		return nil, err
	}
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return nil, apperr.New(apperr.BadRequest, "Missing slug parameter")
	}

	entry, err := s.Store.Read(owner, slug)
	if err != nil {
		return nil, translate(err)
	}

	row := rowFor(owner, entry)
	if !visible(row, viewer) {
		return nil, apperr.New(apperr.NotFound, Stories.NotFoundMessage())
	}
	return normalize.Apply(entry.Document, row, ownerViewer(row, viewer)), nil
}

func (s *StoryService) List(owner, viewer string) ([]normalize.Record, error) {
	owner, err := resolveOwner(owner, viewer)
	if err != nil {
		return nil, err
	}

	entries, err := s.Store.List(owner)
	if err != nil {
		return nil, translate(err)
	}

	records := make([]normalize.Record, 0, len(entries))
	for i := range entries {
		row := rowFor(owner, &entries[i])
		if !visible(row, viewer) {
			continue
		}
		records = append(records, normalize.Apply(entries[i].Document, row, ownerViewer(row, viewer)))
	}
	return records, nil
}

func resolveOwner(owner, viewer string) (string, error) {
	owner = strings.TrimSpace(owner)
	if owner == "" {
		owner = viewer
	}
	if owner == "" {
		return "", apperr.New(apperr.BadRequest, "Missing ownerIdentity parameter")
	}
	return owner, nil
}

func rowFor(owner string, entry *filestore.Entry) model.StoredRecord {
	isPublic, _ := entry.Document["isPublic"].(bool)
	return model.StoredRecord{
		OwnerEmail: owner,
		Slug:       entry.Slug,
		IsPublic:   isPublic,
		CreatedAt:  entry.ModTime,
	}
}

func visible(row model.StoredRecord, viewer string) bool {
	return row.IsPublic || (viewer != "" && viewer == row.OwnerEmail)
}

// ownerViewer returns viewer only when it owns row; anyone else reading a
// public story never becomes its author.
func ownerViewer(row model.StoredRecord, viewer string) string {
	if viewer != "" && viewer == row.OwnerEmail {
		return viewer
	}
	return ""
}

func translate(err error) error {
	var decodeErr *normalize.DecodeError
	switch {
	case errors.Is(err, filestore.ErrInvalidKey):
		return apperr.Wrap(apperr.BadRequest, "Invalid owner or slug", err)
	case errors.Is(err, filestore.ErrNotFound):
		return apperr.Wrap(apperr.NotFound, Stories.NotFoundMessage(), err)
	case errors.As(err, &decodeErr):
		return apperr.Wrap(apperr.CorruptRecord, Stories.ReadFailedMessage(), err)
	default:
		return apperr.Wrap(apperr.StoreUnavailable, Stories.ReadFailedMessage(), err)
	}
}
