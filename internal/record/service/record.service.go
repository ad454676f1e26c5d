package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"golang.org/x/sync/errgroup"

	"homestead/internal/record/model"
	"homestead/internal/record/normalize"
	"homestead/internal/record/repository"
	"homestead/pkg/apperr"
)

const feedConcurrency = 4

type RecordService struct {
	Repo       *repository.RecordRepository
	Collection model.Collection
}

func NewRecordService(repo *repository.RecordRepository, collection model.Collection) *RecordService {
	return &RecordService{Repo: repo, Collection: collection}
}

// Locate resolves slug to the single record visible to viewer. An empty
// viewer is anonymous and only sees public records.
func (s *RecordService) Locate(ctx context.Context, slug, viewer string) (*model.StoredRecord, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return nil, apperr.New(apperr.BadRequest, "Missing slug parameter")
	}

	var rec *model.StoredRecord
	var err error
	if viewer != "" {
		rec, err = s.Repo.FindByOwnerAndSlug(ctx, viewer, slug)
	} else {
		rec, err = s.Repo.FindPublicBySlug(ctx, slug)
	}
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.New(apperr.NotFound, s.Collection.NotFoundMessage())
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.StoreUnavailable, s.Collection.ReadFailedMessage(), err)
	}
	return rec, nil
}

func (s *RecordService) Get(ctx context.Context, slug, viewer string) (normalize.Record, error) {
	rec, err := s.Locate(ctx, slug, viewer)
	if err != nil {
		return nil, err
	}
	return s.normalize(*rec, viewer)
}

// List returns the viewer's own records, or public records for anonymous
// viewers. A single undecodable record fails the whole list. The favorite
// filter lives inside the document, so pages are read until limit favorites
// are collected or the rows run out.
func (s *RecordService) List(ctx context.Context, opts model.ListOptions, viewer string) ([]normalize.Record, error) {
	limit, err := listLimit(opts.Limit)
	if err != nil {
		return nil, err
	}

	records := make([]normalize.Record, 0, limit)
	for offset := 0; ; offset += limit {
		rows, err := s.page(ctx, opts.Slugs, viewer, limit, offset)
		if err != nil {
			return nil, err
		}
		for _, row := range rows {
			rec, err := s.normalize(row, viewer)
			if err != nil {
				return nil, err
			}
			if opts.FavoriteOnly && !rec.IsFavorite() {
				continue
			}
			records = append(records, rec)
			if len(records) == limit {
				return records, nil
			}
		}
		if len(rows) < limit {
			return records, nil
		}
	}
}

func (s *RecordService) page(ctx context.Context, slugs []string, viewer string, limit, offset int) ([]model.StoredRecord, error) {
	var rows []model.StoredRecord
	var err error
	if viewer != "" {
		rows, err = s.Repo.ListByOwner(ctx, viewer, slugs, limit, offset)
	} else {
		rows, err = s.Repo.ListPublic(ctx, slugs, limit, offset)
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.StoreUnavailable, s.Collection.ReadFailedMessage(), err)
	}
	return rows, nil
}

func (s *RecordService) normalize(row model.StoredRecord, viewer string) (normalize.Record, error) {
	rec, err := normalize.Merge(row, viewer)
	if err != nil {
		return nil, apperr.Wrap(apperr.CorruptRecord, s.Collection.ReadFailedMessage(), err)
	}
	return rec, nil
}

func listLimit(limit int) (int, error) {
	switch {
	case limit == 0:
		return model.DefaultListLimit, nil
	case limit < 0 || limit > model.MaxListLimit:
		return 0, apperr.New(apperr.BadRequest, "Invalid limit parameter")
	default:
		return limit, nil
	}
}

// Feed collects the newest public records of every service concurrently,
// keyed by collection name.
func Feed(ctx context.Context, services []*RecordService, limit int) (map[string][]normalize.Record, error) {
	results := make([][]normalize.Record, len(services))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(feedConcurrency)
	for i, svc := range services {
		g.Go(func() error {
			records, err := svc.List(gctx, model.ListOptions{Limit: limit}, "")
			if err != nil {
				return err
			}
			results[i] = records
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	feed := make(map[string][]normalize.Record, len(services))
	for i, svc := range services {
		feed[svc.Collection.Name] = results[i]
	}
	return feed, nil
}
