// Package links manages the saved link collections.
package links

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"linksvault/internal/domain"
	"linksvault/internal/storage"
)

// Service implements the collection operations on top of a Repository.
type Service struct {
	repo storage.Repository
	now  func() time.Time
	log  logrus.FieldLogger
}

// NewService creates the collection service.
func NewService(repo storage.Repository, logger logrus.FieldLogger) *Service {
	return &Service{
		repo: repo,
		now:  time.Now,
		log:  logger.WithField("component", "links"),
	}
}

// Add normalizes rawURL and saves it to the collection. It returns
// domain.ErrInvalidURL for unusable input and domain.ErrDuplicate when the
// collection already holds a link with the same comparison key.
func (s *Service) Add(ctx context.Context, collectionID, rawURL string) (domain.LinkEntry, error) {
	normalized, err := domain.NormalizeURL(rawURL)
	if err != nil {
		return domain.LinkEntry{}, err
	}

	link := domain.LinkEntry{
		URL:       normalized,
		Title:     normalized,
		Timestamp: s.now().UTC().Format(time.RFC3339Nano),
	}

	_, err = s.repo.GetLink(ctx, collectionID, link.Key())
	switch {
	case err == nil:
		return domain.LinkEntry{}, domain.ErrDuplicate
	case !errors.Is(err, domain.ErrNotFound):
		return domain.LinkEntry{}, fmt.Errorf("failed to check for duplicate: %w", err)
	}

	if err := s.repo.SaveLink(ctx, collectionID, link); err != nil {
		return domain.LinkEntry{}, err
	}
	s.log.WithFields(logrus.Fields{"collection_id": collectionID, "url": normalized}).Info("Link added")
	return link, nil
}

// List returns the collection, newest first.
func (s *Service) List(ctx context.Context, collectionID string) ([]domain.LinkEntry, error) {
	return s.repo.GetLinks(ctx, collectionID)
}

// Get finds a link by any URL that compares equal to it.
func (s *Service) Get(ctx context.Context, collectionID, rawURL string) (domain.LinkEntry, error) {
	return s.repo.GetLink(ctx, collectionID, domain.NormalizeURLForComparison(rawURL))
}

// Delete removes a link. Returns domain.ErrNotFound when it is not in the collection.
func (s *Service) Delete(ctx context.Context, collectionID, rawURL string) error {
	link, err := s.Get(ctx, collectionID, rawURL)
	if err != nil {
		return err
	}
	return s.repo.DeleteLink(ctx, collectionID, link.Key())
}

// SetCustomTitle stores the user's title override.
func (s *Service) SetCustomTitle(ctx context.Context, collectionID, rawURL, title string) (domain.LinkEntry, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return s.ClearCustomTitle(ctx, collectionID, rawURL)
	}
	return s.update(ctx, collectionID, rawURL, func(l *domain.LinkEntry) {
		l.CustomTitle = &title
		l.IsCustomTitle = true
		l.Title = title
	})
}

// ClearCustomTitle drops the override so fetched titles are shown again.
func (s *Service) ClearCustomTitle(ctx context.Context, collectionID, rawURL string) (domain.LinkEntry, error) {
	return s.update(ctx, collectionID, rawURL, func(l *domain.LinkEntry) {
		l.CustomTitle = nil
		l.IsCustomTitle = false
		l.Title = l.URL
	})
}

// ToggleFavorite flips the favorite flag.
func (s *Service) ToggleFavorite(ctx context.Context, collectionID, rawURL string) (domain.LinkEntry, error) {
	return s.update(ctx, collectionID, rawURL, func(l *domain.LinkEntry) {
		l.IsFavorite = !l.IsFavorite
	})
}

func (s *Service) update(ctx context.Context, collectionID, rawURL string, mutate func(*domain.LinkEntry)) (domain.LinkEntry, error) {
	link, err := s.Get(ctx, collectionID, rawURL)
	if err != nil {
		return domain.LinkEntry{}, err
	}
	mutate(&link)
	if err := s.repo.SaveLink(ctx, collectionID, link); err != nil {
		return domain.LinkEntry{}, err
	}
	return link, nil
}
