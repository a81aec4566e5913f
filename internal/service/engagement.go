// Package service contains the business logic layer of the application.
//
// THE THREE-LAYER ARCHITECTURE:
//
//	Handler (HTTP layer)     → parses requests, writes responses
//	Service (Business layer) → validates, enforces rules, orchestrates
//	Repository (Data layer)  → reads/writes to the database
//
// EngagementService owns the two anonymous engagement features, likes and
// reviews. It takes a repository.EngagementRepository (interface), so tests
// pass a mock and production passes SQLite or Postgres.
//
// WHAT THE SERVICE DOES NOT DO:
// It holds no locks and caches nothing. "One like per visitor" and "no lost
// increments" are enforced by the store's constraints and transactions, which
// is the only place that can see every concurrent request.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/sakif/essay-site/internal/apperror"
	"github.com/sakif/essay-site/internal/model"
	"github.com/sakif/essay-site/internal/repository"
)

// MaxReviewLength is counted in characters (runes) of the trimmed text.
const MaxReviewLength = 2000

// NameGenerator produces display pseudonyms such as "Bold Explorer".
// *pseudonym.Generator satisfies it.
type NameGenerator interface {
	Generate() string
}

// EngagementService handles likes and reviews.
type EngagementService struct {
	repo   repository.EngagementRepository
	names  NameGenerator
	logger *slog.Logger
}

// NewEngagementService creates a new EngagementService.
func NewEngagementService(repo repository.EngagementRepository, names NameGenerator, logger *slog.Logger) *EngagementService {
	return &EngagementService{
		repo:   repo,
		names:  names,
		logger: logger,
	}
}

func validateEssayID(essayID string) (string, error) {
	essayID = strings.TrimSpace(essayID)
	if essayID == "" {
		return "", apperror.ValidationFailed("essayId", "essay id is required")
	}
	return essayID, nil
}

// LikeCount returns the current like count. Unknown essays have 0 likes.
func (s *EngagementService) LikeCount(ctx context.Context, essayID string) (int64, error) {
	essayID, err := validateEssayID(essayID)
	if err != nil {
		return 0, err
	}

	count, err := s.repo.GetLikeCount(ctx, essayID)
	if err != nil {
		s.logger.Error("failed to get like count",
			slog.String("essay_id", essayID),
			slog.String("error", err.Error()),
		)
		return 0, fmt.Errorf("getting like count: %w", err)
	}
	return count, nil
}

// Like records anonID's like on essayID and returns the resulting count.
//
// IDEMPOTENCE:
// A visitor who already liked the essay gets the current count back and
// nothing is written. HasLiked is only a fast path: two requests from the
// same visitor can both pass it, and RecordLike's membership key then lets
// exactly one of them increment.
func (s *EngagementService) Like(ctx context.Context, essayID, anonID string) (int64, error) {
	essayID, err := validateEssayID(essayID)
	if err != nil {
		return 0, err
	}
	if anonID == "" {
		return 0, apperror.ValidationFailed("anonId", "anonId is required")
	}

	liked, err := s.repo.HasLiked(ctx, essayID, anonID)
	if err != nil {
		s.logger.Error("failed to check like",
			slog.String("essay_id", essayID),
			slog.String("error", err.Error()),
		)
		return 0, fmt.Errorf("checking like: %w", err)
	}

	if !liked {
		recorded, err := s.repo.RecordLike(ctx, essayID, anonID)
		if err != nil {
			s.logger.Error("failed to record like",
				slog.String("essay_id", essayID),
				slog.String("error", err.Error()),
			)
			return 0, fmt.Errorf("recording like: %w", err)
		}
		if recorded {
			s.logger.Info("like recorded", slog.String("essay_id", essayID))
		}
	}

	count, err := s.repo.GetLikeCount(ctx, essayID)
	if err != nil {
		s.logger.Error("failed to get like count",
			slog.String("essay_id", essayID),
			slog.String("error", err.Error()),
		)
		return 0, fmt.Errorf("getting like count: %w", err)
	}
	return count, nil
}

// SubmitReview validates and stores a review, reusing the visitor's
// pseudonym from their first review anywhere on the site.
//
// Validation runs in a fixed order so a request with several problems always
// reports the same one: empty text, then length, then missing anonId.
func (s *EngagementService) SubmitReview(ctx context.Context, essayID, text, anonID string) (*model.Review, error) {
	essayID, err := validateEssayID(essayID)
	if err != nil {
		return nil, err
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return nil, apperror.ValidationFailed("review", "review text is required")
	}
	if utf8.RuneCountInString(text) > MaxReviewLength {
		return nil, apperror.ValidationFailed("review",
			fmt.Sprintf("review must be %d characters or less", MaxReviewLength))
	}
	if anonID == "" {
		return nil, apperror.ValidationFailed("anonId", "anonId is required")
	}

	name, found, err := s.repo.FirstPseudonym(ctx, anonID)
	if err != nil {
		s.logger.Error("failed to look up pseudonym", slog.String("error", err.Error()))
		return nil, fmt.Errorf("looking up pseudonym: %w", err)
	}
	if !found {
		name = s.names.Generate()
	}

	review := &model.Review{
		EssayID:       essayID,
		Review:        text,
		GeneratedName: name,
		AnonID:        &anonID,
	}
	if err := s.repo.InsertReview(ctx, review); err != nil {
		s.logger.Error("failed to insert review",
			slog.String("essay_id", essayID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("submitting review: %w", err)
	}

	s.logger.Info("review submitted",
		slog.String("essay_id", essayID),
		slog.Int64("id", review.ID),
		slog.String("generated_name", review.GeneratedName),
		slog.Bool("new_pseudonym", !found),
	)
	return review, nil
}

// ListReviews returns an essay's reviews, newest first.
func (s *EngagementService) ListReviews(ctx context.Context, essayID string) ([]model.Review, error) {
	essayID, err := validateEssayID(essayID)
	if err != nil {
		return nil, err
	}

	reviews, err := s.repo.ListReviews(ctx, essayID)
	if err != nil {
		s.logger.Error("failed to list reviews",
			slog.String("essay_id", essayID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("listing reviews: %w", err)
	}
	return reviews, nil
}
