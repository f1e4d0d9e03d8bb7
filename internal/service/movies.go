package service

import (
	"context"

	apperrors "cinebook/internal/errors"
	"cinebook/internal/external"
	"cinebook/internal/logger"
	"cinebook/internal/models"
)

// MovieService projects external catalog metadata into the API shape.
// The catalog is decoration only: when it is down or a movie is unknown,
// a placeholder with the requested ID keeps the booking flow usable.
type MovieService struct {
	catalog Catalog
}

func NewMovieService(catalog Catalog) *MovieService {
	return &MovieService{catalog: catalog}
}

func (s *MovieService) Get(ctx context.Context, movieID string) (*models.Movie, error) {
	if movieID == "" {
		return nil, apperrors.ErrValidation
	}

	cm, err := s.catalog.GetMovie(ctx, movieID)
	if err != nil {
		logger.WithContext(ctx).Warn("Catalog lookup failed, serving placeholder",
			"movie_id", movieID, "error", err)
		return &models.Movie{ID: movieID, Title: "Movie " + movieID}, nil
	}

	return toMovie(cm), nil
}

func (s *MovieService) Search(ctx context.Context, query string) ([]models.Movie, error) {
	if query == "" {
		return nil, apperrors.ErrValidation
	}

	results, err := s.catalog.Search(ctx, query)
	if err != nil {
		logger.WithContext(ctx).Warn("Catalog search failed",
			"query", query, "error", err)
		return []models.Movie{}, nil
	}

	movies := make([]models.Movie, len(results))
	for i := range results {
		movies[i] = *toMovie(&results[i])
	}

	return movies, nil
}

func toMovie(cm *external.CatalogMovie) *models.Movie {
	return &models.Movie{
		ID:          cm.ID,
		Title:       cm.Title,
		ReleaseDate: cm.ReleaseDate,
		RuntimeMin:  cm.RuntimeMin,
		Genres:      cm.Genres,
		PosterPath:  cm.PosterPath,
	}
}
