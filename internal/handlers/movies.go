package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"cinebook/internal/cache"
)

// GetMovie обрабатывает GET /api/movies/:id - метаданные фильма из
// внешнего каталога, с кешированием
func (h *Handlers) GetMovie(c *gin.Context) {
	movieID := c.Param("id")
	ctx := c.Request.Context()

	if h.cache != nil {
		if raw, err := h.cache.GetRaw(ctx, cache.MovieKey(movieID)); err == nil {
			c.Data(http.StatusOK, "application/json", raw)
			return
		}
	}

	movie, err := h.services.Movies.Get(ctx, movieID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	if h.cache != nil {
		h.cache.Set(ctx, cache.MovieKey(movieID), movie)
	}

	c.JSON(http.StatusOK, movie)
}

// SearchMovies обрабатывает GET /api/movies?query=
func (h *Handlers) SearchMovies(c *gin.Context) {
	query := c.Query("query")
	ctx := c.Request.Context()

	if h.cache != nil {
		if raw, err := h.cache.GetRaw(ctx, cache.MovieSearchKey(query)); err == nil {
			c.Data(http.StatusOK, "application/json", raw)
			return
		}
	}

	movies, err := h.services.Movies.Search(ctx, query)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	resp := gin.H{"movies": movies}
	if h.cache != nil {
		h.cache.Set(ctx, cache.MovieSearchKey(query), resp)
	}

	c.JSON(http.StatusOK, resp)
}
