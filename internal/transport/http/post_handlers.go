package http

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"github.com/vovakirdan/matchup-server/internal/proto"
	"github.com/vovakirdan/matchup-server/internal/store"
	"github.com/vovakirdan/matchup-server/internal/utils"
)

// PostHandlers provides HTTP handlers for the post feed.
type PostHandlers struct {
	store store.PostStore
	log   *zerolog.Logger
	now   func() time.Time
}

// NewPostHandlers creates a new post handlers instance.
func NewPostHandlers(st store.PostStore, logger *zerolog.Logger) *PostHandlers {
	return &PostHandlers{
		store: st,
		log:   logger,
		now:   time.Now,
	}
}

// CreatePostRequest represents the create post request body.
type CreatePostRequest struct {
	Title   string       `json:"title" binding:"required,max=128"`
	Caption string       `json:"caption" binding:"max=2048"`
	Image   string       `json:"image" binding:"max=1024"`
	Author  proto.Author `json:"author"`
}

// PostResponse represents a post in API responses.
type PostResponse struct {
	ID        string       `json:"id"`
	Title     string       `json:"title"`
	Caption   string       `json:"caption"`
	Image     string       `json:"image"`
	Author    proto.Author `json:"author"`
	CreatedAt string       `json:"created_at"`
}

// CreatePost handles post creation.
// POST /api/posts
func (h *PostHandlers) CreatePost(c *gin.Context) {
	var req CreatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Debug().Err(err).Msg("invalid create post request")
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	post := &store.Post{
		ID:        utils.NewID(),
		Title:     strings.TrimSpace(req.Title),
		Caption:   req.Caption,
		Image:     req.Image,
		Author:    store.Author{ID: req.Author.ID, Name: req.Author.Name},
		CreatedAt: h.now().UTC(),
	}
	if post.Title == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "title is required"})
		return
	}

	if err := h.store.CreatePost(c.Request.Context(), post); err != nil {
		h.log.Error().Err(err).Str("title", post.Title).Msg("failed to create post")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	h.log.Info().Str("post_id", post.ID).Str("author_id", post.Author.ID).Msg("post created")
	c.JSON(http.StatusCreated, postToResponse(post))
}

// ListPosts handles listing posts, newest first.
// GET /api/posts
func (h *PostHandlers) ListPosts(c *gin.Context) {
	posts, err := h.store.ListPosts(c.Request.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("failed to list posts")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	c.JSON(http.StatusOK, lo.Map(posts, func(p *store.Post, _ int) PostResponse { return postToResponse(p) }))
}

func postToResponse(post *store.Post) PostResponse {
	return PostResponse{
		ID:        post.ID,
		Title:     post.Title,
		Caption:   post.Caption,
		Image:     post.Image,
		Author:    proto.Author{ID: post.Author.ID, Name: post.Author.Name},
		CreatedAt: post.CreatedAt.UTC().Format(time.RFC3339),
	}
}
