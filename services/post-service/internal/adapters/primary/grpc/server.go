package grpc

import (
	"context"
	"errors"
	"log/slog"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	postv1 "github.com/jupiterclapton/gamefeed/api/post/v1"
	"github.com/jupiterclapton/gamefeed/services/post-service/internal/core/domain"
	"github.com/jupiterclapton/gamefeed/services/post-service/internal/core/ports"
)

type Server struct {
	service ports.PostService
}

func NewServer(service ports.PostService) *Server {
	return &Server{service: service}
}

func (s *Server) Register(grpcServer *grpc.Server) {
	postv1.RegisterPostServiceServer(grpcServer, s)
}

func (s *Server) CreatePost(ctx context.Context, req *postv1.CreatePostRequest) (*postv1.PostResponse, error) {
	post, err := s.service.CreatePost(ctx, ports.CreatePostInput{
		AuthorID: req.UserID,
		GameID:   req.GameID,
		Content:  req.Content,
		Media:    mapWireMediaToDomain(req.Media),
	})
	if err != nil {
		return nil, toStatus(err)
	}
	return &postv1.PostResponse{Post: mapDomainToWire(post)}, nil
}

func (s *Server) GetPost(ctx context.Context, req *postv1.GetPostRequest) (*postv1.PostResponse, error) {
	post, err := s.service.GetPost(ctx, req.PostID)
	if err != nil {
		return nil, toStatus(err)
	}
	return &postv1.PostResponse{Post: mapDomainToWire(post)}, nil
}

func (s *Server) DeletePost(ctx context.Context, req *postv1.DeletePostRequest) (*postv1.Empty, error) {
	if err := s.service.DeletePost(ctx, req.PostID, req.UserID); err != nil {
		return nil, toStatus(err)
	}
	return &postv1.Empty{}, nil
}

func (s *Server) ListPostsByAuthor(ctx context.Context, req *postv1.ListPostsByAuthorRequest) (*postv1.ListPostsByAuthorResponse, error) {
	posts, next, err := s.service.ListPostsByAuthor(ctx, req.AuthorID, req.Limit, req.PageToken)
	if err != nil {
		return nil, toStatus(err)
	}
	out := make([]postv1.Post, len(posts))
	for i, p := range posts {
		out[i] = mapDomainToWire(p)
	}
	return &postv1.ListPostsByAuthorResponse{Posts: out, NextPageToken: next}, nil
}

// --- Mappers ---

func mapDomainToWire(p *domain.Post) postv1.Post {
	media := make([]postv1.Media, len(p.Media))
	for i, m := range p.Media {
		media[i] = postv1.Media{ID: m.ID, URL: m.URL, Type: string(m.Type)}
	}
	return postv1.Post{
		ID:        p.ID,
		AuthorID:  p.AuthorID,
		GameID:    p.GameID,
		Content:   p.Content,
		Media:     media,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

func mapWireMediaToDomain(media []postv1.Media) []domain.Media {
	out := make([]domain.Media, len(media))
	for i, m := range media {
		out[i] = domain.Media{ID: m.ID, URL: m.URL, Type: domain.MediaType(m.Type)}
	}
	return out
}

func toStatus(err error) error {
	switch {
	case errors.Is(err, domain.ErrValidation), errors.Is(err, domain.ErrInvalidPageToken):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, domain.ErrRateLimited):
		return status.Error(codes.ResourceExhausted, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		return status.Error(codes.NotFound, "post not found")
	case errors.Is(err, domain.ErrUnauthorized):
		return status.Error(codes.Unauthenticated, err.Error())
	case errors.Is(err, domain.ErrForbidden):
		return status.Error(codes.PermissionDenied, err.Error())
	default:
		slog.Error("Post service failure", "error", err)
		return status.Error(codes.Internal, "internal error")
	}
}
