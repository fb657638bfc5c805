package grpc

import (
	"context"
	"errors"
	"log/slog"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	interactionv1 "github.com/jupiterclapton/gamefeed/api/interaction/v1"
	"github.com/jupiterclapton/gamefeed/services/interaction-service/internal/core/domain"
	"github.com/jupiterclapton/gamefeed/services/interaction-service/internal/core/ports"
)

type Server struct {
	service ports.InteractionService
}

func NewServer(service ports.InteractionService) *Server {
	return &Server{service: service}
}

func (s *Server) Register(grpcServer *grpc.Server) {
	interactionv1.RegisterInteractionServiceServer(grpcServer, s)
}

func (s *Server) ToggleReaction(ctx context.Context, req *interactionv1.ToggleReactionRequest) (*interactionv1.ReactionState, error) {
	state, err := s.service.ToggleReaction(ctx, req.ViewerID, req.ReactableKey, req.Action)
	if err != nil {
		return nil, toStatus(err)
	}
	return toWire(state), nil
}

func (s *Server) GetReactionState(ctx context.Context, req *interactionv1.ReactionStateRequest) (*interactionv1.ReactionState, error) {
	state, err := s.service.GetReactionState(ctx, req.ViewerID, req.ReactableKey)
	if err != nil {
		return nil, toStatus(err)
	}
	return toWire(state), nil
}

func (s *Server) AddComment(ctx context.Context, req *interactionv1.AddCommentRequest) (*interactionv1.AddCommentResponse, error) {
	c, count, err := s.service.AddComment(ctx, req.ViewerID, req.ReactableKey, req.Body)
	if err != nil {
		return nil, toStatus(err)
	}
	return &interactionv1.AddCommentResponse{
		Comment: interactionv1.Comment{
			ID:           c.ID,
			ReactableKey: c.Key.String(),
			AuthorID:     c.AuthorID,
			Body:         c.Body,
			CreatedAt:    c.CreatedAt,
		},
		Count: count,
	}, nil
}

func (s *Server) DeleteComment(ctx context.Context, req *interactionv1.DeleteCommentRequest) (*interactionv1.CommentCountResponse, error) {
	key, count, err := s.service.DeleteComment(ctx, req.ViewerID, req.CommentID)
	if err != nil {
		return nil, toStatus(err)
	}
	return &interactionv1.CommentCountResponse{ReactableKey: key.String(), Count: count}, nil
}

func (s *Server) GetCommentCount(ctx context.Context, req *interactionv1.CommentCountRequest) (*interactionv1.CommentCountResponse, error) {
	count, err := s.service.GetCommentCount(ctx, req.ReactableKey)
	if err != nil {
		return nil, toStatus(err)
	}
	return &interactionv1.CommentCountResponse{ReactableKey: req.ReactableKey, Count: count}, nil
}

func toWire(s domain.ReactionState) *interactionv1.ReactionState {
	return &interactionv1.ReactionState{Liked: s.Liked, Count: s.Count, Comments: s.Comments}
}

func toStatus(err error) error {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, domain.ErrUnauthorized):
		return status.Error(codes.Unauthenticated, err.Error())
	case errors.Is(err, domain.ErrForbidden):
		return status.Error(codes.PermissionDenied, err.Error())
	case errors.Is(err, domain.ErrRateLimited):
		return status.Error(codes.ResourceExhausted, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		return status.Error(codes.NotFound, err.Error())
	default:
		slog.Error("Interaction service failure", "error", err)
		return status.Error(codes.Internal, "internal error")
	}
}
