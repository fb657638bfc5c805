package grpc

import (
	"context"
	"errors"
	"log/slog"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	feedv1 "github.com/jupiterclapton/gamefeed/api/feed/v1"
	"github.com/jupiterclapton/gamefeed/services/feed-service/internal/core/domain"
	"github.com/jupiterclapton/gamefeed/services/feed-service/internal/core/ports"
)

type Server struct {
	service ports.FeedService
}

func NewServer(service ports.FeedService) *Server {
	return &Server{service: service}
}

func (s *Server) Register(grpcServer *grpc.Server) {
	feedv1.RegisterFeedServiceServer(grpcServer, s)
}

func (s *Server) GetFeed(ctx context.Context, req *feedv1.GetFeedRequest) (*feedv1.GetFeedResponse, error) {
	page, err := s.service.BuildPage(ctx, domain.FeedRequest{
		ViewerID:  req.ViewerID,
		Scope:     domain.Scope(req.Scope),
		FilterTag: req.FilterTag,
		Cursor:    req.Cursor,
		Limit:     req.Limit,
	})
	if err != nil {
		return nil, toStatus(err)
	}

	// Mapping Domain -> contrat RPC
	items := make([]feedv1.FeedItem, len(page.Items))
	for i, item := range page.Items {
		items[i] = toWire(item)
	}
	return &feedv1.GetFeedResponse{
		Items:           items,
		NextCursor:      page.NextCursor,
		HasMore:         page.HasMore,
		DegradedSources: page.DegradedSources,
	}, nil
}

func toWire(item domain.FeedItem) feedv1.FeedItem {
	out := feedv1.FeedItem{
		ID:        item.ID,
		Kind:      string(item.Kind),
		Source:    item.Source,
		CreatedAt: item.CreatedAt,
		Author: feedv1.Author{
			ID:          item.Author.ID,
			Username:    item.Author.Username,
			DisplayName: item.Author.DisplayName,
			AvatarURL:   item.Author.AvatarURL,
		},
		Content: item.Content,
		Media:   item.Media,
		Rating:  item.Rating,
		Reactions: feedv1.ReactionCounts{
			Likes:    item.Reactions.Likes,
			Comments: item.Reactions.Comments,
			Shares:   item.Reactions.Shares,
		},
		ReactableKey: item.ReactableKey().String(),
		Score:        item.Score,
	}
	if item.Game != nil {
		out.Game = &feedv1.Game{ID: item.Game.ID, Name: item.Game.Name, CoverURL: item.Game.CoverURL}
	}
	return out
}

func toStatus(err error) error {
	switch {
	case errors.Is(err, domain.ErrValidation), errors.Is(err, domain.ErrInvalidCursor):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, domain.ErrUnauthorized):
		return status.Error(codes.Unauthenticated, err.Error())
	case errors.Is(err, domain.ErrGraphUnavailable):
		return status.Error(codes.Unavailable, "social graph unavailable")
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	default:
		slog.Error("Failed to build feed page", "error", err)
		return status.Error(codes.Internal, "failed to build feed page")
	}
}
