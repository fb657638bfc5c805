package grpc

import (
	"context"
	"errors"
	"log/slog"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	graphv1 "github.com/jupiterclapton/gamefeed/api/graph/v1"
	"github.com/jupiterclapton/gamefeed/services/graph-service/internal/core/domain"
	"github.com/jupiterclapton/gamefeed/services/graph-service/internal/core/ports"
)

type Server struct {
	service ports.GraphService
}

func NewServer(service ports.GraphService) *Server {
	return &Server{service: service}
}

func (s *Server) Register(grpcServer *grpc.Server) {
	graphv1.RegisterGraphServiceServer(grpcServer, s)
}

func (s *Server) CreateRelation(ctx context.Context, req *graphv1.RelationRequest) (*graphv1.Empty, error) {
	relType, err := domain.ParseRelationType(req.Relation)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	if err := s.service.CreateRelation(ctx, req.ActorID, req.TargetID, relType); err != nil {
		return nil, toStatus("create relation", err)
	}
	return &graphv1.Empty{}, nil
}

func (s *Server) DeleteRelation(ctx context.Context, req *graphv1.RelationRequest) (*graphv1.Empty, error) {
	relType, err := domain.ParseRelationType(req.Relation)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	if err := s.service.DeleteRelation(ctx, req.ActorID, req.TargetID, relType); err != nil {
		return nil, toStatus("delete relation", err)
	}
	return &graphv1.Empty{}, nil
}

func (s *Server) CheckRelation(ctx context.Context, req *graphv1.RelationRequest) (*graphv1.CheckRelationResponse, error) {
	rel, err := s.service.CheckRelation(ctx, req.ActorID, req.TargetID)
	if err != nil {
		return nil, toStatus("check relation", err)
	}
	return &graphv1.CheckRelationResponse{
		IsFollowing:  rel.IsFollowing,
		IsFollowedBy: rel.IsFollowedBy,
		IsBlocking:   rel.IsBlocking,
		IsBlockedBy:  rel.IsBlockedBy,
		IsMuting:     rel.IsMuting,
	}, nil
}

func (s *Server) GetFollowing(ctx context.Context, req *graphv1.UserRequest) (*graphv1.GetFollowingResponse, error) {
	ids, err := s.service.GetFollowing(ctx, req.UserID)
	if err != nil {
		return nil, toStatus("get following", err)
	}
	return &graphv1.GetFollowingResponse{UserIDs: ids}, nil
}

func (s *Server) GetBlocksAndMutes(ctx context.Context, req *graphv1.UserRequest) (*graphv1.GetBlocksAndMutesResponse, error) {
	lists, err := s.service.GetBlocksAndMutes(ctx, req.UserID)
	if err != nil {
		return nil, toStatus("get blocks and mutes", err)
	}
	return &graphv1.GetBlocksAndMutesResponse{
		BlockedByMe: lists.BlockedByMe,
		BlockedMe:   lists.BlockedMe,
		MutedByMe:   lists.MutedByMe,
	}, nil
}

func toStatus(op string, err error) error {
	if errors.Is(err, domain.ErrValidation) || errors.Is(err, domain.ErrUnknownRelation) {
		return status.Error(codes.InvalidArgument, err.Error())
	}
	slog.Error("Graph operation failed", "op", op, "error", err)
	return status.Error(codes.Internal, "internal error")
}
