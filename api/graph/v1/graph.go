// Package graphv1 est le contrat RPC du Graph Service (follow/block/mute).
package graphv1

import (
	"context"

	"google.golang.org/grpc"

	"github.com/jupiterclapton/gamefeed/pkg/grpcjson"
)

const ServiceName = "gamefeed.graph.v1.GraphService"

type RelationRequest struct {
	ActorID  string `json:"actorId"`
	TargetID string `json:"targetId"`
	Relation string `json:"relation"` // FOLLOWS, BLOCKS, MUTES
}

type Empty struct{}

type CheckRelationResponse struct {
	IsFollowing  bool `json:"isFollowing"`
	IsFollowedBy bool `json:"isFollowedBy"`
	IsBlocking   bool `json:"isBlocking"`
	IsBlockedBy  bool `json:"isBlockedBy"`
	IsMuting     bool `json:"isMuting"`
}

type UserRequest struct {
	UserID string `json:"userId"`
}

type GetFollowingResponse struct {
	UserIDs []string `json:"userIds"`
}

type GetBlocksAndMutesResponse struct {
	BlockedByMe []string `json:"blockedByMe"`
	BlockedMe   []string `json:"blockedMe"`
	MutedByMe   []string `json:"mutedByMe"`
}

type GraphServiceServer interface {
	CreateRelation(ctx context.Context, req *RelationRequest) (*Empty, error)
	DeleteRelation(ctx context.Context, req *RelationRequest) (*Empty, error)
	CheckRelation(ctx context.Context, req *RelationRequest) (*CheckRelationResponse, error)
	GetFollowing(ctx context.Context, req *UserRequest) (*GetFollowingResponse, error)
	GetBlocksAndMutes(ctx context.Context, req *UserRequest) (*GetBlocksAndMutesResponse, error)
}

var GraphService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*GraphServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		grpcjson.Method(ServiceName, "CreateRelation", GraphServiceServer.CreateRelation),
		grpcjson.Method(ServiceName, "DeleteRelation", GraphServiceServer.DeleteRelation),
		grpcjson.Method(ServiceName, "CheckRelation", GraphServiceServer.CheckRelation),
		grpcjson.Method(ServiceName, "GetFollowing", GraphServiceServer.GetFollowing),
		grpcjson.Method(ServiceName, "GetBlocksAndMutes", GraphServiceServer.GetBlocksAndMutes),
	},
	Metadata: "graph/v1/graph.go",
}

func RegisterGraphServiceServer(s grpc.ServiceRegistrar, srv GraphServiceServer) {
	s.RegisterService(&GraphService_ServiceDesc, srv)
}

type GraphServiceClient interface {
	CreateRelation(ctx context.Context, in *RelationRequest, opts ...grpc.CallOption) (*Empty, error)
	DeleteRelation(ctx context.Context, in *RelationRequest, opts ...grpc.CallOption) (*Empty, error)
	CheckRelation(ctx context.Context, in *RelationRequest, opts ...grpc.CallOption) (*CheckRelationResponse, error)
	GetFollowing(ctx context.Context, in *UserRequest, opts ...grpc.CallOption) (*GetFollowingResponse, error)
	GetBlocksAndMutes(ctx context.Context, in *UserRequest, opts ...grpc.CallOption) (*GetBlocksAndMutesResponse, error)
}

type graphServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewGraphServiceClient(cc grpc.ClientConnInterface) GraphServiceClient {
	return &graphServiceClient{cc: cc}
}

func (c *graphServiceClient) CreateRelation(ctx context.Context, in *RelationRequest, opts ...grpc.CallOption) (*Empty, error) {
	return grpcjson.Invoke[RelationRequest, Empty](ctx, c.cc, ServiceName, "CreateRelation", in, opts...)
}

func (c *graphServiceClient) DeleteRelation(ctx context.Context, in *RelationRequest, opts ...grpc.CallOption) (*Empty, error) {
	return grpcjson.Invoke[RelationRequest, Empty](ctx, c.cc, ServiceName, "DeleteRelation", in, opts...)
}

func (c *graphServiceClient) CheckRelation(ctx context.Context, in *RelationRequest, opts ...grpc.CallOption) (*CheckRelationResponse, error) {
	return grpcjson.Invoke[RelationRequest, CheckRelationResponse](ctx, c.cc, ServiceName, "CheckRelation", in, opts...)
}

func (c *graphServiceClient) GetFollowing(ctx context.Context, in *UserRequest, opts ...grpc.CallOption) (*GetFollowingResponse, error) {
	return grpcjson.Invoke[UserRequest, GetFollowingResponse](ctx, c.cc, ServiceName, "GetFollowing", in, opts...)
}

func (c *graphServiceClient) GetBlocksAndMutes(ctx context.Context, in *UserRequest, opts ...grpc.CallOption) (*GetBlocksAndMutesResponse, error) {
	return grpcjson.Invoke[UserRequest, GetBlocksAndMutesResponse](ctx, c.cc, ServiceName, "GetBlocksAndMutes", in, opts...)
}
