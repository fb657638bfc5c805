// Package interactionv1 est le contrat RPC de l'Interaction Service (likes, commentaires).
package interactionv1

import (
	"context"
	"time"

	"google.golang.org/grpc"

	"github.com/jupiterclapton/gamefeed/pkg/grpcjson"
)

const ServiceName = "gamefeed.interaction.v1.InteractionService"

const (
	ActionLike   = "like"
	ActionUnlike = "unlike"
	ActionToggle = "toggle"
)

type ToggleReactionRequest struct {
	ViewerID     string `json:"viewerId"`
	ReactableKey string `json:"reactableKey"`
	Action       string `json:"action"`
}

type ReactionStateRequest struct {
	ViewerID     string `json:"viewerId,omitempty"`
	ReactableKey string `json:"reactableKey"`
}

type ReactionState struct {
	Liked    bool `json:"liked"`
	Count    int  `json:"count"`
	Comments int  `json:"comments"`
}

type AddCommentRequest struct {
	ViewerID     string `json:"viewerId"`
	ReactableKey string `json:"reactableKey"`
	Body         string `json:"body"`
}

type Comment struct {
	ID           string    `json:"id"`
	ReactableKey string    `json:"reactableKey"`
	AuthorID     string    `json:"authorId"`
	Body         string    `json:"body"`
	CreatedAt    time.Time `json:"createdAt"`
}

type AddCommentResponse struct {
	Comment Comment `json:"comment"`
	Count   int     `json:"count"`
}

type DeleteCommentRequest struct {
	ViewerID  string `json:"viewerId"`
	CommentID string `json:"commentId"`
}

type CommentCountResponse struct {
	ReactableKey string `json:"reactableKey"`
	Count        int    `json:"count"`
}

type CommentCountRequest struct {
	ReactableKey string `json:"reactableKey"`
}

type InteractionServiceServer interface {
	ToggleReaction(ctx context.Context, req *ToggleReactionRequest) (*ReactionState, error)
	GetReactionState(ctx context.Context, req *ReactionStateRequest) (*ReactionState, error)
	AddComment(ctx context.Context, req *AddCommentRequest) (*AddCommentResponse, error)
	DeleteComment(ctx context.Context, req *DeleteCommentRequest) (*CommentCountResponse, error)
	GetCommentCount(ctx context.Context, req *CommentCountRequest) (*CommentCountResponse, error)
}

var InteractionService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*InteractionServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		grpcjson.Method(ServiceName, "ToggleReaction", InteractionServiceServer.ToggleReaction),
		grpcjson.Method(ServiceName, "GetReactionState", InteractionServiceServer.GetReactionState),
		grpcjson.Method(ServiceName, "AddComment", InteractionServiceServer.AddComment),
		grpcjson.Method(ServiceName, "DeleteComment", InteractionServiceServer.DeleteComment),
		grpcjson.Method(ServiceName, "GetCommentCount", InteractionServiceServer.GetCommentCount),
	},
	Metadata: "interaction/v1/interaction.go",
}

func RegisterInteractionServiceServer(s grpc.ServiceRegistrar, srv InteractionServiceServer) {
	s.RegisterService(&InteractionService_ServiceDesc, srv)
}

type InteractionServiceClient interface {
	ToggleReaction(ctx context.Context, in *ToggleReactionRequest, opts ...grpc.CallOption) (*ReactionState, error)
	GetReactionState(ctx context.Context, in *ReactionStateRequest, opts ...grpc.CallOption) (*ReactionState, error)
	AddComment(ctx context.Context, in *AddCommentRequest, opts ...grpc.CallOption) (*AddCommentResponse, error)
	DeleteComment(ctx context.Context, in *DeleteCommentRequest, opts ...grpc.CallOption) (*CommentCountResponse, error)
	GetCommentCount(ctx context.Context, in *CommentCountRequest, opts ...grpc.CallOption) (*CommentCountResponse, error)
}

type interactionServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewInteractionServiceClient(cc grpc.ClientConnInterface) InteractionServiceClient {
	return &interactionServiceClient{cc: cc}
}

func (c *interactionServiceClient) ToggleReaction(ctx context.Context, in *ToggleReactionRequest, opts ...grpc.CallOption) (*ReactionState, error) {
	return grpcjson.Invoke[ToggleReactionRequest, ReactionState](ctx, c.cc, ServiceName, "ToggleReaction", in, opts...)
}

func (c *interactionServiceClient) GetReactionState(ctx context.Context, in *ReactionStateRequest, opts ...grpc.CallOption) (*ReactionState, error) {
	return grpcjson.Invoke[ReactionStateRequest, ReactionState](ctx, c.cc, ServiceName, "GetReactionState", in, opts...)
}

func (c *interactionServiceClient) AddComment(ctx context.Context, in *AddCommentRequest, opts ...grpc.CallOption) (*AddCommentResponse, error) {
	return grpcjson.Invoke[AddCommentRequest, AddCommentResponse](ctx, c.cc, ServiceName, "AddComment", in, opts...)
}

func (c *interactionServiceClient) DeleteComment(ctx context.Context, in *DeleteCommentRequest, opts ...grpc.CallOption) (*CommentCountResponse, error) {
	return grpcjson.Invoke[DeleteCommentRequest, CommentCountResponse](ctx, c.cc, ServiceName, "DeleteComment", in, opts...)
}

func (c *interactionServiceClient) GetCommentCount(ctx context.Context, in *CommentCountRequest, opts ...grpc.CallOption) (*CommentCountResponse, error) {
	return grpcjson.Invoke[CommentCountRequest, CommentCountResponse](ctx, c.cc, ServiceName, "GetCommentCount", in, opts...)
}
