// Package feedv1 est le contrat RPC du Feed Service (JSON sur gRPC).
package feedv1

import (
	"context"
	"time"

	"google.golang.org/grpc"

	"github.com/jupiterclapton/gamefeed/pkg/grpcjson"
)

const ServiceName = "gamefeed.feed.v1.FeedService"

type Author struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	DisplayName string `json:"displayName"`
	AvatarURL   string `json:"avatarUrl,omitempty"`
}

type Game struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	CoverURL string `json:"coverUrl,omitempty"`
}

type ReactionCounts struct {
	Likes    int `json:"likes"`
	Comments int `json:"comments"`
	Shares   int `json:"shares"`
}

type FeedItem struct {
	ID           string         `json:"id"`
	Kind         string         `json:"kind"` // post, review, rating
	Source       string         `json:"source"`
	CreatedAt    time.Time      `json:"createdAt"`
	Author       Author         `json:"author"`
	Game         *Game          `json:"game,omitempty"`
	Content      string         `json:"content"`
	Media        []string       `json:"media,omitempty"`
	Rating       *int           `json:"rating,omitempty"`
	Reactions    ReactionCounts `json:"reactionCounts"`
	ReactableKey string         `json:"reactableKey"`
	Score        float64        `json:"score,omitempty"`
}

// DedupKey identifie un item dans une session : (kind, id).
func (i FeedItem) DedupKey() string {
	return i.Kind + ":" + i.ID
}

type GetFeedRequest struct {
	ViewerID  string `json:"viewerId,omitempty"`
	Scope     string `json:"scope"` // following, forYou
	FilterTag string `json:"filterTag,omitempty"`
	Cursor    string `json:"cursor,omitempty"`
	Limit     int    `json:"limit,omitempty"`
}

type GetFeedResponse struct {
	Items           []FeedItem `json:"items"`
	NextCursor      string     `json:"nextCursor,omitempty"`
	HasMore         bool       `json:"hasMore"`
	DegradedSources []string   `json:"degradedSources,omitempty"`
}

type FeedServiceServer interface {
	GetFeed(ctx context.Context, req *GetFeedRequest) (*GetFeedResponse, error)
}

var FeedService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*FeedServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		grpcjson.Method(ServiceName, "GetFeed", FeedServiceServer.GetFeed),
	},
	Metadata: "feed/v1/feed.go",
}

func RegisterFeedServiceServer(s grpc.ServiceRegistrar, srv FeedServiceServer) {
	s.RegisterService(&FeedService_ServiceDesc, srv)
}

type FeedServiceClient interface {
	GetFeed(ctx context.Context, in *GetFeedRequest, opts ...grpc.CallOption) (*GetFeedResponse, error)
}

type feedServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewFeedServiceClient(cc grpc.ClientConnInterface) FeedServiceClient {
	return &feedServiceClient{cc: cc}
}

func (c *feedServiceClient) GetFeed(ctx context.Context, in *GetFeedRequest, opts ...grpc.CallOption) (*GetFeedResponse, error) {
	return grpcjson.Invoke[GetFeedRequest, GetFeedResponse](ctx, c.cc, ServiceName, "GetFeed", in, opts...)
}
