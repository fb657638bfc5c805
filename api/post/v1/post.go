// Package postv1 est le contrat RPC du Post Service.
package postv1

import (
	"context"
	"time"

	"google.golang.org/grpc"

	"github.com/jupiterclapton/gamefeed/pkg/grpcjson"
)

const ServiceName = "gamefeed.post.v1.PostService"

type Media struct {
	ID   string `json:"id"`
	URL  string `json:"url"`
	Type string `json:"type"`
}

type Post struct {
	ID        string    `json:"id"`
	AuthorID  string    `json:"authorId"`
	GameID    string    `json:"gameId,omitempty"`
	Content   string    `json:"content"`
	Media     []Media   `json:"media,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type CreatePostRequest struct {
	UserID  string  `json:"userId"`
	GameID  string  `json:"gameId,omitempty"`
	Content string  `json:"content"`
	Media   []Media `json:"media,omitempty"`
}

type PostResponse struct {
	Post Post `json:"post"`
}

type GetPostRequest struct {
	PostID string `json:"postId"`
}

type DeletePostRequest struct {
	PostID string `json:"postId"`
	UserID string `json:"userId"`
}

type Empty struct{}

type ListPostsByAuthorRequest struct {
	AuthorID  string `json:"authorId"`
	Limit     int    `json:"limit,omitempty"`
	PageToken string `json:"pageToken,omitempty"`
}

type ListPostsByAuthorResponse struct {
	Posts         []Post `json:"posts"`
	NextPageToken string `json:"nextPageToken,omitempty"`
}

type PostServiceServer interface {
	CreatePost(ctx context.Context, req *CreatePostRequest) (*PostResponse, error)
	GetPost(ctx context.Context, req *GetPostRequest) (*PostResponse, error)
	DeletePost(ctx context.Context, req *DeletePostRequest) (*Empty, error)
	ListPostsByAuthor(ctx context.Context, req *ListPostsByAuthorRequest) (*ListPostsByAuthorResponse, error)
}

var PostService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*PostServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		grpcjson.Method(ServiceName, "CreatePost", PostServiceServer.CreatePost),
		grpcjson.Method(ServiceName, "GetPost", PostServiceServer.GetPost),
		grpcjson.Method(ServiceName, "DeletePost", PostServiceServer.DeletePost),
		grpcjson.Method(ServiceName, "ListPostsByAuthor", PostServiceServer.ListPostsByAuthor),
	},
	Metadata: "post/v1/post.go",
}

func RegisterPostServiceServer(s grpc.ServiceRegistrar, srv PostServiceServer) {
	s.RegisterService(&PostService_ServiceDesc, srv)
}

type PostServiceClient interface {
	CreatePost(ctx context.Context, in *CreatePostRequest, opts ...grpc.CallOption) (*PostResponse, error)
	GetPost(ctx context.Context, in *GetPostRequest, opts ...grpc.CallOption) (*PostResponse, error)
	DeletePost(ctx context.Context, in *DeletePostRequest, opts ...grpc.CallOption) (*Empty, error)
	ListPostsByAuthor(ctx context.Context, in *ListPostsByAuthorRequest, opts ...grpc.CallOption) (*ListPostsByAuthorResponse, error)
}

type postServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewPostServiceClient(cc grpc.ClientConnInterface) PostServiceClient {
	return &postServiceClient{cc: cc}
}

func (c *postServiceClient) CreatePost(ctx context.Context, in *CreatePostRequest, opts ...grpc.CallOption) (*PostResponse, error) {
	return grpcjson.Invoke[CreatePostRequest, PostResponse](ctx, c.cc, ServiceName, "CreatePost", in, opts...)
}

func (c *postServiceClient) GetPost(ctx context.Context, in *GetPostRequest, opts ...grpc.CallOption) (*PostResponse, error) {
	return grpcjson.Invoke[GetPostRequest, PostResponse](ctx, c.cc, ServiceName, "GetPost", in, opts...)
}

func (c *postServiceClient) DeletePost(ctx context.Context, in *DeletePostRequest, opts ...grpc.CallOption) (*Empty, error) {
	return grpcjson.Invoke[DeletePostRequest, Empty](ctx, c.cc, ServiceName, "DeletePost", in, opts...)
}

func (c *postServiceClient) ListPostsByAuthor(ctx context.Context, in *ListPostsByAuthorRequest, opts ...grpc.CallOption) (*ListPostsByAuthorResponse, error) {
	return grpcjson.Invoke[ListPostsByAuthorRequest, ListPostsByAuthorResponse](ctx, c.cc, ServiceName, "ListPostsByAuthor", in, opts...)
}
