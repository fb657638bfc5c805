package grpc

import (
	"context"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	postv1 "github.com/jupiterclapton/gamefeed/api/post/v1"
	"github.com/jupiterclapton/gamefeed/services/post-service/internal/core/domain"
	"github.com/jupiterclapton/gamefeed/services/post-service/internal/core/ports"
)

type stubPosts struct {
	created ports.CreatePostInput
	post    *domain.Post
	list    []*domain.Post
	next    string
	err     error
}

func (s *stubPosts) CreatePost(_ context.Context, in ports.CreatePostInput) (*domain.Post, error) {
	s.created = in
	return s.post, s.err
}

func (s *stubPosts) GetPost(context.Context, string) (*domain.Post, error) { return s.post, s.err }

func (s *stubPosts) DeletePost(context.Context, string, string) error { return s.err }

func (s *stubPosts) ListPostsByAuthor(context.Context, string, int, string) ([]*domain.Post, string, error) {
	return s.list, s.next, s.err
}

func newClient(t *testing.T, svc ports.PostService) postv1.PostServiceClient {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer()
	NewServer(svc).Register(srv)
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return postv1.NewPostServiceClient(conn)
}

func TestCreatePost(t *testing.T) {
	at := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	svc := &stubPosts{post: &domain.Post{
		ID:        "p1",
		AuthorID:  "u1",
		GameID:    "g1",
		Content:   "gg",
		Media:     []domain.Media{{ID: "m1", URL: "https://cdn/1.png", Type: domain.MediaTypeImage}},
		CreatedAt: at,
		UpdatedAt: at,
	}}
	client := newClient(t, svc)

	resp, err := client.CreatePost(context.Background(), &postv1.CreatePostRequest{
		UserID:  "u1",
		GameID:  "g1",
		Content: "gg",
		Media:   []postv1.Media{{URL: "https://cdn/1.png", Type: "image"}},
	})
	require.NoError(t, err)

	assert.Equal(t, "u1", svc.created.AuthorID)
	assert.Equal(t, domain.MediaTypeImage, svc.created.Media[0].Type)
	assert.Equal(t, "p1", resp.Post.ID)
	assert.Equal(t, "image", resp.Post.Media[0].Type)
	assert.True(t, at.Equal(resp.Post.CreatedAt))
}

func TestListPostsByAuthor(t *testing.T) {
	svc := &stubPosts{
		list: []*domain.Post{{ID: "p2", AuthorID: "u1"}, {ID: "p1", AuthorID: "u1"}},
		next: "tok",
	}
	resp, err := newClient(t, svc).ListPostsByAuthor(context.Background(), &postv1.ListPostsByAuthorRequest{AuthorID: "u1", Limit: 2})
	require.NoError(t, err)
	require.Len(t, resp.Posts, 2)
	assert.Equal(t, "p2", resp.Posts[0].ID)
	assert.Equal(t, "tok", resp.NextPageToken)
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		err  error
		code codes.Code
	}{
		{fmt.Errorf("%w: empty", domain.ErrValidation), codes.InvalidArgument},
		{domain.ErrInvalidPageToken, codes.InvalidArgument},
		{domain.ErrRateLimited, codes.ResourceExhausted},
		{domain.ErrNotFound, codes.NotFound},
		{domain.ErrUnauthorized, codes.Unauthenticated},
		{domain.ErrForbidden, codes.PermissionDenied},
		{fmt.Errorf("db down"), codes.Internal},
	}
	for _, tt := range tests {
		client := newClient(t, &stubPosts{err: tt.err})
		_, err := client.DeletePost(context.Background(), &postv1.DeletePostRequest{PostID: "p1", UserID: "u1"})
		assert.Equal(t, tt.code, status.Code(err), tt.err.Error())
	}
}
