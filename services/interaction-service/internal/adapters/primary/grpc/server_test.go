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

	interactionv1 "github.com/jupiterclapton/gamefeed/api/interaction/v1"
	"github.com/jupiterclapton/gamefeed/pkg/reactable"
	"github.com/jupiterclapton/gamefeed/services/interaction-service/internal/core/domain"
)

type stubInteractions struct {
	gotViewer, gotKey, gotAction string
	state                        domain.ReactionState
	err                          error
}

func (s *stubInteractions) ToggleReaction(_ context.Context, viewerID, key, action string) (domain.ReactionState, error) {
	s.gotViewer, s.gotKey, s.gotAction = viewerID, key, action
	return s.state, s.err
}

func (s *stubInteractions) GetReactionState(_ context.Context, viewerID, key string) (domain.ReactionState, error) {
	s.gotViewer, s.gotKey = viewerID, key
	return s.state, s.err
}

func (s *stubInteractions) AddComment(_ context.Context, viewerID, key, body string) (*domain.Comment, int, error) {
	if s.err != nil {
		return nil, 0, s.err
	}
	k, _ := reactable.Parse(key)
	return &domain.Comment{ID: "c1", Key: k, AuthorID: viewerID, Body: body, CreatedAt: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)}, 3, nil
}

func (s *stubInteractions) DeleteComment(context.Context, string, string) (reactable.Key, int, error) {
	return reactable.PostKey("p1"), 2, s.err
}

func (s *stubInteractions) GetCommentCount(context.Context, string) (int, error) {
	return 7, s.err
}

func newClient(t *testing.T, svc *stubInteractions) interactionv1.InteractionServiceClient {
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
	return interactionv1.NewInteractionServiceClient(conn)
}

func TestToggleReaction(t *testing.T) {
	svc := &stubInteractions{state: domain.ReactionState{Liked: true, Count: 4, Comments: 1}}
	resp, err := newClient(t, svc).ToggleReaction(context.Background(), &interactionv1.ToggleReactionRequest{
		ViewerID:     "alice",
		ReactableKey: "review:u1:g1",
		Action:       interactionv1.ActionToggle,
	})
	require.NoError(t, err)
	assert.Equal(t, &interactionv1.ReactionState{Liked: true, Count: 4, Comments: 1}, resp)
	assert.Equal(t, "alice", svc.gotViewer)
	assert.Equal(t, "review:u1:g1", svc.gotKey)
	assert.Equal(t, "toggle", svc.gotAction)
}

func TestComments(t *testing.T) {
	client := newClient(t, &stubInteractions{})
	ctx := context.Background()

	added, err := client.AddComment(ctx, &interactionv1.AddCommentRequest{ViewerID: "alice", ReactableKey: "post:p1", Body: "gg"})
	require.NoError(t, err)
	assert.Equal(t, "post:p1", added.Comment.ReactableKey)
	assert.Equal(t, 3, added.Count)

	deleted, err := client.DeleteComment(ctx, &interactionv1.DeleteCommentRequest{ViewerID: "alice", CommentID: "c1"})
	require.NoError(t, err)
	assert.Equal(t, &interactionv1.CommentCountResponse{ReactableKey: "post:p1", Count: 2}, deleted)

	count, err := client.GetCommentCount(ctx, &interactionv1.CommentCountRequest{ReactableKey: "post:p1"})
	require.NoError(t, err)
	assert.Equal(t, 7, count.Count)
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		err  error
		code codes.Code
	}{
		{fmt.Errorf("%w: bad key", domain.ErrValidation), codes.InvalidArgument},
		{domain.ErrUnauthorized, codes.Unauthenticated},
		{domain.ErrForbidden, codes.PermissionDenied},
		{fmt.Errorf("%w: reaction.toggle", domain.ErrRateLimited), codes.ResourceExhausted},
		{domain.ErrNotFound, codes.NotFound},
		{fmt.Errorf("db down"), codes.Internal},
	}
	for _, tt := range tests {
		_, err := newClient(t, &stubInteractions{err: tt.err}).ToggleReaction(context.Background(), &interactionv1.ToggleReactionRequest{})
		assert.Equal(t, tt.code, status.Code(err), tt.err.Error())
	}
}
