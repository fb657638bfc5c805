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

	feedv1 "github.com/jupiterclapton/gamefeed/api/feed/v1"
	"github.com/jupiterclapton/gamefeed/services/feed-service/internal/core/domain"
)

type stubFeed struct {
	got  domain.FeedRequest
	page *domain.FeedPage
	err  error
}

func (s *stubFeed) BuildPage(_ context.Context, req domain.FeedRequest) (*domain.FeedPage, error) {
	s.got = req
	return s.page, s.err
}

func newClient(t *testing.T, svc *stubFeed) feedv1.FeedServiceClient {
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
	return feedv1.NewFeedServiceClient(conn)
}

func TestGetFeed(t *testing.T) {
	score := 72
	at := time.Date(2026, 2, 2, 8, 0, 0, 0, time.UTC)
	svc := &stubFeed{page: &domain.FeedPage{
		Items: []domain.FeedItem{{
			ID:        "r1",
			Source:    "reviews",
			Kind:      domain.KindRating,
			CreatedAt: at,
			Author:    domain.Author{ID: "u1", Username: "mika"},
			Game:      &domain.Game{ID: "g1", Name: "Celeste"},
			Content:   "Rated 72/100",
			Rating:    &score,
		}},
		NextCursor: "abc",
		HasMore:    true,
	}}
	client := newClient(t, svc)

	resp, err := client.GetFeed(context.Background(), &feedv1.GetFeedRequest{
		ViewerID:  "viewer",
		Scope:     "forYou",
		FilterTag: "rating",
		Cursor:    "xyz",
		Limit:     5,
	})
	require.NoError(t, err)

	assert.Equal(t, domain.FeedRequest{
		ViewerID:  "viewer",
		Scope:     domain.ScopeForYou,
		FilterTag: "rating",
		Cursor:    "xyz",
		Limit:     5,
	}, svc.got)

	require.Len(t, resp.Items, 1)
	item := resp.Items[0]
	assert.Equal(t, "rating", item.Kind)
	assert.Equal(t, "review:u1:g1", item.ReactableKey)
	assert.Equal(t, "Celeste", item.Game.Name)
	assert.Equal(t, 72, *item.Rating)
	assert.True(t, at.Equal(item.CreatedAt))
	assert.Equal(t, "abc", resp.NextCursor)
	assert.True(t, resp.HasMore)
}

func TestGetFeedErrors(t *testing.T) {
	tests := []struct {
		err  error
		code codes.Code
	}{
		{fmt.Errorf("%w: bad scope", domain.ErrValidation), codes.InvalidArgument},
		{domain.ErrInvalidCursor, codes.InvalidArgument},
		{domain.ErrGraphUnavailable, codes.Unavailable},
		{fmt.Errorf("boom"), codes.Internal},
	}
	for _, tt := range tests {
		client := newClient(t, &stubFeed{err: tt.err})
		_, err := client.GetFeed(context.Background(), &feedv1.GetFeedRequest{Scope: "forYou"})
		assert.Equal(t, tt.code, status.Code(err), tt.err.Error())
	}
}
