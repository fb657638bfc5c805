package clients

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	graphv1 "github.com/jupiterclapton/gamefeed/api/graph/v1"
	"github.com/jupiterclapton/gamefeed/services/feed-service/internal/core/domain"
)

// GraphClient implémente ports.SocialGraph au-dessus du Graph Service.
type GraphClient struct {
	client graphv1.GraphServiceClient
	conn   *grpc.ClientConn
}

// NewGraphClient initialise la connexion gRPC
// Note: En prod, on injecterait des options pour le retry, le load balancing, etc.
func NewGraphClient(targetURL string) (*GraphClient, error) {
	conn, err := grpc.NewClient(targetURL,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithStatsHandler(otelgrpc.NewClientHandler()),
	)
	if err != nil {
		return nil, err
	}
	return &GraphClient{client: graphv1.NewGraphServiceClient(conn), conn: conn}, nil
}

// NewGraphClientFromConn réutilise une connexion existante (tests bufconn).
func NewGraphClientFromConn(cc grpc.ClientConnInterface) *GraphClient {
	return &GraphClient{client: graphv1.NewGraphServiceClient(cc)}
}

func (c *GraphClient) Close() error {
	if c.conn == nil {
		return nil
	}
	return c.conn.Close()
}

func (c *GraphClient) GetFollowing(ctx context.Context, viewerID string) ([]string, error) {
	resp, err := c.client.GetFollowing(ctx, &graphv1.UserRequest{UserID: viewerID})
	if err != nil {
		return nil, fmt.Errorf("graph GetFollowing: %w", err)
	}
	slog.Debug("Retrieved following list", "viewer_id", viewerID, "count", len(resp.UserIDs))
	return resp.UserIDs, nil
}

func (c *GraphClient) GetBlocksAndMutes(ctx context.Context, viewerID string) (domain.VisibilitySet, error) {
	resp, err := c.client.GetBlocksAndMutes(ctx, &graphv1.UserRequest{UserID: viewerID})
	if err != nil {
		return domain.VisibilitySet{}, fmt.Errorf("graph GetBlocksAndMutes: %w", err)
	}
	return domain.NewVisibilitySet(resp.BlockedByMe, resp.BlockedMe, resp.MutedByMe), nil
}
