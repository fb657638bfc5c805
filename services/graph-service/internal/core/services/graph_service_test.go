package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jupiterclapton/gamefeed/pkg/events"
	"github.com/jupiterclapton/gamefeed/services/graph-service/internal/core/domain"
)

type fakeRepo struct {
	created []domain.Relation
	deleted []domain.RelationType
	err     error
}

func (f *fakeRepo) EnsureSchema(context.Context) error { return nil }

func (f *fakeRepo) CreateRelation(_ context.Context, rel domain.Relation) error {
	if f.err != nil {
		return f.err
	}
	f.created = append(f.created, rel)
	return nil
}

func (f *fakeRepo) DeleteRelation(_ context.Context, _, _ string, t domain.RelationType) error {
	f.deleted = append(f.deleted, t)
	return f.err
}

func (f *fakeRepo) GetRelationStatus(context.Context, string, string) (*domain.RelationStatus, error) {
	return &domain.RelationStatus{IsBlocking: true}, nil
}

func (f *fakeRepo) ListFollowing(context.Context, string) ([]string, error) {
	return []string{"b", "c"}, nil
}

func (f *fakeRepo) GetBlocksAndMutes(context.Context, string) (*domain.VisibilityLists, error) {
	return &domain.VisibilityLists{BlockedByMe: []string{"x"}}, nil
}

type fakePublisher struct {
	subjects []string
	payloads []events.RelationChanged
	err      error
}

func (p *fakePublisher) Publish(_ context.Context, subject string, payload any) error {
	p.subjects = append(p.subjects, subject)
	p.payloads = append(p.payloads, payload.(events.RelationChanged))
	return p.err
}

func newService(repo *fakeRepo, pub *fakePublisher) *graphService {
	svc := NewGraphService(repo, pub).(*graphService)
	svc.now = func() time.Time { return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC) }
	return svc
}

func TestCreateRelation(t *testing.T) {
	repo, pub := &fakeRepo{}, &fakePublisher{}
	svc := newService(repo, pub)

	require.NoError(t, svc.CreateRelation(context.Background(), "a", "b", domain.RelationBlocks))

	require.Len(t, repo.created, 1)
	assert.Equal(t, domain.RelationBlocks, repo.created[0].Type)
	assert.Equal(t, []string{"graph.blocks.created"}, pub.subjects)
	assert.Equal(t, "a", pub.payloads[0].ActorID)
	assert.True(t, pub.payloads[0].Created)
}

func TestCreateRelation_Validation(t *testing.T) {
	repo, pub := &fakeRepo{}, &fakePublisher{}
	svc := newService(repo, pub)

	assert.ErrorIs(t, svc.CreateRelation(context.Background(), "a", "a", domain.RelationFollows), domain.ErrValidation)
	assert.ErrorIs(t, svc.CreateRelation(context.Background(), "", "b", domain.RelationMutes), domain.ErrValidation)
	assert.Empty(t, repo.created)
	assert.Empty(t, pub.subjects)
}

func TestCreateRelation_RepoFailureSkipsEvent(t *testing.T) {
	repo, pub := &fakeRepo{err: errors.New("neo4j down")}, &fakePublisher{}
	svc := newService(repo, pub)

	assert.Error(t, svc.CreateRelation(context.Background(), "a", "b", domain.RelationFollows))
	assert.Empty(t, pub.subjects)
}

func TestDeleteRelation_PublisherFailureIsNotFatal(t *testing.T) {
	repo, pub := &fakeRepo{}, &fakePublisher{err: errors.New("nats down")}
	svc := newService(repo, pub)

	require.NoError(t, svc.DeleteRelation(context.Background(), "a", "b", domain.RelationMutes))
	assert.Equal(t, []string{"graph.mutes.deleted"}, pub.subjects)
}

func TestReads(t *testing.T) {
	svc := newService(&fakeRepo{}, &fakePublisher{})

	following, err := svc.GetFollowing(context.Background(), "a")
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "c"}, following)

	lists, err := svc.GetBlocksAndMutes(context.Background(), "a")
	require.NoError(t, err)
	assert.Equal(t, []string{"x"}, lists.BlockedByMe)

	_, err = svc.GetFollowing(context.Background(), "")
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestParseRelationType(t *testing.T) {
	rel, err := domain.ParseRelationType("blocks")
	require.NoError(t, err)
	assert.Equal(t, domain.RelationBlocks, rel)

	rel, err = domain.ParseRelationType("")
	require.NoError(t, err)
	assert.Equal(t, domain.RelationFollows, rel)

	_, err = domain.ParseRelationType("LIKES")
	assert.ErrorIs(t, err, domain.ErrUnknownRelation)
}
