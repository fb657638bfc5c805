package repository

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/jupiterclapton/gamefeed/services/graph-service/internal/core/domain"
)

type Neo4jRepo struct {
	driver neo4j.DriverWithContext
}

func NewNeo4jRepo(driver neo4j.DriverWithContext) *Neo4jRepo {
	return &Neo4jRepo{driver: driver}
}

// EnsureSchema crée les index pour que les lookups par ID soient O(1)
func (r *Neo4jRepo) EnsureSchema(ctx context.Context) error {
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		query := `CREATE CONSTRAINT user_id_unique IF NOT EXISTS FOR (u:User) REQUIRE u.id IS UNIQUE`
		_, err := tx.Run(ctx, query, nil)
		return nil, err
	})
	return err
}

// Le type de relation ne peut pas être paramétré en Cypher : une requête par type.
var mergeQueries = map[domain.RelationType]string{
	domain.RelationFollows: `
		MERGE (a:User {id: $actorId})
		MERGE (b:User {id: $targetId})
		MERGE (a)-[r:FOLLOWS]->(b)
		ON CREATE SET r.created_at = $createdAt`,
	// Bloquer casse les follows dans les deux sens
	domain.RelationBlocks: `
		MERGE (a:User {id: $actorId})
		MERGE (b:User {id: $targetId})
		MERGE (a)-[r:BLOCKS]->(b)
		ON CREATE SET r.created_at = $createdAt
		WITH a, b
		OPTIONAL MATCH (a)-[f:FOLLOWS]-(b)
		DELETE f`,
	domain.RelationMutes: `
		MERGE (a:User {id: $actorId})
		MERGE (b:User {id: $targetId})
		MERGE (a)-[r:MUTES]->(b)
		ON CREATE SET r.created_at = $createdAt`,
}

var deleteQueries = map[domain.RelationType]string{
	domain.RelationFollows: `MATCH (:User {id: $actorId})-[r:FOLLOWS]->(:User {id: $targetId}) DELETE r`,
	domain.RelationBlocks:  `MATCH (:User {id: $actorId})-[r:BLOCKS]->(:User {id: $targetId}) DELETE r`,
	domain.RelationMutes:   `MATCH (:User {id: $actorId})-[r:MUTES]->(:User {id: $targetId}) DELETE r`,
}

func (r *Neo4jRepo) CreateRelation(ctx context.Context, rel domain.Relation) error {
	query, ok := mergeQueries[rel.Type]
	if !ok {
		return domain.ErrUnknownRelation
	}
	return r.write(ctx, query, map[string]any{
		"actorId":   rel.ActorID,
		"targetId":  rel.TargetID,
		"createdAt": rel.CreatedAt,
	})
}

func (r *Neo4jRepo) DeleteRelation(ctx context.Context, actorID, targetID string, relType domain.RelationType) error {
	query, ok := deleteQueries[relType]
	if !ok {
		return domain.ErrUnknownRelation
	}
	return r.write(ctx, query, map[string]any{"actorId": actorID, "targetId": targetID})
}

func (r *Neo4jRepo) write(ctx context.Context, query string, params map[string]any) error {
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		_, err := tx.Run(ctx, query, params)
		return nil, err
	})
	return err
}

func (r *Neo4jRepo) GetRelationStatus(ctx context.Context, actorID, targetID string) (*domain.RelationStatus, error) {
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		// Une seule requête pour toutes les arêtes entre les deux noeuds
		query := `
			MATCH (a:User {id: $actorId}), (b:User {id: $targetId})
			RETURN EXISTS { (a)-[:FOLLOWS]->(b) } AS following,
			       EXISTS { (b)-[:FOLLOWS]->(a) } AS followedBy,
			       EXISTS { (a)-[:BLOCKS]->(b) } AS blocking,
			       EXISTS { (b)-[:BLOCKS]->(a) } AS blockedBy,
			       EXISTS { (a)-[:MUTES]->(b) } AS muting
		`
		res, err := tx.Run(ctx, query, map[string]any{"actorId": actorID, "targetId": targetID})
		if err != nil {
			return nil, err
		}

		if res.Next(ctx) {
			rec := res.Record()
			return &domain.RelationStatus{
				IsFollowing:  recordBool(rec, "following"),
				IsFollowedBy: recordBool(rec, "followedBy"),
				IsBlocking:   recordBool(rec, "blocking"),
				IsBlockedBy:  recordBool(rec, "blockedBy"),
				IsMuting:     recordBool(rec, "muting"),
			}, nil
		}
		// Si aucun noeud trouvé, aucune relation
		return &domain.RelationStatus{}, res.Err()
	})
	if err != nil {
		return nil, err
	}
	return result.(*domain.RelationStatus), nil
}

// ListFollowing lit le curseur Neo4j ligne par ligne plutôt que de tout collecter.
func (r *Neo4jRepo) ListFollowing(ctx context.Context, userID string) ([]string, error) {
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	query := `MATCH (u:User {id: $userId})-[:FOLLOWS]->(f:User) RETURN f.id AS followeeId`
	res, err := session.Run(ctx, query, map[string]any{"userId": userID})
	if err != nil {
		return nil, err
	}

	ids := []string{}
	for res.Next(ctx) {
		if id, ok := res.Record().Get("followeeId"); ok {
			if s, ok := id.(string); ok {
				ids = append(ids, s)
			}
		}
	}
	return ids, res.Err()
}

func (r *Neo4jRepo) GetBlocksAndMutes(ctx context.Context, userID string) (*domain.VisibilityLists, error) {
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		query := `
			MATCH (me:User {id: $userId})
			OPTIONAL MATCH (me)-[:BLOCKS]->(b:User)
			WITH me, collect(DISTINCT b.id) AS blockedByMe
			OPTIONAL MATCH (me)<-[:BLOCKS]-(bm:User)
			WITH me, blockedByMe, collect(DISTINCT bm.id) AS blockedMe
			OPTIONAL MATCH (me)-[:MUTES]->(m:User)
			RETURN blockedByMe, blockedMe, collect(DISTINCT m.id) AS mutedByMe
		`
		res, err := tx.Run(ctx, query, map[string]any{"userId": userID})
		if err != nil {
			return nil, err
		}
		lists := &domain.VisibilityLists{BlockedByMe: []string{}, BlockedMe: []string{}, MutedByMe: []string{}}
		if res.Next(ctx) {
			rec := res.Record()
			lists.BlockedByMe = recordStrings(rec, "blockedByMe")
			lists.BlockedMe = recordStrings(rec, "blockedMe")
			lists.MutedByMe = recordStrings(rec, "mutedByMe")
		}
		return lists, res.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("blocks and mutes for %s: %w", userID, err)
	}
	return result.(*domain.VisibilityLists), nil
}

func recordBool(rec *neo4j.Record, key string) bool {
	v, _ := rec.Get(key)
	b, _ := v.(bool)
	return b
}

func recordStrings(rec *neo4j.Record, key string) []string {
	v, _ := rec.Get(key)
	return toStrings(v)
}

// toStrings convertit une liste Cypher ([]any) en []string, nulls ignorés.
func toStrings(v any) []string {
	raw, _ := v.([]any)
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		if s, ok := item.(string); ok && s != "" {
			out = append(out, s)
		}
	}
	return out
}
