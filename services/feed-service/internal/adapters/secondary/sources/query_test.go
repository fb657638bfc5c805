package sources

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/jupiterclapton/gamefeed/services/feed-service/internal/core/domain"
	"github.com/jupiterclapton/gamefeed/services/feed-service/internal/core/ports"
)

func TestPageSQL(t *testing.T) {
	at := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	since := at.Add(-72 * time.Hour)

	sql, args := pageSQL("id", "feed_posts_v", "author_id", ports.SourceQuery{
		Scope:   domain.ScopeFollowing,
		Authors: []string{"a", "b"},
		Exclude: []string{"x"},
		Filter:  domain.FilterTag{GameID: "g"},
		Since:   since,
		Cursor:  domain.Cursor{LastID: "p9", LastCreatedAt: at},
		Limit:   20,
	})

	assert.Equal(t,
		"SELECT id FROM feed_posts_v WHERE author_id = ANY($1) AND author_id <> ALL($2) AND created_at >= $3"+
			` AND game_id = $4 AND (created_at, id COLLATE "C") < ($5, $6) ORDER BY created_at DESC, id COLLATE "C" DESC LIMIT $7`,
		sql)
	assert.Equal(t, []any{[]string{"a", "b"}, []string{"x"}, since, "g", at, "p9", 20}, args)
}

func TestPageSQL_ForYouIgnoresAllowlist(t *testing.T) {
	sql, args := pageSQL("id", "reviews", "author_id", ports.SourceQuery{
		Scope:   domain.ScopeForYou,
		Authors: []string{"ignored"},
		Limit:   5,
	}, "rating > 0")

	assert.Equal(t, `SELECT id FROM reviews WHERE rating > 0 ORDER BY created_at DESC, id COLLATE "C" DESC LIMIT $1`, sql)
	assert.Equal(t, []any{5}, args)
}
