package sources

import (
	"fmt"
	"strings"

	"github.com/jupiterclapton/gamefeed/services/feed-service/internal/core/domain"
	"github.com/jupiterclapton/gamefeed/services/feed-service/internal/core/ports"
)

// selectBuilder assemble un SELECT keyset à arguments positionnels.
type selectBuilder struct {
	conds []string
	args  []any
}

func (b *selectBuilder) arg(v any) string {
	b.args = append(b.args, v)
	return fmt.Sprintf("$%d", len(b.args))
}

func (b *selectBuilder) where(format string, values ...any) {
	placeholders := make([]any, len(values))
	for i, v := range values {
		placeholders[i] = b.arg(v)
	}
	b.conds = append(b.conds, fmt.Sprintf(format, placeholders...))
}

// pageSQL applique le contrat commun des sources :
// allowlist (following), exclusion de visibilité, fenêtre forYou, filtre jeu,
// curseur (created_at, id) < ($t, $id), ordre (created_at desc, id desc).
func pageSQL(columns, table, authorCol string, q ports.SourceQuery, extra ...string) (string, []any) {
	b := &selectBuilder{}
	if q.Scope == domain.ScopeFollowing {
		b.where(authorCol+" = ANY(%s)", q.Authors)
	}
	if len(q.Exclude) > 0 {
		b.where(authorCol+" <> ALL(%s)", q.Exclude)
	}
	if !q.Since.IsZero() {
		b.where("created_at >= %s", q.Since)
	}
	if q.Filter.GameID != "" {
		b.where("game_id = %s", q.Filter.GameID)
	}
	if !q.Cursor.AtStart() {
		// ids comparés octet par octet, comme Cursor.Admits
		b.where(`(created_at, id COLLATE "C") < (%s, %s)`, q.Cursor.LastCreatedAt, q.Cursor.LastID)
	}
	b.conds = append(b.conds, extra...)

	var sb strings.Builder
	sb.WriteString("SELECT ")
	sb.WriteString(columns)
	sb.WriteString(" FROM ")
	sb.WriteString(table)
	if len(b.conds) > 0 {
		sb.WriteString(" WHERE ")
		sb.WriteString(strings.Join(b.conds, " AND "))
	}
	sb.WriteString(` ORDER BY created_at DESC, id COLLATE "C" DESC LIMIT `)
	sb.WriteString(b.arg(q.Limit))
	return sb.String(), b.args
}
