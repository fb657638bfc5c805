package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/jupiterclapton/gamefeed/services/feed-service/internal/core/domain"
	"github.com/jupiterclapton/gamefeed/services/feed-service/internal/core/ports"
)

// Settings regroupe les réglages du moteur de fusion.
type Settings struct {
	DefaultLimit   int
	MaxLimit       int
	ForYouWindow   time.Duration // fenêtre de récence forYou, 0 = pas de fenêtre
	FloorCap       int           // plancher = min(FloorCap, limit)
	MaxWidenRounds int
	Weights        Weights
}

func DefaultSettings() Settings {
	return Settings{
		DefaultLimit:   20,
		MaxLimit:       100,
		ForYouWindow:   72 * time.Hour,
		FloorCap:       10,
		MaxWidenRounds: 3,
		Weights:        DefaultWeights(),
	}
}

type FeedService struct {
	sources    []ports.ContentSource
	graph      ports.SocialGraph
	visibility *VisibilityFilter
	signals    ports.SignalsRepository
	clock      clockwork.Clock
	scorer     Scorer
	settings   Settings
}

func NewFeedService(
	sources []ports.ContentSource,
	graph ports.SocialGraph,
	visibility *VisibilityFilter,
	signals ports.SignalsRepository,
	clock clockwork.Clock,
	settings Settings,
) *FeedService {
	if settings.DefaultLimit <= 0 {
		settings.DefaultLimit = 20
	}
	if settings.MaxLimit < settings.DefaultLimit {
		settings.MaxLimit = settings.DefaultLimit
	}
	if settings.FloorCap <= 0 {
		settings.FloorCap = 10
	}
	return &FeedService{
		sources:    sources,
		graph:      graph,
		visibility: visibility,
		signals:    signals,
		clock:      clock,
		scorer:     NewScorer(settings.Weights),
		settings:   settings,
	}
}

// sourceState suit la progression d'une source pendant la construction d'une page.
type sourceState struct {
	src       ports.ContentSource
	start     domain.Cursor // curseur reçu dans le token
	fetched   domain.Cursor // plus ancienne ligne brute lue
	seenAt    map[string]domain.Cursor // position des ids de start.Seen relus
	exhausted bool          // plus rien sans fenêtre de temps
	drained   bool          // plus rien dans la fenêtre courante
	failed    bool
}

// stillSeen liste les ids déjà émis que la position pos relira :
// les émis de cette page sous pos, et les anciens ids pas encore dépassés.
func (st *sourceState) stillSeen(pos domain.Cursor, emitted []domain.FeedItem) []string {
	var seen []string
	for _, id := range st.start.Seen {
		at, fetched := st.seenAt[id]
		if !fetched || pos.Admits(at.LastCreatedAt, at.LastID) {
			seen = append(seen, id)
		}
	}
	for _, item := range emitted {
		if item.Source == st.src.Name() && pos.Admits(item.CreatedAt, item.ID) {
			seen = append(seen, item.ID)
		}
	}
	sort.Strings(seen)
	return seen
}

func (st *sourceState) position() domain.Cursor {
	if st.fetched.AtStart() {
		return st.start.Position()
	}
	return st.fetched
}

// pageQuery est la requête normalisée, commune à toutes les sources.
type pageQuery struct {
	viewerID string
	scope    domain.Scope
	filter   domain.FilterTag
	hidden   domain.VisibilitySet
	authors  map[string]struct{} // allowlist following
	signals  domain.ViewerSignals
	limit    int
}

func (s *FeedService) BuildPage(ctx context.Context, req domain.FeedRequest) (*domain.FeedPage, error) {
	ctx, span := otel.Tracer("feed-service").Start(ctx, "build_page")
	defer span.End()
	span.SetAttributes(
		attribute.String("feed.scope", string(req.Scope)),
		attribute.Bool("feed.anonymous", req.ViewerID == ""),
	)

	// 1. Validation des entrées
	if !req.Scope.Valid() {
		return nil, fmt.Errorf("%w: unknown scope %q", domain.ErrValidation, req.Scope)
	}
	filter, err := domain.ParseFilterTag(req.FilterTag)
	if err != nil {
		return nil, err
	}
	token, err := domain.DecodePageToken(req.Cursor)
	if err != nil {
		return nil, err
	}
	q := pageQuery{
		viewerID: req.ViewerID,
		scope:    req.Scope,
		filter:   filter,
		limit:    s.clampLimit(req.Limit),
	}

	// 2. Visibilité (une panne du graphe n'est pas dégradable : on ne sait plus qui masquer)
	q.hidden, err = s.visibility.ComputeHidden(ctx, req.ViewerID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "visibility")
		return nil, err
	}

	// 3. Contexte relationnel propre au scope
	switch req.Scope {
	case domain.ScopeFollowing:
		if req.ViewerID == "" {
			return &domain.FeedPage{Items: []domain.FeedItem{}}, nil
		}
		following, err := s.graph.GetFollowing(ctx, req.ViewerID)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrGraphUnavailable, err)
		}
		q.authors = make(map[string]struct{}, len(following))
		for _, id := range following {
			if id != "" && !q.hidden.IsHidden(id) {
				q.authors[id] = struct{}{}
			}
		}
		if len(q.authors) == 0 {
			return &domain.FeedPage{Items: []domain.FeedItem{}}, nil
		}
	case domain.ScopeForYou:
		q.signals = s.loadSignals(ctx, req.ViewerID)
	}

	// 4. Collecte (fan-out + plancher de repli)
	states := make([]*sourceState, len(s.sources))
	for i, src := range s.sources {
		states[i] = &sourceState{src: src, start: token[src.Name()]}
	}
	candidates := s.collect(ctx, q, states)

	// 5. Classement
	now := s.clock.Now()
	if q.scope == domain.ScopeForYou {
		for i := range candidates {
			candidates[i].Score = s.scorer.Score(candidates[i], q.signals, now)
		}
		sort.SliceStable(candidates, func(i, j int) bool {
			if candidates[i].Score != candidates[j].Score {
				return candidates[i].Score > candidates[j].Score
			}
			return candidates[i].NewerThan(candidates[j])
		})
	} else {
		sort.Slice(candidates, func(i, j int) bool {
			return candidates[i].NewerThan(candidates[j])
		})
	}

	// 6. Troncature + curseurs par source
	emitted := candidates
	var truncated []domain.FeedItem
	if len(candidates) > q.limit {
		emitted = candidates[:q.limit]
		truncated = candidates[q.limit:]
	}
	page := s.paginate(states, emitted, truncated)

	span.SetAttributes(
		attribute.Int("feed.items", len(page.Items)),
		attribute.Bool("feed.has_more", page.HasMore),
	)
	if len(page.DegradedSources) > 0 {
		span.SetAttributes(attribute.StringSlice("feed.degraded_sources", page.DegradedSources))
	}
	return page, nil
}

func (s *FeedService) clampLimit(limit int) int {
	if limit <= 0 {
		return s.settings.DefaultLimit
	}
	if limit > s.settings.MaxLimit {
		return s.settings.MaxLimit
	}
	return limit
}

// loadSignals est best-effort : un signal manquant retire un bonus, pas la page.
func (s *FeedService) loadSignals(ctx context.Context, viewerID string) domain.ViewerSignals {
	signals := domain.ViewerSignals{
		Followed:      map[string]struct{}{},
		Library:       map[string]domain.LibraryStatus{},
		ReviewedGames: map[string]struct{}{},
	}
	if viewerID == "" {
		return signals
	}

	if following, err := s.graph.GetFollowing(ctx, viewerID); err != nil {
		slog.Warn("Following list unavailable, scoring without follow bonus", "viewer_id", viewerID, "error", err)
	} else {
		for _, id := range following {
			signals.Followed[id] = struct{}{}
		}
	}
	if s.signals == nil {
		return signals
	}
	if library, err := s.signals.GetLibrary(ctx, viewerID); err != nil {
		slog.Warn("Library signals unavailable", "viewer_id", viewerID, "error", err)
	} else if library != nil {
		signals.Library = library
	}
	if reviewed, err := s.signals.GetReviewedGames(ctx, viewerID); err != nil {
		slog.Warn("Review history unavailable", "viewer_id", viewerID, "error", err)
	} else if reviewed != nil {
		signals.ReviewedGames = reviewed
	}
	return signals
}

// collect interroge les sources en parallèle puis élargit la fenêtre tant que
// le plancher min(FloorCap, limit) n'est pas atteint.
func (s *FeedService) collect(ctx context.Context, q pageQuery, states []*sourceState) []domain.FeedItem {
	fetchLimit := q.limit
	var since time.Time
	if q.scope == domain.ScopeForYou {
		fetchLimit = 2 * q.limit
		if s.settings.ForYouWindow > 0 {
			since = s.clock.Now().Add(-s.settings.ForYouWindow)
		}
	}
	floor := min(s.settings.FloorCap, q.limit)

	seen := make(map[domain.ItemKey]struct{})
	candidates := make([]domain.FeedItem, 0, fetchLimit)

	for round := 0; round <= s.settings.MaxWidenRounds; round++ {
		if round > 0 {
			if len(candidates) >= floor {
				break
			}
			// Élargissement : on abandonne la fenêtre de récence et on repart
			// de la plus ancienne ligne lue par chaque source.
			if !since.IsZero() {
				since = time.Time{}
				for _, st := range states {
					st.drained = st.exhausted
				}
			}
			slog.Debug("Widening feed window", "round", round, "candidates", len(candidates), "floor", floor)
		}

		active := make([]*sourceState, 0, len(states))
		for _, st := range states {
			if !st.failed && !st.drained {
				active = append(active, st)
			}
		}
		if len(active) == 0 {
			break
		}

		pages := s.fanOut(ctx, q, active, since, fetchLimit)
		for i, st := range active {
			res := pages[i]
			if res.err != nil {
				st.failed = true
				slog.Warn("Content source degraded", "source", st.src.Name(), "error", res.err)
				continue
			}
			for _, item := range res.page.Items {
				pos := item.Cursor()
				if st.fetched.AtStart() || st.fetched.Admits(pos.LastCreatedAt, pos.LastID) {
					st.fetched = pos
				}
				if st.start.HasSeen(item.ID) {
					if st.seenAt == nil {
						st.seenAt = make(map[string]domain.Cursor)
					}
					st.seenAt[item.ID] = pos
					continue
				}
				if !s.accept(q, st, item) {
					continue
				}
				if _, dup := seen[item.Key()]; dup {
					continue
				}
				seen[item.Key()] = struct{}{}
				item.Source = st.src.Name()
				candidates = append(candidates, item)
			}
			if res.page.Exhausted || len(res.page.Items) == 0 {
				st.drained = true
				if since.IsZero() {
					st.exhausted = true
				}
			}
		}
	}
	return candidates
}

// accept rejoue en mémoire les filtres poussés aux sources.
func (s *FeedService) accept(q pageQuery, st *sourceState, item domain.FeedItem) bool {
	if IsHidden(q.hidden, item.Author.ID) {
		return false
	}
	if !q.filter.Allows(item) {
		return false
	}
	if q.authors != nil {
		if _, ok := q.authors[item.Author.ID]; !ok {
			return false
		}
	}
	return st.start.Admits(item.CreatedAt, item.ID)
}

type fetchResult struct {
	page ports.SourcePage
	err  error
}

// fanOut attend toutes les sources : une source lente retarde la page entière
// mais l'ordre reste correct.
func (s *FeedService) fanOut(ctx context.Context, q pageQuery, active []*sourceState, since time.Time, limit int) []fetchResult {
	excluded := q.hidden.Excluded()
	var authors []string
	if q.authors != nil {
		authors = make([]string, 0, len(q.authors))
		for id := range q.authors {
			authors = append(authors, id)
		}
		sort.Strings(authors)
	}

	results := make([]fetchResult, len(active))
	var wg sync.WaitGroup
	for i, st := range active {
		wg.Add(1)
		go func(i int, st *sourceState) {
			defer wg.Done()
			sq := ports.SourceQuery{
				Scope:   q.scope,
				Authors: authors,
				Exclude: excluded,
				Filter:  q.filter,
				Since:   since,
				Cursor:  st.position(),
				Limit:   limit,
			}
			results[i] = s.fetch(ctx, st.src, sq)
		}(i, st)
	}
	wg.Wait()
	return results
}

func (s *FeedService) fetch(ctx context.Context, src ports.ContentSource, sq ports.SourceQuery) fetchResult {
	ctx, span := otel.Tracer("feed-service").Start(ctx, "fetch_source")
	defer span.End()
	span.SetAttributes(attribute.String("feed.source", src.Name()), attribute.Int("feed.limit", sq.Limit))

	page, err := src.FetchPage(ctx, sq)
	if err != nil {
		var srcErr *domain.SourceError
		if !errors.As(err, &srcErr) {
			err = &domain.SourceError{Source: src.Name(), Err: err}
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "source unavailable")
		return fetchResult{err: err}
	}
	span.SetAttributes(attribute.Int("feed.rows", len(page.Items)))
	return fetchResult{page: page}
}

// paginate calcule le token suivant (un curseur par source) et hasMore.
func (s *FeedService) paginate(states []*sourceState, emitted, truncated []domain.FeedItem) *domain.FeedPage {
	// Plus récent candidat tronqué par source : le curseur doit rester au-dessus
	newestTruncated := make(map[string]domain.FeedItem)
	for _, item := range truncated {
		if cur, ok := newestTruncated[item.Source]; !ok || item.NewerThan(cur) {
			newestTruncated[item.Source] = item
		}
	}
	// Plus ancien item émis encore plus récent que tout candidat tronqué
	resume := make(map[string]domain.Cursor)
	for _, item := range emitted {
		if n, ok := newestTruncated[item.Source]; ok && !item.NewerThan(n) {
			continue
		}
		cur, ok := resume[item.Source]
		if !ok || cur.Admits(item.CreatedAt, item.ID) {
			resume[item.Source] = item.Cursor()
		}
	}

	next := domain.PageToken{}
	page := &domain.FeedPage{Items: emitted}
	if page.Items == nil {
		page.Items = []domain.FeedItem{}
	}

	for _, st := range states {
		name := st.src.Name()
		if st.failed {
			page.DegradedSources = append(page.DegradedSources, name)
		}
		var pos domain.Cursor
		if _, ok := newestTruncated[name]; ok {
			// Des candidats restent : on repart juste au-dessus du plus récent
			if cur, ok := resume[name]; ok {
				pos = cur
			} else {
				pos = st.start.Position()
			}
		} else {
			// Tout ce qui a été lu est émis ou filtré : on saute au-delà
			pos = st.position()
		}
		pos.Seen = st.stillSeen(pos, emitted)
		next[name] = pos
		if !st.failed && !st.exhausted {
			page.HasMore = true
		}
	}

	for _, item := range truncated {
		if next[item.Source].Admits(item.CreatedAt, item.ID) {
			page.HasMore = true
			break
		}
	}

	sort.Strings(page.DegradedSources)
	page.NextCursor = next.Encode()
	return page
}
