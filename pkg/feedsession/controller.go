// Package feedsession pilote une session de lecture du feed côté client :
// scope courant, pagination infinie, dédoublonnage, sélection clavier et
// position de scroll par scope.
package feedsession

import (
	"context"
	"errors"
	"fmt"
	"sync"

	feedv1 "github.com/jupiterclapton/gamefeed/api/feed/v1"
)

type Scope string

const (
	ScopeFollowing Scope = "following"
	ScopeForYou    Scope = "forYou"
)

func ParseScope(s string) (Scope, error) {
	switch sc := Scope(s); sc {
	case ScopeFollowing, ScopeForYou:
		return sc, nil
	default:
		return "", fmt.Errorf("unknown scope %q", s)
	}
}

type LoadState int

const (
	Idle LoadState = iota
	Loading
	LoadingMore
)

func (s LoadState) String() string {
	switch s {
	case Loading:
		return "loading"
	case LoadingMore:
		return "loadingMore"
	default:
		return "idle"
	}
}

// ErrStale : la réponse appartient à une génération (scope) abandonnée, elle est jetée.
var ErrStale = errors.New("feed response discarded: session moved on")

type Request struct {
	Scope     Scope
	FilterTag string
	Cursor    string
	Limit     int
}

type Page struct {
	Items      []feedv1.FeedItem
	NextCursor string
	HasMore    bool
}

type Fetcher interface {
	FetchPage(ctx context.Context, req Request) (Page, error)
}

type Options struct {
	Scope     Scope
	FilterTag string
	Limit     int
}

// Snapshot est une copie de l'état, sûre à lire hors du contrôleur.
type Snapshot struct {
	Scope    Scope
	State    LoadState
	Items    []feedv1.FeedItem
	HasMore  bool
	Selected int // -1 : aucune sélection
	Err      error
}

type Controller struct {
	fetcher Fetcher
	filter  string
	limit   int

	mu         sync.Mutex
	scope      Scope
	generation uint64
	cancel     context.CancelFunc
	genCtx     context.Context
	state      LoadState
	items      []feedv1.FeedItem
	seen       map[string]struct{}
	cursor     string
	hasMore    bool
	loaded     bool
	selected   int
	lastErr    error

	scroll         map[Scope]int
	restorePending bool
}

func NewController(fetcher Fetcher, opts Options) *Controller {
	if opts.Scope == "" {
		opts.Scope = ScopeForYou
	}
	c := &Controller{
		fetcher:  fetcher,
		filter:   opts.FilterTag,
		limit:    opts.Limit,
		scope:    opts.Scope,
		scroll:   make(map[Scope]int),
		selected: -1,
	}
	c.resetLocked()
	return c
}

// resetLocked ouvre une nouvelle génération : tout fetch en vol devient obsolète.
func (c *Controller) resetLocked() {
	if c.cancel != nil {
		c.cancel()
	}
	c.generation++
	c.genCtx, c.cancel = context.WithCancel(context.Background())
	c.state = Idle
	c.items = nil
	c.seen = make(map[string]struct{})
	c.cursor = ""
	c.hasMore = false
	c.loaded = false
	c.selected = -1
	c.lastErr = nil
}

// Load charge la première page du scope courant. No-op si un fetch est en vol.
func (c *Controller) Load(ctx context.Context) error {
	_, err := c.fetch(ctx, Loading)
	return err
}

// LoadMore demande la page suivante si hasMore et rien n'est en vol.
// Retourne false quand la garde bloque la demande.
func (c *Controller) LoadMore(ctx context.Context) (bool, error) {
	return c.fetch(ctx, LoadingMore)
}

// Reload repart de zéro sur le scope courant.
func (c *Controller) Reload(ctx context.Context) error {
	c.mu.Lock()
	c.resetLocked()
	c.mu.Unlock()
	return c.Load(ctx)
}

// SetScope change de scope : curseur, dédoublonnage et sélection repartent de zéro,
// le fetch de l'ancien scope est annulé et son résultat sera ignoré.
func (c *Controller) SetScope(ctx context.Context, scope Scope) error {
	c.mu.Lock()
	if scope == c.scope {
		c.mu.Unlock()
		return nil
	}
	c.scope = scope
	c.resetLocked()
	_, c.restorePending = c.scroll[scope]
	c.mu.Unlock()
	return c.Load(ctx)
}

func (c *Controller) fetch(ctx context.Context, mode LoadState) (bool, error) {
	// 1. Garde et drapeaux posés avant l'appel réseau
	c.mu.Lock()
	if c.state != Idle {
		c.mu.Unlock()
		return false, nil
	}
	if mode == LoadingMore && (!c.loaded || !c.hasMore) {
		c.mu.Unlock()
		return false, nil
	}
	if mode == Loading && c.loaded {
		c.mu.Unlock()
		return false, nil
	}
	c.state = mode
	gen := c.generation
	genCtx := c.genCtx
	req := Request{Scope: c.scope, FilterTag: c.filter, Cursor: c.cursor, Limit: c.limit}
	c.mu.Unlock()

	// Annulé par l'appelant ou par un changement de scope
	fetchCtx, stop := context.WithCancel(ctx)
	defer stop()
	unregister := context.AfterFunc(genCtx, stop)
	defer unregister()

	page, err := c.fetcher.FetchPage(fetchCtx, req)

	// 2. Application, seulement si la session n'a pas changé entre-temps
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.generation {
		return false, ErrStale
	}
	c.state = Idle
	if err != nil {
		c.lastErr = err
		return false, err
	}
	c.lastErr = nil
	c.loaded = true
	c.merge(page)
	return true, nil
}

func (c *Controller) merge(page Page) {
	for _, item := range page.Items {
		k := item.DedupKey()
		if _, dup := c.seen[k]; dup {
			continue
		}
		c.seen[k] = struct{}{}
		c.items = append(c.items, item)
	}
	if page.NextCursor != "" {
		c.cursor = page.NextCursor
	}
	c.hasMore = page.HasMore
}

// --- Sélection clavier ---

// SelectNext avance la sélection. En bout de liste c'est un no-op, jamais un fetch.
func (c *Controller) SelectNext() (int, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.selected+1 >= len(c.items) {
		return c.selected, false
	}
	c.selected++
	return c.selected, true
}

func (c *Controller) SelectPrev() (int, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.selected <= 0 {
		return c.selected, false
	}
	c.selected--
	return c.selected, true
}

func (c *Controller) Selected() (feedv1.FeedItem, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.selected < 0 || c.selected >= len(c.items) {
		return feedv1.FeedItem{}, false
	}
	return c.items[c.selected], true
}

// --- Scroll ---

// SaveScroll mémorise la position du scope courant.
func (c *Controller) SaveScroll(offset int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.scroll[c.scope] = offset
}

// TakeScrollRestore rend la position à restaurer après un retour sur un scope, une seule fois.
func (c *Controller) TakeScrollRestore() (int, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.restorePending {
		return 0, false
	}
	c.restorePending = false
	return c.scroll[c.scope], true
}

// --- Lecture ---

func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	items := make([]feedv1.FeedItem, len(c.items))
	copy(items, c.items)
	return Snapshot{
		Scope:    c.scope,
		State:    c.state,
		Items:    items,
		HasMore:  c.hasMore,
		Selected: c.selected,
		Err:      c.lastErr,
	}
}

// Close annule tout fetch en vol. Les résultats arrivant ensuite sont jetés.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.generation++
	if c.cancel != nil {
		c.cancel()
	}
}
