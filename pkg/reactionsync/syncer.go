package reactionsync

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

// ErrBusy : un toggle est déjà en vol pour cette clé.
var ErrBusy = errors.New("reaction toggle already in flight")

const (
	DefaultReconcileDelay = 120 * time.Millisecond
	reconcileTimeout      = 5 * time.Second
)

// API est la surface serveur (gateway HTTP en pratique).
type API interface {
	ToggleReaction(ctx context.Context, key, action string) (State, error)
	ReactionState(ctx context.Context, key string) (State, error)
	AddComment(ctx context.Context, key, body string) (count int, err error)
	DeleteComment(ctx context.Context, commentID string) (count int, err error)
	CommentCount(ctx context.Context, key string) (int, error)
}

type Options struct {
	// Origin identifie ce client sur le bus. Généré si vide.
	Origin         string
	ReconcileDelay time.Duration
}

// Syncer est la couche d'effets autour du Store : appels serveur, broadcast, réconciliation.
type Syncer struct {
	store  *Store
	api    API
	bus    LocalBus
	clock  clockwork.Clock
	origin string
	delay  time.Duration

	mu      sync.Mutex
	pulses  map[string]*pulse
	threads map[string]int
	closed  bool
}

func NewSyncer(store *Store, api API, bus LocalBus, clock clockwork.Clock, opts Options) *Syncer {
	if opts.Origin == "" {
		opts.Origin = uuid.NewString()
	}
	if opts.ReconcileDelay <= 0 {
		opts.ReconcileDelay = DefaultReconcileDelay
	}
	return &Syncer{
		store:   store,
		api:     api,
		bus:     bus,
		clock:   clock,
		origin:  opts.Origin,
		delay:   opts.ReconcileDelay,
		pulses:  make(map[string]*pulse),
		threads: make(map[string]int),
	}
}

func (s *Syncer) Store() *Store  { return s.store }
func (s *Syncer) Origin() string { return s.origin }

// Toggle flip le like de façon optimiste puis demande l'état visé au serveur.
// En cas d'échec l'état revient au snapshot et l'erreur est retournée, sans retry.
func (s *Syncer) Toggle(ctx context.Context, key string) (State, error) {
	prev, next := s.store.Apply(key, Toggled{})
	if prev.Busy {
		return prev.State, ErrBusy
	}

	// On envoie l'état visé plutôt que "toggle" : idempotent si la requête est rejouée
	action := "unlike"
	if next.Liked {
		action = "like"
	}
	server, err := s.api.ToggleReaction(ctx, key, action)
	if err != nil {
		_, rolled := s.store.Apply(key, Rejected{})
		slog.Debug("Reaction toggle rolled back", "key", key, "error", err)
		return rolled.State, err
	}

	_, confirmed := s.store.Apply(key, Confirmed{Liked: server.Liked, Count: server.Count})

	delta := 0
	if server.Liked != prev.Liked {
		delta = 1
		if !server.Liked {
			delta = -1
		}
	}
	s.publish(ctx, TopicReactions, Message{Key: key, Liked: server.Liked, Delta: delta})
	s.scheduleReconcile(key)
	return confirmed.State, nil
}

// Refresh relit l'état serveur d'une clé (like + commentaires).
func (s *Syncer) Refresh(ctx context.Context, key string) (State, error) {
	st, err := s.api.ReactionState(ctx, key)
	if err != nil {
		return s.store.Get(key).State, err
	}
	s.store.Apply(key, Reconciled{Liked: st.Liked, Count: st.Count})
	if !s.threadOpen(key) {
		s.store.Apply(key, CommentsReconciled{Count: st.Comments})
	}
	return s.store.Get(key).State, nil
}

// --- Commentaires ---

func (s *Syncer) OpenThread(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.threads[key]++
}

// CloseThread réconcilie le compteur quand la dernière vue du fil se ferme.
func (s *Syncer) CloseThread(ctx context.Context, key string) (State, error) {
	s.mu.Lock()
	if s.threads[key] > 0 {
		s.threads[key]--
	}
	last := s.threads[key] == 0
	if last {
		delete(s.threads, key)
	}
	s.mu.Unlock()

	if !last {
		return s.store.Get(key).State, nil
	}
	count, err := s.api.CommentCount(ctx, key)
	if err != nil {
		return s.store.Get(key).State, err
	}
	_, next := s.store.Apply(key, CommentsReconciled{Count: count})
	return next.State, nil
}

func (s *Syncer) AddComment(ctx context.Context, key, body string) (State, error) {
	if _, err := s.api.AddComment(ctx, key, body); err != nil {
		return s.store.Get(key).State, err
	}
	return s.commentChanged(ctx, key, 1), nil
}

func (s *Syncer) DeleteComment(ctx context.Context, key, commentID string) (State, error) {
	if _, err := s.api.DeleteComment(ctx, commentID); err != nil {
		return s.store.Get(key).State, err
	}
	return s.commentChanged(ctx, key, -1), nil
}

func (s *Syncer) commentChanged(ctx context.Context, key string, delta int) State {
	_, next := s.store.Apply(key, CommentDelta{Delta: delta})
	s.publish(ctx, TopicComments, Message{Key: key, Delta: delta})
	return next.State
}

func (s *Syncer) threadOpen(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.threads[key] > 0
}

// --- Bus ---

// Listen applique les messages des autres onglets jusqu'à l'annulation de ctx.
func (s *Syncer) Listen(ctx context.Context) error {
	if err := s.bus.Subscribe(ctx, TopicReactions, func(payload []byte) {
		if msg, ok := s.decode(payload); ok {
			s.store.Apply(msg.Key, Broadcast{Liked: msg.Liked, Delta: msg.Delta})
		}
	}); err != nil {
		return err
	}
	return s.bus.Subscribe(ctx, TopicComments, func(payload []byte) {
		if msg, ok := s.decode(payload); ok {
			s.store.Apply(msg.Key, CommentDelta{Delta: msg.Delta})
		}
	})
}

func (s *Syncer) decode(payload []byte) (Message, bool) {
	var msg Message
	if err := json.Unmarshal(payload, &msg); err != nil {
		slog.Warn("Dropping malformed sync message", "error", err)
		return Message{}, false
	}
	// Nos propres messages sont déjà appliqués
	if msg.Origin == s.origin || msg.Key == "" {
		return Message{}, false
	}
	return msg, true
}

func (s *Syncer) publish(ctx context.Context, topic string, msg Message) {
	msg.Origin = s.origin
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	if err := s.bus.Publish(ctx, topic, data); err != nil {
		slog.Warn("Failed to broadcast sync message", "topic", topic, "key", msg.Key, "error", err)
	}
}

// --- Réconciliation ---

// pulse est une réconciliation en attente ; done est fermé quand elle a tourné ou a été annulée.
type pulse struct {
	timer clockwork.Timer
	done  chan struct{}
}

func (s *Syncer) scheduleReconcile(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	p, ok := s.pulses[key]
	// Un timer arrêté à temps garde son done : les Settle en cours attendent la nouvelle pulse
	if !ok || !p.timer.Stop() {
		p = &pulse{done: make(chan struct{})}
		s.pulses[key] = p
	}
	p.timer = s.clock.AfterFunc(s.delay, func() { s.reconcile(key, p) })
}

// Settle attend la fin de la pulse en attente pour key, au rythme de l'horloge du Syncer.
// Retourne tout de suite si aucune pulse n'est programmée.
func (s *Syncer) Settle(ctx context.Context, key string) error {
	s.mu.Lock()
	p, ok := s.pulses[key]
	s.mu.Unlock()
	if !ok {
		return nil
	}
	select {
	case <-p.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// reconcile relit une fois l'état serveur pour corriger une course avec un autre acteur.
func (s *Syncer) reconcile(key string, p *pulse) {
	defer func() {
		s.mu.Lock()
		if s.pulses[key] == p {
			delete(s.pulses, key)
		}
		s.mu.Unlock()
		close(p.done)
	}()

	ctx, cancel := context.WithTimeout(context.Background(), reconcileTimeout)
	defer cancel()

	st, err := s.api.ReactionState(ctx, key)
	if err != nil {
		slog.Debug("Reconciliation pulse failed", "key", key, "error", err)
		return
	}
	prev, next := s.store.Apply(key, Reconciled{Liked: st.Liked, Count: st.Count})
	if prev != next {
		slog.Debug("Reaction reconciled", "key", key, "count", next.Count)
	}
}

// Close arrête les pulses en attente.
func (s *Syncer) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	for key, p := range s.pulses {
		if p.timer.Stop() {
			close(p.done)
		}
		delete(s.pulses, key)
	}
}
