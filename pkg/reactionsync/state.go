// Package reactionsync tient l'état local (optimiste) des likes et des
// compteurs de commentaires d'un client, le propage aux autres onglets du
// même appareil et le réconcilie avec la vérité serveur.
//
// Toutes les mutations passent par Reduce, quelle que soit leur origine :
// action utilisateur, broadcast d'un autre onglet ou pulse de réconciliation.
package reactionsync

// State est ce que l'UI affiche pour une clé.
type State struct {
	Liked    bool `json:"liked"`
	Count    int  `json:"count"`
	Comments int  `json:"comments"`
}

// Entry ajoute à State les drapeaux de synchronisation.
type Entry struct {
	State
	// Busy : un toggle est en vol, un second toggle est ignoré.
	Busy bool
	// Snapshot : état avant le toggle optimiste, restauré sur rejet.
	Snapshot State
}

type Event interface{ event() }

// Toggled : l'utilisateur clique. Flip optimiste.
type Toggled struct{}

// Confirmed : réponse serveur au toggle.
type Confirmed struct {
	Liked bool
	Count int
}

// Rejected : le toggle a échoué, retour au snapshot.
type Rejected struct{}

// Reconciled : relecture de la vérité serveur hors toggle.
type Reconciled struct {
	Liked bool
	Count int
}

// Broadcast : un autre onglet a confirmé un toggle.
type Broadcast struct {
	Liked bool
	Delta int
}

// CommentDelta : ajout (+1) ou suppression (-1) d'un commentaire.
type CommentDelta struct {
	Delta int
}

// CommentsReconciled : compte serveur relu à la fermeture du fil.
type CommentsReconciled struct {
	Count int
}

func (Toggled) event()            {}
func (Confirmed) event()          {}
func (Rejected) event()           {}
func (Reconciled) event()         {}
func (Broadcast) event()          {}
func (CommentDelta) event()       {}
func (CommentsReconciled) event() {}

// Reduce applique un événement. Fonction pure.
func Reduce(e Entry, ev Event) Entry {
	switch ev := ev.(type) {
	case Toggled:
		if e.Busy {
			return e
		}
		e.Snapshot = e.State
		e.Busy = true
		e.Liked = !e.Liked
		if e.Liked {
			e.Count++
		} else {
			e.Count = nonNegative(e.Count - 1)
		}

	case Confirmed:
		e.Liked = ev.Liked
		e.Count = nonNegative(ev.Count)
		e.Busy = false
		e.Snapshot = State{}

	case Rejected:
		if !e.Busy {
			return e
		}
		e.Liked = e.Snapshot.Liked
		e.Count = e.Snapshot.Count
		e.Busy = false
		e.Snapshot = State{}

	case Reconciled:
		// Une écriture optimiste en vol attend sa propre confirmation
		if e.Busy {
			return e
		}
		if e.Liked != ev.Liked || e.Count != ev.Count {
			e.Liked = ev.Liked
			e.Count = nonNegative(ev.Count)
		}

	case Broadcast:
		e.Liked = ev.Liked
		e.Count = nonNegative(e.Count + ev.Delta)
		// Le snapshot suit aussi, sinon un rejet local effacerait le changement de l'autre onglet
		if e.Busy {
			e.Snapshot.Liked = ev.Liked
			e.Snapshot.Count = nonNegative(e.Snapshot.Count + ev.Delta)
		}

	case CommentDelta:
		e.Comments = nonNegative(e.Comments + ev.Delta)

	case CommentsReconciled:
		e.Comments = nonNegative(ev.Count)
	}
	return e
}

func nonNegative(n int) int {
	if n < 0 {
		return 0
	}
	return n
}
