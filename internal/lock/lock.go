// Package lock sérialise les read-modify-write par clé (panier d'un
// utilisateur, produit) pour qu'aucune mise à jour concurrente ne soit perdue.
package lock

import (
	"context"
	"errors"
)

// ErrNotAcquired est renvoyé quand le verrou n'a pas pu être pris avant
// l'expiration du contexte.
var ErrNotAcquired = errors.New("lock: not acquired")

// Locker prend un verrou exclusif sur key. La fonction retournée le relâche
// et peut être appelée une seule fois.
type Locker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}
