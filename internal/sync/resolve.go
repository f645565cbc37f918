package sync

import (
	"errors"
	"fmt"

	"github.com/a7medmo7amady/trello/internal/models"
)

// ErrConflictNotFound is returned when resolving an unknown conflict.
var ErrConflictNotFound = errors.New("conflict not found")

// Resolve settles one open conflict, identified by conflict ID or entity ID.
//
// Keep-local leaves the local entity content untouched and queues a forced
// override at remoteVersionAtDetection+1, guaranteed to out-rank the remote
// on the next push; the entity re-enters the pending state. Use-remote
// replaces the local entity with the remote copy captured at detection time
// and queues nothing.
func (e *Engine) Resolve(id string, choice models.Resolution) error {
	if !models.IsValidResolution(choice) {
		return fmt.Errorf("invalid resolution %q", choice)
	}
	c, ok := e.store.TakeConflict(id)
	if !ok {
		return ErrConflictNotFound
	}

	switch choice {
	case models.ResolutionLocal:
		data := models.OverrideData{EntityType: c.Type}
		switch c.Type {
		case models.EntityList:
			l := *c.LocalList
			l.Version = c.RemoteVersion + 1
			data.List = &l
		case models.EntityCard:
			card := c.LocalCard.Clone()
			card.Version = c.RemoteVersion + 1
			data.Card = &card
		}
		e.store.Enqueue(e.overrideEntry(data))

	case models.ResolutionRemote:
		switch c.Type {
		case models.EntityList:
			e.store.ReplaceList(*c.RemoteList)
		case models.EntityCard:
			e.store.ReplaceCard(*c.RemoteCard)
		}
	}
	return nil
}
