package testutil

import (
	"context"
	"testing"

	"github.com/dalemusser/roomdesk/internal/app/desk"
	"github.com/dalemusser/roomdesk/internal/app/store/memstore"
	"github.com/dalemusser/roomdesk/internal/domain/models"
)

// NewDesk returns a started controller over an in-memory store. A nil rooms
// leaves the store empty.
func NewDesk(t *testing.T, rooms []models.Room) (*desk.Controller, *memstore.Store) {
	t.Helper()
	return NewDeskWith(t, rooms, desk.Options{})
}

// NewDeskWith is NewDesk with controller options.
func NewDeskWith(t *testing.T, rooms []models.Room, opts desk.Options) (*desk.Controller, *memstore.Store) {
	t.Helper()
	store := memstore.New()
	if rooms != nil {
		store = memstore.NewWithRooms(rooms)
	}
	c := desk.New(store, store, opts)
	if _, err := c.Start(context.Background()); err != nil {
		t.Fatalf("desk Start failed: %v", err)
	}
	return c, store
}
