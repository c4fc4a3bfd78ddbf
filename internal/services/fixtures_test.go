package services

import (
	"io"

	"watchparty/internal/cache"
	"watchparty/internal/models"
	"watchparty/internal/storage/memory"

	"github.com/sirupsen/logrus"
)

func ptr(f float64) *float64 { return &f }

func newTestStore() *memory.Store {
	store := memory.New()
	store.AddSeries(
		models.Series{ID: 1, Name: "Dark Signal", Genre: "sci-fi", Year: 2021, Episodes: 10, Platforms: []string{"Netflix"}, Rating: ptr(8.7)},
		models.Series{ID: 2, Name: "Harbor Lights", Genre: "drama", Year: 2019, Episodes: 8, Platforms: []string{"Netflix", "Hulu"}, Rating: ptr(7.2)},
		models.Series{ID: 3, Name: "Cold Orbit", Genre: "thriller", Year: 2023, Episodes: 12, Platforms: []string{"Prime"}},
	)
	store.AddUsers(
		models.User{ID: "user_1", Name: "Ana", Platforms: []string{"Netflix"}},
		models.User{ID: "user_2", Name: "Bruno", Platforms: []string{"Hulu"}},
		models.User{ID: "user_3", Name: "Carla"},
	)
	return store
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func newRatingFixture() (*RatingService, *memory.Store, cache.Cache) {
	store := newTestStore()
	c := cache.NewMemory()
	svc := NewRatingService(store.Ratings(), store.Series(), store.Users(), c, quietLogger())
	return svc, store, c
}

func newPartyFixture() (*PartyService, *memory.Store, cache.Cache) {
	store := newTestStore()
	c := cache.NewMemory()
	svc := NewPartyService(store.Parties(), store.Series(), store.Users(), c, quietLogger())
	return svc, store, c
}

func newCatalogFixture() (*CatalogService, *memory.Store, cache.Cache) {
	store := newTestStore()
	c := cache.NewMemory()
	svc := NewCatalogService(store.Series(), store.Users(), c, quietLogger())
	return svc, store, c
}
