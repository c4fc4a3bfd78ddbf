// Package memory is an in-process store used by the test suite and by
// cache-less development runs. All mutations take the store lock, so the
// participant-set and id-assignment races the remote store is exposed to do
// not exist here.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"watchparty/internal/models"
	"watchparty/internal/storage"
)

type Store struct {
	mu      sync.RWMutex
	series  map[int64]models.Series
	users   map[string]models.User
	ratings []models.Rating
	parties map[string]models.WatchParty
}

func New() *Store {
	return &Store{
		series:  make(map[int64]models.Series),
		users:   make(map[string]models.User),
		parties: make(map[string]models.WatchParty),
	}
}

// Per-collection views implementing the storage contracts.

func (s *Store) Series() storage.SeriesRepository  { return seriesRepo{s} }
func (s *Store) Users() storage.UserRepository     { return userRepo{s} }
func (s *Store) Ratings() storage.RatingRepository { return ratingRepo{s} }
func (s *Store) Parties() storage.PartyRepository  { return partyRepo{s} }

// AddSeries seeds the catalogue.
func (s *Store) AddSeries(series ...models.Series) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sr := range series {
		s.series[sr.ID] = sr
	}
}

// AddUsers seeds the membership collection.
func (s *Store) AddUsers(users ...models.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range users {
		s.users[u.ID] = u
	}
}

// PutRating appends a raw rating row without upsert semantics, so tests can
// construct the duplicate-pair states repair-on-read has to collapse.
func (s *Store) PutRating(r models.Rating) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ratings = append(s.ratings, r)
}

// PutParty stores a party with a caller-chosen id.
func (s *Store) PutParty(p models.WatchParty) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.parties[p.ID] = copyParty(p)
}

type seriesRepo struct{ s *Store }

func (r seriesRepo) List(ctx context.Context, limit int) ([]models.Series, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	result := make([]models.Series, 0, len(r.s.series))
	for _, sr := range r.s.series {
		result = append(result, sr)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return clip(result, limit), nil
}

func (r seriesRepo) GetByID(ctx context.Context, id int64) (*models.Series, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	sr, ok := r.s.series[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return &sr, nil
}

func (r seriesRepo) OnPlatform(ctx context.Context, platform string, limit int) ([]models.Series, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var result []models.Series
	for _, sr := range r.s.series {
		for _, p := range sr.Platforms {
			if p == platform {
				result = append(result, sr)
				break
			}
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return clip(result, limit), nil
}

func (r seriesRepo) Platforms(ctx context.Context) ([]string, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	seen := make(map[string]struct{})
	var platforms []string
	for _, sr := range r.s.series {
		for _, p := range sr.Platforms {
			if _, ok := seen[p]; !ok {
				seen[p] = struct{}{}
				platforms = append(platforms, p)
			}
		}
	}
	sort.Strings(platforms)
	return platforms, nil
}

func (r seriesRepo) Exists(ctx context.Context, id int64) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	_, ok := r.s.series[id]
	return ok, nil
}

type userRepo struct{ s *Store }

func (r userRepo) List(ctx context.Context) ([]models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	result := make([]models.User, 0, len(r.s.users))
	for _, u := range r.s.users {
		result = append(result, u)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (r userRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	u, ok := r.s.users[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return &u, nil
}

func (r userRepo) Missing(ctx context.Context, ids []string) ([]string, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var missing []string
	for _, id := range ids {
		if _, ok := r.s.users[id]; !ok {
			missing = append(missing, id)
		}
	}
	return missing, nil
}

type ratingRepo struct{ s *Store }

func (r ratingRepo) Upsert(ctx context.Context, rating *models.Rating) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	rating.UpdatedAt = time.Now()
	for i := range r.s.ratings {
		if r.s.ratings[i].UserID == rating.UserID && r.s.ratings[i].SeriesID == rating.SeriesID {
			r.s.ratings[i] = *rating
			return nil
		}
	}
	r.s.ratings = append(r.s.ratings, *rating)
	return nil
}

func (r ratingRepo) Get(ctx context.Context, userID string, seriesID int64) (*models.Rating, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var latest *models.Rating
	for i := range r.s.ratings {
		row := r.s.ratings[i]
		if row.UserID != userID || row.SeriesID != seriesID {
			continue
		}
		if latest == nil || row.UpdatedAt.After(latest.UpdatedAt) {
			latest = &row
		}
	}
	if latest == nil {
		return nil, storage.ErrNotFound
	}
	return latest, nil
}

func (r ratingRepo) ForUser(ctx context.Context, userID string) ([]models.Rating, error) {
	return r.filter(func(row models.Rating) bool { return row.UserID == userID })
}

func (r ratingRepo) ForSeries(ctx context.Context, seriesID int64) ([]models.Rating, error) {
	return r.filter(func(row models.Rating) bool { return row.SeriesID == seriesID })
}

func (r ratingRepo) Recent(ctx context.Context, limit int) ([]models.Rating, error) {
	all, err := r.filter(func(models.Rating) bool { return true })
	if err != nil {
		return nil, err
	}
	return clip(all, limit), nil
}

func (r ratingRepo) DeleteBefore(ctx context.Context, userID string, seriesID int64, before time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	kept := r.s.ratings[:0]
	for _, row := range r.s.ratings {
		if row.UserID == userID && row.SeriesID == seriesID && row.UpdatedAt.Before(before) {
			continue
		}
		kept = append(kept, row)
	}
	r.s.ratings = kept
	return nil
}

func (r ratingRepo) filter(keep func(models.Rating) bool) ([]models.Rating, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var result []models.Rating
	for _, row := range r.s.ratings {
		if keep(row) {
			result = append(result, row)
		}
	}
	sort.SliceStable(result, func(i, j int) bool { return result[i].UpdatedAt.After(result[j].UpdatedAt) })
	return result, nil
}

type partyRepo struct{ s *Store }

func (r partyRepo) Insert(ctx context.Context, p *models.WatchParty) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	ids := make([]string, 0, len(r.s.parties))
	for id := range r.s.parties {
		ids = append(ids, id)
	}
	p.ID = models.NextPartyID(ids)
	r.s.parties[p.ID] = copyParty(*p)
	return nil
}

func (r partyRepo) GetByID(ctx context.Context, id string) (*models.WatchParty, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	p, ok := r.s.parties[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	p = copyParty(p)
	return &p, nil
}

func (r partyRepo) List(ctx context.Context, limit int) ([]models.WatchParty, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	result := make([]models.WatchParty, 0, len(r.s.parties))
	for _, p := range r.s.parties {
		result = append(result, copyParty(p))
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ScheduledAt.Before(result[j].ScheduledAt) })
	return clip(result, limit), nil
}

func (r partyRepo) AddParticipant(ctx context.Context, partyID, userID string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	p, ok := r.s.parties[partyID]
	if !ok {
		return false, storage.ErrNotFound
	}
	if p.HasParticipant(userID) {
		return false, nil
	}
	p.Participants = append(p.Participants, userID)
	r.s.parties[partyID] = p
	return true, nil
}

func (r partyRepo) RemoveParticipant(ctx context.Context, partyID, userID string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	p, ok := r.s.parties[partyID]
	if !ok {
		return false, storage.ErrNotFound
	}
	if !p.HasParticipant(userID) {
		return false, nil
	}
	kept := make([]string, 0, len(p.Participants)-1)
	for _, id := range p.Participants {
		if id != userID {
			kept = append(kept, id)
		}
	}
	p.Participants = kept
	r.s.parties[partyID] = p
	return true, nil
}

func copyParty(p models.WatchParty) models.WatchParty {
	p.Participants = append([]string(nil), p.Participants...)
	return p
}

func clip[T any](items []T, limit int) []T {
	if limit > 0 && len(items) > limit {
		return items[:limit]
	}
	return items
}
