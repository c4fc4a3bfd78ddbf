// Package handlers is the JSON surface the UI calls into. It holds no rules
// of its own: every endpoint decodes input, calls one service operation and
// maps the result or error onto a response.
package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"watchparty/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

type API struct {
	catalog *services.CatalogService
	ratings *services.RatingService
	parties *services.PartyService
	logger  *logrus.Logger
}

func New(catalog *services.CatalogService, ratings *services.RatingService, parties *services.PartyService, logger *logrus.Logger) *API {
	return &API{
		catalog: catalog,
		ratings: ratings,
		parties: parties,
		logger:  logger,
	}
}

func (a *API) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(logRequests(a.logger))
	r.Use(rateLimit(rate.NewLimiter(rate.Limit(50), 100)))

	r.Route("/api", func(r chi.Router) {
		r.Get("/series", a.listSeries)
		r.Get("/series/{id}", a.getSeries)
		r.Get("/series/{id}/reviews", a.seriesReviews)
		r.Post("/series/{id}/watchlist", a.addToWatchlist)
		r.Post("/series/{id}/rating", a.rateSeries)
		r.Post("/series/{id}/watched", a.markWatched)
		r.Get("/trending", a.trending)
		r.Get("/platforms", a.platforms)
		r.Get("/platforms/{name}/series", a.platformSeries)
		r.Get("/users", a.listUsers)
		r.Get("/users/{id}/watchlist", a.userWatchlist)
		r.Get("/activity", a.activity)
		r.Get("/watchparties", a.listParties)
		r.Post("/watchparties", a.createParty)
		r.Get("/watchparties/{id}", a.lobby)
		r.Post("/watchparties/{id}/join", a.joinParty)
		r.Post("/watchparties/{id}/leave", a.leaveParty)
	})
	return r
}

func (a *API) listSeries(w http.ResponseWriter, r *http.Request) {
	series, err := a.catalog.ListSeries(r.Context(), queryInt(r, "limit"))
	if err != nil {
		writeError(w, a.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, series)
}

func (a *API) getSeries(w http.ResponseWriter, r *http.Request) {
	id, err := seriesID(r)
	if err != nil {
		writeError(w, a.logger, err)
		return
	}
	series, err := a.catalog.GetSeries(r.Context(), id)
	if err != nil {
		writeError(w, a.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, series)
}

func (a *API) seriesReviews(w http.ResponseWriter, r *http.Request) {
	id, err := seriesID(r)
	if err != nil {
		writeError(w, a.logger, err)
		return
	}
	reviews, err := a.ratings.ReviewsForSeries(r.Context(), id)
	if err != nil {
		writeError(w, a.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, reviews)
}

func (a *API) addToWatchlist(w http.ResponseWriter, r *http.Request) {
	id, err := seriesID(r)
	if err != nil {
		writeError(w, a.logger, err)
		return
	}
	var body struct {
		UserID string `json:"user_id"`
	}
	if err := decode(r, &body); err != nil {
		writeError(w, a.logger, err)
		return
	}
	if err := a.ratings.AddToWatchlist(r.Context(), body.UserID, id); err != nil {
		writeError(w, a.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, nil)
}

func (a *API) rateSeries(w http.ResponseWriter, r *http.Request) {
	id, err := seriesID(r)
	if err != nil {
		writeError(w, a.logger, err)
		return
	}
	var body struct {
		UserID string `json:"user_id"`
		Stars  int    `json:"stars"`
		Review string `json:"review"`
	}
	if err := decode(r, &body); err != nil {
		writeError(w, a.logger, err)
		return
	}
	if err := a.ratings.Rate(r.Context(), body.UserID, id, body.Stars, body.Review); err != nil {
		writeError(w, a.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, nil)
}

func (a *API) markWatched(w http.ResponseWriter, r *http.Request) {
	id, err := seriesID(r)
	if err != nil {
		writeError(w, a.logger, err)
		return
	}
	var body struct {
		UserID string `json:"user_id"`
	}
	if err := decode(r, &body); err != nil {
		writeError(w, a.logger, err)
		return
	}
	if err := a.ratings.MarkWatched(r.Context(), body.UserID, id); err != nil {
		writeError(w, a.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, nil)
}

func (a *API) trending(w http.ResponseWriter, r *http.Request) {
	series, err := a.catalog.Trending(r.Context(), queryInt(r, "limit"))
	if err != nil {
		writeError(w, a.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, series)
}

func (a *API) platforms(w http.ResponseWriter, r *http.Request) {
	platforms, err := a.catalog.Platforms(r.Context())
	if err != nil {
		writeError(w, a.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, platforms)
}

func (a *API) platformSeries(w http.ResponseWriter, r *http.Request) {
	series, err := a.catalog.SeriesOnPlatform(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		writeError(w, a.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, series)
}

func (a *API) listUsers(w http.ResponseWriter, r *http.Request) {
	users, err := a.catalog.ListUsers(r.Context())
	if err != nil {
		writeError(w, a.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

func (a *API) userWatchlist(w http.ResponseWriter, r *http.Request) {
	shelf, err := a.ratings.WatchlistFor(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, a.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, shelf)
}

func (a *API) activity(w http.ResponseWriter, r *http.Request) {
	items, err := a.ratings.RecentActivity(r.Context(), queryInt(r, "limit"))
	if err != nil {
		writeError(w, a.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (a *API) listParties(w http.ResponseWriter, r *http.Request) {
	parties, err := a.parties.ListParties(r.Context(), queryInt(r, "limit"))
	if err != nil {
		writeError(w, a.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, parties)
}

func (a *API) createParty(w http.ResponseWriter, r *http.Request) {
	var in services.CreatePartyInput
	if err := decode(r, &in); err != nil {
		writeError(w, a.logger, err)
		return
	}
	party, err := a.parties.Create(r.Context(), in)
	if err != nil {
		writeError(w, a.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, party)
}

func (a *API) lobby(w http.ResponseWriter, r *http.Request) {
	details, err := a.parties.Lobby(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, a.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, details)
}

func (a *API) joinParty(w http.ResponseWriter, r *http.Request) {
	a.membership(w, r, a.parties.Join)
}

func (a *API) leaveParty(w http.ResponseWriter, r *http.Request) {
	a.membership(w, r, a.parties.Leave)
}

func (a *API) membership(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, partyID, userID string) error) {
	var body struct {
		UserID string `json:"user_id"`
	}
	if err := decode(r, &body); err != nil {
		writeError(w, a.logger, err)
		return
	}
	if err := op(r.Context(), chi.URLParam(r, "id"), body.UserID); err != nil {
		writeError(w, a.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, nil)
}

func decode(r *http.Request, dest any) error {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(dest); err != nil {
		return &services.ValidationError{Field: "body", Reason: "malformed JSON"}
	}
	return nil
}

func seriesID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		return 0, &services.ValidationError{Field: "id", Reason: "must be a numeric series id"}
	}
	return id, nil
}

func queryInt(r *http.Request, name string) int {
	v, err := strconv.Atoi(r.URL.Query().Get(name))
	if err != nil {
		return 0
	}
	return v
}
