package views

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"

	"github.com/aksaraymalaklisi/greentrail/internal/client"
)

var ErrNotFound = errors.New("track not found")

type Track struct {
	ID          string    `json:"id"`
	Label       string    `json:"label"`
	Description string    `json:"description"`
	Difficulty  string    `json:"difficulty"`
	Distance    float64   `json:"distance"`
	Duration    float64   `json:"duration"`
	Elevation   float64   `json:"elevation"`
	Pos         []float64 `json:"pos"`
	GPX         string    `json:"gpx"`
	Image       string    `json:"image"`
	IsFavorite  bool      `json:"is_favorite"`
}

// decodeTrackList accepts either a bare array or an envelope with a
// results field. The ambiguity stops here; callers only ever see a
// slice.
func decodeTrackList(data []byte) ([]Track, error) {
	var bare []Track
	if err := json.Unmarshal(data, &bare); err == nil {
		return bare, nil
	}
	var envelope struct {
		Results []Track `json:"results"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, err
	}
	return envelope.Results, nil
}

// TrackListVM presents the trail catalog with client-side filtering
// and optimistic favorite toggling.
type TrackListVM struct {
	api *client.Client

	mu     sync.RWMutex
	tracks []Track
}

func NewTrackListVM(api *client.Client) *TrackListVM {
	return &TrackListVM{api: api}
}

func (vm *TrackListVM) Load(ctx context.Context) error {
	data, err := vm.api.Get(ctx, "tracks/", true)
	if err != nil {
		return err
	}
	tracks, err := decodeTrackList(data)
	if err != nil {
		return err
	}
	vm.mu.Lock()
	vm.tracks = tracks
	vm.mu.Unlock()
	return nil
}

func (vm *TrackListVM) Tracks() []Track {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	out := make([]Track, len(vm.tracks))
	copy(out, vm.tracks)
	return out
}

// Filter is a case-insensitive substring match over label and
// description. It never touches the server.
func (vm *TrackListVM) Filter(query string) []Track {
	query = strings.ToLower(strings.TrimSpace(query))
	all := vm.Tracks()
	if query == "" {
		return all
	}
	var out []Track
	for _, track := range all {
		if strings.Contains(strings.ToLower(track.Label), query) ||
			strings.Contains(strings.ToLower(track.Description), query) {
			out = append(out, track)
		}
	}
	return out
}

// ToggleFavorite flips the flag locally first, then issues the
// mutation. A failed request restores the pre-toggle value.
func (vm *TrackListVM) ToggleFavorite(ctx context.Context, trackID string) error {
	was, ok := vm.setFavorite(trackID, func(cur bool) bool { return !cur })
	if !ok {
		return ErrNotFound
	}
	err := toggleFavoriteRequest(ctx, vm.api, trackID, !was)
	if err != nil {
		vm.setFavorite(trackID, func(bool) bool { return was })
	}
	return err
}

func (vm *TrackListVM) setFavorite(trackID string, next func(bool) bool) (was bool, ok bool) {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	for i := range vm.tracks {
		if vm.tracks[i].ID == trackID {
			was = vm.tracks[i].IsFavorite
			vm.tracks[i].IsFavorite = next(was)
			return was, true
		}
	}
	return false, false
}

func toggleFavoriteRequest(ctx context.Context, api *client.Client, trackID string, favorite bool) error {
	path := "tracks/" + trackID + "/favorite/"
	var err error
	if favorite {
		_, err = api.Post(ctx, path, nil, true)
	} else {
		_, err = api.Delete(ctx, path)
	}
	return err
}

// FavoritesVM presents only the viewer's favorited trails.
type FavoritesVM struct {
	api *client.Client

	mu     sync.RWMutex
	tracks []Track
}

func NewFavoritesVM(api *client.Client) *FavoritesVM {
	return &FavoritesVM{api: api}
}

func (vm *FavoritesVM) Load(ctx context.Context) error {
	data, err := vm.api.Get(ctx, "tracks/?favorited=true", true)
	if err != nil {
		return err
	}
	tracks, err := decodeTrackList(data)
	if err != nil {
		return err
	}
	vm.mu.Lock()
	vm.tracks = tracks
	vm.mu.Unlock()
	return nil
}

func (vm *FavoritesVM) Tracks() []Track {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	out := make([]Track, len(vm.tracks))
	copy(out, vm.tracks)
	return out
}

// Unfavorite removes the track from the local list only after the
// server confirms. No optimistic removal here, the row just vanishes
// on success.
func (vm *FavoritesVM) Unfavorite(ctx context.Context, trackID string) error {
	if err := toggleFavoriteRequest(ctx, vm.api, trackID, false); err != nil {
		return err
	}
	vm.mu.Lock()
	defer vm.mu.Unlock()
	for i := range vm.tracks {
		if vm.tracks[i].ID == trackID {
			vm.tracks = append(vm.tracks[:i], vm.tracks[i+1:]...)
			break
		}
	}
	return nil
}

// TrackDetailVM presents one trail. An authenticated fetch that fails
// is retried once without credentials before the track is treated as
// missing.
type TrackDetailVM struct {
	api *client.Client

	mu    sync.RWMutex
	track Track
	set   bool
}

func NewTrackDetailVM(api *client.Client) *TrackDetailVM {
	return &TrackDetailVM{api: api}
}

func (vm *TrackDetailVM) Load(ctx context.Context, trackID string) error {
	path := "tracks/" + trackID + "/"
	data, err := vm.api.Get(ctx, path, true)
	if err != nil {
		data, err = vm.api.Get(ctx, path, false)
	}
	if err != nil {
		var apiErr *client.APIError
		if errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound {
			return ErrNotFound
		}
		return err
	}
	var track Track
	if err := json.Unmarshal(data, &track); err != nil {
		return err
	}
	vm.mu.Lock()
	vm.track = track
	vm.set = true
	vm.mu.Unlock()
	return nil
}

func (vm *TrackDetailVM) Track() (Track, bool) {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	return vm.track, vm.set
}

func (vm *TrackDetailVM) ToggleFavorite(ctx context.Context) error {
	vm.mu.Lock()
	if !vm.set {
		vm.mu.Unlock()
		return ErrNotFound
	}
	was := vm.track.IsFavorite
	vm.track.IsFavorite = !was
	trackID := vm.track.ID
	vm.mu.Unlock()

	err := toggleFavoriteRequest(ctx, vm.api, trackID, !was)
	if err != nil {
		vm.mu.Lock()
		vm.track.IsFavorite = was
		vm.mu.Unlock()
	}
	return err
}
