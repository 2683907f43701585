package mapctl

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/aksaraymalaklisi/greentrail/internal/views"
)

type LatLng struct {
	Lat float64
	Lng float64
}

type Bounds struct {
	Min LatLng
	Max LatLng
}

type Marker struct {
	ID   string
	Pos  LatLng
	Tier Tier
}

// Renderer is whatever draws the map. The controller only issues
// drawing commands; tests use a recording fake.
type Renderer interface {
	SetView(center LatLng)
	FitBounds(b Bounds, padding float64)
	AddMarker(m Marker)
	RemoveMarker(id string)
	AddRouteLine(id string, segments [][]LatLng)
	RemoveRouteLine(id string)
}

const (
	routeLineID   = "route"
	startMarkerID = "route-start"
	endMarkerID   = "route-end"
	fitPadding    = 40.0
)

// RouteFetcher downloads a geo-track file. The default implementation
// appends a timestamp query parameter so cached geometry is never
// served stale.
type RouteFetcher func(ctx context.Context, url string) ([]byte, error)

// Controller keeps viewport, markers and the single route overlay
// consistent with a wrapping selection index.
type Controller struct {
	renderer Renderer
	fetch    RouteFetcher

	mu         sync.Mutex
	tracks     []views.Track
	selected   int
	generation int
	cancel     context.CancelFunc
	loading    bool
	hasRoute   bool
	hasEnds    bool
}

// NewController draws one marker per coordinate-bearing track and then
// applies the initial selection, so the first track's overlay and
// viewport appear without any interaction. A nil fetch falls back to
// the HTTP fetcher.
func NewController(renderer Renderer, tracks []views.Track, fetch RouteFetcher) *Controller {
	if fetch == nil {
		fetch = httpRouteFetcher(http.DefaultClient, time.Now)
	}
	c := &Controller{
		renderer: renderer,
		fetch:    fetch,
		tracks:   tracks,
	}
	// One marker per coordinate-bearing track, placed once for the
	// lifetime of the list.
	for _, track := range tracks {
		if len(track.Pos) < 2 {
			continue
		}
		renderer.AddMarker(Marker{
			ID:   "track-" + track.ID,
			Pos:  LatLng{Lat: track.Pos[0], Lng: track.Pos[1]},
			Tier: ClassifyDifficulty(track.Difficulty),
		})
	}
	if len(tracks) > 0 {
		c.mu.Lock()
		c.applySelectionLocked(0)
		c.mu.Unlock()
	}
	return c
}

func httpRouteFetcher(httpClient *http.Client, now func() time.Time) RouteFetcher {
	return func(ctx context.Context, url string) ([]byte, error) {
		sep := "?"
		if strings.Contains(url, "?") {
			sep = "&"
		}
		busted := fmt.Sprintf("%s%st=%d", url, sep, now().UnixMilli())
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, busted, nil)
		if err != nil {
			return nil, err
		}
		resp, err := httpClient.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("route fetch: status %d", resp.StatusCode)
		}
		return io.ReadAll(resp.Body)
	}
}

func (c *Controller) Selected() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selected
}

func (c *Controller) Loading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loading
}

// Next advances the selection, wrapping past the end.
func (c *Controller) Next() {
	c.mu.Lock()
	if len(c.tracks) == 0 {
		c.mu.Unlock()
		return
	}
	c.applySelectionLocked((c.selected + 1) % len(c.tracks))
	c.mu.Unlock()
}

// Previous steps back, wrapping before the start.
func (c *Controller) Previous() {
	c.mu.Lock()
	if len(c.tracks) == 0 {
		c.mu.Unlock()
		return
	}
	c.applySelectionLocked((c.selected - 1 + len(c.tracks)) % len(c.tracks))
	c.mu.Unlock()
}

// Select jumps to an index, as a marker click does.
func (c *Controller) Select(index int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if index < 0 || index >= len(c.tracks) {
		return
	}
	c.applySelectionLocked(index)
}

func (c *Controller) applySelectionLocked(index int) {
	c.selected = index
	c.generation++
	gen := c.generation

	// Any in-flight load now belongs to a superseded selection.
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.clearRouteLocked()

	track := c.tracks[index]
	if track.GPX != "" {
		c.loading = true
		ctx, cancel := context.WithCancel(context.Background())
		c.cancel = cancel
		go c.loadRoute(ctx, gen, track.GPX)
		return
	}
	c.loading = false
	if len(track.Pos) >= 2 {
		c.renderer.SetView(LatLng{Lat: track.Pos[0], Lng: track.Pos[1]})
	}
	// No geometry and no coordinate: the viewport stays put.
}

func (c *Controller) clearRouteLocked() {
	if c.hasRoute {
		c.renderer.RemoveRouteLine(routeLineID)
		c.hasRoute = false
	}
	if c.hasEnds {
		c.renderer.RemoveMarker(startMarkerID)
		c.renderer.RemoveMarker(endMarkerID)
		c.hasEnds = false
	}
}

func (c *Controller) loadRoute(ctx context.Context, gen int, url string) {
	data, err := c.fetch(ctx, url)

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.generation {
		// A newer selection exists; this result must not clobber it.
		return
	}
	c.loading = false
	if err != nil {
		return
	}

	segments, err := parseGPX(data)
	if err != nil || len(segments) == 0 {
		return
	}

	c.renderer.AddRouteLine(routeLineID, segments)
	c.hasRoute = true

	if start, end, ok := endpoints(segments); ok {
		c.renderer.AddMarker(Marker{ID: startMarkerID, Pos: start})
		c.renderer.AddMarker(Marker{ID: endMarkerID, Pos: end})
		c.hasEnds = true
	}
	c.renderer.FitBounds(boundsOf(segments), fitPadding)
}
