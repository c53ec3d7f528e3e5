// Tidal API implementation of [Collection]
//
// Response types based on the v1 API served at api.tidal.com
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"

	"tidex/internal/models"
	"tidex/internal/shared"
)

const (
	tidalAPIBase = "https://api.tidal.com/v1"

	// pageLimit is the page size used for every paginated listing.
	pageLimit = 100
)

// TidalArtist represents an artist credit on a track.
type TidalArtist struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"`
}

// TidalAlbum represents the album a track belongs to.
type TidalAlbum struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
	Cover string `json:"cover"`
}

// TidalTrack represents a Tidal track resource.
type TidalTrack struct {
	ID       int64         `json:"id"`
	Title    string        `json:"title"`
	Duration int           `json:"duration"` // seconds
	Artists  []TidalArtist `json:"artists"`
	Album    TidalAlbum    `json:"album"`
	ISRC     string        `json:"isrc"`
}

// TidalPlaylist represents a Tidal playlist resource. Playlists are keyed
// by UUID rather than numeric ID.
type TidalPlaylist struct {
	UUID           string `json:"uuid"`
	Title          string `json:"title"`
	Description    string `json:"description"`
	NumberOfTracks int    `json:"numberOfTracks"`
	PublicPlaylist bool   `json:"publicPlaylist"`
	Creator        struct {
		ID int64 `json:"id"`
	} `json:"creator"`
}

// tidalFavoriteItem wraps a track with the date it was favorited.
type tidalFavoriteItem struct {
	Created string     `json:"created"`
	Item    TidalTrack `json:"item"`
}

// tidalPage is the pagination envelope shared by every listing endpoint.
type tidalPage[T any] struct {
	Limit              int `json:"limit"`
	Offset             int `json:"offset"`
	TotalNumberOfItems int `json:"totalNumberOfItems"`
	Items              []T `json:"items"`
}

type tidalPlaylistItem struct {
	Item TidalTrack `json:"item"`
	Type string     `json:"type"`
}

// TidalService implements the Collection interface against the Tidal API.
// All listing calls paginate internally and return complete slices. Requests
// are throttled with a [rate.Limiter] to stay under the API's request caps.
type TidalService struct {
	cfg        *shared.TidalConfig
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *log.Logger

	// persist, when set, is called after every token refresh so callers
	// can write the rotated credentials back to disk.
	persist func(*shared.TidalConfig) error
}

// NewTidalService creates a Tidal service from stored credentials. The
// service is usable immediately if cfg carries a valid access token;
// otherwise Login or LoginDeviceFlow must run first.
func NewTidalService(cfg *shared.TidalConfig, logger *log.Logger) (*TidalService, error) {
	if cfg == nil || cfg.ClientID == "" {
		return nil, fmt.Errorf("%w: tidal client_id is not configured", shared.ErrMissingCredentials)
	}

	return &TidalService{
		cfg:        cfg,
		httpClient: http.DefaultClient,
		limiter:    rate.NewLimiter(rate.Limit(5), 10),
		logger:     logger,
	}, nil
}

// OnTokenRefresh registers a callback invoked after the access token rotates.
func (s *TidalService) OnTokenRefresh(fn func(*shared.TidalConfig) error) {
	s.persist = fn
}

// SetHTTPClient swaps the underlying HTTP client (used in tests).
func (s *TidalService) SetHTTPClient(c *http.Client) {
	s.httpClient = c
}

func (s *TidalService) Name() string {
	return "Tidal"
}

// Authenticated reports whether the service holds an access token.
func (s *TidalService) Authenticated() bool {
	return s.cfg.AccessToken != ""
}

// doRequest performs an authenticated request against the Tidal API, retrying
// once through a token refresh when the API answers 401.
func (s *TidalService) doRequest(ctx context.Context, method, endpoint string, form url.Values, headers map[string]string, result interface{}) error {
	if s.cfg.AccessToken == "" {
		return fmt.Errorf("%w: run auth login first", shared.ErrNotAuthenticated)
	}

	resp, err := s.send(ctx, method, endpoint, form, headers)
	if err != nil {
		return err
	}

	if resp.StatusCode == http.StatusUnauthorized {
		resp.Body.Close()
		if err := s.refreshToken(ctx); err != nil {
			return err
		}
		if resp, err = s.send(ctx, method, endpoint, form, headers); err != nil {
			return err
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: %s %s returned status %d", shared.ErrAPIRequest, method, endpoint, resp.StatusCode)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("%w: decoding %s response: %v", shared.ErrAPIRequest, endpoint, err)
		}
	}

	return nil
}

func (s *TidalService) send(ctx context.Context, method, endpoint string, form url.Values, headers map[string]string) (*http.Response, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	apiURL := tidalAPIBase + endpoint

	var req *http.Request
	var err error

	if form != nil {
		req, err = http.NewRequestWithContext(ctx, method, apiURL, strings.NewReader(form.Encode()))
		if err == nil {
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		}
	} else {
		req, err = http.NewRequestWithContext(ctx, method, apiURL, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+s.cfg.AccessToken)
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	return resp, nil
}

// getWithETag fetches a playlist resource and returns its ETag header, which
// Tidal requires as an If-None-Match precondition on playlist mutations.
func (s *TidalService) getWithETag(ctx context.Context, endpoint string, result interface{}) (string, error) {
	resp, err := s.send(ctx, http.MethodGet, endpoint, nil, nil)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return "", fmt.Errorf("%w: %s", shared.ErrPlaylistNotFound, endpoint)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("%w: GET %s returned status %d", shared.ErrAPIRequest, endpoint, resp.StatusCode)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return "", fmt.Errorf("%w: decoding %s response: %v", shared.ErrAPIRequest, endpoint, err)
		}
	}

	return resp.Header.Get("ETag"), nil
}

// convertTrack maps a Tidal track resource onto the internal model.
func convertTrack(t TidalTrack) models.Track {
	artists := make([]string, 0, len(t.Artists))
	for _, a := range t.Artists {
		if a.Name != "" {
			artists = append(artists, a.Name)
		}
	}

	return models.Track{
		ID:       strconv.FormatInt(t.ID, 10),
		Title:    t.Title,
		Artists:  artists,
		Album:    t.Album.Title,
		Duration: t.Duration,
	}
}

func convertPlaylist(p TidalPlaylist) models.Playlist {
	return models.Playlist{
		ID:          p.UUID,
		Name:        p.Title,
		Description: p.Description,
		TrackCount:  p.NumberOfTracks,
		Public:      p.PublicPlaylist,
	}
}

// FetchFavorites retrieves every favorite track, walking the paginated
// listing until the reported total is reached.
func (s *TidalService) FetchFavorites(ctx context.Context) ([]models.Track, error) {
	var tracks []models.Track
	offset := 0

	for {
		endpoint := fmt.Sprintf("/users/%s/favorites/tracks?limit=%d&offset=%d&order=DATE&orderDirection=DESC&countryCode=%s",
			s.cfg.UserID, pageLimit, offset, s.cfg.CountryCode)

		var page tidalPage[tidalFavoriteItem]
		if err := s.doRequest(ctx, http.MethodGet, endpoint, nil, nil, &page); err != nil {
			return nil, fmt.Errorf("%w: favorites: %w", shared.ErrFetchFailed, err)
		}

		for _, item := range page.Items {
			tracks = append(tracks, convertTrack(item.Item))
		}

		offset += pageLimit
		if offset >= page.TotalNumberOfItems || len(page.Items) == 0 {
			break
		}
	}

	s.logger.Debug("fetched favorites", "count", len(tracks))
	return tracks, nil
}

// FetchPlaylists retrieves every playlist owned by or followed by the user.
func (s *TidalService) FetchPlaylists(ctx context.Context) ([]models.Playlist, error) {
	var playlists []models.Playlist
	offset := 0

	for {
		endpoint := fmt.Sprintf("/users/%s/playlists?limit=%d&offset=%d&countryCode=%s",
			s.cfg.UserID, pageLimit, offset, s.cfg.CountryCode)

		var page tidalPage[TidalPlaylist]
		if err := s.doRequest(ctx, http.MethodGet, endpoint, nil, nil, &page); err != nil {
			return nil, fmt.Errorf("%w: playlists: %w", shared.ErrFetchFailed, err)
		}

		for _, p := range page.Items {
			playlists = append(playlists, convertPlaylist(p))
		}

		offset += pageLimit
		if offset >= page.TotalNumberOfItems || len(page.Items) == 0 {
			break
		}
	}

	s.logger.Debug("fetched playlists", "count", len(playlists))
	return playlists, nil
}

// FetchPlaylistTracks retrieves all tracks of a playlist. Each returned
// track carries the playlist's name so exports can attribute rows.
func (s *TidalService) FetchPlaylistTracks(ctx context.Context, playlistID string) ([]models.Track, error) {
	var meta TidalPlaylist
	endpoint := fmt.Sprintf("/playlists/%s?countryCode=%s", playlistID, s.cfg.CountryCode)
	if err := s.doRequest(ctx, http.MethodGet, endpoint, nil, nil, &meta); err != nil {
		return nil, fmt.Errorf("%w: playlist %s: %w", shared.ErrFetchFailed, playlistID, err)
	}

	var tracks []models.Track
	offset := 0

	for {
		endpoint := fmt.Sprintf("/playlists/%s/items?limit=%d&offset=%d&countryCode=%s",
			playlistID, pageLimit, offset, s.cfg.CountryCode)

		var page tidalPage[tidalPlaylistItem]
		if err := s.doRequest(ctx, http.MethodGet, endpoint, nil, nil, &page); err != nil {
			return nil, fmt.Errorf("%w: playlist %s items: %w", shared.ErrFetchFailed, playlistID, err)
		}

		for _, item := range page.Items {
			track := convertTrack(item.Item)
			track.Playlist = meta.Title
			tracks = append(tracks, track)
		}

		offset += pageLimit
		if offset >= page.TotalNumberOfItems || len(page.Items) == 0 {
			break
		}
	}

	return tracks, nil
}

// CreatePlaylist creates a new playlist for the authenticated user.
func (s *TidalService) CreatePlaylist(ctx context.Context, name, description string) (*models.Playlist, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: playlist name is required", shared.ErrInvalidInput)
	}

	form := url.Values{}
	form.Set("title", name)
	form.Set("description", description)

	endpoint := fmt.Sprintf("/users/%s/playlists?countryCode=%s", s.cfg.UserID, s.cfg.CountryCode)

	var created TidalPlaylist
	if err := s.doRequest(ctx, http.MethodPost, endpoint, form, nil, &created); err != nil {
		return nil, err
	}

	s.logger.Info("created playlist", "name", name, "id", created.UUID)
	playlist := convertPlaylist(created)
	return &playlist, nil
}

// AddTracks appends tracks to a playlist. The playlist's current ETag is
// fetched first and passed back as If-None-Match, which the API requires to
// guard against concurrent edits.
func (s *TidalService) AddTracks(ctx context.Context, playlistID string, trackIDs []string) error {
	if len(trackIDs) == 0 {
		return fmt.Errorf("%w: no track ids to add", shared.ErrInvalidInput)
	}

	metaEndpoint := fmt.Sprintf("/playlists/%s?countryCode=%s", playlistID, s.cfg.CountryCode)
	var meta TidalPlaylist
	etag, err := s.getWithETag(ctx, metaEndpoint, &meta)
	if err != nil {
		return err
	}

	form := url.Values{}
	form.Set("trackIds", strings.Join(trackIDs, ","))
	form.Set("onDupes", "SKIP")

	endpoint := fmt.Sprintf("/playlists/%s/items?countryCode=%s", playlistID, s.cfg.CountryCode)
	headers := map[string]string{"If-None-Match": etag}

	if err := s.doRequest(ctx, http.MethodPost, endpoint, form, headers, nil); err != nil {
		return err
	}

	s.logger.Info("added tracks to playlist", "playlist", meta.Title, "count", len(trackIDs))
	return nil
}

// ClearPlaylist removes every item from a playlist in one ranged delete.
func (s *TidalService) ClearPlaylist(ctx context.Context, playlistID string) error {
	metaEndpoint := fmt.Sprintf("/playlists/%s?countryCode=%s", playlistID, s.cfg.CountryCode)
	var meta TidalPlaylist
	etag, err := s.getWithETag(ctx, metaEndpoint, &meta)
	if err != nil {
		return err
	}

	if meta.NumberOfTracks == 0 {
		return nil
	}

	indices := make([]string, meta.NumberOfTracks)
	for i := range indices {
		indices[i] = strconv.Itoa(i)
	}

	endpoint := fmt.Sprintf("/playlists/%s/items/%s?countryCode=%s",
		playlistID, strings.Join(indices, ","), s.cfg.CountryCode)
	headers := map[string]string{"If-None-Match": etag}

	return s.doRequest(ctx, http.MethodDelete, endpoint, nil, headers, nil)
}

// RemoveAllFavorites deletes every favorite track one by one and returns
// the number removed. A failure partway through is returned alongside the
// count of tracks already deleted.
func (s *TidalService) RemoveAllFavorites(ctx context.Context) (int, error) {
	favorites, err := s.FetchFavorites(ctx)
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, track := range favorites {
		endpoint := fmt.Sprintf("/users/%s/favorites/tracks/%s?countryCode=%s",
			s.cfg.UserID, track.ID, s.cfg.CountryCode)

		if err := s.doRequest(ctx, http.MethodDelete, endpoint, nil, nil, nil); err != nil {
			return removed, fmt.Errorf("removing %q: %w", track.Title, err)
		}
		removed++
	}

	s.logger.Info("emptied favorites", "removed", removed)
	return removed, nil
}

// SearchTracks queries the Tidal catalog for tracks.
func (s *TidalService) SearchTracks(ctx context.Context, query string, limit int) ([]models.Track, error) {
	if limit <= 0 || limit > pageLimit {
		limit = 50
	}

	endpoint := fmt.Sprintf("/search/tracks?query=%s&limit=%d&countryCode=%s",
		url.QueryEscape(query), limit, s.cfg.CountryCode)

	var page tidalPage[TidalTrack]
	if err := s.doRequest(ctx, http.MethodGet, endpoint, nil, nil, &page); err != nil {
		return nil, fmt.Errorf("%w: search: %w", shared.ErrFetchFailed, err)
	}

	tracks := make([]models.Track, 0, len(page.Items))
	for _, t := range page.Items {
		tracks = append(tracks, convertTrack(t))
	}
	return tracks, nil
}
