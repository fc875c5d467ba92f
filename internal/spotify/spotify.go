// Package spotify is a user-scoped Spotify Web API client covering the
// profile, playlist, and playback-queue endpoints the jukebox needs.
//
// Response types follow https://developer.spotify.com/documentation/web-api/reference/
package spotify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"
)

const (
	authURL    = "https://accounts.spotify.com/authorize"
	tokenURL   = "https://accounts.spotify.com/api/token"
	apiBaseURL = "https://api.spotify.com/v1"
)

// Scopes is the fixed scope set requested at authorization time.
var Scopes = []string{
	"user-read-playback-state",
	"user-modify-playback-state",
	"playlist-read-private",
	"user-library-read",
}

var (
	// ErrTokenExpired signals the access token was rejected and a fresh
	// login is needed.
	ErrTokenExpired = errors.New("spotify access token expired")
	// ErrNoActiveDevice signals that no device is currently playing, so
	// the queue cannot be modified.
	ErrNoActiveDevice = errors.New("no active playback device")
)

// APIError is a non-2xx Spotify response that is not one of the
// distinguished conditions above.
type APIError struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
	Reason  string `json:"reason"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("spotify api error: %d %s", e.Status, e.Message)
}

// API is the client surface the application consumes. *Client satisfies
// it; tests substitute stubs.
type API interface {
	CurrentUser(ctx context.Context) (*User, error)
	CurrentUserPlaylists(ctx context.Context) ([]Playlist, error)
	Playlist(ctx context.Context, id string) (*Playlist, error)
	PlaylistTracks(ctx context.Context, playlistID string) ([]PlaylistTrack, error)
	AddToQueue(ctx context.Context, trackURI string) error
}

// NewOAuthConfig builds the authorization-code flow configuration.
func NewOAuthConfig(clientID, clientSecret, redirectURL string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURL,
		Scopes:       Scopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:  authURL,
			TokenURL: tokenURL,
		},
	}
}

// Client performs authenticated calls with a single bearer token. Token
// refresh is the caller's concern; a rejected token surfaces as
// ErrTokenExpired.
type Client struct {
	accessToken string
	httpClient  *http.Client
	baseURL     string
}

// NewClient creates a client around an access token.
func NewClient(accessToken string) *Client {
	return &Client{
		accessToken: accessToken,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		baseURL: apiBaseURL,
	}
}

// User is a Spotify user profile.
type User struct {
	ID          string  `json:"id"`
	DisplayName string  `json:"display_name"`
	Email       string  `json:"email"`
	Images      []Image `json:"images"`
}

// Image is an image resource.
type Image struct {
	URL    string `json:"url"`
	Height int    `json:"height"`
	Width  int    `json:"width"`
}

// Owner identifies a playlist owner.
type Owner struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

type playlistTracksRef struct {
	Total int `json:"total"`
}

// Playlist is a playlist as returned by the listing endpoints.
type Playlist struct {
	ID     string            `json:"id"`
	Name   string            `json:"name"`
	Owner  Owner             `json:"owner"`
	Images []Image           `json:"images"`
	Tracks playlistTracksRef `json:"tracks"`
	URI    string            `json:"uri"`
}

// Artist is the simplified artist object embedded in tracks.
type Artist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Album is the simplified album object embedded in tracks.
type Album struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Images []Image `json:"images"`
}

// Track is a full track object.
type Track struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Artists []Artist `json:"artists"`
	Album   Album    `json:"album"`
	URI     string   `json:"uri"`
}

// PlaylistTrack is a playlist item. Track is a pointer because Spotify
// keeps the slot with a null track when an entry has been removed.
type PlaylistTrack struct {
	AddedAt string `json:"added_at"`
	Track   *Track `json:"track"`
}

type playlistPage struct {
	Items []Playlist `json:"items"`
	Next  *string    `json:"next"`
}

type playlistTrackPage struct {
	Items []PlaylistTrack `json:"items"`
	Next  *string         `json:"next"`
}

// CurrentUser fetches the authenticated user's profile.
func (c *Client) CurrentUser(ctx context.Context) (*User, error) {
	var user User
	if err := c.get(ctx, c.baseURL+"/me", &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// CurrentUserPlaylists follows every page of the playlist listing and
// flattens the items in the API's native order.
func (c *Client) CurrentUserPlaylists(ctx context.Context) ([]Playlist, error) {
	var playlists []Playlist

	next := c.baseURL + "/me/playlists?limit=50"
	for next != "" {
		var page playlistPage
		if err := c.get(ctx, next, &page); err != nil {
			return nil, err
		}
		playlists = append(playlists, page.Items...)
		next = ""
		if page.Next != nil {
			next = *page.Next
		}
	}

	return playlists, nil
}

// Playlist fetches a single playlist by id.
func (c *Client) Playlist(ctx context.Context, id string) (*Playlist, error) {
	var playlist Playlist
	if err := c.get(ctx, c.baseURL+"/playlists/"+url.PathEscape(id), &playlist); err != nil {
		return nil, err
	}
	return &playlist, nil
}

// PlaylistTracks follows every page of a playlist's items.
func (c *Client) PlaylistTracks(ctx context.Context, playlistID string) ([]PlaylistTrack, error) {
	var tracks []PlaylistTrack

	next := c.baseURL + "/playlists/" + url.PathEscape(playlistID) + "/tracks?limit=100"
	for next != "" {
		var page playlistTrackPage
		if err := c.get(ctx, next, &page); err != nil {
			return nil, err
		}
		tracks = append(tracks, page.Items...)
		next = ""
		if page.Next != nil {
			next = *page.Next
		}
	}

	return tracks, nil
}

// AddToQueue appends a track to the user's active playback device.
func (c *Client) AddToQueue(ctx context.Context, trackURI string) error {
	endpoint := c.baseURL + "/me/player/queue?uri=" + url.QueryEscape(trackURI)
	return c.do(ctx, http.MethodPost, endpoint, nil)
}

func (c *Client) get(ctx context.Context, rawURL string, result any) error {
	return c.do(ctx, http.MethodGet, rawURL, result)
}

func (c *Client) do(ctx context.Context, method, rawURL string, result any) error {
	req, err := http.NewRequestWithContext(ctx, method, rawURL, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeError(resp)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}

	return nil
}

func decodeError(resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)

	var apiErr struct {
		Error APIError `json:"error"`
	}
	_ = json.Unmarshal(body, &apiErr)
	apiErr.Error.Status = resp.StatusCode

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return ErrTokenExpired
	case apiErr.Error.Reason == "NO_ACTIVE_DEVICE",
		strings.Contains(apiErr.Error.Message, "No active device"):
		return ErrNoActiveDevice
	}

	if apiErr.Error.Message == "" {
		apiErr.Error.Message = strings.TrimSpace(string(body))
	}
	return &apiErr.Error
}
