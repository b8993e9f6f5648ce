// Package youtube pulls comments from hagwon channels through the YouTube
// Data API v3.
package youtube

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const defaultBaseURL = "https://www.googleapis.com/youtube/v3"

// Client is a thin Data API client covering channel resolution, upload
// playlists, and comment threads.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	pageSize   int
}

// NewClient builds a client; baseURL is overridable for tests.
func NewClient(apiKey string, httpClient *http.Client, baseURL string) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{httpClient: httpClient, baseURL: baseURL, apiKey: apiKey, pageSize: 100}
}

// Comment is one API comment with its exact publication timestamp.
type Comment struct {
	Author string
	Text   string
	Date   string
	Likes  int
}

// ResolveChannelID finds the channel id behind an @handle.
func (c *Client) ResolveChannelID(ctx context.Context, handle string) (string, error) {
	var out struct {
		Items []struct {
			Snippet struct {
				ChannelID string `json:"channelId"`
			} `json:"snippet"`
		} `json:"items"`
	}
	params := url.Values{
		"part":       {"snippet"},
		"q":          {handle},
		"type":       {"channel"},
		"maxResults": {"1"},
	}
	if err := c.get(ctx, "/search", params, &out); err != nil {
		return "", fmt.Errorf("search channel %s: %w", handle, err)
	}
	if len(out.Items) == 0 {
		return "", fmt.Errorf("channel not found: %s", handle)
	}
	return out.Items[0].Snippet.ChannelID, nil
}

// UploadsPlaylist returns the id of the channel's uploads playlist.
func (c *Client) UploadsPlaylist(ctx context.Context, channelID string) (string, error) {
	var out struct {
		Items []struct {
			ContentDetails struct {
				RelatedPlaylists struct {
					Uploads string `json:"uploads"`
				} `json:"relatedPlaylists"`
			} `json:"contentDetails"`
		} `json:"items"`
	}
	params := url.Values{
		"part": {"contentDetails"},
		"id":   {channelID},
	}
	if err := c.get(ctx, "/channels", params, &out); err != nil {
		return "", fmt.Errorf("channel %s: %w", channelID, err)
	}
	if len(out.Items) == 0 {
		return "", fmt.Errorf("channel has no details: %s", channelID)
	}
	return out.Items[0].ContentDetails.RelatedPlaylists.Uploads, nil
}

// VideoIDs pages through an uploads playlist. max caps the result when
// positive; zero means every video.
func (c *Client) VideoIDs(ctx context.Context, playlistID string, max int) ([]string, error) {
	var ids []string
	pageToken := ""

	for {
		var out struct {
			Items []struct {
				ContentDetails struct {
					VideoID string `json:"videoId"`
				} `json:"contentDetails"`
			} `json:"items"`
			NextPageToken string `json:"nextPageToken"`
		}
		params := url.Values{
			"part":       {"contentDetails"},
			"playlistId": {playlistID},
			"maxResults": {"50"},
		}
		if pageToken != "" {
			params.Set("pageToken", pageToken)
		}
		if err := c.get(ctx, "/playlistItems", params, &out); err != nil {
			return nil, fmt.Errorf("playlist %s: %w", playlistID, err)
		}

		for _, item := range out.Items {
			ids = append(ids, item.ContentDetails.VideoID)
			if max > 0 && len(ids) >= max {
				return ids, nil
			}
		}

		pageToken = out.NextPageToken
		if pageToken == "" {
			return ids, nil
		}
	}
}

// CommentThreads fetches every top-level comment and reply for a video.
// Videos with disabled comments yield an empty slice, not an error.
func (c *Client) CommentThreads(ctx context.Context, videoID string) ([]Comment, error) {
	var comments []Comment
	pageToken := ""

	for {
		var out struct {
			Items []struct {
				Snippet struct {
					TopLevelComment commentItem `json:"topLevelComment"`
				} `json:"snippet"`
				Replies struct {
					Comments []commentItem `json:"comments"`
				} `json:"replies"`
			} `json:"items"`
			NextPageToken string `json:"nextPageToken"`
		}
		params := url.Values{
			"part":       {"snippet,replies"},
			"videoId":    {videoID},
			"maxResults": {strconv.Itoa(c.pageSize)},
			"textFormat": {"plainText"},
		}
		if pageToken != "" {
			params.Set("pageToken", pageToken)
		}
		if err := c.get(ctx, "/commentThreads", params, &out); err != nil {
			if strings.Contains(err.Error(), "commentsDisabled") {
				return nil, nil
			}
			return nil, fmt.Errorf("video %s: %w", videoID, err)
		}

		for _, item := range out.Items {
			comments = append(comments, item.Snippet.TopLevelComment.toComment())
			for _, reply := range item.Replies.Comments {
				comments = append(comments, reply.toComment())
			}
		}

		pageToken = out.NextPageToken
		if pageToken == "" {
			return comments, nil
		}
	}
}

type commentItem struct {
	Snippet struct {
		AuthorDisplayName string `json:"authorDisplayName"`
		TextDisplay       string `json:"textDisplay"`
		PublishedAt       string `json:"publishedAt"`
		LikeCount         int    `json:"likeCount"`
	} `json:"snippet"`
}

func (i commentItem) toComment() Comment {
	return Comment{
		Author: i.Snippet.AuthorDisplayName,
		Text:   i.Snippet.TextDisplay,
		Date:   i.Snippet.PublishedAt,
		Likes:  i.Snippet.LikeCount,
	}
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out interface{}) error {
	params.Set("key", c.apiKey)
	reqURL := c.baseURL + path + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request api: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("api returned %s: %s", resp.Status, truncate(string(body), 200))
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("parse response: %w", err)
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
