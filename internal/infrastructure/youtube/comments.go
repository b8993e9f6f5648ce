package youtube

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"HagwonScanner/internal/domain"
	"HagwonScanner/internal/scanner"
)

const watchURL = "https://www.youtube.com/watch?v="

// CommentScanner walks every upload of the configured channels and keeps
// comments mentioning a keyword. Each channel arrives as a category whose
// URL carries the @handle. Checkpointing is per video URL.
type CommentScanner struct {
	client      *Client
	maxVideos   int
	maxComments int
	logger      *slog.Logger
}

// NewCommentScanner builds the strategy. maxComments caps matching comments
// per video; zero keeps everything.
func NewCommentScanner(client *Client, maxVideos, maxComments int, log *slog.Logger) *CommentScanner {
	return &CommentScanner{
		client:      client,
		maxVideos:   maxVideos,
		maxComments: maxComments,
		logger:      log,
	}
}

// Name identifies the strategy inside the registry.
func (s *CommentScanner) Name() string {
	return "youtube"
}

// Scan fetches comments channel by channel. Dates are exact API timestamps,
// so no relative-date recovery is needed on this path.
func (s *CommentScanner) Scan(ctx context.Context, req scanner.Request) ([]domain.Record, error) {
	if len(req.Categories) == 0 {
		return nil, fmt.Errorf("no channels configured for site %s", req.SiteName)
	}

	var results []domain.Record
	for _, channel := range req.Categories {
		records, err := s.scanChannel(ctx, channel, req)
		if err != nil {
			return nil, fmt.Errorf("channel %s: %w", channel.Name, err)
		}
		results = append(results, records...)
	}

	if req.Checkpoint != nil {
		return req.Checkpoint.Records(), nil
	}
	return results, nil
}

func (s *CommentScanner) scanChannel(ctx context.Context, channel scanner.Category, req scanner.Request) ([]domain.Record, error) {
	handle := HandleFrom(channel.URL)
	if handle == "" {
		return nil, fmt.Errorf("no @handle in channel url %s", channel.URL)
	}

	channelID, err := s.client.ResolveChannelID(ctx, handle)
	if err != nil {
		return nil, err
	}
	playlistID, err := s.client.UploadsPlaylist(ctx, channelID)
	if err != nil {
		return nil, err
	}
	videoIDs, err := s.client.VideoIDs(ctx, playlistID, s.maxVideos)
	if err != nil {
		return nil, err
	}
	s.logger.Info("channel videos listed", "channel", channel.Name, "videos", len(videoIDs))

	var results []domain.Record
	for i, videoID := range videoIDs {
		videoURL := watchURL + videoID
		if req.Checkpoint != nil && req.Checkpoint.Done(videoURL) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		comments, err := s.client.CommentThreads(ctx, videoID)
		if err != nil {
			s.logger.Warn("comment fetch failed", "video", videoURL, "error", err)
			continue
		}

		kept := s.keepMatching(comments, req.Keywords, channel.Name, videoURL)
		s.logger.Debug("video done",
			"channel", channel.Name, "video", i+1, "comments", len(comments), "kept", len(kept))

		if req.Checkpoint != nil {
			req.Checkpoint.Complete(videoURL, kept...)
			if err := req.Checkpoint.MaybeSave(); err != nil {
				return nil, err
			}
		} else {
			results = append(results, kept...)
		}
	}

	return results, nil
}

func (s *CommentScanner) keepMatching(comments []Comment, keywords []string, channel, videoURL string) []domain.Record {
	var kept []domain.Record
	for _, c := range comments {
		if len(keywords) > 0 && !containsAny(c.Text, keywords) {
			continue
		}
		kept = append(kept, domain.Record{
			Channel:   channel,
			VideoURL:  videoURL,
			Text:      c.Text,
			Author:    c.Author,
			Date:      c.Date,
			Likes:     c.Likes,
			ScrapedAt: time.Now().Format(time.RFC3339),
		})
		if s.maxComments > 0 && len(kept) >= s.maxComments {
			break
		}
	}
	return kept
}

func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

// HandleFrom pulls the @handle out of a channel URL like
// https://www.youtube.com/@mimac_study/videos.
func HandleFrom(channelURL string) string {
	_, tail, ok := strings.Cut(channelURL, "@")
	if !ok {
		return ""
	}
	if idx := strings.Index(tail, "/"); idx >= 0 {
		tail = tail[:idx]
	}
	return tail
}
