package youtube

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/goccy/go-json"

	"github.com/justestif/moodtunes/internal/logging"
	"github.com/justestif/moodtunes/internal/music"
)

// detailRetries is the number of extra GetVideoDetails attempts.
const detailRetries = 2

// GetVideoDetails fetches snippet, content details and statistics for a
// video, retrying failed attempts after a short pause.
func (c *Client) GetVideoDetails(ctx context.Context, videoID string) (*Video, error) {
	params := url.Values{
		"part": {"snippet,contentDetails,statistics"},
		"id":   {videoID},
	}

	var lastErr error
	for attempt := 0; attempt <= detailRetries; attempt++ {
		if attempt > 0 {
			logging.Ctx(ctx).Warn().Err(lastErr).Str("video_id", videoID).
				Int("retries_left", detailRetries-attempt+1).Msg("retrying video details")
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.retryDelay):
			}
		}

		video, err := c.videoDetails(ctx, params)
		if err == nil {
			return video, nil
		}
		lastErr = err
	}
	return nil, fmt.Errorf("fetching video %s: %w", videoID, lastErr)
}

func (c *Client) videoDetails(ctx context.Context, params url.Values) (*Video, error) {
	body, err := c.get(ctx, "/videos", params)
	if err != nil {
		return nil, err
	}

	var resp videosResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("parsing videos response: %w", err)
	}
	if len(resp.Items) == 0 {
		return nil, ErrInvalidResponse
	}
	return &resp.Items[0], nil
}

// GetRelatedVideos lists videos related to videoID. Unlike SearchVideos
// an empty result is not an error.
func (c *Client) GetRelatedVideos(ctx context.Context, videoID string, maxResults int) ([]music.Recommendation, error) {
	params := url.Values{
		"part":             {"snippet"},
		"maxResults":       {strconv.Itoa(maxResults)},
		"relatedToVideoId": {videoID},
		"type":             {"video"},
	}

	results, err := c.searchItems(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("fetching videos related to %s: %w", videoID, err)
	}
	return results, nil
}
