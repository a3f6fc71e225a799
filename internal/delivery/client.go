// internal/delivery/client.go
//
// Render-and-deliver service client.
//
// Context
// -------
// Templating and outbound mail live in a separate service; this client hands
// it a fully assembled digest payload plus the subject string and reports
// success or failure.  It also carries the small "your changes apply
// tomorrow" notice used when a resend is rate-limited.
//
// The payload shape is the service's contract, not the digest's internal
// model, so the conversion stays here.
//
// Notes
// -----
// • Oxford commas, two spaces after periods.
package delivery

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/morgandowney-droid/readflaneur-web-sub001/internal/ads"
	"github.com/morgandowney-droid/readflaneur-web-sub001/internal/content"
	"github.com/morgandowney-droid/readflaneur-web-sub001/internal/recipient"
	"github.com/morgandowney-droid/readflaneur-web-sub001/internal/sendlog"
)

// Client talks to the render/delivery service.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	log        *zap.SugaredLogger
}

// NewClient builds a delivery client.  apiKey may be empty for an
// unauthenticated local service.
func NewClient(baseURL, apiKey string, timeout time.Duration, log *zap.SugaredLogger) *Client {
	return &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
		log:        log,
	}
}

// Deliver renders and sends one digest.  Implements sender.Transport.
func (c *Client) Deliver(ctx context.Context, d *content.Digest, subject string) error {
	body := digestPayload(d, subject)
	return c.post(ctx, "/v1/digests", body)
}

// NotifyDeferred sends the "changes apply tomorrow" notice.  Implements
// resend.Notifier.
func (c *Client) NotifyDeferred(ctx context.Context, rec *recipient.Recipient, trigger sendlog.Trigger) error {
	return c.post(ctx, "/v1/notices", map[string]any{
		"email":   rec.Email,
		"kind":    "digest_deferred",
		"trigger": string(trigger),
	})
}

func (c *Client) post(ctx context.Context, path string, body any) error {
	buf, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(buf))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("delivery request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		msg, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("delivery service error: status %d: %s", resp.StatusCode, msg)
	}
	return nil
}

/*──────────────────────── wire payload ─────────────────────────────────────*/

func digestPayload(d *content.Digest, subject string) map[string]any {
	p := map[string]any{
		"email":             d.Recipient.Email,
		"unsubscribe_token": d.Recipient.UnsubscribeToken,
		"subject":           subject,
		"date":              d.Date,
		"primary":           sectionPayload(d.Primary),
	}

	if len(d.Satellites) > 0 {
		sats := make([]map[string]any, 0, len(d.Satellites))
		for _, s := range d.Satellites {
			sats = append(sats, sectionPayload(s))
		}
		p["satellites"] = sats
	}

	if d.WeatherStory != nil {
		p["weather_story"] = map[string]any{
			"headline":  d.WeatherStory.Headline,
			"body":      d.WeatherStory.Body,
			"icon":      d.WeatherStory.Icon,
			"day_label": d.WeatherStory.DayLabel,
			"temp_c":    d.WeatherStory.TempC,
			"temp_f":    d.WeatherStory.TempF,
		}
	} else if d.Current != nil {
		p["current_weather"] = map[string]any{
			"temp_c": d.Current.TempC,
			"temp_f": d.Current.TempF,
		}
	}

	if d.Ads != nil {
		if d.Ads.Header != nil {
			p["header_ad"] = adPayload(d.Ads.Header)
		}
		if d.Ads.Native != nil {
			p["native_ad"] = adPayload(d.Ads.Native)
		}
	}
	return p
}

func sectionPayload(s content.Section) map[string]any {
	stories := make([]map[string]any, 0, len(s.Stories))
	for _, st := range s.Stories {
		m := map[string]any{
			"headline":     st.Headline,
			"preview":      st.Preview,
			"url":          st.URL,
			"published_at": st.PublishedAt,
		}
		if st.ImageURL != nil {
			m["image_url"] = *st.ImageURL
		}
		if st.Category != nil {
			m["category"] = *st.Category
		}
		stories = append(stories, m)
	}
	out := map[string]any{"stories": stories}
	if s.Neighborhood != nil {
		out["neighborhood"] = s.Neighborhood.Name
		out["neighborhood_slug"] = s.Neighborhood.Slug
	}
	return out
}

func adPayload(p *ads.Placed) map[string]any {
	return map[string]any{
		"headline":  p.Headline,
		"image_url": p.ImageURL,
		"click_url": p.ClickURL,
		"sponsor":   p.Sponsor,
	}
}
