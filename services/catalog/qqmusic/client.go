package qqmusic

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"lyrics-resolver-go/circuitbreaker"
	"lyrics-resolver-go/config"
	"lyrics-resolver-go/logcolors"
	"lyrics-resolver-go/services/catalog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
)

const (
	// Request defaults
	defaultTimeout     = 10 * time.Second
	defaultResultLimit = 3

	// The timed-lyric endpoint only answers desktop-looking clients.
	timedLyricUserAgent = "Mozilla/5.0 (Windows NT 10.0; WOW64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/63.0.3239.132 Safari/537.36"
)

// StatusError is returned when the catalog answers with a non-2xx status.
type StatusError struct {
	Endpoint   string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: API returned status %d", e.Endpoint, e.StatusCode)
}

// Options configures a Client. Zero values fall back to defaults.
type Options struct {
	SearchURL     string
	SongInfoURL   string
	LyricURL      string
	TimedLyricURL string
	Referer       string

	Timeout           time.Duration
	TimedLyricTimeout time.Duration
	ResultLimit       int

	// Breaker, when set, guards every outbound call.
	Breaker *circuitbreaker.CircuitBreaker
	// Transport overrides the HTTP transport (tests).
	Transport http.RoundTripper
}

// Client talks to the QQ Music web endpoints.
type Client struct {
	opts        Options
	httpClient  *http.Client
	timedClient *http.Client
	now         func() time.Time
}

var _ catalog.Client = (*Client)(nil)

// New creates a Client.
func New(opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.TimedLyricTimeout <= 0 {
		opts.TimedLyricTimeout = defaultTimeout
	}
	if opts.ResultLimit <= 0 {
		opts.ResultLimit = defaultResultLimit
	}

	return &Client{
		opts:        opts,
		httpClient:  &http.Client{Timeout: opts.Timeout, Transport: opts.Transport},
		timedClient: &http.Client{Timeout: opts.TimedLyricTimeout, Transport: opts.Transport},
		now:         time.Now,
	}
}

// NewFromConfig creates a Client from the service configuration.
func NewFromConfig(conf config.Config, breaker *circuitbreaker.CircuitBreaker) *Client {
	c := conf.Configuration
	return New(Options{
		SearchURL:         c.CatalogSearchURL,
		SongInfoURL:       c.CatalogSongInfoURL,
		LyricURL:          c.CatalogLyricURL,
		TimedLyricURL:     c.CatalogTimedLyricURL,
		Referer:           c.CatalogReferer,
		Timeout:           conf.CatalogTimeout(),
		TimedLyricTimeout: conf.TimedLyricTimeout(),
		ResultLimit:       c.SearchResultLimit,
		Breaker:           breaker,
	})
}

// Name returns the catalog identifier
func (c *Client) Name() string {
	return "qqmusic"
}

// Search runs a keyword search and returns at most ResultLimit candidates.
func (c *Client) Search(ctx context.Context, keyword string) ([]catalog.Candidate, error) {
	payload, err := wire.Marshal(newSearchRequest(keyword, c.opts.ResultLimit))
	if err != nil {
		return nil, fmt.Errorf("failed to encode search request: %w", err)
	}

	log.Debugf("%s Searching catalog: %s", logcolors.LogSearch, keyword)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.opts.SearchURL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	body, err := c.do(ctx, c.httpClient, "search", req)
	if err != nil {
		return nil, err
	}

	var resp searchResponse
	if err := wire.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse search response: %w", err)
	}

	items := resp.Req1.Data.Body.Song.List
	if len(items) > c.opts.ResultLimit {
		items = items[:c.opts.ResultLimit]
	}

	candidates := make([]catalog.Candidate, len(items))
	for i, item := range items {
		candidates[i] = item.toCandidate()
	}

	log.Debugf("%s %d result(s) for %q", logcolors.LogSearch, len(candidates), keyword)
	return candidates, nil
}

// FetchSongMetadata looks up one song by catalog id.
func (c *Client) FetchSongMetadata(ctx context.Context, catalogID string) (*catalog.Candidate, error) {
	params := url.Values{}
	params.Set("songmid", catalogID)
	params.Set("format", "json")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.opts.SongInfoURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	body, err := c.do(ctx, c.httpClient, "song info", req)
	if err != nil {
		return nil, err
	}

	var resp songInfoResponse
	if err := wire.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse song info response: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, catalog.ErrNoMetadata
	}

	candidate := resp.Data[0].toCandidate()
	if candidate.CatalogID == "" {
		candidate.CatalogID = catalogID
	}
	return &candidate, nil
}

// FetchLyricPayload fetches the base64 synced and translated lyric blobs.
func (c *Client) FetchLyricPayload(ctx context.Context, catalogID string) (*catalog.LyricBlobs, error) {
	params := url.Values{}
	params.Set("callback", LyricCallback)
	params.Set("pcachetime", strconv.FormatInt(c.now().UnixMilli(), 10))
	params.Set("songmid", catalogID)
	params.Set("g_tk", "5381")
	params.Set("jsonpCallback", LyricCallback)
	params.Set("loginUin", "0")
	params.Set("hostUin", "0")
	params.Set("format", "jsonp")
	params.Set("inCharset", "utf8")
	params.Set("outCharset", "utf8")
	params.Set("notice", "0")
	params.Set("platform", "yqq")
	params.Set("needNewCode", "0")

	log.Debugf("%s Fetching lyric payload: %s", logcolors.LogLyrics, catalogID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.opts.LyricURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	body, err := c.do(ctx, c.httpClient, "lyric", req)
	if err != nil {
		return nil, err
	}

	return ParseLyricEnvelope(string(body))
}

// FetchTimedLyricTransport downloads the XML envelope of the word-timed lyrics.
func (c *Client) FetchTimedLyricTransport(ctx context.Context, catalogID string) (string, error) {
	form := url.Values{}
	form.Set("version", "15")
	form.Set("miniversion", "82")
	form.Set("lrctype", "4")
	form.Set("musicid", catalogID)

	log.Debugf("%s Fetching word-timed transport: %s", logcolors.LogYRC, catalogID)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.opts.TimedLyricURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", timedLyricUserAgent)

	body, err := c.do(ctx, c.timedClient, "timed lyric", req)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// do sends req through the breaker and returns the body of a 2xx reply.
func (c *Client) do(ctx context.Context, hc *http.Client, endpoint string, req *http.Request) ([]byte, error) {
	if c.opts.Referer != "" {
		req.Header.Set("Referer", c.opts.Referer)
	}

	var body []byte
	call := func(ctx context.Context) error {
		resp, err := hc.Do(req)
		if err != nil {
			return fmt.Errorf("%s request failed: %w", endpoint, err)
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return &StatusError{Endpoint: endpoint, StatusCode: resp.StatusCode}
		}

		body, err = io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("failed to read %s response: %w", endpoint, err)
		}
		return nil
	}

	var err error
	if c.opts.Breaker != nil {
		err = c.opts.Breaker.Execute(ctx, call)
	} else {
		err = call(ctx)
	}
	if err != nil {
		log.Warnf("%s %s call failed: %v", logcolors.LogCatalog, endpoint, err)
		return nil, err
	}
	return body, nil
}
