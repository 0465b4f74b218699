package media

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/doyensec/safeurl"
	"github.com/go-resty/resty/v2"
)

// CacheBustParam is the query parameter appended to remote media URLs.
const CacheBustParam = "_cb"

// FetcherOptions configures a Fetcher
type FetcherOptions struct {
	Timeout time.Duration
	MaxSize int64
	// AllowPrivate lets remote media resolve to loopback, private and
	// link-local addresses on any port.
	AllowPrivate bool
}

// Fetcher loads media referenced by a post, either embedded or remote
type Fetcher struct {
	client  *resty.Client
	maxSize int64
	now     func() time.Time
}

func NewFetcher(opts FetcherOptions) *Fetcher {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}

	var client *resty.Client
	if opts.AllowPrivate {
		client = resty.New()
	} else {
		// media URLs come from users and generated content, so the dialer
		// refuses internal addresses after DNS resolution
		cfg := safeurl.GetConfigBuilder().
			SetTimeout(opts.Timeout).
			SetAllowedSchemes("http", "https").
			SetAllowedPorts(80, 443).
			Build()
		client = resty.NewWithClient(safeurl.Client(cfg).Client)
	}

	return &Fetcher{
		client: client.
			SetTimeout(opts.Timeout).
			SetRetryCount(2).
			SetRetryWaitTime(500 * time.Millisecond).
			SetRetryMaxWaitTime(2 * time.Second),
		maxSize: opts.MaxSize,
		now:     time.Now,
	}
}

// Load returns the MIME type and bytes behind a media reference.
func (f *Fetcher) Load(ctx context.Context, ref string) (string, []byte, error) {
	if IsDataURI(ref) {
		mime, data, err := DecodeDataURI(ref)
		if err != nil {
			return "", nil, err
		}
		if f.maxSize > 0 && int64(len(data)) > f.maxSize {
			return "", nil, fmt.Errorf("embedded media is %d bytes, limit %d", len(data), f.maxSize)
		}
		return mime, data, nil
	}
	return f.Fetch(ctx, ref)
}

// Fetch downloads a remote media URL, bypassing intermediate caches.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (string, []byte, error) {
	target, err := f.cacheBusted(rawURL)
	if err != nil {
		return "", nil, err
	}

	resp, err := f.client.R().
		SetContext(ctx).
		SetHeader("Accept", "image/*").
		SetHeader("Cache-Control", "no-cache").
		SetHeader("Pragma", "no-cache").
		Get(target)

	if err != nil {
		return "", nil, fmt.Errorf("failed to fetch media from %s: %w", rawURL, err)
	}

	if resp.StatusCode() != http.StatusOK {
		return "", nil, fmt.Errorf("unexpected status code %d from %s", resp.StatusCode(), rawURL)
	}

	body := resp.Body()
	if f.maxSize > 0 && int64(len(body)) > f.maxSize {
		return "", nil, fmt.Errorf("media from %s is %d bytes, limit %d", rawURL, len(body), f.maxSize)
	}

	mime, _ := DetectImage(body)
	return mime, body, nil
}

func (f *Fetcher) cacheBusted(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("invalid media URL %q: %w", rawURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("unsupported media URL scheme %q", u.Scheme)
	}
	q := u.Query()
	q.Set(CacheBustParam, strconv.FormatInt(f.now().UnixNano(), 10))
	u.RawQuery = q.Encode()
	return u.String(), nil
}
