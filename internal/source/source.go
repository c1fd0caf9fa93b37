// Package source loads registration payloads from local files, http(s)
// URLs and ftp URLs.
package source

import (
	"context"
	"io"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// maxPayload caps the size of a single registration export.
const maxPayload = 64 << 20

// Options configures a Loader.
type Options struct {
	Timeout    time.Duration
	MaxRetries int
	// RatePerSec limits requests per remote host. Zero disables limiting.
	RatePerSec float64
	UserAgent  string
	// BackoffBase is the first retry delay; it doubles per attempt.
	BackoffBase time.Duration
}

// Loader resolves a location to payload bytes.
type Loader struct {
	http *HTTPLoader
	ftp  *FTPLoader
}

// NewLoader creates a Loader for all supported schemes.
func NewLoader(opts Options) *Loader {
	return &Loader{
		http: NewHTTPLoader(opts),
		ftp:  NewFTPLoader(opts.Timeout),
	}
}

// Load reads the payload at location. Locations without an http, https or
// ftp scheme are treated as local paths.
func (l *Loader) Load(ctx context.Context, location string) ([]byte, error) {
	location = strings.TrimSpace(location)
	if location == "" {
		return nil, eris.New("source: empty location")
	}

	var (
		rc  io.ReadCloser
		err error
	)
	switch scheme(location) {
	case "http", "https":
		rc, err = l.http.Open(ctx, location)
	case "ftp":
		rc, err = l.ftp.Open(ctx, location)
	default:
		rc, err = os.Open(location)
		if err != nil {
			err = eris.Wrapf(err, "source: open %s", location)
		}
	}
	if err != nil {
		return nil, err
	}
	defer rc.Close() //nolint:errcheck

	data, err := readLimited(rc)
	if err != nil {
		return nil, eris.Wrapf(err, "source: read %s", location)
	}
	zap.L().Debug("payload loaded", zap.String("location", location), zap.Int("bytes", len(data)))
	return data, nil
}

func scheme(location string) string {
	u, err := url.Parse(location)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Scheme)
}

func readLimited(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxPayload+1))
	if err != nil {
		return nil, err
	}
	if len(data) > maxPayload {
		return nil, eris.Errorf("payload exceeds %d bytes", maxPayload)
	}
	return data, nil
}
