package media

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/disintegration/imaging"
	"github.com/dustin/go-humanize"
	"github.com/sirupsen/logrus"
)

const (
	downloadTimeout = 20 * time.Second
	maxDownloadSize = 20 << 20 // 20 MiB
	maxDimension    = 1920
	jpegQuality     = 85
)

var httpClient = &http.Client{Timeout: downloadTimeout}

// ResourceResolutionError wraps any failure while fetching or decoding an
// attachment. Publishing continues text-only when the resolver fails, so
// callers only need the classification, not the cause chain.
type ResourceResolutionError struct {
	URL string
	Err error
}

func (e *ResourceResolutionError) Error() string {
	return fmt.Sprintf("failed to resolve %s: %v", e.URL, e.Err)
}

func (e *ResourceResolutionError) Unwrap() error {
	return e.Err
}

// Resolver downloads remote images and normalizes them for upload:
// bounded to maxDimension on the long side, re-encoded as JPEG.
type Resolver struct{}

func NewResolver() *Resolver {
	return &Resolver{}
}

func (r *Resolver) Resolve(ctx context.Context, imageURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, &ResourceResolutionError{URL: imageURL, Err: err}
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, &ResourceResolutionError{URL: imageURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, &ResourceResolutionError{URL: imageURL, Err: fmt.Errorf("status %d", resp.StatusCode)}
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxDownloadSize))
	if err != nil {
		return nil, &ResourceResolutionError{URL: imageURL, Err: err}
	}

	img, err := imaging.Decode(bytes.NewReader(raw), imaging.AutoOrientation(true))
	if err != nil {
		return nil, &ResourceResolutionError{URL: imageURL, Err: err}
	}

	bounds := img.Bounds()
	if bounds.Dx() > maxDimension || bounds.Dy() > maxDimension {
		img = imaging.Fit(img, maxDimension, maxDimension, imaging.Lanczos)
	}

	var out bytes.Buffer
	if err := imaging.Encode(&out, img, imaging.JPEG, imaging.JPEGQuality(jpegQuality)); err != nil {
		return nil, &ResourceResolutionError{URL: imageURL, Err: err}
	}

	logrus.Debugf("[MEDIA] resolved image %s (%s -> %s)",
		imageURL, humanize.Bytes(uint64(len(raw))), humanize.Bytes(uint64(out.Len())))
	return out.Bytes(), nil
}
