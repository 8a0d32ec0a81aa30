package ld_api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/carbocation/pfx"
	"google.golang.org/api/option"
)

// The number of bytes fetched per range request
const rangeBlockSize = 64 * 1024

// rangeFetcher reads byte ranges of one remote object
type rangeFetcher interface {
	size(ctx context.Context) (int64, error)
	fetch(ctx context.Context, offset, length int64) (io.ReadCloser, error)
}

// newFileOpener returns an opener for the scheme of location and a function
// releasing any client it created
func newFileOpener(ctx context.Context, location string) (fileOpener, func(), error) {
	switch {
	case strings.HasPrefix(location, "http://"), strings.HasPrefix(location, "https://"):
		client := http.DefaultClient
		return func(ctx context.Context, path string) (io.ReadSeekCloser, error) {
			return newRangeFile(ctx, &httpFetcher{client: client, url: path})
		}, func() {}, nil

	case strings.HasPrefix(location, "gs://"):
		client, err := storage.NewClient(ctx)
		if err != nil {
			// Public buckets can be read without credentials
			client, err = storage.NewClient(ctx, option.WithoutAuthentication())
			if err != nil {
				return nil, nil, pfx.Err(err)
			}
		}
		return func(ctx context.Context, path string) (io.ReadSeekCloser, error) {
			bucket, object, err := splitGcsPath(path)
			if err != nil {
				return nil, err
			}
			return newRangeFile(ctx, &gcsFetcher{path: path, object: client.Bucket(bucket).Object(object)})
		}, func() { client.Close() }, nil

	case isLocal(location):
		return func(ctx context.Context, path string) (io.ReadSeekCloser, error) {
			return os.Open(path)
		}, func() {}, nil
	}

	return nil, nil, fmt.Errorf("unsupported genotype source location '%s'", location)
}

// splitGcsPath splits gs://bucket/object into its bucket and object
func splitGcsPath(path string) (string, string, error) {
	trimmed := strings.TrimPrefix(path, "gs://")
	bucket, object, ok := strings.Cut(trimmed, "/")
	if !ok || bucket == "" || object == "" {
		return "", "", fmt.Errorf("invalid gs:// path '%s'", path)
	}
	return bucket, object, nil
}

// rangeFile is a seekable view of a remote object. Reads are served from a
// block buffer that is refilled with one range request when exhausted.
type rangeFile struct {
	ctx     context.Context
	fetcher rangeFetcher
	length  int64
	offset  int64

	buffer      []byte
	bufferStart int64
}

func newRangeFile(ctx context.Context, fetcher rangeFetcher) (*rangeFile, error) {
	length, err := fetcher.size(ctx)
	if err != nil {
		return nil, err
	}
	return &rangeFile{ctx: ctx, fetcher: fetcher, length: length}, nil
}

func (f *rangeFile) Read(p []byte) (int, error) {
	if f.offset >= f.length {
		return 0, io.EOF
	}
	if f.offset < f.bufferStart || f.offset >= f.bufferStart+int64(len(f.buffer)) {
		if err := f.fill(); err != nil {
			return 0, err
		}
	}
	n := copy(p, f.buffer[f.offset-f.bufferStart:])
	f.offset += int64(n)
	return n, nil
}

func (f *rangeFile) fill() error {
	length := int64(rangeBlockSize)
	if remaining := f.length - f.offset; remaining < length {
		length = remaining
	}

	body, err := f.fetcher.fetch(f.ctx, f.offset, length)
	if err != nil {
		return err
	}
	defer body.Close()

	buffer := make([]byte, length)
	if _, err := io.ReadFull(body, buffer); err != nil {
		return pfx.Err(err)
	}
	f.buffer = buffer
	f.bufferStart = f.offset
	return nil
}

func (f *rangeFile) Seek(offset int64, whence int) (int64, error) {
	switch whence {
	case io.SeekStart:
	case io.SeekCurrent:
		offset += f.offset
	case io.SeekEnd:
		offset += f.length
	default:
		return 0, errors.New("rangeFile: invalid whence")
	}
	if offset < 0 {
		return 0, errors.New("rangeFile: negative position")
	}
	f.offset = offset
	return offset, nil
}

func (f *rangeFile) Close() error {
	f.buffer = nil
	return nil
}

// httpFetcher reads ranges of a URL with HTTP range requests
type httpFetcher struct {
	client *http.Client
	url    string
}

func (h *httpFetcher) size(ctx context.Context) (int64, error) {
	response, err := h.get(ctx, "bytes=0-0")
	if err != nil {
		return 0, err
	}
	defer response.Body.Close()

	switch response.StatusCode {
	case http.StatusPartialContent:
		// Content-Range: bytes 0-0/12345
		contentRange := response.Header.Get("Content-Range")
		_, total, ok := strings.Cut(contentRange, "/")
		if !ok || total == "*" {
			return 0, fmt.Errorf("cannot determine the size of %s from Content-Range '%s'", h.url, contentRange)
		}
		return strconv.ParseInt(total, 10, 64)
	case http.StatusOK:
		if response.ContentLength < 0 {
			return 0, fmt.Errorf("cannot determine the size of %s", h.url)
		}
		return response.ContentLength, nil
	case http.StatusNotFound:
		return 0, fmt.Errorf("%s: %w", h.url, os.ErrNotExist)
	}
	return 0, fmt.Errorf("unexpected status %s for %s", response.Status, h.url)
}

func (h *httpFetcher) fetch(ctx context.Context, offset, length int64) (io.ReadCloser, error) {
	response, err := h.get(ctx, fmt.Sprintf("bytes=%d-%d", offset, offset+length-1))
	if err != nil {
		return nil, err
	}

	switch {
	case response.StatusCode == http.StatusPartialContent:
		return response.Body, nil
	case response.StatusCode == http.StatusOK && offset == 0:
		// The server ignored the range, the body starts at the requested offset anyway
		return struct {
			io.Reader
			io.Closer
		}{io.LimitReader(response.Body, length), response.Body}, nil
	}
	response.Body.Close()
	return nil, fmt.Errorf("unexpected status %s for range %d-%d of %s", response.Status, offset, offset+length-1, h.url)
}

func (h *httpFetcher) get(ctx context.Context, byteRange string) (*http.Response, error) {
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, h.url, nil)
	if err != nil {
		return nil, pfx.Err(err)
	}
	request.Header.Set("Range", byteRange)
	return h.client.Do(request)
}

// gcsFetcher reads ranges of a Google Cloud Storage object
type gcsFetcher struct {
	path   string
	object *storage.ObjectHandle
}

func (g *gcsFetcher) size(ctx context.Context) (int64, error) {
	attrs, err := g.object.Attrs(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return 0, fmt.Errorf("%s: %w", g.path, os.ErrNotExist)
		}
		return 0, pfx.Err(err)
	}
	return attrs.Size, nil
}

func (g *gcsFetcher) fetch(ctx context.Context, offset, length int64) (io.ReadCloser, error) {
	reader, err := g.object.NewRangeReader(ctx, offset, length)
	if err != nil {
		return nil, pfx.Err(err)
	}
	return reader, nil
}
