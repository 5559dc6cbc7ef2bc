package client

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// maxPrealloc caps the buffer reserved from a declared Content-Length; the
// header is not trusted beyond that.
const maxPrealloc = 64 << 10

var errBodyClosed = errors.New("body closed before it was read")

// Response is a received API response. The body stays on the wire until Body
// is called and is cached from then on.
type Response struct {
	Status        int
	StatusText    string
	ContentLength int64
	Header        http.Header

	stream io.ReadCloser
	body   []byte
	err    error
	read   bool
}

func newResponse(resp *http.Response) *Response {
	return &Response{
		Status:        resp.StatusCode,
		StatusText:    resp.Status,
		ContentLength: resp.ContentLength,
		Header:        resp.Header,
		stream:        resp.Body,
	}
}

// Body reads the body on first use and returns the cached bytes afterwards.
// A read error is cached as well.
func (r *Response) Body() ([]byte, error) {
	if r.read {
		return r.body, r.err
	}
	r.read = true
	if r.stream == nil {
		return nil, nil
	}

	size := int64(bytes.MinRead)
	if r.ContentLength > 0 {
		size = min(r.ContentLength, maxPrealloc)
	}
	buf := bytes.NewBuffer(make([]byte, 0, size))
	_, err := buf.ReadFrom(r.stream)
	closeErr := r.stream.Close()
	r.stream = nil
	if err == nil {
		err = closeErr
	}
	if err != nil {
		r.err = fmt.Errorf("read body: %w", err)
		return nil, r.err
	}
	r.body = buf.Bytes()
	return r.body, nil
}

// ContentType returns the Content-Type header.
func (r *Response) ContentType() string {
	return r.Header.Get("Content-Type")
}

// Close releases an unread body. It is safe to call more than once.
func (r *Response) Close() error {
	if r.stream == nil {
		return nil
	}
	err := r.stream.Close()
	r.stream = nil
	r.read = true
	r.err = errBodyClosed
	return err
}
