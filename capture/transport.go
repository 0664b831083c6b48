package capture

import (
	"io"
	"net/http"
	"time"

	"github.com/gofrs/uuid"
)

// Transport returns an http.RoundTripper that records exchanges into the Recorder of the
// request context. Requests without a recorder pass through unchanged.
func Transport(next http.RoundTripper) http.RoundTripper {
	if next == nil {
		next = http.DefaultTransport
	}
	return &transport{next: next}
}

type transport struct {
	next http.RoundTripper
}

func (t *transport) RoundTrip(req *http.Request) (*http.Response, error) {
	rec, ok := FromContext(req.Context())
	if !ok {
		return t.next.RoundTrip(req)
	}

	exchange := Exchange{
		ID:             uuid.Must(uuid.NewV7()),
		Method:         req.Method,
		URL:            req.URL.String(),
		RequestTime:    time.Now(),
		RequestHeaders: req.Header.Clone(),
	}

	if req.Body != nil && req.Body != http.NoBody {
		body := NewLimitedBuffer(rec.options.MaxBodySize)
		exchange.RequestBody = body
		// RoundTrippers must not modify the request, so the body is swapped on a clone
		clone := req.Clone(req.Context())
		clone.Body = &teeBody{ReadCloser: req.Body, buf: body}
		req = clone
	}

	resp, err := t.next.RoundTrip(req)
	exchange.ResponseTime = time.Now()

	if resp != nil {
		exchange.StatusCode = resp.StatusCode
		exchange.ResponseHeaders = resp.Header.Clone()
		if resp.Body != nil && resp.Body != http.NoBody {
			body := NewLimitedBuffer(rec.options.MaxBodySize)
			exchange.ResponseBody = body
			resp.Body = &teeBody{ReadCloser: resp.Body, buf: body}
		}
	}
	exchange.Error = err

	rec.CollectExchange(exchange)
	return resp, err
}

// teeBody copies everything read from the body into buf.
type teeBody struct {
	io.ReadCloser
	buf *LimitedBuffer
}

func (b *teeBody) Read(p []byte) (int, error) {
	n, err := b.ReadCloser.Read(p)
	if n > 0 {
		_, _ = b.buf.Write(p[:n])
	}
	return n, err
}
