// Package capture records what happens during a scenario (log records, HTTP exchanges,
// document store operations) so that a failed scenario can be explained afterwards.
//
// A Recorder is created per scenario and carried in the context.Context. The slog
// handler, the HTTP transport and the store observer look it up there; activity without a
// recorder in the context is not recorded.
package capture

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gofrs/uuid"
)

// RecorderOptions bounds what a recorder keeps.
type RecorderOptions struct {
	// LogCapacity is the number of log records kept. Default: 500
	LogCapacity uint64
	// ExchangeCapacity is the number of HTTP exchanges kept. Default: 100
	ExchangeCapacity uint64
	// StoreOpCapacity is the number of store operations kept. Default: 100
	StoreOpCapacity uint64
	// MaxBodySize is the number of body bytes kept per request or response. Default: 64KB
	MaxBodySize int
}

func DefaultRecorderOptions() RecorderOptions {
	return RecorderOptions{
		LogCapacity:      500,
		ExchangeCapacity: 100,
		StoreOpCapacity:  100,
		MaxBodySize:      64 << 10,
	}
}

// Recorder collects the activity of one scenario.
type Recorder struct {
	ID       uuid.UUID
	Scenario string
	Started  time.Time

	options   RecorderOptions
	logs      *RingBuffer[slog.Record]
	exchanges *RingBuffer[Exchange]
	storeOps  *RingBuffer[StoreOp]
}

func NewRecorder(scenario string) *Recorder {
	return NewRecorderWithOptions(scenario, DefaultRecorderOptions())
}

func NewRecorderWithOptions(scenario string, options RecorderOptions) *Recorder {
	defaults := DefaultRecorderOptions()
	if options.LogCapacity == 0 {
		options.LogCapacity = defaults.LogCapacity
	}
	if options.ExchangeCapacity == 0 {
		options.ExchangeCapacity = defaults.ExchangeCapacity
	}
	if options.StoreOpCapacity == 0 {
		options.StoreOpCapacity = defaults.StoreOpCapacity
	}
	if options.MaxBodySize <= 0 {
		options.MaxBodySize = defaults.MaxBodySize
	}

	return &Recorder{
		ID:        uuid.Must(uuid.NewV7()),
		Scenario:  scenario,
		Started:   time.Now(),
		options:   options,
		logs:      NewRingBuffer[slog.Record](options.LogCapacity),
		exchanges: NewRingBuffer[Exchange](options.ExchangeCapacity),
		storeOps:  NewRingBuffer[StoreOp](options.StoreOpCapacity),
	}
}

// CollectLog records a log record.
func (r *Recorder) CollectLog(record slog.Record) {
	r.logs.Add(record)
}

// CollectExchange records an HTTP exchange.
func (r *Recorder) CollectExchange(exchange Exchange) {
	r.exchanges.Add(exchange)
}

// CollectStoreOp records a document store operation.
func (r *Recorder) CollectStoreOp(op StoreOp) {
	r.storeOps.Add(op)
}

// Logs returns the retained log records, oldest first.
func (r *Recorder) Logs() []slog.Record {
	return r.logs.All()
}

// Exchanges returns the retained HTTP exchanges, oldest first.
func (r *Recorder) Exchanges() []Exchange {
	return r.exchanges.All()
}

// StoreOps returns the retained store operations, oldest first.
func (r *Recorder) StoreOps() []StoreOp {
	return r.storeOps.All()
}

// Exchange is a captured HTTP request/response pair
type Exchange struct {
	ID              uuid.UUID
	Method          string
	URL             string
	RequestTime     time.Time
	ResponseTime    time.Time
	StatusCode      int
	RequestHeaders  http.Header
	ResponseHeaders http.Header
	RequestBody     *LimitedBuffer
	ResponseBody    *LimitedBuffer
	Error           error
}

// Duration returns the duration of the exchange
func (e Exchange) Duration() time.Duration {
	return e.ResponseTime.Sub(e.RequestTime)
}

// StoreOp is a captured document store operation
type StoreOp struct {
	Name       string
	Collection string
	Filter     map[string]any
	Set        map[string]any
	Affected   int64
	Timestamp  time.Time
	Duration   time.Duration
	Error      error
}

type recorderKeyType struct{}

var recorderKey = recorderKeyType{}

// WithRecorder returns a new context carrying rec.
func WithRecorder(ctx context.Context, rec *Recorder) context.Context {
	return context.WithValue(ctx, recorderKey, rec)
}

// FromContext returns the recorder of ctx, or nil and false if none is set.
func FromContext(ctx context.Context) (*Recorder, bool) {
	if ctx == nil {
		return nil, false
	}
	rec, ok := ctx.Value(recorderKey).(*Recorder)
	return rec, ok && rec != nil
}
