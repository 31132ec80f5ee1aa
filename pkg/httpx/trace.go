package httpx

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"net/http"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// TraceHeader carries the trace id on requests and responses.
const TraceHeader = "X-Trace-ID"

// TraceID makes every request part of a trace and echoes the trace id in the
// X-Trace-ID response header.
//
// A valid 32 hex digit X-Trace-ID is adopted as the remote parent and takes
// precedence over a W3C traceparent header. Otherwise an incoming
// traceparent is honoured, and failing that a new trace id is generated. It
// must run before otelhttp so the server span joins the chosen trace.
func TraceID() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			tid, ok := ParseTraceID(r.Header.Get(TraceHeader))
			switch {
			case ok:
				// Stop otelhttp from re-extracting a competing parent.
				r.Header.Del("traceparent")
				r.Header.Del("tracestate")
				ctx = withRemoteParent(ctx, tid)
			default:
				extracted := otel.GetTextMapPropagator().Extract(ctx, propagation.HeaderCarrier(r.Header))
				if parent := trace.SpanContextFromContext(extracted); parent.IsValid() {
					tid = parent.TraceID()
				} else {
					tid = newTraceID()
					ctx = withRemoteParent(ctx, tid)
				}
			}

			w.Header().Set(TraceHeader, tid.String())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func withRemoteParent(ctx context.Context, tid trace.TraceID) context.Context {
	return trace.ContextWithRemoteSpanContext(ctx, trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    tid,
		SpanID:     newSpanID(),
		TraceFlags: trace.FlagsSampled,
		Remote:     true,
	}))
}

// ParseTraceID accepts a 32 hex digit, non-zero trace id. Dashes are
// ignored so UUID-formatted ids are accepted as well.
func ParseTraceID(s string) (trace.TraceID, bool) {
	s = strings.ToLower(strings.ReplaceAll(strings.TrimSpace(s), "-", ""))
	if len(s) != 32 {
		return trace.TraceID{}, false
	}

	var tid trace.TraceID
	if _, err := hex.Decode(tid[:], []byte(s)); err != nil {
		return trace.TraceID{}, false
	}
	return tid, tid.IsValid()
}

func newTraceID() trace.TraceID {
	var tid trace.TraceID
	for !tid.IsValid() {
		_, _ = rand.Read(tid[:])
	}
	return tid
}

func newSpanID() trace.SpanID {
	var sid trace.SpanID
	for !sid.IsValid() {
		_, _ = rand.Read(sid[:])
	}
	return sid
}
