/*
Package tracing provides lightweight client-side tracing for REST calls.

Each navigation transition opens a trace (WithTrace); each HTTP call made on
its behalf is a span. Trace and span IDs travel to the API as headers so the
server logs can be joined with the client's:

	X-Trace-ID: trace for the whole transition (category lookup + icon list)
	X-Span-ID:  the individual HTTP call

# Usage

	tracer := tracing.New("iconfind", logger)
	defer tracer.Close()

	ctx = tracing.WithTrace(ctx)
	span, ctx := tracer.StartSpan(ctx, "GET icons")
	headers := map[string]string{}
	tracing.InjectTraceContext(ctx, headers)
	// ... perform call ...
	span.SetStatus(200)
	tracer.Finish(span)

Finished spans are logged by a background collector (buffer of 1000).
*/
package tracing
