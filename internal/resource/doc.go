/*
Package resource provides a generic REST client for the icon API.

A Client[M, B] serves one collection path and exposes the six resource
operations: Retrieve, List, Create, Update, PartialUpdate and Delete. Every
call waits out a short debounce before touching the network and converts
the server envelope into ClientData stamped with the client's clock.

Writes consult an auth.Gate first. When the gate has no credentials the
write is dropped: no request is sent, the result is (nil, nil), and the
configured Dismisser is notified.

# Transport

All clients share one Transport:

	resty -> retryablehttp (retries off by default) -> zstd/gzip decoding -> net/http

with a token-bucket rate limiter and a circuit breaker in front. Non-2xx
responses surface as *StatusError. Server errors and transport failures
count against the breaker; 4xx and cancellations do not.

# Usage

	transport := resource.NewTransport(resource.TransportConfigFrom(cfg), resource.Observers{
		Logger:  logger,
		Metrics: metrics,
		Tracer:  tracer,
	})
	icons := resource.New[types.Icon, types.Icon](transport, resource.Settings[types.Icon]{Path: "icons"})
	list, err := icons.List(ctx, resource.Params{"q": "cat", "page": 1})
*/
package resource
