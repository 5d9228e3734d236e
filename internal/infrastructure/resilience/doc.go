/*
Package resilience provides the call-shaping primitives used by the REST
transport: a circuit breaker and a cancellable debounce combinator.

# Circuit breaker

	breaker := resilience.New("api", resilience.Settings{
		MaxRequests: 3,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts resilience.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})

	resp, err := resilience.Execute(breaker, func() (*resty.Response, error) {
		return req.Get(url)
	})

States move as follows:

	Closed --[failures]-> Open --[timeout]-> Half-Open --[successes]-> Closed
	                                           |
	                                    [failure]
	                                           |
	                                           v
	                                         Open

A nil *Breaker admits every call, so callers can disable it by configuration.

# Debounce

Debounced delays each call by a fixed quiet period before it proceeds:

	retrieve := resilience.Debounced(250*time.Millisecond, fetch)
	data, err := retrieve(ctx)

The delay does not coalesce or reorder calls. Cancelling ctx during the wait
drops the call before any network I/O happens.
*/
package resilience
