// Package broadcast provides latest-value streams.
//
// A Subject always has a current value. Subscribers receive that value on
// subscription and then only the most recent value at each receive: if a
// consumer falls behind, intermediate values are dropped, never queued.
// This matches how result lists are consumed: a list view only cares about
// the newest page set.
//
// Owners keep the *Subject and publish; consumers get the Stream view.
//
//	icons := broadcast.New(emptyList)
//	var view broadcast.Stream[List] = icons
//
//	ch, cancel := view.Subscribe()
//	defer cancel()
//	for list := range ch {
//	    render(list)
//	}
package broadcast
