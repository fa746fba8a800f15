package transition

// Package transition animates a tapped thumbnail into a full-screen viewer
// and back. Every derived quantity of a tick (position, size, corner radius,
// drag scale and opacities) is a pure function of one progress scalar and
// the two drag offsets, so they cannot drift apart.
//
// Controller is a synchronous state machine advanced by Tick. Loop confines
// a Controller to its own goroutine and ticks it at display rate, while host
// callbacks are delivered on a separate application queue.
