// Package domain holds the session data model and the pure rules that
// govern it: the roll transition function, the cooldown guard, and session
// creation. Nothing in this package performs I/O; every function is
// deterministic given its inputs so the retry coordinator can re-invoke it
// on every attempt.
package domain
