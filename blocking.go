package s3

// Every Bucket operation in this package takes a context.Context and
// blocks until the HTTP round trip finishes; there is no separate
// non-blocking/future-returning variant. A caller that wants concurrency
// gets it the ordinary Go way: call the blocking method from its own
// goroutine and synchronize on the result. This collapses the
// blocking/non-blocking duality rust-s3 exposes via Cargo feature flags
// (sync vs. tokio vs. async-std) into the one pipeline Go already gives
// every stdlib-shaped API: context for cancellation, goroutines for
// concurrency.
