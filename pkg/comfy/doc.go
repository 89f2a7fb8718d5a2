// Package comfy implements the remote job client for a ComfyUI-compatible
// queue API: prompt submission, bounded status polling, and best-effort
// interruption.
//
// The client is a thin state machine over three endpoints:
//
//	POST {base}/prompt        submit a compiled prompt, returns a prompt id
//	GET  {base}/history/{id}  job status and outputs; 404 means "not queued yet"
//	POST {base}/interrupt     advisory cancellation of in-flight work
//
// Polling is wall-clock bounded and cooperative: a caller-supplied stop
// flag is evaluated at the top of every iteration and a tick callback lets
// a host event loop stay responsive during the wait. Cancellation,
// timeout, and remote execution failure surface as distinct error values
// so callers can report them separately.
//
// All timing parameters are injectable per client via [Config]; nothing in
// this package carries shared mutable state.
package comfy
