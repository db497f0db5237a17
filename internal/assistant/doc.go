// Package assistant owns the loaded language model and turns chat messages
// into replies. It is structured into small files by concern:
//
//   - assistant.go: the Assistant owner object, constructor and getters.
//   - config.go: Config and package defaults.
//   - ensure.go: EnsureLoaded, the guarded one-time model load.
//   - generate.go: Generate and the generation pipeline.
//   - prompt.go: prompt construction and reply extraction.
//   - admission.go: bounded queueing of concurrent generations.
//   - errors.go: typed errors carrying an HTTP status.
//   - events.go, eventpub_memory.go: lifecycle event publishing.
//   - metrics.go: Prometheus collectors for loads and generations.
//
// An Assistant is created once by the caller and passed explicitly to the
// HTTP layer; there is no package-level state besides metrics.
package assistant
