// Package sandbox runs extraction commands in isolated, disposable
// environments.
//
// A [Provider] acquires an [Env] holding a private copy of the repository.
// The original tree is never written to: the docker provider mounts it
// read-only at /src and copies it to /work inside the container, the local
// provider copies it to a temporary directory. [Runner] wraps a provider
// with per-strategy timeouts, output limits and a keyed lock allowing one
// run per (repository, strategy) at a time.
//
// A non-zero exit status is not an error: the result carries ExitCode and
// whatever the extractor printed, so partial output can still be parsed.
package sandbox
