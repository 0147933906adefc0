// Package pkg provides the core libraries for shed, the open-source
// dependency inventory.
//
// # Overview
//
// Shed turns a source repository into a list of its third-party packages,
// each with a version, an ecosystem, how it was found and the license it is
// distributed under. The pkg directory is organized into four areas:
//
//  1. Domain - records, strategies and the stages that produce them
//  2. Infrastructure - caching, isolation, configuration and errors
//  3. Integrations - registry and search clients used for license research
//  4. Outputs - result files, the declaration document and the run archive
//
// # Architecture
//
// The data flow of one run:
//
//	Repository
//	     ↓
//	[detect] (classify files, rank languages)
//	     ↓
//	[deps] + [sandbox] (run each applicable strategy in isolation)
//	     ↓
//	[normalize] (parse, merge, deduplicate)
//	     ↓
//	[license] + [research] (cached, retried license lookup)
//	     ↓
//	[report] / [archive] (.shed/ files, MongoDB)
//
// [pipeline] drives these stages as an explicit state machine.
//
// # Quick Start
//
//	runner := pipeline.NewRunner(
//	    languages.Default,
//	    sandbox.NewRunner(&sandbox.Docker{}, logger),
//	    license.New(research.NewRegistry(), nil, logger),
//	    logger,
//	)
//	runner.Sinks = []pipeline.Sink{report.NewWriter("Acme", "oss@acme.test", logger)}
//	summary, err := runner.Execute(ctx, "./billing", "billing")
//
// # Main Packages
//
// ## Domain
//
// [deps] - Records, ecosystems, open-source status, identity keys and the
// closed strategy registry. Language subpackages (python, javascript, java,
// ruby, rust) define strategies and their output parsers; [deps/languages]
// assembles the default registry.
//
// [detect] - Language detection by file extension, manifest name and
// shebang, weighted by bytes.
//
// [normalize] - Turns raw extractor output into canonical records. Merging
// is commutative and yields one record per package version.
//
// [license] - License classification and the resolver: one research query
// per package, bounded concurrency, retries with backoff, and a
// first-writer-wins cache.
//
// [pipeline] - The run state machine, diagnostics and summary.
//
// ## Infrastructure
//
// [sandbox] - Isolated extractor execution in Docker containers or
// temporary local copies, with timeouts and output limits.
//
// [cache] - Byte caches (file, SQLite, Redis, memory) with TTLs and atomic
// add.
//
// [config] - TOML/YAML configuration with environment overrides.
//
// [errors] - Structured error codes shared by every stage.
//
// [httputil] - Retry with exponential backoff for transient failures.
//
// [observability] - Hooks for stage, extraction, research and cache events.
//
// ## External Integrations
//
// [integrations] - HTTP clients for npm, PyPI, crates.io, RubyGems and Maven
// Central that read declared licenses, plus GitHub for repository licenses.
//
// [research] - Research backends: registry metadata with a repository
// license fallback, web search, and a chat model that condenses search
// results.
//
// ## Outputs
//
// [report] - dependencies.json, diagnostics.json and the open-source
// declaration.
//
// [archive] - Optional MongoDB archive of completed runs.
//
// # Testing
//
//	go test ./...                 # All tests
//	go test ./pkg/license/...     # Specific package
//	SHED_TEST_MONGO_URI=mongodb://localhost go test ./pkg/archive/...
//
// [deps]: https://pkg.go.dev/github.com/matzehuels/shed/pkg/deps
// [deps/languages]: https://pkg.go.dev/github.com/matzehuels/shed/pkg/deps/languages
// [detect]: https://pkg.go.dev/github.com/matzehuels/shed/pkg/detect
// [normalize]: https://pkg.go.dev/github.com/matzehuels/shed/pkg/normalize
// [license]: https://pkg.go.dev/github.com/matzehuels/shed/pkg/license
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/shed/pkg/pipeline
// [sandbox]: https://pkg.go.dev/github.com/matzehuels/shed/pkg/sandbox
// [cache]: https://pkg.go.dev/github.com/matzehuels/shed/pkg/cache
// [config]: https://pkg.go.dev/github.com/matzehuels/shed/pkg/config
// [errors]: https://pkg.go.dev/github.com/matzehuels/shed/pkg/errors
// [httputil]: https://pkg.go.dev/github.com/matzehuels/shed/pkg/httputil
// [observability]: https://pkg.go.dev/github.com/matzehuels/shed/pkg/observability
// [integrations]: https://pkg.go.dev/github.com/matzehuels/shed/pkg/integrations
// [research]: https://pkg.go.dev/github.com/matzehuels/shed/pkg/research
// [report]: https://pkg.go.dev/github.com/matzehuels/shed/pkg/report
// [archive]: https://pkg.go.dev/github.com/matzehuels/shed/pkg/archive
package pkg
