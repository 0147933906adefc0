// Package languages assembles the built-in strategy registry.
package languages

import (
	"github.com/matzehuels/shed/pkg/deps"
	"github.com/matzehuels/shed/pkg/deps/java"
	"github.com/matzehuels/shed/pkg/deps/javascript"
	"github.com/matzehuels/shed/pkg/deps/python"
	"github.com/matzehuels/shed/pkg/deps/ruby"
	"github.com/matzehuels/shed/pkg/deps/rust"
)

// Default holds every language shed can extract. Languages detected but
// missing here are reported as unsupported.
var Default = deps.NewRegistry(
	python.Language,
	javascript.Language,
	java.Language,
	ruby.Language,
	rust.Language,
)
