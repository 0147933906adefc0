// Package ruby registers the Bundler extraction strategy.
package ruby
