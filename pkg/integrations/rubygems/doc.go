// Package rubygems reads license metadata from rubygems.org.
package rubygems
