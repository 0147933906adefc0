// Package github reads the license GitHub detected for a repository.
//
// Registries often link a package to its source repository without
// declaring a license. [Client.FetchLicense] asks the GitHub API for the
// license of that repository; [ExtractURL] finds the owner and name in the
// URLs a registry reported.
//
// A personal access token is optional. Without one the API allows 60
// requests per hour, with one 5000.
package github
