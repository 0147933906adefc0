// Package javascript registers the JavaScript extraction strategies.
//
// npm-list runs `npm ls` against an installed tree when a lockfile exists.
// Repositories without one fall back to package-json, which reads declared
// ranges only. pnpm-lock reads pnpm's lockfile directly.
package javascript
