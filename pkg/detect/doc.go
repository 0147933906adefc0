// Package detect guesses which programming languages a repository uses.
//
// Detection is a pure read of the working tree. Files are listed through git
// when the root is a work tree, so ignored build output does not skew the
// result, and through a filesystem walk otherwise. Each file is classified
// by extension, by well-known manifest name, or by the interpreter named in
// its shebang line. A language's confidence is its share of classified
// bytes.
package detect
