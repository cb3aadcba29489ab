// Package environment implements the build and run boundary for a bot
// deployment: it materialises an isolated root directory from a source tree,
// conditionally installs declared dependencies, and starts exactly one entry
// process whose exit code is propagated unmodified.
//
// The lifecycle is strictly sequential: copy, conditional install, run. An
// Environment never transitions back from running to building; a new
// instance is created for every run.
package environment
