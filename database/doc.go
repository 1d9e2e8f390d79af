// Package database owns the bun connection: it opens mysql, postgres or sqlite
// databases, runs versioned migrations and SQL seed files, and provides the
// unit-of-work helper the repositories run inside.
package database
