// Package repository provides a generic repository built on Bun for one entity
// type per instance: CRUD primitives, query-by-example reads and paginated reads.
// A repository is bound to either the pooled database or a caller's transaction,
// so a single operation serves both immediate and deferred commits.
package repository
