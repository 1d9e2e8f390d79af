// Package types holds the query objects, sort descriptors, pagination math and
// enums shared by the repository, the service façade and entity services.
package types
