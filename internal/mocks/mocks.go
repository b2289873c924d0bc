// Package mocks holds testify mocks for the interfaces the HTTP and storage
// layers depend on.
package mocks
