// Package repository hosts the chunk storage backends. Each backend lives
// in its own subpackage and is exercised by a shared conformance suite.
package repository
