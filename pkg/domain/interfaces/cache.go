package interfaces

import (
	"context"

	"github.com/tubesage/tubesage/pkg/domain/types"
)

// NamespaceCache tracks which namespaces are known to hold indexed chunks.
// It is an optimization layer in front of the vector store; the store remains
// the source of truth.
type NamespaceCache interface {
	// Exists reports whether the namespace holds indexed chunks. A store
	// lookup failure is treated as "not indexed" rather than surfaced.
	Exists(ctx context.Context, ns types.Namespace) bool

	// MarkIngested records a successful ingestion for the namespace.
	MarkIngested(ns types.Namespace)
}
