package storage

import "pagestack/internal/ports"

// Store is the artifact storage contract used across the service.
// It is an alias to ports.ArtifactStore to keep call-sites simple.
type Store = ports.ArtifactStore
