package replica

import (
	"fmt"

	"apikeep/internal/config"
	"apikeep/internal/snapshot"
)

// NewReplicaFromConfig creates a Replica based on the config type.
// Type "none" (or empty) returns nil: no replica is wired.
func NewReplicaFromConfig(cfg config.ReplicaConfig) (snapshot.Replica, error) {
	switch cfg.Type {
	case "", "none":
		return nil, nil
	case "memory":
		return NewMemoryReplica(cfg.Name), nil
	case "filesystem":
		if cfg.FSRoot == "" {
			return nil, fmt.Errorf("filesystem replica requires fs_root to be set")
		}
		return NewFileSystemReplica(cfg.Name, cfg.FSRoot)
	case "s3":
		return NewS3Replica(cfg)
	default:
		return nil, fmt.Errorf("unknown replica type: %s", cfg.Type)
	}
}
