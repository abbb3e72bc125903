package models

import "context"

// IslandStore persists islands. GetIsland returns nil, nil for unknown users.
type IslandStore interface {
	GetIsland(ctx context.Context, userID int64) (*Island, error)
	SaveIsland(ctx context.Context, island *Island) error
	ListIslands(ctx context.Context) ([]Island, error)
}
