package repository

import (
	"context"

	"github.com/EgiDanuajisantosoo/my-portfolio/internal/domain/hobby"
)

// HobbyRepository exposes persistence for hobby-list entries.
type HobbyRepository interface {
	List(ctx context.Context, filter hobby.Filter) ([]hobby.Entry, error)
	ExistsByMALID(ctx context.Context, kind string, malID int64) (bool, error)
	Create(ctx context.Context, entry hobby.Entry) (hobby.Entry, error)
	UpdateWatchingStatus(ctx context.Context, id int64, status string) error
}
