package persistence

import (
	"context"
	"fmt"

	"easgateway/core/domain"

	"github.com/jmoiron/sqlx"
)

// FolderAdapter implements out.FolderRepository using PostgreSQL. The
// hierarchy is static per principal (SPEC_FULL.md §C): it is provisioned
// out of band, never written by this core.
type FolderAdapter struct {
	db *sqlx.DB
}

// NewFolderAdapter creates a new FolderAdapter.
func NewFolderAdapter(db *sqlx.DB) *FolderAdapter {
	return &FolderAdapter{db: db}
}

type folderEntity struct {
	ServerID    string `db:"server_id"`
	ParentID    string `db:"parent_id"`
	DisplayName string `db:"display_name"`
	Type        int    `db:"folder_type"`
}

func (e *folderEntity) toDomain() domain.Folder {
	return domain.Folder{
		ServerID:    e.ServerID,
		ParentID:    e.ParentID,
		DisplayName: e.DisplayName,
		Type:        e.Type,
	}
}

// ListFolders returns every folder belonging to a principal, ordered by
// server id so FolderSync responses are stable across identical requests.
func (a *FolderAdapter) ListFolders(ctx context.Context, principalID int64) ([]domain.Folder, error) {
	var entities []folderEntity
	query := `
		SELECT server_id, parent_id, display_name, folder_type
		FROM eas_folders
		WHERE principal_id = $1
		ORDER BY server_id
	`
	if err := a.db.SelectContext(ctx, &entities, query, principalID); err != nil {
		return nil, fmt.Errorf("persistence: list folders for principal %d: %w", principalID, err)
	}

	folders := make([]domain.Folder, len(entities))
	for i, e := range entities {
		folders[i] = e.toDomain()
	}
	return folders, nil
}
