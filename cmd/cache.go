package main

import (
	"context"
	"time"

	"github.com/urfave/cli/v3"

	"tidex/internal/models"
	"tidex/internal/repositories"
)

// CacheSync mirrors the remote library into the local sqlite cache so
// 'search --cached' can run without touching the API.
func (r *Runner) CacheSync(ctx context.Context, cmd *cli.Command) error {
	svc, err := r.service()
	if err != nil {
		return err
	}

	db, err := r.openCache()
	if err != nil {
		return err
	}
	defer db.Close()

	trackRepo := repositories.NewTrackRepository(db)
	playlistRepo := repositories.NewPlaylistRepository(db)

	r.logger.Info("syncing favorites")
	favorites, err := svc.FetchFavorites(ctx)
	if err != nil {
		return err
	}
	if err := trackRepo.ReplaceSource(models.SourceFavorites, favorites); err != nil {
		return err
	}

	r.logger.Info("syncing playlists")
	playlists, err := svc.FetchPlaylists(ctx)
	if err != nil {
		return err
	}

	entries := make([]repositories.PlaylistCacheEntry, 0, len(playlists))
	synced := len(favorites)

	for _, playlist := range playlists {
		tracks, err := svc.FetchPlaylistTracks(ctx, playlist.ID)
		if err != nil {
			r.logger.Warn("skipping playlist", "name", playlist.Name, "error", err)
			continue
		}

		if err := trackRepo.ReplaceSource(playlist.Name, tracks); err != nil {
			return err
		}

		entries = append(entries, repositories.PlaylistCacheEntry{
			ID:          playlist.ID,
			Name:        playlist.Name,
			Description: playlist.Description,
			TrackCount:  len(tracks),
		})
		synced += len(tracks)
	}

	if err := playlistRepo.Replace(entries); err != nil {
		return err
	}

	r.writePlain("✓ Cached %d tracks from favorites and %d playlists\n", synced, len(entries))
	return nil
}

// CacheClear deletes every cached row.
func (r *Runner) CacheClear(ctx context.Context, cmd *cli.Command) error {
	db, err := r.openCache()
	if err != nil {
		return err
	}
	defer db.Close()

	if err := repositories.NewTrackRepository(db).DeleteAll(); err != nil {
		return err
	}
	if err := repositories.NewPlaylistRepository(db).DeleteAll(); err != nil {
		return err
	}

	return r.writePlain("✓ Cache cleared\n")
}

// CacheStatus prints cache row counts.
func (r *Runner) CacheStatus(ctx context.Context, cmd *cli.Command) error {
	db, err := r.openCache()
	if err != nil {
		return err
	}
	defer db.Close()

	trackCount, err := repositories.NewTrackRepository(db).Count()
	if err != nil {
		return err
	}
	entries, err := repositories.NewPlaylistRepository(db).List()
	if err != nil {
		return err
	}

	r.writePlain("Tracks cached: %d\n", trackCount)
	r.writePlain("Playlists cached: %d\n", len(entries))
	for _, entry := range entries {
		r.writePlain("  %s (%d tracks, synced %s)\n", entry.Name, entry.TrackCount, entry.SyncedAt.Format(time.RFC822))
	}
	return nil
}
