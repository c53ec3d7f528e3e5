// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// exportFlags are shared by every command that writes track listings.
func exportFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Write to this file instead of stdout",
		},
		&cli.StringFlag{
			Name:  "fields",
			Usage: "Comma-separated fields to include (id,title,artists,album,duration,playlist,source)",
		},
		&cli.StringFlag{
			Name:    "format",
			Aliases: []string{"f"},
			Usage:   "Output format: csv, simple, detailed, or ids",
		},
	}
}

// favoritesCommand exports the favorites collection
func favoritesCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "favorites",
		Aliases: []string{"favs"},
		Usage:   "Export favorite tracks",
		Flags: append(exportFlags(),
			&cli.StringFlag{
				Name:  "from-csv",
				Usage: "Re-format a previous CSV export instead of fetching",
			},
		),
		Action: r.Favorites,
	}
}

// playlistsCommand lists the user's playlists
func playlistsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "playlists",
		Usage:  "List playlists",
		Action: r.Playlists,
	}
}

// playlistCommand handles per-playlist operations
func playlistCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "playlist",
		Usage: "Playlist operations",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "Export the tracks of one playlist",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "playlist"},
				},
				Flags: append(exportFlags(),
					&cli.StringFlag{
						Name:  "from-csv",
						Usage: "Re-format a previous CSV export instead of fetching",
					},
				),
				Action: r.PlaylistList,
			},
			{
				Name:  "create",
				Usage: "Create a new playlist",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "name"},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "description",
						Aliases: []string{"d"},
						Usage:   "Playlist description",
					},
					&cli.StringFlag{
						Name:  "from-csv",
						Usage: "Populate the new playlist with the track ids of a CSV export",
					},
					&cli.StringSliceFlag{
						Name:    "track",
						Aliases: []string{"t"},
						Usage:   "Track id to add (repeatable)",
					},
					&cli.StringSliceFlag{
						Name:    "search",
						Aliases: []string{"s"},
						Usage:   "Add the best catalog match for this query (repeatable)",
					},
				},
				Action: r.PlaylistCreate,
			},
			{
				Name:  "add",
				Usage: "Add tracks to an existing playlist",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "playlist"},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "from-csv",
						Usage: "CSV export holding the track ids to add",
					},
					&cli.StringSliceFlag{
						Name:    "track",
						Aliases: []string{"t"},
						Usage:   "Track id to add (repeatable)",
					},
				},
				Action: r.PlaylistAdd,
			},
			{
				Name:  "reorder",
				Usage: "Rewrite a playlist to match the row order of a CSV export",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "playlist"},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "from-csv",
						Usage:    "CSV export defining the new track order",
						Required: true,
					},
				},
				Action: r.PlaylistReorder,
			},
		},
	}
}

// allPlaylistsCommand exports every playlist's tracks in one listing
func allPlaylistsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "all-playlists",
		Usage:  "Export the tracks of every playlist, with playlist attribution",
		Flags:  exportFlags(),
		Action: r.AllPlaylists,
	}
}

// searchCommand searches the whole library
func searchCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "search",
		Usage: "Search favorites and playlists for tracks",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "query"},
		},
		Flags: append(exportFlags(),
			&cli.BoolFlag{
				Name:  "cached",
				Usage: "Search the local cache instead of the live library",
			},
			&cli.BoolFlag{
				Name:  "remote",
				Usage: "Search the Tidal catalog instead of your library",
			},
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Maximum number of catalog results with --remote",
				Value: 50,
			},
			&cli.StringFlag{
				Name:  "from-csv",
				Usage: "Search a previous CSV export instead of the live library",
			},
		),
		Action: r.Search,
	}
}

// emptyFavoritesCommand clears the favorites collection
func emptyFavoritesCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "empty-favorites",
		Usage: "Remove every track from favorites",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "yes",
				Aliases: []string{"y"},
				Usage:   "Skip the confirmation prompt",
			},
		},
		Action: r.EmptyFavorites,
	}
}

// authCommand handles authentication operations
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Manage authentication",
		Commands: []*cli.Command{
			{
				Name:  "login",
				Usage: "Log in to Tidal",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "browser",
						Usage: "Use the browser redirect flow instead of a device code",
					},
					&cli.BoolFlag{
						Name:  "no-open",
						Usage: "Print the login URL instead of opening a browser",
					},
				},
				Action: r.AuthLogin,
			},
			{
				Name:  "status",
				Usage: "Show the current authentication state",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Print the state as JSON",
					},
				},
				Action: r.AuthStatus,
			},
		},
	}
}

// cacheCommand manages the local search cache
func cacheCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "cache",
		Usage: "Manage the local track cache",
		Commands: []*cli.Command{
			{
				Name:   "sync",
				Usage:  "Mirror favorites and playlists into the local cache",
				Action: r.CacheSync,
			},
			{
				Name:   "clear",
				Usage:  "Delete all cached tracks and playlists",
				Action: r.CacheClear,
			},
			{
				Name:   "status",
				Usage:  "Show cache row counts",
				Action: r.CacheStatus,
			},
		},
	}
}

// setupCommand initializes configuration and the cache database
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "setup",
		Usage:  "Create the config file and initialize the cache database",
		Action: r.Setup,
	}
}
