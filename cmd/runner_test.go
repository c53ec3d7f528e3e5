package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/urfave/cli/v3"

	"tidex/internal/models"
	"tidex/internal/services"
	"tidex/internal/shared"
	th "tidex/internal/testing"
)

// scriptedPrompter answers picker and confirmation prompts without a terminal.
type scriptedPrompter struct {
	choice  *models.Playlist
	pickErr error
	confirm bool
}

func (p *scriptedPrompter) PickPlaylist(ctx context.Context, playlists []models.Playlist) (*models.Playlist, error) {
	return p.choice, p.pickErr
}

func (p *scriptedPrompter) Confirm(ctx context.Context, question string) (bool, error) {
	return p.confirm, nil
}

func newTestRunner(collection services.Collection, prompter *scriptedPrompter) (*Runner, *bytes.Buffer) {
	output := &bytes.Buffer{}
	opts := RunnerOpts{
		Collection: collection,
		Logger:     shared.NewLogger(io.Discard),
		Output:     output,
	}
	if prompter != nil {
		opts.Prompter = prompter
	}
	return NewRunner(opts), output
}

func runCommand(t *testing.T, runner *Runner, args ...string) error {
	t.Helper()
	app := &cli.Command{Name: "tidex", Commands: runner.register()}
	return app.Run(context.Background(), append([]string{"tidex"}, args...))
}

func sampleFavorites() []models.Track {
	return []models.Track{
		{ID: "11", Title: "Heroes", Artists: []string{"David Bowie"}, Album: "Heroes", Duration: 371},
		{ID: "12", Title: "Nightswimming", Artists: []string{"R.E.M."}, Album: "Automatic for the People", Duration: 258},
	}
}

func libraryMock() *th.MockCollection {
	return &th.MockCollection{
		FavoritesFunc: func(ctx context.Context) ([]models.Track, error) {
			return sampleFavorites(), nil
		},
		PlaylistsFunc: func(ctx context.Context) ([]models.Playlist, error) {
			return []models.Playlist{
				{ID: "p1", Name: "Night Drive", TrackCount: 1},
			}, nil
		},
		PlaylistTracksFunc: func(ctx context.Context, playlistID string) ([]models.Track, error) {
			return []models.Track{
				{ID: "21", Title: "Nightcall", Artists: []string{"Kavinsky"}, Album: "OutRun", Duration: 258, Playlist: "Night Drive"},
			}, nil
		},
	}
}

func writeExportCSV(t *testing.T, rows ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "export.csv")
	content := "id,title,artists,album,duration\n" + strings.Join(rows, "\n") + "\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write csv fixture: %v", err)
	}
	return path
}

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with dependencies provided", func(t *testing.T) {
			config := shared.DefaultConfig()
			logger := shared.NewLogger(nil)
			output := &bytes.Buffer{}
			mock := &th.MockCollection{}

			runner := NewRunner(RunnerOpts{
				Config:     config,
				ConfigPath: "/test/path/config.toml",
				Collection: mock,
				Logger:     logger,
				Output:     output,
			})

			if runner.config != config {
				t.Error("expected config to be set")
			}
			if runner.configPath != "/test/path/config.toml" {
				t.Errorf("expected configPath to be set, got %s", runner.configPath)
			}
			if runner.collection != services.Collection(mock) {
				t.Error("expected collection to be set")
			}
			if runner.logger != logger {
				t.Error("expected logger to be set")
			}
			if runner.output != output {
				t.Error("expected output to be set")
			}
			if runner.engine == nil {
				t.Error("expected engine to be constructed")
			}
		})

		t.Run("with nil config uses defaults", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})

			if runner.config == nil {
				t.Error("expected default config to be set")
			}
			if runner.configPath != "config.toml" {
				t.Errorf("expected default configPath, got %s", runner.configPath)
			}
		})

		t.Run("with nil output uses stdout", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})

			if runner.output != os.Stdout {
				t.Error("expected output to default to os.Stdout")
			}
		})
	})

	t.Run("register", func(t *testing.T) {
		runner, _ := newTestRunner(nil, nil)
		commands := runner.register()

		if len(commands) == 0 {
			t.Error("expected at least one command to be registered")
		}
		for i, cmd := range commands {
			if cmd == nil {
				t.Errorf("command at index %d is nil", i)
			}
		}
	})

	t.Run("writePlain", func(t *testing.T) {
		t.Run("writes formatted text", func(t *testing.T) {
			runner, output := newTestRunner(nil, nil)

			if err := runner.writePlain("hello %s", "world"); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if output.String() != "hello world" {
				t.Errorf("expected 'hello world', got %q", output.String())
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &th.FWriter{}, Logger: shared.NewLogger(io.Discard)})

			err := runner.writePlain("test")
			if err == nil {
				t.Fatal("expected error from failing writer")
			}
			if !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})
	})

	t.Run("exportTracks surfaces console write failures", func(t *testing.T) {
		mock := &th.MockCollection{
			FavoritesFunc: func(ctx context.Context) ([]models.Track, error) {
				return sampleFavorites(), nil
			},
		}
		runner := NewRunner(RunnerOpts{
			Collection: mock,
			Output:     &th.FWriter{},
			Logger:     shared.NewLogger(io.Discard),
		})

		err := runCommand(t, runner, "favorites", "--format", "ids")
		if err == nil {
			t.Fatal("expected error from failing writer")
		}
		if !strings.Contains(err.Error(), "write failed") {
			t.Errorf("expected write error, got %v", err)
		}
	})

	t.Run("service", func(t *testing.T) {
		t.Run("fails without a collection", func(t *testing.T) {
			runner, _ := newTestRunner(nil, nil)

			_, err := runner.service()
			if !errors.Is(err, shared.ErrMissingCredentials) {
				t.Fatalf("expected ErrMissingCredentials, got %v", err)
			}
			if !strings.Contains(err.Error(), "tidex auth login") {
				t.Errorf("error should point at the login command, got %v", err)
			}
		})

		t.Run("returns the configured collection", func(t *testing.T) {
			mock := &th.MockCollection{}
			runner, _ := newTestRunner(mock, nil)

			svc, err := runner.service()
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if svc != services.Collection(mock) {
				t.Error("expected the mock collection back")
			}
		})
	})

	t.Run("persistConfig", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		config := shared.DefaultConfig()
		config.Credentials.Tidal.ClientID = "persisted_id"

		runner := NewRunner(RunnerOpts{
			Config:     config,
			ConfigPath: configPath,
			Logger:     shared.NewLogger(io.Discard),
		})

		if err := runner.persistConfig(); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		loaded, err := shared.LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to reload config: %v", err)
		}
		if loaded.Credentials.Tidal.ClientID != "persisted_id" {
			t.Errorf("expected persisted client id, got %s", loaded.Credentials.Tidal.ClientID)
		}
	})
}

func TestFavoritesCommand(t *testing.T) {
	t.Run("renders a table to the console", func(t *testing.T) {
		runner, output := newTestRunner(libraryMock(), nil)

		if err := runCommand(t, runner, "favorites"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		result := output.String()
		if !strings.Contains(result, "Title") {
			t.Errorf("expected header row, got %q", result)
		}
		if !strings.Contains(result, "Heroes") || !strings.Contains(result, "Nightswimming") {
			t.Errorf("expected both favorites in output, got %q", result)
		}
		if !strings.Contains(result, "David Bowie") {
			t.Errorf("expected artist column, got %q", result)
		}
	})

	t.Run("format ids prints bare ids", func(t *testing.T) {
		runner, output := newTestRunner(libraryMock(), nil)

		if err := runCommand(t, runner, "favorites", "--format", "ids"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if output.String() != "11\n12\n" {
			t.Errorf("expected bare ids, got %q", output.String())
		}
	})

	t.Run("exports to a file with --output", func(t *testing.T) {
		runner, output := newTestRunner(libraryMock(), nil)
		path := filepath.Join(t.TempDir(), "favorites.csv")

		if err := runCommand(t, runner, "favorites", "--output", path); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if !strings.Contains(output.String(), "✓ Exported 2 tracks to "+path) {
			t.Errorf("expected export confirmation, got %q", output.String())
		}

		content := th.MustReadFile(t, path)
		if !strings.HasPrefix(content, "id,title,artists,album,duration\n") {
			t.Errorf("expected default csv header, got %q", content)
		}
		if !strings.Contains(content, "David Bowie") {
			t.Errorf("expected track row in file, got %q", content)
		}
	})

	t.Run("projects selected fields", func(t *testing.T) {
		runner, output := newTestRunner(libraryMock(), nil)
		path := filepath.Join(t.TempDir(), "titles.csv")

		if err := runCommand(t, runner, "favorites", "--fields", "title,artists", "--output", path); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		content := th.MustReadFile(t, path)
		if !strings.HasPrefix(content, "title,artists\n") {
			t.Errorf("expected projected header, got %q", content)
		}
		if strings.Contains(content, "371") {
			t.Errorf("duration should not appear in projection, got %q", content)
		}
		if !strings.Contains(output.String(), "✓ Exported 2 tracks") {
			t.Errorf("expected export confirmation, got %q", output.String())
		}
	})

	t.Run("rejects unknown fields", func(t *testing.T) {
		runner, _ := newTestRunner(libraryMock(), nil)

		err := runCommand(t, runner, "favorites", "--fields", "title,bogus")
		if !errors.Is(err, shared.ErrUnknownField) {
			t.Fatalf("expected ErrUnknownField, got %v", err)
		}
	})

	t.Run("reprojects a previous export with --from-csv", func(t *testing.T) {
		path := writeExportCSV(t,
			`31,Space Oddity,David Bowie,David Bowie,318`,
			`32,Starman,David Bowie,"The Rise and Fall of Ziggy Stardust",254`,
		)

		// No collection configured: the file is the only data source.
		runner, output := newTestRunner(nil, nil)

		if err := runCommand(t, runner, "favorites", "--from-csv", path, "--format", "ids"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if output.String() != "31\n32\n" {
			t.Errorf("expected ids from the csv, got %q", output.String())
		}
	})

	t.Run("fails without credentials", func(t *testing.T) {
		runner, _ := newTestRunner(nil, nil)

		err := runCommand(t, runner, "favorites")
		if !errors.Is(err, shared.ErrMissingCredentials) {
			t.Fatalf("expected ErrMissingCredentials, got %v", err)
		}
	})

	t.Run("propagates fetch failures", func(t *testing.T) {
		mock := &th.MockCollection{
			FavoritesFunc: func(ctx context.Context) ([]models.Track, error) {
				return nil, fmt.Errorf("%w: favorites", shared.ErrFetchFailed)
			},
		}
		runner, _ := newTestRunner(mock, nil)

		err := runCommand(t, runner, "favorites")
		if !errors.Is(err, shared.ErrFetchFailed) {
			t.Fatalf("expected ErrFetchFailed, got %v", err)
		}
	})
}

func TestPlaylistsCommand(t *testing.T) {
	t.Run("lists playlists", func(t *testing.T) {
		runner, output := newTestRunner(libraryMock(), nil)

		if err := runCommand(t, runner, "playlists"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(output.String(), "p1  Night Drive (1 tracks)") {
			t.Errorf("expected playlist line, got %q", output.String())
		}
	})

	t.Run("reports an empty library", func(t *testing.T) {
		runner, output := newTestRunner(&th.MockCollection{}, nil)

		if err := runCommand(t, runner, "playlists"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(output.String(), "No playlists found.") {
			t.Errorf("expected empty message, got %q", output.String())
		}
	})
}

func TestResolvePlaylist(t *testing.T) {
	playlists := []models.Playlist{
		{ID: "p1", Name: "Night Drive"},
		{ID: "p2", Name: "Workout"},
	}
	mock := &th.MockCollection{
		PlaylistsFunc: func(ctx context.Context) ([]models.Playlist, error) {
			return playlists, nil
		},
	}

	t.Run("matches by id", func(t *testing.T) {
		runner, _ := newTestRunner(mock, nil)

		playlist, err := runner.resolvePlaylist(context.Background(), "p2")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if playlist.Name != "Workout" {
			t.Errorf("expected Workout, got %s", playlist.Name)
		}
	})

	t.Run("matches by name case-insensitively", func(t *testing.T) {
		runner, _ := newTestRunner(mock, nil)

		playlist, err := runner.resolvePlaylist(context.Background(), "night drive")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if playlist.ID != "p1" {
			t.Errorf("expected p1, got %s", playlist.ID)
		}
	})

	t.Run("unknown playlist fails", func(t *testing.T) {
		runner, _ := newTestRunner(mock, nil)

		_, err := runner.resolvePlaylist(context.Background(), "nope")
		if !errors.Is(err, shared.ErrPlaylistNotFound) {
			t.Fatalf("expected ErrPlaylistNotFound, got %v", err)
		}
	})

	t.Run("empty argument opens the picker", func(t *testing.T) {
		prompter := &scriptedPrompter{choice: &playlists[1]}
		runner, _ := newTestRunner(mock, prompter)

		playlist, err := runner.resolvePlaylist(context.Background(), "")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if playlist.ID != "p2" {
			t.Errorf("expected picked playlist, got %s", playlist.ID)
		}
	})

	t.Run("canceled picker fails", func(t *testing.T) {
		runner, _ := newTestRunner(mock, &scriptedPrompter{choice: nil})

		_, err := runner.resolvePlaylist(context.Background(), "")
		if !errors.Is(err, shared.ErrMissingArgument) {
			t.Fatalf("expected ErrMissingArgument, got %v", err)
		}
	})

	t.Run("empty library cannot pick", func(t *testing.T) {
		runner, _ := newTestRunner(&th.MockCollection{}, &scriptedPrompter{})

		_, err := runner.resolvePlaylist(context.Background(), "")
		if !errors.Is(err, shared.ErrPlaylistNotFound) {
			t.Fatalf("expected ErrPlaylistNotFound, got %v", err)
		}
	})
}

func TestPlaylistCommands(t *testing.T) {
	t.Run("list exports playlist tracks", func(t *testing.T) {
		runner, output := newTestRunner(libraryMock(), nil)

		if err := runCommand(t, runner, "playlist", "list", "--format", "ids", "p1"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if output.String() != "21\n" {
			t.Errorf("expected playlist track ids, got %q", output.String())
		}
	})

	t.Run("create without csv", func(t *testing.T) {
		var gotName, gotDescription string
		mock := &th.MockCollection{
			CreatePlaylistFunc: func(ctx context.Context, name, description string) (*models.Playlist, error) {
				gotName, gotDescription = name, description
				return &models.Playlist{ID: "new-1", Name: name, Description: description}, nil
			},
		}
		runner, output := newTestRunner(mock, nil)

		if err := runCommand(t, runner, "playlist", "create", "-d", "summer drive", "Road Trip"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if gotName != "Road Trip" || gotDescription != "summer drive" {
			t.Errorf("expected create args to pass through, got %q %q", gotName, gotDescription)
		}
		if !strings.Contains(output.String(), "✓ Created playlist Road Trip (ID: new-1)") {
			t.Errorf("expected confirmation, got %q", output.String())
		}
	})

	t.Run("create requires a name", func(t *testing.T) {
		runner, _ := newTestRunner(libraryMock(), nil)

		err := runCommand(t, runner, "playlist", "create")
		if !errors.Is(err, shared.ErrMissingArgument) {
			t.Fatalf("expected ErrMissingArgument, got %v", err)
		}
	})

	t.Run("create from csv adds ids in row order", func(t *testing.T) {
		path := writeExportCSV(t,
			`31,Space Oddity,David Bowie,David Bowie,318`,
			`32,Starman,David Bowie,Ziggy Stardust,254`,
		)

		var added []string
		mock := &th.MockCollection{
			AddTracksFunc: func(ctx context.Context, playlistID string, trackIDs []string) error {
				added = trackIDs
				return nil
			},
		}
		runner, output := newTestRunner(mock, nil)

		if err := runCommand(t, runner, "playlist", "create", "--from-csv", path, "Bowie"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(added) != 2 || added[0] != "31" || added[1] != "32" {
			t.Errorf("expected ids [31 32] in order, got %v", added)
		}
		if !strings.Contains(output.String(), "Added 2 tracks") {
			t.Errorf("expected added count, got %q", output.String())
		}
	})

	t.Run("create with explicit and searched tracks", func(t *testing.T) {
		var queries []string
		var added []string
		mock := &th.MockCollection{
			SearchTracksFunc: func(ctx context.Context, query string, limit int) ([]models.Track, error) {
				queries = append(queries, query)
				if query == "nothing here" {
					return nil, nil
				}
				return []models.Track{{ID: "51", Title: "Space Oddity"}}, nil
			},
			AddTracksFunc: func(ctx context.Context, playlistID string, trackIDs []string) error {
				added = trackIDs
				return nil
			},
		}
		runner, output := newTestRunner(mock, nil)

		err := runCommand(t, runner,
			"playlist", "create", "-t", "42", "-s", "space oddity", "-s", "nothing here", "Mixtape")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(queries) != 2 || queries[0] != "space oddity" || queries[1] != "nothing here" {
			t.Errorf("expected both queries searched, got %v", queries)
		}
		if len(added) != 2 || added[0] != "42" || added[1] != "51" {
			t.Errorf("expected explicit id then search match, got %v", added)
		}
		if !strings.Contains(output.String(), "Added 2 tracks") {
			t.Errorf("expected added count, got %q", output.String())
		}
	})

	t.Run("add appends csv ids to an existing playlist", func(t *testing.T) {
		path := writeExportCSV(t, `41,Midnight City,M83,"Hurry Up, We're Dreaming",244`)

		var gotPlaylistID string
		var added []string
		mock := libraryMock()
		mock.AddTracksFunc = func(ctx context.Context, playlistID string, trackIDs []string) error {
			gotPlaylistID = playlistID
			added = trackIDs
			return nil
		}
		runner, output := newTestRunner(mock, nil)

		if err := runCommand(t, runner, "playlist", "add", "--from-csv", path, "Night Drive"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if gotPlaylistID != "p1" {
			t.Errorf("expected playlist resolved to p1, got %s", gotPlaylistID)
		}
		if len(added) != 1 || added[0] != "41" {
			t.Errorf("expected ids [41], got %v", added)
		}
		if !strings.Contains(output.String(), "✓ Added 1 tracks to Night Drive") {
			t.Errorf("expected confirmation, got %q", output.String())
		}
	})

	t.Run("add with explicit track ids", func(t *testing.T) {
		var added []string
		mock := libraryMock()
		mock.AddTracksFunc = func(ctx context.Context, playlistID string, trackIDs []string) error {
			added = trackIDs
			return nil
		}
		runner, output := newTestRunner(mock, nil)

		if err := runCommand(t, runner, "playlist", "add", "-t", "61", "-t", "62", "p1"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(added) != 2 || added[0] != "61" || added[1] != "62" {
			t.Errorf("expected ids [61 62], got %v", added)
		}
		if !strings.Contains(output.String(), "✓ Added 2 tracks to Night Drive") {
			t.Errorf("expected confirmation, got %q", output.String())
		}
	})

	t.Run("add requires tracks from somewhere", func(t *testing.T) {
		runner, _ := newTestRunner(libraryMock(), nil)

		err := runCommand(t, runner, "playlist", "add", "p1")
		if !errors.Is(err, shared.ErrMissingArgument) {
			t.Fatalf("expected ErrMissingArgument, got %v", err)
		}
	})

	t.Run("reorder clears then re-adds in file order", func(t *testing.T) {
		path := writeExportCSV(t,
			`3,Third,A,X,100`,
			`1,First,B,Y,100`,
			`2,Second,C,Z,100`,
		)

		var ops []string
		var added []string
		mock := libraryMock()
		mock.ClearPlaylistFunc = func(ctx context.Context, playlistID string) error {
			ops = append(ops, "clear:"+playlistID)
			return nil
		}
		mock.AddTracksFunc = func(ctx context.Context, playlistID string, trackIDs []string) error {
			ops = append(ops, "add:"+playlistID)
			added = trackIDs
			return nil
		}
		runner, output := newTestRunner(mock, nil)

		if err := runCommand(t, runner, "playlist", "reorder", "--from-csv", path, "p1"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(ops) != 2 || ops[0] != "clear:p1" || ops[1] != "add:p1" {
			t.Errorf("expected clear before add, got %v", ops)
		}
		if len(added) != 3 || added[0] != "3" || added[1] != "1" || added[2] != "2" {
			t.Errorf("expected csv row order preserved, got %v", added)
		}
		if !strings.Contains(output.String(), "✓ Reordered Night Drive to 3 tracks") {
			t.Errorf("expected confirmation, got %q", output.String())
		}
	})
}

func TestAllPlaylistsCommand(t *testing.T) {
	runner, output := newTestRunner(libraryMock(), nil)
	path := filepath.Join(t.TempDir(), "all.csv")

	if err := runCommand(t, runner, "all-playlists", "--output", path); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	content := th.MustReadFile(t, path)
	if !strings.HasPrefix(content, "id,title,artists,album,duration,playlist\n") {
		t.Errorf("expected playlist column in default header, got %q", content)
	}
	if !strings.Contains(content, "Night Drive") {
		t.Errorf("expected playlist attribution in rows, got %q", content)
	}
	if !strings.Contains(output.String(), "✓ Exported 1 tracks") {
		t.Errorf("expected export confirmation, got %q", output.String())
	}
}

func TestSearchCommand(t *testing.T) {
	t.Run("matches across favorites and playlists", func(t *testing.T) {
		runner, output := newTestRunner(libraryMock(), nil)

		if err := runCommand(t, runner, "search", "night"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		result := output.String()
		if !strings.Contains(result, "Nightswimming") || !strings.Contains(result, "Nightcall") {
			t.Errorf("expected matches from both sources, got %q", result)
		}
		if !strings.Contains(result, "Favorites") || !strings.Contains(result, "Night Drive") {
			t.Errorf("expected provenance column, got %q", result)
		}
		if !strings.Contains(result, "2 matches (3 tracks searched)") {
			t.Errorf("expected match summary, got %q", result)
		}
	})

	t.Run("reports no matches", func(t *testing.T) {
		runner, output := newTestRunner(libraryMock(), nil)

		if err := runCommand(t, runner, "search", "polka"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(output.String(), `No matches for "polka" (3 tracks searched).`) {
			t.Errorf("expected no-match message, got %q", output.String())
		}
	})

	t.Run("remote flag queries the catalog", func(t *testing.T) {
		var gotQuery string
		var gotLimit int
		mock := &th.MockCollection{
			SearchTracksFunc: func(ctx context.Context, query string, limit int) ([]models.Track, error) {
				gotQuery, gotLimit = query, limit
				return []models.Track{
					{ID: "51", Title: "Space Oddity", Artists: []string{"David Bowie"}, Album: "David Bowie", Duration: 318},
				}, nil
			},
		}
		runner, output := newTestRunner(mock, nil)

		if err := runCommand(t, runner, "search", "--remote", "--format", "ids", "space oddity"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if gotQuery != "space oddity" || gotLimit != 50 {
			t.Errorf("expected query passed with default limit, got %q %d", gotQuery, gotLimit)
		}
		if output.String() != "51\n" {
			t.Errorf("expected catalog ids, got %q", output.String())
		}
	})

	t.Run("searches a csv export without a service", func(t *testing.T) {
		path := writeExportCSV(t,
			`31,Space Oddity,David Bowie,David Bowie,318`,
			`32,Starman,David Bowie,Ziggy Stardust,254`,
		)
		runner, output := newTestRunner(nil, nil)

		if err := runCommand(t, runner, "search", "--from-csv", path, "starman"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		result := output.String()
		if !strings.Contains(result, "Starman") || strings.Contains(result, "Space Oddity") {
			t.Errorf("expected only the matching row, got %q", result)
		}
		if !strings.Contains(result, "1 matches (2 tracks searched)") {
			t.Errorf("expected match summary, got %q", result)
		}
	})

	t.Run("exports matches with --output", func(t *testing.T) {
		runner, output := newTestRunner(libraryMock(), nil)
		path := filepath.Join(t.TempDir(), "matches.csv")

		if err := runCommand(t, runner, "search", "--output", path, "heroes"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		content := th.MustReadFile(t, path)
		if !strings.Contains(content, "Heroes") {
			t.Errorf("expected match in file, got %q", content)
		}
		if strings.Contains(output.String(), "matches (") {
			t.Errorf("summary line should be console-only, got %q", output.String())
		}
	})
}

func TestEmptyFavoritesCommand(t *testing.T) {
	t.Run("yes flag skips the prompt", func(t *testing.T) {
		removed := false
		mock := &th.MockCollection{
			RemoveFavoritesFunc: func(ctx context.Context) (int, error) {
				removed = true
				return 3, nil
			},
		}
		runner, output := newTestRunner(mock, nil)

		if err := runCommand(t, runner, "empty-favorites", "--yes"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !removed {
			t.Error("expected favorites to be removed")
		}
		if !strings.Contains(output.String(), "✓ Removed 3 tracks from favorites") {
			t.Errorf("expected confirmation, got %q", output.String())
		}
	})

	t.Run("declined prompt aborts", func(t *testing.T) {
		removed := false
		mock := &th.MockCollection{
			RemoveFavoritesFunc: func(ctx context.Context) (int, error) {
				removed = true
				return 0, nil
			},
		}
		runner, output := newTestRunner(mock, &scriptedPrompter{confirm: false})

		if err := runCommand(t, runner, "empty-favorites"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if removed {
			t.Error("declining the prompt must not remove anything")
		}
		if !strings.Contains(output.String(), "Aborted.") {
			t.Errorf("expected abort message, got %q", output.String())
		}
	})

	t.Run("confirmed prompt removes", func(t *testing.T) {
		mock := &th.MockCollection{
			RemoveFavoritesFunc: func(ctx context.Context) (int, error) {
				return 7, nil
			},
		}
		runner, output := newTestRunner(mock, &scriptedPrompter{confirm: true})

		if err := runCommand(t, runner, "empty-favorites"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(output.String(), "✓ Removed 7 tracks from favorites") {
			t.Errorf("expected confirmation, got %q", output.String())
		}
	})

	t.Run("partial failure reports progress", func(t *testing.T) {
		mock := &th.MockCollection{
			RemoveFavoritesFunc: func(ctx context.Context) (int, error) {
				return 2, fmt.Errorf("%w: delete track 3", shared.ErrAPIRequest)
			},
		}
		runner, output := newTestRunner(mock, nil)

		err := runCommand(t, runner, "empty-favorites", "--yes")
		if !errors.Is(err, shared.ErrAPIRequest) {
			t.Fatalf("expected ErrAPIRequest, got %v", err)
		}
		if !strings.Contains(output.String(), "Removed 2 tracks before failing.") {
			t.Errorf("expected partial count, got %q", output.String())
		}
	})
}

func TestCacheCommands(t *testing.T) {
	newCacheRunner := func(t *testing.T, collection services.Collection) (*Runner, *bytes.Buffer) {
		t.Helper()
		config := shared.DefaultConfig()
		config.Database.Path = filepath.Join(t.TempDir(), "cache.db")

		output := &bytes.Buffer{}
		runner := NewRunner(RunnerOpts{
			Config:     config,
			Collection: collection,
			Logger:     shared.NewLogger(io.Discard),
			Output:     output,
		})
		return runner, output
	}

	t.Run("sync then cached search", func(t *testing.T) {
		runner, output := newCacheRunner(t, libraryMock())

		if err := runCommand(t, runner, "cache", "sync"); err != nil {
			t.Fatalf("sync failed: %v", err)
		}
		if !strings.Contains(output.String(), "✓ Cached 3 tracks from favorites and 1 playlists") {
			t.Errorf("expected sync summary, got %q", output.String())
		}

		output.Reset()
		if err := runCommand(t, runner, "search", "--cached", "night"); err != nil {
			t.Fatalf("cached search failed: %v", err)
		}

		result := output.String()
		if !strings.Contains(result, "Nightswimming") || !strings.Contains(result, "Nightcall") {
			t.Errorf("expected cached matches, got %q", result)
		}
		if !strings.Contains(result, "Favorites") || !strings.Contains(result, "Night Drive") {
			t.Errorf("expected cached provenance, got %q", result)
		}
	})

	t.Run("cached search works without credentials", func(t *testing.T) {
		runner, output := newCacheRunner(t, libraryMock())
		if err := runCommand(t, runner, "cache", "sync"); err != nil {
			t.Fatalf("sync failed: %v", err)
		}

		// Drop the collection: the cache alone must serve the search.
		runner.collection = nil
		output.Reset()

		if err := runCommand(t, runner, "search", "--cached", "heroes"); err != nil {
			t.Fatalf("cached search failed: %v", err)
		}
		if !strings.Contains(output.String(), "Heroes") {
			t.Errorf("expected cached match, got %q", output.String())
		}
	})

	t.Run("empty cache rejects cached search", func(t *testing.T) {
		runner, _ := newCacheRunner(t, libraryMock())

		err := runCommand(t, runner, "search", "--cached", "anything")
		if !errors.Is(err, shared.ErrInvalidInput) {
			t.Fatalf("expected ErrInvalidInput, got %v", err)
		}
		if !strings.Contains(err.Error(), "tidex cache sync") {
			t.Errorf("error should point at cache sync, got %v", err)
		}
	})

	t.Run("status and clear", func(t *testing.T) {
		runner, output := newCacheRunner(t, libraryMock())
		if err := runCommand(t, runner, "cache", "sync"); err != nil {
			t.Fatalf("sync failed: %v", err)
		}

		output.Reset()
		if err := runCommand(t, runner, "cache", "status"); err != nil {
			t.Fatalf("status failed: %v", err)
		}
		if !strings.Contains(output.String(), "Tracks cached: 3") {
			t.Errorf("expected track count, got %q", output.String())
		}
		if !strings.Contains(output.String(), "Playlists cached: 1") {
			t.Errorf("expected playlist count, got %q", output.String())
		}
		if !strings.Contains(output.String(), "Night Drive (1 tracks") {
			t.Errorf("expected playlist detail line, got %q", output.String())
		}

		output.Reset()
		if err := runCommand(t, runner, "cache", "clear"); err != nil {
			t.Fatalf("clear failed: %v", err)
		}
		if !strings.Contains(output.String(), "✓ Cache cleared") {
			t.Errorf("expected clear confirmation, got %q", output.String())
		}

		output.Reset()
		if err := runCommand(t, runner, "cache", "status"); err != nil {
			t.Fatalf("status failed: %v", err)
		}
		if !strings.Contains(output.String(), "Tracks cached: 0") {
			t.Errorf("expected empty cache, got %q", output.String())
		}
	})
}

func TestAuthStatusCommand(t *testing.T) {
	t.Run("no client credentials", func(t *testing.T) {
		runner, output := newTestRunner(nil, nil)

		if err := runCommand(t, runner, "auth", "status"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(output.String(), "✗ No client credentials configured") {
			t.Errorf("expected missing credentials message, got %q", output.String())
		}
	})

	t.Run("credentials without token", func(t *testing.T) {
		runner, output := newTestRunner(nil, nil)
		runner.config.Credentials.Tidal.ClientID = "client"

		if err := runCommand(t, runner, "auth", "status"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(output.String(), "✗ Not logged in.") {
			t.Errorf("expected not-logged-in message, got %q", output.String())
		}
	})

	t.Run("logged in", func(t *testing.T) {
		runner, output := newTestRunner(nil, nil)
		runner.config.Credentials.Tidal.ClientID = "client"
		runner.config.Credentials.Tidal.AccessToken = "token"
		runner.config.Credentials.Tidal.UserID = "4242"
		runner.config.Credentials.Tidal.CountryCode = "US"

		if err := runCommand(t, runner, "auth", "status"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(output.String(), "✓ Logged in as user 4242 (US)") {
			t.Errorf("expected logged-in line, got %q", output.String())
		}
	})

	t.Run("renders json with --json", func(t *testing.T) {
		runner, output := newTestRunner(nil, nil)
		runner.config.Credentials.Tidal.ClientID = "client"
		runner.config.Credentials.Tidal.AccessToken = "token"
		runner.config.Credentials.Tidal.UserID = "4242"

		if err := runCommand(t, runner, "auth", "status", "--json"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		result := output.String()
		if !strings.Contains(result, `"logged_in": true`) || !strings.Contains(result, `"user_id": "4242"`) {
			t.Errorf("expected json state, got %q", result)
		}
	})
}

func TestSetupCommand(t *testing.T) {
	tmpDir := t.TempDir()

	config := shared.DefaultConfig()
	config.Database.Path = filepath.Join(tmpDir, "cache.db")

	output := &bytes.Buffer{}
	runner := NewRunner(RunnerOpts{
		Config:     config,
		ConfigPath: filepath.Join(tmpDir, "config.toml"),
		Logger:     shared.NewLogger(io.Discard),
		Output:     output,
	})

	if err := runCommand(t, runner, "setup"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	th.AssertFileExists(t, filepath.Join(tmpDir, "config.toml"))
	th.AssertFileExists(t, config.Database.Path)
	if !strings.Contains(output.String(), "✓ Cache database ready") {
		t.Errorf("expected setup confirmation, got %q", output.String())
	}
}
