// submodule cmd contains command definitions
package main

import (
	"time"

	"github.com/urfave/cli/v3"
)

func configFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to configuration file",
		Value:   "config.toml",
	}
}

func jsonFlag() cli.Flag {
	return &cli.BoolFlag{
		Name:  "json",
		Usage: "Output raw JSON",
	}
}

// targetFlags select a title, or one episode of a show.
func targetFlags(titleRequired bool) []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{
			Name:     "tmdb",
			Usage:    "TMDB id of the title",
			Required: true,
		},
		&cli.StringFlag{
			Name:  "type",
			Usage: "Media type (movie or tv)",
			Value: "movie",
		},
		&cli.StringFlag{
			Name:     "title",
			Usage:    "Display title",
			Required: titleRequired,
		},
		&cli.StringFlag{
			Name:  "original-title",
			Usage: "Original-language title, used for filename matching",
		},
		&cli.StringFlag{
			Name:  "year",
			Usage: "Release year",
		},
		&cli.IntFlag{
			Name:  "season",
			Usage: "Season number (tv only)",
		},
		&cli.IntFlag{
			Name:  "episode",
			Usage: "Episode number (tv only)",
		},
	}
}

func jobIDArg() []cli.Argument {
	return []cli.Argument{&cli.StringArg{Name: "id"}}
}

// setupCommand handles setup operations for the database and configuration file.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:   "database",
				Usage:  "Initialize the job history database and run migrations",
				Flags:  []cli.Flag{configFlag()},
				Action: r.SetupDatabase,
			},
			{
				Name:   "config",
				Usage:  "Write a default config.toml",
				Flags:  []cli.Flag{configFlag()},
				Action: r.SetupConfig,
			},
		},
	}
}

// watchCommand launches the interactive operating view.
func watchCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "watch",
		Aliases: []string{"tui", "ui"},
		Usage:   "Launch the interactive job and library view",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "log-file",
				Usage: "Where engine logs go while the view owns the terminal",
				Value: "./tmp/medialink-watch.log",
			},
			&cli.BoolFlag{
				Name:  "no-history",
				Usage: "Do not archive finished jobs to the history database",
			},
		},
		Action: r.Watch,
	}
}

func jobsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "jobs",
		Usage:  "List active jobs",
		Flags:  []cli.Flag{jsonFlag()},
		Action: r.Jobs,
	}
}

func logsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "logs",
		Usage:     "Print a job's log, optionally following new lines",
		Arguments: jobIDArg(),
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "follow",
				Aliases: []string{"f"},
				Usage:   "Keep polling until the job finishes",
			},
			&cli.DurationFlag{
				Name:  "interval",
				Usage: "Polling interval when following",
				Value: 3 * time.Second,
			},
		},
		Action: r.Logs,
	}
}

func downloadCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "download",
		Usage: "Start a job for a title from one of its sources",
		Flags: append(targetFlags(true),
			&cli.IntFlag{
				Name:  "stream",
				Usage: "Row of the source to use (see 'streams'); defaults to the first cached source",
			},
		),
		Action: r.Download,
	}
}

func pauseCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "pause",
		Usage:     "Pause a job",
		Arguments: jobIDArg(),
		Action:    r.Pause,
	}
}

func resumeCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "resume",
		Usage:     "Resume a paused job",
		Arguments: jobIDArg(),
		Action:    r.Resume,
	}
}

func deleteCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "delete",
		Aliases:   []string{"cancel"},
		Usage:     "Cancel and remove a job",
		Arguments: jobIDArg(),
		Flags:     []cli.Flag{yesFlag()},
		Action:    r.Delete,
	}
}

func searchCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "search",
		Usage:     "Search movies and shows by title",
		Arguments: []cli.Argument{&cli.StringArg{Name: "query"}},
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "page", Usage: "Result page", Value: 1},
			jsonFlag(),
		},
		Action: r.Search,
	}
}

func discoverCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "discover",
		Usage: "Browse popular or trending titles",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "type", Usage: "Media type (movie or tv)", Value: "movie"},
			&cli.IntFlag{Name: "genre", Usage: "Genre id filter (see 'genres')"},
			&cli.IntFlag{Name: "page", Usage: "Result page", Value: 1},
			&cli.BoolFlag{Name: "trending", Usage: "Show this week's trending titles instead"},
			jsonFlag(),
		},
		Action: r.Discover,
	}
}

func genresCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "genres",
		Usage: "List genre ids for a media type",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "type", Usage: "Media type (movie or tv)", Value: "movie"},
		},
		Action: r.Genres,
	}
}

func streamsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "streams",
		Usage:  "List candidate sources for a title or episode",
		Flags:  append(targetFlags(false), jsonFlag()),
		Action: r.Streams,
	}
}

func linkCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "link",
		Usage: "Link an existing remote file into the library",
		Flags: append(targetFlags(true),
			&cli.StringFlag{
				Name:     "path",
				Usage:    "Remote path of the file (see 'browse')",
				Required: true,
			},
		),
		Action: r.Link,
	}
}

func existsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "exists",
		Usage:  "Check whether a title, episode, or whole season is in the library",
		Flags:  targetFlags(false),
		Action: r.Exists,
	}
}

func testLinkCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "test-link",
		Usage:     "Check that a library link still resolves",
		Arguments: []cli.Argument{&cli.StringArg{Name: "path"}},
		Action:    r.TestLink,
	}
}

func browseCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "browse",
		Aliases:   []string{"ls"},
		Usage:     "List the remote store",
		Arguments: []cli.Argument{&cli.StringArg{Name: "path"}},
		Flags:     []cli.Flag{jsonFlag()},
		Action:    r.Browse,
	}
}

func historyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "List finished jobs archived by 'watch'",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "limit", Usage: "Maximum number of entries", Value: 50},
			&cli.StringFlag{Name: "status", Usage: "Only entries with this final status"},
			&cli.StringFlag{Name: "type", Usage: "Only entries of this media type"},
			&cli.StringFlag{Name: "csv", Usage: "Export to a CSV file instead of printing"},
			jsonFlag(),
		},
		Action: r.History,
	}
}

func reportCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "report",
		Usage:     "Write an archived job and its log to a file",
		Arguments: jobIDArg(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Output file path (default: <job-id>.md)",
			},
			&cli.BoolFlag{
				Name:  "stdout",
				Usage: "Print a plain-text report instead of writing a file",
			},
		},
		Action: r.Report,
	}
}

// apiCommand handles direct backend API calls
func apiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "api",
		Usage: "Direct API calls to the backend",
		Commands: []*cli.Command{
			{
				Name:      "get",
				Usage:     "Direct GET, prints the JSON response",
				Arguments: []cli.Argument{&cli.StringArg{Name: "path"}},
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
						Value: true,
					},
				},
				Action: r.APIGet,
			},
			{
				Name:      "post",
				Usage:     "Direct POST with JSON body",
				Arguments: []cli.Argument{&cli.StringArg{Name: "path"}},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "data",
						Aliases:  []string{"d"},
						Usage:    "JSON body to send",
						Required: true,
					},
				},
				Action: r.APIPost,
			},
			{
				Name:      "delete",
				Usage:     "Direct DELETE",
				Arguments: []cli.Argument{&cli.StringArg{Name: "path"}},
				Action:    r.APIDelete,
			},
			{
				Name:  "dump",
				Usage: "Backend state dump (status, mount, jobs, settings, logs)",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
						Value: true,
					},
					&cli.BoolFlag{
						Name:  "save",
						Usage: "Save dump to api_dump.json",
					},
				},
				Action: r.APIDump,
			},
		},
	}
}

func serveStubCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve-stub",
		Usage: "Run an in-memory backend for local development",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "addr",
				Usage: "Listen address (default: stub.host:stub.port from config)",
			},
			&cli.DurationFlag{
				Name:  "tick",
				Usage: "How often stub jobs advance a stage",
				Value: 2 * time.Second,
			},
			&cli.BoolFlag{
				Name:  "unconfigured",
				Usage: "Start with the setup gate closed",
			},
		},
		Action: r.ServeStub,
	}
}

func openCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "open",
		Usage:     "Open a backend page in the browser",
		Arguments: []cli.Argument{&cli.StringArg{Name: "path"}},
		Action:    r.Open,
	}
}

func yesFlag() cli.Flag {
	return &cli.BoolFlag{
		Name:    "yes",
		Aliases: []string{"y"},
		Usage:   "Skip the confirmation prompt",
	}
}

// libraryCommand manages the local media library.
func libraryCommand(r *Runner) *cli.Command {
	folder := []cli.Argument{&cli.StringArg{Name: "folder"}}
	return &cli.Command{
		Name:  "library",
		Usage: "Inspect and prune the local media library",
		Commands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List movie and show folders",
				Flags:  []cli.Flag{jsonFlag()},
				Action: r.LibraryList,
			},
			{
				Name:      "structure",
				Aliases:   []string{"tree"},
				Usage:     "Show the files inside a title folder",
				Arguments: folder,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "type", Usage: "Media type (movie or tv)", Value: "movie"},
					&cli.BoolFlag{Name: "test", Usage: "Check that every link still resolves"},
					jsonFlag(),
				},
				Action: r.LibraryStructure,
			},
			{
				Name:      "info",
				Usage:     "Show where a library file points",
				Arguments: []cli.Argument{&cli.StringArg{Name: "path"}},
				Flags:     []cli.Flag{jsonFlag()},
				Action:    r.LibraryInfo,
			},
			{
				Name:      "rm",
				Usage:     "Remove one library file",
				Arguments: []cli.Argument{&cli.StringArg{Name: "path"}},
				Flags:     []cli.Flag{yesFlag()},
				Action:    r.LibraryRemoveFile,
			},
			{
				Name:      "rm-season",
				Usage:     "Remove a whole season of a show",
				Arguments: folder,
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "season", Usage: "Season number"},
					yesFlag(),
				},
				Action: r.LibraryRemoveSeason,
			},
			{
				Name:      "rm-series",
				Usage:     "Remove a show with every season",
				Arguments: folder,
				Flags:     []cli.Flag{yesFlag()},
				Action:    r.LibraryRemoveSeries,
			},
			{
				Name:      "rm-movie",
				Usage:     "Remove a movie folder",
				Arguments: folder,
				Flags:     []cli.Flag{yesFlag()},
				Action:    r.LibraryRemoveMovie,
			},
		},
	}
}

// settingsCommand reads and edits the backend's live settings.
func settingsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "settings",
		Usage: "Show or change the backend's live settings",
		Commands: []*cli.Command{
			{
				Name:  "get",
				Usage: "Show the current settings",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "reveal", Usage: "Print the API key unmasked"},
					jsonFlag(),
				},
				Action: r.SettingsGet,
			},
			{
				Name:  "set",
				Usage: "Change one or more settings",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "tmdb-key", Usage: "TMDB API key"},
					&cli.StringFlag{Name: "aiostreams-url", Usage: "AIOStreams manifest URL"},
				},
				Action: r.SettingsSet,
			},
		},
	}
}
