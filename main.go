package main

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"strconv"
	"syscall"

	"git.sr.ht/~sircmpwn/getopt"

	"github.com/mailgen/mailgen/attach"
	"github.com/mailgen/mailgen/config"
	"github.com/mailgen/mailgen/content"
	"github.com/mailgen/mailgen/engine"
	"github.com/mailgen/mailgen/export"
	"github.com/mailgen/mailgen/graph"
	"github.com/mailgen/mailgen/log"
	"github.com/mailgen/mailgen/roster"
)

// set at build time
var Version string

func buildInfo() string {
	return fmt.Sprintf("%s (%s %s %s)",
		Version, runtime.Version(), runtime.GOARCH, runtime.GOOS)
}

func usage() {
	fmt.Println("Usage: " + os.Args[0] + " [-hv] [-c <file>] [-s <seed>] " +
		"[-o <dir>] [-t <topic>] [-j <workers>] [-l <level>]")
	fmt.Print(`
Mailgen generates synthetic email conversation corpora.

Options:

  -h             Show this help message and exit.
  -v             Print version information.
  -c <file>      Read configuration from the given ini file
                 (default: mailgen.conf).
  -s <seed>      Override the generation seed.
  -o <dir>       Override the output directory.
  -t <topic>     Steer subjects and bodies toward the given topic.
  -j <workers>   Number of concurrent generation workers.
  -l <level>     Log level: trace, debug, info, warn or error.
`)
}

func die(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "error: "+format+"\n", args...)
	os.Exit(1)
}

func main() {
	defer log.PanicHandler()
	log.BuildInfo = buildInfo()

	confPath := "mailgen.conf"
	var overrides []func(*config.Config) error

	opts, optind, err := getopt.Getopts(os.Args, "hvc:s:o:t:j:l:")
	if err != nil {
		die("%s", err)
	}
	for _, opt := range opts {
		value := opt.Value
		switch opt.Option {
		case 'h':
			usage()
			return
		case 'v':
			fmt.Println("mailgen " + log.BuildInfo)
			return
		case 'c':
			confPath = value
		case 's':
			overrides = append(overrides, func(conf *config.Config) error {
				seed, err := strconv.ParseInt(value, 10, 64)
				if err != nil {
					return fmt.Errorf("-s: %w", err)
				}
				conf.Generation.Seed = seed
				return nil
			})
		case 'o':
			overrides = append(overrides, func(conf *config.Config) error {
				conf.Output.Dir = value
				return nil
			})
		case 't':
			overrides = append(overrides, func(conf *config.Config) error {
				conf.Generation.Topic = value
				return nil
			})
		case 'j':
			overrides = append(overrides, func(conf *config.Config) error {
				workers, err := strconv.Atoi(value)
				if err != nil {
					return fmt.Errorf("-j: %w", err)
				}
				conf.Generation.Workers = workers
				return nil
			})
		case 'l':
			overrides = append(overrides, func(conf *config.Config) error {
				conf.Log.Level = value
				return nil
			})
		}
	}
	if optind < len(os.Args) {
		usage()
		os.Exit(1)
	}

	conf, err := config.Load(confPath)
	if err != nil {
		die("failed to load config: %s", err)
	}
	for _, apply := range overrides {
		if err := apply(conf); err != nil {
			die("%s", err)
		}
	}
	if err := conf.Validate(); err != nil {
		die("%s", err)
	}

	level, err := log.ParseLevel(conf.Log.Level)
	if err != nil {
		die("%s", err)
	}
	var w io.Writer = os.Stderr
	if conf.Log.File != "" {
		// relative log files live in the run's output directory
		path := conf.Log.File
		if !filepath.IsAbs(path) {
			if err := os.MkdirAll(conf.Output.Dir, 0o755); err != nil {
				die("%s: %s", conf.Output.Dir, err)
			}
			path = filepath.Join(conf.Output.Dir, path)
		}
		f, err := os.OpenFile(path,
			os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			die("%s: %s", path, err)
		}
		defer f.Close()
		w = io.MultiWriter(os.Stderr, f)
	}
	log.Init(w, level)
	log.Infof("starting mailgen %s", log.BuildInfo)

	ros, err := roster.Load(conf.Roster.Path)
	switch {
	case err == nil:
		log.Infof("loaded roster of %d from %s",
			len(ros.Employees), conf.Roster.Path)
	case os.IsNotExist(err):
		rng := rand.New(rand.NewSource(conf.Generation.Seed))
		ros = roster.Generate(rng, conf.Roster.Size, conf.Roster.Company)
		if err := ros.Save(conf.Roster.Path); err != nil {
			log.Warnf("cannot save roster: %v", err)
		}
		log.Infof("generated roster of %d for %s",
			len(ros.Employees), ros.Company)
	default:
		die("roster: %s", err)
	}

	renderer := &attach.Stub{
		Dir:        filepath.Join(conf.Output.Dir, "attachments"),
		WriteFiles: conf.Attachments.RenderFiles,
	}

	ctx, cancel := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer cancel()

	store := graph.NewStore()
	eng := engine.New(conf, store, ros, content.Template{}, renderer)
	if err := eng.Generate(ctx); err != nil {
		die("generation: %s", err)
	}

	emails := store.Export()
	if err := export.New(&conf.Output).Run(emails); err != nil {
		die("export: %s", err)
	}
	if conf.Output.Verify {
		if err := export.Verify(emails); err != nil {
			die("verification: %s", err)
		}
		log.Infof("threading verification passed")
	}
}
