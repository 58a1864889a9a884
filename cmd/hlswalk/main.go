package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"hlswalk/internal/config"
	"hlswalk/internal/logger"
	"hlswalk/internal/model"
	"hlswalk/internal/walk"
)

// errNoEntry is returned by resolveStreams when neither -c nor -u was
// given, so main can print usage instead of walking an empty URL.
var errNoEntry = errors.New("either -c <config file> or -u <url> is required")

func main() {
	// 1. Parse command-line arguments
	configFile := flag.String("c", "", "Path to a batch walk config file")
	entryURL := flag.String("u", "", "Single playlist URL to walk (alternative to -c)")
	logLevel := flag.String("L", "info", "Log level (error, warn, info, debug)")
	userAgent := flag.String("A", "hlswalk/1.0", "User-Agent sent with fetches")
	rootPath := flag.String("r", "", "Root directory for relative filesystem URLs")
	flag.Parse()

	// 2. Initialize logger
	log := logger.New(*logLevel)
	log.Infof("Starting hlswalk...")
	log.Infof("Log level set to: %s", *logLevel)

	// 3. Resolve the set of streams to walk
	streams, err := resolveStreams(*configFile, *entryURL, *userAgent, *rootPath)
	if errors.Is(err, errNoEntry) {
		fmt.Fprintln(os.Stderr, err)
		flag.Usage()
		os.Exit(2)
	} else if err != nil {
		log.Errorf("Failed to resolve streams: %v", err)
		os.Exit(1)
	}
	log.Infof("Walking %d stream(s)", len(streams))

	// 4. Start a walk engine per stream
	ctx, cancel := context.WithCancel(context.Background())

	var wg sync.WaitGroup
	engines := make([]*walk.Engine, len(streams))
	for i, s := range streams {
		opts := s.WalkOptions()
		opts.Logger = log
		e := walk.New(s.EntryURL, opts)
		engines[i] = e

		wg.Add(1)
		go func(name string, e *walk.Engine) {
			defer wg.Done()
			consume(ctx, log, name, e)
		}(s.Name, e)
	}

	// 5. Listen for shutdown signals
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	log.Infof("Shutting down...")

	cancel()
	for _, e := range engines {
		e.Close()
	}
	wg.Wait()

	log.Infof("hlswalk exited gracefully")
}

// resolveStreams builds the set of streams to walk from either a batch
// config file or a single -u URL.
func resolveStreams(configFile, entryURL, userAgent, rootPath string) ([]config.Stream, error) {
	if configFile != "" {
		cfg, err := config.Load(configFile)
		if err != nil {
			return nil, err
		}
		return cfg.Streams, nil
	}
	if entryURL == "" {
		return nil, errNoEntry
	}
	return []config.Stream{{
		Name:      "default",
		EntryURL:  entryURL,
		UserAgent: userAgent,
		RootPath:  rootPath,
	}}, nil
}

// consume drains an engine's event stream and logs each event, the way
// a standalone CLI walker would before handing events to a real
// consumer (a packager, a CDN pusher, a test harness).
func consume(ctx context.Context, log logger.Logger, name string, e *walk.Engine) {
	for {
		ev, ok := e.Next(ctx)
		if !ok {
			log.Infof("[%s] stream closed", name)
			return
		}
		switch v := ev.(type) {
		case model.MasterPlaylistEvent:
			log.Infof("[%s] master playlist ready: %d variant(s)", name, len(v.Playlist.Variants))
		case model.MediaPlaylistEvent:
			log.Infof("[%s] media playlist %s: %d segment(s)", name, v.Playlist.URI, len(v.Playlist.Segments))
		case model.SegmentEvent:
			log.Debugf("[%s] segment ready: %s (%d bytes)", name, v.Segment.URI, len(v.Segment.Data))
		case model.ErrorEvent:
			log.Warnf("[%s] error fetching %s: %v", name, v.URI, v.Err)
		}
	}
}
