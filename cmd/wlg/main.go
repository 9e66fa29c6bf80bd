// Command wlg resolves genre tags for album directories and writes
// them back to the audio files.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"slices"
	"sort"
	"strconv"
	"strings"
	"syscall"
	"time"

	"go.senan.xyz/natcmp"
	"go.senan.xyz/table/table"

	"go.senan.xyz/wlg"
	"go.senan.xyz/wlg/addon"
	"go.senan.xyz/wlg/cache"
	"go.senan.xyz/wlg/cmd/internal/logging"
	"go.senan.xyz/wlg/cmd/internal/wlgflag"
	"go.senan.xyz/wlg/disambig"
	"go.senan.xyz/wlg/fileutil"
	"go.senan.xyz/wlg/genre"
	"go.senan.xyz/wlg/notifications"
	"go.senan.xyz/wlg/originfile"
	"go.senan.xyz/wlg/rules"
	"go.senan.xyz/wlg/tags/tagcommon"
	"go.senan.xyz/wlg/tags/taglib"
)

func init() {
	flag := flag.CommandLine
	flag.Usage = func() {
		fmt.Fprintf(flag.Output(), "Usage:\n")
		fmt.Fprintf(flag.Output(), "  $ %s [<options>] <path>...\n", flag.Name())
		fmt.Fprintf(flag.Output(), "\n")
		fmt.Fprintf(flag.Output(), "Options:\n")
		flag.PrintDefaults()
	}
}

// replaced while testing
var tg tagcommon.Reader = taglib.TagLib{}

func main() {
	defer logging.Logging()()
	wlgflag.DefaultClient()
	var (
		cfg    = wlgflag.Flags()
		notifs = wlgflag.Notifications()
		hooks  = wlgflag.Addons()
	)
	wlgflag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	rl := rules.Default()
	if cfg.RulesPath != "" {
		var err error
		if rl, err = rules.Open(cfg.RulesPath); err != nil {
			slog.Error("read rules", "err", err)
			return
		}
	}

	if err := os.MkdirAll(filepath.Dir(cfg.CachePath), 0o755); err != nil {
		slog.Error("create cache dir", "err", err)
		return
	}
	c := cache.New(cfg.CachePath, cfg.CacheTTL, cfg.UpdateCache)
	cacheDone := make(chan struct{})
	cacheStopped := make(chan struct{})
	go func() {
		defer close(cacheStopped)
		c.Run(cacheDone, cfg.CacheFlush)
	}()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var chooser disambig.Chooser
	if cfg.Interactive {
		chooser = promptChooser(ctx, notifs)
	}

	proc := &wlg.Processor{
		Cache:    c,
		Genre:    genre.NewResolver(rl, cfg.Genre),
		Disambig: disambig.NewResolver(!cfg.Interactive, chooser),
		Sources:  cfg.Sources(),
	}

	var dirs []string
	for _, arg := range flag.Args() {
		arg, _ = filepath.Abs(arg)
		err := fileutil.WalkLeaves(arg, func(path string) error {
			dirs = append(dirs, path)
			return nil
		})
		if err != nil {
			slog.Error("walking paths", "path", arg, "err", err)
		}
	}
	slices.SortFunc(dirs, natcmp.Compare)

	start := time.Now()
	genreCounts := map[string]int{}
	var doneN, errN int
	for _, dir := range dirs {
		if ctx.Err() != nil {
			break
		}
		if err := processDir(ctx, proc, cfg, *hooks, dir, genreCounts); err != nil {
			if errors.Is(err, wlg.ErrNoTracks) {
				continue
			}
			slog.ErrorContext(ctx, "processing dir", "dir", dir, "err", err)
			notifs.Sendf(ctx, notifications.RunError, "error processing %q: %v", dir, err)
			errN++
			continue
		}
		doneN++
	}

	close(cacheDone)
	<-cacheStopped

	printStats(c, genreCounts, time.Since(start), doneN, errN)
	if errN == 0 {
		notifs.Sendf(ctx, notifications.Complete, "processed %d albums", doneN)
	}
}

func processDir(
	ctx context.Context,
	proc *wlg.Processor, cfg *wlgflag.Config, hooks []*addon.Subproc,
	dir string, genreCounts map[string]int,
) error {
	files, paths, err := wlg.ReadDir(tg, dir)
	if err != nil {
		return err
	}
	closeFiles := func() error {
		var errs []error
		for _, f := range files {
			errs = append(errs, f.Close())
		}
		return errors.Join(errs...)
	}

	origin, err := originfile.Find(dir)
	if err != nil {
		slog.WarnContext(ctx, "read origin file", "dir", dir, "err", err)
	}

	rel := wlg.ReleaseFromFiles(files, origin)
	res, err := proc.ProcessAlbum(ctx, rel)
	if err != nil {
		_ = closeFiles()
		return err
	}

	if cfg.Verbose {
		printScopes(proc.Genre, res)
	}
	slog.InfoContext(ctx, "resolved album",
		"dir", dir, "genres", strings.Join(res.Genres, "; "), "type", res.ReleaseType)

	for _, g := range res.Genres {
		genreCounts[g]++
	}

	if !cfg.DryRun && len(res.Genres) > 0 {
		for _, f := range files {
			f.WriteGenres(res.Genres)
			f.WriteGenre(res.Genres[0])
			if res.ReleaseType != "" {
				f.WriteReleaseType(res.ReleaseType)
			}
		}
	}
	if err := closeFiles(); err != nil {
		return fmt.Errorf("write tags: %w", err)
	}

	if !cfg.DryRun {
		for _, h := range hooks {
			if err := h.ProcessAlbum(ctx, paths); err != nil {
				return fmt.Errorf("run hook: %w", err)
			}
		}
	}
	return nil
}

func promptChooser(ctx context.Context, notifs *notifications.Notifications) disambig.Chooser {
	stdin := bufio.NewReader(os.Stdin)
	return func(q disambig.Query, cands []disambig.Candidate) (int, bool) {
		notifs.Sendf(ctx, notifications.NeedsInput, "choice needed for %q", q.Text)

		fmt.Printf("results for %q:\n", q.Text)
		for i, c := range cands {
			var parts []string
			if c.Info != "" {
				parts = append(parts, c.Info)
			}
			if c.Year > 0 {
				parts = append(parts, strconv.Itoa(c.Year))
			}
			fmt.Printf("  %2d. %s (%s)\n", i+1, c.Title, strings.Join(parts, ", "))
		}
		fmt.Printf("   0. skip\nchoice: ")

		line, err := stdin.ReadString('\n')
		if err != nil {
			return 0, false
		}
		choice, err := strconv.Atoi(strings.TrimSpace(line))
		if err != nil || choice < 1 || choice > len(cands) {
			return 0, false
		}
		return choice - 1, true
	}
}

func printScopes(resolver *genre.Resolver, res *wlg.Result) {
	t := table.NewStringWriter()
	for _, sm := range res.Scopes {
		for _, tag := range sm.Scored() {
			fmt.Fprintf(t, "%s\t%s\t%.3f\n", sm.Scope, resolver.Format(tag.Name), tag.Score)
		}
	}
	for _, row := range strings.Split(strings.TrimRight(t.String(), "\n"), "\n") {
		fmt.Println(row)
	}
}

func printStats(c *cache.Cache, genreCounts map[string]int, took time.Duration, doneN, errN int) {
	type count struct {
		name string
		n    int
	}
	counts := make([]count, 0, len(genreCounts))
	for name, n := range genreCounts {
		counts = append(counts, count{name, n})
	}
	sort.Slice(counts, func(i, j int) bool {
		if counts[i].n != counts[j].n {
			return counts[i].n > counts[j].n
		}
		return counts[i].name < counts[j].name
	})

	if len(counts) > 0 {
		t := table.NewStringWriter()
		for _, c := range counts {
			fmt.Fprintf(t, "%s\t%d\n", c.name, c.n)
		}
		fmt.Println("genres:")
		for _, row := range strings.Split(strings.TrimRight(t.String(), "\n"), "\n") {
			fmt.Println("  " + row)
		}
	}

	hits, misses := c.Stats()
	slog.Info("finished",
		"took", took, "albums", doneN, "errs", errN,
		"cache_hits", hits, "cache_misses", misses)
}
