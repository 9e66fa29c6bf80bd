package wlgflag

import (
	"errors"
	"flag"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"go.senan.xyz/flagconf"
	"go.senan.xyz/wlg"
	"go.senan.xyz/wlg/addon"
	"go.senan.xyz/wlg/cache"
	"go.senan.xyz/wlg/clientutil"
	"go.senan.xyz/wlg/genre"
	"go.senan.xyz/wlg/notifications"
	"go.senan.xyz/wlg/provider"
)

func DefaultClient() {
	chain := clientutil.Chain(
		clientutil.WithLogging(),
		clientutil.WithUserAgent(fmt.Sprintf(`%s/%s`, wlg.Name, wlg.Version)),
	)

	http.DefaultTransport = chain(http.DefaultTransport)
}

func Parse() {
	userConfig, err := os.UserConfigDir()
	if err != nil {
		panic(err)
	}

	defaultConfigPath := filepath.Join(userConfig, wlg.Name, "config")
	configPath := flag.String("config-path", defaultConfigPath, "Path to config file")

	printVersion := flag.Bool("version", false, "Print the version and exit")
	printConfig := flag.Bool("config", false, "Print the parsed config and exit")

	flag.Parse()
	flagconf.ReadEnvPrefix = func(_ *flag.FlagSet) string { return wlg.Name }
	flagconf.ParseEnv()
	flagconf.ParseConfig(*configPath)

	if *printVersion {
		fmt.Printf("%s %s\n", flag.CommandLine.Name(), wlg.Version)
		os.Exit(0)
	}
	if *printConfig {
		flag.VisitAll(func(f *flag.Flag) {
			fmt.Printf("%-16s %s\n", f.Name, f.Value)
		})
		os.Exit(0)
	}
}

type Config struct {
	Genre     genre.Config
	RulesPath string

	CachePath   string
	CacheTTL    time.Duration
	CacheFlush  time.Duration
	UpdateCache bool

	DryRun      bool
	Interactive bool
	Verbose     bool

	SourceWeights map[string]float64
	LastFM        provider.LastFM
	MusicBrainz   provider.MusicBrainz
	Discogs       provider.Discogs
	AllMusic      provider.AllMusic
}

func Flags() *Config {
	userCache, err := os.UserCacheDir()
	if err != nil {
		panic(err)
	}

	cfg := Config{Genre: genre.DefaultConfig()}

	flag.IntVar(&cfg.Genre.TagLimit, "tag-limit", genre.DefaultTagLimit, "Max genres written per album")
	flag.Float64Var(&cfg.Genre.Splitup, "splitup", genre.DefaultSplitup, "Score factor kept by the unsplit form of a split tag")
	flag.Float64Var(&cfg.Genre.Artist, "artist-weight", genre.DefaultArtist, "Artist tag score multiplier (0 disables artist queries)")
	flag.Float64Var(&cfg.Genre.Various, "various-weight", genre.DefaultVarious, "Per track artist score multiplier on various artists albums")
	flag.Float64Var(&cfg.Genre.Minimum, "minimum", genre.DefaultMinimum, "Minimum score an album genre needs (0 disables)")
	flag.Float64Var(&cfg.Genre.Floor, "floor", genre.DefaultFloor, "Lowest score for tags without counts")

	flag.Var(&listParser{&cfg.Genre.Love}, "love", "Add a genre to boost (stackable, comma separable)")
	flag.Var(&listParser{&cfg.Genre.Hate}, "hate", "Add a genre to dampen (stackable, comma separable)")
	flag.Var(&listParser{&cfg.Genre.Whitelist}, "whitelist", "Only allow these genres, replaces the category filters (stackable, comma separable)")
	flag.Var(&listParser{&cfg.Genre.Blacklist}, "blacklist", "Never write these genres (stackable, comma separable)")
	flag.Var(&listParser{&cfg.Genre.Filters}, "filter", "Enable a filter category, eg instrument, label, location, name (stackable, comma separable)")

	flag.StringVar(&cfg.RulesPath, "rules-path", "", "Path to a custom rules file, empty for the built in one")

	flag.StringVar(&cfg.CachePath, "cache-path", filepath.Join(userCache, wlg.Name, "cache.json"), "Path to the provider response cache")
	flag.DurationVar(&cfg.CacheTTL, "cache-ttl", cache.DefaultTTL, "How long cached provider responses stay valid")
	flag.DurationVar(&cfg.CacheFlush, "cache-flush", cache.DefaultFlushInterval, "How often the cache is written out mid run")
	flag.BoolVar(&cfg.UpdateCache, "update-cache", false, "Ignore cached responses and refresh them")

	flag.BoolVar(&cfg.DryRun, "dry-run", false, "Resolve genres but don't write tags")
	flag.BoolVar(&cfg.Interactive, "interactive", false, "Ask when a provider answer is ambiguous instead of skipping")
	flag.BoolVar(&cfg.Verbose, "verbose", false, "Print per scope tag score tables")

	cfg.SourceWeights = map[string]float64{}
	flag.Var(&weightsParser{cfg.SourceWeights}, "source-weight", "Adjust a source's score weight (0 to disable) (stackable)")

	flag.StringVar(&cfg.LastFM.APIKey, "lastfm-api-key", "", "last.fm API key")
	flag.DurationVar(&cfg.LastFM.RateLimit, "lastfm-rate-limit", 500*time.Millisecond, "last.fm rate limit duration")
	flag.IntVar(&cfg.LastFM.MinCount, "lastfm-min-count", 40, "Drop last.fm tags below this count")
	flag.StringVar(&cfg.MusicBrainz.BaseURL, "mb-base-url", `https://musicbrainz.org/ws/2/`, "MusicBrainz base URL")
	flag.DurationVar(&cfg.MusicBrainz.RateLimit, "mb-rate-limit", 1*time.Second, "MusicBrainz rate limit duration")
	flag.StringVar(&cfg.Discogs.Token, "discogs-token", "", "Discogs personal access token")
	flag.DurationVar(&cfg.Discogs.RateLimit, "discogs-rate-limit", 1*time.Second, "Discogs rate limit duration")
	flag.DurationVar(&cfg.AllMusic.RateLimit, "allmusic-rate-limit", 2*time.Second, "AllMusic rate limit duration")

	return &cfg
}

// Sources assembles the enabled providers with their weights. The
// default weight is 1, a configured weight of 0 drops the source.
func (c *Config) Sources() []wlg.Source {
	c.MusicBrainz.UserAgent = fmt.Sprintf(`%s/%s`, wlg.Name, wlg.Version)

	weight := func(name string) float64 {
		if w, ok := c.SourceWeights[name]; ok {
			return w
		}
		return 1
	}

	var sources []wlg.Source
	for _, src := range []provider.Source{&c.LastFM, &c.MusicBrainz, &c.Discogs, &c.AllMusic} {
		if w := weight(src.Name()); w > 0 {
			sources = append(sources, wlg.Source{Source: src, Mult: w})
		}
	}
	return sources
}

func Notifications() *notifications.Notifications {
	var n notifications.Notifications
	flag.Var(&notificationsParser{&n}, "notification-uri", "Add a shoutrrr notification URI for an event (stackable)")
	return &n
}

func Addons() *[]*addon.Subproc {
	var addons []*addon.Subproc
	flag.Var(&addonsParser{&addons}, "hook", "Define a command to run per album after tagging, <files> expands to the track paths (stackable)")
	return &addons
}

var _ flag.Value = (*listParser)(nil)
var _ flag.Value = (*weightsParser)(nil)
var _ flag.Value = (*notificationsParser)(nil)
var _ flag.Value = (*addonsParser)(nil)

type listParser struct{ items *[]string }

func (l *listParser) Set(value string) error {
	for _, v := range strings.Split(value, ",") {
		if v = strings.TrimSpace(v); v != "" {
			*l.items = append(*l.items, v)
		}
	}
	return nil
}
func (l listParser) String() string {
	if l.items == nil {
		return ""
	}
	return strings.Join(*l.items, ", ")
}

type weightsParser struct{ m map[string]float64 }

func (w weightsParser) Set(value string) error {
	name, weightStr, ok := strings.Cut(value, " ")
	if !ok {
		return fmt.Errorf("invalid source weight format. expected eg \"lastfm 0.5\"")
	}
	weight, err := strconv.ParseFloat(strings.TrimSpace(weightStr), 64)
	if err != nil {
		return fmt.Errorf("parse weight: %w", err)
	}
	w.m[strings.TrimSpace(name)] = weight
	return nil
}
func (w weightsParser) String() string {
	var parts []string
	for name, weight := range w.m {
		parts = append(parts, fmt.Sprintf("%s: %.2f", name, weight))
	}
	return strings.Join(parts, ", ")
}

type notificationsParser struct{ *notifications.Notifications }

func (n *notificationsParser) Set(value string) error {
	eventsRaw, uri, ok := strings.Cut(value, " ")
	if !ok {
		return fmt.Errorf("invalid notification uri format. expected eg \"ev1,ev2 uri\"")
	}
	var lineErrs []error
	for _, ev := range strings.Split(eventsRaw, ",") {
		ev, uri = strings.TrimSpace(ev), strings.TrimSpace(uri)
		err := n.AddURI(notifications.Event(ev), uri)
		lineErrs = append(lineErrs, err)
	}
	return errors.Join(lineErrs...)
}
func (n notificationsParser) String() string {
	if n.Notifications == nil {
		return ""
	}
	var parts []string
	n.Notifications.IterMappings(func(e notifications.Event, uri string) {
		url, _ := url.Parse(uri)
		parts = append(parts, fmt.Sprintf("%s: %s://%s/...", e, url.Scheme, url.Host))
	})
	return strings.Join(parts, ", ")
}

type addonsParser struct{ addons *[]*addon.Subproc }

func (a *addonsParser) Set(value string) error {
	sp, err := addon.NewSubproc(value)
	if err != nil {
		return fmt.Errorf("hook %q: %w", value, err)
	}
	*a.addons = append(*a.addons, sp)
	return nil
}
func (a addonsParser) String() string {
	if a.addons == nil {
		return ""
	}
	var parts []string
	for _, sp := range *a.addons {
		parts = append(parts, fmt.Sprint(sp))
	}
	return strings.Join(parts, ", ")
}
