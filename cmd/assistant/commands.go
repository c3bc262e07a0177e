package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/FACorreiaa/loci-local-assistant/internal/domain/chat"
	"github.com/FACorreiaa/loci-local-assistant/internal/domain/discover"
	"github.com/FACorreiaa/loci-local-assistant/internal/domain/favorites"
	"github.com/FACorreiaa/loci-local-assistant/internal/domain/location"
	"github.com/FACorreiaa/loci-local-assistant/internal/domain/poi"
	"github.com/FACorreiaa/loci-local-assistant/internal/domain/recents"
	"github.com/FACorreiaa/loci-local-assistant/internal/domain/settings"
	"github.com/FACorreiaa/loci-local-assistant/internal/types"
)

// prefetchLimit caps detail fetches made to evaluate --open-now.
const prefetchLimit = 10

var (
	// errReported means the command already printed its failure.
	errReported  = errors.New("reported")
	errNoAdvisor = errors.New("AI features require GEMINI_API_KEY")
)

type usageError struct{ msg string }

func (e usageError) Error() string { return e.msg }

func usagef(format string, args ...any) error {
	return usageError{msg: fmt.Sprintf(format, args...)}
}

type locator interface {
	Initialize(ctx context.Context) location.InitResult
	GetCurrentLocation(ctx context.Context) (*types.Location, error)
	Refresh(ctx context.Context) (*types.Location, error)
}

type themer interface {
	Load(ctx context.Context, systemDark bool) types.ThemePreference
	Toggle(ctx context.Context) (types.ThemePreference, error)
	UseSystem(ctx context.Context, systemDark bool) (types.ThemePreference, error)
}

var (
	_ locator = (*location.Service)(nil)
	_ themer  = (*settings.ThemeService)(nil)
)

// app binds the CLI commands to the domain services.
type app struct {
	places    poi.Service
	location  locator
	favorites favorites.Service
	recents   recents.Service
	settings  settings.Service
	theme     themer
	chat      chat.Service

	fallback   types.Coordinates
	systemDark func() bool
	logger     *slog.Logger

	in  io.Reader
	out io.Writer
}

func newApp(deps *Dependencies, in io.Reader, out io.Writer, systemDark func() bool) *app {
	a := &app{
		places:    deps.Places,
		location:  deps.Location,
		favorites: deps.Favorites,
		recents:   deps.Recents,
		settings:  deps.Settings,
		theme:     deps.Theme,
		fallback: types.Coordinates{
			Latitude:  deps.Config.Location.Latitude,
			Longitude: deps.Config.Location.Longitude,
		},
		systemDark: systemDark,
		logger:     deps.Logger,
		in:         in,
		out:        out,
	}
	if deps.Chat != nil {
		a.chat = deps.Chat
	}
	return a
}

type command struct {
	name  string
	usage string
	run   func(a *app, ctx context.Context, args []string) error
}

var commands = []command{
	{"locate", "locate [--refresh]", (*app).locate},
	{"search", "search [--open-now] [--price 1-4] [--category name] [--sort distance|rating|price] [--radius m] <query>", (*app).search},
	{"details", "details <place-id>", (*app).details},
	{"favorites", "favorites [list|toggle <place-id>|remove <place-id>]", (*app).favoritesCmd},
	{"recent", "recent [list|clear]", (*app).recent},
	{"settings", "settings [show|toggle <key>|reset]", (*app).settingsCmd},
	{"theme", "theme [show|toggle|system]", (*app).themeCmd},
	{"tips", "tips <location>", (*app).tips},
	{"chat", "chat", (*app).chatREPL},
	{"ask", "ask <natural language query>", (*app).ask},
}

func usage() string {
	var b strings.Builder
	b.WriteString("usage: assistant <command> [arguments]\n\ncommands:\n")
	for _, c := range commands {
		fmt.Fprintf(&b, "  %s\n", c.usage)
	}
	return b.String()
}

func (a *app) dispatch(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return usagef("no command given")
	}
	for _, c := range commands {
		if c.name == args[0] {
			return c.run(a, ctx, args[1:])
		}
	}
	return usagef("unknown command %q", args[0])
}

func (a *app) renderer(ctx context.Context) *Renderer {
	pref := a.theme.Load(ctx, a.systemDark())
	return NewRenderer(pref.Theme(), a.settings.Get(ctx))
}

func (a *app) print(s string) {
	_, _ = io.WriteString(a.out, s)
}

// center returns the current position, or the configured fallback when the
// location is unavailable.
func (a *app) center(ctx context.Context, r *Renderer) types.Coordinates {
	loc, err := a.location.GetCurrentLocation(ctx)
	if err != nil {
		a.logger.WarnContext(ctx, "Using fallback location", slog.Any("error", err))
		a.print(r.Notice("Location unavailable, searching around the default location."))
		return a.fallback
	}
	return loc.Coordinates
}

func (a *app) locate(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("locate", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	refresh := fs.Bool("refresh", false, "re-acquire the position")
	if err := fs.Parse(args); err != nil {
		return usagef("locate: %v", err)
	}
	r := a.renderer(ctx)

	if *refresh {
		loc, err := a.location.Refresh(ctx)
		if err != nil {
			a.print(r.Alert(location.MessageRefreshFailed))
			return errReported
		}
		a.print(r.Location(loc))
		return nil
	}

	res := a.location.Initialize(ctx)
	a.print(r.LocationInit(res))
	if res.Status != location.StatusReady {
		return errReported
	}
	return nil
}

type searchOptions struct {
	query  string
	radius int
	spec   discover.FilterSpec
}

func parseSearchArgs(args []string) (searchOptions, error) {
	fs := flag.NewFlagSet("search", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	openNow := fs.Bool("open-now", false, "only places open right now")
	price := fs.String("price", "", "price tier or range, e.g. 2 or 1-3")
	category := fs.String("category", "", "category name substring")
	sortBy := fs.String("sort", string(discover.SortDistance), "distance, rating or price")
	radius := fs.Int("radius", types.DefaultSearchRadiusMeters, "search radius in metres")
	if err := fs.Parse(args); err != nil {
		return searchOptions{}, usagef("search: %v", err)
	}

	opts := searchOptions{
		query:  strings.TrimSpace(strings.Join(fs.Args(), " ")),
		radius: *radius,
		spec:   discover.DefaultFilterSpec(),
	}
	if opts.query == "" {
		return searchOptions{}, usagef("search: a query is required")
	}
	if opts.radius <= 0 {
		return searchOptions{}, usagef("search: radius must be positive")
	}

	var err error
	if opts.spec.PriceRange, err = discover.ParsePriceRange(*price); err != nil {
		return searchOptions{}, usagef("search: %v", err)
	}
	if opts.spec.SortBy, err = discover.ParseSortBy(*sortBy); err != nil {
		return searchOptions{}, usagef("search: %v", err)
	}
	opts.spec.OpenNow = *openNow
	opts.spec.Category = *category
	return opts, nil
}

func (a *app) search(ctx context.Context, args []string) error {
	opts, err := parseSearchArgs(args)
	if err != nil {
		return err
	}
	return a.runSearch(ctx, opts)
}

func (a *app) runSearch(ctx context.Context, opts searchOptions) error {
	r := a.renderer(ctx)

	if _, err := a.recents.Add(ctx, opts.query); err != nil {
		a.logger.WarnContext(ctx, "Could not record recent search", slog.Any("error", err))
	}

	session := discover.NewSession(a.places, a.logger)
	defer session.Close()

	_, err := session.Search(ctx, types.SearchRequest{
		Center:       a.center(ctx, r),
		Query:        opts.query,
		RadiusMeters: opts.radius,
	})
	if err != nil {
		return err
	}
	if opts.spec.OpenNow {
		if _, err := session.PrefetchDetails(ctx, prefetchLimit); err != nil {
			return err
		}
	}

	results := session.Results(opts.spec)
	favs := favoriteSet(a.favorites.List(ctx))
	a.print(r.PlaceList(fmt.Sprintf("Results for %q (%s)", opts.query, opts.spec.PriceRange), results, func(id string) bool {
		return favs[id]
	}))
	return nil
}

func favoriteSet(places []types.Place) map[string]bool {
	set := make(map[string]bool, len(places))
	for _, p := range places {
		set[p.ID] = true
	}
	return set
}

func (a *app) details(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return usagef("details: exactly one place id is required")
	}
	session := discover.NewSession(a.places, a.logger)
	defer session.Close()

	place, err := session.Select(ctx, args[0])
	if err != nil {
		return err
	}
	a.print(a.renderer(ctx).PlaceDetail(*place, a.favorites.IsFavorite(ctx, place.ID)))
	return nil
}

func (a *app) favoritesCmd(ctx context.Context, args []string) error {
	r := a.renderer(ctx)
	sub, rest := subcommand(args, "list")

	switch sub {
	case "list":
		list := a.favorites.List(ctx)
		a.print(r.PlaceList("Favorites", list, func(string) bool { return true }))
		return nil

	case "toggle":
		if len(rest) != 1 {
			return usagef("favorites toggle: exactly one place id is required")
		}
		place, err := a.favoriteSnapshot(ctx, rest[0])
		if err != nil {
			return err
		}
		added, err := a.favorites.Toggle(ctx, *place)
		if err != nil {
			return err
		}
		if added {
			a.print(r.Notice("Added " + place.Name + " to favorites."))
		} else {
			a.print(r.Notice("Removed " + place.Name + " from favorites."))
		}
		return nil

	case "remove":
		if len(rest) != 1 {
			return usagef("favorites remove: exactly one place id is required")
		}
		if err := a.favorites.Remove(ctx, rest[0]); err != nil {
			return err
		}
		a.print(r.Notice("Removed " + rest[0] + " from favorites."))
		return nil
	}
	return usagef("favorites: unknown subcommand %q", sub)
}

// favoriteSnapshot returns the stored snapshot for a saved place, or fetches
// the place so a full snapshot can be stored.
func (a *app) favoriteSnapshot(ctx context.Context, id string) (*types.Place, error) {
	for _, p := range a.favorites.List(ctx) {
		if p.ID == id {
			return &p, nil
		}
	}
	return a.places.GetDetails(ctx, id)
}

func (a *app) recent(ctx context.Context, args []string) error {
	r := a.renderer(ctx)
	sub, _ := subcommand(args, "list")

	switch sub {
	case "list":
		a.print(r.Recents(a.recents.List(ctx)))
		return nil
	case "clear":
		if err := a.recents.Clear(ctx); err != nil {
			return err
		}
		a.print(r.Notice("Recent searches cleared."))
		return nil
	}
	return usagef("recent: unknown subcommand %q", sub)
}

func (a *app) settingsCmd(ctx context.Context, args []string) error {
	sub, rest := subcommand(args, "show")

	switch sub {
	case "show":
		a.print(a.renderer(ctx).Settings(a.settings.Get(ctx)))
		return nil
	case "toggle":
		if len(rest) != 1 {
			return usagef("settings toggle: exactly one key is required")
		}
		s, err := a.settings.Toggle(ctx, types.SettingKey(rest[0]))
		if err != nil {
			return err
		}
		a.print(a.renderer(ctx).Settings(s))
		return nil
	case "reset":
		s, err := a.settings.Reset(ctx)
		if err != nil {
			return err
		}
		a.print(a.renderer(ctx).Settings(s))
		return nil
	}
	return usagef("settings: unknown subcommand %q", sub)
}

func (a *app) themeCmd(ctx context.Context, args []string) error {
	sub, _ := subcommand(args, "show")
	systemDark := a.systemDark()
	pref := a.theme.Load(ctx, systemDark)

	var err error
	switch sub {
	case "show":
	case "toggle":
		pref, err = a.theme.Toggle(ctx)
	case "system":
		pref, err = a.theme.UseSystem(ctx, systemDark)
	default:
		return usagef("theme: unknown subcommand %q", sub)
	}
	if err != nil {
		return err
	}
	a.print(NewRenderer(pref.Theme(), a.settings.Get(ctx)).Theme(pref))
	return nil
}

func (a *app) tips(ctx context.Context, args []string) error {
	place := strings.TrimSpace(strings.Join(args, " "))
	if place == "" {
		return usagef("tips: a location is required")
	}
	if a.chat == nil {
		return errNoAdvisor
	}
	r := a.renderer(ctx)

	tips, err := a.chat.GetTips(ctx, place)
	if err != nil {
		a.logger.ErrorContext(ctx, "Failed to load tourist tips", slog.Any("error", err))
		a.print(r.Alert(chat.TipsLoadAlert))
		return errReported
	}
	a.print(r.Tips(place, tips))
	return nil
}

func (a *app) chatREPL(ctx context.Context, _ []string) error {
	if a.chat == nil {
		return errNoAdvisor
	}
	r := a.renderer(ctx)
	conv := chat.NewConversation(a.chat)

	for _, turn := range conv.Turns() {
		a.print(r.Turn(turn))
	}
	a.print(r.Notice("Type a message, or \"exit\" to leave."))

	scanner := bufio.NewScanner(a.in)
	for {
		a.print("> ")
		if !scanner.Scan() {
			a.print("\n")
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "":
			continue
		case "exit", "quit":
			return nil
		}

		reply, err := conv.Send(ctx, line)
		if err != nil {
			a.logger.WarnContext(ctx, "Travel expert reply failed", slog.Any("error", err))
		}
		a.print(r.Turn(reply))
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}

func (a *app) ask(ctx context.Context, args []string) error {
	query := strings.TrimSpace(strings.Join(args, " "))
	if query == "" {
		return usagef("ask: a query is required")
	}
	if a.chat == nil {
		return errNoAdvisor
	}
	r := a.renderer(ctx)

	searchTerm := query
	intent, err := a.chat.InterpretQuery(ctx, query)
	switch {
	case err == nil:
		a.print(r.Intent(intent))
		searchTerm = intent.Query()
	case errors.Is(err, types.ErrInvalidAdviceFormat):
		a.print(r.Alert("Invalid response format from AI"))
	default:
		a.logger.WarnContext(ctx, "Query interpretation unavailable", slog.Any("error", err))
		a.print(r.Notice("Could not interpret the query, searching for it as typed."))
	}

	return a.runSearch(ctx, searchOptions{
		query:  searchTerm,
		radius: types.DefaultSearchRadiusMeters,
		spec:   discover.DefaultFilterSpec(),
	})
}

// subcommand splits args into the subcommand name and its arguments.
func subcommand(args []string, fallback string) (string, []string) {
	if len(args) == 0 {
		return fallback, nil
	}
	return args[0], args[1:]
}

// userMessage maps a command failure to the text shown to the user.
func userMessage(err error) string {
	switch {
	case errors.Is(err, types.ErrPermissionDenied):
		return location.MessagePermissionDenied
	case errors.Is(err, types.ErrLocationUnavailable):
		return location.MessageUnavailable
	case errors.Is(err, types.ErrNotFound):
		return "Place not found."
	case errors.Is(err, types.ErrSearchFailed):
		return "Failed to search places. Please try again."
	case errors.Is(err, types.ErrDetailFetchFailed):
		return "Failed to load place details. Please try again."
	case errors.Is(err, types.ErrInvalidAdviceFormat):
		return "Invalid response format from AI"
	case errors.Is(err, types.ErrAdviceUnavailable):
		return "Failed to get response from travel expert"
	}
	return err.Error()
}
