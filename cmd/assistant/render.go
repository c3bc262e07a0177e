package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/FACorreiaa/loci-local-assistant/internal/domain/location"
	"github.com/FACorreiaa/loci-local-assistant/internal/types"
)

// Palette is the colour set of one theme.
type Palette struct {
	Background lipgloss.Color
	Text       lipgloss.Color
	Primary    lipgloss.Color
	Secondary  lipgloss.Color
	Border     lipgloss.Color
	Error      lipgloss.Color
	Warning    lipgloss.Color
	Info       lipgloss.Color
	Muted      lipgloss.Color
}

var (
	lightPalette = Palette{
		Background: lipgloss.Color("#FFFFFF"),
		Text:       lipgloss.Color("#1F2937"),
		Primary:    lipgloss.Color("#10B981"),
		Secondary:  lipgloss.Color("#059669"),
		Border:     lipgloss.Color("#E5E7EB"),
		Error:      lipgloss.Color("#EF4444"),
		Warning:    lipgloss.Color("#F59E0B"),
		Info:       lipgloss.Color("#3B82F6"),
		Muted:      lipgloss.Color("#9CA3AF"),
	}
	darkPalette = Palette{
		Background: lipgloss.Color("#111827"),
		Text:       lipgloss.Color("#F9FAFB"),
		Primary:    lipgloss.Color("#34D399"),
		Secondary:  lipgloss.Color("#10B981"),
		Border:     lipgloss.Color("#374151"),
		Error:      lipgloss.Color("#F87171"),
		Warning:    lipgloss.Color("#FBBF24"),
		Info:       lipgloss.Color("#60A5FA"),
		Muted:      lipgloss.Color("#9CA3AF"),
	}
)

func paletteFor(theme types.Theme) Palette {
	if theme == types.ThemeDark {
		return darkPalette
	}
	return lightPalette
}

// Renderer formats domain values for the terminal.
type Renderer struct {
	settings types.Settings

	title   lipgloss.Style
	text    lipgloss.Style
	accent  lipgloss.Style
	muted   lipgloss.Style
	alert   lipgloss.Style
	warning lipgloss.Style
	card    lipgloss.Style
	user    lipgloss.Style
	bot     lipgloss.Style
}

func NewRenderer(theme types.Theme, settings types.Settings) *Renderer {
	p := paletteFor(theme)
	return &Renderer{
		settings: settings,
		title:    lipgloss.NewStyle().Bold(true).Foreground(p.Primary),
		text:     lipgloss.NewStyle().Foreground(p.Text),
		accent:   lipgloss.NewStyle().Foreground(p.Secondary),
		muted:    lipgloss.NewStyle().Foreground(p.Muted),
		alert: lipgloss.NewStyle().
			Bold(true).
			Foreground(p.Error).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(p.Error).
			Padding(0, 1),
		warning: lipgloss.NewStyle().Foreground(p.Warning),
		card: lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderForeground(p.Border).
			Padding(0, 1),
		user: lipgloss.NewStyle().Bold(true).Foreground(p.Info),
		bot:  lipgloss.NewStyle().Bold(true).Foreground(p.Primary),
	}
}

// Distance formats metres in the configured unit system.
func (r *Renderer) Distance(meters int) string {
	if !r.settings.UseMetricSystem {
		miles := float64(meters) / 1609.344
		if miles < 0.1 {
			return fmt.Sprintf("%d ft", int(float64(meters)*3.28084))
		}
		return fmt.Sprintf("%.1f mi", miles)
	}
	if meters < 1000 {
		return fmt.Sprintf("%d m", meters)
	}
	return fmt.Sprintf("%.1f km", float64(meters)/1000)
}

func (r *Renderer) placeMeta(p types.Place) []string {
	meta := make([]string, 0, 3)
	if r.settings.ShowRatings && p.Rating > 0 {
		meta = append(meta, fmt.Sprintf("★ %.1f", p.DisplayRating()))
	}
	if r.settings.ShowPrices && p.Price > 0 {
		meta = append(meta, p.PriceGlyphs())
	}
	if r.settings.ShowDistance && p.Distance > 0 {
		meta = append(meta, r.Distance(p.Distance))
	}
	return meta
}

func categoryName(p types.Place) string {
	if len(p.Categories) == 0 {
		return "Place"
	}
	return p.Categories[0].Name
}

// PlaceLine renders one search result row.
func (r *Renderer) PlaceLine(p types.Place, favorite bool) string {
	marker := " "
	if favorite {
		marker = "♥"
	}
	line := fmt.Sprintf("%s %s %s", r.accent.Render(marker), r.text.Bold(true).Render(p.Name), r.muted.Render("["+p.Icon()+"] "+categoryName(p)))
	if meta := r.placeMeta(p); len(meta) > 0 {
		line += "  " + r.accent.Render(strings.Join(meta, " · "))
	}
	if open, known := p.IsOpenNow(); known {
		if open {
			line += "  " + r.accent.Render("open")
		} else {
			line += "  " + r.warning.Render("closed")
		}
	}
	line += "\n    " + r.muted.Render(p.ID+"  "+p.Address)
	return line
}

// PlaceList renders a result list with a heading.
func (r *Renderer) PlaceList(heading string, places []types.Place, isFavorite func(string) bool) string {
	var b strings.Builder
	b.WriteString(r.title.Render(heading))
	b.WriteString("\n")
	if len(places) == 0 {
		b.WriteString(r.muted.Render("No places found."))
		b.WriteString("\n")
		return b.String()
	}
	for _, p := range places {
		b.WriteString(r.PlaceLine(p, isFavorite != nil && isFavorite(p.ID)))
		b.WriteString("\n")
	}
	return b.String()
}

// PlaceDetail renders a detail record.
func (r *Renderer) PlaceDetail(p types.Place, favorite bool) string {
	lines := []string{r.PlaceLine(p, favorite)}
	if p.Phone != "" {
		lines = append(lines, r.text.Render("Phone: "+p.Phone))
	}
	if p.Website != "" {
		lines = append(lines, r.text.Render("Website: "+p.Website))
	}
	if p.Hours != nil && p.Hours.Display != "" {
		lines = append(lines, r.text.Render("Hours: "+p.Hours.Display))
	}
	lines = append(lines, r.text.Render(fmt.Sprintf("Best time to visit: %s (%s)", p.BestTimeToVisit.Recommended, p.BestTimeToVisit.Reason)))
	if len(p.TouristTips) > 0 {
		lines = append(lines, r.title.Render("Tips"))
		for _, tip := range p.TouristTips {
			lines = append(lines, r.text.Render("  • "+tip))
		}
	}
	if len(p.NearbyAttractions) > 0 {
		lines = append(lines, r.title.Render("Nearby"))
		for _, n := range p.NearbyAttractions {
			row := "  • " + n.Name
			if r.settings.ShowRatings && n.Rating > 0 {
				row += fmt.Sprintf(" ★ %.1f", n.Rating/2)
			}
			lines = append(lines, r.text.Render(row))
		}
	}
	return r.card.Render(strings.Join(lines, "\n")) + "\n"
}

// Location renders a fix with its address when known.
func (r *Renderer) Location(loc *types.Location) string {
	coords := fmt.Sprintf("%.5f, %.5f", loc.Coordinates.Latitude, loc.Coordinates.Longitude)
	if addr := loc.Address.Short(); addr != "" {
		return r.title.Render(addr) + "\n" + r.muted.Render(coords) + "\n"
	}
	return r.title.Render(coords) + "\n"
}

// LocationInit renders the outcome of the first location acquisition.
func (r *Renderer) LocationInit(res location.InitResult) string {
	if res.Status == location.StatusReady {
		return r.Location(res.Location)
	}
	return r.Alert(res.Message)
}

// Tips renders tourist-guide cards.
func (r *Renderer) Tips(place string, tips []types.Tip) string {
	var b strings.Builder
	b.WriteString(r.title.Render("Tourist guide: " + place))
	b.WriteString("\n")
	for _, t := range tips {
		b.WriteString(r.card.Render(r.accent.Render("["+t.Icon+"] ") + r.text.Bold(true).Render(t.Title) + "\n" + r.text.Render(t.Content)))
		b.WriteString("\n")
	}
	return b.String()
}

// Turn renders one chat message.
func (r *Renderer) Turn(turn types.ChatTurn) string {
	if turn.Role == types.RoleUser {
		return r.user.Render("you") + "  " + r.text.Render(turn.Text) + "\n"
	}
	return r.bot.Render("expert") + "  " + r.text.Render(turn.Text) + "\n"
}

// Settings renders the toggles in display order.
func (r *Renderer) Settings(s types.Settings) string {
	var b strings.Builder
	b.WriteString(r.title.Render("Settings"))
	b.WriteString("\n")
	for _, key := range types.SettingKeys {
		v, _ := s.Value(key)
		state := r.warning.Render("off")
		if v {
			state = r.accent.Render("on")
		}
		fmt.Fprintf(&b, "  %-22s %s\n", key, state)
	}
	fmt.Fprintf(&b, "  %-22s %s\n", "units", r.muted.Render(s.Units()))
	return b.String()
}

// Theme renders the theme preference.
func (r *Renderer) Theme(pref types.ThemePreference) string {
	source := "manual"
	if pref.IsSystem {
		source = "system"
	}
	return r.title.Render("Theme: "+string(pref.Theme())) + " " + r.muted.Render("("+source+")") + "\n"
}

// Recents renders recent search terms.
func (r *Renderer) Recents(terms []string) string {
	if len(terms) == 0 {
		return r.muted.Render("No recent searches.") + "\n"
	}
	var b strings.Builder
	b.WriteString(r.title.Render("Recent searches"))
	b.WriteString("\n")
	for i, t := range terms {
		fmt.Fprintf(&b, "  %d. %s\n", i+1, r.text.Render(t))
	}
	return b.String()
}

// Intent renders an interpreted search intent.
func (r *Renderer) Intent(intent *types.SearchIntent) string {
	return r.muted.Render(fmt.Sprintf("type=%s keywords=%s requirements=%s",
		intent.Type, strings.Join(intent.Keywords, ","), strings.Join(intent.Requirements, ","))) + "\n"
}

// Notice renders a neutral message.
func (r *Renderer) Notice(msg string) string {
	return r.muted.Render(msg) + "\n"
}

// Alert renders an error dialog.
func (r *Renderer) Alert(msg string) string {
	return r.alert.Render("Error: "+msg) + "\n"
}
