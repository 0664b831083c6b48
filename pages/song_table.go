package pages

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/playwright-community/playwright-go"
)

const (
	selectorSongTable = "table.tabla-canciones"
	// Detail rows are inserted below a song row when it is expanded.
	selectorSongRows  = "tbody tr:not([data-detail])"
	selectorRowTitle  = "td:first-child div.textoGrande"
	classRowSelected  = "seleccionado"
	selectorDetailBtn = "tr[data-detail] button:has-text('%s')"
)

// Song is one row of the song table.
type Song struct {
	Performer string
	Title     string
	Duration  string
	Key       string
}

func (s Song) String() string {
	return fmt.Sprintf("%s - %s (%s, %s)", s.Performer, s.Title, s.Duration, s.Key)
}

// RowAction is a button of the expanded detail row. Its value is the button label.
type RowAction string

const (
	ActionPlay    RowAction = "▶ Tocar"
	ActionList    RowAction = "🗒️ Lista"
	ActionShare   RowAction = "🔗 Compartir"
	ActionEdit    RowAction = "✏️ Editar"
	ActionReorder RowAction = "↕️ Reordenar"
	ActionDelete  RowAction = "−"
)

var rowActionNames = map[string]RowAction{
	"tocar":     ActionPlay,
	"lista":     ActionList,
	"compartir": ActionShare,
	"editar":    ActionEdit,
	"reordenar": ActionReorder,
	"eliminar":  ActionDelete,
}

// ParseRowAction maps a Spanish action name like "Tocar" or "Eliminar" to its RowAction.
func ParseRowAction(name string) (RowAction, bool) {
	action, ok := rowActionNames[strings.ToLower(strings.TrimSpace(name))]
	return action, ok
}

// SongTable reads and drives the song table of the fogón app.
type SongTable struct {
	page  playwright.Page
	table playwright.Locator
	opts  PageOptions
}

func NewSongTable(page playwright.Page, opts PageOptions) *SongTable {
	return &SongTable{
		page:  page,
		table: page.Locator(selectorSongTable),
		opts:  opts,
	}
}

// Songs returns the songs in table order. Rows with fewer than three cells are skipped.
// It fails with ElementNotFoundError when the table does not appear within the timeout.
func (t *SongTable) Songs() ([]Song, error) {
	if err := waitFor(t.table, selectorSongTable, playwright.WaitForSelectorStateVisible, t.opts.timeout()); err != nil {
		return nil, err
	}

	rows := t.table.Locator(selectorSongRows)
	n, err := rows.Count()
	if err != nil {
		return nil, fmt.Errorf("counting song rows: %w", err)
	}

	songs := make([]Song, 0, n)
	for i := 0; i < n; i++ {
		raw, ok, err := readSongRow(rows.Nth(i))
		if err != nil {
			return nil, fmt.Errorf("reading song row %d: %w", i, err)
		}
		if !ok {
			continue
		}
		songs = append(songs, raw.song())
	}

	t.opts.logger().Debug("Read song table", slog.Int("rows", n), slog.Int("songs", len(songs)))
	return songs, nil
}

// songRow holds the raw cell texts of a song row.
type songRow struct {
	firstCell string
	title     string
	duration  string
	key       string
}

// song derives a Song. The performer is the first cell text with the title text removed.
func (r songRow) song() Song {
	performer := r.firstCell
	if r.title != "" {
		performer = strings.ReplaceAll(performer, r.title, "")
	}
	return Song{
		Performer: strings.TrimSpace(performer),
		Title:     strings.TrimSpace(r.title),
		Duration:  strings.TrimSpace(r.duration),
		Key:       strings.TrimSpace(r.key),
	}
}

func readSongRow(row playwright.Locator) (songRow, bool, error) {
	cells := row.Locator("td")
	n, err := cells.Count()
	if err != nil {
		return songRow{}, false, err
	}
	if n < 3 {
		return songRow{}, false, nil
	}

	var raw songRow
	if raw.firstCell, err = cells.Nth(0).TextContent(); err != nil {
		return songRow{}, false, err
	}
	if raw.title, err = optionalText(cells.Nth(0).Locator("div.textoGrande")); err != nil {
		return songRow{}, false, err
	}
	if raw.duration, err = cells.Nth(1).TextContent(); err != nil {
		return songRow{}, false, err
	}
	if raw.key, err = optionalText(cells.Nth(2).Locator("span")); err != nil {
		return songRow{}, false, err
	}
	return raw, true, nil
}

// optionalText returns the text of the first match of locator, or "" if nothing matches.
func optionalText(locator playwright.Locator) (string, error) {
	n, err := locator.Count()
	if err != nil || n == 0 {
		return "", err
	}
	return locator.First().TextContent()
}

// FindRow returns the song row whose title equals title, ignoring case.
func (t *SongTable) FindRow(title string) (playwright.Locator, bool, error) {
	rows := t.table.Locator(selectorSongRows)
	n, err := rows.Count()
	if err != nil {
		return nil, false, fmt.Errorf("counting song rows: %w", err)
	}
	for i := 0; i < n; i++ {
		row := rows.Nth(i)
		text, err := optionalText(row.Locator(selectorRowTitle))
		if err != nil {
			return nil, false, fmt.Errorf("reading title of row %d: %w", i, err)
		}
		if strings.EqualFold(strings.TrimSpace(text), strings.TrimSpace(title)) {
			return row, true, nil
		}
	}
	return nil, false, nil
}

// Expand clicks row unless it is already selected.
func (t *SongTable) Expand(row playwright.Locator) error {
	class, err := row.GetAttribute("class")
	if err != nil {
		return fmt.Errorf("reading row class: %w", err)
	}
	if strings.Contains(class, classRowSelected) {
		return nil
	}
	if err := row.Click(); err != nil {
		return fmt.Errorf("expanding row: %w", err)
	}
	settle(t.page, t.opts.SettleDelay)
	return nil
}

// Act expands the row of title and clicks the action button of its detail row.
// It reports false when the song or the button is missing.
func (t *SongTable) Act(title string, action RowAction) (bool, error) {
	row, ok, err := t.FindRow(title)
	if err != nil || !ok {
		return false, err
	}
	if err := t.Expand(row); err != nil {
		return false, err
	}

	button := t.table.Locator(fmt.Sprintf(selectorDetailBtn, action))
	n, err := button.Count()
	if err != nil {
		return false, fmt.Errorf("looking up %q: %w", action, err)
	}
	if n == 0 {
		t.opts.logger().Debug("Row action not available", slog.String("title", title), slog.String("action", string(action)))
		return false, nil
	}
	if err := button.First().Click(); err != nil {
		return false, fmt.Errorf("clicking %q for %q: %w", action, title, err)
	}
	settle(t.page, t.opts.SettleDelay)

	t.opts.logger().Info("Row action", slog.String("title", title), slog.String("action", string(action)))
	return true, nil
}
