package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/iziplay/rodb/pkg/client"
	"github.com/iziplay/rodb/pkg/logging"
	"github.com/mattn/go-isatty"
	"github.com/urfave/cli/v2"
)

func main() {
	logging.Setup(os.Stderr)

	app := &cli.App{
		Name:      "rodb-lookup",
		Usage:     "search the item and monster database artifacts",
		ArgsUsage: "[search terms]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "data",
				Aliases: []string{"d"},
				Value:   "http://localhost",
				Usage:   "server base URL or local artifact directory",
				EnvVars: []string{"RODB_DATA_URL"},
			},
			&cli.StringFlag{
				Name:    "kind",
				Aliases: []string{"k"},
				Value:   string(client.KindItems),
				Usage:   "collection to search, items or mobs",
			},
			&cli.IntFlag{
				Name:    "page",
				Aliases: []string{"p"},
				Value:   1,
				Usage:   "result page, starting at 1",
			},
			&cli.IntSliceFlag{Name: "type", Usage: "item type filter, repeatable"},
			&cli.IntSliceFlag{Name: "race", Usage: "mob race filter, repeatable"},
			&cli.IntSliceFlag{Name: "element", Usage: "mob element filter, repeatable"},
			&cli.IntSliceFlag{Name: "size", Usage: "mob size filter, repeatable"},
			&cli.BoolFlag{Name: "boss", Usage: "only boss mobs, --boss=false for regular mobs"},
			&cli.BoolFlag{Name: "json", Usage: "print the page as JSON"},
			&cli.BoolFlag{Name: "no-color", Usage: "do not render description colors", EnvVars: []string{"NO_COLOR"}},
		},
		Action: lookup,
	}

	if err := app.RunContext(context.Background(), os.Args); err != nil {
		slog.Error("Lookup failed", "error", err)
		os.Exit(1)
	}
}

func lookup(c *cli.Context) error {
	engine, err := client.NewEngine(client.Kind(c.String("kind")), client.NewFetcher(c.String("data")))
	if err != nil {
		return err
	}

	query := client.Query{
		Term: strings.Join(c.Args().Slice(), " "),
		Filters: client.Filters{
			Types:    c.IntSlice("type"),
			Races:    c.IntSlice("race"),
			Elements: c.IntSlice("element"),
			Sizes:    c.IntSlice("size"),
		},
	}
	if c.IsSet("boss") {
		boss := c.Bool("boss")
		query.Filters.Boss = &boss
	}

	session, err := engine.Search(c.Context, query)
	if err != nil {
		return err
	}
	if engine.Len() == 0 {
		return fmt.Errorf("no %s data available from %s", engine.Kind(), c.String("data"))
	}

	page := c.Int("page") - 1
	entries, err := session.Page(c.Context, page)
	if err != nil {
		return err
	}

	if c.Bool("json") {
		return printJSON(c.App.Writer, session, page, entries)
	}

	r := renderer{w: c.App.Writer, color: !c.Bool("no-color") && isTerminal(c.App.Writer)}
	r.header(session, page)
	for _, entry := range entries {
		r.entry(entry)
	}
	return nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()))
}

func printJSON(w io.Writer, session *client.Session, page int, entries []client.Entry) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(struct {
		Total   int            `json:"total"`
		Page    int            `json:"page"`
		Pages   int            `json:"pages"`
		Entries []client.Entry `json:"entries"`
	}{session.Total(), page + 1, session.Pages(), entries})
}
