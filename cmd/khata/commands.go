package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/kbhatt/khata/internal/config"
	"github.com/kbhatt/khata/internal/ingest"
	"github.com/kbhatt/khata/internal/logger"
	"github.com/kbhatt/khata/internal/source"
	"github.com/kbhatt/khata/internal/store"
	"github.com/kbhatt/khata/internal/ui"
)

// Globals are the flags shared by every subcommand.
type Globals struct {
	Config  string `help:"Path to the configuration file." default:"khata.yaml" type:"path"`
	DB      string `help:"Override the database path from the configuration."`
	Verbose bool   `help:"Enable debug logging." short:"v"`
}

// Commands holds all subcommands.
type Commands struct {
	Ingest     IngestCmd     `cmd:"" help:"Ingest a statement file into the ledger."`
	Sources    SourcesCmd    `cmd:"" help:"List registered statement sources."`
	Categories CategoriesCmd `cmd:"" help:"Sync and list spend categories."`
	Review     ReviewCmd     `cmd:"" help:"Bulk re-categorize ledger entries."`
}

// app is the wired-up application state every command runs against.
type app struct {
	cfg      config.Config
	log      zerolog.Logger
	store    *store.Store
	registry *source.Registry
}

func setup(ctx context.Context, g *Globals) (*app, error) {
	cfg, err := config.Load(g.Config)
	if err != nil {
		return nil, err
	}
	if g.DB != "" {
		cfg.DB = g.DB
	}

	log := logger.New(g.Verbose)

	st, err := store.Open(ctx, cfg.DB)
	if err != nil {
		return nil, err
	}
	if err := st.SyncCategories(ctx, cfg.Categories()); err != nil {
		st.Close()
		return nil, err
	}
	if err := st.SyncTags(ctx, cfg.Tags); err != nil {
		st.Close()
		return nil, err
	}

	reg, err := source.DefaultRegistry(source.Options{
		AxisCustomerID: cfg.AxisCustomerID,
		BankCodeMax:    cfg.BankCodeMax,
		Cities:         cfg.Cities,
		Countries:      cfg.Countries,
	})
	if err != nil {
		st.Close()
		return nil, err
	}

	return &app{cfg: cfg, log: log, store: st, registry: reg}, nil
}

func (a *app) close() {
	if err := a.store.Close(); err != nil {
		a.log.Warn().Err(err).Msg("closing store")
	}
}

// IngestCmd ingests one statement file.
type IngestCmd struct {
	File   string `arg:"" help:"Statement file to ingest." type:"existingfile"`
	Source string `help:"Registered source name, e.g. axis, axis-cc, cash." required:""`
}

func (cmd *IngestCmd) Run(g *Globals) error {
	ctx := context.Background()
	a, err := setup(ctx, g)
	if err != nil {
		return err
	}
	defer a.close()

	in := ingest.New(a.store, a.registry, a.log)
	res, err := in.IngestFile(ctx, cmd.File, cmd.Source)
	if err != nil {
		ui.Error(err.Error())
		return err
	}

	if res.Written == 0 {
		ui.Info(fmt.Sprintf("%s: all %d rows already in the ledger", cmd.File, res.Seen))
		return nil
	}
	ui.Success(fmt.Sprintf("%s: %d new of %d rows written", cmd.File, res.Written, res.Seen))
	return nil
}

// SourcesCmd lists the registered sources and their ledger counts.
type SourcesCmd struct{}

func (cmd *SourcesCmd) Run(g *Globals) error {
	ctx := context.Background()
	a, err := setup(ctx, g)
	if err != nil {
		return err
	}
	defer a.close()

	counts, err := a.store.CountBySource(ctx)
	if err != nil {
		return err
	}

	ui.Header("Sources")
	for _, name := range a.registry.Names() {
		fmt.Printf("  %-12s %d entries\n", name, counts[name])
	}
	return nil
}

// CategoriesCmd lists the configured categories after syncing them to
// the database.
type CategoriesCmd struct{}

func (cmd *CategoriesCmd) Run(g *Globals) error {
	ctx := context.Background()
	a, err := setup(ctx, g)
	if err != nil {
		return err
	}
	defer a.close()

	categories, err := a.store.Categories(ctx)
	if err != nil {
		return err
	}

	ui.Header("Categories")
	for _, c := range categories {
		fmt.Printf("  %3d  %s\n", c.ID, c.Name)
	}

	tags, err := a.store.Tags(ctx)
	if err != nil {
		return err
	}
	if len(tags) > 0 {
		ui.Header("Tags")
		for _, tag := range tags {
			fmt.Printf("  %3d  %s\n", tag.ID, tag.Name)
		}
	}
	return nil
}

// ReviewCmd assigns a category to every entry matching the filters.
type ReviewCmd struct {
	Category     string `help:"Category name to assign." required:""`
	Source       string `help:"Limit to one source."`
	Counterparty string `help:"Limit to entries whose counterparty name contains this text."`
	From         string `help:"Limit to entries on or after this date (YYYY-MM-DD)."`
	To           string `help:"Limit to entries before this date (YYYY-MM-DD)."`
	Yes          bool   `help:"Apply without asking for confirmation." short:"y"`
}

func (cmd *ReviewCmd) Run(g *Globals) error {
	ctx := context.Background()
	a, err := setup(ctx, g)
	if err != nil {
		return err
	}
	defer a.close()

	if cmd.Source == "" && cmd.Counterparty == "" && cmd.From == "" && cmd.To == "" {
		return fmt.Errorf("refusing to re-categorize the whole ledger; give at least one filter")
	}

	filter := store.Filter{
		Source:       cmd.Source,
		Counterparty: cmd.Counterparty,
	}
	if cmd.From != "" {
		if filter.From, err = time.Parse("2006-01-02", cmd.From); err != nil {
			return fmt.Errorf("parsing --from date: %w", err)
		}
	}
	if cmd.To != "" {
		if filter.To, err = time.Parse("2006-01-02", cmd.To); err != nil {
			return fmt.Errorf("parsing --to date: %w", err)
		}
	}

	categoryID, err := findCategory(ctx, a, cmd.Category)
	if err != nil {
		return err
	}

	entries, err := a.store.Entries(ctx, filter)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		ui.Info("no matching entries")
		return nil
	}

	names := make(map[string]bool)
	for _, e := range entries {
		names[e.CounterpartyName] = true
	}
	ui.Info(fmt.Sprintf("%d entries match (%d distinct counterparties)", len(entries), len(names)))

	if !cmd.Yes && !confirm(fmt.Sprintf("Assign %q to %d entries?", cmd.Category, len(entries))) {
		ui.Warning("aborted")
		return nil
	}

	n, err := a.store.Categorize(ctx, filter, categoryID)
	if err != nil {
		return err
	}
	ui.Success(fmt.Sprintf("re-categorized %d entries", n))
	return nil
}

func findCategory(ctx context.Context, a *app, name string) (int64, error) {
	categories, err := a.store.Categories(ctx)
	if err != nil {
		return 0, err
	}
	var known []string
	for _, c := range categories {
		if strings.EqualFold(c.Name, name) {
			return c.ID, nil
		}
		known = append(known, c.Name)
	}
	sort.Strings(known)
	return 0, fmt.Errorf("unknown category %q (known: %s)", name, strings.Join(known, ", "))
}

func confirm(question string) bool {
	fmt.Printf("%s [y/N] ", question)
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}
