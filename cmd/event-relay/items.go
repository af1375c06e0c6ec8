// ABOUTME: Catalog item management subcommands
// ABOUTME: items add, items list and items delete against the configured item database

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/pflag"

	"github.com/2389/event-relay/internal/relay"
	"github.com/2389/event-relay/internal/store"
)

const validUntilLayout = "2006-01-02"

// itemOptions are the flags of "items add".
type itemOptions struct {
	owner       int64
	name        string
	header      string
	description string
	media       string
	validUntil  string
}

func (o *itemOptions) register(flags *pflag.FlagSet) {
	flags.Int64Var(&o.owner, "owner", 0, "Telegram user id of the event owner")
	flags.StringVar(&o.name, "name", "", "event name")
	flags.StringVar(&o.header, "header", "", "short headline")
	flags.StringVar(&o.description, "description", "", "event description")
	flags.StringVar(&o.media, "media", "", "client bot file id of the event photo")
	flags.StringVar(&o.validUntil, "valid-until", "", "last day the event is shown (YYYY-MM-DD)")
}

func (o *itemOptions) item() (*store.Item, error) {
	if o.owner == 0 {
		return nil, errors.New("--owner is required")
	}
	if strings.TrimSpace(o.name) == "" {
		return nil, errors.New("--name is required")
	}
	if o.media == "" {
		return nil, errors.New("--media is required")
	}

	item := &store.Item{
		OwnerID:     o.owner,
		Name:        o.name,
		Header:      o.header,
		Description: o.description,
		Media:       o.media,
	}
	if o.validUntil != "" {
		t, err := time.Parse(validUntilLayout, o.validUntil)
		if err != nil {
			return nil, fmt.Errorf("--valid-until: %w", err)
		}
		item.ValidUntil = t
	}
	return item, nil
}

func runItems(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errors.New("usage: event-relay items add|list|delete")
	}

	var opts itemOptions
	var limit int
	var extra func(*pflag.FlagSet)
	switch args[0] {
	case "add":
		extra = opts.register
	case "list":
		extra = func(flags *pflag.FlagSet) {
			flags.IntVar(&limit, "limit", 50, "maximum number of items to show")
		}
	case "delete":
	default:
		return fmt.Errorf("unknown items command: %s", args[0])
	}

	cfg, _, rest, err := loadConfig("items "+args[0], args[1:], extra)
	if err != nil {
		return err
	}

	s, err := store.NewSQLiteStore(cfg.Database.Driver, cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("opening item database: %w", err)
	}
	defer s.Close()

	switch args[0] {
	case "add":
		return addItem(ctx, s, os.Stdout, &opts, cfg.Relay.ClientBotURL)
	case "list":
		return listItems(ctx, s, os.Stdout, limit)
	default:
		if len(rest) != 1 {
			return errors.New("usage: event-relay items delete ID")
		}
		id, err := strconv.ParseInt(rest[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid item id %q", rest[0])
		}
		return deleteItem(ctx, s, os.Stdout, id)
	}
}

func addItem(ctx context.Context, s store.ItemStore, w io.Writer, opts *itemOptions, clientBotURL string) error {
	item, err := opts.item()
	if err != nil {
		return err
	}
	if err := s.CreateItem(ctx, item); err != nil {
		return fmt.Errorf("creating item: %w", err)
	}

	fmt.Fprintf(w, "Created item %d\n", item.ID)
	if clientBotURL != "" {
		fmt.Fprintf(w, "Link: %s\n", relay.DeepLink(clientBotURL, item.ID))
	}
	return nil
}

func listItems(ctx context.Context, s store.ItemStore, w io.Writer, limit int) error {
	items, err := s.ListItems(ctx, limit)
	if err != nil {
		return fmt.Errorf("listing items: %w", err)
	}

	cyan := color.New(color.FgCyan)
	fmt.Fprintln(w)
	cyan.Fprintln(w, "  Catalog Items")
	cyan.Fprintln(w, "  -------------")

	if len(items) == 0 {
		fmt.Fprintln(w, "  (no items)")
		fmt.Fprintln(w)
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "  ID\tOWNER\tVALID UNTIL\tNAME")
	fmt.Fprintln(tw, "  --\t-----\t-----------\t----")
	for _, item := range items {
		until := "-"
		if !item.ValidUntil.IsZero() {
			until = item.ValidUntil.Format(validUntilLayout)
		}
		fmt.Fprintf(tw, "  %d\t%d\t%s\t%s\n", item.ID, item.OwnerID, until, truncate(item.Name, 40))
	}
	tw.Flush()
	fmt.Fprintln(w)
	return nil
}

func deleteItem(ctx context.Context, s store.ItemStore, w io.Writer, id int64) error {
	if err := s.DeleteItem(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("item %d not found", id)
		}
		return fmt.Errorf("deleting item: %w", err)
	}
	fmt.Fprintf(w, "Deleted item %d\n", id)
	return nil
}

// truncate shortens a string to the given max rune count, adding "..." if truncated.
func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen]) + "..."
}
