package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/aretw0/palaver/internal/logging"
	"github.com/aretw0/palaver/pkg/directory"
)

// ListAgents prints every agent visible to the configured credential.
func ListAgents(ctx context.Context, opts Options) error {
	cfg, err := loadConfig(opts, nil)
	if err != nil {
		return err
	}
	if err := cfg.ValidateCredentials(); err != nil {
		return err
	}

	logger := logging.ForMode(cfg.Debug, false)
	listing, err := directory.List(ctx, newClient(cfg, logger))
	if err != nil {
		return fmt.Errorf("could not list agents: %w", err)
	}

	out := opts.stdout()
	if opts.JSON {
		return json.NewEncoder(out).Encode(listing)
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tDESCRIPTION")
	for _, a := range listing.Agents {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", a.ID, a.Name, a.Description)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(out, "\n%d agent(s) available\n", listing.Total)
	return nil
}
