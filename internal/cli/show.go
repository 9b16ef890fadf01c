package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/recordsync/internal/record"
	"github.com/roach88/recordsync/internal/store"
)

// ShowOptions holds flags for the show and batch commands.
type ShowOptions struct {
	*RootOptions
	Owner   string
	Content bool
}

// ShowResult lists an outbox zone.
type ShowResult struct {
	Zone    string       `json:"zone"`
	Records []ShowRecord `json:"records"`
}

// ShowRecord is one outbox row with its content decoded for JSON output.
type ShowRecord struct {
	store.StoredRecord
	Content json.RawMessage `json:"content,omitempty"`
}

// NewShowCommand creates the show command.
func NewShowCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ShowOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "show <database> <zone>",
		Short: "List the records in an outbox zone",
		Long: `List every record the outbox holds for a zone, deleted ones included.

Records are ordered by name. Use --content to include each record's
canonical JSON.

Examples:
  recordsync show outbox.db CatsZone
  recordsync show outbox.db _defaultZone --format json --content`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShow(opts, args[0], args[1], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Owner, "owner", record.CurrentUserOwner, "zone owner")
	cmd.Flags().BoolVar(&opts.Content, "content", false, "include canonical record content")

	return cmd
}

// NewBatchCommand creates the batch command.
func NewBatchCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "batch <database> <batch-id>",
		Short:         "Show the statistics of an outbox batch",
		Example:       `  recordsync batch outbox.db 01928c6e-8f2a-7c3e-b2a1-5d6e7f809a1b`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBatch(rootOpts, args[0], args[1], cmd)
		},
	}
}

func runShow(opts *ShowOptions, dbPath, zoneName string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), ErrWriter: cmd.ErrOrStderr(), Verbose: opts.Verbose}

	st, err := openExisting(dbPath)
	if err != nil {
		return outputCommandError(formatter, ErrCodeNotFound, err.Error(), nil)
	}
	defer st.Close()

	zone := record.ZoneID{Name: zoneName, Owner: opts.Owner}
	rows, err := st.ListZone(commandContext(cmd), zone)
	if err != nil {
		return outputCommandError(formatter, ErrCodeStoreFailed, err.Error(), nil)
	}

	if formatter.JSON() {
		result := ShowResult{Zone: zone.String(), Records: make([]ShowRecord, 0, len(rows))}
		for _, row := range rows {
			sr := ShowRecord{StoredRecord: row}
			if opts.Content {
				sr.Content = json.RawMessage(row.Content)
			}
			result.Records = append(result.Records, sr)
		}
		return formatter.Success(result)
	}

	if len(rows) == 0 {
		fmt.Fprintf(formatter.Writer, "No records in zone %s\n", zone)
		return nil
	}
	tw := formatter.Table()
	fmt.Fprintln(tw, "NAME\tTYPE\tVERSION\tHASH\tSTATE\tUPDATED")
	for _, row := range rows {
		state := "live"
		if row.Deleted {
			state = "deleted"
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\t%s\n",
			row.ID.Name, row.Type, row.Version, row.ContentHash[:12], state, row.UpdatedAt)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if opts.Content {
		for _, row := range rows {
			fmt.Fprintf(formatter.Writer, "%s %s\n", row.ID.Name, row.Content)
		}
	}
	return nil
}

func runBatch(opts *RootOptions, dbPath, batchID string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), ErrWriter: cmd.ErrOrStderr(), Verbose: opts.Verbose}

	st, err := openExisting(dbPath)
	if err != nil {
		return outputCommandError(formatter, ErrCodeNotFound, err.Error(), nil)
	}
	defer st.Close()

	b, err := st.GetBatch(commandContext(cmd), batchID)
	if errors.Is(err, store.ErrNotFound) {
		return outputCommandError(formatter, ErrCodeNotFound, fmt.Sprintf("batch not found: %s", batchID), nil)
	}
	if err != nil {
		return outputCommandError(formatter, ErrCodeStoreFailed, err.Error(), nil)
	}

	if formatter.JSON() {
		return formatter.Success(b)
	}
	finished := b.FinishedAt
	if finished == "" {
		finished = "(unfinished)"
	}
	fmt.Fprintf(formatter.Writer, "Batch %s (%s scope)\n", b.ID, b.Scope)
	fmt.Fprintf(formatter.Writer, "  started:  %s\n  finished: %s\n", b.StartedAt, finished)
	fmt.Fprintf(formatter.Writer, "  %d projected, %d unchanged, %d deleted, %d skipped\n",
		b.Projected, b.Unchanged, b.Deleted, b.Skipped)
	return nil
}

// openExisting opens an outbox that must already exist.
func openExisting(path string) (*store.Store, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("database not found: %s", path)
	}
	return store.Open(path)
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
