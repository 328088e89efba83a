package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/soaringjerry/Mindful/internal/checkin"
)

func newRecordsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "records",
		Short: "Inspect stored check-in records",
	}
	var owner string
	list := &cobra.Command{
		Use:   "list",
		Short: "List records for an owner, or owners with records",
		Long: `List stored records newest first.

Examples:
  # Owners that have records
  mindful records list

  # One owner's history
  mindful records list --owner u1a2b3c4`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := setup()
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()
			st, closeStore, err := openStore(cmd.Context(), cfg, log)
			if err != nil {
				return err
			}
			defer closeStore()

			out := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			defer out.Flush()
			if owner == "" {
				owners, err := st.ListOwners(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintln(out, "OWNER\tRECORDS")
				for _, o := range owners {
					recs, err := st.ListRecords(cmd.Context(), o)
					if err != nil {
						return err
					}
					fmt.Fprintf(out, "%s\t%d\n", o, len(recs))
				}
				return nil
			}
			recs, err := st.ListRecords(cmd.Context(), owner)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, "ID\tDATE\tGOOD\tNEUTRAL\tBAD\tFLAGGED")
			for _, r := range recs {
				fmt.Fprintf(out, "%s\t%s\t%d\t%d\t%d\t%s\n",
					r.ID, r.Date.Format("2006-01-02 15:04"), r.Summary.Good, r.Summary.Neutral, r.Summary.Bad,
					topicNames(r.FlaggedTopics))
			}
			return nil
		},
	}
	list.Flags().StringVar(&owner, "owner", "", "user id whose records to list")
	cmd.AddCommand(list)
	return cmd
}

func topicNames(ts []checkin.Topic) string {
	s := ""
	for i, t := range ts {
		if i > 0 {
			s += ", "
		}
		s += t.DisplayName()
	}
	if s == "" {
		return "-"
	}
	return s
}

func newCatalogCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "catalog",
		Short: "Print the effective question catalog as YAML",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := setup()
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()
			cat, err := loadCatalog(cfg, log)
			if err != nil {
				return err
			}
			b, err := cat.Marshal()
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(b)
			return err
		},
	}
}
