package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"curator/pkg/curation"

	"github.com/spf13/cobra"
)

var errUnsorted = errors.New("index files are not sorted")

func newSortCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "sort",
		Short: "Rewrite the blacklist and category files in case-insensitive order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store := a.store()
			stores, err := store.Load()
			if err != nil {
				return err
			}
			return store.SaveIndex(stores)
		},
	}
}

func newIsSortedCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "is-sorted",
		Short: "Fail when the blacklist or a category file is out of order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			stores, err := a.store().Load()
			if err != nil {
				return err
			}
			unsorted := curation.Unsorted(stores)
			out := cmd.OutOrStdout()
			for _, list := range unsorted {
				_, _ = fmt.Fprintf(out, "%s is not sorted correctly\n", list.Name)
				_, _ = fmt.Fprintf(out, "It should look like\n%s\nBut it is\n%s\n", asJSON(list.Expected), asJSON(list.Actual))
			}
			if len(unsorted) > 0 {
				return errUnsorted
			}
			return nil
		},
	}
}

func asJSON(ids []curation.RepositoryID) string {
	data, err := json.Marshal(ids)
	if err != nil {
		return fmt.Sprint(ids)
	}
	return string(data)
}
