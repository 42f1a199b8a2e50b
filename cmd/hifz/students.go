package main

import (
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newStudentsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "students",
		Short: "Manage the roster",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "add NAME...",
		Short: "Add students (existing names are left alone)",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, name := range args {
				st, created, err := a.students.AddStudent(cmd.Context(), name)
				if err != nil {
					return err
				}
				if created {
					fmt.Fprintf(cmd.OutOrStdout(), "added %s (id %d)\n", st.Name, st.ID)
				} else {
					fmt.Fprintf(cmd.OutOrStdout(), "exists %s (id %d)\n", st.Name, st.ID)
				}
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List students by name",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			students, err := a.students.ListStudents(cmd.Context())
			if err != nil {
				return err
			}
			if len(students) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no students yet")
				return nil
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME")
			for _, st := range students {
				fmt.Fprintf(tw, "%d\t%s\n", st.ID, st.Name)
			}
			return tw.Flush()
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "delete ID",
		Short: "Delete a student and all of their logs",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid student id %q", args[0])
			}
			st, err := a.students.GetStudent(cmd.Context(), id)
			if err != nil {
				return err
			}
			if st == nil {
				fmt.Fprintf(cmd.OutOrStdout(), "no student with id %d\n", id)
				return nil
			}
			if err := a.students.DeleteStudent(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s (id %d)\n", st.Name, id)
			return nil
		},
	})
	return cmd
}
