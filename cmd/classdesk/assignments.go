package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/avilkin/classdesk/internal/api"
	appI18n "github.com/avilkin/classdesk/internal/i18n"
	"github.com/avilkin/classdesk/internal/model"
	"github.com/avilkin/classdesk/internal/store"
)

const dueDateLayout = "2006-01-02T15:04"

func assignmentsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "assignments",
		Aliases: []string{"assignment", "a"},
		Short:   "Browse and manage assignments",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List assignments visible to your role",
		RunE:  runAssignmentsList,
	}
	f := list.Flags()
	f.StringP("status", "s", "", "Filter by status (Draft, Published, Completed)")
	f.Int("page", 1, "Page number")
	f.Int("limit", 10, "Page size")

	show := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one assignment",
		Args:  cobra.ExactArgs(1),
		RunE:  runAssignmentsShow,
	}

	create := &cobra.Command{
		Use:   "create",
		Short: "Create a draft assignment (teachers)",
		RunE:  runAssignmentsCreate,
	}
	f = create.Flags()
	f.StringP("title", "t", "", "Assignment title (required)")
	f.StringP("description", "d", "", "Assignment description (required)")
	f.String("due", "", "Due date, e.g. 2026-10-01T17:00 (required)")
	_ = create.MarkFlagRequired("title")
	_ = create.MarkFlagRequired("description")
	_ = create.MarkFlagRequired("due")

	update := &cobra.Command{
		Use:   "update <id>",
		Short: "Edit a draft assignment (teachers)",
		Args:  cobra.ExactArgs(1),
		RunE:  runAssignmentsUpdate,
	}
	f = update.Flags()
	f.StringP("title", "t", "", "New title")
	f.StringP("description", "d", "", "New description")
	f.String("due", "", "New due date, e.g. 2026-10-01T17:00")

	del := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a draft assignment (teachers)",
		Args:  cobra.ExactArgs(1),
		RunE:  runAssignmentsDelete,
	}

	publish := &cobra.Command{
		Use:   "publish <id>",
		Short: "Publish a draft assignment (teachers)",
		Args:  cobra.ExactArgs(1),
		RunE:  statusRunE(model.StatusPublished),
	}
	complete := &cobra.Command{
		Use:   "complete <id>",
		Short: "Mark a published assignment as completed (teachers)",
		Args:  cobra.ExactArgs(1),
		RunE:  statusRunE(model.StatusCompleted),
	}

	cmd.AddCommand(list, show, create, update, del, publish, complete)
	return cmd
}

func runAssignmentsList(cmd *cobra.Command, _ []string) error {
	st, v, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer st.Close()
	if err := checkAccess(st, "", "/assignments"); err != nil {
		return err
	}

	status := model.AssignmentStatus(v.GetString("status"))
	if status != "" {
		st.Assignments.SetFilter(string(status))
	}
	err = st.Assignments.List(cmd.Context(), api.ListAssignmentsParams{
		Status: status,
		Page:   v.GetInt("page"),
		Limit:  v.GetInt("limit"),
	})
	if err != nil {
		return err
	}

	assignments := st.Assignments.Assignments()
	if len(assignments) == 0 {
		cmd.Println(appI18n.T("NoAssignments"))
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
		appI18n.T("HeaderID"), appI18n.T("HeaderTitle"), appI18n.T("HeaderStatus"), appI18n.T("HeaderDue"))
	for _, a := range assignments {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", a.ID, a.Title, a.Status, a.DueDate.Local().Format(dueDateLayout))
	}
	if err := w.Flush(); err != nil {
		return err
	}

	pg := st.Assignments.Pagination()
	cmd.Println(appI18n.T("PageOf", map[string]any{
		"Current": pg.CurrentPage,
		"Total":   pg.TotalPages,
		"Count":   pg.TotalAssignments,
	}))
	return nil
}

func runAssignmentsShow(cmd *cobra.Command, args []string) error {
	st, _, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer st.Close()
	if err := checkAccess(st, "", "/assignments/"+args[0]); err != nil {
		return err
	}

	if err := st.Assignments.Get(cmd.Context(), args[0]); err != nil {
		return err
	}
	a := st.Assignments.Current()
	cmd.Printf("%s (%s)\n", a.Title, a.Status)
	cmd.Printf("%s: %s\n", appI18n.T("HeaderDue"), a.DueDate.Local().Format(dueDateLayout))
	cmd.Println()
	cmd.Println(a.Description)
	return nil
}

func runAssignmentsCreate(cmd *cobra.Command, _ []string) error {
	st, v, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer st.Close()
	if err := checkAccess(st, model.RoleTeacher, "/teacher/assignments/new"); err != nil {
		return err
	}

	due, err := parseDue(v.GetString("due"))
	if err != nil {
		return err
	}
	a, err := st.Assignments.Create(cmd.Context(), store.CreateInput{
		Title:       v.GetString("title"),
		Description: v.GetString("description"),
		DueDate:     due,
	})
	if err != nil {
		return err
	}
	cmd.Println(appI18n.T("AssignmentCreated", map[string]any{"ID": a.ID}))
	return nil
}

func runAssignmentsUpdate(cmd *cobra.Command, args []string) error {
	st, v, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer st.Close()
	if err := checkAccess(st, model.RoleTeacher, "/teacher/assignments/"+args[0]); err != nil {
		return err
	}

	// The store's draft-only check needs the assignment in the local list.
	if err := st.Assignments.List(cmd.Context(), api.ListAssignmentsParams{}); err != nil {
		return err
	}

	var patch api.AssignmentPatch
	if s := v.GetString("title"); s != "" {
		patch.Title = &s
	}
	if s := v.GetString("description"); s != "" {
		patch.Description = &s
	}
	if s := v.GetString("due"); s != "" {
		due, err := parseDue(s)
		if err != nil {
			return err
		}
		patch.DueDate = &due
	}

	a, err := st.Assignments.Update(cmd.Context(), args[0], patch)
	if err != nil {
		return err
	}
	cmd.Println(appI18n.T("AssignmentUpdated", map[string]any{"ID": a.ID}))
	return nil
}

func runAssignmentsDelete(cmd *cobra.Command, args []string) error {
	st, _, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer st.Close()
	if err := checkAccess(st, model.RoleTeacher, "/teacher/assignments/"+args[0]); err != nil {
		return err
	}

	if err := st.Assignments.List(cmd.Context(), api.ListAssignmentsParams{}); err != nil {
		return err
	}
	if err := st.Assignments.Delete(cmd.Context(), args[0]); err != nil {
		return err
	}
	cmd.Println(appI18n.T("AssignmentDeleted", map[string]any{"ID": args[0]}))
	return nil
}

func statusRunE(next model.AssignmentStatus) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		st, _, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer st.Close()
		if err := checkAccess(st, model.RoleTeacher, "/teacher/assignments/"+args[0]); err != nil {
			return err
		}

		if err := st.Assignments.List(cmd.Context(), api.ListAssignmentsParams{}); err != nil {
			return err
		}
		a, err := st.Assignments.UpdateStatus(cmd.Context(), args[0], next)
		if err != nil {
			return err
		}
		cmd.Println(appI18n.T("AssignmentStatusChanged", map[string]any{
			"ID":     a.ID,
			"Status": a.Status,
		}))
		return nil
	}
}

func parseDue(s string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, dueDateLayout, "2006-01-02"} {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("cannot parse due date %q (want e.g. 2026-10-01T17:00)", s)
}
