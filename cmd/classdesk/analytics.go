package main

import (
	"fmt"
	"net/http"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/avilkin/classdesk/internal/demo"
	appI18n "github.com/avilkin/classdesk/internal/i18n"
	"github.com/avilkin/classdesk/internal/model"
)

func analyticsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "analytics",
		Short: "Show the portal's aggregate report (teachers)",
		RunE:  runAnalytics,
	}
}

func runAnalytics(cmd *cobra.Command, _ []string) error {
	st, _, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer st.Close()
	if err := checkAccess(st, model.RoleTeacher, "/teacher/analytics"); err != nil {
		return err
	}

	if err := st.Submissions.FetchAnalytics(cmd.Context()); err != nil {
		return err
	}
	a := st.Submissions.Analytics()

	cmd.Println(appI18n.T("AnalyticsOverview", map[string]any{
		"Assignments": a.Overview.TotalAssignments,
		"Published":   a.Overview.PublishedAssignments,
		"Submissions": a.Overview.TotalSubmissions,
		"Reviewed":    a.Overview.ReviewedSubmissions,
	}))
	if len(a.AssignmentAnalytics) == 0 {
		return nil
	}

	cmd.Println()
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
		appI18n.T("HeaderTitle"), appI18n.T("HeaderStatus"), appI18n.T("HeaderSubmissions"),
		appI18n.T("HeaderReviewed"), appI18n.T("HeaderAverage"))
	for _, row := range a.AssignmentAnalytics {
		avg := appI18n.T("NoGrade")
		if row.AverageGrade != nil {
			avg = fmt.Sprintf("%.1f", *row.AverageGrade)
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%s\n",
			row.Title, row.Status, row.SubmissionCount, row.ReviewedCount, avg)
	}
	return w.Flush()
}

func demoCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Run a local in-memory demo portal",
		RunE:  runDemo,
	}
	cmd.Flags().StringP("addr", "a", ":4000", "HTTP listen address")
	return cmd
}

func runDemo(cmd *cobra.Command, _ []string) error {
	v := viperForCmd(cmd)
	setupLogging(v)
	if err := appI18n.Init(v.GetString("lang")); err != nil {
		return fmt.Errorf("init i18n: %w", err)
	}

	srv, err := demo.New()
	if err != nil {
		return fmt.Errorf("create demo portal: %w", err)
	}

	addr := v.GetString("addr")
	cmd.Println(appI18n.T("DemoStarted", map[string]any{"Addr": addr}))
	cmd.Println(appI18n.T("DemoAccounts", map[string]any{
		"Teacher":  demo.TeacherEmail,
		"Student":  demo.StudentEmail,
		"Password": demo.Password,
	}))
	return http.ListenAndServe(addr, srv.Handler())
}
