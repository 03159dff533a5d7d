package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	appI18n "github.com/avilkin/classdesk/internal/i18n"
	"github.com/avilkin/classdesk/internal/model"
)

func submissionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "submissions",
		Aliases: []string{"submission", "s"},
		Short:   "Submit answers and review submissions",
	}

	submit := &cobra.Command{
		Use:   "submit <assignment-id>",
		Short: "Submit an answer for an assignment (students)",
		Args:  cobra.ExactArgs(1),
		RunE:  runSubmit,
	}
	submit.Flags().StringP("answer", "a", "", "Answer text (required)")
	_ = submit.MarkFlagRequired("answer")

	mine := &cobra.Command{
		Use:   "mine",
		Short: "List your own submissions (students)",
		RunE:  runMine,
	}

	list := &cobra.Command{
		Use:   "list <assignment-id>",
		Short: "List submissions for an assignment (teachers)",
		RunE:  runListForAssignment,
		Args:  cobra.ExactArgs(1),
	}

	review := &cobra.Command{
		Use:   "review <submission-id>",
		Short: "Grade a submission and leave feedback (teachers)",
		Args:  cobra.ExactArgs(1),
		RunE:  runReview,
	}
	f := review.Flags()
	f.Float64P("grade", "g", -1, "Grade between 0 and 100")
	f.StringP("feedback", "f", "", "Feedback text")

	cmd.AddCommand(submit, mine, list, review)
	return cmd
}

func runSubmit(cmd *cobra.Command, args []string) error {
	st, v, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer st.Close()
	if err := checkAccess(st, model.RoleStudent, "/student/assignments/"+args[0]); err != nil {
		return err
	}

	// Fetch the assignment for the overdue check and existing submissions
	// for the double-submission check.
	if err := st.Assignments.Get(cmd.Context(), args[0]); err != nil {
		return err
	}
	if err := st.Submissions.ListMine(cmd.Context()); err != nil {
		return err
	}

	_, err = st.Submissions.Submit(cmd.Context(), *st.Assignments.Current(), v.GetString("answer"))
	if err != nil {
		return err
	}
	if st.Submissions.Success() {
		cmd.Println(appI18n.T("SubmissionRecorded"))
		st.Submissions.ClearSuccess()
	}
	return nil
}

func runMine(cmd *cobra.Command, _ []string) error {
	st, _, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer st.Close()
	if err := checkAccess(st, model.RoleStudent, "/student/submissions"); err != nil {
		return err
	}

	if err := st.Submissions.ListMine(cmd.Context()); err != nil {
		return err
	}
	subs := st.Submissions.Mine()
	if len(subs) == 0 {
		cmd.Println(appI18n.T("NoSubmissions"))
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
		appI18n.T("HeaderID"), appI18n.T("HeaderAssignment"), appI18n.T("HeaderSubmitted"),
		appI18n.T("HeaderGrade"), appI18n.T("HeaderFeedback"))
	for _, s := range subs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			s.ID, s.AssignmentID, s.SubmittedAt.Local().Format(time.DateTime),
			formatGrade(s), formatFeedback(s))
	}
	return w.Flush()
}

func runListForAssignment(cmd *cobra.Command, args []string) error {
	st, _, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer st.Close()
	if err := checkAccess(st, model.RoleTeacher, "/teacher/assignments/"+args[0]+"/submissions"); err != nil {
		return err
	}

	if err := st.Submissions.ListForAssignment(cmd.Context(), args[0]); err != nil {
		return err
	}
	subs := st.Submissions.ForAssignment()
	if len(subs) == 0 {
		cmd.Println(appI18n.T("NoSubmissions"))
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
		appI18n.T("HeaderID"), appI18n.T("HeaderStudent"), appI18n.T("HeaderSubmitted"),
		appI18n.T("HeaderGrade"), appI18n.T("HeaderFeedback"))
	for _, s := range subs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			s.ID, s.StudentName, s.SubmittedAt.Local().Format(time.DateTime),
			formatGrade(s), formatFeedback(s))
	}
	return w.Flush()
}

func runReview(cmd *cobra.Command, args []string) error {
	st, v, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer st.Close()
	if err := checkAccess(st, model.RoleTeacher, "/teacher/submissions/"+args[0]); err != nil {
		return err
	}

	var grade *float64
	if g := v.GetFloat64("grade"); g >= 0 {
		grade = &g
	}
	var feedback *string
	if fb := v.GetString("feedback"); fb != "" {
		feedback = &fb
	}

	if err := st.Submissions.Review(cmd.Context(), args[0], grade, feedback); err != nil {
		return err
	}
	cmd.Println(appI18n.T("ReviewSaved"))
	return nil
}

func formatGrade(s model.Submission) string {
	if !s.Reviewed {
		return appI18n.T("NotReviewed")
	}
	if s.Grade == nil {
		return appI18n.T("NoGrade")
	}
	return fmt.Sprintf("%.0f", *s.Grade)
}

func formatFeedback(s model.Submission) string {
	if s.Feedback == nil {
		return ""
	}
	return *s.Feedback
}
