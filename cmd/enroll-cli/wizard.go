package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/noah-isme/sma-enrollment-wizard/internal/models"
	"github.com/noah-isme/sma-enrollment-wizard/internal/validation"
	appErrors "github.com/noah-isme/sma-enrollment-wizard/pkg/errors"
)

var startStep int

// wizardCmd prompts for the three data-entry steps
var wizardCmd = &cobra.Command{
	Use:   "wizard",
	Short: "Answer the enrollment steps",
	Long: `Prompt for Student Details, Academic Details and Address & Guardian.

Saved answers are offered as defaults; press Enter to keep them. Steps whose
prerequisites are missing send you back to the earlier step.`,
	RunE: runWizard,
}

func init() {
	wizardCmd.Flags().IntVar(&startStep, "step", 1, "step to start from (1-3)")
}

// field describes one prompt.
type field struct {
	key     string
	label   string
	options []string
	multi   bool
	yesNo   bool
	skipIf  func(answers map[string]string) bool
}

func stepFields(step models.Step, record models.EnrollmentRecord) []field {
	switch step {
	case models.StepStudentDetails:
		return []field{
			{key: "fullName", label: "Full name"},
			{key: "email", label: "Email"},
			{key: "mobile", label: "Mobile"},
			{key: "studentClass", label: "Class", options: models.ClassOptions},
			{key: "board", label: "Board", options: models.BoardOptions},
			{key: "language", label: "Language", options: models.LanguageOptions},
		}
	case models.StepAcademicDetails:
		return []field{
			{key: "subjects", label: "Subjects", options: models.SubjectsForClass(models.Deref(record.StudentClass)), multi: true},
			{key: "examGoal", label: "Exam goal", options: models.ExamGoalOptions},
			{key: "studyHours", label: "Study hours per week"},
			{key: "hasScholarship", label: "Applying for scholarship", yesNo: true},
			{key: "lastExamScore", label: "Last exam score", skipIf: func(a map[string]string) bool { return a["hasScholarship"] != "true" }},
			{key: "achievements", label: "Achievements (optional)"},
		}
	case models.StepAddressGuardian:
		return []field{
			{key: "pinCode", label: "PIN code"},
			{key: "state", label: "State"},
			{key: "city", label: "City"},
			{key: "address", label: "Address"},
			{key: "guardianName", label: "Guardian name"},
			{key: "guardianMobile", label: "Guardian mobile"},
			{key: "paymentPlan", label: "Payment plan", options: models.PaymentPlanOptions},
			{key: "paymentMode", label: "Payment mode", options: models.PaymentModeOptions},
		}
	default:
		return nil
	}
}

func runWizard(cmd *cobra.Command, _ []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.logger.Sync() //nolint:errcheck

	step := models.Step(startStep)
	if !step.Valid() || step == models.StepReview {
		return fmt.Errorf("--step must be 1, 2 or 3")
	}

	ctx := cmd.Context()
	in := bufio.NewReader(cmd.InOrStdin())
	out := cmd.OutOrStdout()

	// Rejected answers are offered again so only the flagged fields need retyping.
	var retry map[string]string
	for step != models.StepReview {
		view, decision, err := a.wizard.View(ctx, a.session.Store, step)
		if err != nil {
			return err
		}
		if decision.Outcome == models.GuardRedirect {
			fmt.Fprintf(out, "%s. Going to %s.\n", decision.Reason, decision.Target.Title())
			step = decision.Target
			continue
		}

		fmt.Fprintf(out, "\n%s  (%s)\n", view.Title, view.Progress.Label)
		answers, err := promptStep(in, out, step, a.session.Store.Snapshot(), retry)
		if err != nil {
			return err
		}

		result, decision, err := submitAnswers(ctx, a, step, answers)
		if err != nil {
			var appErr *appErrors.Error
			if errors.As(err, &appErr) && len(appErr.Fields) > 0 {
				printFieldErrors(out, appErr.Fields)
				retry = answers
				continue
			}
			return err
		}
		retry = nil
		if decision.Outcome == models.GuardRedirect {
			step = decision.Target
			continue
		}
		step, _ = result.Step.Next()
	}

	fmt.Fprintf(out, "\nAll steps saved to %s. Run `enroll-cli show` to review, then `enroll-cli submit`.\n", a.slots.Path(slotKey))
	return nil
}

func promptStep(in *bufio.Reader, out io.Writer, step models.Step, record models.EnrollmentRecord, retry map[string]string) (map[string]string, error) {
	defaults := recordDefaults(record)
	for k, v := range retry {
		defaults[k] = v
	}
	answers := make(map[string]string)
	for _, f := range stepFields(step, record) {
		if f.skipIf != nil && f.skipIf(answers) {
			continue
		}
		value, err := prompt(in, out, f, defaults[f.key])
		if err != nil {
			return nil, err
		}
		answers[f.key] = value
	}
	return answers, nil
}

func prompt(in *bufio.Reader, out io.Writer, f field, current string) (string, error) {
	label := f.label
	switch {
	case f.multi:
		label += fmt.Sprintf(" [comma separated: %s]", strings.Join(f.options, ", "))
	case len(f.options) > 0:
		label += fmt.Sprintf(" [%s]", strings.Join(f.options, " / "))
	case f.yesNo:
		label += " [y/n]"
	}
	if current != "" {
		label += fmt.Sprintf(" (%s)", current)
	}
	fmt.Fprintf(out, "  %s: ", label)

	line, err := in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		if errors.Is(err, io.EOF) {
			return "", fmt.Errorf("input ended before %s was answered", f.label)
		}
		return "", err
	}
	line = strings.TrimSpace(line)
	if line == "" {
		line = current
	}
	if f.yesNo {
		switch strings.ToLower(line) {
		case "y", "yes", "true":
			return "true", nil
		default:
			return "false", nil
		}
	}
	return line, nil
}

func submitAnswers(ctx context.Context, a *app, step models.Step, answers map[string]string) (models.StepResult, models.GuardDecision, error) {
	var (
		result   models.StepResult
		decision models.GuardDecision
		err      error
	)
	switch step {
	case models.StepStudentDetails:
		result, decision, err = a.wizard.SubmitStudentDetails(ctx, a.session.Store, validation.StudentDetailsInput{
			FullName:     answers["fullName"],
			Email:        answers["email"],
			Mobile:       answers["mobile"],
			StudentClass: answers["studentClass"],
			Board:        answers["board"],
			Language:     answers["language"],
		})
	case models.StepAcademicDetails:
		in := validation.AcademicDetailsInput{
			Subjects:       splitList(answers["subjects"]),
			ExamGoal:       answers["examGoal"],
			StudyHours:     validation.NumericInput(answers["studyHours"]),
			HasScholarship: validation.Checkbox(answers["hasScholarship"]),
		}
		if score, ok := answers["lastExamScore"]; ok {
			n := validation.NumericInput(score)
			in.LastExamScore = &n
		}
		if achievements := answers["achievements"]; achievements != "" {
			in.Achievements = &achievements
		}
		result, decision, err = a.wizard.SubmitAcademicDetails(ctx, a.session.Store, in)
	case models.StepAddressGuardian:
		result, decision, err = a.wizard.SubmitAddressDetails(ctx, a.session.Store, validation.AddressDetailsInput{
			PinCode:        answers["pinCode"],
			State:          answers["state"],
			City:           answers["city"],
			Address:        answers["address"],
			GuardianName:   answers["guardianName"],
			GuardianMobile: answers["guardianMobile"],
			PaymentPlan:    answers["paymentPlan"],
			PaymentMode:    answers["paymentMode"],
		})
	}
	return result, decision, err
}

func recordDefaults(r models.EnrollmentRecord) map[string]string {
	defaults := map[string]string{
		"fullName":       models.Deref(r.FullName),
		"email":          models.Deref(r.Email),
		"mobile":         models.Deref(r.Mobile),
		"studentClass":   models.Deref(r.StudentClass),
		"board":          models.Deref(r.Board),
		"language":       models.Deref(r.Language),
		"subjects":       strings.Join(r.Subjects, ", "),
		"examGoal":       models.Deref(r.ExamGoal),
		"achievements":   models.Deref(r.Achievements),
		"pinCode":        models.Deref(r.PinCode),
		"state":          models.Deref(r.State),
		"city":           models.Deref(r.City),
		"address":        models.Deref(r.Address),
		"guardianName":   models.Deref(r.GuardianName),
		"guardianMobile": models.Deref(r.GuardianMobile),
		"paymentPlan":    models.Deref(r.PaymentPlan),
		"paymentMode":    models.Deref(r.PaymentMode),
	}
	if r.StudyHours != nil {
		defaults["studyHours"] = strconv.FormatFloat(*r.StudyHours, 'f', -1, 64)
	}
	if r.HasScholarship != nil {
		defaults["hasScholarship"] = "n"
		if *r.HasScholarship {
			defaults["hasScholarship"] = "y"
		}
	}
	if r.LastExamScore != nil {
		defaults["lastExamScore"] = strconv.FormatFloat(*r.LastExamScore, 'f', -1, 64)
	}
	return defaults
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func printFieldErrors(out io.Writer, fields map[string]string) {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	fmt.Fprintln(out, "  Please fix:")
	for _, k := range keys {
		fmt.Fprintf(out, "   - %s: %s\n", k, fields[k])
	}
}
