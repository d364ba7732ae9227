package models

import (
	"fmt"
	"time"
)

// Step identifies one wizard screen.
type Step int

// Wizard steps in visiting order.
const (
	StepStudentDetails  Step = 1
	StepAcademicDetails Step = 2
	StepAddressGuardian Step = 3
	StepReview          Step = 4
)

// TotalSteps is the number of screens including review.
const TotalSteps = 4

// Steps lists every step in order.
var Steps = []Step{StepStudentDetails, StepAcademicDetails, StepAddressGuardian, StepReview}

// Slug is the path segment of the step.
func (s Step) Slug() string {
	if s == StepReview {
		return "review"
	}
	return fmt.Sprintf("step-%d", int(s))
}

// Path is the navigation path of the step.
func (s Step) Path() string {
	return "/enroll/" + s.Slug()
}

// Title is the human heading of the step.
func (s Step) Title() string {
	switch s {
	case StepStudentDetails:
		return "Student Details"
	case StepAcademicDetails:
		return "Academic Details"
	case StepAddressGuardian:
		return "Address & Guardian"
	case StepReview:
		return "Review & Submit"
	default:
		return ""
	}
}

// Valid reports whether s is a known step.
func (s Step) Valid() bool {
	return s >= StepStudentDetails && s <= StepReview
}

// Previous returns the step before s; the first step has none.
func (s Step) Previous() (Step, bool) {
	if s <= StepStudentDetails || !s.Valid() {
		return 0, false
	}
	return s - 1, true
}

// Next returns the step after s; review has none.
func (s Step) Next() (Step, bool) {
	if s >= StepReview || !s.Valid() {
		return 0, false
	}
	return s + 1, true
}

// ParseStep resolves a slug such as "step-2" or "review".
func ParseStep(slug string) (Step, bool) {
	for _, s := range Steps {
		if s.Slug() == slug {
			return s, true
		}
	}
	return 0, false
}

// Progress mirrors the progress bar shown above each screen.
type Progress struct {
	Step    int     `json:"step"`
	Total   int     `json:"total"`
	Percent float64 `json:"percent"`
	Label   string  `json:"label"`
}

// ProgressFor computes the progress of a step.
func ProgressFor(s Step) Progress {
	return Progress{
		Step:    int(s),
		Total:   TotalSteps,
		Percent: float64(s) / float64(TotalSteps) * 100,
		Label:   fmt.Sprintf("Step %d of %d", int(s), TotalSteps),
	}
}

// StoreState distinguishes "not loaded yet" from "loaded and empty".
type StoreState int

const (
	StoreUninitialized StoreState = iota
	StoreEmpty
	StorePopulated
)

func (s StoreState) String() string {
	switch s {
	case StoreEmpty:
		return "empty"
	case StorePopulated:
		return "populated"
	default:
		return "uninitialized"
	}
}

// GuardOutcome is the result kind of a step entry guard.
type GuardOutcome int

const (
	// GuardPending means the store has not loaded; nothing may be rendered yet.
	GuardPending GuardOutcome = iota
	GuardProceed
	GuardRedirect
)

// GuardDecision tells the controller whether a step may render.
type GuardDecision struct {
	Outcome GuardOutcome
	Target  Step
	Reason  string
}

// StepView is everything a client needs to render a step screen.
type StepView struct {
	Step     Step                `json:"step"`
	Title    string              `json:"title"`
	Path     string              `json:"path"`
	Progress Progress            `json:"progress"`
	BackPath string              `json:"backPath,omitempty"`
	NextPath string              `json:"nextPath,omitempty"`
	Values   EnrollmentRecord    `json:"values"`
	Options  map[string][]string `json:"options,omitempty"`
}

// StepResult is returned after a step's form has been accepted.
type StepResult struct {
	Step     Step             `json:"step"`
	NextPath string           `json:"nextPath"`
	Record   EnrollmentRecord `json:"record"`
}

// ReviewItem is one label/value line on the review screen.
type ReviewItem struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// ReviewSection groups review items by originating step.
type ReviewSection struct {
	Title    string       `json:"title"`
	Step     Step         `json:"step"`
	EditPath string       `json:"editPath"`
	Items    []ReviewItem `json:"items"`
}

// ReviewView is the review screen.
type ReviewView struct {
	Progress   Progress        `json:"progress"`
	Sections   []ReviewSection `json:"sections"`
	Complete   bool            `json:"complete"`
	Submitting bool            `json:"submitting"`
}

// Submission is the outcome of the terminal submit action.
type Submission struct {
	ID               string           `json:"id"`
	SessionID        string           `json:"-"`
	SubmittedAt      time.Time        `json:"submittedAt"`
	Record           EnrollmentRecord `json:"record"`
	ReceiptURL       string           `json:"receiptUrl,omitempty"`
	ReceiptExpiresAt *time.Time       `json:"receiptExpiresAt,omitempty"`
	Message          string           `json:"message"`
}
