package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
	"time"
)

const sessionHeader = "X-Enrollment-Session"

type step struct {
	Name     string          `json:"name"`
	Method   string          `json:"method"`
	Path     string          `json:"path"`
	Body     json.RawMessage `json:"body,omitempty"`
	Expect   int             `json:"expect"`
	Critical bool            `json:"critical"`
}

type scenario struct {
	Steps []step `json:"steps"`
}

type result struct {
	Step     step
	Status   int
	Location string
	Duration time.Duration
	Error    error
}

func (r result) ok() bool {
	return r.Error == nil && r.Status == r.Step.Expect
}

// defaultScenario walks one complete enrollment including a guard redirect and a
// validation failure.
var defaultScenario = scenario{Steps: []step{
	{Name: "guard step 2", Method: http.MethodGet, Path: "/enroll/step-2", Expect: http.StatusSeeOther, Critical: true},
	{Name: "invalid student", Method: http.MethodPost, Path: "/enroll/step-1", Expect: http.StatusUnprocessableEntity,
		Body: json.RawMessage(`{"fullName":"A","email":"bad","mobile":"123"}`)},
	{Name: "student details", Method: http.MethodPost, Path: "/enroll/step-1", Expect: http.StatusOK, Critical: true,
		Body: json.RawMessage(`{"fullName":"Asha Rao","email":"asha@example.com","mobile":"9876543210","studentClass":"11","board":"CBSE","language":"English"}`)},
	{Name: "academic details", Method: http.MethodPost, Path: "/enroll/step-2", Expect: http.StatusOK, Critical: true,
		Body: json.RawMessage(`{"subjects":["Physics","Chemistry","Math"],"examGoal":"Competitive Prep","studyHours":20,"hasScholarship":true,"lastExamScore":"91"}`)},
	{Name: "address details", Method: http.MethodPost, Path: "/enroll/step-3", Expect: http.StatusOK, Critical: true,
		Body: json.RawMessage(`{"pinCode":"110001","state":"Delhi","city":"New Delhi","address":"221 Connaught Place","guardianName":"Meera Rao","guardianMobile":"9123456789","paymentPlan":"Half-Yearly","paymentMode":"UPI"}`)},
	{Name: "review", Method: http.MethodGet, Path: "/enroll/review", Expect: http.StatusOK, Critical: true},
	{Name: "submit", Method: http.MethodPost, Path: "/enroll/review/submit", Expect: http.StatusOK, Critical: true},
	{Name: "resubmit", Method: http.MethodPost, Path: "/enroll/review/submit", Expect: http.StatusPreconditionFailed},
}}

func main() {
	var (
		base         string
		scenarioPath string
		timeout      time.Duration
	)

	flag.StringVar(&base, "base", "http://localhost:8080/api/v1", "Enrollment API base URL including prefix")
	flag.StringVar(&scenarioPath, "scenario", "", "Optional JSON scenario file; defaults to the built-in flow")
	flag.DurationVar(&timeout, "timeout", 10*time.Second, "HTTP client timeout")
	flag.Parse()

	sc := defaultScenario
	if scenarioPath != "" {
		loaded, err := loadScenario(scenarioPath)
		if err != nil {
			log.Fatalf("failed to load scenario: %v", err)
		}
		sc = loaded
	}

	client := &http.Client{
		Timeout: timeout,
		// Guard redirects are asserted, not followed.
		CheckRedirect: func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse },
	}

	var (
		results  []result
		breaking int
		optional int
		token    string
	)
	for _, s := range sc.Steps {
		res, next := run(client, base, token, s)
		if next != "" {
			token = next
		}
		if !res.ok() {
			if s.Critical {
				breaking++
			} else {
				optional++
			}
		}
		results = append(results, res)
	}

	printReport(results)

	fmt.Printf("Critical failures: %d, Other failures: %d\n", breaking, optional)
	if breaking > 0 {
		os.Exit(1)
	}
}

func loadScenario(path string) (scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return scenario{}, err
	}
	var sc scenario
	if err := json.Unmarshal(data, &sc); err != nil {
		return scenario{}, err
	}
	if len(sc.Steps) == 0 {
		return scenario{}, fmt.Errorf("no steps defined in %s", path)
	}
	return sc, nil
}

func run(client *http.Client, base, token string, s step) (result, string) {
	res := result{Step: s}
	if client == nil {
		res.Error = errors.New("nil client")
		return res, ""
	}
	method := strings.ToUpper(strings.TrimSpace(s.Method))
	if method == "" {
		method = http.MethodGet
	}
	path := s.Path
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	var body io.Reader
	if len(s.Body) > 0 {
		body = bytes.NewReader(s.Body)
	}
	req, err := http.NewRequest(method, strings.TrimRight(base, "/")+path, body)
	if err != nil {
		res.Error = err
		return res, ""
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set(sessionHeader, token)
	}

	start := time.Now()
	resp, err := client.Do(req)
	res.Duration = time.Since(start)
	if err != nil {
		res.Error = err
		return res, ""
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	res.Status = resp.StatusCode
	res.Location = resp.Header.Get("Location")
	return res, resp.Header.Get(sessionHeader)
}

func printReport(results []result) {
	fmt.Println("Wizard Smoke Report")
	fmt.Println("===================")
	for _, res := range results {
		status := "OK"
		if res.Error != nil {
			status = "ERROR"
		} else if !res.ok() {
			status = "FAIL"
		}
		fmt.Printf("[%s] %s %s %s\n", status, res.Step.Name, res.Step.Method, res.Step.Path)
		if res.Error != nil {
			fmt.Printf("  Error: %v\n", res.Error)
			continue
		}
		fmt.Printf("  Status: %d (expected %d, %s)", res.Status, res.Step.Expect, res.Duration)
		if res.Location != "" {
			fmt.Printf(" -> %s", res.Location)
		}
		fmt.Println()
	}
}
