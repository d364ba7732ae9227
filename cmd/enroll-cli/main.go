package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/noah-isme/sma-enrollment-wizard/internal/repository"
	"github.com/noah-isme/sma-enrollment-wizard/internal/service"
	"github.com/noah-isme/sma-enrollment-wizard/internal/validation"
	"github.com/noah-isme/sma-enrollment-wizard/pkg/config"
	"github.com/noah-isme/sma-enrollment-wizard/pkg/storage"
)

var (
	dataDir        string
	slotKey        string
	submissionsDir string
	delay          time.Duration
	verbose        bool
)

// rootCmd is the enroll-cli entry point
var rootCmd = &cobra.Command{
	Use:   "enroll-cli",
	Short: "Fill in the enrollment wizard from a terminal",
	Long: `enroll-cli walks through the enrollment wizard locally.

Progress is saved to a file after every accepted step, so an interrupted
session resumes where it stopped. Available commands:
  wizard - answer the three data-entry steps
  show   - print the review screen
  submit - confirm and submit the enrollment
  reset  - discard saved progress`,
	SilenceUsage: true,
}

func init() {
	cfg, err := config.Load()
	if err != nil {
		cfg = &config.Config{}
		cfg.Submission.Delay = time.Second
	}
	defaultDir := cfg.Storage.FileDir
	if defaultDir == "" {
		defaultDir = "./.enrollment"
	}
	defaultSlot := cfg.Storage.SlotKey
	if defaultSlot == "" {
		defaultSlot = "enrollmentFormData"
	}
	defaultSubmissions := cfg.Submission.Dir
	if defaultSubmissions == "" {
		defaultSubmissions = "./submissions"
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "dir", defaultDir, "directory holding saved progress")
	rootCmd.PersistentFlags().StringVar(&slotKey, "slot", defaultSlot, "name of the saved progress slot")
	rootCmd.PersistentFlags().StringVar(&submissionsDir, "submissions", defaultSubmissions, "directory receiving submission receipts")
	rootCmd.PersistentFlags().DurationVar(&delay, "delay", cfg.Submission.Delay, "pause before a submission completes")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log diagnostics to stderr")

	rootCmd.AddCommand(wizardCmd, showCmd, submitCmd, resetCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// app bundles the services one command invocation needs.
type app struct {
	session  *service.Session
	slots    *repository.FileSlotRepository
	files    *storage.LocalStorage
	wizard   *service.WizardService
	review   *service.ReviewService
	receipts *service.ReceiptService
	logger   *zap.Logger
}

func newApp() (*app, error) {
	logr, err := newLogger()
	if err != nil {
		return nil, err
	}

	slots, err := repository.NewFileSlotRepository(dataDir)
	if err != nil {
		return nil, fmt.Errorf("open progress directory: %w", err)
	}
	files, err := storage.NewLocalStorage(submissionsDir)
	if err != nil {
		return nil, fmt.Errorf("open submissions directory: %w", err)
	}

	engine := validation.NewEngine()
	// Receipts are read straight from disk, so the signed link only needs a local secret.
	signer := storage.NewSignedURLSigner("enroll-cli", 0)
	receipts := service.NewReceiptService(files, signer, "", nil, logr)

	return &app{
		session: &service.Session{
			ID:    "local",
			Store: service.NewFormStore(slots, slotKey, nil, logr),
		},
		slots:    slots,
		files:    files,
		wizard:   service.NewWizardService(engine, nil, logr),
		review:   service.NewReviewService(engine, receipts, service.ReviewConfig{Delay: delay}, nil, logr),
		receipts: receipts,
		logger:   logr,
	}, nil
}

func newLogger() (*zap.Logger, error) {
	cfg := zap.NewDevelopmentConfig()
	cfg.Encoding = "console"
	cfg.OutputPaths = []string{"stderr"}
	cfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	return cfg.Build()
}
