package core

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fatih/color"
)

// StepStatus is the outcome of a single validation step.
type StepStatus int

const (
	StepPassed StepStatus = iota
	StepWarned
	StepFailed
)

// ValidationStep records one startup check.
type ValidationStep struct {
	Name    string
	Status  StepStatus
	Message string
	Error   error
}

// ValidationResult aggregates the startup validation run.
type ValidationResult struct {
	Steps       []ValidationStep
	PassedSteps int
	WarnedSteps int
	FailedSteps int
	Success     bool
	Duration    time.Duration
}

// ValidationSuite runs lightweight sanity checks before the server starts.
// It only fails on conditions that make the process unable to run; a missing
// AI credential is a warning, because the continuation contract surfaces it
// as a request-time configuration error instead.
type ValidationSuite struct {
	config       *Config
	showProgress bool
}

// NewValidationSuite creates a suite for the given configuration.
func NewValidationSuite(config *Config) *ValidationSuite {
	return &ValidationSuite{config: config}
}

// WithShowProgress enables colored per-step console output.
func (s *ValidationSuite) WithShowProgress(show bool) *ValidationSuite {
	s.showProgress = show
	return s
}

// Validate runs all checks and returns the aggregated result.
func (s *ValidationSuite) Validate() ValidationResult {
	start := time.Now()
	result := ValidationResult{}

	steps := []func() ValidationStep{
		s.checkCredential,
		s.checkLogDirectory,
		s.checkPort,
		s.checkModelsFile,
	}

	for _, run := range steps {
		step := run()
		result.Steps = append(result.Steps, step)
		switch step.Status {
		case StepPassed:
			result.PassedSteps++
		case StepWarned:
			result.WarnedSteps++
		case StepFailed:
			result.FailedSteps++
		}
		s.printStep(step)
	}

	result.Success = result.FailedSteps == 0
	result.Duration = time.Since(start)
	return result
}

func (s *ValidationSuite) checkCredential() ValidationStep {
	if !s.config.HasCredential() {
		return ValidationStep{
			Name:    "AI credential",
			Status:  StepWarned,
			Message: "no credential configured; continuation requests will fail until GEMINI_API_KEY is set",
		}
	}
	provider := "Gemini"
	if s.config.GeminiAPIKey == "" {
		provider = fmt.Sprintf("OpenAI-compatible (%s)", s.config.OpenAIEndpoint())
	}
	return ValidationStep{
		Name:    "AI credential",
		Status:  StepPassed,
		Message: provider,
	}
}

func (s *ValidationSuite) checkLogDirectory() ValidationStep {
	dir := filepath.Dir(s.config.LogFilePath)
	if dir == "." {
		return ValidationStep{Name: "log directory", Status: StepPassed, Message: "current directory"}
	}
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return ValidationStep{
			Name:    "log directory",
			Status:  StepFailed,
			Message: fmt.Sprintf("log directory %s does not exist", dir),
			Error:   err,
		}
	}
	return ValidationStep{Name: "log directory", Status: StepPassed, Message: dir}
}

func (s *ValidationSuite) checkPort() ValidationStep {
	if s.config.WebUIPort < 1 || s.config.WebUIPort > 65535 {
		return ValidationStep{
			Name:    "webui port",
			Status:  StepFailed,
			Message: fmt.Sprintf("WEBUI_PORT %d out of range", s.config.WebUIPort),
		}
	}
	return ValidationStep{Name: "webui port", Status: StepPassed, Message: fmt.Sprintf("%d", s.config.WebUIPort)}
}

func (s *ValidationSuite) checkModelsFile() ValidationStep {
	if s.config.ModelsFile == "" {
		return ValidationStep{Name: "models file", Status: StepPassed, Message: "using built-in fallback chain"}
	}
	if _, err := os.Stat(s.config.ModelsFile); err != nil {
		return ValidationStep{
			Name:    "models file",
			Status:  StepFailed,
			Message: fmt.Sprintf("MODELS_FILE %s not readable", s.config.ModelsFile),
			Error:   err,
		}
	}
	return ValidationStep{Name: "models file", Status: StepPassed, Message: s.config.ModelsFile}
}

func (s *ValidationSuite) printStep(step ValidationStep) {
	if !s.showProgress {
		return
	}
	switch step.Status {
	case StepPassed:
		color.Green("  ✓ %s: %s", step.Name, step.Message)
	case StepWarned:
		color.Yellow("  ! %s: %s", step.Name, step.Message)
	case StepFailed:
		color.Red("  ✗ %s: %s", step.Name, step.Message)
	}
}
