package engine

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"os/exec"
	"path/filepath"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"plotlines.app/internal/ports"
	"plotlines.app/pkg/errors"
)

const (
	defaultCity      = "Unknown"
	defaultState     = "US"
	defaultLatitude  = 39.7392
	defaultLongitude = -104.9903
)

// AuthorDirectory resolves an author key to a display name
type AuthorDirectory interface {
	DisplayName(key string) string
}

// enginePayload is the JSON document the engine prints on stdout
type enginePayload struct {
	ProseText      string   `json:"prose_text" validate:"required"`
	ProseHTML      string   `json:"prose_html" validate:"required"`
	Topic          string   `json:"topic"`
	Quote          string   `json:"quote"`
	AuthorName     string   `json:"author_name"`
	WeatherSummary string   `json:"weather_summary"`
	Characters     []string `json:"characters"`
}

// ProcessInvoker runs the content engine as a child process, one per combination
type ProcessInvoker struct {
	command  string
	baseArgs []string
	dir      string
	env      []string
	timeout  time.Duration
	authors  AuthorDirectory
	validate *validator.Validate
}

// NewProcessInvoker creates an invoker that runs `<command> <script> <args...>`
// from the script's directory
func NewProcessInvoker(config ports.EngineConfig, authors AuthorDirectory) (*ProcessInvoker, error) {
	if config.Command == "" {
		return nil, errors.NewConfigurationError("engine command is required", nil)
	}
	if config.Script == "" {
		return nil, errors.NewConfigurationError("engine script is required", nil)
	}
	if config.Timeout <= 0 {
		return nil, errors.NewConfigurationError("engine timeout must be positive", nil)
	}

	return &ProcessInvoker{
		command:  config.Command,
		baseArgs: []string{config.Script},
		dir:      filepath.Dir(config.Script),
		timeout:  config.Timeout,
		authors:  authors,
		validate: validator.New(),
	}, nil
}

// Invoke runs the engine for a combination and parses its output
func (p *ProcessInvoker) Invoke(ctx context.Context, combination *ports.CombinationData) (*ports.GeneratedPayload, error) {
	if combination == nil {
		return nil, errors.NewValidationError("combination cannot be nil")
	}

	runCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	args := append(append([]string{}, p.baseArgs...), Arguments(combination)...)
	cmd := exec.CommandContext(runCtx, p.command, args...)
	cmd.Dir = p.dir
	if p.env != nil {
		cmd.Env = p.env
	}
	cmd.WaitDelay = time.Second

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()

	if ctx.Err() != nil {
		return nil, fmt.Errorf("engine run cancelled: %w", ctx.Err())
	}
	if stderrors.Is(runCtx.Err(), context.DeadlineExceeded) {
		return nil, errors.NewEngineTimeoutError(
			fmt.Sprintf("engine did not finish within %s", p.timeout), runCtx.Err())
	}
	if runErr != nil {
		var exitErr *exec.ExitError
		if stderrors.As(runErr, &exitErr) {
			return nil, errors.NewEngineExitError(exitErr.ExitCode(), stderr.String(), runErr)
		}
		// the process never started
		return nil, errors.NewEngineExitError(-1, runErr.Error(), runErr)
	}

	payload, err := p.decode(stdout.Bytes())
	if err != nil {
		return nil, err
	}

	if payload.AuthorName == "" && p.authors != nil {
		payload.AuthorName = p.authors.DisplayName(combination.AuthorKey)
	}

	return payload, nil
}

func (p *ProcessInvoker) decode(raw []byte) (*ports.GeneratedPayload, error) {
	decoder := json.NewDecoder(bytes.NewReader(raw))

	var doc enginePayload
	if err := decoder.Decode(&doc); err != nil {
		return nil, errors.NewEngineOutputError("engine output is not valid JSON", string(raw), err)
	}
	var trailing json.RawMessage
	if err := decoder.Decode(&trailing); err != io.EOF {
		return nil, errors.NewEngineOutputError("engine output must be a single JSON document", string(raw), err)
	}
	if err := p.validate.Struct(doc); err != nil {
		return nil, errors.NewEngineOutputError("engine output is missing required fields", string(raw), err)
	}

	return &ports.GeneratedPayload{
		ProseText:      doc.ProseText,
		ProseHTML:      doc.ProseHTML,
		Topic:          doc.Topic,
		Quote:          doc.Quote,
		AuthorName:     doc.AuthorName,
		WeatherSummary: doc.WeatherSummary,
		Characters:     doc.Characters,
	}, nil
}

// Arguments builds the engine command line for a combination, filling
// location defaults for anything the combination leaves empty
func Arguments(combination *ports.CombinationData) []string {
	city := combination.City
	if city == "" {
		city = defaultCity
	}
	state := combination.State
	if state == "" {
		state = defaultState
	}
	lat := defaultLatitude
	if combination.Latitude != nil && *combination.Latitude != 0 {
		lat = *combination.Latitude
	}
	lon := defaultLongitude
	if combination.Longitude != nil && *combination.Longitude != 0 {
		lon = *combination.Longitude
	}

	return []string{
		"--station", combination.StationCode,
		"--author", combination.AuthorKey,
		"--city", city,
		"--state", state,
		"--lat", strconv.FormatFloat(lat, 'f', -1, 64),
		"--lon", strconv.FormatFloat(lon, 'f', -1, 64),
		"--context", combination.GardenContext,
		"--output", "json",
	}
}
