package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/medialink/internal/formatter"
	"github.com/desertthunder/medialink/internal/services"
	"github.com/desertthunder/medialink/internal/shared"
)

func (r *Runner) writeResponse(resp *services.APIResponse, pretty bool) error {
	if !resp.OK() {
		return fmt.Errorf("%w: status %d, body: %s", shared.ErrAPIRequest, resp.StatusCode, string(resp.Body))
	}
	if resp.IsJSON {
		return r.writeJSON(resp.JSONData, pretty)
	}
	r.output.Write(resp.Body)
	r.output.Write([]byte("\n"))
	return nil
}

// APIGet makes a direct GET request to the backend
func (r *Runner) APIGet(ctx context.Context, cmd *cli.Command) error {
	path := cmd.StringArg("path")
	r.logger.Info("GET request", "path", path)

	resp, err := r.api.Get(ctx, path)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	return r.writeResponse(resp, cmd.Bool("pretty"))
}

// APIPost makes a direct POST request to the backend
func (r *Runner) APIPost(ctx context.Context, cmd *cli.Command) error {
	path := cmd.StringArg("path")
	data := cmd.String("data")

	if data == "" {
		return fmt.Errorf("%w: --data flag is required", shared.ErrMissingArgument)
	}

	r.logger.Info("POST request", "path", path)

	var jsonTest any
	if err := json.Unmarshal([]byte(data), &jsonTest); err != nil {
		return fmt.Errorf("%w: data is not valid JSON: %v", shared.ErrInvalidInput, err)
	}

	resp, err := r.api.Post(ctx, path, []byte(data))
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	return r.writeResponse(resp, true)
}

// APIDelete makes a direct DELETE request to the backend
func (r *Runner) APIDelete(ctx context.Context, cmd *cli.Command) error {
	path := cmd.StringArg("path")
	r.logger.Info("DELETE request", "path", path)

	resp, err := r.api.Delete(ctx, path)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	return r.writeResponse(resp, true)
}

// APIDump fetches and displays the backend's observable state.
//
// Notifications are not included: reading them drains the backend queue.
func (r *Runner) APIDump(ctx context.Context, cmd *cli.Command) error {
	pretty := cmd.Bool("pretty")
	save := cmd.Bool("save")

	r.logger.Info("dumping API state")
	r.writePlain("Fetching backend state...\n\n")

	type DumpData struct {
		Status     any   `json:"status"`
		Mount      any   `json:"mount,omitempty"`
		ActiveJobs any   `json:"active_jobs,omitempty"`
		Settings   any   `json:"settings,omitempty"`
		SystemLogs any   `json:"system_logs,omitempty"`
		Errors     []any `json:"errors,omitempty"`
	}

	dump := DumpData{Errors: []any{}}

	sections := []struct {
		label    string
		endpoint string
		dest     *any
	}{
		{"setup status", "/status", &dump.Status},
		{"mount status", "/rclone/status", &dump.Mount},
		{"active jobs", "/downloads/active", &dump.ActiveJobs},
		{"settings", "/settings", &dump.Settings},
		{"system logs", "/logs", &dump.SystemLogs},
	}

	for _, s := range sections {
		r.writePlain("• Fetching %s...\n", s.label)
		resp, err := r.api.Get(ctx, s.endpoint)
		switch {
		case err != nil:
			dump.Errors = append(dump.Errors, map[string]string{"endpoint": s.endpoint, "error": err.Error()})
			r.logger.Warn("failed to fetch", "endpoint", s.endpoint, "error", err)
		case !resp.OK():
			dump.Errors = append(dump.Errors, map[string]string{"endpoint": s.endpoint, "error": fmt.Sprintf("status %d", resp.StatusCode)})
			r.logger.Warn("failed to fetch", "endpoint", s.endpoint, "status", resp.StatusCode)
		default:
			*s.dest = resp.JSONData
		}
	}

	r.writePlain("\n✓ Dump complete\n\n")

	if save {
		saveFile := "api_dump.json"
		data, err := formatter.ToJSON(dump, true)
		if err != nil {
			return fmt.Errorf("failed to marshal dump: %w", err)
		}
		if err := os.WriteFile(saveFile, data, 0644); err != nil {
			r.logger.Warn("failed to save dump", "error", err)
		} else {
			r.logger.Info("dump saved", "file", saveFile)
			r.writePlain("✓ Dump saved to %s\n\n", saveFile)
		}
	}

	return r.writeJSON(dump, pretty)
}
