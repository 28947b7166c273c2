package main

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/usestring/harmodel/internal/cache"
	"github.com/usestring/harmodel/internal/config"
	"github.com/usestring/harmodel/internal/consolidate"
	"github.com/usestring/harmodel/internal/index"
	"github.com/usestring/harmodel/internal/logging"
	"github.com/usestring/harmodel/pkg/capture"
)

// commandContext carries config and the shared persistent flags.
type commandContext struct {
	cfg *config.Config

	input       string
	method      string
	host        string
	statusClass string

	logCleanup func() error
}

func newCommandContext() *commandContext {
	return &commandContext{cfg: config.Load()}
}

func (c *commandContext) setupLogging() error {
	cleanup, err := logging.Setup(c.cfg.LoggingConfig())
	if err != nil {
		return fmt.Errorf("setting up logging: %w", err)
	}
	c.logCleanup = cleanup
	return nil
}

func (c *commandContext) closeLogging() error {
	if c.logCleanup != nil {
		return c.logCleanup()
	}
	return nil
}

// loadEntries reads the capture and applies the scope flags through the
// index.
func (c *commandContext) loadEntries() ([]capture.Entry, error) {
	if c.input == "" {
		return nil, errors.New("--input is required")
	}
	entries, err := capture.ReadFile(c.input)
	if err != nil {
		return nil, fmt.Errorf("reading capture: %w", err)
	}

	scope := index.Scope{Method: c.method, Host: c.host, StatusClass: c.statusClass}
	if scope == (index.Scope{}) {
		return entries, nil
	}
	return index.Build(entries).Select(scope), nil
}

// consolidateEntries runs the full pipeline: load, filter, consolidate.
func (c *commandContext) consolidateEntries() (*consolidate.Result, *cache.BodyCache, []capture.Entry, error) {
	entries, err := c.loadEntries()
	if err != nil {
		return nil, nil, nil, err
	}
	bodies, err := cache.NewBodyCache(c.cfg.BodyCacheMaxItems)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("creating body cache: %w", err)
	}
	res := consolidate.New(c.cfg.ConsolidateOptions(), bodies).Consolidate(entries)
	return res, bodies, entries, nil
}

// writeJSON encodes v as indented JSON to the command's stdout.
func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// writeYAML encodes v as YAML to the command's stdout, routing through
// JSON first so custom JSON marshalers (kin-openapi) are honored.
func writeYAML(cmd *cobra.Command, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	var plain any
	if err := json.Unmarshal(data, &plain); err != nil {
		return err
	}
	return yaml.NewEncoder(cmd.OutOrStdout()).Encode(plain)
}
