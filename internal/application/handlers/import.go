package handlers

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/ersonp/activity-core/internal/domain/services"
	"github.com/ersonp/activity-core/internal/infrastructure/parsers"
)

// ImportHandler handles importing activity exports from files.
type ImportHandler struct {
	service *services.ImportService
}

// NewImportHandler creates a new import handler.
func NewImportHandler(service *services.ImportService) *ImportHandler {
	return &ImportHandler{
		service: service,
	}
}

// ImportOptions controls import behavior.
type ImportOptions struct {
	Format     string                    // "json", "jsonl", "csv", or "auto"
	DryRun     bool                      // Validate without saving
	OnConflict services.ConflictStrategy // How to handle existing activities
	Index      bool                      // Also update the vector index
}

// ImportResult contains the result of an import operation.
type ImportResult struct {
	Parsed   int
	Imported int
	Skipped  int
	Indexed  int
	Errors   []services.ImportError
}

// Handle imports activities from a file.
func (h *ImportHandler) Handle(ctx context.Context, siteID, filePath string, opts ImportOptions) (*ImportResult, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("opening file: %w", err)
	}
	defer file.Close()

	return h.HandleReader(ctx, siteID, file, filepath.Base(filePath), opts)
}

// HandleReader imports activities from r. name picks the parser when the
// format is "auto" and is recorded as the import source.
func (h *ImportHandler) HandleReader(ctx context.Context, siteID string, r io.Reader, name string, opts ImportOptions) (*ImportResult, error) {
	var parser parsers.Parser
	if opts.Format == "" || opts.Format == "auto" {
		parser = parsers.ForFile(name)
	} else {
		parser = parsers.ForFormat(opts.Format)
	}

	if parser == nil {
		return nil, fmt.Errorf("unsupported format for file: %s", name)
	}

	raw, err := parser.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parsing file: %w", err)
	}

	if len(raw) == 0 {
		return &ImportResult{}, nil
	}

	serviceResult, err := h.service.Import(ctx, siteID, raw, services.ImportOptions{
		DryRun:     opts.DryRun,
		OnConflict: opts.OnConflict,
		Index:      opts.Index,
		Source:     name,
	})
	if err != nil {
		return nil, err
	}

	return &ImportResult{
		Parsed:   len(raw),
		Imported: serviceResult.Imported,
		Skipped:  serviceResult.Skipped,
		Indexed:  serviceResult.Indexed,
		Errors:   serviceResult.Errors,
	}, nil
}
