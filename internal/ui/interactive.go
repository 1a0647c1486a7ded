// Package ui implements the interactive terminal front end.
package ui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fenilsonani/flclean/internal/config"
	"github.com/fenilsonani/flclean/internal/retention"
	"github.com/fenilsonani/flclean/internal/scanner"
	"github.com/fenilsonani/flclean/internal/ui/models"
)

// RunInteractive scans with live progress and prunes after confirmation
func RunInteractive(ctx context.Context, cfg *config.Config) error {
	opts := cfg.ScanOptions()
	opts.AutoClean = false

	pruner := retention.New(retention.Options{
		DryRun:    cfg.DryRun,
		Validator: cfg.PathValidator(),
	})
	coord := scanner.NewCoordinator(opts, cfg.RootLister(), pruner)

	m := models.NewAppModel(ctx, coord, pruner)
	defer m.Close()

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running interactive mode: %w", err)
	}

	return nil
}
