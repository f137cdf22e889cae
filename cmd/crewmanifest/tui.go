package main

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/crewmanifest/crewmanifest/internal/events"
	"github.com/crewmanifest/crewmanifest/internal/session"
	"github.com/crewmanifest/crewmanifest/internal/sim"
	"github.com/crewmanifest/crewmanifest/internal/simstore"
	"github.com/crewmanifest/crewmanifest/internal/tui"
	"github.com/spf13/cobra"
)

func newTUICommand(a *app) *cobra.Command {
	var warp float64
	cmd := &cobra.Command{
		Use:   "tui [vessel]",
		Short: "Open the crew manifest for a stored vessel",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withWorld(cmd.Context(), true, func(world *simstore.World) error {
				if len(world.Vessels) == 0 {
					return errors.New("no vessels stored, run `crewmanifest demo` first")
				}
				vessel := world.Vessels[0]
				if len(args) == 1 {
					found, err := findVessel(world, args[0])
					if err != nil {
						return err
					}
					vessel = found
				}
				return a.runTUI(cmd, world, vessel, warp)
			})
		},
	}
	cmd.Flags().Float64Var(&warp, "warp", 1, "simulation time warp applied to the transfer delay")
	return cmd
}

func (a *app) runTUI(cmd *cobra.Command, world *simstore.World, vessel *sim.Vessel, warp float64) error {
	ctx := cmd.Context()
	bus := events.New(events.WithLogger(a.logger))
	defer bus.Close()
	incoming := tui.Forward(bus, 0)

	registry := a.newRegistry(world.Roster, sim.NewWallClock(warp), bus)
	sess, err := session.New(registry,
		session.WithSettingsPath(a.cfg.SettingsPath()),
		session.WithSaveInterval(a.cfg.SaveInterval),
		session.WithScreen(a.cfg.ScreenWidth, a.cfg.ScreenHeight),
		session.WithLogger(a.logger),
		session.WithPublisher(bus),
	)
	if err != nil {
		return err
	}

	model, err := tui.New(ctx, sess, vessel,
		tui.WithTickInterval(a.cfg.TickInterval),
		tui.WithDebugBuffer(a.debug),
		tui.WithEvents(incoming),
		tui.WithLogger(a.logger),
	)
	if err != nil {
		return err
	}

	program := tea.NewProgram(model,
		tea.WithAltScreen(),
		tea.WithContext(ctx),
		tea.WithInput(cmd.InOrStdin()),
		tea.WithOutput(cmd.OutOrStdout()),
	)
	_, runErr := program.Run()
	if !model.Quitting() {
		if closeErr := sess.Close(); closeErr != nil {
			a.logger.Warn("final settings save failed", "err", closeErr)
		}
	}
	if runErr != nil && !errors.Is(runErr, tea.ErrProgramKilled) && !errors.Is(runErr, context.Canceled) {
		return fmt.Errorf("run tui: %w", runErr)
	}
	return nil
}
