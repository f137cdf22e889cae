package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/crewmanifest/crewmanifest/internal/events"
	"github.com/crewmanifest/crewmanifest/internal/manifest"
	"github.com/crewmanifest/crewmanifest/internal/sim"
	"github.com/crewmanifest/crewmanifest/internal/simstore"
	"github.com/spf13/cobra"
)

func newVesselCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "vessel",
		Short: "Inspect and crew stored vessels",
	}
	cmd.AddCommand(
		newVesselListCommand(a),
		newVesselShowCommand(a),
		newVesselCrewCommand(a, "fill", "Fill every seat from the available roster", (*manifest.Controller).FillVessel),
		newVesselCrewCommand(a, "empty", "Return every occupant to the roster", (*manifest.Controller).EmptyVessel),
		newVesselMoveCommand(a),
	)
	return cmd
}

func newVesselListCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored vessels",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withWorld(cmd.Context(), false, func(world *simstore.World) error {
				out := cmd.OutOrStdout()
				if len(world.Vessels) == 0 {
					fmt.Fprintln(out, "No vessels.")
				}
				for _, vessel := range world.Vessels {
					fmt.Fprintf(out, "%s  %s  crew %d\n", vessel.Name(), location(vessel), crewCount(vessel))
				}
				return nil
			})
		},
	}
}

func newVesselShowCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show <vessel>",
		Short: "Show a vessel's parts and occupants",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withWorld(cmd.Context(), false, func(world *simstore.World) error {
				vessel, err := findVessel(world, args[0])
				if err != nil {
					return err
				}
				renderVessel(cmd.OutOrStdout(), vessel)
				return nil
			})
		},
	}
}

func newVesselCrewCommand(a *app, use, short string, op func(*manifest.Controller, context.Context) error) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <vessel>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withWorld(cmd.Context(), true, func(world *simstore.World) error {
				vessel, err := findVessel(world, args[0])
				if err != nil {
					return err
				}
				recorder := &events.Recorder{}
				ctrl, err := a.newRegistry(world.Roster, sim.NewManualClock(0), recorder).GetOrCreate(vessel)
				if err != nil {
					return err
				}
				if err := op(ctrl, cmd.Context()); err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				printEvents(out, recorder.Events())
				renderVessel(out, vessel)
				return nil
			})
		},
	}
}

func newVesselMoveCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "move <vessel> <from-part> <to-part> <crew member>",
		Short: "Move one crew member between two parts of a vessel",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withWorld(cmd.Context(), true, func(world *simstore.World) error {
				vessel, err := findVessel(world, args[0])
				if err != nil {
					return err
				}
				source, err := findPart(vessel, args[1])
				if err != nil {
					return err
				}
				destination, err := findPart(vessel, args[2])
				if err != nil {
					return err
				}
				member, err := findMember(world.Roster, args[3])
				if err != nil {
					return err
				}

				clock := sim.NewManualClock(0)
				recorder := &events.Recorder{}
				ctrl, err := a.newRegistry(world.Roster, clock, recorder).GetOrCreate(vessel)
				if err != nil {
					return err
				}
				if err := ctrl.MoveCrew(cmd.Context(), source, destination, member); err != nil {
					return err
				}
				clock.Advance(ctrl.TransferDelay())
				ctrl.Update(cmd.Context())

				out := cmd.OutOrStdout()
				printEvents(out, recorder.Events())
				renderVessel(out, vessel)
				return nil
			})
		},
	}
}

func renderVessel(out io.Writer, vessel *sim.Vessel) {
	fmt.Fprintf(out, "%s (%s)\n", vessel.Name(), location(vessel))
	for _, part := range vessel.SimParts() {
		if part.CrewCapacity() == 0 {
			continue
		}
		names := make([]string, 0, part.CrewCapacity())
		for _, member := range part.Crew() {
			names = append(names, member.Name)
		}
		fmt.Fprintf(out, "  %s %d/%d", part.Title(), len(names), part.CrewCapacity())
		if len(names) > 0 {
			fmt.Fprintf(out, ": %s", strings.Join(names, ", "))
		}
		fmt.Fprintln(out)
	}
}

func location(vessel *sim.Vessel) string {
	if vessel.LandedAt() == "" {
		return "in flight"
	}
	return vessel.LandedAt()
}

func crewCount(vessel *sim.Vessel) int {
	total := 0
	for _, part := range vessel.SimParts() {
		total += len(part.Crew())
	}
	return total
}
