package main

import (
	"fmt"

	"github.com/crewmanifest/crewmanifest/internal/events"
	"github.com/crewmanifest/crewmanifest/internal/sim"
	"github.com/crewmanifest/crewmanifest/internal/simstore"
	"github.com/spf13/cobra"
)

var demoCrew = []string{"Jebediah Kerman", "Bill Kerman", "Bob Kerman", "Valentina Kerman"}

// seedWorld builds the demo roster and fleet: a crewable rocket on the
// launch pad and a station in orbit.
func seedWorld(seed int64) *simstore.World {
	crew := sim.NewRoster(sim.WithSeed(seed))
	for _, name := range demoCrew {
		member := crew.Hire(name)
		member.Badass = name == "Jebediah Kerman" || name == "Valentina Kerman"
	}

	rocket := sim.NewVessel("Kerbal X", sim.LocationLaunchPad)
	rocket.AddPart("Mk1-3 Command Pod", 3)
	rocket.AddPart("FL-T400 Fuel Tank", 0)
	rocket.AddPart("Hitchhiker Storage Container", 4)

	station := sim.NewVessel("Minmus Station", sim.LocationFlight)
	hub := station.AddPart("PPD-12 Cupola", 1)
	station.AddPart("Mk2 Lander Can", 2)
	hub.AddCrewmember(crew.Hire("Gene Kerman"))

	return &simstore.World{Roster: crew, Vessels: []*sim.Vessel{rocket, station}}
}

func newDemoCommand(a *app) *cobra.Command {
	var seed int64
	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Reset the store to a demo fleet and script a fill and a transfer",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()
			world := seedWorld(seed)

			clock := sim.NewManualClock(0)
			recorder := &events.Recorder{}
			registry := a.newRegistry(world.Roster, clock, recorder)
			rocket := world.Vessels[0]
			ctrl, err := registry.GetOrCreate(rocket)
			if err != nil {
				return err
			}

			if err := ctrl.FillVessel(ctx); err != nil {
				return err
			}
			pod, cabin := rocket.SimParts()[0], rocket.SimParts()[2]
			seated := cabin.Crew()
			if err := ctrl.RemoveCrew(ctx, cabin, seated[len(seated)-1]); err != nil {
				return err
			}
			member := pod.Crew()[0]
			if err := ctrl.MoveCrew(ctx, pod, cabin, member); err != nil {
				return err
			}
			clock.Advance(ctrl.TransferDelay())
			ctrl.Update(ctx)

			printEvents(out, recorder.Events())
			for _, vessel := range world.Vessels {
				renderVessel(out, vessel)
			}

			store, err := simstore.Open(a.cfg.StorePath(), a.logger)
			if err != nil {
				return err
			}
			defer func() {
				if closeErr := store.Close(); closeErr != nil {
					a.logger.Warn("failed to close sim store", "err", closeErr)
				}
			}()
			if err := store.Save(ctx, world.Roster, world.Vessels); err != nil {
				return err
			}
			fmt.Fprintf(out, "Demo fleet saved to %s\n", a.cfg.StorePath())
			return nil
		},
	}
	cmd.Flags().Int64Var(&seed, "seed", 1, "seed for generated names and traits")
	return cmd
}
