package main

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/crewmanifest/crewmanifest/internal/host"
	"github.com/crewmanifest/crewmanifest/internal/roster"
	"github.com/crewmanifest/crewmanifest/internal/simstore"
	"github.com/spf13/cobra"
)

type memberFlags struct {
	name      string
	courage   float64
	stupidity float64
	badass    bool
	gender    string
	kind      string
}

func (f *memberFlags) register(cmd *cobra.Command, withName bool) {
	if withName {
		cmd.Flags().StringVar(&f.name, "name", "", "new name")
	}
	cmd.Flags().Float64Var(&f.courage, "courage", 0, "courage between 0 and 1")
	cmd.Flags().Float64Var(&f.stupidity, "stupidity", 0, "stupidity between 0 and 1")
	cmd.Flags().BoolVar(&f.badass, "badass", false, "badass flag")
	cmd.Flags().StringVar(&f.gender, "gender", "", "male or female")
	cmd.Flags().StringVar(&f.kind, "type", "", "crew, applicant, tourist or unowned")
}

// apply copies every flag the user set into the editor buffer.
func (f *memberFlags) apply(cmd *cobra.Command, editor *roster.Editor) {
	changed := cmd.Flags().Changed
	if changed("name") {
		editor.SetName(f.name)
	}
	if changed("courage") {
		editor.SetCourage(f.courage)
	}
	if changed("stupidity") {
		editor.SetStupidity(f.stupidity)
	}
	if changed("badass") {
		editor.SetBadass(f.badass)
	}
	if changed("gender") {
		editor.SetGender(host.Gender(f.gender))
	}
	if changed("type") {
		editor.SetType(host.KerbalType(f.kind))
	}
}

func newRosterCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "roster",
		Short: "List and edit the crew roster",
	}
	cmd.AddCommand(
		newRosterListCommand(a),
		newRosterCreateCommand(a),
		newRosterEditCommand(a),
		newRosterRespawnCommand(a),
	)
	return cmd
}

func newRosterListCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Show every crew member",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withWorld(cmd.Context(), false, func(world *simstore.World) error {
				renderRoster(cmd.OutOrStdout(), world.Roster.Crew())
				return nil
			})
		},
	}
}

func renderRoster(out io.Writer, crew []*host.Kerbal) {
	if len(crew) == 0 {
		fmt.Fprintln(out, "Roster is empty.")
		return
	}
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("NAME", "STATUS", "COURAGE", "STUPIDITY", "BADASS", "GENDER", "TYPE")
	for _, member := range crew {
		t.Row(
			member.Name,
			member.Status.String(),
			fmt.Sprintf("%.2f", member.Courage),
			fmt.Sprintf("%.2f", member.Stupidity),
			fmt.Sprintf("%t", member.Badass),
			string(member.Gender),
			string(member.Type),
		)
	}
	fmt.Fprintln(out, t.Render())
}

func newRosterCreateCommand(a *app) *cobra.Command {
	flags := &memberFlags{}
	cmd := &cobra.Command{
		Use:   "create [name]",
		Short: "Hire a new crew member, randomising any trait not given",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withWorld(cmd.Context(), true, func(world *simstore.World) error {
				editor := roster.Create(world.Roster.Prototype(), roster.WithLogger(a.logger))
				if len(args) == 1 {
					editor.SetName(args[0])
				}
				flags.apply(cmd, editor)
				if err := editor.Submit(cmd.Context(), world.Roster); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Hired %s.\n", editor.Member().Name)
				return nil
			})
		},
	}
	flags.register(cmd, false)
	return cmd
}

func newRosterEditCommand(a *app) *cobra.Command {
	flags := &memberFlags{}
	cmd := &cobra.Command{
		Use:   "edit <name>",
		Short: "Change a crew member's name or traits",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withWorld(cmd.Context(), true, func(world *simstore.World) error {
				member, err := findMember(world.Roster, args[0])
				if err != nil {
					return err
				}
				editor := roster.Edit(member, roster.WithLogger(a.logger))
				flags.apply(cmd, editor)
				if err := editor.Submit(cmd.Context(), world.Roster); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Updated %s.\n", member.Name)
				return nil
			})
		},
	}
	flags.register(cmd, true)
	return cmd
}

func newRosterRespawnCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "respawn <name>",
		Short: "Return a dead or missing crew member to the available pool",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withWorld(cmd.Context(), true, func(world *simstore.World) error {
				member, err := findMember(world.Roster, args[0])
				if err != nil {
					return err
				}
				if err := roster.Respawn(member); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s is available.\n", member.Name)
				return nil
			})
		},
	}
}
