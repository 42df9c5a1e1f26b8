package main

import (
	"fmt"

	"plenary/contexts/chamber-floor/roll-call-voting/adapters/agendafile"
	"plenary/contexts/chamber-floor/roll-call-voting/application/commands"
	"plenary/internal/app/bootstrap"

	"github.com/spf13/cobra"
)

func legislatorsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "legislators",
		Short: "Maintain the local legislator registry",
	}
	cmd.AddCommand(legislatorsImportCommand())
	return cmd
}

func legislatorsImportCommand() *cobra.Command {
	var actor commands.Actor
	cmd := &cobra.Command{
		Use:   "import <roster.yaml>",
		Short: "Register or update legislators from a roster file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := commonRun()
			if err != nil {
				return err
			}
			roster, err := agendafile.LoadRosterFile(args[0])
			if err != nil {
				return err
			}
			module, database, err := bootstrap.Open(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer database.Close()

			changed, err := module.Coordinator.RegisterLegislators(cmd.Context(), actor, roster)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d of %d legislators changed\n", changed, len(roster))
			return nil
		},
	}
	cmd.Flags().StringVar(&actor.ActorID, "actor", bootstrap.SystemActor.ActorID, "actor id recorded on the change")
	cmd.Flags().StringVar(&actor.Role, "role", bootstrap.SystemActor.Role, "actor role")
	return cmd
}
