package main

import (
	"fmt"

	"plenary/contexts/chamber-floor/roll-call-voting/adapters/agendafile"
	"plenary/contexts/chamber-floor/roll-call-voting/application/commands"
	"plenary/internal/app/bootstrap"

	"github.com/spf13/cobra"
)

func agendaCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "agenda",
		Short: "Work with session agendas",
	}
	cmd.AddCommand(agendaLoadCommand())
	return cmd
}

func agendaLoadCommand() *cobra.Command {
	var actor commands.Actor
	cmd := &cobra.Command{
		Use:   "load <agenda.yaml>",
		Short: "Prepare a session from an agenda file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := commonRun()
			if err != nil {
				return err
			}
			prepare, err := agendafile.LoadAgendaFile(args[0])
			if err != nil {
				return err
			}
			module, database, err := bootstrap.Open(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer database.Close()

			prepared, err := module.Coordinator.PrepareSession(cmd.Context(), actor, prepare)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "session %s (%s) prepared\n", prepared.Session.SessionID, prepared.Session.Code)
			for _, initiative := range prepared.Initiatives {
				fmt.Fprintf(out, "  %3d  %-10s %s  %s\n",
					initiative.Number, initiative.MajorityRule, initiative.InitiativeID, initiative.Title)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&actor.ActorID, "actor", bootstrap.SystemActor.ActorID, "actor id recorded on the change")
	cmd.Flags().StringVar(&actor.Role, "role", bootstrap.SystemActor.Role, "actor role")
	return cmd
}
