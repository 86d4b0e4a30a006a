package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fastygo/assettrack/domain"
	"github.com/fastygo/assettrack/usecase/session"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in and resolve the active organization",
	Long: `Sign in with email and password. The password may also be supplied
through the ASSETTRACK_PASSWORD environment variable.

Examples:
  assetctl login --email user@example.com --password secret`,
	RunE: func(cmd *cobra.Command, args []string) error {
		email, _ := cmd.Flags().GetString("email")
		password, _ := cmd.Flags().GetString("password")
		if password == "" {
			password = os.Getenv("ASSETTRACK_PASSWORD")
		}
		if email == "" {
			return fmt.Errorf("--email is required")
		}
		if password == "" {
			return fmt.Errorf("--password is required")
		}

		a := appFrom(cmd)
		res := a.sessions.Login(cmd.Context(), email, password)
		if err := resultError(res); err != nil {
			return err
		}
		return printSnapshot(cmd.OutOrStdout(), a.sessions.Snapshot())
	},
}

var restoreCmd = &cobra.Command{
	Use:   "restore",
	Short: "Restore the persisted session and re-check the organization plan",
	RunE: func(cmd *cobra.Command, args []string) error {
		a := appFrom(cmd)
		if err := resultError(a.sessions.Restore(cmd.Context())); err != nil {
			return err
		}
		return printSnapshot(cmd.OutOrStdout(), a.sessions.Snapshot())
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the session state, active organization and menu",
	RunE: func(cmd *cobra.Command, args []string) error {
		a := appFrom(cmd)
		if err := resultError(a.sessions.Restore(cmd.Context())); err != nil {
			return err
		}
		snap := a.sessions.Snapshot()
		if snap.State != domain.StateAuthenticated {
			fmt.Fprintln(cmd.OutOrStdout(), "not signed in")
			return nil
		}
		return printSnapshot(cmd.OutOrStdout(), snap)
	},
}

var orgsCmd = &cobra.Command{
	Use:   "orgs",
	Short: "List the organizations of the signed-in user",
	RunE: func(cmd *cobra.Command, args []string) error {
		a := appFrom(cmd)
		if err := resultError(a.sessions.Restore(cmd.Context())); err != nil {
			return err
		}
		memberships, derr := a.sessions.Organizations(cmd.Context())
		if derr != nil {
			return derr
		}

		active := a.sessions.Snapshot().Resolved
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "\tID\tNAME\tROLE\tPLAN")
		for _, m := range memberships {
			marker := ""
			if active != nil && active.OrganizationID == m.OrganizationID {
				marker = "*"
			}
			planState := "inactive"
			if m.PlanActive.Active() {
				planState = "active"
			}
			fmt.Fprintf(w, "%s\t%d\t%s\t%s\t%s\n", marker, m.OrganizationID, m.OrganizationName, m.Role, planState)
		}
		return w.Flush()
	},
}

var switchOrgCmd = &cobra.Command{
	Use:   "switch-org <organization-id>",
	Short: "Switch the active organization",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid organization id %q", args[0])
		}

		a := appFrom(cmd)
		if err := resultError(a.sessions.Restore(cmd.Context())); err != nil {
			return err
		}
		memberships, derr := a.sessions.Organizations(cmd.Context())
		if derr != nil {
			return derr
		}
		for _, m := range memberships {
			if m.OrganizationID != id {
				continue
			}
			if err := resultError(a.sessions.SwitchOrganization(cmd.Context(), m)); err != nil {
				return err
			}
			return printSnapshot(cmd.OutOrStdout(), a.sessions.Snapshot())
		}
		return fmt.Errorf("organization %d is not among your memberships", id)
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out and clear the persisted session",
	RunE: func(cmd *cobra.Command, args []string) error {
		a := appFrom(cmd)
		a.sessions.Logout(cmd.Context())
		if pending := a.processor.Size(); pending > 0 {
			fmt.Fprintf(cmd.OutOrStdout(), "signed out (%d remote logout(s) queued for retry)\n", pending)
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), "signed out")
		return nil
	},
}

var outboxCmd = &cobra.Command{
	Use:   "outbox",
	Short: "Inspect the queue of failed remote calls",
	RunE: func(cmd *cobra.Command, args []string) error {
		a := appFrom(cmd)
		return printJSON(cmd.OutOrStdout(), a.monitor.Refresh(cmd.Context()))
	},
}

var outboxDrainCmd = &cobra.Command{
	Use:   "drain",
	Short: "Replay queued remote calls now",
	RunE: func(cmd *cobra.Command, args []string) error {
		a := appFrom(cmd)
		a.monitor.Refresh(cmd.Context())
		report, err := a.processor.Drain(cmd.Context())
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), report)
	},
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Restore the session, print session events and drain the outbox until interrupted",
	RunE: func(cmd *cobra.Command, args []string) error {
		a := appFrom(cmd)
		out := cmd.OutOrStdout()

		unsubscribe := a.sessions.Events().Subscribe("watch", func(event domain.Event) {
			if err := printJSON(out, event); err != nil {
				a.logger.Warn("failed to print event", zap.Error(err))
			}
		})
		defer unsubscribe()

		a.logger.Info("watching session", zap.String("backend", a.cfg.HealthURL()))
		a.monitor.Start()
		a.lifecycle.Register("monitor", func(ctx context.Context) error {
			a.monitor.Stop()
			return nil
		})
		a.processor.Start()
		a.lifecycle.Register("outbox_processor", func(ctx context.Context) error {
			a.processor.Stop(ctx)
			return nil
		})

		if res := a.sessions.Restore(cmd.Context()); res.Err != nil {
			a.logger.Info("session not restored", zap.String("code", string(res.Err.Code)))
		}

		<-cmd.Context().Done()
		return nil
	},
}

func init() {
	loginCmd.Flags().String("email", "", "account email")
	loginCmd.Flags().String("password", "", "account password")

	outboxCmd.AddCommand(outboxDrainCmd)
	rootCmd.AddCommand(loginCmd, restoreCmd, whoamiCmd, orgsCmd, switchOrgCmd, logoutCmd, outboxCmd, watchCmd)
}

// resultError turns a session result into a command error. Silent errors
// (expired or unreadable session) are reported as a plain sign-in hint.
func resultError(res session.Result) error {
	if res.Err == nil {
		return nil
	}
	if res.Err.Silent() {
		return fmt.Errorf("please log in again")
	}
	return res.Err
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printSnapshot prints the snapshot without the authentication token.
func printSnapshot(w io.Writer, snap session.Snapshot) error {
	if snap.User != nil {
		snap.User.AuthenticationToken = ""
	}
	return printJSON(w, snap)
}
