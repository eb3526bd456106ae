package main

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"tracker-parent/internal/auth"
	"tracker-parent/internal/trackview"
)

func newLoginCommand(c *cli) *cobra.Command {
	var req auth.LoginRequest
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and remember the account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if req.Password == "" {
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && !errors.Is(err, io.EOF) {
					return err
				}
				req.Password = strings.TrimRight(line, "\r\n")
			}
			sess, err := c.srv.Auth.Login(cmd.Context(), req)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s (%s)\n", sess.Username, sess.Role)
			return nil
		},
	}
	cmd.Flags().StringVarP(&req.Username, "username", "u", "", "account name")
	cmd.Flags().StringVarP(&req.Password, "password", "p", "", "password, read from stdin when omitted")
	return cmd
}

func newResumeCommand(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "resume",
		Short: "Re-enter the last account with its stored credential",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sess, err := c.srv.Auth.Resume(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Resumed %s (%s)\n", sess.Username, sess.Role)
			return nil
		},
	}
}

func newLogoutCommand(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the signed-in account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := c.srv.Auth.Logout(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Signed out")
			return nil
		},
	}
}

func newWhoamiCommand(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in account and its role",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sess, err := c.srv.Resolver.Resolve(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", sess.Username, sess.Role)
			return nil
		},
	}
}

func newUsersCommand(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "users",
		Short: "List accounts (administrators only)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sess, err := c.srv.Resolver.Resolve(cmd.Context())
			if err != nil {
				return err
			}
			users, err := c.srv.Auth.Users(cmd.Context(), sess)
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "USERNAME\tROLE\tEMAIL\tACTIVE")
			for _, u := range users {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", u.Name(), u.RoleName(), deref(u.Email), active(u.IsActive))
			}
			return tw.Flush()
		},
	}
}

func newTracksCommand(c *cli) *cobra.Command {
	var (
		target, from, to string
		asGeoJSON        bool
	)
	cmd := &cobra.Command{
		Use:   "tracks",
		Short: "Fetch and segment tracked locations for a date range",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			loc := c.cfg.Location()
			req := trackview.Request{Target: target}
			var err error
			if req.From, err = trackview.ParseDate(from, loc); err != nil {
				return fmt.Errorf("--from must be %s", trackview.DateLayout)
			}
			if req.To, err = trackview.ParseDate(to, loc); err != nil {
				return fmt.Errorf("--to must be %s", trackview.DateLayout)
			}

			state, err := c.srv.Tracks.Fetch(cmd.Context(), req)
			if err != nil {
				return errors.New(trackview.Message(err))
			}
			if asGeoJSON {
				return printJSON(cmd.OutOrStdout(), c.srv.Tracks.GeoJSON())
			}

			out := cmd.OutOrStdout()
			if len(state.Tracks) == 0 {
				fmt.Fprintln(out, "No tracks")
				return nil
			}
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', tabwriter.AlignRight)
			fmt.Fprintln(tw, "#\tPOINTS\tSTART\tEND\tDURATION\tDISTANCE (m)\tAVG (km/h)\t")
			for i := range state.Tracks {
				s, err := c.srv.Tracks.Summary(i)
				if err != nil {
					return err
				}
				fmt.Fprintf(tw, "%d\t%d\t%s\t%s\t%s\t%.0f\t%.1f\t\n",
					s.Index, s.Points, clock(s.Start, loc), clock(s.End, loc), s.Duration.Round(time.Second), s.DistanceM, s.AvgSpeedKmh)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&target, "target", "", "account to show, defaults to the signed-in account")
	cmd.Flags().StringVar(&from, "from", "", "first day (YYYY-MM-DD), defaults to today")
	cmd.Flags().StringVar(&to, "to", "", "last day (YYYY-MM-DD), defaults to --from")
	cmd.Flags().BoolVar(&asGeoJSON, "geojson", false, "print a GeoJSON feature collection")
	return cmd
}

func newSettingsCommand(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Read tracking configurations",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List every configuration",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				list, err := c.srv.Settings.List(cmd.Context())
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), list)
			},
		},
		&cobra.Command{
			Use:   "current",
			Short: "Show the configuration in effect",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				setting, err := c.srv.Settings.Current(cmd.Context())
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), setting)
			},
		},
	)
	return cmd
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func deref(s *string) string {
	if s == nil {
		return "-"
	}
	return *s
}

func active(b *bool) string {
	switch {
	case b == nil:
		return "-"
	case *b:
		return "yes"
	default:
		return "no"
	}
}

func clock(t time.Time, loc *time.Location) string {
	if t.IsZero() {
		return "-"
	}
	return t.In(loc).Format("15:04:05")
}
