/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */
package main

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/HamedShams/jira-work-hours/internal/credentials"
	"github.com/HamedShams/jira-work-hours/internal/domain"
	"github.com/HamedShams/jira-work-hours/internal/render"
	"github.com/spf13/cobra"
)

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "worktime",
		Short:         "Jira work hours, timesheet gaps and estimate-vs-logged productivity",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().BoolVar(&a.asJSON, "json", false, "print JSON instead of tables")
	root.PersistentFlags().BoolVar(&a.noColor, "no-color", false, "disable colored output")

	root.AddCommand(
		a.hoursCmd(),
		a.productivityCmd(),
		a.periodCmd("weekly", "Productivity over the last 7 days", 7),
		a.periodCmd("monthly", "Productivity over the last 30 days", 30),
		a.rangeCmd(),
		a.issueCmd(),
		a.timesheetCmd(),
		a.loginCmd(),
		a.logoutCmd(),
	)
	return root
}

// emit prints v as JSON or hands it to the table printer.
func (a *app) emit(v any, table func(p *render.Printer) error) error {
	if a.asJSON {
		return render.JSON(a.out, v)
	}
	return table(a.printer())
}

// weekendsFlag returns the flag value when set, else the configured default.
func (a *app) weekendsFlag(cmd *cobra.Command, v bool) bool {
	if cmd.Flags().Changed("exclude-weekends") {
		return v
	}
	return a.cfg.Productivity.ExcludeWeekends
}

func (a *app) hoursCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hours [date]",
		Short: "Hours you logged on a day and the issues created that day",
		Long:  "Date accepts YYYY-MM-DD or text such as \"yesterday\" or \"last friday\". Defaults to today.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.connect(); err != nil {
				return err
			}
			day, err := a.day(args)
			if err != nil {
				return err
			}
			out, err := a.engine.DailyWorkHours(cmd.Context(), day)
			if err != nil {
				return err
			}
			return a.emit(out, func(p *render.Printer) error { return p.DailyHours(out) })
		},
	}
}

func (a *app) productivityCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "productivity [date]",
		Short: "Productivity for issues you logged time on during one day",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.connect(); err != nil {
				return err
			}
			day, err := a.day(args)
			if err != nil {
				return err
			}
			rep, err := a.engine.DailyProductivity(cmd.Context(), day)
			if err != nil {
				return err
			}
			return a.emit(rep, func(p *render.Printer) error { return p.Productivity(rep) })
		},
	}
}

func (a *app) periodCmd(name, short string, days int) *cobra.Command {
	var exclude bool
	cmd := &cobra.Command{
		Use:   name,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.connect(); err != nil {
				return err
			}
			excl := a.weekendsFlag(cmd, exclude)
			var (
				rep domain.ProductivityReport
				err error
			)
			if days == 7 {
				rep, err = a.engine.WeeklyProductivity(cmd.Context(), excl)
			} else {
				rep, err = a.engine.MonthlyProductivity(cmd.Context(), excl)
			}
			if err != nil {
				return err
			}
			return a.emit(rep, func(p *render.Printer) error { return p.Productivity(rep) })
		},
	}
	cmd.Flags().BoolVar(&exclude, "exclude-weekends", false, "skip Saturdays and Sundays")
	return cmd
}

func (a *app) rangeCmd() *cobra.Command {
	var (
		start, end, label string
		exclude           bool
	)
	cmd := &cobra.Command{
		Use:   "range",
		Short: "Productivity for an explicit date range",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.connect(); err != nil {
				return err
			}
			s, err := a.engine.ParseDay(start)
			if err != nil {
				return fmt.Errorf("--start: %w", err)
			}
			e, err := a.engine.ParseDay(end)
			if err != nil {
				return fmt.Errorf("--end: %w", err)
			}
			rep, err := a.engine.RangeProductivity(cmd.Context(), s, e, label, a.weekendsFlag(cmd, exclude))
			if err != nil {
				return err
			}
			return a.emit(rep, func(p *render.Printer) error { return p.Productivity(rep) })
		},
	}
	cmd.Flags().StringVar(&start, "start", "", "first day (inclusive)")
	cmd.Flags().StringVar(&end, "end", "", "last day (inclusive)")
	cmd.Flags().StringVar(&label, "label", "Custom", "report label")
	cmd.Flags().BoolVar(&exclude, "exclude-weekends", false, "skip Saturdays and Sundays")
	_ = cmd.MarkFlagRequired("start")
	_ = cmd.MarkFlagRequired("end")
	return cmd
}

func (a *app) issueCmd() *cobra.Command {
	var aggregate bool
	cmd := &cobra.Command{
		Use:   "issue KEY",
		Short: "Productivity score of a single issue, or a story rolled up from its subtasks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.connect(); err != nil {
				return err
			}
			entry, err := a.engine.IssueProductivity(cmd.Context(), strings.ToUpper(strings.TrimSpace(args[0])), aggregate)
			if err != nil {
				var inel *domain.IneligibleError
				if errors.As(err, &inel) {
					return errors.New(inel.Reason)
				}
				return err
			}
			return a.emit(entry, func(p *render.Printer) error { return p.Entry(entry) })
		},
	}
	cmd.Flags().BoolVar(&aggregate, "aggregate", false, "roll a story up from its subtasks")
	return cmd
}

func (a *app) timesheetCmd() *cobra.Command {
	var (
		start, end string
		coverage   bool
		exclude    bool
	)
	cmd := &cobra.Command{
		Use:   "timesheet",
		Short: "Missing hours per business day (default last 7 days)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.connect(); err != nil {
				return err
			}
			s, e := a.engine.LastDays(7)
			var err error
			if start != "" {
				if s, err = a.engine.ParseDay(start); err != nil {
					return fmt.Errorf("--start: %w", err)
				}
			}
			if end != "" {
				if e, err = a.engine.ParseDay(end); err != nil {
					return fmt.Errorf("--end: %w", err)
				}
			}
			excl := a.weekendsFlag(cmd, exclude)
			if coverage {
				out, err := a.engine.TimesheetCoverage(cmd.Context(), s, e, excl)
				if err != nil {
					return err
				}
				return a.emit(out, func(p *render.Printer) error { return p.Coverage(out) })
			}
			out, err := a.engine.TimesheetGaps(cmd.Context(), s, e, excl)
			if err != nil {
				return err
			}
			return a.emit(out, func(p *render.Printer) error { return p.Gaps(out) })
		},
	}
	cmd.Flags().StringVar(&start, "start", "", "first day (inclusive)")
	cmd.Flags().StringVar(&end, "end", "", "last day (inclusive)")
	cmd.Flags().BoolVar(&coverage, "coverage", false, "report which days have any hours instead of per-day gaps")
	cmd.Flags().BoolVar(&exclude, "exclude-weekends", false, "skip Saturdays and Sundays")
	return cmd
}

func (a *app) loginCmd() *cobra.Command {
	var username, token, baseURL string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Store Jira credentials in the system keyring",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			in := bufio.NewReader(a.in)
			var err error
			if username == "" {
				if username, err = a.prompt(in, "Jira username: "); err != nil {
					return err
				}
			}
			if token == "" {
				if token, err = a.prompt(in, "Jira personal access token: "); err != nil {
					return err
				}
			}
			if err := a.store.Save(credentials.Credentials{Username: username, PAT: token, BaseURL: strings.TrimRight(baseURL, "/")}); err != nil {
				return err
			}
			_, _ = fmt.Fprintln(a.out, "Credentials saved.")
			return nil
		},
	}
	cmd.Flags().StringVar(&username, "username", "", "Jira username")
	cmd.Flags().StringVar(&token, "token", "", "Jira personal access token")
	cmd.Flags().StringVar(&baseURL, "url", "", "Jira base URL")
	return cmd
}

func (a *app) prompt(in *bufio.Reader, label string) (string, error) {
	_, _ = fmt.Fprint(a.out, label)
	s, err := in.ReadString('\n')
	s = strings.TrimSpace(s)
	if s == "" {
		if err != nil {
			return "", fmt.Errorf("read %s: %w", strings.TrimSuffix(label, ": "), err)
		}
		return "", fmt.Errorf("%s is required", strings.TrimSuffix(label, ": "))
	}
	return s, nil
}

func (a *app) logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Remove stored Jira credentials",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.store.Clear(); err != nil {
				return err
			}
			_, _ = fmt.Fprintln(a.out, "Credentials removed.")
			return nil
		},
	}
}
