package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"bpextract/internal/domain"
	"bpextract/internal/service"
)

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "bpextract",
		Short: "Extract stages, calendars and schedules from Blue Prism exports",
		Long: `bpextract reads Blue Prism XML exports and writes:
  - per-process stage and subsheet summaries (CSV or XLSX)
  - calendar and schedule summaries
  - one standalone XML file per item of a release package

Paths default to the values in the config file or BPX_* environment
variables; positional arguments override them.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd.Context())
		},
	}

	root.PersistentFlags().StringVar(&a.configFile, "config", "", "config file (yaml, toml or json)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn, error")
	root.PersistentFlags().StringVarP(&a.output, "output", "o", "", "override the output directory of the command")

	root.AddCommand(stagesCmd(a))
	root.AddCommand(calendarsCmd(a))
	root.AddCommand(schedulesCmd(a))
	root.AddCommand(splitCmd(a))
	root.AddCommand(splitProcessesCmd(a))
	root.AddCommand(workdaysCmd(a))
	return root
}

func stagesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "stages [file-or-dir]",
		Short: "Export the stages and referenced subsheets of process documents",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a.outputTo(&a.cfg.Paths.OutputDir)
			report, err := a.svc.ExportProcesses(cmd.Context(), argOr(args, a.cfg.Paths.ProcessDir))
			return finish(cmd.OutOrStdout(), report, err)
		},
	}
}

func calendarsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "calendars [dir]",
		Short: "Summarize calendar documents",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a.outputTo(&a.cfg.Paths.SummaryDir)
			report, err := a.svc.ExportCalendars(cmd.Context(), argOr(args, a.cfg.Paths.CalendarDir))
			return finish(cmd.OutOrStdout(), report, err)
		},
	}
}

func schedulesCmd(a *app) *cobra.Command {
	var printSchedules bool
	cmd := &cobra.Command{
		Use:   "schedules [file-or-dir]",
		Short: "Summarize schedule documents",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a.outputTo(&a.cfg.Paths.SummaryDir)
			echo := cmd.OutOrStdout()
			if !printSchedules {
				echo = nil
			}
			report, err := a.svc.ExportSchedules(cmd.Context(), argOr(args, a.cfg.Paths.ScheduleDir), echo)
			return finish(cmd.OutOrStdout(), report, err)
		},
	}
	cmd.Flags().BoolVar(&printSchedules, "print", false, "also print each schedule")
	return cmd
}

func splitCmd(a *app) *cobra.Command {
	var container string
	cmd := &cobra.Command{
		Use:   "split [release-file]",
		Short: "Write every item of a release package to its own file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a.outputTo(&a.cfg.Paths.SplitDir)
			report, err := a.svc.SplitRelease(cmd.Context(), argOr(args, a.cfg.Paths.ReleaseFile), container)
			return finish(cmd.OutOrStdout(), report, err)
		},
	}
	cmd.Flags().StringVar(&container, "container", service.DefaultContainer, "element whose children are split out")
	return cmd
}

func splitProcessesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "split-processes [file]",
		Short: "Write every process of a bundle to its own file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a.outputTo(&a.cfg.Paths.ProcessDir)
			report, err := a.svc.SplitProcesses(cmd.Context(), argOr(args, a.cfg.Paths.ProcessBundle))
			return finish(cmd.OutOrStdout(), report, err)
		},
	}
}

func workdaysCmd(a *app) *cobra.Command {
	var (
		years    int
		from     string
		writeCSV bool
	)
	cmd := &cobra.Command{
		Use:   "workdays <mask>",
		Short: "List the working days of a calendar working-week mask",
		Long: `Lists every working day from --from (default today) for --years years.
The mask is the calendar's working-week value: bit 0 is Sunday and bit 6 is
Saturday, so 62 is Monday to Friday.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			start := time.Now()
			if from != "" {
				t, err := time.ParseInLocation("2006-01-02", from, time.Local)
				if err != nil {
					return fmt.Errorf("%w: --from %q, want YYYY-MM-DD", domain.ErrInvalidDate, from)
				}
				start = t
			}

			a.outputTo(&a.cfg.Paths.SummaryDir)
			report, err := a.svc.ExportWorkdays(cmd.Context(), service.WorkdaysInput{
				Mask:     args[0],
				From:     start,
				Years:    years,
				WriteCSV: writeCSV,
			}, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			for _, out := range report.Outputs {
				fmt.Fprintf(cmd.OutOrStdout(), "written %s\n", out)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&years, "years", 1, "number of years to list")
	cmd.Flags().StringVar(&from, "from", "", "first date, YYYY-MM-DD")
	cmd.Flags().BoolVar(&writeCSV, "csv", false, "also write the list to the summary directory")
	return cmd
}
