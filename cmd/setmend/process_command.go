package main

import (
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"setmend/internal/config"
	"setmend/internal/liveset"
	"setmend/internal/logging"
	"setmend/internal/reconcile"
	"setmend/internal/sampledb"
)

type processFlags struct {
	save           bool
	xml            bool
	appendBarsBPM  bool
	prependVersion bool

	fold   bool
	unfold bool

	trackHeights int
	trackWidths  int
	masterOut    int
	cueOut       int

	listTracks   bool
	checkSamples bool
	checkPlugins bool

	fixAbsolute bool
	fixCollect  bool
	force       bool
}

func (f *processFlags) mutating() bool {
	return f.fold || f.unfold || f.trackHeights > 0 || f.trackWidths > 0 ||
		f.masterOut > 0 || f.cueOut > 0 || f.fixAbsolute || f.fixCollect
}

func (f *processFlags) fixing() bool {
	return f.fixAbsolute || f.fixCollect
}

func newProcessCommand(ctx *commandContext) *cobra.Command {
	flags := &processFlags{}

	cmd := &cobra.Command{
		Use:   "process <set-or-dir> [set-or-dir...]",
		Short: "Inspect, edit, and repair sets",
		Long: "Process runs the requested inspections and edits against every set\n" +
			"found under the given paths. Edits happen in memory; nothing is\n" +
			"written back unless --save or --xml is given. Saving moves the\n" +
			"original file into the backup directory first.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger := ctx.ensureLogger().With(logging.String("run", shortRunID()))

			if flags.mutating() && !flags.save && !flags.xml {
				logger.Warn("edit flags given without --save or --xml, changes will be discarded")
			}

			sets, err := discoverSets(args, cfg.Paths.BackupDirName)
			if err != nil {
				return err
			}
			if len(sets) == 0 {
				return fmt.Errorf("no set files found under the given paths")
			}

			var engine *reconcile.Engine
			if flags.fixing() {
				store, err := sampledb.Open(cfg.Paths.IndexDB)
				if err != nil {
					return fmt.Errorf("open sample index: %w", err)
				}
				defer store.Close()
				entries, err := store.Snapshot(cmd.Context())
				if err != nil {
					return fmt.Errorf("load sample index: %w", err)
				}
				if len(entries) == 0 {
					return fmt.Errorf("sample index is empty, run `setmend index build` first")
				}
				engine = reconcile.New(entries, logger)
			}

			var rows [][]string
			failures := 0
			for _, setPath := range sets {
				row, err := processSet(cmd, cfg, logger, engine, setPath, flags)
				if err != nil {
					failures++
					logger.Error("set failed", logging.String("set", setPath), logging.Error(err))
					rows = append(rows, []string{shortName(setPath), "", "", "", "error: " + err.Error()})
					continue
				}
				rows = append(rows, row)
			}

			printTable(cmd.OutOrStdout(),
				[]tableColumn{col("Set"), col("Version"), numCol("Tempo"), numCol("Bars"), col("Result")},
				rows)

			if failures > 0 {
				return fmt.Errorf("%d of %d sets failed", failures, len(sets))
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&flags.save, "save", "s", false, "Write the modified set back (backing up the original)")
	cmd.Flags().BoolVarP(&flags.xml, "xml", "x", false, "Export the uncompressed document next to the set")
	cmd.Flags().BoolVar(&flags.appendBarsBPM, "append-bars-bpm", false, "Append arrangement length and tempo to the saved filename")
	cmd.Flags().BoolVar(&flags.prependVersion, "prepend-version", false, "Prepend the creator version to the saved filename")
	cmd.Flags().BoolVar(&flags.fold, "fold", false, "Fold all tracks")
	cmd.Flags().BoolVar(&flags.unfold, "unfold", false, "Unfold all tracks")
	cmd.Flags().IntVar(&flags.trackHeights, "set-track-heights", 0, "Set every arrangement lane height (17-425)")
	cmd.Flags().IntVar(&flags.trackWidths, "set-track-widths", 0, "Set every session track width (17-264)")
	cmd.Flags().IntVar(&flags.masterOut, "master-out", 0, "Route the master track to a stereo output slot (1-10)")
	cmd.Flags().IntVar(&flags.cueOut, "cue-out", 0, "Route the cue track to a stereo output slot (1-10)")
	cmd.Flags().BoolVar(&flags.listTracks, "list-tracks", false, "List the set's tracks")
	cmd.Flags().BoolVar(&flags.checkSamples, "check-samples", false, "Report sample references that resolve nowhere")
	cmd.Flags().BoolVar(&flags.checkPlugins, "check-plugins", false, "Report plugin references and whether they exist")
	cmd.Flags().BoolVar(&flags.fixAbsolute, "fix-samples-absolute", false, "Repoint missing samples at their indexed absolute paths")
	cmd.Flags().BoolVar(&flags.fixCollect, "fix-samples-collect", false, "Copy missing samples into the project, like collect-and-save")
	cmd.Flags().BoolVar(&flags.force, "force", false, "With --fix-samples-collect, overwrite same-named project files of a different size")

	cmd.MarkFlagsMutuallyExclusive("fold", "unfold")
	cmd.MarkFlagsMutuallyExclusive("fix-samples-absolute", "fix-samples-collect")

	return cmd
}

func processSet(cmd *cobra.Command, cfg *config.Config, logger *slog.Logger, engine *reconcile.Engine, setPath string, flags *processFlags) ([]string, error) {
	out := cmd.OutOrStdout()

	set := liveset.New(setPath, logger)
	if err := set.Load(); err != nil {
		return nil, err
	}
	version, err := set.DetectVersion()
	if err != nil {
		return nil, err
	}

	var notes []string

	if flags.listTracks {
		if err := printTracks(out, set); err != nil {
			return nil, err
		}
	}

	switch {
	case flags.fold:
		if err := set.FoldAll(); err != nil {
			return nil, err
		}
		notes = append(notes, "folded")
	case flags.unfold:
		if err := set.UnfoldAll(); err != nil {
			return nil, err
		}
		notes = append(notes, "unfolded")
	}

	if flags.trackHeights > 0 {
		applied, err := set.SetTrackHeights(flags.trackHeights)
		if err != nil {
			return nil, err
		}
		notes = append(notes, fmt.Sprintf("heights=%d", applied))
	}
	if flags.trackWidths > 0 {
		applied, err := set.SetTrackWidths(flags.trackWidths)
		if err != nil {
			return nil, err
		}
		notes = append(notes, fmt.Sprintf("widths=%d", applied))
	}
	if flags.masterOut > 0 {
		if err := set.SetAudioOutput(flags.masterOut, liveset.MasterTrack); err != nil {
			return nil, err
		}
		notes = append(notes, fmt.Sprintf("master-out=%d", flags.masterOut))
	}
	if flags.cueOut > 0 {
		if err := set.SetAudioOutput(flags.cueOut, liveset.CueTrack); err != nil {
			return nil, err
		}
		notes = append(notes, fmt.Sprintf("cue-out=%d", flags.cueOut))
	}

	if flags.checkPlugins {
		if err := printPlugins(out, set); err != nil {
			return nil, err
		}
	}

	if flags.checkSamples {
		report, err := reconcile.New(nil, logger).Check(set)
		if err != nil {
			return nil, err
		}
		printCheckReport(out, set, report)
		notes = append(notes, fmt.Sprintf("missing=%d", report.Missing))
	}

	if flags.fixing() {
		result, err := engine.Fix(set, reconcile.Options{
			Collect:    flags.fixCollect,
			Force:      flags.force,
			CollectDir: cfg.Paths.CollectDir,
		})
		if err != nil {
			return nil, err
		}
		notes = append(notes, fmt.Sprintf("fixed=%d/%d", result.Fixed, result.Missing))
		for _, name := range result.UnfixedNames {
			fmt.Fprintf(out, "could not fix: %s\n", name)
		}
	}

	tempoCell := ""
	if tempo, err := set.Tempo(); err == nil {
		tempoCell = strconv.FormatFloat(tempo, 'f', -1, 64)
	}
	barsCell := ""
	if bars, err := set.FurthestBar(); err == nil {
		barsCell = strconv.Itoa(bars)
	}

	if flags.xml {
		xmlPath, err := set.SaveXML(cfg.Paths.BackupDirName)
		if err != nil {
			return nil, err
		}
		notes = append(notes, "xml="+shortName(xmlPath))
	}
	if flags.save {
		saved, err := set.Save(liveset.SaveOptions{
			BackupDirName:  cfg.Paths.BackupDirName,
			AppendBarsBPM:  flags.appendBarsBPM,
			PrependVersion: flags.prependVersion,
		})
		if err != nil {
			return nil, err
		}
		notes = append(notes, "saved="+shortName(saved))
	}

	result := "inspected"
	if len(notes) > 0 {
		result = strings.Join(notes, ", ")
	}
	return []string{shortName(setPath), version.String(), tempoCell, barsCell, result}, nil
}

func printTracks(out io.Writer, set *liveset.Set) error {
	tracks, err := set.Tracks()
	if err != nil {
		return err
	}
	rows := make([][]string, 0, len(tracks))
	for _, track := range tracks {
		rows = append(rows, []string{
			track.Type(),
			track.ID(),
			track.Name(),
			track.GroupID(),
			strconv.Itoa(track.Color()),
			track.Width(),
			track.Height(),
			track.Unfolded(),
		})
	}
	printTable(out,
		[]tableColumn{col("Type"), numCol("Id"), col("Name"), numCol("Group"), numCol("Color"), numCol("Width"), numCol("Height"), col("Unfolded")},
		rows)
	return nil
}

func printPlugins(out io.Writer, set *liveset.Set) error {
	plugins, err := set.Plugins()
	if err != nil {
		return err
	}
	rows := make([][]string, 0, len(plugins))
	for _, plugin := range plugins {
		exists := yesNo(plugin.Exists)
		if plugin.Unverifiable {
			exists = "unverifiable"
		}
		rows = append(rows, []string{plugin.Name, plugin.Path, exists})
	}
	printTable(out, []tableColumn{col("Plugin"), col("Path"), col("Exists")}, rows)
	return nil
}

func printCheckReport(out io.Writer, set *liveset.Set, report *reconcile.CheckReport) {
	fmt.Fprintf(out, "%s: %d sample references, %d missing\n", set.Name(), report.Total, report.Missing)
	for _, path := range report.MissingAbsolute {
		fmt.Fprintf(out, "  missing absolute: %s\n", path)
	}
	for _, path := range report.MissingRelative {
		fmt.Fprintf(out, "  missing relative: %s\n", path)
	}
}

// shortRunID tags every log line of one invocation so interleaved runs over
// the same project stay distinguishable.
func shortRunID() string {
	return uuid.NewString()[:8]
}

func shortName(path string) string {
	if i := strings.LastIndexAny(path, `/\`); i >= 0 {
		return path[i+1:]
	}
	return path
}
