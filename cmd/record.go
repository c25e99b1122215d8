package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/trackinspect/pkrec/internal/kinematics"
	"github.com/trackinspect/pkrec/internal/sensor"
	"github.com/trackinspect/pkrec/internal/session"
)

var recordOpts struct {
	track         string
	position      string
	direction     string
	alert         float64
	intervention  float64
	immediate     float64
	operator      string
	line          string
	train         string
	engine        string
	trainPosition string
	note          string
	input         string
	follow        bool
	port          string
	baud          int
	analyze       bool
}

var recordCmd = &cobra.Command{
	Use:   "record",
	Short: "Record a run from a sensor stream until it ends or is interrupted",
	Long: `Record a run from a JSON-lines sensor stream.

Each line is either a motion event or a position fix:
  {"type":"motion","t":1700000000000,"x":0.12,"y":-1.3,"z":9.79}
  {"type":"fix","t":1700000000100,"speed":22.4,"accuracy":4.5}

The stream is read from --input (a file, or - for stdin), from a file that is
still being written (--follow), or from a serial sensor bridge (--port).
Recording stops at end of input or on Ctrl-C, and the run is saved to history.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()

		events, err := openEvents()
		if err != nil {
			return err
		}
		store, closeStore, err := openHistory(events)
		if err != nil {
			return err
		}
		defer closeStore()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		src, closer, err := openSource(ctx, cmd.InOrStdin())
		if err != nil {
			return err
		}
		defer closer.Close()

		speed := &session.SpeedCell{}
		rec := session.NewRecorder(speed,
			session.WithSink(store.Append),
			session.WithEventLog(events),
		)
		if err := rec.Start(startRequest()); err != nil {
			return err
		}

		fmt.Fprintf(out, "● Recording on track %s from PK %.3f. Press Ctrl-C to stop.\n",
			recordTrack(), rec.Position())

		loop := sensor.NewLoop(rec, speed, events)
		record, runErr := loop.Run(ctx, src)
		if record == nil {
			return runErr
		}

		printRecordSummary(out, record, loop.Counters())
		if runErr != nil {
			return runErr
		}

		if recordOpts.analyze {
			analyzeAndReport(cmd.Context(), out, store, record.ID, events)
		}
		return nil
	},
}

func recordTrack() string {
	if recordOpts.track != "" {
		return recordOpts.track
	}
	if p := GetProfile(); p != nil {
		return p.DefaultTrack
	}
	return ""
}

// startRequest combines flags, profile and config. Flags win.
func startRequest() session.StartRequest {
	prof := GetProfile()

	dir := kinematics.Direction(recordOpts.direction)
	if dir == "" && prof != nil {
		dir = prof.DefaultDirection
	}

	t := GetConfig().Limits()
	if recordOpts.alert > 0 {
		t.Alert = recordOpts.alert
	}
	if recordOpts.intervention > 0 {
		t.Intervention = recordOpts.intervention
	}
	if recordOpts.immediate > 0 {
		t.Immediate = recordOpts.immediate
	}

	meta := prof.Metadata()
	override := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	override(&meta.Operator, recordOpts.operator)
	override(&meta.Line, recordOpts.line)
	override(&meta.Train, recordOpts.train)
	override(&meta.EngineNumber, recordOpts.engine)
	override(&meta.TrainPosition, recordOpts.trainPosition)
	override(&meta.Note, recordOpts.note)

	return session.StartRequest{
		Track:         recordTrack(),
		StartPosition: recordOpts.position,
		Direction:     dir,
		Thresholds:    t,
		Metadata:      meta,
	}
}

// openSource picks the line source from --port, --follow and --input.
func openSource(ctx context.Context, stdin io.Reader) (sensor.LineSource, io.Closer, error) {
	switch {
	case recordOpts.port != "":
		opts := GetConfig().Serial
		if recordOpts.baud > 0 {
			opts.BaudRate = recordOpts.baud
		}
		mux, err := sensor.OpenSerial(recordOpts.port, opts)
		if err != nil {
			return nil, nil, err
		}
		return mux, mux, nil

	case recordOpts.input == "" || recordOpts.input == "-":
		if recordOpts.follow {
			return nil, nil, errors.New("--follow needs a file path in --input")
		}
		mux := sensor.NewMux(io.NopCloser(stdin))
		return mux, mux, nil

	case recordOpts.follow:
		r, err := sensor.OpenFollow(ctx, recordOpts.input)
		if err != nil {
			return nil, nil, err
		}
		mux := sensor.NewMux(r)
		return mux, mux, nil

	default:
		f, err := os.Open(recordOpts.input)
		if err != nil {
			if os.IsNotExist(err) {
				return nil, nil, fmt.Errorf("file not found: %s", recordOpts.input)
			}
			return nil, nil, err
		}
		mux := sensor.NewMux(f)
		return mux, mux, nil
	}
}

func printRecordSummary(w io.Writer, rec *session.SessionRecord, c sensor.Counters) {
	s := rec.Stats
	fmt.Fprintf(w, "✓ Session %s saved (%s)\n", rec.ID, rec.Date)
	fmt.Fprintf(w, "  Track:          %s (%s)\n", s.Track, s.Direction)
	end := s.StartPosition
	if n := len(rec.Samples); n > 0 {
		end = rec.Samples[n-1].PositionOrZero()
	}
	fmt.Fprintf(w, "  PK:             %.3f → %.3f\n", s.StartPosition, end)
	fmt.Fprintf(w, "  Duration:       %.0f s, %d samples\n", s.Duration, len(rec.Samples))
	fmt.Fprintf(w, "  Max vertical:   %.3f m/s²\n", s.MaxVertical)
	fmt.Fprintf(w, "  Max transversal:%.3f m/s²\n", s.MaxTransversal)
	fmt.Fprintf(w, "  LA / LI / LAI:  %d / %d / %d\n", s.CountAlert, s.CountIntervention, s.CountImmediate)
	if c.Dropped > 0 || c.Malformed > 0 {
		fmt.Fprintf(w, "  Skipped:        %d incomplete, %d unreadable lines\n", c.Dropped, c.Malformed)
	}
}

func init() {
	f := recordCmd.Flags()
	f.StringVarP(&recordOpts.track, "track", "t", "", "track identifier (defaults to the profile's track)")
	f.StringVar(&recordOpts.position, "pk", "", "starting PK in km, e.g. 175.100 or 175,100 (required)")
	f.StringVarP(&recordOpts.direction, "direction", "d", "", "PK direction: increasing or decreasing")
	f.Float64Var(&recordOpts.alert, "alert", 0, "LA threshold in m/s² (overrides config)")
	f.Float64Var(&recordOpts.intervention, "intervention", 0, "LI threshold in m/s² (overrides config)")
	f.Float64Var(&recordOpts.immediate, "immediate", 0, "LAI threshold in m/s² (overrides config)")
	f.StringVar(&recordOpts.operator, "operator", "", "operator name")
	f.StringVar(&recordOpts.line, "line", "", "line name")
	f.StringVar(&recordOpts.train, "train", "", "train identifier")
	f.StringVar(&recordOpts.engine, "engine", "", "engine number")
	f.StringVar(&recordOpts.trainPosition, "train-position", "", "position of the device in the train")
	f.StringVarP(&recordOpts.note, "note", "n", "", "free-text note")
	f.StringVarP(&recordOpts.input, "input", "i", "-", "sensor stream file, or - for stdin")
	f.BoolVarP(&recordOpts.follow, "follow", "f", false, "keep reading --input as it grows")
	f.StringVarP(&recordOpts.port, "port", "p", "", "serial device of a sensor bridge, e.g. /dev/ttyUSB0")
	f.IntVar(&recordOpts.baud, "baud", 0, "serial baud rate (overrides config)")
	f.BoolVar(&recordOpts.analyze, "analyze", false, "send the finished run for analysis")
	rootCmd.AddCommand(recordCmd)
}
