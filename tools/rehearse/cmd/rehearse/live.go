package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"
	"golang.org/x/sync/errgroup"

	"github.com/AltairaLabs/rehearsal/pkg/config"
	"github.com/AltairaLabs/rehearsal/runtime/capture"
	"github.com/AltairaLabs/rehearsal/runtime/credentials"
	"github.com/AltairaLabs/rehearsal/runtime/events"
	"github.com/AltairaLabs/rehearsal/runtime/logger"
	metrics "github.com/AltairaLabs/rehearsal/runtime/metrics/prometheus"
	"github.com/AltairaLabs/rehearsal/runtime/playback"
	"github.com/AltairaLabs/rehearsal/runtime/report"
	"github.com/AltairaLabs/rehearsal/runtime/session"
	"github.com/AltairaLabs/rehearsal/runtime/telemetry"
	"github.com/AltairaLabs/rehearsal/tools/rehearse/sources"
)

// reportTimeout bounds report generation, which runs after the session
// context may already be canceled.
const reportTimeout = 2 * time.Minute

type liveOptions struct {
	config        string
	audio         string
	frames        string
	out           string
	report        string
	opening       string
	metricsAddr   string
	otlpEndpoint  string
	duration      time.Duration
	linger        time.Duration
	showUtterance bool
	device        bool
	verbose       bool
}

var liveOpts liveOptions

var liveCmd = &cobra.Command{
	Use:   "live",
	Short: "Run one live coaching session",
	Long: `Runs one live coaching session described by a SessionConfig manifest.

The session ends when the audio file (plus --linger of silence) has been
sent, when --duration elapses, on Ctrl-C, or when the connection drops.
A report is then generated unless the manifest disables it.

Examples:
  rehearse live --config pitch.yaml --audio pitch.wav --out coach.wav
  rehearse live --config interview.yaml --audio answer.wav --frames ./cam --report report.json
  rehearse live --config pitch.yaml --audio pitch.wav --metrics-addr :9090`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		liveOpts.verbose, _ = cmd.Flags().GetBool("verbose")
		return liveOpts.run(cmd.Context(), cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(liveCmd)
	f := liveCmd.Flags()
	f.StringVarP(&liveOpts.config, "config", "c", "", "SessionConfig manifest (required)")
	f.StringVar(&liveOpts.audio, "audio", "", "WAV file to use as the microphone")
	f.StringVar(&liveOpts.frames, "frames", "", "Directory of JPEG/PNG images to use as the camera")
	f.StringVar(&liveOpts.out, "out", "", "Write the coach's voice to this WAV file")
	f.StringVar(&liveOpts.report, "report", "", "Write the report as JSON to this file instead of printing it")
	f.StringVar(&liveOpts.opening, "opening", "", "Text turn sent once the session opens")
	f.StringVar(&liveOpts.metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address")
	f.StringVar(&liveOpts.otlpEndpoint, "otlp-endpoint", "", "Export traces to this OTLP/HTTP endpoint")
	f.DurationVar(&liveOpts.duration, "duration", 0, "Stop after this long (0 = no limit)")
	f.DurationVar(&liveOpts.linger, "linger", sources.DefaultTrailingSilence, "Silence sent after the audio file")
	f.BoolVar(&liveOpts.showUtterance, "show-utterance", false, "Print the coach's live utterance")
	_ = liveCmd.MarkFlagRequired("config")
}

// deviceIO is the microphone and speaker pair of a portaudio build.
type deviceIO struct {
	audio   capture.AudioSource
	capture func(context.Context) error
	play    func(context.Context) error
	close   func() error
}

// liveMedia is what feeds and drains a session for one run.
type liveMedia struct {
	audio    capture.AudioSource
	video    capture.VideoSource
	feed     func(context.Context) error
	play     func(context.Context) error
	close    func() error
	recorder *sources.Recorder
}

func (o *liveOptions) validate() error {
	switch {
	case o.audio == "" && !o.device:
		return errors.New("one of --audio or --device is required")
	case o.audio != "" && o.device:
		return errors.New("--audio and --device are mutually exclusive")
	case o.out != "" && o.device:
		return errors.New("--out records file sessions only")
	}
	return nil
}

func (o *liveOptions) run(parent context.Context, out io.Writer) error {
	if err := o.validate(); err != nil {
		return err
	}
	out = &syncWriter{w: out}
	cfg, err := config.LoadSessionConfig(o.config)
	if err != nil {
		return err
	}
	if err := logger.Configure(cfg.Spec.Logging.LoggerSpec()); err != nil {
		return fmt.Errorf("invalid logging config: %w", err)
	}
	if o.verbose {
		logger.SetVerbose(true)
	}

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cred, err := credentials.Resolve(ctx, credentials.ResolverConfig{
		CredentialConfig: &cfg.Spec.Credential,
		ConfigDir:        cfg.ConfigDir,
	})
	if err != nil {
		return fmt.Errorf("failed to resolve credential: %w", err)
	}

	bus := events.NewEventBus()
	defer bus.Close()
	con := newConsole(out, o.showUtterance)
	bus.SubscribeAll(con.handle)
	bus.SubscribeAll(metrics.NewMetricsListener().Listener())

	shutdownTracing, err := o.setupTracing(ctx, cfg, bus)
	if err != nil {
		return err
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			logger.Warn("failed to flush traces", "error", err)
		}
	}()

	renderer := playback.NewRenderer(playback.OutputSampleRate)
	m, err := o.openMedia(renderer)
	if err != nil {
		return err
	}
	defer func() { _ = m.close() }()

	sess := session.New(sessionConfig(cfg, cred, sessionMedia{
		audio:  m.audio,
		video:  m.video,
		output: renderer,
		bus:    bus,
	}))
	logger.Info("starting session", "session_id", sess.ID(), "name", cfg.Metadata.Name, "model", cfg.Spec.Model)

	runErr := o.runSession(ctx, sess, m, con)
	sess.Disconnect()
	if sess.Phase() == session.PhaseError && runErr == nil {
		runErr = sess.Err()
	}

	if o.out != "" && m.recorder != nil {
		if err := m.recorder.WriteFile(o.out); err != nil {
			return err
		}
		fmt.Fprintf(out, "🔊 wrote %s (%s)\n", o.out, m.recorder.Duration().Round(time.Millisecond))
	}

	if !cfg.Spec.Report.Disabled {
		if err := o.writeReport(parent, sess, out); err != nil {
			logger.Error("report failed", "error", err)
			if runErr == nil {
				runErr = err
			}
		}
	}
	return runErr
}

// runSession connects and runs the media until the audio ends, the
// duration elapses, ctx is canceled or the connection ends.
func (o *liveOptions) runSession(ctx context.Context, sess *session.Session, m *liveMedia, con *console) error {
	if o.duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.duration)
		defer cancel()
	}
	runCtx, end := context.WithCancel(ctx)
	defer end()
	g, gctx := errgroup.WithContext(runCtx)

	if o.metricsAddr != "" {
		exporter := metrics.NewExporter(o.metricsAddr)
		g.Go(func() error { return exporter.Serve(gctx) })
	}
	g.Go(func() error { return m.play(gctx) })

	if err := sess.Connect(gctx); err != nil {
		end()
		_ = g.Wait()
		return err
	}

	g.Go(func() error {
		defer end()
		if err := m.feed(gctx); err != nil && gctx.Err() == nil {
			return err
		}
		return nil
	})
	g.Go(func() error {
		defer end()
		_ = sess.Wait(gctx)
		return nil
	})
	if o.opening != "" {
		g.Go(func() error {
			select {
			case <-con.Opened():
				if err := sess.SendText(gctx, o.opening); err != nil {
					logger.Warn("failed to send opening turn", "error", err)
				}
			case <-gctx.Done():
			}
			return nil
		})
	}
	return g.Wait()
}

func (o *liveOptions) openMedia(r *playback.Renderer) (*liveMedia, error) {
	m := &liveMedia{close: func() error { return nil }}
	if o.frames != "" {
		frames, err := sources.LoadFrameDir(o.frames)
		if err != nil {
			return nil, err
		}
		logger.Debug("loaded frames", "dir", o.frames, "count", frames.Len())
		m.video = frames
	}

	if o.device {
		dev, err := openDevices(r)
		if err != nil {
			return nil, err
		}
		m.audio, m.feed, m.play, m.close = dev.audio, dev.capture, dev.play, dev.close
		return m, nil
	}

	linger := o.linger
	if linger == 0 {
		linger = -1
	}
	src, err := sources.OpenWAV(o.audio, sources.WAVOptions{TrailingSilence: linger})
	if err != nil {
		return nil, err
	}
	logger.Debug("loaded audio", "file", o.audio, "duration", src.Duration())
	m.audio, m.feed = src, src.Run
	m.recorder = sources.NewRecorder(r, r.Format())
	m.play = func(ctx context.Context) error { return m.recorder.Run(ctx, 0) }
	return m, nil
}

// setupTracing installs an OTLP tracer provider when an endpoint is set and
// subscribes the span listener. The returned function flushes it.
func (o *liveOptions) setupTracing(ctx context.Context, cfg *config.SessionConfig, bus *events.EventBus) (func(context.Context) error, error) {
	endpoint := o.otlpEndpoint
	if endpoint == "" {
		endpoint = cfg.Spec.Telemetry.OTLPEndpoint
	}
	if endpoint == "" {
		return func(context.Context) error { return nil }, nil
	}

	tp, err := telemetry.NewTracerProvider(ctx, endpoint, cfg.Spec.Telemetry.ServiceName)
	if err != nil {
		return nil, fmt.Errorf("failed to create tracer provider: %w", err)
	}
	otel.SetTracerProvider(tp)
	telemetry.SetupPropagation()
	bus.SubscribeAll(telemetry.NewOTelEventListener(telemetry.Tracer(tp)).Listener())
	return tp.Shutdown, nil
}

func (o *liveOptions) writeReport(parent context.Context, sess *session.Session, out io.Writer) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(parent), reportTimeout)
	defer cancel()

	fmt.Fprintln(out, "📝 generating report...")
	rep, err := sess.GenerateReport(ctx)
	if err != nil {
		return err
	}
	if rep == nil {
		fmt.Fprintln(out, "nothing was said, no report")
		return nil
	}

	if o.report != "" {
		data, err := json.MarshalIndent(rep, "", "  ")
		if err != nil {
			return err
		}
		if err := os.WriteFile(o.report, append(data, '\n'), 0o600); err != nil {
			return fmt.Errorf("failed to write report: %w", err)
		}
		fmt.Fprintf(out, "📝 wrote %s\n", o.report)
		return nil
	}
	printReport(out, rep)
	return nil
}

func printReport(w io.Writer, rep *report.Report) {
	fmt.Fprintf(w, "\nScore: %.0f/100\n%s\n", rep.Score, rep.Summary)
	if rep.VideoDescription != "" {
		fmt.Fprintf(w, "\nOn camera: %s\n", rep.VideoDescription)
	}
	if len(rep.Strengths) > 0 {
		fmt.Fprintln(w, "\nStrengths:")
		for _, s := range rep.Strengths {
			fmt.Fprintf(w, "  + %s\n", s)
		}
	}
	if len(rep.Tips) > 0 {
		fmt.Fprintln(w, "\nTips:")
		for _, t := range rep.Tips {
			fmt.Fprintf(w, "  - %s\n", t)
		}
	}
}
