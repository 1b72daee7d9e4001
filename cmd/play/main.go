package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gen2brain/alsaout"
	"github.com/gen2brain/alsaout/decoder"
	"github.com/gen2brain/alsaout/internal/config"
	"github.com/gen2brain/alsaout/internal/logger"
	"github.com/gen2brain/alsaout/resample"
)

func main() {
	var (
		configPath string
		device     string
		resampler  string
		logLevel   string
		volume     int
		seek       int
	)

	flag.StringVar(&configPath, "config", "", "The configuration file (YAML, TOML or JSON)")
	flag.StringVar(&device, "device", "", "The output device, e.g. hw:0,0 or hw:PCH,0 (overrides the config)")
	flag.StringVar(&resampler, "resampler", "", "The resampler backend: basic, lowlatency or hq (overrides the config)")
	flag.StringVar(&logLevel, "loglevel", "", "The log level: none, error, warn, info or debug (overrides the config)")
	flag.IntVar(&volume, "volume", -1, "Set the mixer volume in percent before playing (-1 = leave unchanged)")
	flag.IntVar(&seek, "seek", 0, "Start every file at this position in seconds")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [options] <file>...\n", os.Args[0])
		fmt.Fprintln(os.Stderr, "\nOptions:")
		for _, name := range []string{"config", "device", "resampler", "loglevel", "volume", "seek"} {
			f := flag.Lookup(name)
			if f != nil {
				fmt.Fprintf(os.Stderr, "  --%s\n    \t%v (default %q)\n", f.Name, f.Usage, f.DefValue)
			}
		}
		fmt.Fprintf(os.Stderr, "\nSupported file types: %v\n", decoder.Extensions())
	}

	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(1)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	if device != "" {
		cfg.Device = device
	}

	if resampler != "" {
		cfg.Resampler.Backend = resample.Backend(resampler)
	}

	if logLevel != "" {
		cfg.LogLevel = logLevel
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error in configuration: %v\n", err)
		os.Exit(1)
	}

	logFile, err := logger.Configure(cfg.LogLevel, cfg.LogFile, slog.HandlerOptions{})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error configuring logger: %v\n", err)
		os.Exit(1)
	}

	if logFile != nil {
		defer logFile.Close()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, flag.Args(), volume, seek); err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, files []string, volume, seek int) error {
	sink := alsaout.NewSink(cfg.SinkOptions())

	caps, err := sink.Init()
	if err != nil {
		return err
	}

	defer func() {
		if err := sink.Shutdown(); err != nil {
			slog.Warn("can't close mixer", "err", err)
		}
	}()

	fmt.Printf("ALSA device: %s\n", cfg.Device)
	fmt.Print(caps)

	if name := sink.MixerChannelName(); name != "" {
		if volume >= 0 {
			sink.SetMixer(volume)
		}

		fmt.Printf("Mixer: %s %d%%\n", name, sink.ReadMixer())
	}

	p := newPlayer(sink, caps, cfg.ConvertOptions())
	defer p.close()

	for _, path := range files {
		if err := p.play(ctx, path, seek); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, alsaout.ErrHardwareFault) {
				return err
			}

			fmt.Fprintf(os.Stderr, "Error playing %s: %v\n", path, err)
		}
	}

	return nil
}

func printTrack(path string, d decoder.Decoder) {
	fmt.Printf("Playing: %s\n", path)

	if dur := d.Duration(); dur > 0 {
		fmt.Printf("Duration: %v", time.Duration(dur)*time.Second)
		if br := d.Bitrate(); br > 0 {
			fmt.Printf(", %d kbps", br)
		}

		fmt.Println()
	}
}
