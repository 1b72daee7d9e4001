package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/gen2brain/alsaout"
	"github.com/gen2brain/alsaout/convert"
	"github.com/gen2brain/alsaout/decoder"
	"github.com/gen2brain/alsaout/format"
)

// Size of one decode call.
const chunkSize = 64 * 1024

// player feeds decoded audio to the sink, reopening the sink and converter whenever
// the decoded stream parameters change.
type player struct {
	sink *alsaout.Sink
	caps format.Caps
	opts convert.Options

	src  format.StreamParams
	conv *convert.Converter
	buf  []byte
}

func newPlayer(sink *alsaout.Sink, caps format.Caps, opts convert.Options) *player {
	return &player{sink: sink, caps: caps, opts: opts, buf: make([]byte, chunkSize)}
}

func (p *player) play(ctx context.Context, path string, seek int) error {
	d, err := decoder.Open(path)
	if err != nil {
		return err
	}
	defer d.Close()

	printTrack(path, d)

	if seek > 0 {
		if err := p.seek(d, seek); err != nil {
			return err
		}
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		n, params, err := d.Decode(p.buf)
		if errors.Is(err, io.EOF) {
			return nil
		}

		if err != nil {
			return err
		}

		if p.sink.State() != alsaout.StateOpen || !params.Equal(p.src) {
			if err := p.reconfigure(params); err != nil {
				return err
			}
		}

		out := p.buf[:n]
		if p.conv != nil {
			out = p.conv.Convert(out)
		}

		if _, err := p.sink.Play(out); err != nil {
			return err
		}
	}
}

// seek moves d to seconds and discards what the converter and the sink hold for the old position.
// A stream that can't seek keeps playing from where it is.
func (p *player) seek(d decoder.Decoder, seconds int) error {
	if _, err := d.Seek(seconds); err != nil {
		slog.Warn("can't seek", "seconds", seconds, "err", err)

		return nil
	}

	if p.conv != nil {
		p.conv.Reset()
	}

	if p.sink.State() == alsaout.StateOpen {
		return p.sink.Reset()
	}

	return nil
}

func (p *player) reconfigure(src format.StreamParams) error {
	p.close()

	dst := outputParams(p.caps, src, p.opts.ChangeChannels)
	if err := p.sink.Open(dst); err != nil {
		return err
	}

	dst.Rate = p.sink.Rate()
	p.src = src

	if dst.Equal(src) {
		slog.Debug("no conversion needed", "params", src.String())

		return nil
	}

	conv, err := convert.New(src, dst, p.opts)
	if err != nil {
		_ = p.sink.Close()

		return fmt.Errorf("can't play %v on %v: %w", src, dst, err)
	}

	p.conv = conv
	slog.Info("converting", "from", src.String(), "to", dst.String())

	return nil
}

func (p *player) close() {
	if p.conv != nil {
		_ = p.conv.Close()
		p.conv = nil
	}

	if err := p.sink.Close(); err != nil {
		slog.Warn("can't close device", "err", err)
	}
}

// outputParams picks what to open the device with for a decoded stream: the source format if
// the device takes it, else S16, else the first supported format; stereo for mono and 5.1 sources
// the device can't take; the closest supported rate.
func outputParams(caps format.Caps, src format.StreamParams, changeChannels bool) format.StreamParams {
	dst := src

	switch {
	case caps.SupportsFormat(src.Format):
	case caps.SupportsFormat(format.S16):
		dst.Format = format.S16
	case len(caps.Formats) > 0:
		dst.Format = caps.Formats[0]
	}

	if changeChannels && !caps.SupportsChannels(src.Channels) && (src.Channels == 1 || src.Channels == 6) {
		dst.Channels = 2
	}

	dst.Rate = caps.ClampRate(src.Rate)

	return dst
}
