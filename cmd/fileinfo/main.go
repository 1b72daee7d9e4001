package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/gen2brain/alsaout/decoder"
)

func main() {
	var help bool
	flag.BoolVar(&help, "help", false, "Show this help message")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [options] <file>...\n", os.Args[0])
		fmt.Fprintln(os.Stderr, "\nOptions:")
		fmt.Fprintln(os.Stderr, "  --help      Show this help message")
		fmt.Fprintf(os.Stderr, "\nSupported file types: %v\n", decoder.Extensions())
	}

	flag.Parse()

	if help || flag.NArg() == 0 {
		flag.Usage()
		os.Exit(1)
	}

	failed := false
	for _, path := range flag.Args() {
		if err := printInfo(path); err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", path, err)
			failed = true
		}
	}

	if failed {
		os.Exit(1)
	}
}

func printInfo(path string) error {
	d, err := decoder.Open(path)
	if err != nil {
		return err
	}
	defer d.Close()

	// Stream parameters are only known once data has been decoded.
	buf := make([]byte, 64*1024)
	n, params, err := d.Decode(buf)
	if err != nil && !errors.Is(err, io.EOF) {
		return err
	}

	fmt.Printf("Filename:           %s\n", path)
	fmt.Printf("Format:             %v\n", params.Format)
	fmt.Printf("Channels:           %d\n", params.Channels)
	fmt.Printf("Sample Rate:        %d Hz\n", params.Rate)
	fmt.Printf("Duration:           %v\n", time.Duration(d.Duration())*time.Second)

	if br := d.Bitrate(); br > 0 {
		fmt.Printf("Bitrate:            %d kbps\n", br)
	} else {
		fmt.Printf("Bitrate:            unknown\n")
	}

	if n == 0 {
		fmt.Printf("Empty stream\n")
	}

	fmt.Println()

	return nil
}
