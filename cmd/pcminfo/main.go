package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/gen2brain/alsaout"
	"github.com/gen2brain/alsaout/alsa"
)

func main() {
	var (
		device  string
		cards   bool
		verbose bool
	)

	flag.StringVar(&device, "device", "hw:0,0", "The playback device (hw:C,D, hw:CARDNAME,D or default).")
	flag.BoolVar(&cards, "cards", false, "List the sound cards and their PCM devices.")
	flag.BoolVar(&verbose, "verbose", false, "Also print the raw hardware parameter space.")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		fmt.Fprintln(os.Stderr, "Displays what an ALSA playback device accepts.")
		fmt.Fprintln(os.Stderr, "\nOptions:")
		flag.PrintDefaults()
	}

	flag.Parse()

	if cards {
		list, err := alsa.EnumerateCards()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error enumerating cards: %v\n", err)
			os.Exit(1)
		}

		for _, c := range list {
			fmt.Print(c)
		}

		return
	}

	caps, err := alsaout.QueryCaps(device)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error querying %s: %v\n", device, err)
		os.Exit(1)
	}

	fmt.Printf("PCM %s, playback:\n", device)
	fmt.Print(caps)

	if !verbose {
		return
	}

	card, dev, err := alsa.ParseName(device)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	params, err := alsa.PcmParamsGetRefined(card, dev, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error getting PCM parameters: %v\n", err)
		os.Exit(1)
	}

	fmt.Println()
	fmt.Println(params)
}
