package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/gen2brain/alsaout"
	"github.com/gen2brain/alsaout/alsa"
	"github.com/gen2brain/alsaout/internal/logger"
)

func main() {
	var (
		device   string
		list     bool
		percent  bool
		logLevel string
	)

	flag.StringVar(&device, "device", "hw:0,0", "The device whose card mixer to use.")
	flag.BoolVar(&list, "list", false, "List control names only.")
	flag.BoolVar(&percent, "percent", false, "Show and set the control in percent, using its volume law.")
	flag.StringVar(&logLevel, "loglevel", "none", "The log level: none, error, warn, info or debug.")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [options] [control] [value...]\n", os.Args[0])
		fmt.Fprintln(os.Stderr, "\nOptions:")
		for _, name := range []string{"device", "list", "percent", "loglevel"} {
			f := flag.Lookup(name)
			if f != nil {
				fmt.Fprintf(os.Stderr, "  --%s\n    \t%v (default %q)\n", f.Name, f.Usage, f.DefValue)
			}
		}
		fmt.Fprintln(os.Stderr, "\nTo set a control, provide the control name or ID and the desired value(s).")
		fmt.Fprintln(os.Stderr, "If no control is specified, all controls and their values are listed.")
	}

	flag.Parse()

	if _, err := logger.Configure(logLevel, "", slog.HandlerOptions{}); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	args := flag.Args()

	if percent {
		if len(args) == 0 {
			fmt.Fprintln(os.Stderr, "Error: -percent needs a control name")
			os.Exit(1)
		}

		if err := percentControl(device, args[0], args[1:]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		return
	}

	card, _, err := alsa.ParseName(device)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	mixer, err := alsa.MixerOpen(card)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening mixer for card %d: %v\n", card, err)
		os.Exit(1)
	}
	defer mixer.Close()

	if list || len(args) == 0 {
		printAllControls(mixer, list)

		return
	}

	ctl, err := findControl(mixer, args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if len(args) == 1 {
		printControl(ctl, false)

		return
	}

	if err := setControlValue(ctl, args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error setting value for control '%s': %v\n", ctl.Name(), err)
		os.Exit(1)
	}

	fmt.Printf("Set control '%s' successfully.\n", ctl.Name())
	printControl(ctl, false)
}

// percentControl reads or sets a volume through the same controller the player uses.
func percentControl(device, name string, values []string) error {
	m := alsaout.OpenMixer(device, name, "")
	defer m.Close()

	c := m.Current()
	if c == nil {
		return fmt.Errorf("no usable volume control '%s' on %s", name, device)
	}

	if len(values) > 0 {
		p, err := strconv.Atoi(strings.TrimSuffix(values[0], "%"))
		if err != nil {
			return fmt.Errorf("invalid percentage value '%s'", values[0])
		}

		m.Set(p)
	}

	lo, hi := c.Bounds()
	unit := ""
	if c.Law() == alsaout.LawPerceptual {
		unit = " (1/100 dB)"
	}

	fmt.Printf("%s: %d%% [%s law, range %d - %d%s]\n", c.Name(), m.Read(), c.Law(), lo, hi, unit)

	return nil
}

// findControl resolves a numeric ID or a control name.
func findControl(mixer *alsa.Mixer, identifier string) (*alsa.MixerCtl, error) {
	if id, err := strconv.ParseUint(identifier, 10, 32); err == nil {
		ctl, err := mixer.Ctl(uint32(id))
		if err != nil {
			return nil, fmt.Errorf("cannot find control with ID %d: %w", id, err)
		}

		return ctl, nil
	}

	ctl, err := mixer.CtlByName(identifier)
	if err != nil {
		return nil, fmt.Errorf("cannot find control with name '%s': %w", identifier, err)
	}

	return ctl, nil
}

// printAllControls lists all available mixer controls and optionally their values.
func printAllControls(mixer *alsa.Mixer, listOnly bool) {
	fmt.Printf("Mixer card '%s' has %d controls.\n", mixer.Name(), mixer.NumCtls())
	fmt.Println("---------------------------------------")

	for _, ctl := range mixer.Ctls {
		printControl(ctl, listOnly)
	}
}

// printControl prints detailed information about a single mixer control.
func printControl(ctl *alsa.MixerCtl, listOnly bool) {
	if listOnly {
		fmt.Printf("%d: %s\n", ctl.ID(), ctl.Name())

		return
	}

	fmt.Printf("%d: %s (%s, %d values)\n", ctl.ID(), ctl.Name(), ctl.TypeString(), ctl.NumValues())

	switch ctl.Type() {
	case alsa.SNDRV_CTL_ELEM_TYPE_INTEGER:
		printIntegerControl(ctl)
	case alsa.SNDRV_CTL_ELEM_TYPE_BOOLEAN:
		printBooleanControl(ctl)
	default:
		fmt.Println("  Value: <unsupported type>")
	}

	fmt.Println()
}

func printIntegerControl(ctl *alsa.MixerCtl) {
	minVal, errMin := ctl.RangeMin()
	maxVal, errMax := ctl.RangeMax()
	if errMin == nil && errMax == nil {
		fmt.Printf("  Range: %d - %d\n", minVal, maxVal)
	}

	if ctl.HasDB() {
		if minDB, maxDB, err := ctl.DBRange(); err == nil {
			fmt.Printf("  dB range: %.2f - %.2f dB\n", float64(minDB)/100, float64(maxDB)/100)
		}
	}

	values, err := ctl.Values()
	if err != nil {
		fmt.Printf("  Value: <error: %v>\n", err)

		return
	}

	strs := make([]string, len(values))
	for i, val := range values {
		strs[i] = strconv.Itoa(val)

		if pct, err := ctl.Percent(uint(i)); err == nil {
			strs[i] += fmt.Sprintf(" (%d%%)", pct)
		}

		if db, err := ctl.ToDB(val); err == nil && ctl.HasDB() {
			strs[i] += fmt.Sprintf(" [%.2f dB]", float64(db)/100)
		}
	}

	fmt.Printf("  Value: %s\n", strings.Join(strs, ", "))
}

func printBooleanControl(ctl *alsa.MixerCtl) {
	values, err := ctl.Values()
	if err != nil {
		fmt.Printf("  Value: <error: %v>\n", err)

		return
	}

	strs := make([]string, len(values))
	for i, val := range values {
		strs[i] = "Off"
		if val > 0 {
			strs[i] = "On"
		}
	}

	fmt.Printf("  Value: %s\n", strings.Join(strs, ", "))
}

// setControlValue parses string arguments and sets the control's value.
// A single value applies to every channel.
func setControlValue(ctl *alsa.MixerCtl, values []string) error {
	if len(values) != 1 && uint32(len(values)) != ctl.NumValues() {
		return fmt.Errorf("provided %d values, but control has %d values", len(values), ctl.NumValues())
	}

	for i := uint(0); i < uint(ctl.NumValues()); i++ {
		v := values[0]
		if len(values) > 1 {
			v = values[i]
		}

		if err := setSingleValue(ctl, i, v); err != nil {
			return err
		}
	}

	return nil
}

func setSingleValue(ctl *alsa.MixerCtl, index uint, valueStr string) error {
	switch ctl.Type() {
	case alsa.SNDRV_CTL_ELEM_TYPE_INTEGER:
		if pctStr, ok := strings.CutSuffix(valueStr, "%"); ok {
			pct, err := strconv.Atoi(pctStr)
			if err != nil {
				return fmt.Errorf("invalid percentage value '%s'", valueStr)
			}

			return ctl.SetPercent(index, pct)
		}

		val, err := strconv.Atoi(valueStr)
		if err != nil {
			return fmt.Errorf("invalid integer value '%s'", valueStr)
		}

		return ctl.SetValue(index, val)

	case alsa.SNDRV_CTL_ELEM_TYPE_BOOLEAN:
		val, err := parseBool(valueStr)
		if err != nil {
			return err
		}

		return ctl.SetValue(index, val)

	default:
		return fmt.Errorf("cannot set value for unsupported control type %s", ctl.TypeString())
	}
}

// parseBool is a helper to interpret various string representations of a boolean.
func parseBool(s string) (int, error) {
	switch strings.ToLower(s) {
	case "1", "on", "true", "yes":
		return 1, nil
	case "0", "off", "false", "no":
		return 0, nil
	}

	return 0, fmt.Errorf("invalid boolean value '%s'", s)
}
