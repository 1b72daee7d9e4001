package alsa

import (
	"cmp"
	"fmt"
	"os"
	"regexp"
	"slices"
	"strconv"
	"strings"
)

const (
	procCards = "/proc/asound/cards"
	procPcm   = "/proc/asound/pcm"
)

var (
	// " 0 [PCH            ]: HDA-Intel - HDA Intel PCH"
	cardLine = regexp.MustCompile(`^\s*(\d+)\s+\[\s*([^]]*?)\s*\]:\s*(.*)`)

	// "02-00: Loopback PCM : Loopback PCM : playback 8 : capture 8"
	pcmLine = regexp.MustCompile(`^(\d+)-(\d+): (.*?) :.*`)

	playbackStreams = regexp.MustCompile(`: playback (\d+)`)
)

// SoundCardDevice is a playback PCM device on a sound card.
type SoundCardDevice struct {
	ID          int
	Description string
	Subdevices  int
}

func (d SoundCardDevice) String() string {
	return fmt.Sprintf("  Device %d: %s [%d subdevices]", d.ID, d.Description, d.Subdevices)
}

// SoundCard is a sound card listed by the kernel, with its playback devices.
// Name is the short card id usable in hw:NAME,D device names.
type SoundCard struct {
	ID          int
	Name        string
	Description string
	Devices     []SoundCardDevice
}

func (c SoundCard) String() string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Card %d: %s (%s)\n", c.ID, c.Name, c.Description)
	for _, dev := range c.Devices {
		sb.WriteString(dev.String() + "\n")
	}

	return sb.String()
}

// EnumerateCards lists the sound cards in /proc/asound and their playback devices.
func EnumerateCards() ([]SoundCard, error) {
	cards, err := readCards()
	if err != nil {
		return nil, err
	}

	content, err := os.ReadFile(procPcm)
	if err != nil {
		return nil, fmt.Errorf("could not read %s: %w", procPcm, err)
	}

	addPlaybackDevices(cards, string(content))

	return cards, nil
}

// CardByID returns the index of the card whose short id is id.
func CardByID(id string) (int, error) {
	cards, err := readCards()
	if err != nil {
		return 0, err
	}

	return lookupCard(cards, id)
}

func readCards() ([]SoundCard, error) {
	content, err := os.ReadFile(procCards)
	if err != nil {
		return nil, fmt.Errorf("could not read %s: %w", procCards, err)
	}

	return parseCards(string(content)), nil
}

// parseCards reads the card list in the /proc/asound/cards layout, ordered by index.
func parseCards(content string) []SoundCard {
	var cards []SoundCard

	for _, line := range strings.Split(content, "\n") {
		m := cardLine.FindStringSubmatch(line)
		if m == nil {
			continue
		}

		id, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}

		cards = append(cards, SoundCard{
			ID:          id,
			Name:        m[2],
			Description: strings.TrimSpace(m[3]),
		})
	}

	slices.SortFunc(cards, func(a, b SoundCard) int {
		return cmp.Compare(a.ID, b.ID)
	})

	return cards
}

// addPlaybackDevices attaches the devices of the /proc/asound/pcm layout that have playback
// streams to their cards. Capture-only devices and unknown cards are skipped.
func addPlaybackDevices(cards []SoundCard, content string) {
	for _, line := range strings.Split(content, "\n") {
		m := pcmLine.FindStringSubmatch(line)
		if m == nil {
			continue
		}

		streams := playbackStreams.FindStringSubmatch(line)
		if streams == nil {
			continue
		}

		cardID, _ := strconv.Atoi(m[1])
		devID, _ := strconv.Atoi(m[2])
		subdevices, _ := strconv.Atoi(streams[1])

		i := slices.IndexFunc(cards, func(c SoundCard) bool { return c.ID == cardID })
		if i < 0 {
			continue
		}

		cards[i].Devices = append(cards[i].Devices, SoundCardDevice{
			ID:          devID,
			Description: strings.TrimSpace(m[3]),
			Subdevices:  subdevices,
		})
	}
}

func lookupCard(cards []SoundCard, id string) (int, error) {
	i := slices.IndexFunc(cards, func(c SoundCard) bool { return c.Name == id })
	if i < 0 {
		return 0, fmt.Errorf("card %q not found", id)
	}

	return cards[i].ID, nil
}
