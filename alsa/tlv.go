package alsa

import (
	"fmt"
	"math"
)

// A TLV blob is a sequence of 32-bit words: type, payload length in bytes, payload.
// All dB values are in hundredths of a dB.

func tlvHeader(tlv []uint32) (typ uint32, payload []uint32, err error) {
	if len(tlv) < 2 {
		return 0, nil, fmt.Errorf("short TLV header")
	}

	n := int(tlv[1] / 4)
	if len(tlv) < 2+n {
		return 0, nil, fmt.Errorf("TLV payload length %d exceeds data", tlv[1])
	}

	return tlv[0], tlv[2 : 2+n], nil
}

// tlvDBRange returns the dB range covered by the raw range [rmin, rmax].
func tlvDBRange(tlv []uint32, rmin, rmax int) (int, int, error) {
	typ, d, err := tlvHeader(tlv)
	if err != nil {
		return 0, 0, err
	}

	switch typ {
	case SNDRV_CTL_TLVT_DB_SCALE:
		if len(d) < 2 {
			return 0, 0, fmt.Errorf("short DB_SCALE payload")
		}

		minDB := int(int32(d[0]))
		step := int(d[1] & 0xffff)

		return minDB, minDB + step*(rmax-rmin), nil
	case SNDRV_CTL_TLVT_DB_LINEAR, SNDRV_CTL_TLVT_DB_MINMAX, SNDRV_CTL_TLVT_DB_MINMAX_MUTE:
		if len(d) < 2 {
			return 0, 0, fmt.Errorf("short dB min/max payload")
		}

		return int(int32(d[0])), int(int32(d[1])), nil
	case SNDRV_CTL_TLVT_DB_RANGE:
		entries, err := tlvRangeEntries(d)
		if err != nil {
			return 0, 0, err
		}

		minDB, maxDB := math.MaxInt, math.MinInt
		for _, e := range entries {
			lo, hi, err := tlvDBRange(e.tlv, e.min, e.max)
			if err != nil {
				return 0, 0, err
			}

			minDB = min(minDB, lo)
			maxDB = max(maxDB, hi)
		}

		return minDB, maxDB, nil
	default:
		return 0, 0, fmt.Errorf("unsupported TLV type %d", typ)
	}
}

// tlvToDB converts a raw control value to dB.
func tlvToDB(tlv []uint32, rmin, rmax, raw int) (int, error) {
	typ, d, err := tlvHeader(tlv)
	if err != nil {
		return 0, err
	}

	switch typ {
	case SNDRV_CTL_TLVT_DB_SCALE:
		if len(d) < 2 {
			return 0, fmt.Errorf("short DB_SCALE payload")
		}

		minDB := int(int32(d[0]))
		step := int(d[1] & 0xffff)
		mute := (d[1] & SNDRV_CTL_TLVD_DB_SCALE_MUTE) != 0

		if mute && raw <= rmin {
			return SNDRV_CTL_TLVD_DB_GAIN_MUTE, nil
		}

		return minDB + (raw-rmin)*step, nil
	case SNDRV_CTL_TLVT_DB_MINMAX, SNDRV_CTL_TLVT_DB_MINMAX_MUTE:
		if len(d) < 2 {
			return 0, fmt.Errorf("short dB min/max payload")
		}

		minDB, maxDB := int(int32(d[0])), int(int32(d[1]))
		if typ == SNDRV_CTL_TLVT_DB_MINMAX_MUTE && raw <= rmin {
			return SNDRV_CTL_TLVD_DB_GAIN_MUTE, nil
		}

		if rmax <= rmin {
			return minDB, nil
		}

		return minDB + (maxDB-minDB)*(raw-rmin)/(rmax-rmin), nil
	case SNDRV_CTL_TLVT_DB_LINEAR:
		if len(d) < 2 {
			return 0, fmt.Errorf("short DB_LINEAR payload")
		}

		minDB, maxDB := int(int32(d[0])), int(int32(d[1]))
		if raw <= rmin || rmax <= rmin {
			return minDB, nil
		}

		if raw >= rmax {
			return maxDB, nil
		}

		lmin, lmax := linearGain(minDB), linearGain(maxDB)
		val := float64(raw-rmin)/float64(rmax-rmin)*(lmax-lmin) + lmin

		return int(2000 * math.Log10(val)), nil
	case SNDRV_CTL_TLVT_DB_RANGE:
		entries, err := tlvRangeEntries(d)
		if err != nil {
			return 0, err
		}

		for _, e := range entries {
			if raw >= e.min && raw <= e.max {
				return tlvToDB(e.tlv, e.min, e.max, raw)
			}
		}

		return 0, fmt.Errorf("raw value %d outside every DB_RANGE entry", raw)
	default:
		return 0, fmt.Errorf("unsupported TLV type %d", typ)
	}
}

// tlvFromDB converts a dB value to the nearest raw control value.
func tlvFromDB(tlv []uint32, rmin, rmax, db int) (int, error) {
	typ, d, err := tlvHeader(tlv)
	if err != nil {
		return 0, err
	}

	switch typ {
	case SNDRV_CTL_TLVT_DB_SCALE, SNDRV_CTL_TLVT_DB_MINMAX, SNDRV_CTL_TLVT_DB_MINMAX_MUTE:
		minDB, maxDB, err := tlvDBRange(tlv, rmin, rmax)
		if err != nil {
			return 0, err
		}

		if db <= minDB || maxDB <= minDB {
			return rmin, nil
		}

		if db >= maxDB {
			return rmax, nil
		}

		return rmin + int(math.Round(float64(db-minDB)*float64(rmax-rmin)/float64(maxDB-minDB))), nil
	case SNDRV_CTL_TLVT_DB_LINEAR:
		if len(d) < 2 {
			return 0, fmt.Errorf("short DB_LINEAR payload")
		}

		minDB, maxDB := int(int32(d[0])), int(int32(d[1]))
		if db <= minDB || maxDB <= minDB {
			return rmin, nil
		}

		if db >= maxDB {
			return rmax, nil
		}

		lmin, lmax := linearGain(minDB), linearGain(maxDB)
		val := (linearGain(db) - lmin) / (lmax - lmin)

		return rmin + int(math.Round(val*float64(rmax-rmin))), nil
	case SNDRV_CTL_TLVT_DB_RANGE:
		entries, err := tlvRangeEntries(d)
		if err != nil {
			return 0, err
		}

		if len(entries) == 0 {
			return rmin, nil
		}

		for _, e := range entries {
			_, hi, err := tlvDBRange(e.tlv, e.min, e.max)
			if err != nil {
				return 0, err
			}

			if db <= hi {
				return tlvFromDB(e.tlv, e.min, e.max, db)
			}
		}

		return entries[len(entries)-1].max, nil
	default:
		return 0, fmt.Errorf("unsupported TLV type %d", typ)
	}
}

type tlvRangeEntry struct {
	min, max int
	tlv      []uint32
}

// tlvRangeEntries splits a DB_RANGE payload into its (min, max, sub-TLV) entries.
func tlvRangeEntries(d []uint32) ([]tlvRangeEntry, error) {
	var entries []tlvRangeEntry

	for pos := 0; pos < len(d); {
		if len(d)-pos < 4 {
			return nil, fmt.Errorf("truncated DB_RANGE entry")
		}

		n := int(d[pos+3] / 4)
		end := pos + 4 + n
		if end > len(d) {
			return nil, fmt.Errorf("DB_RANGE sub-TLV length %d exceeds data", d[pos+3])
		}

		entries = append(entries, tlvRangeEntry{
			min: int(int32(d[pos])),
			max: int(int32(d[pos+1])),
			tlv: d[pos+2 : end],
		})

		pos = end
	}

	return entries, nil
}

func linearGain(db int) float64 {
	if db <= SNDRV_CTL_TLVD_DB_GAIN_MUTE {
		return 0
	}

	return math.Pow(10, float64(db)/2000)
}
