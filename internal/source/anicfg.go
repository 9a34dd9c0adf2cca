package source

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/TheSilvered/Cursors/internal/ico"
)

// parseAniConfig reads the `key=value;` pairs of an ani_config text
// object. Example: `frameCount=3;frameRate=2;frameList=1,2,3,2`.
//
// frameCount is required and nonzero. frameRate defaults to 1 jiffy.
// frameList reorders/reuses frames by index; rateList gives per-step
// rates and is padded or truncated to frameCount. Unknown options and
// malformed values produce warnings, not errors.
func (s *Source) parseAniConfig(text string) (*ico.AniConfig, error) {
	ints := map[string]int{}
	lists := map[string][]int{}

	items := strings.Split(strings.TrimSuffix(strings.TrimSpace(text), ";"), ";")
	for _, item := range items {
		name, value, found := strings.Cut(item, "=")
		if !found {
			s.warnf("option is missing value '%s', format: optionName=value", item)
			continue
		}
		name = strings.TrimSpace(name)
		value = strings.TrimSpace(value)

		switch name {
		case "frameCount", "frameRate":
			n, err := parseUint32(value)
			if err != nil {
				s.warnf("invalid value '%s' for option '%s'", value, name)
				continue
			}
			ints[name] = n
		case "frameList", "rateList":
			var list []int
			ok := true
			for _, part := range strings.Split(strings.TrimSuffix(value, ","), ",") {
				n, err := parseUint32(strings.TrimSpace(part))
				if err != nil {
					s.warnf("invalid value '%s' for option '%s'", value, name)
					ok = false
					break
				}
				list = append(list, n)
			}
			if ok {
				lists[name] = list
			}
		default:
			s.warnf("unknown option '%s'", name)
		}
	}

	frameCount, ok := ints["frameCount"]
	if !ok {
		return nil, s.errorf("missing required option 'frameCount'")
	}
	if frameCount == 0 {
		return nil, s.errorf("'frameCount' cannot be zero")
	}

	for _, frame := range lists["frameList"] {
		if frame >= frameCount {
			return nil, s.errorf("frame index %d is too big", frame)
		}
	}

	frameRate, ok := ints["frameRate"]
	if !ok {
		frameRate = 1
	} else if frameRate == 0 {
		s.warnf("'frameRate' cannot be zero")
		frameRate = 1
	}

	rateList := lists["rateList"]
	if rateList != nil {
		for i, rate := range rateList {
			if rate == 0 {
				s.warnf("no rate in 'rateList' can be zero")
				rateList[i] = 1
			}
		}
		if len(rateList) != frameCount {
			s.warnf("'rateList' was expected to have %d elements but had %d", frameCount, len(rateList))
		}
		for len(rateList) < frameCount {
			rateList = append(rateList, frameRate)
		}
		rateList = rateList[:frameCount]
	}

	return &ico.AniConfig{
		FrameCount: frameCount,
		FrameRate:  frameRate,
		FrameList:  lists["frameList"],
		RateList:   rateList,
	}, nil
}

func parseUint32(v string) (int, error) {
	n, err := strconv.ParseUint(v, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("value out of range: %q", v)
	}
	return int(n), nil
}
