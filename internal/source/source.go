// Package source discovers SVG cursor designs and reads the metadata
// embedded in them: the hotspot marker and the animation config.
package source

import (
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/TheSilvered/Cursors/internal/ico"
)

// Source is one cursor design: a hand-authored SVG plus the metadata
// parsed out of it. Sources are read-only inputs.
type Source struct {
	Path    string
	Name    string // file stem, also the output cursor's name
	Hotspot ico.Hotspot
	Ani     *ico.AniConfig // nil for static cursors

	// Warnings collects non-fatal parse issues for the caller to log.
	Warnings []string
}

// Animated reports whether the source carries an animation config.
func (s *Source) Animated() bool {
	return s.Ani != nil
}

// OutputName returns the cursor file name derived from the source.
func (s *Source) OutputName() string {
	if s.Animated() {
		return s.Name + ".ani"
	}
	return s.Name + ".cur"
}

func (s *Source) warnf(format string, args ...any) {
	s.Warnings = append(s.Warnings, fmt.Sprintf(format, args...))
}

func (s *Source) errorf(format string, args ...any) error {
	return fmt.Errorf("%s: %s", s.Path, fmt.Sprintf(format, args...))
}

// Discover loads every .svg file in dir, sorted by name. Sources that
// fail to parse are skipped and reported through the bad callback.
func Discover(dir string, bad func(path string, err error)) ([]*Source, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read source dir: %w", err)
	}

	var sources []*Source
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".svg") {
			continue
		}
		src, err := Load(filepath.Join(dir, e.Name()))
		if err != nil {
			if bad != nil {
				bad(filepath.Join(dir, e.Name()), err)
			}
			continue
		}
		sources = append(sources, src)
	}
	sort.Slice(sources, func(i, j int) bool { return sources[i].Name < sources[j].Name })
	return sources, nil
}

// svgRoot maps only what we need from the document: the page size and
// the direct children that mark the hotspot and the animation config.
type svgRoot struct {
	Width  string `xml:"width,attr"`
	Height string `xml:"height,attr"`
	Rects  []struct {
		ID string `xml:"id,attr"`
		X  string `xml:"x,attr"`
		Y  string `xml:"y,attr"`
	} `xml:"rect"`
	Texts []struct {
		ID      string   `xml:"id,attr"`
		Content string   `xml:",chardata"`
		Spans   []string `xml:"tspan"`
	} `xml:"text"`
}

// Load parses one SVG source. The hotspot comes from a root-level
// <rect id="hotspot">, defaulting to (0, 0) with a warning when absent.
// A root-level <text id="ani_config"> marks the cursor as animated.
func Load(path string) (*Source, error) {
	s := &Source{Path: path}

	if !strings.EqualFold(filepath.Ext(path), ".svg") {
		return nil, s.errorf("expected an SVG image")
	}
	s.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, s.errorf("%v", err)
	}

	var doc svgRoot
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, s.errorf("parse SVG: %v", err)
	}

	width, werr := strconv.Atoi(strings.TrimSpace(doc.Width))
	height, herr := strconv.Atoi(strings.TrimSpace(doc.Height))
	if werr != nil || herr != nil || width <= 0 || height <= 0 {
		return nil, s.errorf("failed to query SVG size")
	}

	s.Hotspot = s.parseHotspot(doc, width, height)

	for _, t := range doc.Texts {
		if t.ID != "ani_config" {
			continue
		}
		text := t.Content
		if strings.TrimSpace(text) == "" {
			text = strings.Join(t.Spans, "")
		}
		cfg, err := s.parseAniConfig(text)
		if err != nil {
			return nil, err
		}
		s.Ani = cfg
		break
	}

	return s, nil
}

func (s *Source) parseHotspot(doc svgRoot, width, height int) ico.Hotspot {
	var xAttr, yAttr string
	found := false
	for _, r := range doc.Rects {
		if r.ID == "hotspot" {
			xAttr, yAttr = r.X, r.Y
			found = true
			break
		}
	}
	if !found {
		s.warnf("missing hotspot")
		return ico.Hotspot{}
	}

	x, err := strconv.Atoi(strings.TrimSpace(xAttr))
	if err != nil {
		s.warnf("invalid hotspot X position")
		x = 0
	}
	y, err := strconv.Atoi(strings.TrimSpace(yAttr))
	if err != nil {
		s.warnf("invalid hotspot Y position")
		y = 0
	}

	if x < 0 || y < 0 || x > width || y > height {
		s.warnf("the hotspot is outside of the drawing")
	}

	return ico.Hotspot{
		X: clamp01(float64(x) / float64(width)),
		Y: clamp01(float64(y) / float64(height)),
	}
}

func clamp01(v float64) float64 {
	return min(max(v, 0), 1)
}
