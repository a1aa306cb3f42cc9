package fcp

import (
	"context"
	"fmt"
	"math"
	"path/filepath"
	"strings"
	"time"

	"captionkit/caption"
	"captionkit/pipeline"
)

// TextEffectUID is the stock "Text" title that carries each fragment.
const TextEffectUID = ".../Titles.localized/Basic Text.localized/Text.localized/Text.moti"

// Parameter keys of the Text title.
const (
	positionKey  = "9999/999166631/999166633/1/100/101"
	alignmentKey = "9999/999166631/999166633/2/354/999169573/401"
)

// Renderer writes captions as an FCPXML project: the video as one
// asset-clip with every visible fragment connected to it as a Text title.
// It implements pipeline.Renderer.
type Renderer struct {
	// VideoDuration is the length of the source video. When zero the
	// timeline ends with the last caption.
	VideoDuration time.Duration

	// Event and Project name the library entries; defaults derive from
	// the video file name.
	Event   string
	Project string

	// Font and FontFace replace the style's font in the title styles,
	// naming the family and face the captions were measured with.
	Font     string
	FontFace string
}

// Render builds the document for job and writes it to job.Output.
func (r Renderer) Render(ctx context.Context, job pipeline.Job) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if job.Output == "" {
		return fmt.Errorf("no output path")
	}
	doc, err := r.Build(job)
	if err != nil {
		return err
	}
	if err := WriteToFile(doc, job.Output); err != nil {
		return fmt.Errorf("writing %s: %w", job.Output, err)
	}
	fmt.Printf("Wrote %d captions to %s\n", len(job.Captions), job.Output)
	return nil
}

// Build returns the FCPXML document for job without writing it.
func (r Renderer) Build(job pipeline.Job) (*FCPXML, error) {
	if job.Frame.Width <= 0 || job.Frame.Height <= 0 {
		return nil, fmt.Errorf("invalid frame size %v", job.Frame)
	}
	name := strings.TrimSuffix(filepath.Base(job.Video), filepath.Ext(job.Video))
	total := r.duration(job.Captions)

	doc := &FCPXML{Version: Version}
	registry := NewResourceRegistry(doc)
	tx := NewTransaction(registry)

	ids := tx.ReserveIDs(3)
	formatID, assetID, effectID := ids[0], ids[1], ids[2]
	if _, err := tx.CreateFormat(formatID, formatName(job.Frame), job.Frame.Width, job.Frame.Height); err != nil {
		return nil, err
	}
	if _, err := tx.CreateAsset(assetID, job.Video, name, FormatDuration(total), formatID); err != nil {
		return nil, err
	}
	if _, err := tx.CreateEffect(effectID, "Text", TextEffectUID); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	clip := AssetClip{
		Ref:       assetID,
		Offset:    "0s",
		Name:      name,
		Start:     "0s",
		Duration:  FormatDuration(total),
		Format:    formatID,
		TCFormat:  "NDF",
		AudioRole: "dialogue",
	}

	if job.Audio != "" {
		audio, err := r.audioClip(registry, job.Audio, FormatDuration(total))
		if err != nil {
			return nil, err
		}
		if audio != nil {
			clip.AssetClips = append(clip.AssetClips, *audio)
		}
	}

	style := job.Style
	if r.Font != "" {
		style.Font = r.Font
	}
	for ci, c := range job.Captions {
		titles, err := captionTitles(ci, c, job.Frame, style, r.FontFace, effectID)
		if err != nil {
			return nil, err
		}
		clip.Titles = append(clip.Titles, titles...)
	}

	project := r.Project
	if project == "" {
		project = name + " Captions"
	}
	event := r.Event
	if event == "" {
		event = "Captions"
	}
	doc.Library = Library{
		Events: []Event{{
			Name: event,
			UID:  GenerateUID("event_" + event),
			Projects: []Project{{
				Name: project,
				UID:  GenerateUID("project_" + project),
				Sequences: []Sequence{{
					Format:      formatID,
					Duration:    FormatDuration(total),
					TCStart:     "0s",
					TCFormat:    "NDF",
					AudioLayout: "stereo",
					AudioRate:   "48k",
					Spine:       Spine{AssetClips: []AssetClip{clip}},
				}},
			}},
		}},
	}
	return doc, nil
}

// audioClip connects path under the video in lane -1. A file that is
// already an asset, such as the video itself, plays from its own clip and
// gets no connected clip.
func (r Renderer) audioClip(registry *ResourceRegistry, path, duration string) (*AssetClip, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path: %w", err)
	}
	if _, ok := registry.FindAsset(abs); ok {
		return nil, nil
	}

	tx := NewTransaction(registry)
	id := tx.ReserveIDs(1)[0]
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	if _, err := tx.CreateAsset(id, path, name, duration, ""); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &AssetClip{
		Ref:       id,
		Lane:      "-1",
		Offset:    "0s",
		Name:      name,
		Duration:  duration,
		TCFormat:  "NDF",
		AudioRole: "dialogue",
	}, nil
}

func (r Renderer) duration(captions []caption.Caption) time.Duration {
	if r.VideoDuration > 0 {
		return r.VideoDuration
	}
	var end float64
	for _, c := range captions {
		end = math.Max(end, c.Overlay.Start+c.Overlay.Duration)
		for _, f := range c.Fragments {
			end = math.Max(end, f.End())
		}
	}
	return time.Duration(math.Ceil(end)) * time.Second
}

// captionTitles converts the visible fragments of one caption. Fragments
// of a caption overlap in time, so each gets its own lane.
func captionTitles(ci int, c caption.Caption, frame caption.Frame, style caption.Style, fontFace, effectID string) ([]Title, error) {
	var titles []Title
	lane := 0
	for fi, f := range c.Fragments {
		if f.IsBlank() {
			continue
		}
		lane++
		fill, err := fcpColor(f.Color)
		if err != nil {
			return nil, fmt.Errorf("caption %d: %w", ci+1, err)
		}
		ts := TextStyle{
			Font:      style.Font,
			FontSize:  fmt.Sprint(style.FontSize),
			FontFace:  fontFace,
			FontColor: fill,
			Alignment: "left",
		}
		if f.StrokeWidth > 0 && f.StrokeColor != "" {
			stroke, err := fcpColor(f.StrokeColor)
			if err != nil {
				return nil, fmt.Errorf("caption %d: %w", ci+1, err)
			}
			ts.StrokeColor = stroke
			ts.StrokeWidth = trimFloat(-f.StrokeWidth)
		}

		styleID := GenerateTextStyleID(f.Text, fmt.Sprintf("c%d_f%d", ci, fi))
		titles = append(titles, Title{
			Ref:      effectID,
			Lane:     fmt.Sprint(lane),
			Offset:   FormatSeconds(f.Start),
			Name:     fmt.Sprintf("%s - %s", f.Text, f.Kind),
			Start:    "0s",
			Duration: FormatSeconds(f.Duration),
			Params: []Param{
				{Name: "Position", Key: positionKey, Value: position(c.Overlay, f, frame, style)},
				{Name: "Alignment", Key: alignmentKey, Value: "0 (Left)"},
			},
			Text:         &TitleText{TextStyle: TextStyleRef{Ref: styleID, Text: f.Text}},
			TextStyleDef: &TextStyleDef{ID: styleID, TextStyle: ts},
		})
	}
	return titles, nil
}

// position converts a fragment's top-left pixel position to the title's
// Position parameter: origin at the frame center, y pointing up, anchored
// at the vertical middle of the text.
func position(o caption.Overlay, f caption.Fragment, frame caption.Frame, style caption.Style) string {
	x := float64(o.X) + f.X - float64(frame.Width)/2
	y := float64(frame.Height)/2 - (float64(o.Y) + f.Y + float64(style.FontSize)/2)
	return trimFloat(x) + " " + trimFloat(y)
}

func fcpColor(name string) (string, error) {
	c, err := caption.ParseColor(name)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s %s %s %s",
		trimFloat(float64(c.R)/255), trimFloat(float64(c.G)/255),
		trimFloat(float64(c.B)/255), trimFloat(float64(c.A)/255)), nil
}

func trimFloat(f float64) string {
	s := fmt.Sprintf("%.4f", f)
	s = strings.TrimRight(s, "0")
	s = strings.TrimSuffix(s, ".")
	if s == "-0" {
		return "0"
	}
	return s
}

func formatName(frame caption.Frame) string {
	switch {
	case frame.Width == 1920 && frame.Height == 1080:
		return "FFVideoFormat1080p2997"
	case frame.Width == 1280 && frame.Height == 720:
		return "FFVideoFormat720p2997"
	}
	return ""
}
