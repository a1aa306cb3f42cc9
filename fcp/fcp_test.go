package fcp

import (
	"encoding/xml"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"captionkit/caption"
	"captionkit/pipeline"
)

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{0, "0s"},
		{-time.Second, "0s"},
		{time.Second, "30030/30000s"},
		{10 * time.Second, "300300/30000s"},
	}
	for _, tt := range tests {
		if got := FormatDuration(tt.in); got != tt.want {
			t.Errorf("FormatDuration(%v): Expected %s, got %s", tt.in, tt.want, got)
		}
	}
}

func TestParseDuration(t *testing.T) {
	tests := []struct {
		in   string
		want time.Duration
	}{
		{"0s", 0},
		{"12s", 12 * time.Second},
		{"30000/30000s", time.Second},
		{"3/2s", 1500 * time.Millisecond},
	}
	for _, tt := range tests {
		got, err := ParseDuration(tt.in)
		if err != nil {
			t.Errorf("ParseDuration(%q): %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseDuration(%q): Expected %v, got %v", tt.in, tt.want, got)
		}
	}
	for _, bad := range []string{"", "12", "a/bs", "1/0s"} {
		if _, err := ParseDuration(bad); err == nil {
			t.Errorf("ParseDuration(%q): expected error", bad)
		}
	}
}

func TestGenerateUIDIsStable(t *testing.T) {
	a := GenerateUID("/one/dir/clip.mp4")
	b := GenerateUID("/other/dir/clip.mp4")
	if a != b {
		t.Errorf("Expected same UID for same file name, got %s and %s", a, b)
	}
	if a == GenerateUID("/one/dir/other.mp4") {
		t.Error("Expected different UIDs for different files")
	}
	if a != strings.ToUpper(a) || len(a) != 36 {
		t.Errorf("Expected upper-case UUID, got %s", a)
	}

	id := GenerateTextStyleID("hello", "c0_f0")
	if !strings.HasPrefix(id, "ts") || len(id) != 10 {
		t.Errorf("Expected ts + 8 characters, got %s", id)
	}
	if id == GenerateTextStyleID("hello", "c0_f2") {
		t.Error("Expected owner to change the text style ID")
	}
}

func TestRegistryReservesUniqueIDs(t *testing.T) {
	doc := &FCPXML{Resources: Resources{Formats: []Format{{ID: "r1"}}, Effects: []Effect{{ID: "r3", UID: TextEffectUID}}}}
	registry := NewResourceRegistry(doc)

	ids := registry.ReserveIDs(3)
	want := []string{"r4", "r5", "r6"}
	for i := range want {
		if ids[i] != want[i] {
			t.Errorf("Expected %s, got %s", want[i], ids[i])
		}
	}
	if _, ok := registry.FindEffect(TextEffectUID); !ok {
		t.Error("Expected existing effect to be registered")
	}
	if registry.ResourceCount() != 2 {
		t.Errorf("Expected 2 resources, got %d", registry.ResourceCount())
	}
}

func TestTransactionCommitAndRollback(t *testing.T) {
	doc := &FCPXML{}
	registry := NewResourceRegistry(doc)

	tx := NewTransaction(registry)
	ids := tx.ReserveIDs(2)
	if _, err := tx.CreateFormat(ids[0], "", 1080, 1920); err != nil {
		t.Fatal(err)
	}
	asset, err := tx.CreateAsset(ids[1], "voice.mp3", "voice", "10s", ids[0])
	if err != nil {
		t.Fatal(err)
	}
	if asset.HasVideo != "" || asset.Format != "" {
		t.Errorf("Expected audio asset without video properties, got %+v", asset)
	}
	if err := tx.Commit(); err != nil {
		t.Fatal(err)
	}
	if len(doc.Resources.Formats) != 1 || len(doc.Resources.Assets) != 1 {
		t.Fatalf("Expected 1 format and 1 asset, got %d and %d", len(doc.Resources.Formats), len(doc.Resources.Assets))
	}
	if doc.Resources.Formats[0].Height != "1920" {
		t.Errorf("Expected height 1920, got %s", doc.Resources.Formats[0].Height)
	}

	tx = NewTransaction(registry)
	id := tx.ReserveIDs(1)[0]
	if _, err := tx.CreateEffect(id, "Text", TextEffectUID); err != nil {
		t.Fatal(err)
	}
	tx.Rollback()
	if err := tx.Commit(); err == nil {
		t.Error("Expected commit after rollback to fail")
	}
	if len(doc.Resources.Effects) != 0 {
		t.Errorf("Expected no effects after rollback, got %d", len(doc.Resources.Effects))
	}
	if next := registry.ReserveNextID(); next == id {
		t.Errorf("Expected rolled back ID %s to stay reserved", id)
	}
}

func testJob() pipeline.Job {
	frame := caption.Frame{Width: 1920, Height: 1080}
	style := caption.DefaultStyle(frame)
	return pipeline.Job{
		Video: "/videos/talk.mp4",
		Frame: frame,
		Style: style,
		Captions: []caption.Caption{{
			Overlay: caption.Overlay{X: 860, Y: 1000, Width: 200, Height: 80, Start: 1, Duration: 2, Color: color.RGBA{64, 64, 64, 255}, Opacity: 0.6},
			Fragments: []caption.Fragment{
				{Kind: caption.BaseFragment, Text: "hello", X: 0, Y: 0, Start: 1, Duration: 2, Color: "white", StrokeColor: "black", StrokeWidth: 1.5},
				{Kind: caption.SpaceFragment, Text: " ", X: 100, Y: 0, Start: 1, Duration: 2, Color: "white"},
				{Kind: caption.HighlightFragment, Text: "hello", X: 0, Y: 0, Start: 1, Duration: 1, Color: "yellow", StrokeColor: "black", StrokeWidth: 1.5},
			},
		}},
	}
}

func TestRendererBuild(t *testing.T) {
	doc, err := Renderer{VideoDuration: 10 * time.Second}.Build(testJob())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if len(doc.Resources.Formats) != 1 || len(doc.Resources.Assets) != 1 || len(doc.Resources.Effects) != 1 {
		t.Fatalf("Unexpected resources: %+v", doc.Resources)
	}
	if doc.Resources.Formats[0].Name != "FFVideoFormat1080p2997" {
		t.Errorf("Expected 1080p format name, got %q", doc.Resources.Formats[0].Name)
	}
	if doc.Resources.Assets[0].Name != "talk" {
		t.Errorf("Expected asset name talk, got %s", doc.Resources.Assets[0].Name)
	}

	seq := doc.Library.Events[0].Projects[0].Sequences[0]
	if seq.Duration != FormatDuration(10*time.Second) {
		t.Errorf("Expected 10s sequence, got %s", seq.Duration)
	}
	clip := seq.Spine.AssetClips[0]
	if len(clip.Titles) != 2 {
		t.Fatalf("Expected 2 titles (space skipped), got %d", len(clip.Titles))
	}

	base, hl := clip.Titles[0], clip.Titles[1]
	if base.Lane == hl.Lane {
		t.Errorf("Expected overlapping titles in different lanes, both in %s", base.Lane)
	}
	if base.Offset != FormatSeconds(1) || hl.Duration != FormatSeconds(1) {
		t.Errorf("Unexpected timing: base offset %s, highlight duration %s", base.Offset, hl.Duration)
	}
	// (860 - 960, 540 - (1000 + 81/2))
	if got := base.Params[0].Value; got != "-100 -500.5" {
		t.Errorf("Expected position -100 -500.5, got %s", got)
	}
	if base.TextStyleDef.TextStyle.FontColor != "1 1 1 1" {
		t.Errorf("Expected white, got %s", base.TextStyleDef.TextStyle.FontColor)
	}
	if base.TextStyleDef.TextStyle.StrokeColor != "0 0 0 1" {
		t.Errorf("Expected black stroke, got %s", base.TextStyleDef.TextStyle.StrokeColor)
	}
	if base.TextStyleDef.ID == hl.TextStyleDef.ID {
		t.Error("Expected unique text style IDs")
	}
	if base.Text.TextStyle.Ref != base.TextStyleDef.ID {
		t.Error("Expected text to reference its own style")
	}
}

func TestRendererBuildWithAudio(t *testing.T) {
	job := testJob()
	job.Audio = "/audio/voice.mp3"
	doc, err := Renderer{}.Build(job)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(doc.Resources.Assets) != 2 {
		t.Fatalf("Expected video and audio assets, got %d", len(doc.Resources.Assets))
	}
	clip := doc.Library.Events[0].Projects[0].Sequences[0].Spine.AssetClips[0]
	if len(clip.AssetClips) != 1 || clip.AssetClips[0].Lane != "-1" {
		t.Fatalf("Expected connected audio clip in lane -1, got %+v", clip.AssetClips)
	}
	// Without a video duration the timeline ends at the last caption.
	if clip.Duration != FormatDuration(3*time.Second) {
		t.Errorf("Expected 3s clip, got %s", clip.Duration)
	}
}

func TestRendererBuildSkipsAudioAlreadyInVideo(t *testing.T) {
	job := testJob()
	job.Audio = job.Video
	doc, err := Renderer{}.Build(job)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(doc.Resources.Assets) != 1 {
		t.Fatalf("Expected only the video asset, got %d", len(doc.Resources.Assets))
	}
	clip := doc.Library.Events[0].Projects[0].Sequences[0].Spine.AssetClips[0]
	if len(clip.AssetClips) != 0 {
		t.Errorf("Expected no connected audio clip, got %+v", clip.AssetClips)
	}
}

func TestRendererBuildUsesMeasuredFont(t *testing.T) {
	doc, err := Renderer{Font: "Go", FontFace: "Regular"}.Build(testJob())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	for _, title := range doc.Library.Events[0].Projects[0].Sequences[0].Spine.AssetClips[0].Titles {
		ts := title.TextStyleDef.TextStyle
		if ts.Font != "Go" || ts.FontFace != "Regular" {
			t.Errorf("Expected Go Regular, got %q %q", ts.Font, ts.FontFace)
		}
	}
}

func TestRendererBuildErrors(t *testing.T) {
	job := testJob()
	job.Frame = caption.Frame{}
	if _, err := (Renderer{}).Build(job); err == nil {
		t.Error("Expected error for empty frame")
	}

	job = testJob()
	job.Captions[0].Fragments[0].Color = "not-a-color"
	if _, err := (Renderer{}).Build(job); err == nil {
		t.Error("Expected error for unknown color")
	}
}

func TestRenderWritesFile(t *testing.T) {
	job := testJob()
	job.Output = filepath.Join(t.TempDir(), "captions.fcpxml")
	if err := (Renderer{}).Render(t.Context(), job); err != nil {
		t.Fatalf("Render: %v", err)
	}

	data, err := os.ReadFile(job.Output)
	if err != nil {
		t.Fatal(err)
	}
	text := string(data)
	if !strings.HasPrefix(text, xml.Header+"<!DOCTYPE fcpxml>") {
		t.Errorf("Expected XML header and DOCTYPE, got %.80s", text)
	}
	if !strings.Contains(text, "Text.moti") || !strings.Contains(text, "hello") {
		t.Error("Expected text effect and caption text in output")
	}

	doc, err := ParseFCPXML(job.Output)
	if err != nil {
		t.Fatalf("ParseFCPXML: %v", err)
	}
	if doc.Version != Version {
		t.Errorf("Expected version %s, got %s", Version, doc.Version)
	}
	if n := len(doc.Library.Events[0].Projects[0].Sequences[0].Spine.AssetClips[0].Titles); n != 2 {
		t.Errorf("Expected 2 titles after round trip, got %d", n)
	}
}

func TestSpineOrdersByOffset(t *testing.T) {
	spine := Spine{
		AssetClips: []AssetClip{{Ref: "r2", Offset: "300300/30000s", Name: "late", Duration: "1s", TCFormat: "NDF"}},
		Titles:     []Title{{Ref: "r3", Offset: "0s", Name: "early", Duration: "1s"}},
	}
	out, err := xml.Marshal(spine)
	if err != nil {
		t.Fatal(err)
	}
	s := string(out)
	if strings.Index(s, "early") > strings.Index(s, "late") {
		t.Errorf("Expected title before clip, got %s", s)
	}
}
