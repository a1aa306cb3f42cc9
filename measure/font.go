// Package measure sizes caption text with real font metrics.
package measure

import (
	"bytes"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/creachadair/atomicfile"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/font/sfnt"

	"captionkit/caption"
)

type embedded struct {
	file string
	data []byte
}

var (
	goRegular = embedded{"goregular.ttf", goregular.TTF}
	goBold    = embedded{"gobold.ttf", gobold.TTF}
	goMono    = embedded{"gomono.ttf", gomono.TTF}
)

// builtin maps font names to the embedded Go fonts. Names that are not
// listed and are not a .ttf/.otf path fall back to Go Regular. Renderers
// must draw with the face from Resolve so text lands where it was measured.
var builtin = map[string]embedded{
	"go":         goRegular,
	"go regular": goRegular,
	"go bold":    goBold,
	"go mono":    goMono,
}

type faceKey struct {
	name string
	size int
}

// Font measures text by rasterizer advance widths. It caches one face per
// font and size; it is safe for concurrent use.
type Font struct {
	// Dir receives the embedded fonts written by Resolve. Empty means a
	// captionkit directory under os.TempDir.
	Dir string

	mu    sync.Mutex
	fonts map[string]*opentype.Font
	faces map[faceKey]font.Face
}

// NewFont returns an empty measurer.
func NewFont() *Font {
	return &Font{
		fonts: make(map[string]*opentype.Font),
		faces: make(map[faceKey]font.Face),
	}
}

// Measure implements caption.Measurer. Width is the advance of the whole
// string, height the line height of the face, both rounded up to pixels.
// Text the face cannot draw fails with caption.ErrMissingGlyph.
func (f *Font) Measure(text string, style caption.Style) (float64, float64, error) {
	if style.FontSize <= 0 {
		return 0, 0, fmt.Errorf("font size must be positive, got %d", style.FontSize)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	face, err := f.face(style.Font, style.FontSize)
	if err != nil {
		return 0, 0, err
	}
	for _, r := range text {
		if _, ok := face.GlyphAdvance(r); !ok {
			return 0, 0, fmt.Errorf("%w %q in %q", caption.ErrMissingGlyph, r, style.Font)
		}
	}

	adv := font.MeasureString(face, text)
	m := face.Metrics()
	width := math.Ceil(float64(adv) / 64)
	height := math.Ceil(float64(m.Ascent+m.Descent) / 64)
	return width, height, nil
}

// Resolved names the font file Measure uses for a font name.
type Resolved struct {
	Path   string
	Family string
	Face   string
}

// Resolve returns the font file behind name, writing embedded fonts to Dir
// so ffmpeg can load the exact face that was measured.
func (f *Font) Resolve(name string) (Resolved, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	fnt, err := f.load(name)
	if err != nil {
		return Resolved{}, err
	}
	res := Resolved{Path: name}
	res.Family, _ = fnt.Name(nil, sfnt.NameIDFamily)
	res.Face, _ = fnt.Name(nil, sfnt.NameIDSubfamily)

	if isFontFile(name) {
		return res, nil
	}
	e := source(name)
	dir := f.Dir
	if dir == "" {
		dir = filepath.Join(os.TempDir(), "captionkit")
	}
	res.Path = filepath.Join(dir, e.file)
	if have, err := os.ReadFile(res.Path); err == nil && bytes.Equal(have, e.data) {
		return res, nil
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return Resolved{}, fmt.Errorf("creating font directory: %w", err)
	}
	if err := writeFile(res.Path, e.data); err != nil {
		return Resolved{}, fmt.Errorf("writing %s: %w", res.Path, err)
	}
	return res, nil
}

// Close releases cached faces.
func (f *Font) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for k, face := range f.faces {
		face.Close()
		delete(f.faces, k)
	}
	return nil
}

func (f *Font) face(name string, size int) (font.Face, error) {
	key := faceKey{name, size}
	if face, ok := f.faces[key]; ok {
		return face, nil
	}
	fnt, err := f.load(name)
	if err != nil {
		return nil, err
	}
	face, err := opentype.NewFace(fnt, &opentype.FaceOptions{
		Size:    float64(size),
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("creating face for %q: %w", name, err)
	}
	f.faces[key] = face
	return face, nil
}

func (f *Font) load(name string) (*opentype.Font, error) {
	if fnt, ok := f.fonts[name]; ok {
		return fnt, nil
	}

	data := source(name).data
	if isFontFile(name) {
		bits, err := os.ReadFile(name)
		if err != nil {
			return nil, fmt.Errorf("reading font file: %w", err)
		}
		data = bits
	}

	fnt, err := opentype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parsing font %q: %w", name, err)
	}
	f.fonts[name] = fnt
	return fnt, nil
}

func source(name string) embedded {
	if e, ok := builtin[strings.ToLower(name)]; ok {
		return e
	}
	return goRegular
}

func isFontFile(name string) bool {
	lower := strings.ToLower(name)
	return strings.HasSuffix(lower, ".ttf") || strings.HasSuffix(lower, ".otf")
}

func writeFile(path string, data []byte) error {
	out, err := atomicfile.New(path, 0644)
	if err != nil {
		return err
	}
	defer out.Cancel()
	if _, err := out.Write(data); err != nil {
		return err
	}
	return out.Close()
}
