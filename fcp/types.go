// Package fcp defines the struct types for FCPXML generation and renders
// captions as Final Cut Pro titles.
//
// Documents are built only through these structs and xml.MarshalIndent.
// Never splice XML strings into a spine.
package fcp

import (
	"encoding/xml"
	"sort"
	"time"
)

type FCPXML struct {
	XMLName   xml.Name  `xml:"fcpxml"`
	Version   string    `xml:"version,attr"`
	Resources Resources `xml:"resources"`
	Library   Library   `xml:"library"`
}

// Resources contains all assets, formats and effects.
//
// IDs are never hardcoded; they come from a ResourceRegistry so they stay
// unique across the document.
type Resources struct {
	Assets  []Asset  `xml:"asset,omitempty"`
	Formats []Format `xml:"format"`
	Effects []Effect `xml:"effect,omitempty"`
}

// Effect represents a Motion or standard FCP title effect referenced by <title ref="…"> elements.
type Effect struct {
	ID   string `xml:"id,attr"`
	Name string `xml:"name,attr"`
	UID  string `xml:"uid,attr,omitempty"`
}

type Format struct {
	ID            string `xml:"id,attr"`
	Name          string `xml:"name,attr,omitempty"`
	FrameDuration string `xml:"frameDuration,attr,omitempty"`
	Width         string `xml:"width,attr,omitempty"`
	Height        string `xml:"height,attr,omitempty"`
	ColorSpace    string `xml:"colorSpace,attr,omitempty"`
}

// Asset represents a media file in FCPXML.
//
// The UID is derived from the file name, not the path: FCP refuses to
// import the same media twice under different identifiers.
type Asset struct {
	ID            string   `xml:"id,attr"`
	Name          string   `xml:"name,attr"`
	UID           string   `xml:"uid,attr"`
	Start         string   `xml:"start,attr"`
	HasVideo      string   `xml:"hasVideo,attr,omitempty"`
	Format        string   `xml:"format,attr,omitempty"`
	VideoSources  string   `xml:"videoSources,attr,omitempty"`
	HasAudio      string   `xml:"hasAudio,attr,omitempty"`
	AudioSources  string   `xml:"audioSources,attr,omitempty"`
	AudioChannels string   `xml:"audioChannels,attr,omitempty"`
	AudioRate     string   `xml:"audioRate,attr,omitempty"`
	Duration      string   `xml:"duration,attr"`
	MediaRep      MediaRep `xml:"media-rep"`
}

type MediaRep struct {
	Kind string `xml:"kind,attr"`
	Sig  string `xml:"sig,attr"`
	Src  string `xml:"src,attr"`
}

type Library struct {
	Location string  `xml:"location,attr,omitempty"`
	Events   []Event `xml:"event"`
}

type Event struct {
	Name     string    `xml:"name,attr"`
	UID      string    `xml:"uid,attr,omitempty"`
	Projects []Project `xml:"project"`
}

type Project struct {
	Name      string     `xml:"name,attr"`
	UID       string     `xml:"uid,attr,omitempty"`
	ModDate   string     `xml:"modDate,attr,omitempty"`
	Sequences []Sequence `xml:"sequence"`
}

type Sequence struct {
	Format      string `xml:"format,attr"`
	Duration    string `xml:"duration,attr"`
	TCStart     string `xml:"tcStart,attr"`
	TCFormat    string `xml:"tcFormat,attr"`
	AudioLayout string `xml:"audioLayout,attr"`
	AudioRate   string `xml:"audioRate,attr"`
	Spine       Spine  `xml:"spine"`
}

// Spine represents the main timeline container.
type Spine struct {
	XMLName    xml.Name    `xml:"spine"`
	AssetClips []AssetClip `xml:"asset-clip,omitempty"`
	Titles     []Title     `xml:"title,omitempty"`
}

// MarshalXML writes spine children in chronological order regardless of
// which slice they live in.
func (s Spine) MarshalXML(e *xml.Encoder, start xml.StartElement) error {
	if err := e.EncodeToken(start); err != nil {
		return err
	}

	type elementWithOffset struct {
		offset  time.Duration
		element interface{}
	}
	var elements []elementWithOffset
	for _, clip := range s.AssetClips {
		elements = append(elements, elementWithOffset{parseOffset(clip.Offset), clip})
	}
	for _, title := range s.Titles {
		elements = append(elements, elementWithOffset{parseOffset(title.Offset), title})
	}
	sort.SliceStable(elements, func(i, j int) bool {
		return elements[i].offset < elements[j].offset
	})

	for _, elem := range elements {
		if err := e.Encode(elem.element); err != nil {
			return err
		}
	}
	return e.EncodeToken(xml.EndElement{Name: start.Name})
}

func parseOffset(s string) time.Duration {
	d, err := ParseDuration(s)
	if err != nil {
		return 0
	}
	return d
}

type AssetClip struct {
	XMLName   xml.Name `xml:"asset-clip"`
	Ref       string   `xml:"ref,attr"`
	Lane      string   `xml:"lane,attr,omitempty"`
	Offset    string   `xml:"offset,attr"`
	Name      string   `xml:"name,attr"`
	Start     string   `xml:"start,attr,omitempty"`
	Duration  string   `xml:"duration,attr"`
	Format    string   `xml:"format,attr,omitempty"`
	TCFormat  string   `xml:"tcFormat,attr"`
	AudioRole string   `xml:"audioRole,attr,omitempty"`

	// Connected clips, such as a replacement audio track in lane -1.
	AssetClips []AssetClip `xml:"asset-clip,omitempty"`
	Titles     []Title     `xml:"title,omitempty"`
}

type Title struct {
	XMLName      xml.Name      `xml:"title"`
	Ref          string        `xml:"ref,attr"`
	Lane         string        `xml:"lane,attr,omitempty"`
	Offset       string        `xml:"offset,attr"`
	Name         string        `xml:"name,attr"`
	Duration     string        `xml:"duration,attr"`
	Start        string        `xml:"start,attr,omitempty"`
	Params       []Param       `xml:"param,omitempty"`
	Text         *TitleText    `xml:"text,omitempty"`
	TextStyleDef *TextStyleDef `xml:"text-style-def,omitempty"`
}

type Param struct {
	Name  string `xml:"name,attr"`
	Key   string `xml:"key,attr,omitempty"`
	Value string `xml:"value,attr,omitempty"`
}

type TitleText struct {
	TextStyle TextStyleRef `xml:"text-style"`
}

type TextStyleRef struct {
	Ref  string `xml:"ref,attr"`
	Text string `xml:",chardata"`
}

type TextStyleDef struct {
	ID        string    `xml:"id,attr"`
	TextStyle TextStyle `xml:"text-style"`
}

type TextStyle struct {
	Font        string `xml:"font,attr"`
	FontSize    string `xml:"fontSize,attr"`
	FontFace    string `xml:"fontFace,attr,omitempty"`
	FontColor   string `xml:"fontColor,attr"`
	StrokeColor string `xml:"strokeColor,attr,omitempty"`
	StrokeWidth string `xml:"strokeWidth,attr,omitempty"`
	Bold        string `xml:"bold,attr,omitempty"`
	Alignment   string `xml:"alignment,attr,omitempty"`
}
