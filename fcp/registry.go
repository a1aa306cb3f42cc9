package fcp

import (
	"fmt"
	"sync"
)

// ResourceRegistry hands out document-wide unique resource IDs and keeps
// the resource list of one FCPXML in sync.
type ResourceRegistry struct {
	mu sync.RWMutex

	resources map[string]Resource
	assets    map[string]*Asset
	formats   map[string]*Format
	effects   map[string]*Effect

	nextResourceID int
	usedIDs        map[string]bool

	// filename -> UID
	fileUIDs map[string]string

	ml *FCPXML
}

// Resource represents any FCPXML resource.
type Resource interface {
	GetID() string
	GetType() ResourceType
}

type ResourceType int

const (
	AssetResource ResourceType = iota
	FormatResource
	EffectResource
)

// NewResourceRegistry creates a registry seeded with the resources
// already present in ml.
func NewResourceRegistry(ml *FCPXML) *ResourceRegistry {
	registry := &ResourceRegistry{
		resources: make(map[string]Resource),
		assets:    make(map[string]*Asset),
		formats:   make(map[string]*Format),
		effects:   make(map[string]*Effect),
		usedIDs:   make(map[string]bool),
		fileUIDs:  make(map[string]string),
		ml:        ml,
	}
	registry.initializeFromFCPXML()
	return registry
}

func (r *ResourceRegistry) initializeFromFCPXML() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.ml.Resources.Assets {
		asset := &r.ml.Resources.Assets[i]
		r.assets[asset.ID] = asset
		r.usedIDs[asset.ID] = true
		r.resources[asset.ID] = &AssetWrapper{asset}
	}
	for i := range r.ml.Resources.Formats {
		format := &r.ml.Resources.Formats[i]
		r.formats[format.ID] = format
		r.usedIDs[format.ID] = true
		r.resources[format.ID] = &FormatWrapper{format}
	}
	for i := range r.ml.Resources.Effects {
		effect := &r.ml.Resources.Effects[i]
		r.effects[effect.ID] = effect
		r.usedIDs[effect.ID] = true
		r.resources[effect.ID] = &EffectWrapper{effect}
	}

	r.nextResourceID = len(r.resources) + 1
}

// ReserveIDs reserves count IDs, skipping any already in use.
func (r *ResourceRegistry) ReserveIDs(count int) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	ids := make([]string, count)
	for i := 0; i < count; i++ {
		for {
			id := GenerateResourceID(r.nextResourceID)
			r.nextResourceID++
			if !r.usedIDs[id] {
				r.usedIDs[id] = true
				ids[i] = id
				break
			}
		}
	}
	return ids
}

// ReserveNextID reserves a single ID.
func (r *ResourceRegistry) ReserveNextID() string {
	return r.ReserveIDs(1)[0]
}

func (r *ResourceRegistry) RegisterAsset(asset *Asset) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.assets[asset.ID] = asset
	r.resources[asset.ID] = &AssetWrapper{asset}
	r.ml.Resources.Assets = append(r.ml.Resources.Assets, *asset)
}

func (r *ResourceRegistry) RegisterFormat(format *Format) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.formats[format.ID] = format
	r.resources[format.ID] = &FormatWrapper{format}
	r.ml.Resources.Formats = append(r.ml.Resources.Formats, *format)
}

func (r *ResourceRegistry) RegisterEffect(effect *Effect) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.effects[effect.ID] = effect
	r.resources[effect.ID] = &EffectWrapper{effect}
	r.ml.Resources.Effects = append(r.ml.Resources.Effects, *effect)
}

// FindAsset looks up an asset by its absolute file path.
func (r *ResourceRegistry) FindAsset(absPath string) (*Asset, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, asset := range r.assets {
		if asset.MediaRep.Src == "file://"+absPath {
			return asset, true
		}
	}
	return nil, false
}

// FindEffect looks up an effect by its UID.
func (r *ResourceRegistry) FindEffect(uid string) (*Effect, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, effect := range r.effects {
		if effect.UID == uid {
			return effect, true
		}
	}
	return nil, false
}

// ConsistentUID returns the UID for filename, reusing earlier results.
func (r *ResourceRegistry) ConsistentUID(filename string) string {
	r.mu.Lock()
	defer r.mu.Unlock()

	if uid, ok := r.fileUIDs[filename]; ok {
		return uid
	}
	uid := GenerateUID(filename)
	r.fileUIDs[filename] = uid
	return uid
}

func (r *ResourceRegistry) ResourceCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.resources)
}

type AssetWrapper struct {
	*Asset
}

func (a *AssetWrapper) GetID() string         { return a.ID }
func (a *AssetWrapper) GetType() ResourceType { return AssetResource }

type FormatWrapper struct {
	*Format
}

func (f *FormatWrapper) GetID() string         { return f.ID }
func (f *FormatWrapper) GetType() ResourceType { return FormatResource }

type EffectWrapper struct {
	*Effect
}

func (e *EffectWrapper) GetID() string         { return e.ID }
func (e *EffectWrapper) GetType() ResourceType { return EffectResource }

func (t ResourceType) String() string {
	switch t {
	case AssetResource:
		return "asset"
	case FormatResource:
		return "format"
	case EffectResource:
		return "effect"
	}
	return fmt.Sprintf("ResourceType(%d)", int(t))
}
