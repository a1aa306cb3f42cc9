package fcp

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

var errRolledBack = errors.New("transaction has been rolled back")

// ResourceTransaction stages several resources and registers them
// together on Commit.
type ResourceTransaction struct {
	registry *ResourceRegistry
	reserved []string
	created  []Resource
	rolled   bool
}

func NewTransaction(registry *ResourceRegistry) *ResourceTransaction {
	return &ResourceTransaction{registry: registry}
}

// ReserveIDs reserves IDs for this transaction.
func (tx *ResourceTransaction) ReserveIDs(count int) []string {
	if tx.rolled {
		return nil
	}
	ids := tx.registry.ReserveIDs(count)
	tx.reserved = append(tx.reserved, ids...)
	return ids
}

// CreateAsset stages a media asset. Audio files get no video properties.
func (tx *ResourceTransaction) CreateAsset(id, filePath, name, duration, formatID string) (*Asset, error) {
	if tx.rolled {
		return nil, errRolledBack
	}

	absPath, err := filepath.Abs(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path: %w", err)
	}
	uid := tx.registry.ConsistentUID(filepath.Base(filePath))

	asset := &Asset{
		ID:            id,
		Name:          name,
		UID:           uid,
		Start:         "0s",
		Duration:      duration,
		HasAudio:      "1",
		AudioSources:  "1",
		AudioChannels: "2",
		AudioRate:     "48000",
		MediaRep: MediaRep{
			Kind: "original-media",
			Sig:  uid,
			Src:  "file://" + absPath,
		},
	}
	if !isAudioFile(absPath) {
		asset.HasVideo = "1"
		asset.VideoSources = "1"
		asset.Format = formatID
	}

	tx.created = append(tx.created, &AssetWrapper{asset})
	return asset, nil
}

// CreateFormat stages a sequence format.
func (tx *ResourceTransaction) CreateFormat(id, name string, width, height int) (*Format, error) {
	if tx.rolled {
		return nil, errRolledBack
	}
	format := &Format{
		ID:            id,
		Name:          name,
		FrameDuration: FrameDuration,
		Width:         fmt.Sprint(width),
		Height:        fmt.Sprint(height),
		ColorSpace:    "1-1-1 (Rec. 709)",
	}
	tx.created = append(tx.created, &FormatWrapper{format})
	return format, nil
}

// CreateEffect stages a title effect.
func (tx *ResourceTransaction) CreateEffect(id, name, uid string) (*Effect, error) {
	if tx.rolled {
		return nil, errRolledBack
	}
	effect := &Effect{ID: id, Name: name, UID: uid}
	tx.created = append(tx.created, &EffectWrapper{effect})
	return effect, nil
}

// Commit registers every staged resource.
func (tx *ResourceTransaction) Commit() error {
	if tx.rolled {
		return errRolledBack
	}
	for _, resource := range tx.created {
		switch r := resource.(type) {
		case *AssetWrapper:
			tx.registry.RegisterAsset(r.Asset)
		case *FormatWrapper:
			tx.registry.RegisterFormat(r.Format)
		case *EffectWrapper:
			tx.registry.RegisterEffect(r.Effect)
		}
	}
	tx.created = nil
	return nil
}

// Rollback discards staged resources. Reserved IDs stay reserved.
func (tx *ResourceTransaction) Rollback() {
	tx.rolled = true
	tx.created = nil
}

func isAudioFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".mp3", ".wav", ".m4a", ".aac", ".flac":
		return true
	}
	return false
}
