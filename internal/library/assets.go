package library

import (
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/efebarandurmaz/sikuliflow/internal/idgen"
)

// Image is an uploaded asset. Nodes reference it by ID only.
type Image struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	DataURL string `json:"dataUrl"`
}

// Bytes decodes the base64 payload of a data URL.
func (im Image) Bytes() ([]byte, error) {
	header, payload, ok := strings.Cut(im.DataURL, ",")
	if !ok || !strings.HasPrefix(header, "data:") {
		return nil, fmt.Errorf("image %s: not a data url", im.ID)
	}
	if !strings.HasSuffix(header, ";base64") {
		return []byte(payload), nil
	}
	b, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("image %s: decode: %w", im.ID, err)
	}
	return b, nil
}

// Assets is the image registry of a project.
type Assets struct {
	mu     sync.RWMutex
	ids    idgen.Generator
	images []Image
}

// NewAssets returns a registry that assigns ids from ids.
func NewAssets(ids idgen.Generator, images ...Image) *Assets {
	a := &Assets{ids: ids}
	for _, im := range images {
		if _, ok := a.Get(im.ID); !ok {
			a.images = append(a.images, im)
		}
	}
	return a
}

// Add stores raw image bytes under name and returns the new asset.
func (a *Assets) Add(name string, data []byte) Image {
	im := Image{
		ID:      a.ids.NewID(),
		Name:    name,
		DataURL: "data:" + http.DetectContentType(data) + ";base64," + base64.StdEncoding.EncodeToString(data),
	}
	a.mu.Lock()
	a.images = append(a.images, im)
	a.mu.Unlock()
	return im
}

// Get returns the asset with id.
func (a *Assets) Get(id string) (Image, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	for _, im := range a.images {
		if im.ID == id {
			return im, true
		}
	}
	return Image{}, false
}

// List returns every asset in upload order.
func (a *Assets) List() []Image {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return append([]Image(nil), a.images...)
}

// Name resolves an asset id to its file name, falling back to the id for
// references that are not in the registry.
func (a *Assets) Name(id string) string {
	if im, ok := a.Get(id); ok && im.Name != "" {
		return im.Name
	}
	return id
}
