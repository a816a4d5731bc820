package textures

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	"shading-engine/gfx"
	"shading-engine/internal/logger"
)

type upload struct {
	id   gfx.TextureID
	refs int
}

// Manager caches decoded images by path and shares one GPU texture per
// image between all materials that reference it. Uploads are reference
// counted; the texture is deleted when the last user releases it.
type Manager struct {
	dev gfx.Textures

	mu      sync.Mutex
	images  map[string]*Image
	uploads map[*Image]*upload
}

func NewManager(dev gfx.Textures) *Manager {
	return &Manager{
		dev:     dev,
		images:  make(map[string]*Image),
		uploads: make(map[*Image]*upload),
	}
}

// Load returns the cached image for path, decoding it on first use.
func (m *Manager) Load(path string) (*Image, error) {
	m.mu.Lock()
	if img, ok := m.images[path]; ok {
		m.mu.Unlock()
		return img, nil
	}
	m.mu.Unlock()

	img, err := LoadImage(path)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if cached, ok := m.images[path]; ok {
		return cached, nil
	}
	m.images[path] = img
	return img, nil
}

// Acquire uploads img if needed and returns its texture handle.
// Every successful Acquire must be paired with a Release.
func (m *Manager) Acquire(img *Image) (gfx.TextureID, error) {
	if img == nil {
		return 0, fmt.Errorf("acquire texture: nil image")
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if u, ok := m.uploads[img]; ok {
		u.refs++
		return u.id, nil
	}
	id, err := m.dev.CreateTexture2D(img.Width, img.Height, img.Pixels)
	if err != nil {
		return 0, fmt.Errorf("upload texture %q: %w", img.Name, err)
	}
	m.uploads[img] = &upload{id: id, refs: 1}
	logger.Log.Debug("texture uploaded",
		zap.String("name", img.Name),
		zap.Int("width", img.Width),
		zap.Int("height", img.Height),
		zap.Uint32("id", uint32(id)))
	return id, nil
}

// Release drops one reference to img's texture.
func (m *Manager) Release(img *Image) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.uploads[img]
	if !ok {
		return
	}
	u.refs--
	if u.refs > 0 {
		return
	}
	m.dev.DeleteTexture(u.id)
	delete(m.uploads, img)
}

// Handle returns the texture currently uploaded for img.
func (m *Manager) Handle(img *Image) (gfx.TextureID, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.uploads[img]
	if !ok {
		return 0, false
	}
	return u.id, true
}

// Uploaded reports the number of live GPU textures.
func (m *Manager) Uploaded() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.uploads)
}

// Destroy deletes every remaining texture and forgets all cached images.
func (m *Manager) Destroy() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for img, u := range m.uploads {
		if u.refs > 0 {
			logger.Log.Warn("texture still referenced at shutdown",
				zap.String("name", img.Name), zap.Int("refs", u.refs))
		}
		m.dev.DeleteTexture(u.id)
	}
	m.uploads = make(map[*Image]*upload)
	m.images = make(map[string]*Image)
}
