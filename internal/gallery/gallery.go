// Package gallery manages the photos floating in the scene: the built-in
// samples, the SQLite catalog and new files from uploads or the drop
// directory.
package gallery

import (
	"errors"
	"fmt"
	"io"
	"log"
	"math"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"
	"github.com/h2non/filetype"

	"github.com/ayusman/tinsel/internal/scene"
	"github.com/ayusman/tinsel/internal/store"
)

// MaxPhotoSize caps a single upload.
const MaxPhotoSize = 20 << 20

// Photo sources recorded in the catalog.
const (
	SourceSample = "sample"
	SourceUpload = "upload"
)

var (
	// ErrUnsupportedType is returned for content that is not an image.
	ErrUnsupportedType = errors.New("unsupported file type")
	// ErrTooLarge is returned when content exceeds MaxPhotoSize.
	ErrTooLarge = errors.New("photo too large")
)

// Sample is one of the built-in photos shown on first run.
type Sample struct {
	ID       string
	URL      string
	Position mgl64.Vec3
	Rotation mgl64.Vec3
}

// Samples are the built-in photos and their base poses.
var Samples = []Sample{
	{ID: "1", URL: "https://picsum.photos/400/600?random=1", Position: mgl64.Vec3{2, 1, 2}, Rotation: mgl64.Vec3{0, 0, 0}},
	{ID: "2", URL: "https://picsum.photos/400/600?random=2", Position: mgl64.Vec3{-2, 3, 1}, Rotation: mgl64.Vec3{0, 0.5, 0}},
	{ID: "3", URL: "https://picsum.photos/400/600?random=3", Position: mgl64.Vec3{1, 0, -3}, Rotation: mgl64.Vec3{0, -0.5, 0}},
	{ID: "4", URL: "https://picsum.photos/400/600?random=4", Position: mgl64.Vec3{-1.5, -2, 2}, Rotation: mgl64.Vec3{0, 0.2, 0}},
}

// Config configures a Gallery.
type Config struct {
	Collection *scene.Collection
	// Store is optional; without it photos live only in memory.
	Store *store.Store
	// Dir holds uploaded and dropped photo files.
	Dir string
	// URLPrefix is prepended to stored file names, e.g. "/photos/".
	URLPrefix string
	// Rand drives new photo placement. Nil uses a random seed.
	Rand *rand.Rand
}

// Gallery adds photos to the scene collection and keeps the catalog in step.
type Gallery struct {
	collection *scene.Collection
	store      *store.Store
	dir        string
	urlPrefix  string

	mu      sync.Mutex
	rnd     *rand.Rand
	dropped map[string]scene.Object
	// adding holds a channel per path being ingested, closed when done.
	adding  map[string]chan struct{}
}

// New creates a gallery.
func New(cfg Config) *Gallery {
	if cfg.Collection == nil {
		cfg.Collection = scene.NewCollection()
	}
	if cfg.URLPrefix == "" {
		cfg.URLPrefix = "/photos/"
	}
	if cfg.Rand == nil {
		cfg.Rand = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &Gallery{
		collection: cfg.Collection,
		store:      cfg.Store,
		dir:        cfg.Dir,
		urlPrefix:  cfg.URLPrefix,
		rnd:        cfg.Rand,
		dropped:    make(map[string]scene.Object),
		adding:     make(map[string]chan struct{}),
	}
}

// Collection returns the scene collection the gallery feeds.
func (g *Gallery) Collection() *scene.Collection {
	return g.collection
}

// Dir returns the photo directory.
func (g *Gallery) Dir() string {
	return g.dir
}

// Load adds every catalogued photo to the collection in catalog order. When
// the catalog is empty and seed is set, the samples are added and recorded.
func (g *Gallery) Load(seed bool) error {
	var photos []*store.Photo
	if g.store != nil {
		var err error
		photos, err = g.store.Photos().List()
		if err != nil {
			return fmt.Errorf("load photos: %w", err)
		}
	}

	for _, p := range photos {
		g.collection.Add(objectFromPhoto(p))
	}

	if len(photos) == 0 && seed {
		for _, s := range Samples {
			p := &store.Photo{
				ID:       s.ID,
				URL:      s.URL,
				Source:   SourceSample,
				Position: s.Position,
				Rotation: s.Rotation,
			}
			if err := g.record(p); err != nil {
				return err
			}
		}
		log.Printf("Seeded %d sample photos", len(Samples))
		return nil
	}

	log.Printf("Loaded %d photos", len(photos))
	return nil
}

// Upload stores the image read from r and adds it to the scene at a random
// base pose. name is only used for logging.
func (g *Gallery) Upload(name string, r io.Reader) (scene.Object, error) {
	return g.ingest(r, SourceUpload, name)
}

// AddFile ingests the file at path, as the drop directory does. A path that
// was already ingested is skipped and its existing object returned.
func (g *Gallery) AddFile(path string) (scene.Object, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return scene.Object{}, fmt.Errorf("resolve %s: %w", path, err)
	}

	for {
		g.mu.Lock()
		if o, seen := g.dropped[abs]; seen {
			g.mu.Unlock()
			return o, nil
		}
		wait, busy := g.adding[abs]
		if !busy {
			g.adding[abs] = make(chan struct{})
			g.mu.Unlock()
			break
		}
		g.mu.Unlock()
		<-wait
	}

	o, err := g.addFile(abs)

	g.mu.Lock()
	if err == nil {
		g.dropped[abs] = o
	}
	close(g.adding[abs])
	delete(g.adding, abs)
	g.mu.Unlock()
	return o, err
}

func (g *Gallery) addFile(abs string) (scene.Object, error) {
	if g.store != nil {
		p, err := g.store.Photos().GetBySource(abs)
		if err == nil {
			return objectFromPhoto(p), nil
		}
		if !errors.Is(err, store.ErrNotFound) {
			return scene.Object{}, err
		}
	}

	f, err := os.Open(abs)
	if err != nil {
		return scene.Object{}, fmt.Errorf("open %s: %w", abs, err)
	}
	defer f.Close()

	return g.ingest(f, abs, filepath.Base(abs))
}

func (g *Gallery) ingest(r io.Reader, source, name string) (scene.Object, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxPhotoSize+1))
	if err != nil {
		return scene.Object{}, fmt.Errorf("read %s: %w", name, err)
	}
	if len(data) > MaxPhotoSize {
		return scene.Object{}, ErrTooLarge
	}

	kind, err := filetype.Match(data)
	if err != nil || kind == filetype.Unknown || !filetype.IsImage(data) {
		return scene.Object{}, fmt.Errorf("%s: %w", name, ErrUnsupportedType)
	}

	id := uuid.NewString()
	file := id + "." + kind.Extension

	if g.dir == "" {
		return scene.Object{}, errors.New("gallery has no photo directory")
	}
	if err := os.MkdirAll(g.dir, 0755); err != nil {
		return scene.Object{}, fmt.Errorf("create photo dir: %w", err)
	}
	if err := writeFile(filepath.Join(g.dir, file), data); err != nil {
		return scene.Object{}, err
	}

	pos, rot := g.randomPose()
	p := &store.Photo{
		ID:          id,
		URL:         g.urlPrefix + file,
		Source:      source,
		File:        file,
		ContentType: kind.MIME.Value,
		Position:    pos,
		Rotation:    rot,
	}
	if err := g.record(p); err != nil {
		os.Remove(filepath.Join(g.dir, file))
		return scene.Object{}, err
	}

	log.Printf("Added photo %s from %s", id, name)
	return objectFromPhoto(p), nil
}

func (g *Gallery) record(p *store.Photo) error {
	if g.store != nil {
		err := g.store.Photos().Create(p)
		switch {
		case errors.Is(err, store.ErrDuplicate):
			// Already catalogued: the scene uses the stored pose.
			stored, err := g.store.Photos().GetByID(p.ID)
			if err != nil {
				return err
			}
			p = stored
		case err != nil:
			return err
		}
	}
	g.collection.Add(objectFromPhoto(p))
	return nil
}

// randomPose places a new photo within three units of the origin on each
// axis, turned up to half a turn about Y.
func (g *Gallery) randomPose() (pos, rot mgl64.Vec3) {
	g.mu.Lock()
	defer g.mu.Unlock()

	pos = mgl64.Vec3{
		(g.rnd.Float64() - 0.5) * 6,
		(g.rnd.Float64() - 0.5) * 6,
		(g.rnd.Float64() - 0.5) * 6,
	}
	rot = mgl64.Vec3{0, g.rnd.Float64() * math.Pi, 0}
	return pos, rot
}

// IsPhotoName reports whether name has an image extension the gallery
// will try to ingest. Hidden files are ignored.
func IsPhotoName(name string) bool {
	base := filepath.Base(name)
	if strings.HasPrefix(base, ".") {
		return false
	}
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(base)), ".")
	switch ext {
	case "":
		return false
	case "jpeg":
		ext = "jpg"
	case "tiff":
		ext = "tif"
	}
	t := filetype.GetType(ext)
	return t != filetype.Unknown && t.MIME.Type == "image"
}

func writeFile(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("write photo: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("write photo: %w", err)
	}
	return nil
}

func objectFromPhoto(p *store.Photo) scene.Object {
	return scene.Object{
		ID:           p.ID,
		URL:          p.URL,
		BasePosition: mgl64.Vec3(p.Position),
		BaseRotation: mgl64.Vec3(p.Rotation),
	}
}
