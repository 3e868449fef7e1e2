package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/ayusman/tinsel/internal/app"
	"github.com/ayusman/tinsel/internal/capture"
	"github.com/ayusman/tinsel/internal/config"
	"github.com/ayusman/tinsel/internal/detector"
	"github.com/ayusman/tinsel/internal/gallery"
	"github.com/ayusman/tinsel/internal/gesture"
	"github.com/ayusman/tinsel/internal/scene"
	"github.com/ayusman/tinsel/internal/server"
	"github.com/ayusman/tinsel/internal/store"
	"github.com/ayusman/tinsel/internal/telemetry"
	"github.com/ayusman/tinsel/internal/tray"
)

func main() {
	fmt.Println("Tinsel - Gesture Photo Cloud")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		log.Fatalf("Failed to create data directory: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Setup(ctx, "tinsel", cfg.OTelEndpoint)
	if err != nil {
		log.Fatalf("Failed to set up tracing: %v", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			log.Printf("Failed to flush traces: %v", err)
		}
	}()

	st, err := store.New(cfg.DBPath())
	if err != nil {
		log.Fatalf("Failed to initialize store: %v", err)
	}
	defer st.Close()

	collection := scene.NewCollection()
	photos := gallery.New(gallery.Config{
		Collection: collection,
		Store:      st,
		Dir:        cfg.PhotoDir(),
	})
	if err := photos.Load(cfg.SeedSamples); err != nil {
		log.Fatalf("Failed to load photos: %v", err)
	}
	log.Printf("Scene has %d photos", collection.Len())

	appCfg := app.Config{
		Collection:   collection,
		MotionThresh: cfg.MotionThreshold,
		RenderFPS:    cfg.RenderFPS,
	}
	if cfg.Source == config.SourceCamera {
		appCfg.Camera = capture.NewCamera(capture.Options{DeviceID: cfg.CameraID, Mirror: cfg.Mirror})
		appCfg.Detector = newDetector(cfg)
	}
	application := app.New(appCfg)

	hub := server.NewHub(application, cfg.Source == config.SourceClient)
	application.OnFrame(hub.Broadcast)

	staticDir := cfg.StaticDir
	if staticDir == "" {
		staticDir = findWebDir(cfg.DataDir)
	}
	if staticDir != "" {
		log.Printf("Serving static files from: %s", staticDir)
	}

	srvCfg := server.Config{
		StaticDir: staticDir,
		PhotoDir:  photos.Dir(),
		Photos:    photos,
		Catalog:   st.Photos(),
		Hub:       hub,
	}
	if appCfg.Camera != nil {
		srvCfg.Preview = application
	}
	srv := server.New(srvCfg)

	if err := application.Start(); err != nil {
		log.Fatalf("Failed to start: %v", err)
	}

	var wg sync.WaitGroup
	if cfg.DropDir != "" {
		watcher := gallery.NewWatcher(photos, cfg.DropDir, gallery.DefaultSettle)
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := watcher.Run(ctx); err != nil {
				log.Printf("Drop directory watcher stopped: %v", err)
			}
		}()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := srv.Run(ctx, cfg.Listen); err != nil {
			log.Printf("Server failed: %v", err)
			stop()
		}
	}()

	if cfg.Tray {
		runTray(ctx, stop, application, viewerURL(cfg.Listen))
	} else {
		<-ctx.Done()
	}

	stop()
	log.Println("Shutting down")
	application.Stop()
	wg.Wait()
}

// newDetector returns the MediaPipe detector, or an empty mock when the
// service script cannot be found so the scene still renders at rest.
func newDetector(cfg config.Config) detector.Detector {
	dcfg := detector.DefaultConfig()
	dcfg.MinConfidence = cfg.MinConfidence
	dcfg.MinTrackingConf = cfg.MinConfidence

	d, err := detector.NewMediaPipeDetector(dcfg)
	if err != nil {
		if errors.Is(err, detector.ErrServiceNotFound) {
			log.Printf("MediaPipe unavailable, hand tracking disabled: %v", err)
			return detector.NewMockDetector()
		}
		log.Fatalf("Failed to create detector: %v", err)
	}
	return d
}

// runTray runs the tray on the main goroutine until Quit or ctx is done.
func runTray(ctx context.Context, stop context.CancelFunc, application *app.App, url string) {
	t := tray.New()
	t.OnToggle(application.SetEnabled)
	t.OnOpen(func() {
		if err := openBrowser(url); err != nil {
			log.Printf("Failed to open browser: %v", err)
		}
	})
	t.OnQuit(stop)
	application.OnGesture(func(k gesture.Kind) {
		t.SetGesture(string(k))
	})

	go func() {
		<-ctx.Done()
		t.Stop()
	}()
	t.Run()
}

func viewerURL(listen string) string {
	if strings.HasPrefix(listen, ":") {
		return "http://localhost" + listen
	}
	return "http://" + listen
}

func openBrowser(url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	return cmd.Start()
}

// findWebDir searches for the renderer's web directory in common locations.
// It checks "web", "../web", "../../web" and <dataDir>/web, returning the
// first existing directory or an empty string.
func findWebDir(dataDir string) string {
	for _, p := range []string{"web", "../web", "../../web"} {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			if abs, err := filepath.Abs(p); err == nil {
				return abs
			}
			return p
		}
	}

	dataWebDir := filepath.Join(dataDir, "web")
	if info, err := os.Stat(dataWebDir); err == nil && info.IsDir() {
		return dataWebDir
	}
	return ""
}
