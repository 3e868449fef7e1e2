package server

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ayusman/tinsel/internal/app"
	"github.com/ayusman/tinsel/internal/detector"
	"github.com/ayusman/tinsel/internal/gallery"
	"github.com/ayusman/tinsel/internal/gesture"
	"github.com/ayusman/tinsel/internal/scene"
	"github.com/ayusman/tinsel/internal/store"
)

// recordingInput captures what renderer clients send.
type recordingInput struct {
	mu      sync.Mutex
	hands   [][]detector.HandLandmarks
	cameras []scene.CameraPose
}

func (r *recordingInput) PublishLandmarks(hands []detector.HandLandmarks) gesture.Sample {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hands = append(r.hands, hands)
	return gesture.ClassifyFirst(hands)
}

func (r *recordingInput) SetCamera(pose scene.CameraPose) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cameras = append(r.cameras, pose)
}

func (r *recordingInput) counts() (hands, cameras int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.hands), len(r.cameras)
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met before deadline")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func dialScene(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/scene"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestAPI_PhotoWorkflow(t *testing.T) {
	tmpDir := t.TempDir()
	s, err := store.New(filepath.Join(tmpDir, "test.db"))
	if err != nil {
		t.Fatalf("store.New() error = %v", err)
	}
	defer s.Close()

	g := gallery.New(gallery.Config{
		Collection: scene.NewCollection(),
		Store:      s,
		Dir:        filepath.Join(tmpDir, "photos"),
	})
	if err := g.Load(true); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	srv := New(Config{Photos: g, PhotoDir: g.Dir()})
	ts := httptest.NewServer(srv)
	defer ts.Close()

	client := ts.Client()

	// 1. Upload a photo
	var img bytes.Buffer
	if err := png.Encode(&img, image.NewGray(image.Rect(0, 0, 4, 4))); err != nil {
		t.Fatal(err)
	}
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, _ := mw.CreateFormFile("file", "holiday.png")
	fw.Write(img.Bytes())
	mw.Close()

	resp, err := client.Post(ts.URL+"/api/photos", mw.FormDataContentType(), &body)
	if err != nil {
		t.Fatalf("POST /api/photos error = %v", err)
	}
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("POST status = %d, want %d", resp.StatusCode, http.StatusCreated)
	}

	var created struct {
		ID  string `json:"id"`
		URL string `json:"url"`
	}
	json.NewDecoder(resp.Body).Decode(&created)
	resp.Body.Close()

	if !strings.HasPrefix(created.URL, "/photos/") {
		t.Fatalf("created url = %s, want /photos/ prefix", created.URL)
	}

	// 2. List photos: four samples plus the upload, in order
	resp, _ = client.Get(ts.URL + "/api/photos")
	var listed struct {
		Photos []struct {
			ID string `json:"id"`
		} `json:"photos"`
	}
	json.NewDecoder(resp.Body).Decode(&listed)
	resp.Body.Close()

	if len(listed.Photos) != 5 {
		t.Fatalf("len(photos) = %d, want 5", len(listed.Photos))
	}
	if listed.Photos[4].ID != created.ID {
		t.Errorf("last photo = %s, want %s", listed.Photos[4].ID, created.ID)
	}

	// 3. Fetch the stored file
	resp, _ = client.Get(ts.URL + created.URL)
	data, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET %s status = %d", created.URL, resp.StatusCode)
	}
	if !bytes.Equal(data, img.Bytes()) {
		t.Error("served photo differs from the upload")
	}
}

func TestHub_BroadcastFrame(t *testing.T) {
	hub := NewHub(&recordingInput{}, false)
	ts := httptest.NewServer(New(Config{Hub: hub}))
	defer ts.Close()
	defer hub.Close()

	conn := dialScene(t, ts)
	waitFor(t, func() bool { return hub.Clients() == 1 })

	hub.Broadcast(scene.Frame{
		Seq:     7,
		Gesture: gesture.KindOpen,
		Anchor:  gesture.Center,
		Objects: []scene.ObjectState{{ID: "1"}},
	})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage() error = %v", err)
	}

	var msg struct {
		Type    string `json:"type"`
		Seq     uint64 `json:"seq"`
		Gesture string `json:"gesture"`
		Objects []struct {
			ID string `json:"id"`
		} `json:"objects"`
	}
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("decode error = %v", err)
	}
	if msg.Type != MsgFrame || msg.Seq != 7 || msg.Gesture != "OPEN" {
		t.Errorf("frame = %+v", msg)
	}
	if len(msg.Objects) != 1 || msg.Objects[0].ID != "1" {
		t.Errorf("objects = %+v", msg.Objects)
	}
}

func TestHub_ClientMessages(t *testing.T) {
	fist := detector.FistLandmarks()
	landmarks := map[string]any{
		"type": MsgLandmarks,
		"hands": []detector.WireHand{{
			Points:     fist.Points[:],
			Handedness: "Right",
			Score:      0.9,
		}},
	}
	camera := map[string]any{
		"type": MsgCamera,
		"camera": map[string]any{
			"position": []float64{0, 0, 12},
			"target":   []float64{0, 0, 0},
			"fov":      50,
			"aspect":   1.5,
			"near":     0.1,
			"far":      1000,
		},
	}

	tests := []struct {
		name            string
		acceptLandmarks bool
		wantHands       int
	}{
		{name: "client source accepts landmarks", acceptLandmarks: true, wantHands: 1},
		{name: "camera source ignores landmarks", acceptLandmarks: false, wantHands: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := &recordingInput{}
			hub := NewHub(input, tt.acceptLandmarks)
			ts := httptest.NewServer(New(Config{Hub: hub}))
			defer ts.Close()
			defer hub.Close()

			conn := dialScene(t, ts)
			if err := conn.WriteJSON(landmarks); err != nil {
				t.Fatal(err)
			}
			if err := conn.WriteMessage(websocket.TextMessage, []byte("not json")); err != nil {
				t.Fatal(err)
			}
			if err := conn.WriteJSON(camera); err != nil {
				t.Fatal(err)
			}

			// Messages are handled in order, so the camera arriving means the
			// landmarks were already handled.
			waitFor(t, func() bool { _, c := input.counts(); return c == 1 })

			hands, _ := input.counts()
			if hands != tt.wantHands {
				t.Errorf("landmark messages = %d, want %d", hands, tt.wantHands)
			}

			input.mu.Lock()
			pose := input.cameras[0]
			input.mu.Unlock()
			if pose.Position[2] != 12 || pose.FOV != 50 || pose.Aspect != 1.5 {
				t.Errorf("camera pose = %+v", pose)
			}
		})
	}
}

func TestHub_Disconnect(t *testing.T) {
	hub := NewHub(&recordingInput{}, false)
	ts := httptest.NewServer(New(Config{Hub: hub}))
	defer ts.Close()

	conn := dialScene(t, ts)
	waitFor(t, func() bool { return hub.Clients() == 1 })

	conn.Close()
	waitFor(t, func() bool { return hub.Clients() == 0 })

	// Broadcasting with no clients is a no-op.
	hub.Broadcast(scene.Frame{Seq: 1})
	hub.Close()
}

type fakePreview struct {
	p       atomic.Pointer[app.Preview]
	viewers atomic.Int32
}

func (f *fakePreview) LatestPreview() *app.Preview { return f.p.Load() }

func (f *fakePreview) WatchPreview() func() {
	f.viewers.Add(1)
	return func() { f.viewers.Add(-1) }
}

func TestStreamHandler_ServesPreview(t *testing.T) {
	preview := &fakePreview{}
	preview.p.Store(&app.Preview{Seq: 1, JPEG: []byte("jpeg-frame-1")})

	ts := httptest.NewServer(New(Config{Preview: preview}))
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/api/stream", nil)
	resp, err := ts.Client().Do(req)
	if err != nil {
		t.Fatalf("GET /api/stream error = %v", err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "multipart/x-mixed-replace") {
		t.Fatalf("Content-Type = %s", ct)
	}

	r := bufio.NewReader(resp.Body)
	var sawBoundary, sawFrame bool
	for i := 0; i < 6 && !sawFrame; i++ {
		line, err := r.ReadString('\n')
		if err != nil {
			t.Fatalf("read error = %v", err)
		}
		if strings.HasPrefix(line, "--frame") {
			sawBoundary = true
		}
		if strings.HasPrefix(line, "jpeg-frame-1") {
			sawFrame = true
		}
	}
	if !sawBoundary || !sawFrame {
		t.Errorf("boundary = %v, frame = %v", sawBoundary, sawFrame)
	}
	if n := preview.viewers.Load(); n != 1 {
		t.Errorf("viewers while streaming = %d, want 1", n)
	}

	cancel()
	resp.Body.Close()
	waitFor(t, func() bool { return preview.viewers.Load() == 0 })
}

func TestStreamHandler_MethodNotAllowed(t *testing.T) {
	handler := NewStreamHandler(&fakePreview{})

	req := httptest.NewRequest(http.MethodPost, "/api/stream", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusMethodNotAllowed)
	}
	if n := handler.source.(*fakePreview).viewers.Load(); n != 0 {
		t.Errorf("viewers = %d after rejected request, want 0", n)
	}
}
