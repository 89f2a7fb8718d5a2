package pipeline

import (
	"context"
	"errors"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/disintegration/imaging"

	"github.com/fkoller/seamweave/internal/comfytest"
	"github.com/fkoller/seamweave/pkg/comfy"
	"github.com/fkoller/seamweave/pkg/config"
	"github.com/fkoller/seamweave/pkg/editor"
	"github.com/fkoller/seamweave/pkg/segment"
	"github.com/fkoller/seamweave/pkg/workflow"
)

const testWorkflow = `{
	"nodes": [
		{"id": 1, "type": "LoadImage", "widgets_values": ["placeholder.png", "image"]},
		{"id": 2, "type": "CLIPTextEncode", "title": "Prompt",
		 "inputs": [{"name": "text", "widget": {"name": "text"}, "value": ""}],
		 "widgets_values": [""]},
		{"id": 3, "type": "SaveImage", "widgets_values": ["out"]}
	]
}`

type rectMask struct{ rects []segment.Region }

func (m rectMask) Rectangles() []segment.Region { return m.rects }

// testEnv wires a fake server, a config rooted in temp dirs, and a
// runner around a small in-memory document.
type testEnv struct {
	srv    *comfytest.Server
	runner *Runner
	doc    *editor.MemDocument
	outDir string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	srv := comfytest.New()
	t.Cleanup(srv.Close)

	wfDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(wfDir, "flow.json"), []byte(testWorkflow), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg := config.Default()
	cfg.ServerURL = srv.URL()
	cfg.WorkflowsDir = wfDir
	cfg.WorkflowGlobal = "flow"
	cfg.WorkflowRegion = "flow"
	cfg.OutputDir = t.TempDir()
	cfg.FadeRatio = 0.2

	client := comfy.New(comfy.Config{
		ServerURL:    srv.URL(),
		PollInterval: 2 * time.Millisecond,
		MaxPollTime:  2 * time.Second,
	}, nil)

	base := image.NewNRGBA(image.Rect(0, 0, 64, 48))
	for y := 0; y < 48; y++ {
		for x := 0; x < 64; x++ {
			base.SetNRGBA(x, y, color.NRGBA{R: 40, G: 40, B: 40, A: 255})
		}
	}

	return &testEnv{
		srv:    srv,
		runner: NewRunner(client, cfg, nil),
		doc:    editor.NewMemDocument(base),
		outDir: cfg.OutputDir,
	}
}

// queueResult writes a solid PNG into the output dir and queues a job
// script whose result points at it.
func (e *testEnv) queueResult(t *testing.T, name string, w, h int) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: 220, G: 100, B: 100, A: 255})
		}
	}
	if err := imaging.Save(img, filepath.Join(e.outDir, name)); err != nil {
		t.Fatal(err)
	}
	e.srv.QueueScript(comfytest.Script{
		Result: map[string]any{
			"outputs": map[string]any{
				"3": map[string]any{
					"images": []any{map[string]any{"filename": name, "subfolder": ""}},
				},
			},
		},
	})
}

func noParams() []workflow.Override { return []workflow.Override{} }

func TestRunFullEnhancement(t *testing.T) {
	tmpRoot := t.TempDir()
	t.Setenv("TMPDIR", tmpRoot)

	env := newTestEnv(t)
	env.queueResult(t, "global.png", 64, 48)
	env.queueResult(t, "r1.png", 12, 12)
	env.queueResult(t, "r2.png", 16, 16)

	mask := rectMask{rects: []segment.Region{
		{X: 30, Y: 8, Width: 16, Height: 16},
		{X: 6, Y: 10, Width: 12, Height: 12},
	}}

	res, err := env.runner.Run(context.Background(), Options{
		Doc:          env.doc,
		Mask:         mask,
		GlobalParams: noParams(),
		RegionParams: noParams(),
	})
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if res.Status != StatusDone {
		t.Errorf("Status = %v, want done", res.Status)
	}

	// Regions come back sorted by x.
	if len(res.Regions) != 2 || res.Regions[0].X != 6 || res.Regions[1].X != 30 {
		t.Fatalf("Regions = %v", res.Regions)
	}

	// One global layer plus one layer per region.
	if res.GlobalLayer == nil || len(res.RegionLayers) != 2 {
		t.Fatalf("layers: global=%v regions=%d", res.GlobalLayer != nil, len(res.RegionLayers))
	}
	if got := len(env.doc.Layers()); got != 3 {
		t.Errorf("document has %d layers, want 3", got)
	}

	// Region layers sit at their region origins.
	l0 := res.RegionLayers[0].(*editor.MemLayer)
	if l0.OffsetX() != 6 || l0.OffsetY() != 10 {
		t.Errorf("region layer 0 offset = %d,%d", l0.OffsetX(), l0.OffsetY())
	}
	if l0.Width() != 12 || l0.Height() != 12 {
		t.Errorf("region layer 0 size = %dx%d", l0.Width(), l0.Height())
	}

	// Each region punched a transparent hole into the global layer.
	for _, reg := range res.Regions {
		cx, cy := reg.X+reg.Width/2, reg.Y+reg.Height/2
		px, err := res.GlobalLayer.ReadPixels(cx, cy, 1, 1)
		if err != nil {
			t.Fatalf("ReadPixels() error: %v", err)
		}
		if px[3] != 0 {
			t.Errorf("global layer alpha at %d,%d = %d, want 0", cx, cy, px[3])
		}
	}

	// Global then regions, in region order.
	sub := env.srv.Submitted()
	if len(sub) != 3 {
		t.Fatalf("submitted %d jobs, want 3", len(sub))
	}
	if img := submittedImage(t, sub[0]); filepath.Base(img) != "full.jpg" {
		t.Errorf("global job input = %q", img)
	}
	if img := submittedImage(t, sub[1]); filepath.Base(img) != "region0.jpg" {
		t.Errorf("first region job input = %q", img)
	}

	// Temp exports are cleaned up.
	entries, err := os.ReadDir(tmpRoot)
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), "seamweave-") {
			t.Errorf("temp export dir not cleaned: %s", e.Name())
		}
	}
}

// submittedImage digs the injected image path out of a captured prompt.
func submittedImage(t *testing.T, payload map[string]any) string {
	t.Helper()
	prompt, _ := payload["prompt"].(map[string]any)
	node, _ := prompt["1"].(map[string]any)
	inputs, _ := node["inputs"].(map[string]any)
	img, _ := inputs["image"].(string)
	if img == "" {
		t.Fatalf("no image input in %v", payload)
	}
	return img
}

func TestRunRegionsOnlySkipsFailedRegion(t *testing.T) {
	env := newTestEnv(t)

	// First region result has no images, second succeeds.
	env.srv.QueueScript(comfytest.Script{
		Result: map[string]any{"status": map[string]any{"status": "error"}},
	})
	env.queueResult(t, "r2.png", 16, 16)

	mask := rectMask{rects: []segment.Region{
		{X: 2, Y: 2, Width: 12, Height: 12},
		{X: 30, Y: 8, Width: 16, Height: 16},
	}}

	res, err := env.runner.Run(context.Background(), Options{
		Doc:          env.doc,
		Mask:         mask,
		RegionsOnly:  true,
		GlobalParams: noParams(),
		RegionParams: noParams(),
	})
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if res.Status != StatusDone {
		t.Errorf("Status = %v, want done", res.Status)
	}
	if res.GlobalLayer != nil {
		t.Error("regions-only run produced a global layer")
	}
	if res.SkippedRegions != 1 || len(res.RegionLayers) != 1 {
		t.Errorf("skipped=%d layers=%d, want 1 and 1", res.SkippedRegions, len(res.RegionLayers))
	}
}

func TestRunUnusableMaskRunsGlobalOnly(t *testing.T) {
	env := newTestEnv(t)
	env.queueResult(t, "global.png", 64, 48)

	// A mask with no recognized capabilities yields no regions, so only
	// the global pass runs and its layer keeps all its pixels.
	res, err := env.runner.Run(context.Background(), Options{
		Doc:          env.doc,
		Mask:         struct{}{},
		GlobalParams: noParams(),
		RegionParams: noParams(),
	})
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if res.Status != StatusDone {
		t.Errorf("Status = %v, want done", res.Status)
	}
	if len(res.Regions) != 0 || len(res.RegionLayers) != 0 {
		t.Errorf("regions=%d layers=%d, want none", len(res.Regions), len(res.RegionLayers))
	}
	if res.GlobalLayer == nil {
		t.Fatal("no global layer")
	}
	if sub := env.srv.Submitted(); len(sub) != 1 {
		t.Errorf("submitted %d jobs, want 1", len(sub))
	}
	px, err := res.GlobalLayer.ReadPixels(32, 24, 1, 1)
	if err != nil {
		t.Fatalf("ReadPixels() error: %v", err)
	}
	if px[3] != 255 {
		t.Errorf("global layer alpha = %d, want untouched 255", px[3])
	}
}

func TestRunNilMaskEnhancesFullCanvas(t *testing.T) {
	env := newTestEnv(t)
	env.queueResult(t, "global.png", 64, 48)
	env.queueResult(t, "whole.png", 64, 48)

	res, err := env.runner.Run(context.Background(), Options{
		Doc:          env.doc,
		GlobalParams: noParams(),
		RegionParams: noParams(),
	})
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	want := segment.Region{Width: 64, Height: 48}
	if len(res.Regions) != 1 || res.Regions[0] != want {
		t.Fatalf("Regions = %v, want single %v", res.Regions, want)
	}
	if len(res.RegionLayers) != 1 {
		t.Errorf("region layers = %d, want 1", len(res.RegionLayers))
	}
}

func TestRunCancelledByStopFlag(t *testing.T) {
	env := newTestEnv(t)

	res, err := env.runner.Run(context.Background(), Options{
		Doc:          env.doc,
		Stop:         func() bool { return true },
		GlobalParams: noParams(),
		RegionParams: noParams(),
	})
	if !errors.Is(err, ErrStopped) {
		t.Fatalf("Run() error = %v, want ErrStopped", err)
	}
	if res.Status != StatusCancelled {
		t.Errorf("Status = %v, want cancelled", res.Status)
	}
	if env.srv.Interrupts != 1 {
		t.Errorf("Interrupts = %d, want 1", env.srv.Interrupts)
	}
}

func TestRunMissingGlobalWorkflowFails(t *testing.T) {
	env := newTestEnv(t)
	env.runner.Config.WorkflowGlobal = "does-not-exist"

	res, err := env.runner.Run(context.Background(), Options{
		Doc:          env.doc,
		GlobalParams: noParams(),
		RegionParams: noParams(),
	})
	if err == nil {
		t.Fatal("Run() succeeded with a missing global workflow")
	}
	if res.Status != StatusFailed {
		t.Errorf("Status = %v, want failed", res.Status)
	}
}

func TestValueContext(t *testing.T) {
	vals := valueContext(segment.Region{Width: 1280, Height: 720})
	if vals["best-scale"] != "0.5" {
		t.Errorf("best-scale = %q, want 0.5", vals["best-scale"])
	}
	if vals["width"] != "1280" || vals["height"] != "720" {
		t.Errorf("size = %q x %q", vals["width"], vals["height"])
	}

	// Clamps: tiny regions never upscale past 1, huge never below 0.2.
	if v := valueContext(segment.Region{Width: 100, Height: 100})["best-scale"]; v != "1" {
		t.Errorf("small region best-scale = %q, want 1", v)
	}
	if v := valueContext(segment.Region{Width: 10000, Height: 10000})["best-scale"]; v != "0.2" {
		t.Errorf("huge region best-scale = %q, want 0.2", v)
	}
	if v := valueContext(segment.Region{})["best-scale"]; v != "1" {
		t.Errorf("degenerate best-scale = %q, want 1", v)
	}
}

func TestResolveOverrides(t *testing.T) {
	vals := map[string]string{"best-scale": "0.5"}
	got := resolveOverrides([]workflow.Override{
		{Target: "Reduce input amount", Value: "{best-scale}"},
		{Target: "Steps", Value: int64(7)},
		{Target: "Mode", Value: "auto"},
	}, vals)

	if got[0].Value != 0.5 {
		t.Errorf("placeholder value = %v (%T), want 0.5", got[0].Value, got[0].Value)
	}
	if got[1].Value != int64(7) {
		t.Errorf("typed value changed: %v", got[1].Value)
	}
	if got[2].Value != "auto" {
		t.Errorf("plain string changed: %v", got[2].Value)
	}
}
