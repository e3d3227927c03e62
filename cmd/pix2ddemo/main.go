// Command pix2ddemo loads a source and background image, alpha-blends
// them through the engine and writes the result to disk (or, with
// -watch, presents it in an ebiten window). It exists to exercise the
// façade end to end with real image files rather than synthetic
// buffers.
package main

import (
	"flag"
	"fmt"
	"image"
	_ "image/jpeg"
	"image/png"
	"log"
	"os"
	"time"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/pix2d/engine/convert"
	"github.com/pix2d/engine/engine"
	"github.com/pix2d/engine/geometry"
	"github.com/pix2d/engine/hwaccel/gpu"
	"github.com/pix2d/engine/hwaccel/native"
	"github.com/pix2d/engine/op"
)

var (
	srcPath    = flag.String("src", "", "Path to the foreground source image.")
	bgPath     = flag.String("bg", "", "Path to the background image to blend onto.")
	outPath    = flag.String("out", "out.png", "Path to write the blended PNG to.")
	ratio      = flag.Int("ratio", 128, "Alpha blend ratio, 0-255.")
	colorKey   = flag.Int("colorkey", -1, "Optional source color-key to treat as transparent (-1 disables masking).")
	formatFlag = flag.String("format", "rgb565", "Tile pixel format: rgb565 or rgb888.")
	hwFlag     = flag.String("hw", "none", "Hardware backend: none, gpu or native.")
	nativeLib  = flag.String("native-lib", "", "Path to a vendor accelerator shared library (used when -hw=native).")
	watch      = flag.Bool("watch", false, "Present the result in an ebiten window instead of exiting immediately.")
)

func loadImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return img, nil
}

func colorFormat() geometry.ColorFormat {
	if *formatFlag == "rgb888" {
		return geometry.RGB888
	}
	return geometry.RGB565
}

func buildBackends() *op.BackendTable {
	switch *hwFlag {
	case "gpu":
		backend, err := gpu.New()
		if err != nil {
			log.Fatalf("gpu.New: %v", err)
		}
		return &op.BackendTable{Fill: backend, Convert: convert.Tile}
	case "native":
		if *nativeLib == "" {
			log.Fatal("-native-lib is required when -hw=native")
		}
		backend, err := native.Load(*nativeLib)
		if err != nil {
			log.Fatalf("native.Load: %v", err)
		}
		return &op.BackendTable{Fill: backend, Convert: convert.Tile}
	default:
		return &op.BackendTable{Convert: convert.Tile}
	}
}

// window presents the blended target tile via ebiten.RunGame, grounded
// on gintendo.go's New/RunGame split.
type window struct {
	target *geometry.Tile
}

func (w *window) Layout(outsideWidth, outsideHeight int) (int, int) {
	size := w.target.Size()
	return int(size.W), int(size.H)
}

func (w *window) Draw(screen *ebiten.Image) {
	img, err := convert.ToImage(w.target)
	if err != nil {
		log.Printf("ToImage: %v", err)
		return
	}
	screen.WritePixels(img.Pix)
}

func (w *window) Update() error { return nil }

func main() {
	flag.Parse()

	if *srcPath == "" || *bgPath == "" {
		log.Fatal("-src and -bg are both required")
	}

	format := colorFormat()

	srcImg, err := loadImage(*srcPath)
	if err != nil {
		log.Fatalf("loading source: %v", err)
	}
	bgImg, err := loadImage(*bgPath)
	if err != nil {
		log.Fatalf("loading background: %v", err)
	}

	bounds := bgImg.Bounds()
	width, height := uint32(bounds.Dx()), uint32(bounds.Dy())

	source := convert.FromImage(srcImg, format, width, height)
	target := convert.FromImage(bgImg, format, width, height)

	e := engine.New(engine.Config{
		PoolCapacity: 8,
		Backends:     buildBackends(),
	})

	var record *op.Record

	if *colorKey >= 0 {
		if format == geometry.RGB888 {
			record, _ = e.AlphaBlendRGB888Masked(source, target, nil, uint8(*ratio), uint32(*colorKey), op.HWPreferred, nil, nil)
		} else {
			record, _ = e.AlphaBlendRGB565Masked(source, target, nil, uint8(*ratio), uint16(*colorKey), op.HWPreferred, nil, nil)
		}
	} else {
		if format == geometry.RGB888 {
			record, _ = e.AlphaBlendRGB888(source, target, nil, uint8(*ratio), op.HWPreferred, nil, nil)
		} else {
			record, _ = e.AlphaBlendRGB565(source, target, nil, uint8(*ratio), op.HWPreferred, nil, nil)
		}
	}

	// Feature.HasDedicatedThreadFor2DTask is false, so the call above
	// already drained the FIFO inline. Only the gpu backend completes
	// out of band (its readback runs on a worker goroutine), so a
	// short poll covers that case without requiring a dedicated
	// worker for the common synchronous backends.
	for !record.IsComplete() {
		time.Sleep(time.Millisecond)
	}
	if record.IOError() {
		log.Fatalf("blend failed: %v", record.Result())
	}

	if *watch {
		if err := ebiten.RunGame(&window{target: target}); err != nil {
			log.Fatal(err)
		}
		return
	}

	out, err := convert.ToImage(target)
	if err != nil {
		log.Fatalf("ToImage: %v", err)
	}

	f, err := os.Create(*outPath)
	if err != nil {
		log.Fatalf("creating %s: %v", *outPath, err)
	}
	defer f.Close()

	if err := png.Encode(f, out); err != nil {
		log.Fatalf("encoding %s: %v", *outPath, err)
	}
}
