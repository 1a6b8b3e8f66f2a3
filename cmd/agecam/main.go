// agecam - live age and gender estimation over a camera feed.
// Serves the annotated video at http://localhost:<port>/.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/teslashibe/go-agecam/internal/log"
	"github.com/teslashibe/go-agecam/pkg/agecam"
	"github.com/teslashibe/go-agecam/pkg/camera"
	"github.com/teslashibe/go-agecam/pkg/loop"
	"github.com/teslashibe/go-agecam/pkg/model"
)

func main() {
	cfg := parseFlags()

	log.Init(cfg.LogLevel, cfg.LogFormat)

	app, err := agecam.New(cfg)
	if err != nil {
		var cerr *agecam.ConfigError
		if errors.As(err, &cerr) {
			log.Error("configuration error", "field", cerr.Field, "error", cerr.Message)
		} else {
			log.Error("startup failed", "error", err)
		}
		os.Exit(2)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	runErr := app.Run(ctx)
	app.Shutdown()
	if runErr != nil {
		log.Error("runtime error", "error", runErr)
		os.Exit(1)
	}
}

// parseFlags parses command line flags over environment and defaults.
func parseFlags() agecam.Config {
	cfg := agecam.DefaultConfig()
	cfg.LoadEnvConfig()

	port := flag.String("port", cfg.Port, "HTTP port for the live display")
	modelURL := flag.String("model-url", cfg.Model.URL, "Model URL, file:// URL or local path")
	backend := flag.String("backend", string(cfg.Model.Backend), "Inference backend: opencv, onnxruntime")
	ortLib := flag.String("ort-lib", cfg.Model.RuntimeLibrary, "Path to the ONNX Runtime shared library (onnxruntime backend)")
	device := flag.String("camera", cfg.Camera.Device, "Camera index, device path, video file or stream URL")
	preset := flag.String("camera-preset", "", fmt.Sprintf("Camera capture preset: %v", camera.PresetNames()))
	image := flag.String("image", cfg.ImagePath, "Use a still image instead of the camera")
	fps := flag.Int("fps", 0, fmt.Sprintf("Display refresh rate in Hz (default %d)", loop.DefaultRate))
	faceModel := flag.String("face-model", cfg.Face.ModelPath, "YuNet face detector model; when set, inference runs on the detected face")
	faceMargin := flag.Float64("face-margin", cfg.Face.Margin, "Fraction to grow the face box by on each side")
	serial := flag.Bool("serial", cfg.Loop.Serial, "Run inference inline, one frame at a time")
	logLevel := flag.String("log-level", cfg.LogLevel, "Log level: debug, info, warn, error")
	logFormat := flag.String("log-format", cfg.LogFormat, "Log format: text, json")
	flag.Parse()

	if *preset != "" {
		p := camera.GetPreset(*preset)
		if p == nil {
			fmt.Fprintf(os.Stderr, "unknown camera preset %q (have %v)\n", *preset, camera.PresetNames())
			os.Exit(2)
		}
		p.Device = cfg.Camera.Device
		cfg.Camera = *p
	}

	cfg.Port = *port
	cfg.Model.URL = *modelURL
	cfg.Model.Backend = model.Backend(*backend)
	cfg.Model.RuntimeLibrary = *ortLib
	cfg.Camera.Device = *device
	cfg.ImagePath = *image
	cfg.Face.ModelPath = *faceModel
	cfg.Face.Margin = *faceMargin
	if *fps > 0 {
		cfg.Loop.Interval = loop.IntervalForRate(*fps)
	}
	cfg.Loop.Serial = *serial
	cfg.LogLevel = *logLevel
	cfg.LogFormat = *logFormat
	return cfg
}
