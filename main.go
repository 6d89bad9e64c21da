package main

import (
	"log"
	"net/http"
	"time"

	ort "github.com/yalue/onnxruntime_go"

	"github.com/Sujaltalreja04/Sentryva-Technologies-Infrasentinel/detections"
	"github.com/Sujaltalreja04/Sentryva-Technologies-Infrasentinel/metrics"
	"github.com/Sujaltalreja04/Sentryva-Technologies-Infrasentinel/registry"
	"github.com/Sujaltalreja04/Sentryva-Technologies-Infrasentinel/session"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	cfg, err := LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if cfg.ONNXLibraryPath != "" {
		ort.SetSharedLibraryPath(cfg.ONNXLibraryPath)
	}
	if err := ort.InitializeEnvironment(); err != nil {
		log.Fatalf("Failed to initialize ONNX environment: %v", err)
	}
	defer ort.DestroyEnvironment()

	classNames := registry.DefaultClassNames()
	if cfg.LabelsPath != "" {
		classNames, err = registry.LoadClassNames(cfg.LabelsPath)
		if err != nil {
			log.Fatalf("Failed to load class names: %v", err)
		}
	}

	sessions := session.NewManager(cfg.SessionTTL)
	defer sessions.Close()

	m := metrics.New(func() float64 { return float64(sessions.Len()) })

	loader := registry.ONNXLoader(registry.SessionConfig{
		InputSize:  cfg.InputSize,
		PoolSize:   cfg.PoolSize,
		ClassNames: classNames,
	})
	reg := registry.New(func(path string) (detections.Model, error) {
		model, err := loader(path)
		if err == nil {
			m.ModelLoadsTotal.Inc()
		}
		return model, err
	})

	// Warm the model so the first request does not pay the load cost. A
	// failure here is not fatal: requests surface it and a fixed artifact
	// is picked up on retry.
	if _, err := reg.Get(cfg.WeightsPath); err != nil {
		log.Printf("Warning: %v", err)
	} else {
		log.Printf("Loaded detection model %s (%d classes, input %dx%d)",
			cfg.WeightsPath, len(classNames), cfg.InputSize, cfg.InputSize)
	}

	detector := detections.NewDetector(detections.SeverityPolicy{
		High:   cfg.SeverityHigh,
		Medium: cfg.SeverityMedium,
	})

	srv := &http.Server{
		Handler:      newServer(cfg, reg, detector, sessions, m).routes(),
		Addr:         cfg.Addr,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
	}

	log.Printf("Starting server on %s", srv.Addr)
	log.Fatal(srv.ListenAndServe())
}
