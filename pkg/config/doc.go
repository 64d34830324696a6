// Package config provides configuration for the lumen render-loop governor.
//
// A single Config structure covers every component: the staging buffer pool,
// the texture cache, the memory sampler, the frame tracker with its alert
// thresholds, the governor, tracing and logging. NewDefault returns values
// sized for a 1080p RGBA render loop at 30 fps or better.
//
// # Loading
//
//	cfg, err := config.Load("lumen.yaml")
//	if err != nil {
//		log.Fatal(err)
//	}
//
// Load starts from the defaults, so a file only needs the fields it changes.
// Durations use Go syntax ("500ms", "5s").
//
// # Environment Variable Substitution
//
// ${VAR_NAME} is replaced with the variable's value before parsing, and
// ${VAR_NAME:-fallback} supplies a value when the variable is unset:
//
//	performance:
//	  thresholds:
//	    min_fps: ${LUMEN_MIN_FPS:-30}
//
// # Hot Reload
//
// Watch re-reads the file when it changes and passes every valid result to a
// callback. The governor uses it to swap alert thresholds without dropping
// the frame history.
package config
