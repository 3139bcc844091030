package pipeline

import (
	"fmt"
	"os"
	"strings"

	"parley/internal/asr"
	"parley/internal/config"
	"parley/internal/services"
)

// Preflight validates everything a run needs before any stage executes.
// Failures here are configuration errors: the pipeline refuses to start
// rather than fail midway with half a cache.
func Preflight(cfg *config.Config, audioPath string) error {
	info, err := os.Stat(audioPath)
	if err != nil {
		return services.Wrap(services.ErrConfiguration, "preflight", "input",
			fmt.Sprintf("audio file %s not readable", audioPath), err)
	}
	if info.IsDir() {
		return services.Wrap(services.ErrConfiguration, "preflight", "input",
			fmt.Sprintf("%s is a directory", audioPath), nil)
	}

	if strings.TrimSpace(cfg.Diarization.HFToken) == "" {
		return services.Wrap(services.ErrConfiguration, "preflight", "diarization",
			"hugging face token required (set diarization.hf_token or HF_TOKEN)", nil)
	}

	if cfg.Transcriber.Backend == asr.BackendAWS && strings.TrimSpace(cfg.Transcriber.AWS.Bucket) == "" {
		return services.Wrap(services.ErrConfiguration, "preflight", "transcriber",
			"aws backend requires transcriber.aws.bucket", nil)
	}

	return nil
}
