package config

const (
	defaultOutputDir          = "~/.local/share/parley/output"
	defaultCacheDir           = "~/.local/share/parley/cache"
	defaultLogDir             = "~/.local/share/parley/logs"
	defaultMaxDurationSeconds = 300
	defaultSampleRate         = 16000
	defaultTranscriberBackend = "whisperx"
	defaultTranscriberModel   = "large-v3"
	defaultDiarizationModel   = "pyannote/speaker-diarization-3.1"
	defaultDiarizationRunner  = "pyannote-runner"
	defaultAWSRegion          = "us-east-1"
	defaultAWSPollInterval    = 10
	defaultRequestTimeout     = 60
	defaultMaxKeywords        = 5
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			OutputDir: defaultOutputDir,
			CacheDir:  defaultCacheDir,
			LogDir:    defaultLogDir,
		},
		Audio: Audio{
			MaxDurationSeconds: defaultMaxDurationSeconds,
			SampleRate:         defaultSampleRate,
		},
		Transcriber: Transcriber{
			Backend: defaultTranscriberBackend,
			Model:   defaultTranscriberModel,
			AWS: AWSTranscriber{
				Region:              defaultAWSRegion,
				PollIntervalSeconds: defaultAWSPollInterval,
			},
		},
		Diarization: Diarization{
			Model:        defaultDiarizationModel,
			RunnerBinary: defaultDiarizationRunner,
		},
		Services: Services{
			RequestTimeoutSeconds: defaultRequestTimeout,
		},
		Keywords: Keywords{
			MaxPerSegment: defaultMaxKeywords,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
