package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/alecthomas/kong"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/soundmend/soundmend/internal/audio"
	"github.com/soundmend/soundmend/internal/cli"
	"github.com/soundmend/soundmend/internal/config"
	"github.com/soundmend/soundmend/internal/jobs"
	"github.com/soundmend/soundmend/internal/logging"
	"github.com/soundmend/soundmend/internal/mains"
	"github.com/soundmend/soundmend/internal/processor"
	"github.com/soundmend/soundmend/internal/ui"
)

var (
	version = "0.0.1"
)

// CLI defines the command-line interface
type CLI struct {
	Version     bool    `short:"v" help:"Show version information"`
	Config      string  `short:"c" type:"path" help:"Path to YAML preset file (optional)"`
	Logs        bool    `help:"Save detailed analysis reports next to each output"`
	AnalyzeOnly bool    `name:"analyze-only" help:"Analyze and print suggested settings without processing"`
	AutoTune    bool    `short:"a" help:"Derive stage settings from the input's features"`
	Intensity   float64 `default:"1.0" help:"Scale auto-tuned strengths, 0-1"`
	Diagnose    bool    `help:"Run triple-check diagnostics and save JSON/text reports"`
	MainsAuto   bool    `name:"mains-auto" help:"Pick the 50/60 Hz hum notch from the local timezone"`
	Output      string  `short:"o" type:"path" help:"Output file path (single input only)"`

	NoiseSuppress     *int     `name:"noise-suppress" placeholder:"N" help:"Noise suppression strength 1-100, 0 disables"`
	TransientSuppress *int     `name:"transient-suppress" placeholder:"N" help:"Transient suppression strength 1-100, 0 disables"`
	VoiceIsolate      *int     `name:"voice-isolate" placeholder:"N" help:"Voice isolation strength 1-100, 0 disables"`
	SpectralRepair    *int     `name:"spectral-repair" placeholder:"N" help:"Spectral repair strength 1-100, 0 disables"`
	DynamicEQ         *int     `name:"dynamic-eq" placeholder:"N" help:"Dynamic EQ strength 1-100, 0 disables"`
	Declick           *int     `name:"declick" placeholder:"N" help:"De-click/de-chirp strength 1-100, 0 disables"`
	ToneLow           *float64 `name:"tone-low" placeholder:"DB" help:"Low shelf adjustment, -12..+12 dB"`
	ToneMid           *float64 `name:"tone-mid" placeholder:"DB" help:"Mid peaking adjustment, -12..+12 dB"`
	ToneHigh          *float64 `name:"tone-high" placeholder:"DB" help:"High shelf adjustment, -12..+12 dB"`

	Files []string `arg:"" name:"files" help:"WAV files to process" type:"existingfile" optional:""`
}

func main() {
	cliArgs := &CLI{}
	ctx := kong.Parse(cliArgs,
		kong.Name("soundmend"),
		kong.Description("Voice recording repair and diagnostics"),
		kong.UsageOnError(),
		kong.Vars{
			"version": version,
		},
		kong.Help(cli.StyledHelpPrinter(kong.HelpOptions{Compact: true})),
	)

	// Handle version flag
	if cliArgs.Version {
		cli.PrintVersion(version)
		os.Exit(0)
	}

	// Validate input
	if len(cliArgs.Files) == 0 {
		cli.PrintError("No input files specified")
		ctx.PrintUsage(false)
		os.Exit(1)
	}
	if cliArgs.Output != "" && len(cliArgs.Files) > 1 {
		cli.PrintError("--output only works with a single input file")
		os.Exit(1)
	}

	procCfg, err := buildProcessConfig(cliArgs)
	if err != nil {
		cli.PrintError(err.Error())
		os.Exit(1)
	}

	if cliArgs.AnalyzeOnly {
		if err := runAnalyzeOnly(cliArgs.Files); err != nil {
			cli.PrintError(err.Error())
			os.Exit(1)
		}
		return
	}

	runProcessing(cliArgs, procCfg)
}

// buildProcessConfig merges the preset file and command-line flags into
// one processing configuration. Flags win over preset values.
func buildProcessConfig(cliArgs *CLI) (processor.ProcessConfig, error) {
	preset := config.Default()
	if cliArgs.Config != "" {
		loaded, err := config.Load(cliArgs.Config)
		if err != nil {
			return processor.ProcessConfig{}, err
		}
		preset = loaded
	}

	opts := preset.Options()

	applyStageFlag(&opts.NoiseSuppression, cliArgs.NoiseSuppress)
	applyStageFlag(&opts.TransientSuppression, cliArgs.TransientSuppress)
	applyStageFlag(&opts.VoiceIsolation, cliArgs.VoiceIsolate)
	applyStageFlag(&opts.SpectralRepair, cliArgs.SpectralRepair)
	applyStageFlag(&opts.DynamicEQ, cliArgs.DynamicEQ)
	applyStageFlag(&opts.DeClickDeChirp, cliArgs.Declick)

	if cliArgs.ToneLow != nil {
		opts.LowBandDB = *cliArgs.ToneLow
	}
	if cliArgs.ToneMid != nil {
		opts.MidBandDB = *cliArgs.ToneMid
	}
	if cliArgs.ToneHigh != nil {
		opts.HighBandDB = *cliArgs.ToneHigh
	}

	if cliArgs.MainsAuto || preset.MainsAuto {
		opts.HumFundamental = mains.Fundamental()
	}

	if err := opts.Validate(); err != nil {
		return processor.ProcessConfig{}, err
	}

	intensity := preset.Intensity
	if cliArgs.Intensity != 1.0 {
		intensity = cliArgs.Intensity
	}

	return processor.ProcessConfig{
		Options:    opts,
		AutoTune:   cliArgs.AutoTune || preset.AutoTune,
		Intensity:  intensity,
		OutputPath: cliArgs.Output,
	}, nil
}

// applyStageFlag maps a strength flag onto a stage config. Zero
// disables the stage, 1-100 enables it at that strength.
func applyStageFlag(cfg *processor.StageConfig, value *int) {
	if value == nil {
		return
	}
	if *value <= 0 {
		cfg.Enabled = false
		return
	}
	cfg.Enabled = true
	cfg.Strength = *value
}

// runAnalyzeOnly decodes and analyses each file, printing metrics,
// suggested settings, and recording tips without rendering anything.
func runAnalyzeOnly(files []string) error {
	for _, inputPath := range files {
		buf, err := audio.DecodeWAVFile(inputPath)
		if err != nil {
			return fmt.Errorf("%s: %w", inputPath, err)
		}

		metrics := processor.Measure(buf)
		features, err := processor.AnalyzeBuffer(buf)
		if err != nil {
			return fmt.Errorf("%s: %w", inputPath, err)
		}
		suggestions := processor.Suggest(features)

		logging.DisplayAnalysisResults(os.Stdout, inputPath, metrics, features, &suggestions)

		tips := logging.GenerateRecordingTips(features, metrics)
		if len(tips) > 0 {
			fmt.Println("RECORDING TIPS")
			for _, tip := range tips {
				fmt.Printf("  - %s\n", tip.Message)
			}
			fmt.Println()
		}
	}
	return nil
}

// runProcessing drives the Bubbletea UI while processing files in a
// background goroutine, mirroring progress into the model via the
// program's message channel.
func runProcessing(cliArgs *CLI, procCfg processor.ProcessConfig) {
	// Open debug log file
	debugLog, _ := os.Create("soundmend-debug.log")
	defer debugLog.Close()
	log := func(format string, args ...interface{}) {
		if debugLog != nil {
			fmt.Fprintf(debugLog, format+"\n", args...)
		}
	}

	// Local job records: one per input, completed results attached.
	store := jobs.NewMemoryStore()
	caller := jobs.Caller{ID: currentUser(), Role: jobs.RoleUser}

	// Create the Bubbletea UI model
	model := ui.NewModel(cliArgs.Files)

	// Start the TUI
	p := tea.NewProgram(model, tea.WithAltScreen())

	// Start processing in background
	go func() {
		ctx := context.Background()

		for i, inputPath := range cliArgs.Files {
			fileStartTime := time.Now()

			log("[MAIN] Sending FileStartMsg for file %d: %s", i, inputPath)
			p.Send(ui.FileStartMsg{
				FileIndex: i,
				FileName:  inputPath,
			})

			job, err := store.Create(ctx, caller, inputPath)
			if err == nil {
				if err := store.UpdateStatus(ctx, caller, job.ID, jobs.StatusProcessing, ""); err != nil {
					log("[MAIN] job %s status update failed: %v", job.ID, err)
				}
			}

			ph := &progressHandler{
				p:   p,
				log: log,
			}

			log("[MAIN] Starting ProcessFile for %s", inputPath)
			result, err := processor.ProcessFile(ctx, inputPath, procCfg, ph.callback)
			if err != nil {
				log("[MAIN] ProcessFile failed: %v", err)
				if job != nil {
					if uerr := store.UpdateStatus(ctx, caller, job.ID, jobs.StatusFailed, err.Error()); uerr != nil {
						log("[MAIN] job %s status update failed: %v", job.ID, uerr)
					}
				}
				p.Send(ui.FileCompleteMsg{
					FileIndex: i,
					Error:     err,
				})
				continue
			}
			if job != nil {
				if err := store.AttachResult(ctx, caller, job.ID, result); err != nil {
					log("[MAIN] job %s result attach failed: %v", job.ID, err)
				}
			}

			// Triple-check diagnostics on the applied settings
			var diagReport *processor.TripleCheckReport
			if cliArgs.Diagnose {
				diagReport, err = runDiagnostics(ctx, inputPath, result)
				if err != nil {
					log("[MAIN] Diagnostics failed: %v", err)
				}
			}

			// Generate analysis report if --logs flag is set
			if cliArgs.Logs {
				reportData := logging.ReportData{
					InputPath:   inputPath,
					OutputPath:  result.OutputPath,
					StartTime:   fileStartTime,
					EndTime:     time.Now(),
					AnalyzeTime: ph.analyzeTime,
					RenderTime:  ph.renderTime,
					Result:      result,
					Diagnostics: diagReport,
				}
				if err := logging.GenerateReport(reportData); err != nil {
					log("[MAIN] Failed to generate log file: %v", err)
				}
			}

			log("[MAIN] Sending FileCompleteMsg for file %d", i)
			p.Send(ui.FileCompleteMsg{
				FileIndex: i,
				Result:    result,
			})
		}

		// Signal all complete
		log("[MAIN] Sending AllCompleteMsg")
		p.Send(ui.AllCompleteMsg{})
	}()

	// Run the program
	if _, err := p.Run(); err != nil {
		cli.PrintError(fmt.Sprintf("UI error: %v", err))
		os.Exit(1)
	}
}

// runDiagnostics runs the triple-check on the input with the settings
// that were actually applied, then saves JSON and text reports next to
// the output file. Checkpoint audition WAVs are kept so they can be
// listened to; their paths are listed in the text report.
func runDiagnostics(ctx context.Context, inputPath string, result *processor.ProcessingResult) (*processor.TripleCheckReport, error) {
	report, err := processor.RunTripleCheckFile(ctx, inputPath, result.Applied)
	if err != nil {
		return nil, err
	}

	base := strings.TrimSuffix(result.OutputPath, filepath.Ext(result.OutputPath))
	if err := logging.WriteDiagnosticsJSON(base+"-diagnostics.json", report); err != nil {
		return report, err
	}
	if err := logging.WriteDiagnosticsText(base+"-diagnostics.txt", report); err != nil {
		return report, err
	}
	return report, nil
}

// currentUser resolves the job owner for local runs.
func currentUser() string {
	if u := os.Getenv("USER"); u != "" {
		return u
	}
	return "local"
}

// progressHandler handles progress updates from the processor
type progressHandler struct {
	p   *tea.Program
	log func(string, ...interface{})

	analyzeStart time.Time
	analyzeTime  time.Duration
	renderStart  time.Time
	renderTime   time.Duration
}

func (ph *progressHandler) callback(pass int, passName string, progress float64, level float64) {
	ph.log("[MAIN] Sending ProgressMsg: Pass %d (%s), Progress %.1f%%, Level %.1f dB", pass, passName, progress*100, level)

	// Track pass timing
	if pass == 1 && progress == 0.0 {
		ph.analyzeStart = time.Now()
	} else if pass == 1 && progress == 1.0 {
		ph.analyzeTime = time.Since(ph.analyzeStart)
	} else if pass == 2 && progress == 0.0 {
		ph.renderStart = time.Now()
	} else if pass == 2 && progress == 1.0 {
		ph.renderTime = time.Since(ph.renderStart)
	}

	ph.p.Send(ui.ProgressMsg{
		Pass:     pass,
		PassName: passName,
		Progress: progress,
		Level:    level,
	})
}
