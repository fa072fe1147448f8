package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"growthkit/internal/config"
	"growthkit/internal/openai"
	"growthkit/internal/workflow"
)

var (
	wfURLsFile       string
	wfOutDir         string
	wfBriefPath      string
	wfTopN           int
	wfPickIndex      int
	wfVisionModel    string
	wfSkipTrack      bool
	wfAnalysisOnly   bool
	wfReanalyzeEmpty bool
	wfSkipSora       bool
	wfSoraCLI        string
	wfSoraModel      string
	wfSoraSize       string
	wfSoraSeconds    string
	wfSoraOut        string
	wfSkipUpload     bool
	wfUpload         bool
	wfUploadDryRun   bool
)

var workflowCmd = &cobra.Command{
	Use:   "workflow",
	Short: "End-to-end chain: track competitor ads, generate a video, upload a PAUSED draft",
	RunE: func(cmd *cobra.Command, args []string) error {
		if wfURLsFile == "" {
			return fmt.Errorf("--urls-file is required")
		}

		dataDir, err := DataDir()
		if err != nil {
			return err
		}
		outDir := wfOutDir
		if outDir == "" {
			outDir = filepath.Join(dataDir, "meta-ads-library")
		}
		briefPath := wfBriefPath
		if briefPath == "" {
			briefPath = filepath.Join(outDir, "product_brief.json")
		}

		db, err := OpenStore()
		if err != nil {
			return err
		}
		defer db.Close()

		result, err := workflow.Run(cmd.Context(), workflow.Options{
			URLsFile:       wfURLsFile,
			OutDir:         outDir,
			BriefPath:      briefPath,
			TopN:           wfTopN,
			PickIndex:      wfPickIndex,
			VisionModel:    wfVisionModel,
			SkipTrack:      wfSkipTrack,
			AnalysisOnly:   wfAnalysisOnly,
			ReanalyzeEmpty: wfReanalyzeEmpty,
			SkipSora:       wfSkipSora,
			SoraCLI:        wfSoraCLI,
			SoraModel:      wfSoraModel,
			SoraSize:       wfSoraSize,
			SoraSeconds:    wfSoraSeconds,
			SoraOut:        wfSoraOut,
			Upload:         wfUpload,
			SkipUpload:     wfSkipUpload,
			UploadDryRun:   wfUploadDryRun,
			DB:             db,
			AI:             openai.New(config.Getenv("OPENAI_API_KEY", "")),
			Log:            log,
		})
		if err != nil {
			return err
		}

		fmt.Printf("Sora prompt: %s\n", result.PromptPath)
		fmt.Printf("Sora video: %s\n", result.VideoPath)
		if result.SpecPath != "" {
			fmt.Printf("Meta spec: %s\n", result.SpecPath)
			fmt.Printf("Meta results: %s\n", result.ResultsPath)
		}
		return nil
	},
}

func init() {
	workflowCmd.Flags().StringVar(&wfURLsFile, "urls-file", "", "Text file with one advertiser URL per line")
	workflowCmd.Flags().StringVar(&wfOutDir, "out-dir", "", "Output directory (default <data-dir>/meta-ads-library)")
	workflowCmd.Flags().StringVar(&wfBriefPath, "product-brief", "", "Path to the product brief JSON (default <out-dir>/product_brief.json)")
	workflowCmd.Flags().IntVar(&wfTopN, "top-n", 5, "Competitor ads to consider")
	workflowCmd.Flags().IntVar(&wfPickIndex, "pick-index", 0, "Which snapshot top_ads entry to use (0-based)")
	workflowCmd.Flags().StringVar(&wfVisionModel, "vision-model", "gpt-4.1", "Model used for creative analysis")
	workflowCmd.Flags().BoolVar(&wfSkipTrack, "skip-track", false, "Skip the tracking stage (use the existing snapshot)")
	workflowCmd.Flags().BoolVar(&wfAnalysisOnly, "analysis-only", false, "Run the tracking stage in analysis-only mode")
	workflowCmd.Flags().BoolVar(&wfReanalyzeEmpty, "reanalyze-empty", false, "Redo analysis when analysis.json is missing or empty")
	workflowCmd.Flags().BoolVar(&wfSkipSora, "skip-sora", false, "Skip video generation")
	workflowCmd.Flags().StringVar(&wfSoraCLI, "sora-cli", "", "Path to the sora CLI (default $SORA_CLI or 'sora' on PATH)")
	workflowCmd.Flags().StringVar(&wfSoraModel, "sora-model", "sora-2", "Sora model")
	workflowCmd.Flags().StringVar(&wfSoraSize, "sora-size", "720x1280", "Output size WxH")
	workflowCmd.Flags().StringVar(&wfSoraSeconds, "sora-seconds", "8", "Clip length in seconds (4/8/12)")
	workflowCmd.Flags().StringVar(&wfSoraOut, "sora-out", "", "Write the generated mp4 to this path (default under out-dir)")
	workflowCmd.Flags().BoolVar(&wfSkipUpload, "skip-upload", false, "Skip the upload stage")
	workflowCmd.Flags().BoolVar(&wfUpload, "upload", false, "Run the upload stage (creates a PAUSED draft)")
	workflowCmd.Flags().BoolVar(&wfUploadDryRun, "upload-dry-run", false, "Run the uploader in dry-run mode")
	rootCmd.AddCommand(workflowCmd)
}
