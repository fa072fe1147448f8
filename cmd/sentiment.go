package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"growthkit/internal/config"
	"growthkit/internal/openai"
	"growthkit/internal/sentiment"
)

var (
	sentimentQuery     string
	sentimentN         int
	sentimentBirdBin   string
	sentimentInputJSON string
	sentimentOutDir    string
	sentimentModel     string
	sentimentNoOpenAI  bool
)

var sentimentCmd = &cobra.Command{
	Use:   "sentiment",
	Short: "Score X post sentiment for a search query via the bird CLI",
	RunE: func(cmd *cobra.Command, args []string) error {
		dataDir, err := DataDir()
		if err != nil {
			return err
		}
		outDir := sentimentOutDir
		if outDir == "" {
			outDir = filepath.Join(dataDir, "x-sentiment")
		}

		reportPath, err := sentiment.Run(cmd.Context(), sentiment.Options{
			Query:     sentimentQuery,
			N:         sentimentN,
			BirdBin:   sentimentBirdBin,
			InputJSON: sentimentInputJSON,
			OutDir:    outDir,
			Model:     sentimentModel,
			NoOpenAI:  sentimentNoOpenAI,
			OpenAI:    openai.New(config.Getenv("OPENAI_API_KEY", "")),
			Log:       log,
		})
		if err != nil {
			return err
		}
		fmt.Println(reportPath)
		return nil
	},
}

func init() {
	sentimentCmd.Flags().StringVar(&sentimentQuery, "query", "", "Search query passed to bird")
	sentimentCmd.Flags().IntVar(&sentimentN, "n", 30, "Number of posts to fetch (1-200)")
	sentimentCmd.Flags().StringVar(&sentimentBirdBin, "bird-bin", "bird", "Path to the bird CLI binary")
	sentimentCmd.Flags().StringVar(&sentimentInputJSON, "input-json", "", "Analyze a saved bird JSON file instead of fetching")
	sentimentCmd.Flags().StringVar(&sentimentOutDir, "out-dir", "", "Output directory (default <data-dir>/x-sentiment)")
	sentimentCmd.Flags().StringVar(&sentimentModel, "model", "gpt-4.1-mini", "Model for sentiment classification")
	sentimentCmd.Flags().BoolVar(&sentimentNoOpenAI, "no-openai", false, "Use the heuristic classifier only")
	rootCmd.AddCommand(sentimentCmd)
}
