package cmd

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"growthkit/internal/scratchpad"
)

var (
	padFile  string
	padAgent string
	padRole  string
	padType  string
	padText  string
	padClose string
	padTailN int
)

func openPad() (*scratchpad.Pad, error) {
	path := padFile
	if path == "" {
		dataDir, err := DataDir()
		if err != nil {
			return nil, err
		}
		path = filepath.Join(dataDir, "scratchpad", "AGENT_SCRATCHPAD.md")
	}
	return &scratchpad.Pad{Path: path}, nil
}

var scratchpadCmd = &cobra.Command{
	Use:   "scratchpad",
	Short: "Shared append-only scratchpad for agents working the same task",
}

var padInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the scratchpad file if it does not exist",
	RunE: func(cmd *cobra.Command, args []string) error {
		pad, err := openPad()
		if err != nil {
			return err
		}
		if err := pad.Init(); err != nil {
			return err
		}
		fmt.Println(pad.Path)
		return nil
	},
}

var padAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Append an entry (NOTE, PROGRESS, BLOCKER, ...)",
	RunE: func(cmd *cobra.Command, args []string) error {
		pad, err := openPad()
		if err != nil {
			return err
		}
		_, err = pad.Append(padType, scratchpad.AgentName(padAgent), scratchpad.AgentRole(padRole), padText, "", "")
		return err
	},
}

var padQuestionCmd = &cobra.Command{
	Use:   "question",
	Short: "Append a QUESTION entry and print its id",
	RunE: func(cmd *cobra.Command, args []string) error {
		pad, err := openPad()
		if err != nil {
			return err
		}
		id, err := pad.Append("QUESTION", scratchpad.AgentName(padAgent), scratchpad.AgentRole(padRole), padText, "", "")
		if err != nil {
			return err
		}
		fmt.Println(id)
		return nil
	},
}

var padAnswerCmd = &cobra.Command{
	Use:   "answer",
	Short: "Append an ANSWER entry closing a question",
	RunE: func(cmd *cobra.Command, args []string) error {
		if padClose == "" {
			return fmt.Errorf("--closes is required")
		}
		pad, err := openPad()
		if err != nil {
			return err
		}
		_, err = pad.Append("ANSWER", scratchpad.AgentName(padAgent), scratchpad.AgentRole(padRole), padText, "", padClose)
		return err
	},
}

var padOpenCmd = &cobra.Command{
	Use:   "open-questions",
	Short: "List QUESTION entries not yet closed by an ANSWER",
	RunE: func(cmd *cobra.Command, args []string) error {
		pad, err := openPad()
		if err != nil {
			return err
		}
		qs, err := pad.OpenQuestions()
		if err != nil {
			return err
		}
		if len(qs) == 0 {
			fmt.Println("No open questions.")
			return nil
		}
		for _, q := range qs {
			fmt.Println(q.Header)
		}
		return nil
	},
}

var padTailCmd = &cobra.Command{
	Use:   "tail",
	Short: "Print the last N lines of the scratchpad",
	RunE: func(cmd *cobra.Command, args []string) error {
		pad, err := openPad()
		if err != nil {
			return err
		}
		lines, err := pad.Tail(padTailN)
		if err != nil {
			return err
		}
		if len(lines) > 0 {
			fmt.Println(strings.Join(lines, "\n"))
		}
		return nil
	},
}

func init() {
	scratchpadCmd.PersistentFlags().StringVar(&padFile, "file", "", "Scratchpad path (default <data-dir>/scratchpad/AGENT_SCRATCHPAD.md)")
	scratchpadCmd.PersistentFlags().StringVar(&padAgent, "agent", "", "Agent name (default $AGENT_NAME or $USER)")
	scratchpadCmd.PersistentFlags().StringVar(&padRole, "role", "", "Agent role (default $AGENT_ROLE)")

	padAddCmd.Flags().StringVar(&padType, "type", "NOTE", "Entry type")
	padAddCmd.Flags().StringVar(&padText, "text", "", "Entry body")
	padQuestionCmd.Flags().StringVar(&padText, "text", "", "Question body")
	padAnswerCmd.Flags().StringVar(&padText, "text", "", "Answer body")
	padAnswerCmd.Flags().StringVar(&padClose, "closes", "", "Question id this answer closes")
	padTailCmd.Flags().IntVar(&padTailN, "n", 50, "Number of lines")

	scratchpadCmd.AddCommand(padInitCmd, padAddCmd, padQuestionCmd, padAnswerCmd, padOpenCmd, padTailCmd)
	rootCmd.AddCommand(scratchpadCmd)
}
