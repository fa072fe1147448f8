package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"growthkit/internal/maildigest"
)

var (
	digestToday        bool
	digestMax          int
	digestAllMailboxes bool
	digestIncludeRaw   bool
	digestNoStateWrite bool
)

var digestCmd = &cobra.Command{
	Use:   "digest",
	Short: "Scan IMAP mailboxes for matching support emails and write a daily digest",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := maildigest.LoadConfig()
		if err != nil {
			return err
		}

		dataDir, err := DataDir()
		if err != nil {
			return err
		}
		db, err := OpenStore()
		if err != nil {
			return err
		}
		defer db.Close()

		result, err := maildigest.Run(cfg, maildigest.Options{
			Today:        digestToday,
			Max:          digestMax,
			AllMailboxes: digestAllMailboxes,
			IncludeRaw:   digestIncludeRaw,
			NoStateWrite: digestNoStateWrite,
			DataDir:      dataDir,
			DB:           db,
			Log:          log,
		})
		if err != nil {
			return err
		}

		fmt.Print(result.Digest)
		return nil
	},
}

func init() {
	digestCmd.Flags().BoolVar(&digestToday, "today", false, "Scan today's mail by date instead of the UID cursor (state is not updated)")
	digestCmd.Flags().IntVar(&digestMax, "max", 200, "Max messages to scan per mailbox")
	digestCmd.Flags().BoolVar(&digestAllMailboxes, "all-mailboxes", false, "Scan every selectable mailbox, not just the configured one")
	digestCmd.Flags().BoolVar(&digestIncludeRaw, "include-raw", false, "Include base64 RFC822 source in saved email records")
	digestCmd.Flags().BoolVar(&digestNoStateWrite, "no-state-write", false, "Do not update the per-mailbox UID cursors")
	rootCmd.AddCommand(digestCmd)
}
