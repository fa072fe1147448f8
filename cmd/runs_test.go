package cmd

import "testing"

func TestRuns_EmptyStateDB(t *testing.T) {
	old := dataDirFlag
	dataDirFlag = t.TempDir()
	defer func() { dataDirFlag = old }()

	if err := runsCmd.RunE(runsCmd, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
