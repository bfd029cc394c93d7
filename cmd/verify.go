package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/eaglesec/eagle-access/internal/config"
	"github.com/eaglesec/eagle-access/internal/recognize"
	"github.com/eaglesec/eagle-access/internal/store"
)

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Capture a probe and decide access",
	Long: `Capture one frame from the camera, match it against the enrolled
users and print the decision. The decision is recorded in the access
log exactly like one made through the web API.`,
	RunE: runVerify,
}

func init() {
	rootCmd.AddCommand(verifyCmd)

	verifyCmd.Flags().Float64("threshold", 0, "Override the similarity threshold for this run")
}

func runVerify(cmd *cobra.Command, args []string) error {
	cfg := config.Load()

	threshold := cfg.Policy.Decision.Threshold
	if t := mustGetFloat64(cmd, "threshold"); t > 0 {
		threshold = t
	}

	repos, err := openRepositories(cfg)
	if err != nil {
		return err
	}
	defer repos.close()

	session, _ := newCaptureSession(cfg)
	matcher := recognize.NewMatcher(threshold)
	verifier := recognize.NewService(repos.embeddings, repos.accessLog, session, matcher)

	decision, err := verifier.Verify(context.Background())
	if err != nil {
		if errors.Is(err, recognize.ErrEmptyRegistry) {
			return errors.New("no users registered, enroll someone first")
		}
		return fmt.Errorf("verification: %w", err)
	}

	if decision.Status == store.DecisionGranted {
		fmt.Printf("ACCESS GRANTED: %s (confidence %.4f)\n", decision.Name, decision.Confidence)
	} else {
		fmt.Printf("ACCESS DENIED (best score %.4f)\n", decision.Confidence)
	}
	for metric, score := range decision.Scores {
		fmt.Printf("  %-10s %.4f\n", metric, score)
	}
	return nil
}
