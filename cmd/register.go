package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/eaglesec/eagle-access/internal/config"
	"github.com/eaglesec/eagle-access/internal/enroll"
	"github.com/eaglesec/eagle-access/internal/store"
)

var registerCmd = &cobra.Command{
	Use:   "register <name>",
	Short: "Register a new user by capturing face samples",
	Long: `Register a new user. The camera captures a series of face samples,
each sample is converted to an embedding, and the collected embeddings
become the user's enrolled identity.

Keep the face steady in front of the camera until the capture finishes.`,
	Args: cobra.ExactArgs(1),
	RunE: runRegister,
}

func init() {
	rootCmd.AddCommand(registerCmd)
}

func runRegister(cmd *cobra.Command, args []string) error {
	name := args[0]
	cfg := config.Load()

	repos, err := openRepositories(cfg)
	if err != nil {
		return err
	}
	defer repos.close()

	session, client := newCaptureSession(cfg)
	enroller := enroll.NewManager(repos.users, repos.embeddings, session, client)

	bar := progressbar.NewOptions(cfg.Capture.NumSamples,
		progressbar.OptionSetDescription("Capturing samples"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionFullWidth(),
	)

	userID, err := enroller.Enroll(context.Background(), name, func(i int) {
		bar.Add(1)
	})
	if err != nil {
		if errors.Is(err, store.ErrDuplicateName) {
			return fmt.Errorf("user %q is already registered", name)
		}
		return fmt.Errorf("starting registration: %w", err)
	}

	// The job runs in the background; poll until it reaches a terminal state.
	status := enroller.Status(name)
	for status == enroll.StatusProcessing {
		time.Sleep(200 * time.Millisecond)
		status = enroller.Status(name)
	}
	fmt.Println()

	if status != enroll.StatusCompleted {
		return fmt.Errorf("registration of %q failed, check the camera and embedding service", name)
	}

	fmt.Printf("Registered %q (id %s)\n", name, userID)
	return nil
}
