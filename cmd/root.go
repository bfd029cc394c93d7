package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "eagle-access",
	Short: "Face recognition access control for a single entry point",
	Long: `Eagle Access is a face recognition access control service. It enrolls
users by capturing face samples from a camera, stores their embeddings,
and grants or denies entry by comparing a live probe against the
enrolled population. Every decision is recorded in an append-only log.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
}

func initConfig() {
	// .env file is optional, don't fail if not found
	_ = godotenv.Load()
}
