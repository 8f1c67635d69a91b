package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/rohankatakam/relfinder/internal/config"
)

var secretsCmd = &cobra.Command{
	Use:   "secrets",
	Short: "Manage credentials stored in the OS keychain",
	Long: `Store credentials in the OS keychain instead of plaintext files.
Keychain values are used only when neither the config file nor the
environment sets them.

Secrets: sparql-password, api-key, neo4j-password, redis-password`,
}

var secretsSetCmd = &cobra.Command{
	Use:   "set <secret>",
	Short: "Store a secret (read from the terminal or stdin)",
	Args:  cobra.ExactArgs(1),
	RunE:  runSecretsSet,
}

var secretsDeleteCmd = &cobra.Command{
	Use:   "delete <secret>",
	Short: "Remove a secret",
	Args:  cobra.ExactArgs(1),
	RunE:  runSecretsDelete,
}

var secretsStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show which credentials are set",
	Args:  cobra.NoArgs,
	RunE:  runSecretsStatus,
}

func init() {
	secretsCmd.AddCommand(secretsSetCmd)
	secretsCmd.AddCommand(secretsDeleteCmd)
	secretsCmd.AddCommand(secretsStatusCmd)
	rootCmd.AddCommand(secretsCmd)
}

func runSecretsSet(cmd *cobra.Command, args []string) error {
	secret, err := config.ParseSecret(args[0])
	if err != nil {
		return err
	}

	if term.IsTerminal(int(os.Stdin.Fd())) {
		fmt.Printf("Enter %s: ", secret)
	}
	value, err := readSecurely()
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", secret, err)
	}

	if err := config.NewSecretStore().Set(secret, value); err != nil {
		return err
	}
	fmt.Printf("Stored %s in the OS keychain\n", secret)
	return nil
}

func runSecretsDelete(cmd *cobra.Command, args []string) error {
	secret, err := config.ParseSecret(args[0])
	if err != nil {
		return err
	}
	return config.NewSecretStore().Delete(secret)
}

func runSecretsStatus(cmd *cobra.Command, args []string) error {
	mode := config.DetectMode()
	fmt.Printf("Mode: %s (credentials from %s)\n\n", mode, mode.ConfigSource())

	fmt.Printf("  sparql-password   %s\n", config.MaskSecret(cfg.Endpoint.Password))
	fmt.Printf("  api-key           %s\n", config.MaskSecret(cfg.API.APIKey))
	fmt.Printf("  neo4j-password    %s\n", config.MaskSecret(cfg.Neo4j.Password))
	fmt.Printf("  redis-password    %s\n", config.MaskSecret(cfg.Cache.Password))
	return nil
}

// readSecurely reads a secret from stdin without echoing
func readSecurely() (string, error) {
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		b, err := term.ReadPassword(fd)
		fmt.Println()
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(string(b)), nil
	}

	// piped input
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimSpace(line), nil
}
