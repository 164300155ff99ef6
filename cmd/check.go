package cmd

import (
	"context"
	"fmt"
	"strconv"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/vibast-solutions/ms-go-athlete-subscriptions/app/reference"
	"github.com/vibast-solutions/ms-go-athlete-subscriptions/config"
)

var checkCmd = &cobra.Command{
	Use:   "check <kind> <id>",
	Short: "Probe one reference against the configured peer services",
	Long: "Run a single existence check the same way writes are validated.\n" +
		"Kinds: user, subscription-type, level, add-on, payment-method.",
	Args: cobra.ExactArgs(2),
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	kind, err := reference.ParseKind(args[0])
	if err != nil {
		return err
	}
	id, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid id %q: %w", args[1], err)
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := configureLogging(cfg); err != nil {
		return err
	}

	peers, err := dialPeers(cfg)
	if err != nil {
		return err
	}
	defer peers.Close()

	result := peers.checker(cfg, nil).CheckExists(context.Background(), kind, id)
	entry := logrus.WithField("kind", string(kind)).WithField("id", id).WithField("outcome", result.Outcome.String())
	if result.Err != nil {
		entry = entry.WithError(result.Err)
	}
	entry.Info("Reference check finished")

	fmt.Fprintf(cmd.OutOrStdout(), "%s %d: %s\n", kind, id, result.Outcome)
	if !result.Found() {
		return fmt.Errorf("%s %d is not usable: %s", kind, id, result.Outcome)
	}
	return nil
}
