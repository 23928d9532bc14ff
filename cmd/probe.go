package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/markuskkkl/dav-pimcore/internal/pimcore"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var probeCmd = &cobra.Command{
	Use:   "probe",
	Short: "Check that the backend accepts the session credentials",
	RunE:  runProbe,
}

func init() {
	rootCmd.AddCommand(probeCmd)
}

func runProbe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	client := pimcore.NewClient(cfg.Backend)
	if !client.Probe(context.Background()) {
		fmt.Fprint(os.Stderr, probeRemediation)
		return errors.New("probe failed")
	}

	fmt.Println("probe ok")
	return nil
}
