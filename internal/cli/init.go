package cli

import (
	"github.com/spf13/cobra"

	"github.com/anchorsec/anchor/internal/workspace"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Scaffold a .anchor/config.yaml in the current directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		return workspace.Init(initForce)
	},
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "overwrite an existing .anchor directory")
	rootCmd.AddCommand(initCmd)
}
