package item

import (
	"github.com/spf13/cobra"
)

// Cmd is the item command group
var Cmd = &cobra.Command{
	Use:   "item",
	Short: "Manage inventory items",
	Long:  `Use inventory items and activate boosts.`,
}

func init() {
	Cmd.AddCommand(useCmd)
	Cmd.AddCommand(boostCmd)
}
