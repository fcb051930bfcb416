package cmd

import (
	"fmt"
	"github.com/ValentinKolb/dEntity/cmd/entity"
	"github.com/ValentinKolb/dEntity/cmd/serve"
	"github.com/ValentinKolb/dEntity/cmd/util"
	"github.com/spf13/cobra"
	"os"
)

const (
	Version = "0.3.0"
)

var (

	// RootCmd represents the base command when called without any subcommands
	RootCmd = &cobra.Command{
		Use:   "dentity",
		Short: "entity persistence engine",
		Long: fmt.Sprintf(`dEntity (v%s)

An entity persistence engine written in Go. Entities are stored durably
as one file per entity, kept in memory in a shared index and can be
served to remote partial caches that are kept in sync via push updates.`, Version),
	}
	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of dEntity",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("dEntity v%s\n", Version)
		},
	}
)

func init() {
	RootCmd.AddCommand(serve.ServeCmd)
	RootCmd.AddCommand(entity.EntityCommands)
	RootCmd.AddCommand(versionCmd)

	key := "serializer"
	RootCmd.PersistentFlags().String(key, "json", util.WrapString("serializer of the rpc messages (json, gob, binary)"))
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the RootCmd.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
