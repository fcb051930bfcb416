package entity

import (
	"context"
	"github.com/ValentinKolb/dEntity/cmd/util"
	libEntity "github.com/ValentinKolb/dEntity/lib/entity"
	"github.com/ValentinKolb/dEntity/rpc/client"
	"github.com/spf13/cobra"
)

var (
	rpcClient client.IEntityClient
	registry  *libEntity.Registry

	// EntityCommands represents the entity command group
	EntityCommands = &cobra.Command{
		Use:                "entity",
		Short:              "Read and write the entities of a dEntity server shard",
		PersistentPreRunE:  setupEntityClient,
		PersistentPostRunE: closeEntityClient,
	}
)

func init() {
	cobra.OnInitialize(util.InitConfig)

	util.SetupRPCClientFlags(EntityCommands)

	EntityCommands.AddCommand(getCmd)
	EntityCommands.AddCommand(putCmd)
	EntityCommands.AddCommand(delCmd)
	EntityCommands.AddCommand(findCmd)
	EntityCommands.AddCommand(infoCmd)
	EntityCommands.AddCommand(loadStringCmd)
	EntityCommands.AddCommand(saveStringCmd)
	EntityCommands.AddCommand(watchCmd)
	EntityCommands.AddCommand(perfTestCmd)
}

// setupEntityClient initializes the RPC client of the selected shard
func setupEntityClient(cmd *cobra.Command, _ []string) error {
	if err := util.BindCommandFlags(cmd); err != nil {
		return err
	}

	var err error
	if registry, err = util.GetRegistry(); err != nil {
		return err
	}

	s, err := util.GetSerializer()
	if err != nil {
		return err
	}

	rpcClient, err = client.NewRPCClient(
		util.GetShardID(),
		*util.GetClientConfig(),
		util.GetTransport(),
		s,
		registry,
	)
	return err
}

func closeEntityClient(_ *cobra.Command, _ []string) error {
	if rpcClient == nil {
		return nil
	}
	return rpcClient.Close()
}

// requestContext returns the context of a single cli request
func requestContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
