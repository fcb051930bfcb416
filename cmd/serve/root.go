package serve

import (
	"context"
	"fmt"
	cmdUtil "github.com/ValentinKolb/dEntity/cmd/util"
	"github.com/ValentinKolb/dEntity/lib/entity"
	"github.com/ValentinKolb/dEntity/lib/entity/serializer"
	"github.com/ValentinKolb/dEntity/rpc/common"
	rpcSerializer "github.com/ValentinKolb/dEntity/rpc/serializer"
	"github.com/ValentinKolb/dEntity/rpc/server"
	"github.com/ValentinKolb/dEntity/rpc/transport/http"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"
)

var (
	serveCmdConfig = &common.ServerConfig{}
	ServeCmd       = &cobra.Command{
		Use:     "serve",
		Short:   "Start the dEntity server",
		Long:    `Start the dEntity server with the specified configuration. The configuration can be set via command line flags or environment variables. The format of the environment variables is DENTITY_<flag> (e.g. DENTITY_DATA_DIR=/var/lib/dentity)`,
		PreRunE: processConfig,
		RunE:    run,
	}
)

func init() {
	cobra.OnInitialize(cmdUtil.InitConfig)

	key := "shards"
	ServeCmd.PersistentFlags().String(key, "1=file", cmdUtil.WrapString("Comma-separated list of shards to serve. Format: ID=TYPE where TYPE is one of: file, memory"))

	key = "data-dir"
	ServeCmd.PersistentFlags().String(key, "data", cmdUtil.WrapString("DataDir is the root directory of the file shards. Every shard uses its own subdirectory named after the shard id"))

	key = "store-version"
	ServeCmd.PersistentFlags().Int64(key, 1, cmdUtil.WrapString("Version of the on-disk layout. Loading a store written by a newer version fails. Values <= 0 disable the check"))

	key = "format"
	ServeCmd.PersistentFlags().String(key, "json", cmdUtil.WrapString("File format of the stored entities (json, gob, binary, bson, toml, yaml)"))

	key = "delete-on-failure"
	ServeCmd.PersistentFlags().Bool(key, false, cmdUtil.WrapString("Delete entity files that cannot be read while loading instead of failing"))

	key = "types"
	ServeCmd.PersistentFlags().String(key, "", cmdUtil.WrapString("Comma-separated list of entity types. Format: NAME or NAME=ALIAS (e.g. User,Project=proj)"))

	key = "timeout"
	ServeCmd.PersistentFlags().Int64(key, 5, cmdUtil.WrapString("Timeout in seconds for applying a change set"))

	key = "endpoint"
	ServeCmd.PersistentFlags().String(key, "0.0.0.0:8080", cmdUtil.WrapString("The address on which the API will listen"))

	key = "log-level"
	ServeCmd.PersistentFlags().String(key, "info", cmdUtil.WrapString("LogLevel is the level at which logs will be output (debug, info, warn, error)"))
}

// processConfig reads the configuration from the command line flags and environment variables and converts them to the server configuration
func processConfig(cmd *cobra.Command, _ []string) error {
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	shards, err := parseShards(viper.GetString("shards"))
	if err != nil {
		return err
	}
	serveCmdConfig.Shards = shards

	serveCmdConfig.DataDir = viper.GetString("data-dir")
	serveCmdConfig.StoreVersion = viper.GetInt64("store-version")
	serveCmdConfig.EntityFormat = viper.GetString("format")
	serveCmdConfig.DeleteOnFailure = viper.GetBool("delete-on-failure")
	serveCmdConfig.Types = viper.GetString("types")
	serveCmdConfig.TimeoutSecond = viper.GetInt64("timeout")
	serveCmdConfig.Endpoint = viper.GetString("endpoint")
	serveCmdConfig.LogLevel = viper.GetString("log-level")

	if _, err := serializer.ByName(serveCmdConfig.EntityFormat); err != nil {
		return err
	}
	if _, err := common.ParseLogLevel(serveCmdConfig.LogLevel); err != nil {
		return err
	}

	return nil
}

// parseShards parses a shard list of the form "1=file,2=memory"
func parseShards(list string) ([]common.ServerShard, error) {
	shards := []common.ServerShard{}
	for _, shardConfig := range strings.Split(list, ",") {
		if strings.TrimSpace(shardConfig) == "" {
			continue
		}

		parts := strings.Split(shardConfig, "=")
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid shard format: %s (expected ID=TYPE)", shardConfig)
		}

		shardID, err := strconv.ParseUint(strings.TrimSpace(parts[0]), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid shard ID %s: %v", parts[0], err)
		}

		shardType, err := common.ParseShardType(parts[1])
		if err != nil {
			return nil, err
		}

		shards = append(shards, common.ServerShard{
			ShardID: shardID,
			Type:    shardType,
		})
	}

	if len(shards) == 0 {
		return nil, fmt.Errorf("no shards configured")
	}
	return shards, nil
}

// run starts the dEntity server and blocks until it is stopped by a signal
func run(_ *cobra.Command, _ []string) error {
	s, err := rpcSerializer.ByName(viper.GetString("serializer"))
	if err != nil {
		return err
	}

	registry, err := entity.ParseTypeList(serveCmdConfig.Types)
	if err != nil {
		return err
	}

	serv := server.NewRPCServer(
		*serveCmdConfig,
		http.NewHttpServerTransport(),
		s,
		registry,
	)

	errCh := make(chan error, 1)
	go func() {
		errCh <- serv.Serve()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case err := <-errCh:
		return err
	case sig := <-sigCh:
		fmt.Printf("received %s, shutting down\n", sig)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := serv.Shutdown(ctx); err != nil {
		return err
	}
	common.SyncLoggers()
	return nil
}
