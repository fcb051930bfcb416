package entity

import (
	"fmt"
	libEntity "github.com/ValentinKolb/dEntity/lib/entity"
	"github.com/ValentinKolb/dEntity/lib/store"
	"github.com/ValentinKolb/dEntity/rpc/common"
	"github.com/ValentinKolb/dEntity/rpc/push"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
)

var (
	getCmd = &cobra.Command{
		Use:   "get [id...]",
		Short: "Reads entities by id",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			records, err := rpcClient.Fetch(requestContext(cmd), args)
			if err != nil {
				return err
			}
			printRecords(records)
			if missing := len(args) - len(records); missing > 0 {
				fmt.Printf("%d of %d entities not found\n", missing, len(args))
			}
			return nil
		},
	}
	putCmd = &cobra.Command{
		Use:   "put [type] [id] [property=value...]",
		Short: "Creates or replaces an entity (use - as id to generate one)",
		Long:  "Creates or replaces an entity. With --partial only the given properties are changed, all other properties of the stored entity are kept.",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			typeName, id := args[0], args[1]
			if id == "-" {
				id = ""
			}

			props, err := parseProperties(args[2:])
			if err != nil {
				return err
			}

			e, err := createEntity(typeName, id)
			if err != nil {
				return err
			}
			e.UpdateProperties(props)

			cs := store.Save(e)
			if partial, _ := cmd.Flags().GetBool("partial"); partial {
				names := make([]string, 0, len(props))
				for name := range props {
					names = append(names, name)
				}
				cs.ChangedProperties = map[string][]string{e.ID(): names}
			}

			if err := rpcClient.Forward(requestContext(cmd), cs); err != nil {
				return err
			}
			fmt.Printf("saved %s\n", e.ID())
			return nil
		},
	}
	delCmd = &cobra.Command{
		Use:   "del [id...]",
		Short: "Deletes entities",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := rpcClient.Forward(requestContext(cmd), store.Delete(args...)); err != nil {
				return err
			}
			fmt.Printf("deleted %d entities\n", len(args))
			return nil
		},
	}
	findCmd = &cobra.Command{
		Use:   "find [type] ([property] [value])",
		Short: "Lists all entities of a type, optionally filtered by a property value",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 && len(args) != 3 {
				return fmt.Errorf("accepts 1 or 3 arg(s), received %d", len(args))
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			var property, value string
			if len(args) == 3 {
				property, value = args[1], args[2]
			}
			records, err := rpcClient.Find(requestContext(cmd), args[0], property, value)
			if err != nil {
				return err
			}
			printRecords(records)
			fmt.Printf("found %d entities\n", len(records))
			return nil
		},
	}
	infoCmd = &cobra.Command{
		Use:   "info",
		Short: "Describes the backend of the shard",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			desc, err := rpcClient.Info(requestContext(cmd))
			if err != nil {
				return err
			}
			fmt.Println(desc)
			return nil
		},
	}
	loadStringCmd = &cobra.Command{
		Use:   "load-string [id] [property]",
		Short: "Reads an outsourced string property",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			value, err := rpcClient.LoadOutsourcedString(requestContext(cmd), args[0], args[1])
			if err != nil {
				return err
			}
			fmt.Println(value)
			return nil
		},
	}
	saveStringCmd = &cobra.Command{
		Use:   "save-string [id] [property] [value]",
		Short: "Writes an outsourced string property",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := rpcClient.SaveOutsourcedString(requestContext(cmd), args[0], args[1], args[2]); err != nil {
				return err
			}
			fmt.Println("saved successfully")
			return nil
		},
	}
	watchCmd = &cobra.Command{
		Use:   "watch",
		Short: "Prints every change applied to the shard until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			endpoints := strings.Split(viper.GetString("endpoints"), ",")
			shardId := viper.GetUint64("shard")

			ctx, stop := signal.NotifyContext(requestContext(cmd), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return push.Watch(ctx, strings.TrimSpace(endpoints[0]), shardId, func(n common.Notification) error {
				for _, record := range n.Entities {
					fmt.Printf("saved   %s\n", formatRecord(record))
				}
				for _, id := range n.Deleted {
					fmt.Printf("deleted %s\n", id)
				}
				return nil
			})
		},
	}
)

func init() {
	putCmd.Flags().Bool("partial", false, "only change the given properties")
}

// createEntity creates an entity of a type. Types unknown to the client are
// registered with their name as alias.
func createEntity(typeName, id string) (libEntity.Entity, error) {
	if _, ok := registry.Lookup(typeName); !ok {
		if err := registry.Register(typeName, "", nil); err != nil {
			return nil, err
		}
	}
	return registry.Create(typeName, id)
}

// parseProperties parses arguments of the form name=value
func parseProperties(args []string) (map[string]string, error) {
	props := make(map[string]string, len(args))
	for _, arg := range args {
		name, value, ok := strings.Cut(arg, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid property %q (expected name=value)", arg)
		}
		if name == libEntity.KeyID || name == libEntity.KeyType {
			return nil, fmt.Errorf("property name %s is reserved", name)
		}
		props[name] = value
	}
	return props, nil
}

func printRecords(records []map[string]string) {
	for _, record := range records {
		fmt.Println(formatRecord(record))
	}
}

// formatRecord prints a record as "<type> <id> k=v ..." with sorted property names
func formatRecord(record map[string]string) string {
	props := libEntity.StripReserved(record)
	names := make([]string, 0, len(props))
	for name := range props {
		names = append(names, name)
	}
	sort.Strings(names)

	var sb strings.Builder
	sb.WriteString(record[libEntity.KeyType])
	sb.WriteString(" ")
	sb.WriteString(record[libEntity.KeyID])
	for _, name := range names {
		fmt.Fprintf(&sb, " %s=%q", name, props[name])
	}
	return sb.String()
}
