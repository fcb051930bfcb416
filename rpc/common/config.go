package common

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// --------------------------------------------------------------------------
// RPC server configuration struct
// --------------------------------------------------------------------------

type ServerShardType string

const (
	ShardTypeFileStore   ServerShardType = "file store"
	ShardTypeMemoryStore ServerShardType = "memory store"
)

// ParseShardType parses the short shard type names used on the command line
func ParseShardType(s string) (ServerShardType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "file", string(ShardTypeFileStore):
		return ShardTypeFileStore, nil
	case "memory", "mem", string(ShardTypeMemoryStore):
		return ShardTypeMemoryStore, nil
	default:
		return "", fmt.Errorf("invalid shard type %q, must be one of file, memory", s)
	}
}

type ServerShard struct {
	// ShardID is the ID of the shard
	ShardID uint64
	// Type selects the backend of the shard
	Type ServerShardType
}

// ServerConfig holds all configuration parameters of the dEntity server.
type ServerConfig struct {
	// Backends served by this server
	Shards []ServerShard

	// File store parameters
	DataDir         string // every file shard uses <DataDir>/<shardId>
	StoreVersion    int64  // version of the on-disk layout, <= 0 disables checks
	EntityFormat    string // name of the entity file format (see lib/entity/serializer)
	DeleteOnFailure bool   // delete unreadable entity files while loading

	// Entity types, e.g. "User,Project=proj"
	Types string

	// Request timeout
	TimeoutSecond int64

	// HTTP api settings
	Endpoint string

	// Logging configuration
	LogLevel string
}

// ShardDir returns the data directory of a file shard
func (c *ServerConfig) ShardDir(shardId uint64) string {
	return filepath.Join(c.DataDir, strconv.FormatUint(shardId, 10))
}

// Timeout returns the request timeout as duration
func (c *ServerConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSecond) * time.Second
}

// String returns a formatted string representation of the configuration
func (c *ServerConfig) String() string {
	var sb strings.Builder

	addSection := func(title string) {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s\n", strings.ToUpper(title)))
	}

	addField := func(name, value string) {
		sb.WriteString(fmt.Sprintf("  %-22s: %s\n", name, value))
	}

	addSection("RPC Server")
	addField("Endpoint", c.Endpoint)
	addField("Timeout", fmt.Sprintf("%d sec", c.TimeoutSecond))

	addSection("Logging")
	addField("Log Level", c.LogLevel)

	addSection("Entities")
	addField("Types", c.Types)
	addField("Format", c.EntityFormat)

	addSection("Shards")
	hasFileShard := false
	for _, shard := range c.Shards {
		addField(strconv.FormatUint(shard.ShardID, 10), string(shard.Type))
		hasFileShard = hasFileShard || shard.Type == ShardTypeFileStore
	}

	if hasFileShard {
		addSection("Storage")
		addField("Data Directory", c.DataDir)
		addField("Store Version", strconv.FormatInt(c.StoreVersion, 10))
		addField("Delete On Failure", strconv.FormatBool(c.DeleteOnFailure))
	}
	return sb.String()
}

// --------------------------------------------------------------------------
// RPC client configuration struct
// --------------------------------------------------------------------------

type ClientConfig struct {
	Endpoints     []string
	TimeoutSecond int
	RetryCount    int
}

// Timeout returns the request timeout as duration
func (c *ClientConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSecond) * time.Second
}

// String returns a formatted string representation of the client configuration
func (c *ClientConfig) String() string {
	var sb strings.Builder

	addSection := func(title string) {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s\n", strings.ToUpper(title)))
	}

	addField := func(name, value string) {
		sb.WriteString(fmt.Sprintf("  %-22s: %s\n", name, value))
	}

	addSection("Client Configuration")
	addField("Timeout", fmt.Sprintf("%d sec", c.TimeoutSecond))
	addField("Retry Count", strconv.Itoa(c.RetryCount))

	addSection("Endpoints")
	for i, endpoint := range c.Endpoints {
		addField(strconv.Itoa(i), endpoint)
	}

	return sb.String()
}
