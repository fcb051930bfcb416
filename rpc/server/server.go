package server

import (
	"context"
	"fmt"
	"time"

	"github.com/ValentinKolb/dEntity/lib/entity"
	entityserializer "github.com/ValentinKolb/dEntity/lib/entity/serializer"
	"github.com/ValentinKolb/dEntity/lib/store"
	"github.com/ValentinKolb/dEntity/lib/store/fstore"
	"github.com/ValentinKolb/dEntity/lib/store/mstore"
	"github.com/ValentinKolb/dEntity/rpc/common"
	"github.com/ValentinKolb/dEntity/rpc/push"
	"github.com/ValentinKolb/dEntity/rpc/serializer"
	"github.com/ValentinKolb/dEntity/rpc/transport"
	"github.com/VictoriaMetrics/metrics"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/puzpuzpuz/xsync/v3"
)

var Logger = logger.GetLogger("rpc")

// serverShard is a struct that represents a shard in the RPC server
// It contains the backend it encapsulates and the adapter
// that handles requests for the backend
type serverShard struct {
	Backend store.IBackend
	Adapter IRPCServerAdapter
}

// IRPCServer is a dEntity server hosting the backends of its shards
type IRPCServer interface {
	// Init creates (and loads) the backends of all shards and registers the
	// transport handlers. It is called by Serve.
	Init() error
	// Serve initializes the server and starts the transport layer.
	// It blocks until Shutdown is called.
	Serve() error
	// Shutdown stops the transport, disconnects all push subscribers and
	// locks the durable backends.
	Shutdown(ctx context.Context) error
	// Backend returns the backend of a shard
	Backend(shardId uint64) (store.IBackend, bool)
}

// NewRPCServer creates a new RPC server
// It takes a config, transport, serializer and the entity types as parameters
//
// Usage:
//
//	s := server.NewRPCServer(
//		*config,
//		http.NewHttpServerTransport(),
//		serializer.NewBinarySerializer(),
//		registry,
//	)
//
//	if err := s.Serve(); err != nil {
//		panic(err)
//	 }
func NewRPCServer(
	config common.ServerConfig,
	transport transport.IRPCServerTransport,
	serializer serializer.IRPCSerializer,
	registry *entity.Registry,
) IRPCServer {
	return &rpcServer{
		config:     config,
		transport:  transport,
		serializer: serializer,
		registry:   registry,
		shards:     xsync.NewMapOf[uint64, serverShard](),
		hub:        push.NewHub(),
	}
}

type rpcServer struct {
	config     common.ServerConfig
	transport  transport.IRPCServerTransport
	serializer serializer.IRPCSerializer
	registry   *entity.Registry
	shards     *xsync.MapOf[uint64, serverShard]
	hub        push.IHub
}

func (s *rpcServer) registerTransportHandler() {
	s.transport.RegisterHandler(func(shardId uint64, req []byte) []byte {
		var msg common.Message
		var respMsg *common.Message

		start := time.Now()

		// Get appropriate shard
		shard, ok := s.shards.Load(shardId)

		if !ok {
			respMsg = common.NewErrorResponse(store.NewError(store.RetCInvalidOperation,
				fmt.Sprintf("shard %d not found", shardId)))
		} else if err := s.serializer.Deserialize(req, &msg); err != nil {
			respMsg = common.NewErrorResponse(store.WrapError(store.RetCInternalError, err,
				"failed to deserialize request"))
		} else {
			// Let the adapter handle the request
			respMsg = shard.Adapter.Handle(&msg, shard.Backend)
		}

		observeRequest(shardId, msg.MsgType, respMsg, start)

		val, err := s.serializer.Serialize(*respMsg)
		if err != nil {
			Logger.Errorf("failed to serialize %s response: %v", respMsg.MsgType, err)
			val, _ = s.serializer.Serialize(*common.NewErrorResponse(
				store.WrapError(store.RetCInternalError, err, "failed to serialize response")))
		}
		return val
	})
}

// createBackend creates the backend of a shard according to its type
func (s *rpcServer) createBackend(shard common.ServerShard) (store.IBackend, error) {
	switch shard.Type {
	case common.ShardTypeMemoryStore:
		return mstore.NewNamedMemoryStore(fmt.Sprintf("shard-%d", shard.ShardID)), nil

	case common.ShardTypeFileStore:
		format, err := entityserializer.ByName(s.config.EntityFormat)
		if err != nil {
			return nil, err
		}
		backend := fstore.NewFileStore(s.registry, fstore.Options{
			Dir:        s.config.ShardDir(shard.ShardID),
			Version:    s.config.StoreVersion,
			Serializer: format,
		})
		if err := backend.LoadAll(s.config.DeleteOnFailure); err != nil {
			return nil, fmt.Errorf("failed to load shard %d: %w", shard.ShardID, err)
		}
		return backend, nil

	default:
		return nil, fmt.Errorf("invalid shard type: %s", shard.Type)
	}
}

// --------------------------------------------------------------------------
// Interface Methods (docu see IRPCServer)
// --------------------------------------------------------------------------

func (s *rpcServer) Init() error {
	if err := common.InitLoggers(s.config.LogLevel); err != nil {
		return err
	}

	Logger.Infof("Created RPC Server")
	Logger.Infof(s.config.String())

	for _, shardConfig := range s.config.Shards {
		if _, exists := s.shards.Load(shardConfig.ShardID); exists {
			return fmt.Errorf("shard %d is configured more than once", shardConfig.ShardID)
		}

		backend, err := s.createBackend(shardConfig)
		if err != nil {
			return err
		}

		s.shards.Store(shardConfig.ShardID, serverShard{
			Backend: backend,
			Adapter: NewEntityServerAdapter(shardConfig.ShardID, s.registry, s.config.Timeout(), s.hub.Broadcast),
		})
		Logger.Infof("created %s for shard %d: %s", shardConfig.Type, shardConfig.ShardID, backend.Info())
	}

	// Configure the transport layer
	s.transport.Mount(push.Pattern, s.hub.Handler())
	s.registerTransportHandler()

	Logger.Infof("dEntity setup completed successfully")
	return nil
}

func (s *rpcServer) Serve() error {
	if err := s.Init(); err != nil {
		return err
	}
	return s.transport.Listen(s.config)
}

func (s *rpcServer) Shutdown(ctx context.Context) error {
	err := s.transport.Shutdown(ctx)
	s.hub.Close()

	s.shards.Range(func(shardId uint64, shard serverShard) bool {
		if durable, ok := shard.Backend.(store.IDurableBackend); ok {
			durable.Lock()
			Logger.Infof("locked backend of shard %d", shardId)
		}
		return true
	})

	if err != nil {
		return fmt.Errorf("failed to stop transport: %w", err)
	}
	return nil
}

func (s *rpcServer) Backend(shardId uint64) (store.IBackend, bool) {
	shard, ok := s.shards.Load(shardId)
	return shard.Backend, ok
}

// --------------------------------------------------------------------------
// Metrics
// --------------------------------------------------------------------------

// observeRequest records the request counters and the handling duration of a shard
func observeRequest(shardId uint64, msgType common.MessageType, resp *common.Message, start time.Time) {
	labels := fmt.Sprintf(`{shard="%d",type="%s"}`, shardId, msgType)
	metrics.GetOrCreateCounter("dentity_rpc_requests_total" + labels).Inc()
	if resp.Err != "" {
		metrics.GetOrCreateCounter("dentity_rpc_errors_total" + labels).Inc()
	}
	metrics.GetOrCreateHistogram("dentity_rpc_request_duration_seconds" + labels).UpdateDuration(start)
}
