package client

import (
	"context"

	"github.com/ValentinKolb/dEntity/lib/entity"
	"github.com/ValentinKolb/dEntity/lib/store"
	"github.com/ValentinKolb/dEntity/lib/store/rstore"
	"github.com/ValentinKolb/dEntity/rpc/common"
	"github.com/ValentinKolb/dEntity/rpc/serializer"
	"github.com/ValentinKolb/dEntity/rpc/transport"
)

// IEntityClient gives access to the backend of a single server shard.
// It is used as forwarder of a remote store (see rstore.NewRemoteStore).
type IEntityClient interface {
	rstore.IForwarder
	rstore.IFetcher
	rstore.IOutsourcedStrings

	// Find returns all entity records of a type. If property is not empty
	// only records with the given property value are returned.
	Find(ctx context.Context, typeName, property, value string) ([]map[string]string, error)
	// Info returns the description of the backend of the shard
	Info(ctx context.Context) (string, error)
	// Close closes the underlying transport
	Close() error
}

// NewRPCClient creates a new RPC client for a shard.
// The registry resolves the aliases written into the forwarded records.
//
// Usage:
//
//	c, err := client.NewRPCClient(1, config, http.NewHttpClientTransport(), serializer.NewBinarySerializer(), registry)
//	backend := rstore.NewRemoteStore(registry, c, rstore.DefaultOptions())
func NewRPCClient(
	shardId uint64,
	config common.ClientConfig,
	transport transport.IRPCClientTransport,
	serializer serializer.IRPCSerializer,
	registry *entity.Registry,
) (IEntityClient, error) {

	if err := transport.Connect(config); err != nil {
		return nil, err
	}

	return &rpcEntityClient{
		rpcClientAdapter: rpcClientAdapter{
			shardId:    shardId,
			config:     config,
			transport:  transport,
			serializer: serializer,
		},
		registry: registry,
	}, nil
}

type rpcEntityClient struct {
	rpcClientAdapter
	registry *entity.Registry
}

// --------------------------------------------------------------------------
// Interface Methods (docu see IEntityClient)
// --------------------------------------------------------------------------

func (c *rpcEntityClient) Forward(ctx context.Context, cs store.ChangeSet) error {
	saved, changed, err := c.records(cs)
	if err != nil {
		return err
	}

	req := common.NewUpdateRequest(saved, cs.Deleted, changed)
	if _, err = c.invoke(ctx, req); err != nil {
		return err
	}

	Logger.Debugf("forwarded %d saved and %d deleted entities to shard %d", len(saved), len(cs.Deleted), c.shardId)
	return nil
}

func (c *rpcEntityClient) Fetch(ctx context.Context, ids []string) ([]map[string]string, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	resp, err := c.invoke(ctx, common.NewGetRequest(ids...))
	if err != nil {
		return nil, err
	}
	return resp.Entities, nil
}

func (c *rpcEntityClient) Find(ctx context.Context, typeName, property, value string) ([]map[string]string, error) {
	resp, err := c.invoke(ctx, common.NewFindRequest(typeName, property, value))
	if err != nil {
		return nil, err
	}
	return resp.Entities, nil
}

func (c *rpcEntityClient) LoadOutsourcedString(ctx context.Context, id, property string) (string, error) {
	resp, err := c.invoke(ctx, common.NewLoadOutsourcedRequest(id, property))
	if err != nil {
		return "", err
	}
	return resp.Value, nil
}

func (c *rpcEntityClient) SaveOutsourcedString(ctx context.Context, id, property, value string) error {
	_, err := c.invoke(ctx, common.NewSaveOutsourcedRequest(id, property, value))
	return err
}

func (c *rpcEntityClient) Info(ctx context.Context) (string, error) {
	resp, err := c.invoke(ctx, common.NewInfoRequest())
	if err != nil {
		return "", err
	}
	return resp.Description, nil
}

func (c *rpcEntityClient) Close() error {
	return c.transport.Close()
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// records converts the modified entities of cs into data records.
// If the change set names the changed properties of an entity only those are sent.
func (c *rpcEntityClient) records(cs store.ChangeSet) ([]map[string]string, map[string][]string, error) {
	var saved []map[string]string
	var changed map[string][]string

	for _, e := range cs.Modified {
		if e == nil || entity.IsTransient(e) {
			continue
		}

		info, ok := c.registry.ByName(e.Type())
		if !ok {
			return nil, nil, store.NewError(store.RetCInvalidOperation, "unknown entity type "+e.Type())
		}
		data := entity.ToData(e, info.Alias)

		if names, ok := cs.Changed(e.ID()); ok {
			data = restrict(data, names)
			if changed == nil {
				changed = make(map[string][]string)
			}
			changed[e.ID()] = names
		}
		saved = append(saved, data)
	}
	return saved, changed, nil
}

// restrict returns the reserved keys of data plus the named properties.
// Named properties missing in data (e.g. outsourced ones) are skipped.
func restrict(data map[string]string, names []string) map[string]string {
	out := map[string]string{
		entity.KeyID:   data[entity.KeyID],
		entity.KeyType: data[entity.KeyType],
	}
	for _, name := range names {
		if v, ok := data[name]; ok {
			out[name] = v
		}
	}
	return out
}
