package rstore

import (
	"context"

	"github.com/ValentinKolb/dEntity/lib/store"
)

// --------------------------------------------------------------------------
// Interface Definition
// --------------------------------------------------------------------------

// IForwarder sends local change sets to the remote authority.
// The remote applies saves as upserts and ignores deletes of absent ids,
// so a change set may be forwarded more than once.
type IForwarder interface {
	Forward(ctx context.Context, cs store.ChangeSet) error
}

// IFetcher is implemented by forwarders that can load entities from the remote authority.
// Absent ids are not part of the result.
type IFetcher interface {
	Fetch(ctx context.Context, ids []string) ([]map[string]string, error)
}

// IOutsourcedStrings is implemented by forwarders that give access to the
// outsourced strings of the remote authority.
type IOutsourcedStrings interface {
	LoadOutsourcedString(ctx context.Context, id, property string) (string, error)
	SaveOutsourcedString(ctx context.Context, id, property, value string) error
}
