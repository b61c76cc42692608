package opensearch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/opensearch-project/opensearch-go/v2/opensearchapi"

	"github.com/dmitrymomot/repocore/core/txn"
)

// Kind is the registry name of the OpenSearch backend.
const Kind txn.Kind = "opensearch"

// CommitPriority runs the search index last, after every store of record.
const CommitPriority = 10

type action string

const (
	actionIndex  action = "index"
	actionDelete action = "delete"
)

type operation struct {
	action action
	index  string
	id     string
	doc    json.RawMessage
}

// Transaction stages document writes and sends them in one _bulk request on
// commit. Rollback drops the staged writes; nothing reaches the cluster.
type Transaction struct {
	transport opensearchapi.Transport
	refresh   string
	active    bool
	ops       []operation
}

// NewTransaction creates an inactive transaction over transport.
func NewTransaction(transport opensearchapi.Transport, refresh string) *Transaction {
	return &Transaction{transport: transport, refresh: refresh}
}

// Factory returns a registry factory producing transactions over transport,
// usually an *opensearch.Client.
func Factory(transport opensearchapi.Transport, cfg Config) txn.Factory {
	return func() txn.Transaction {
		return NewTransaction(transport, cfg.Refresh)
	}
}

func (t *Transaction) IsReady() bool {
	return t.transport != nil
}

func (t *Transaction) CommitPriority() int {
	return CommitPriority
}

func (t *Transaction) Begin(context.Context) error {
	if t.active {
		return txn.ErrAlreadyActive
	}
	t.active = true
	t.ops = nil
	return nil
}

// Index stages doc for indexing under id. doc is encoded as JSON immediately.
func (t *Transaction) Index(index, id string, doc any) error {
	if !t.active {
		return txn.ErrNotActive
	}
	if index == "" {
		return fmt.Errorf("%w: empty index", ErrInvalidDocument)
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return errors.Join(ErrInvalidDocument, err)
	}
	t.ops = append(t.ops, operation{action: actionIndex, index: index, id: id, doc: raw})
	return nil
}

// Delete stages removal of document id.
func (t *Transaction) Delete(index, id string) error {
	if !t.active {
		return txn.ErrNotActive
	}
	if index == "" || id == "" {
		return fmt.Errorf("%w: delete needs index and id", ErrInvalidDocument)
	}
	t.ops = append(t.ops, operation{action: actionDelete, index: index, id: id})
	return nil
}

// Pending returns the number of staged operations.
func (t *Transaction) Pending() int {
	return len(t.ops)
}

func (t *Transaction) Commit(ctx context.Context) error {
	if !t.active {
		return txn.ErrNotActive
	}
	ops := t.ops
	t.active, t.ops = false, nil
	if len(ops) == 0 {
		return nil
	}

	body, err := encodeBulk(ops)
	if err != nil {
		return errors.Join(ErrBulkFailed, err)
	}

	req := opensearchapi.BulkRequest{Body: bytes.NewReader(body)}
	if t.refresh != "" {
		req.Refresh = t.refresh
	}
	res, err := req.Do(ctx, t.transport)
	if err != nil {
		return errors.Join(ErrBulkFailed, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("%w: %s", ErrBulkFailed, res.Status())
	}
	return checkBulkResponse(res)
}

func (t *Transaction) Rollback(context.Context) error {
	if !t.active {
		return txn.ErrNotActive
	}
	t.active, t.ops = false, nil
	return nil
}

// ActiveIndex returns the OpenSearch transaction of the unit of work in ctx's slot.
func ActiveIndex(ctx context.Context, m *txn.Manager) (*Transaction, bool) {
	return txn.Active[*Transaction](ctx, m, Kind)
}

type bulkMeta struct {
	Index string `json:"_index"`
	ID    string `json:"_id,omitempty"`
}

func encodeBulk(ops []operation) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, op := range ops {
		meta := map[action]bulkMeta{op.action: {Index: op.index, ID: op.id}}
		if err := enc.Encode(meta); err != nil {
			return nil, err
		}
		if op.action == actionIndex {
			buf.Write(op.doc)
			buf.WriteByte('\n')
		}
	}
	return buf.Bytes(), nil
}

type bulkResponse struct {
	Errors bool `json:"errors"`
	Items  []map[string]struct {
		ID     string `json:"_id"`
		Status int    `json:"status"`
		Error  *struct {
			Type   string `json:"type"`
			Reason string `json:"reason"`
		} `json:"error,omitempty"`
	} `json:"items"`
}

// checkBulkResponse reports item failures. A delete of a missing document
// (404) is not a failure.
func checkBulkResponse(res *opensearchapi.Response) error {
	var br bulkResponse
	if err := json.NewDecoder(res.Body).Decode(&br); err != nil {
		return errors.Join(ErrBulkFailed, err)
	}
	if !br.Errors {
		return nil
	}

	var errs []error
	for _, item := range br.Items {
		for act, r := range item {
			if r.Error == nil || (action(act) == actionDelete && r.Status == 404) {
				continue
			}
			errs = append(errs, fmt.Errorf("%s %s: %s: %s", act, r.ID, r.Error.Type, r.Error.Reason))
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrBulkFailed, errors.Join(errs...))
}
