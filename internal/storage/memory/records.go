package memory

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"sync"

	"github.com/goliatone/go-survey-collector/pkg/interfaces/host"
)

// Records stores submitted values per record instance.
type Records struct {
	mu     sync.RWMutex
	data   map[string]map[string]string
	known  map[string]struct{}
	writes []host.WriteRequest
}

// NewRecords builds a record store. When fields are given, writes to other
// field names are reported as per-field errors.
func NewRecords(fields ...string) *Records {
	r := &Records{data: make(map[string]map[string]string)}
	if len(fields) > 0 {
		r.known = make(map[string]struct{}, len(fields))
		for _, f := range fields {
			r.known[f] = struct{}{}
		}
	}
	return r
}

func recordKey(k host.RecordKey) string {
	instance := k.RepeatInstance
	if instance < 1 {
		instance = 1
	}
	return k.ProjectID + "|" + k.RecordID + "|" + k.EventID + "|" + strconv.Itoa(instance)
}

// Seed stores submitted values without recording a write.
func (r *Records) Seed(key host.RecordKey, values map[string]string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	row := r.data[recordKey(key)]
	if row == nil {
		row = map[string]string{}
		r.data[recordKey(key)] = row
	}
	for k, v := range values {
		row[k] = v
	}
}

func (r *Records) ReadRecord(_ context.Context, key host.RecordKey) (map[string]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	row := r.data[recordKey(key)]
	out := make(map[string]string, len(row))
	for k, v := range row {
		out[k] = v
	}
	return out, nil
}

func (r *Records) WriteRecord(_ context.Context, req host.WriteRequest) (host.WriteResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	k := recordKey(req.Key)
	row := r.data[k]
	if row == nil {
		row = map[string]string{}
		r.data[k] = row
	}
	names := make([]string, 0, len(req.Values))
	for name := range req.Values {
		names = append(names, name)
	}
	sort.Strings(names)
	var result host.WriteResult
	for _, name := range names {
		if r.known != nil {
			if _, ok := r.known[name]; !ok {
				result.Errors = append(result.Errors, fmt.Sprintf("field %q does not exist", name))
				continue
			}
		}
		row[name] = req.Values[name]
		result.Written = append(result.Written, name)
	}
	copied := make(map[string]string, len(req.Values))
	for k, v := range req.Values {
		copied[k] = v
	}
	r.writes = append(r.writes, host.WriteRequest{Key: req.Key, Values: copied})
	return result, nil
}

// Writes returns every write request received, in order.
func (r *Records) Writes() []host.WriteRequest {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]host.WriteRequest, len(r.writes))
	copy(out, r.writes)
	return out
}
