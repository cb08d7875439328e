package persistence

import (
	"bytes"
	"fmt"

	"github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/dota-team-tracker/internal/entitystore"
	"github.com/valyala/bytebufferpool"
)

var ErrPersistence = crerr.New("persistence failure")

// Encode serialises a snapshot into its stored form.
func Encode(snap entitystore.Snapshot) ([]byte, error) {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	if err := sonic.ConfigStd.NewEncoder(buf).Encode(snap); err != nil {
		return nil, crerr.Mark(crerr.Wrap(err, "encode snapshot"), ErrPersistence)
	}
	out := bytes.TrimSuffix(buf.B, []byte("\n"))
	return append([]byte(nil), out...), nil
}

func Decode(data []byte) (entitystore.Snapshot, error) {
	var snap entitystore.Snapshot
	if err := sonic.ConfigStd.Unmarshal(data, &snap); err != nil {
		return entitystore.Snapshot{}, crerr.Mark(crerr.Wrap(err, "decode snapshot"), ErrPersistence)
	}
	if snap.Version != entitystore.SnapshotVersion {
		return entitystore.Snapshot{}, crerr.Mark(
			fmt.Errorf("unsupported snapshot version %d", snap.Version),
			ErrPersistence,
		)
	}
	return snap, nil
}
