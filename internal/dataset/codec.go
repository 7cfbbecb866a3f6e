package dataset

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/golang/snappy"
	"github.com/spaolacci/murmur3"

	"github.com/segmetric/segmetric/internal/errors"
	"github.com/segmetric/segmetric/pkg/types"
)

// Snapshot blobs are snappy-compressed JSON. Timestamps travel as
// RFC 3339 strings and are restored from the schema's field types on
// decode, so a round trip preserves cell types exactly.

type wireTable struct {
	Fields []wireField     `json:"fields"`
	Rows   [][]interface{} `json:"rows"`
}

type wireField struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// EncodeTable serializes a table into a compressed snapshot blob.
func EncodeTable(tbl *types.Table) ([]byte, error) {
	wire := wireTable{
		Fields: make([]wireField, len(tbl.Schema.Fields)),
		Rows:   make([][]interface{}, len(tbl.Rows)),
	}
	for i, f := range tbl.Schema.Fields {
		wire.Fields[i] = wireField{Name: f.Name, Type: f.Type.String()}
	}
	for i, row := range tbl.Rows {
		out := make([]interface{}, len(row))
		for j, v := range row {
			if t, ok := v.(time.Time); ok {
				out[j] = t.Format(time.RFC3339Nano)
			} else {
				out[j] = v
			}
		}
		wire.Rows[i] = out
	}

	raw, err := json.Marshal(wire)
	if err != nil {
		return nil, errors.NewInternalError("encoding dataset snapshot", err)
	}
	return snappy.Encode(nil, raw), nil
}

// DecodeTable restores a table from a snapshot blob.
func DecodeTable(blob []byte) (*types.Table, error) {
	raw, err := snappy.Decode(nil, blob)
	if err != nil {
		return nil, errors.NewDatasetError(errors.CodeDatasetCorrupt, "decompressing dataset snapshot", err)
	}
	var wire wireTable
	if err := json.Unmarshal(raw, &wire); err != nil {
		return nil, errors.NewDatasetError(errors.CodeDatasetCorrupt, "decoding dataset snapshot", err)
	}

	schema := types.Schema{Fields: make([]types.Field, len(wire.Fields))}
	for i, f := range wire.Fields {
		ft, ok := types.ParseFieldType(f.Type)
		if !ok {
			return nil, errors.NewDatasetError(errors.CodeDatasetCorrupt,
				fmt.Sprintf("unknown field type %q for %s", f.Type, f.Name), nil)
		}
		schema.Fields[i] = types.Field{Name: f.Name, Type: ft}
	}

	tbl := types.NewTable(schema)
	tbl.Rows = make([][]interface{}, 0, len(wire.Rows))
	for _, row := range wire.Rows {
		out := make([]interface{}, len(row))
		for j, v := range row {
			if j < len(schema.Fields) && schema.Fields[j].Type == types.FieldTime {
				s, ok := v.(string)
				if !ok {
					return nil, errors.NewDatasetError(errors.CodeDatasetCorrupt,
						fmt.Sprintf("field %s: expected timestamp string", schema.Fields[j].Name), nil)
				}
				t, err := time.Parse(time.RFC3339Nano, s)
				if err != nil {
					return nil, errors.NewDatasetError(errors.CodeDatasetCorrupt,
						fmt.Sprintf("field %s: bad timestamp", schema.Fields[j].Name), err)
				}
				out[j] = t
			} else {
				out[j] = v
			}
		}
		tbl.AppendRow(out)
	}
	return tbl, nil
}

// Fingerprint hashes a snapshot blob for table identity. Callers that
// memoize pivot results key their cache on this value plus the pivot
// parameters.
func Fingerprint(blob []byte) uint64 {
	return murmur3.Sum64(blob)
}
