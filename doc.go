// Package jonx reads and writes JONX, a columnar, zstd-compressed container
// for arrays of JSON records.
//
// Every record of the input must share one key set. Each key becomes a
// column whose type is detected from its values (sized integers, floats,
// bool, enums, dictionaries, uuid, dates, binary, nested JSON, each possibly
// nullable). Columns are packed, compressed independently and stored next
// to a sorted index for every numeric or temporal column.
//
// # Quick Start
//
// Encode and decode in memory:
//
//	data, err := jonx.EncodeJSON([]byte(`[{"price":10,"name":"a"},{"price":5,"name":"b"}]`))
//	if err != nil {
//	    return err
//	}
//	res, err := jonx.DecodeFromBytes(data)
//	rows, err := res.MarshalRows()
//
// Query a file without decoding every column:
//
//	f, err := jonx.Open("prices.jonx")
//	if err != nil {
//	    return err
//	}
//	min, err := f.FindMin("price", true)
//	avg, err := f.Avg("price")
//
// # Key Packages
//
//	pkg/container    - Byte layout, schema and codec
//	pkg/types        - Type taxonomy and detection
//	pkg/packing      - Column payload encoding
//	pkg/index        - Sorted row indexes
//	pkg/column       - Typed column vectors
//	pkg/compression  - zstd blob codec and output compressors
//	pkg/config       - YAML configuration
//	pkg/jonxerrors   - Structured errors
//
// # Errors
//
// Every failure is a *jonxerrors.Error whose Type tells validation, schema,
// encode, decode, file and index problems apart:
//
//	if jonxerrors.IsDecode(err) {
//	    // corrupt or truncated container
//	}
package jonx
