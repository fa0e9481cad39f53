package manifest

// entrySchema is the Avro record schema for one manifest file: a sequence
// of ManifestEntry records. Row-typed fields (partition, min/max key,
// column stats) are carried as JSON-encoded bytes, since Row is a
// variable-arity, mixed-type tuple that has no single fixed Avro
// representation — the columnar field list in the entry schema still
// matches the logical schema the format documents; only the row payload
// itself is opaque to Avro, consistently with "row encoding" being an
// external collaborator this engine doesn't own.
const entrySchema = `{
	"type": "record",
	"name": "manifest_entry",
	"namespace": "db.strata",
	"fields": [
		{"name": "kind", "type": "int"},
		{"name": "partition", "type": "bytes"},
		{"name": "bucket", "type": "int"},
		{"name": "file_name", "type": "string"},
		{"name": "file_size", "type": "long"},
		{"name": "row_count", "type": "long"},
		{"name": "min_key", "type": "bytes"},
		{"name": "max_key", "type": "bytes"},
		{"name": "key_stats", "type": "bytes"},
		{"name": "value_stats", "type": "bytes"},
		{"name": "level", "type": "int"}
	]
}`

// fileMetaSchema is the Avro record schema for one manifest-list file: a
// sequence of ManifestFileMeta records.
const fileMetaSchema = `{
	"type": "record",
	"name": "manifest_file_meta",
	"namespace": "db.strata",
	"fields": [
		{"name": "file_name", "type": "string"},
		{"name": "file_size", "type": "long"},
		{"name": "num_added_files", "type": "int"},
		{"name": "num_deleted_files", "type": "int"},
		{"name": "partition_stats", "type": "bytes"}
	]
}`

type entryRecord struct {
	Kind       int32  `avro:"kind"`
	Partition  []byte `avro:"partition"`
	Bucket     int32  `avro:"bucket"`
	FileName   string `avro:"file_name"`
	FileSize   int64  `avro:"file_size"`
	RowCount   int64  `avro:"row_count"`
	MinKey     []byte `avro:"min_key"`
	MaxKey     []byte `avro:"max_key"`
	KeyStats   []byte `avro:"key_stats"`
	ValueStats []byte `avro:"value_stats"`
	Level      int32  `avro:"level"`
}

type fileMetaRecord struct {
	FileName        string `avro:"file_name"`
	FileSize        int64  `avro:"file_size"`
	NumAddedFiles   int32  `avro:"num_added_files"`
	NumDeletedFiles int32  `avro:"num_deleted_files"`
	PartitionStats  []byte `avro:"partition_stats"`
}
