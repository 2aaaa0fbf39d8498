package simtemp

import "encoding/binary"

// RecordSize is the on-wire size of a Record, in bytes.
const RecordSize = 16

// Flag bits carried in Record.Flags.
const (
	// FlagNewSample is set on every record committed by the producer.
	FlagNewSample uint32 = 0x1
	// FlagThreshold is set iff TempMC >= the threshold in effect at commit time.
	FlagThreshold uint32 = 0x2
)

// Record is the fixed 16-byte wire record delivered to stream readers,
// packed in native host byte order:
//
//	timestamp_ns uint64
//	temp_mC      int32
//	flags        uint32
type Record struct {
	TimestampNs uint64
	TempMC      int32
	Flags       uint32
}

// Encode writes the record into buf in native byte order. buf must be at
// least RecordSize bytes.
func (r Record) Encode(buf []byte) {
	binary.NativeEndian.PutUint64(buf[0:8], r.TimestampNs)
	binary.NativeEndian.PutUint32(buf[8:12], uint32(r.TempMC))
	binary.NativeEndian.PutUint32(buf[12:16], r.Flags)
}

// DecodeRecord parses a RecordSize-byte buffer produced by Encode.
func DecodeRecord(buf []byte) Record {
	return Record{
		TimestampNs: binary.NativeEndian.Uint64(buf[0:8]),
		TempMC:      int32(binary.NativeEndian.Uint32(buf[8:12])),
		Flags:       binary.NativeEndian.Uint32(buf[12:16]),
	}
}
