// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package capture records inbound events to a file and reads them back.
//
// A capture file is a CBOR sequence (RFC 8742) of records, one per
// event, written with lib/codec's deterministic encoder. Each record
// carries the protocol, the receive time, the source address and the
// payload. The payload is compressed per record with the file's
// [Compression] (LZ4 block or zstd); records whose payload does not
// shrink are stored uncompressed and tagged accordingly, so a reader
// never needs the writer's setting. Every record also stores the
// BLAKE3-256 digest of the uncompressed payload, which [Reader.Next]
// verifies.
//
// [Writer] is safe for concurrent use: the TCP and UDP reader
// goroutines of a bridge both feed the same writer. Records appear in
// the file in the order Write was called.
//
// The command uses a Writer for --capture and a Reader for --replay.
package capture
