// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package config loads netbridge configuration from a single file.
//
// The file is named by the NETBRIDGE_CONFIG environment variable (via
// [Load]) or passed explicitly (via [LoadFile], which the --config flag
// uses). There is no discovery and no fallback search path. Running
// without any file is fine: [Default] yields a working configuration
// that binds TCP and UDP on port 7070.
//
// The format follows the file extension:
//
//   - .yaml, .yml -- gopkg.in/yaml.v3
//   - .json, .jsonc -- JSON with // and /* */ comments and trailing
//     commas, normalized by github.com/tidwall/jsonc
//   - .toml -- github.com/BurntSushi/toml
//
// All three share key names (tcp_port, udp_port, inbound_errors, ...).
// Unknown keys are rejected so typos fail loudly. Keys absent from the
// file keep their [Default] values, which is how an explicit port 0
// (ephemeral) is told apart from "not set".
//
// After decoding, ${VAR} and ${VAR:-default} references in address
// and path fields are expanded from the environment. [Config.Validate]
// checks ranges and enumerations; it knows the literal option sets but
// depends on no other netbridge package.
package config
