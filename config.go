// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package relay

import (
	"fmt"
	"os"

	"github.com/c2h5oh/datasize"
	"gopkg.in/yaml.v3"
)

// Config holds every tunable the scheduler and connection layer consult.
// Zero-valued fields are filled in by ApplyDefaults, so a partially
// specified YAML document (or none at all) is always safe to pass in.
type Config struct {
	// ListenPort is the TCP port the server binds to on 0.0.0.0.
	ListenPort int `yaml:"listen_port"`

	// MaxReadBuf is the per-connection read ring buffer capacity.
	MaxReadBuf datasize.ByteSize `yaml:"max_read_buf"`
	// MaxWriteBufPerConn is the per-connection write ring buffer capacity.
	MaxWriteBufPerConn datasize.ByteSize `yaml:"max_write_buf_per_conn"`
	// MaxReadChunkSize bounds a single descriptor read/write syscall.
	MaxReadChunkSize int `yaml:"max_read_chunk_size"`
	// ConnQueueDepth bounds each connection's RX and TX packet queues.
	ConnQueueDepth int `yaml:"conn_queue_depth"`
	// ServerQueueDepth bounds the central server TX queue the fairness
	// scheduler collects into and distributes from.
	ServerQueueDepth int `yaml:"server_queue_depth"`
	// ParserRingCapacity is the size of each connection's parser ring
	// buffer. It does not grow; longer bodies are consumed in ring-sized
	// pieces.
	ParserRingCapacity int `yaml:"parser_ring_capacity"`
	// SerializerBlobBytes is the initial size of each connection's
	// serializer blob.
	SerializerBlobBytes int `yaml:"serializer_blob_bytes"`

	// LogLevel is one of "debug", "info", "warn", "error".
	LogLevel string `yaml:"log_level"`
}

// ApplyDefaults fills every zero-valued field with the shipped default.
// Idempotent: calling it twice leaves an already-defaulted Config
// unchanged.
func (c *Config) ApplyDefaults() {
	if c.MaxReadBuf == 0 {
		c.MaxReadBuf = datasize.ByteSize(DefaultMaxReadBuf)
	}
	if c.MaxWriteBufPerConn == 0 {
		c.MaxWriteBufPerConn = datasize.ByteSize(DefaultMaxWriteBufPerConn)
	}
	if c.MaxReadChunkSize == 0 {
		c.MaxReadChunkSize = DefaultMaxReadChunkSize
	}
	if c.ConnQueueDepth == 0 {
		c.ConnQueueDepth = DefaultConnQueueDepth
	}
	if c.ServerQueueDepth == 0 {
		c.ServerQueueDepth = DefaultConnQueueDepth
	}
	if c.ParserRingCapacity == 0 {
		c.ParserRingCapacity = DefaultParserRingCapacity
	}
	if c.SerializerBlobBytes == 0 {
		c.SerializerBlobBytes = DefaultSerializerBlobBytes
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}

// LoadConfig reads a YAML config file from path, overlays shipped defaults
// for anything the file omits, and returns the result. A missing path is
// not an error: callers pass "" to get a pure-default Config (CLI flags
// still apply on top of whatever this returns).
func LoadConfig(path string) (Config, error) {
	var cfg Config
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("relay: load config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("relay: parse config %s: %w", path, err)
		}
	}
	cfg.ApplyDefaults()
	return cfg, nil
}
